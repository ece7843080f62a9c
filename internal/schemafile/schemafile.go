// Package schemafile loads a schemamodel.Schema from a JSON file, for
// callers that declare their mirrored schema as data rather than building a
// programmatic graphql-go schema. Field and type order in the file is
// preserved, matching schemamodel's ordered-slice representation.
package schemafile

import (
	"encoding/json"
	"fmt"
	"os"

	"graphmirror/internal/schemamodel"
)

type fileSchema struct {
	Types []fileType `json:"types"`
}

type fileType struct {
	Name   string      `json:"name"`
	Kind   string      `json:"kind"` // "object" or "union"
	Fields []fileField `json:"fields,omitempty"`
	Union  []string    `json:"union,omitempty"`
}

type fileField struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"` // "id", "primitive", "node", "connection"
	Target string `json:"target,omitempty"`
	Scalar string `json:"scalar,omitempty"`
}

// Load reads path and decodes it into a schemamodel.Schema.
func Load(path string) (schemamodel.Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return schemamodel.Schema{}, fmt.Errorf("schemafile: read %s: %w", path, err)
	}

	var fs fileSchema
	if err := json.Unmarshal(raw, &fs); err != nil {
		return schemamodel.Schema{}, fmt.Errorf("schemafile: parse %s: %w", path, err)
	}

	entries := make([]schemamodel.Entry, 0, len(fs.Types))
	for _, t := range fs.Types {
		decl, err := decodeType(t)
		if err != nil {
			return schemamodel.Schema{}, fmt.Errorf("schemafile: type %q: %w", t.Name, err)
		}
		entries = append(entries, schemamodel.Entry{Name: t.Name, Decl: decl})
	}

	return schemamodel.New(entries...), nil
}

func decodeType(t fileType) (schemamodel.TypeDecl, error) {
	switch t.Kind {
	case "object":
		fields := make([]schemamodel.Field, 0, len(t.Fields))
		for _, f := range t.Fields {
			kind, err := decodeFieldKind(f)
			if err != nil {
				return schemamodel.TypeDecl{}, fmt.Errorf("field %q: %w", f.Name, err)
			}
			fields = append(fields, schemamodel.Field{Name: f.Name, Kind: kind})
		}
		return schemamodel.Object(schemamodel.ObjectType{Fields: fields}), nil
	case "union":
		return schemamodel.Union(schemamodel.UnionType{Clauses: append([]string(nil), t.Union...)}), nil
	default:
		return schemamodel.TypeDecl{}, fmt.Errorf("unknown type kind %q (want object or union)", t.Kind)
	}
}

func decodeFieldKind(f fileField) (schemamodel.FieldKind, error) {
	switch f.Kind {
	case "id":
		return schemamodel.ID(), nil
	case "primitive":
		return schemamodel.Primitive(decodeScalar(f.Scalar)), nil
	case "node":
		if f.Target == "" {
			return schemamodel.FieldKind{}, fmt.Errorf("node field requires a target type")
		}
		return schemamodel.Node(f.Target), nil
	case "connection":
		if f.Target == "" {
			return schemamodel.FieldKind{}, fmt.Errorf("connection field requires a target type")
		}
		return schemamodel.Connection(f.Target), nil
	default:
		return schemamodel.FieldKind{}, fmt.Errorf("unknown field kind %q", f.Kind)
	}
}

func decodeScalar(s string) schemamodel.ScalarKind {
	switch s {
	case "string":
		return schemamodel.ScalarString
	case "int":
		return schemamodel.ScalarInt
	case "float":
		return schemamodel.ScalarFloat
	case "boolean":
		return schemamodel.ScalarBoolean
	default:
		return schemamodel.ScalarOpaque
	}
}
