// Package metablob computes the canonical serialization of
// {formatVersion, schema} stored in the singleton meta row and used to gate
// re-initialization against a mismatched schema.
package metablob

import (
	"encoding/json"
	"fmt"

	"graphmirror/internal/schemamodel"
)

// FormatVersion is the format-compatibility token. Bump it on any change to
// the decomposition algorithm or the relational layout it produces; doing so
// forces every existing database to fail the mismatch check on next open
// rather than risk reading a layout this version no longer understands.
const FormatVersion = "MIRROR_v1"

// wire mirrors Schema/TypeDecl/FieldKind as slices rather than maps so that
// json.Marshal's output is determined entirely by Schema's own declared
// order, never by Go map iteration order.
type wireSchema struct {
	Version string     `json:"version"`
	Types   []wireType `json:"schema"`
}

type wireType struct {
	Name   string      `json:"name"`
	Kind   string      `json:"kind"` // "object" | "union"
	Fields []wireField `json:"fields,omitempty"`
	Union  []string    `json:"clauses,omitempty"`
}

type wireField struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Target string `json:"target,omitempty"`
	Scalar string `json:"scalar,omitempty"`
}

// Compute returns the canonical-JSON blob for {FormatVersion, schema}. It is
// byte-stable for any two Schema values with identical declared content and
// order; it never depends on Go map iteration order because schemamodel.Schema
// exposes its own names in a fixed slice, not a map.
func Compute(schema schemamodel.Schema) (string, error) {
	w := wireSchema{
		Version: FormatVersion,
		Types:   make([]wireType, 0, schema.Len()),
	}
	for _, name := range schema.Names() {
		decl, ok := schema.Lookup(name)
		if !ok {
			return "", fmt.Errorf("metablob: schema reports name %q but lookup failed", name)
		}
		wt := wireType{Name: name}
		switch decl.Tag {
		case schemamodel.TypeObject:
			wt.Kind = "object"
			wt.Fields = make([]wireField, 0, len(decl.Object.Fields))
			for _, f := range decl.Object.Fields {
				wt.Fields = append(wt.Fields, encodeField(f))
			}
		case schemamodel.TypeUnion:
			wt.Kind = "union"
			wt.Union = append([]string(nil), decl.Union.Clauses...)
		default:
			return "", fmt.Errorf("metablob: type %q has unknown TypeDeclTag %d", name, decl.Tag)
		}
		w.Types = append(w.Types, wt)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("metablob: encode schema: %w", err)
	}
	return string(data), nil
}

func encodeField(f schemamodel.Field) wireField {
	wf := wireField{Name: f.Name}
	switch f.Kind.Tag {
	case schemamodel.KindID:
		wf.Kind = "id"
	case schemamodel.KindPrimitive:
		wf.Kind = "primitive"
		wf.Scalar = scalarName(f.Kind.Scalar)
	case schemamodel.KindNode:
		wf.Kind = "node"
		wf.Target = f.Kind.Target
	case schemamodel.KindConnection:
		wf.Kind = "connection"
		wf.Target = f.Kind.Target
	default:
		wf.Kind = fmt.Sprintf("unknown(%d)", int(f.Kind.Tag))
	}
	return wf
}

func scalarName(k schemamodel.ScalarKind) string {
	switch k {
	case schemamodel.ScalarString:
		return "String"
	case schemamodel.ScalarInt:
		return "Int"
	case schemamodel.ScalarFloat:
		return "Float"
	case schemamodel.ScalarBoolean:
		return "Boolean"
	default:
		return ""
	}
}
