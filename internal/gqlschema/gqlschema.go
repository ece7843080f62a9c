// Package gqlschema adapts a programmatically declared graphql-go schema,
// external input supplied by the caller rather than owned by this
// repository, into this repository's closed Schema Model
// (internal/schemamodel). It inspects only declared types and fields; it
// never resolves a query, since this repository is not a query execution
// engine.
package gqlschema

import (
	"fmt"
	"sort"

	"github.com/graphql-go/graphql"

	"graphmirror/internal/schemamodel"
)

// FromGraphQL walks gql's type map and produces the equivalent
// schemamodel.Schema. Object types become schemamodel object declarations;
// union types become schemamodel union declarations; every other kind of
// declared type (scalars, interfaces, enums, input objects, and the builtin
// introspection types) is skipped, since none of them owns rows in the
// mirror.
//
// graphql-go's TypeMap is a Go map and carries no declaration order, so this
// adapter imposes a deterministic order of its own (type names sorted
// lexicographically) rather than inventing one from map iteration. A field's
// own order within an object, by contrast, comes from graphql.Object's
// FieldDefinitionMap, which this adapter also sorts by field name for the
// same reason. Callers that need a specific field order should build the
// schema through schemamodel.New directly instead of through this adapter.
func FromGraphQL(gql *graphql.Schema) (schemamodel.Schema, error) {
	typeMap := gql.TypeMap()
	rootNames := rootTypeNames(gql)

	names := make([]string, 0, len(typeMap))
	for name := range typeMap {
		if isBuiltinName(name) || rootNames[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]schemamodel.Entry, 0, len(names))
	for _, name := range names {
		switch t := typeMap[name].(type) {
		case *graphql.Object:
			obj, err := adaptObject(t)
			if err != nil {
				return schemamodel.Schema{}, fmt.Errorf("gqlschema: type %q: %w", name, err)
			}
			entries = append(entries, schemamodel.Entry{Name: name, Decl: schemamodel.Object(obj)})
		case *graphql.Union:
			entries = append(entries, schemamodel.Entry{Name: name, Decl: schemamodel.Union(adaptUnion(t))})
		default:
			continue
		}
	}

	return schemamodel.New(entries...), nil
}

// rootTypeNames returns the names of the schema's Query/Mutation/Subscription
// root types. These are entry points for the out-of-scope query-execution
// surface, not mirrored domain objects, so FromGraphQL excludes them even
// though they are ordinary *graphql.Object values in the type map.
func rootTypeNames(gql *graphql.Schema) map[string]bool {
	roots := make(map[string]bool, 3)
	if q := gql.QueryType(); q != nil {
		roots[q.Name()] = true
	}
	if m := gql.MutationType(); m != nil {
		roots[m.Name()] = true
	}
	if s := gql.SubscriptionType(); s != nil {
		roots[s.Name()] = true
	}
	return roots
}

func isBuiltinName(name string) bool {
	if len(name) >= 2 && name[0] == '_' && name[1] == '_' {
		return true
	}
	switch name {
	case "String", "Int", "Float", "Boolean", "ID":
		return true
	default:
		return false
	}
}

func adaptObject(obj *graphql.Object) (schemamodel.ObjectType, error) {
	fieldMap := obj.Fields()

	fieldNames := make([]string, 0, len(fieldMap))
	for name := range fieldMap {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)

	out := schemamodel.ObjectType{Fields: make([]schemamodel.Field, 0, len(fieldNames))}
	for _, name := range fieldNames {
		fd := fieldMap[name]
		kind, err := adaptFieldKind(name, fd.Type)
		if err != nil {
			return schemamodel.ObjectType{}, err
		}
		out.Fields = append(out.Fields, schemamodel.Field{Name: name, Kind: kind})
	}
	return out, nil
}

func adaptUnion(u *graphql.Union) schemamodel.UnionType {
	members := u.Types()
	clauses := make([]string, 0, len(members))
	for _, m := range members {
		clauses = append(clauses, m.Name())
	}
	return schemamodel.UnionType{Clauses: clauses}
}

// adaptFieldKind classifies one field's GraphQL output type into a
// schemamodel.FieldKind. NonNull wrappers are transparent to classification;
// a List of object type is a connection, a bare object type is a node link,
// and a scalar is either the identifier field (graphql.ID named "id") or a
// primitive with a best-effort scalar classification.
func adaptFieldKind(fieldName string, t graphql.Output) (schemamodel.FieldKind, error) {
	t = unwrapNonNull(t)

	switch v := t.(type) {
	case *graphql.Scalar:
		if v == graphql.ID && fieldName == "id" {
			return schemamodel.ID(), nil
		}
		return schemamodel.Primitive(scalarKindOf(v)), nil
	case *graphql.Object:
		return schemamodel.Node(v.Name()), nil
	case *graphql.List:
		element := unwrapNonNull(v.OfType)
		elementObj, ok := element.(*graphql.Object)
		if !ok {
			return schemamodel.FieldKind{}, fmt.Errorf("field %q: list element type must be an object type for a connection field", fieldName)
		}
		return schemamodel.Connection(elementObj.Name()), nil
	default:
		return schemamodel.FieldKind{}, fmt.Errorf("field %q: unsupported GraphQL output type %T for mirroring", fieldName, t)
	}
}

func unwrapNonNull(t graphql.Type) graphql.Type {
	for {
		nn, ok := t.(*graphql.NonNull)
		if !ok {
			return t
		}
		t = nn.OfType
	}
}

func scalarKindOf(s *graphql.Scalar) schemamodel.ScalarKind {
	switch s {
	case graphql.String:
		return schemamodel.ScalarString
	case graphql.Int:
		return schemamodel.ScalarInt
	case graphql.Float:
		return schemamodel.ScalarFloat
	case graphql.Boolean:
		return schemamodel.ScalarBoolean
	default:
		return schemamodel.ScalarOpaque
	}
}
