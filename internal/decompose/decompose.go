// Package decompose derives a SchemaInfo from a schemamodel.Schema: per
// object type, it partitions fields into three disjoint ordered sequences
// (primitive, link, connection); per union type, it records the member
// clause names. It is a pure function with no I/O.
package decompose

import (
	"fmt"

	"graphmirror/internal/schemamodel"
)

// ObjectInfo is the decomposed view of one object type.
type ObjectInfo struct {
	// Fields is the object's full field list, in declared order, including
	// the ID field.
	Fields []schemamodel.Field
	// PrimitiveFieldNames, LinkFieldNames, and ConnectionFieldNames are
	// pairwise disjoint and, together with the ID field, equal Fields.
	// Order matches the order fields were declared, so downstream DDL
	// column order is deterministic given the same Schema value.
	PrimitiveFieldNames  []string
	LinkFieldNames       []string
	ConnectionFieldNames []string
}

// UnionInfo is the decomposed view of one union type.
type UnionInfo struct {
	// Clauses lists the union's member type names in declared order.
	Clauses []string
}

// SchemaInfo is the immutable, decomposed view of a Schema.
type SchemaInfo struct {
	ObjectTypes map[string]ObjectInfo
	UnionTypes  map[string]UnionInfo
	// order preserves the schema's own type declaration order so callers
	// that must iterate deterministically (e.g. the Layout Initializer)
	// don't have to re-derive it from a map.
	order []string
}

// Order returns the declared type names in the schema's original order.
func (si SchemaInfo) Order() []string {
	out := make([]string, len(si.order))
	copy(out, si.order)
	return out
}

// Decompose computes a SchemaInfo from schema. It is total on well-formed
// input: any type or field whose tagged-variant discriminant is outside the
// closed set schemamodel defines is an invariant violation, since the
// Schema Model is closed by construction and such a value could only arise
// from a bug upstream.
func Decompose(schema schemamodel.Schema) (SchemaInfo, error) {
	info := SchemaInfo{
		ObjectTypes: make(map[string]ObjectInfo),
		UnionTypes:  make(map[string]UnionInfo),
		order:       schema.Names(),
	}

	for _, name := range info.order {
		decl, ok := schema.Lookup(name)
		if !ok {
			return SchemaInfo{}, fmt.Errorf("decompose: schema declares %q but lookup failed", name)
		}
		switch decl.Tag {
		case schemamodel.TypeObject:
			oi, err := decomposeObject(name, decl.Object)
			if err != nil {
				return SchemaInfo{}, err
			}
			info.ObjectTypes[name] = oi
		case schemamodel.TypeUnion:
			info.UnionTypes[name] = UnionInfo{Clauses: append([]string(nil), decl.Union.Clauses...)}
		default:
			return SchemaInfo{}, fmt.Errorf("decompose: type %q has unknown TypeDeclTag %d", name, decl.Tag)
		}
	}

	return info, nil
}

func decomposeObject(typeName string, obj schemamodel.ObjectType) (ObjectInfo, error) {
	oi := ObjectInfo{Fields: append([]schemamodel.Field(nil), obj.Fields...)}
	sawID := false

	for _, field := range obj.Fields {
		switch field.Kind.Tag {
		case schemamodel.KindID:
			if sawID {
				return ObjectInfo{}, fmt.Errorf("decompose: object %q declares more than one ID field", typeName)
			}
			sawID = true
		case schemamodel.KindPrimitive:
			oi.PrimitiveFieldNames = append(oi.PrimitiveFieldNames, field.Name)
		case schemamodel.KindNode:
			oi.LinkFieldNames = append(oi.LinkFieldNames, field.Name)
		case schemamodel.KindConnection:
			oi.ConnectionFieldNames = append(oi.ConnectionFieldNames, field.Name)
		default:
			return ObjectInfo{}, fmt.Errorf("decompose: object %q field %q has unknown FieldKindTag %d", typeName, field.Name, field.Kind.Tag)
		}
	}

	if !sawID {
		return ObjectInfo{}, fmt.Errorf("decompose: object %q declares no ID field", typeName)
	}

	return oi, nil
}
