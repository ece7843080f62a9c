// Package schemamodel is the in-memory representation of a declared GraphQL
// schema: a closed mapping from type name to either an object type (named
// fields) or a union type (named member clauses).
package schemamodel

import "fmt"

// FieldKindTag discriminates the four kinds a field of an object type can
// have. It is a closed set; Decompose and the Layout Initializer treat any
// other value as an invariant violation, not a recoverable condition.
type FieldKindTag int

const (
	// KindID marks the type's single identifier field. Present in Fields
	// but absent from every partitioned sequence SchemaInfo derives.
	KindID FieldKindTag = iota
	// KindPrimitive marks a scalar payload field, stored in the type's
	// primitives_<Typename> table.
	KindPrimitive
	// KindNode marks a single-object reference, stored in the shared
	// links table.
	KindNode
	// KindConnection marks an ordered, paginated reference set, stored in
	// the shared connections/connection_entries tables.
	KindConnection
)

func (k FieldKindTag) String() string {
	switch k {
	case KindID:
		return "ID"
	case KindPrimitive:
		return "PRIMITIVE"
	case KindNode:
		return "NODE"
	case KindConnection:
		return "CONNECTION"
	default:
		return fmt.Sprintf("FieldKindTag(%d)", int(k))
	}
}

// ScalarKind classifies a primitive field's underlying GraphQL scalar, used
// only to choose a SQL column type for primitives_<Typename>. It has no
// effect on the decomposition algorithm itself. The zero value, ScalarOpaque,
// renders as a generic text column, matching the behavior of a schema that
// does not use this extension.
type ScalarKind int

const (
	// ScalarOpaque is the default: an untyped, nullable text column.
	ScalarOpaque ScalarKind = iota
	ScalarString
	ScalarInt
	ScalarFloat
	ScalarBoolean
)

// FieldKind is a tagged variant over a field's kind. Node and Connection
// additionally carry the target/element type name they point at.
type FieldKind struct {
	Tag    FieldKindTag
	Target string     // populated for KindNode and KindConnection
	Scalar ScalarKind // populated for KindPrimitive; ignored otherwise
}

// ID returns the FieldKind for an identifier field.
func ID() FieldKind { return FieldKind{Tag: KindID} }

// Primitive returns the FieldKind for a scalar payload field of the given kind.
func Primitive(scalar ScalarKind) FieldKind {
	return FieldKind{Tag: KindPrimitive, Scalar: scalar}
}

// Node returns the FieldKind for a single-object reference to targetType.
func Node(targetType string) FieldKind {
	return FieldKind{Tag: KindNode, Target: targetType}
}

// Connection returns the FieldKind for a paginated reference set of elementType.
func Connection(elementType string) FieldKind {
	return FieldKind{Tag: KindConnection, Target: elementType}
}

// Field is one named, ordered entry of an object type. Fields are carried as
// an ordered slice (not a map) so iteration order, and therefore downstream
// DDL column order, is deterministic across runs for the same Schema value.
type Field struct {
	Name string
	Kind FieldKind
}

// ObjectType is a GraphQL object type: an ordered list of fields, exactly one
// of which must have Kind.Tag == KindID.
type ObjectType struct {
	Fields []Field
}

// UnionType is a GraphQL union type: an ordered list of member type names
// ("clauses"). A union produces no DDL of its own; its clauses are object
// types elsewhere in the Schema.
type UnionType struct {
	Clauses []string
}

// TypeDeclTag discriminates the two kinds a declared type can be.
type TypeDeclTag int

const (
	TypeObject TypeDeclTag = iota
	TypeUnion
)

// TypeDecl is a tagged variant over a declared type: either an ObjectType or
// a UnionType, never both.
type TypeDecl struct {
	Tag    TypeDeclTag
	Object ObjectType
	Union  UnionType
}

// Object wraps an ObjectType as a TypeDecl.
func Object(obj ObjectType) TypeDecl {
	return TypeDecl{Tag: TypeObject, Object: obj}
}

// Union wraps a UnionType as a TypeDecl.
func Union(u UnionType) TypeDecl {
	return TypeDecl{Tag: TypeUnion, Union: u}
}

// Schema is the read-only input declaration: an ordered mapping from type
// name to its declaration. Order is preserved via Names so iteration is
// stable across invocations given the same constructed Schema.
type Schema struct {
	names []string
	decls map[string]TypeDecl
}

// New builds a Schema from an ordered list of (name, decl) pairs. The order
// of names is the iteration order Decompose and the Layout Initializer use.
func New(entries ...Entry) Schema {
	s := Schema{
		names: make([]string, 0, len(entries)),
		decls: make(map[string]TypeDecl, len(entries)),
	}
	for _, e := range entries {
		if _, exists := s.decls[e.Name]; !exists {
			s.names = append(s.names, e.Name)
		}
		s.decls[e.Name] = e.Decl
	}
	return s
}

// Entry pairs a type name with its declaration, used only to build a Schema
// via New in a deterministic order.
type Entry struct {
	Name string
	Decl TypeDecl
}

// Names returns the declared type names in the Schema's stable order.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Lookup returns the TypeDecl for name and whether it was declared.
func (s Schema) Lookup(name string) (TypeDecl, bool) {
	d, ok := s.decls[name]
	return d, ok
}

// Len returns the number of declared types.
func (s Schema) Len() int { return len(s.names) }
