package layout

import (
	"strings"

	"graphmirror/internal/schemamodel"
	"graphmirror/internal/sqlident"
)

// structuralDDL lists the schema-independent table/index statements in
// foreign-key dependency order: targets must exist before the tables that
// reference them are created.
var structuralDDL = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		zero TINYINT NOT NULL PRIMARY KEY CHECK (zero = 0),
		schema LONGTEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS updates (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		time_epoch_millis BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS objects (
		id VARCHAR(191) NOT NULL PRIMARY KEY,
		typename VARCHAR(191) NOT NULL,
		last_update BIGINT,
		FOREIGN KEY (last_update) REFERENCES updates(id)
	)`,
	`CREATE TABLE IF NOT EXISTS links (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		parent_id VARCHAR(191) NOT NULL,
		fieldname VARCHAR(191) NOT NULL,
		child_id VARCHAR(191),
		FOREIGN KEY (parent_id) REFERENCES objects(id),
		FOREIGN KEY (child_id) REFERENCES objects(id)
	)`,
	`CREATE UNIQUE INDEX links_parent_fieldname ON links (parent_id, fieldname)`,
	`CREATE TABLE IF NOT EXISTS connections (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		object_id VARCHAR(191) NOT NULL,
		fieldname VARCHAR(191) NOT NULL,
		last_update BIGINT,
		total_count INT,
		has_next_page TINYINT(1),
		end_cursor TEXT,
		FOREIGN KEY (object_id) REFERENCES objects(id),
		FOREIGN KEY (last_update) REFERENCES updates(id),
		CHECK ((last_update IS NULL) = (total_count IS NULL)),
		CHECK ((last_update IS NULL) = (has_next_page IS NULL)),
		CHECK (last_update IS NOT NULL OR end_cursor IS NULL)
	)`,
	`CREATE UNIQUE INDEX connections_object_fieldname ON connections (object_id, fieldname)`,
	`CREATE TABLE IF NOT EXISTS connection_entries (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		connection_id BIGINT NOT NULL,
		idx INT NOT NULL,
		child_id VARCHAR(191) NOT NULL,
		UNIQUE (connection_id, idx),
		FOREIGN KEY (connection_id) REFERENCES connections(id),
		FOREIGN KEY (child_id) REFERENCES objects(id)
	)`,
}

// metaSelectSQL reads the singleton meta row's schema column, if present.
const metaSelectSQL = `SELECT schema FROM meta WHERE zero = 0`

// metaInsertSQL writes the singleton meta row exactly once.
const metaInsertSQL = `INSERT INTO meta (zero, schema) VALUES (0, ?)`

// primitivesTableDDL builds the CREATE TABLE statement for one object type's
// primitives_<Typename> table. typeName and every name in primitiveFields
// must already have passed sqlident.IsSafe; this function does not validate
// them itself, because the caller needs the validation failure to surface
// before (or instead of) emitting this DDL, not interleaved with it.
func primitivesTableDDL(typeName string, primitiveFields []schemamodel.Field) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE primitives_")
	b.WriteString(typeName)
	b.WriteString(" (\n\tid VARCHAR(191) NOT NULL PRIMARY KEY")

	for _, f := range primitiveFields {
		b.WriteString(",\n\t")
		b.WriteString(sqlident.QuoteIdentifier(f.Name))
		b.WriteString(" ")
		b.WriteString(columnType(f.Kind.Scalar))
	}

	b.WriteString(",\n\tFOREIGN KEY (id) REFERENCES objects(id)\n)")
	return b.String()
}

// columnType maps a primitive field's scalar classification to a SQL column
// type. The source object graph is dynamically typed, so an unclassified
// (ScalarOpaque) field still needs *a* SQL type; a generic nullable text
// column is the closest equivalent.
func columnType(scalar schemamodel.ScalarKind) string {
	switch scalar {
	case schemamodel.ScalarInt:
		return "BIGINT"
	case schemamodel.ScalarFloat:
		return "DOUBLE"
	case schemamodel.ScalarBoolean:
		return "TINYINT(1)"
	case schemamodel.ScalarString, schemamodel.ScalarOpaque:
		return "LONGTEXT"
	default:
		return "LONGTEXT"
	}
}

// primitiveFieldsOf looks up the declared (name, kind) pairs for an object
// type's primitive fields, in SchemaInfo's recorded order, so columnType can
// see each field's scalar classification.
func primitiveFieldsOf(obj schemamodel.ObjectType, names []string) []schemamodel.Field {
	byName := make(map[string]schemamodel.Field, len(obj.Fields))
	for _, f := range obj.Fields {
		byName[f.Name] = f
	}
	out := make([]schemamodel.Field, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out
}
