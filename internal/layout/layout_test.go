package layout

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"graphmirror/internal/metablob"
	"graphmirror/internal/schemamodel"
	"graphmirror/internal/txutil"
)

func newMockConn(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *txutil.Conn) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rawConn, err := db.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rawConn.Close() })

	return db, mock, txutil.NewConn(rawConn)
}

func emptySchema() schemamodel.Schema {
	return schemamodel.New()
}

func issueSchema() schemamodel.Schema {
	return schemamodel.New(
		schemamodel.Entry{
			Name: "Issue",
			Decl: schemamodel.Object(schemamodel.ObjectType{
				Fields: []schemamodel.Field{
					{Name: "id", Kind: schemamodel.ID()},
					{Name: "title", Kind: schemamodel.Primitive(schemamodel.ScalarString)},
					{Name: "author", Kind: schemamodel.Node("User")},
					{Name: "comments", Kind: schemamodel.Connection("Comment")},
				},
			}),
		},
	)
}

// TestInitializeFreshEmptySchema exercises S1: an empty schema against a
// fresh database creates exactly the structural tables/indices and writes
// the meta row, with no primitives_* table.
func TestInitializeFreshEmptySchema(t *testing.T) {
	_, mock, conn := newMockConn(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS meta").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT schema FROM meta WHERE zero = 0").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO meta").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS updates").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS objects").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS links").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX links_parent_fieldname").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connections").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX connections_object_fieldname").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connection_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := Initialize(context.Background(), conn, emptySchema(), nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestInitializeObjectTypeCreatesPrimitivesTable exercises S2: one object
// type produces exactly one primitives_<Typename> table with one column per
// primitive field.
func TestInitializeObjectTypeCreatesPrimitivesTable(t *testing.T) {
	_, mock, conn := newMockConn(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS meta").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT schema FROM meta WHERE zero = 0").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO meta").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS updates").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS objects").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS links").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX links_parent_fieldname").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connections").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX connections_object_fieldname").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connection_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE primitives_Issue`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := Initialize(context.Background(), conn, issueSchema(), nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPrimitivesTableAcceptsUUIDObjectID exercises a realistic object id
// shape: primitives_<Typename>.id is VARCHAR(191), wide enough to hold a
// UUID string, which is the identifier form ingestion code is expected to
// generate for objects with no natural key of their own.
func TestPrimitivesTableAcceptsUUIDObjectID(t *testing.T) {
	_, mock, conn := newMockConn(t)

	objectID := uuid.NewString()
	require.Len(t, objectID, 36)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS meta").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT schema FROM meta WHERE zero = 0").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO meta").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS updates").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS objects").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS links").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX links_parent_fieldname").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connections").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX connections_object_fieldname").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connection_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE primitives_Issue`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO objects").WithArgs(objectID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO primitives_Issue`).
		WithArgs(objectID, "first issue").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := Initialize(context.Background(), conn, issueSchema(), nil)
	require.NoError(t, err)

	_, err = conn.Raw().ExecContext(context.Background(), "INSERT INTO objects (id) VALUES (?)", objectID)
	require.NoError(t, err)
	_, err = conn.Raw().ExecContext(context.Background(),
		"INSERT INTO primitives_Issue (id, title) VALUES (?, ?)", objectID, "first issue")
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

// TestInitializeNoopOnMatchingReopen exercises S3: a matching meta blob makes
// Initialize a read-and-compare, never reaching structural DDL.
func TestInitializeNoopOnMatchingReopen(t *testing.T) {
	_, mock, conn := newMockConn(t)

	schema := issueSchema()
	blob, err := metablob.Compute(schema)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS meta").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT schema FROM meta WHERE zero = 0").
		WillReturnRows(sqlmock.NewRows([]string{"schema"}).AddRow(blob))
	mock.ExpectCommit()

	err = Initialize(context.Background(), conn, schema, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestInitializeMismatchRollsBack exercises S4: a meta row present with a
// different blob fails with ErrSchemaMismatch, and the transaction is rolled
// back rather than committed.
func TestInitializeMismatchRollsBack(t *testing.T) {
	_, mock, conn := newMockConn(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS meta").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT schema FROM meta WHERE zero = 0").
		WillReturnRows(sqlmock.NewRows([]string{"schema"}).AddRow(`{"version":"MIRROR_v1","schema":[{"name":"Other","kind":"union"}]}`))
	mock.ExpectRollback()

	err := Initialize(context.Background(), conn, issueSchema(), nil)
	require.ErrorIs(t, err, ErrSchemaMismatch)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestInitializeUnsafeIdentifierRollsBack exercises S6: an unsafe typename
// fails before the primitives table DDL is issued, and everything the
// transaction had already done (meta row, structural tables) is rolled back.
func TestInitializeUnsafeIdentifierRollsBack(t *testing.T) {
	_, mock, conn := newMockConn(t)

	unsafe := schemamodel.New(
		schemamodel.Entry{
			Name: "Issue; DROP TABLE objects;--",
			Decl: schemamodel.Object(schemamodel.ObjectType{
				Fields: []schemamodel.Field{
					{Name: "id", Kind: schemamodel.ID()},
					{Name: "title", Kind: schemamodel.Primitive(schemamodel.ScalarString)},
				},
			}),
		},
	)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS meta").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT schema FROM meta WHERE zero = 0").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO meta").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS updates").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS objects").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS links").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX links_parent_fieldname").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connections").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX connections_object_fieldname").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connection_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := Initialize(context.Background(), conn, unsafe, nil)
	require.ErrorIs(t, err, ErrUnsafeIdentifier)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestInitializeUnionTypeProducesNoPrimitivesTable exercises S5: a union
// type contributes no DDL of its own.
func TestInitializeUnionTypeProducesNoPrimitivesTable(t *testing.T) {
	_, mock, conn := newMockConn(t)

	schema := schemamodel.New(
		schemamodel.Entry{
			Name: "User",
			Decl: schemamodel.Object(schemamodel.ObjectType{
				Fields: []schemamodel.Field{
					{Name: "id", Kind: schemamodel.ID()},
					{Name: "login", Kind: schemamodel.Primitive(schemamodel.ScalarString)},
				},
			}),
		},
		schemamodel.Entry{
			Name: "Bot",
			Decl: schemamodel.Object(schemamodel.ObjectType{
				Fields: []schemamodel.Field{
					{Name: "id", Kind: schemamodel.ID()},
					{Name: "name", Kind: schemamodel.Primitive(schemamodel.ScalarString)},
				},
			}),
		},
		schemamodel.Entry{
			Name: "Actor",
			Decl: schemamodel.Union(schemamodel.UnionType{Clauses: []string{"User", "Bot"}}),
		},
	)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS meta").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT schema FROM meta WHERE zero = 0").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO meta").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS updates").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS objects").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS links").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX links_parent_fieldname").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connections").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX connections_object_fieldname").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connection_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE primitives_User`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE primitives_Bot`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := Initialize(context.Background(), conn, schema, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

