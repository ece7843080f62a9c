package txutil

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestInsertUpdateRowReturnsGeneratedID(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO updates").
		WithArgs(int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := InsertUpdateRow(context.Background(), db, 1700000000000, nil)
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}
