package txutil

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// execer is satisfied by both *sql.DB, *sql.Conn, and *Handle, so callers can
// record an update row either inside or outside an open transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertUpdateRow appends a row to the append-only updates table and returns
// its synthetic rowid. Recording updates is an ingestion-layer concern; this
// helper exists so tests can produce a referenceable
// updates.id for objects/connections without hand-writing SQL for every
// fixture.
//
// Each call is tagged with a synthetic correlation id so the insert can be
// traced through logs even though updates.id itself is only known after the
// insert returns. If logger is nil, slog.Default() is used.
func InsertUpdateRow(ctx context.Context, db execer, timeEpochMillis int64, logger *slog.Logger) (int64, error) {
	if logger == nil {
		logger = slog.Default()
	}
	correlationID := uuid.NewString()

	query, args, err := sq.Insert("updates").
		Columns("time_epoch_millis").
		Values(timeEpochMillis).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("txutil: build updates insert: %w", err)
	}

	logger.Debug("inserting update row", slog.String("correlation_id", correlationID))

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("txutil: insert update row: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("txutil: read update row id: %w", err)
	}

	logger.Debug("inserted update row", slog.String("correlation_id", correlationID), slog.Int64("update_id", id))
	return id, nil
}
