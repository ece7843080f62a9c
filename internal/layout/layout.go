// Package layout owns the relational layout: it creates the structural
// tables and one primitives table per object type, under a single
// transaction, gated by the meta singleton that pins the (format version,
// schema) pair.
package layout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"graphmirror/internal/decompose"
	"graphmirror/internal/metablob"
	"graphmirror/internal/schemamodel"
	"graphmirror/internal/sqlident"
	"graphmirror/internal/txutil"
)

// Initialize atomically brings conn's database into a state where schema is
// mirrored, or fails and leaves the database unmodified.
//
// Precondition: the database is either (a) empty and not shared with any
// other writer, or (b) previously initialized by this package with an
// identical (format version, schema). Concurrent writers to the same
// database are undefined behavior.
//
// On success, the database contains exactly the structural and primitives
// tables the schema requires, and the meta row holds the canonical blob; re-running
// Initialize with the same schema is a no-op. On failure (schema mismatch,
// an unsafe identifier, or an underlying storage error), any partial work is
// rolled back and the database is left exactly as it was before the call.
func Initialize(ctx context.Context, conn *txutil.Conn, schema schemamodel.Schema, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	blob, err := metablob.Compute(schema)
	if err != nil {
		return fmt.Errorf("layout: compute metadata blob: %w", err)
	}

	info, err := decompose.Decompose(schema)
	if err != nil {
		return fmt.Errorf("layout: decompose schema: %w", err)
	}

	return conn.InTransaction(ctx, func(tx *txutil.Handle) error {
		if _, err := tx.ExecContext(ctx, structuralDDL[0]); err != nil {
			return fmt.Errorf("layout: create meta table: %w", err)
		}

		existing, found, err := readMetaBlob(ctx, tx)
		if err != nil {
			return fmt.Errorf("layout: read meta row: %w", err)
		}

		if found {
			if existing == blob {
				logger.Debug("mirror layout already initialized with matching schema")
				return nil
			}
			logger.Warn("mirror layout initialization aborted: schema mismatch")
			return ErrSchemaMismatch
		}

		if err := insertMetaBlob(ctx, tx, blob); err != nil {
			return fmt.Errorf("layout: write meta row: %w", err)
		}

		for _, stmt := range structuralDDL[1:] {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("layout: create structural table/index: %w", err)
			}
		}
		logger.Debug("created structural tables", slog.Int("count", len(structuralDDL)-1))

		for _, typeName := range info.Order() {
			obj, found := schema.Lookup(typeName)
			if !found || obj.Tag != schemamodel.TypeObject {
				continue
			}

			if !sqlident.IsSafe(typeName) {
				return fmt.Errorf("%w: typename %q", ErrUnsafeIdentifier, typeName)
			}

			objInfo := info.ObjectTypes[typeName]
			for _, fieldName := range objInfo.PrimitiveFieldNames {
				if !sqlident.IsSafe(fieldName) {
					return fmt.Errorf("%w: field %q of type %q", ErrUnsafeIdentifier, fieldName, typeName)
				}
			}

			primitiveFields := primitiveFieldsOf(obj.Object, objInfo.PrimitiveFieldNames)
			stmt := primitivesTableDDL(typeName, primitiveFields)
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("layout: create primitives_%s: %w", typeName, err)
			}
		}

		logger.Info("mirror layout initialized", slog.Int("object_types", len(info.ObjectTypes)), slog.Int("union_types", len(info.UnionTypes)))
		return nil
	})
}

// readMetaBlob returns the singleton meta row's schema column and whether it
// was present. sql.ErrNoRows is not an error here; it means the layout has
// not been initialized yet.
func readMetaBlob(ctx context.Context, tx *txutil.Handle) (string, bool, error) {
	var blob string
	err := tx.QueryRowContext(ctx, metaSelectSQL).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return blob, true, nil
}

func insertMetaBlob(ctx context.Context, tx *txutil.Handle, blob string) error {
	_, err := tx.ExecContext(ctx, metaInsertSQL, blob)
	return err
}
