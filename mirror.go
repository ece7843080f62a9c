// Package mirror constructs and owns a relational mirror of a declared
// GraphQL object graph. This file implements the Mirror Handle:
// construction validates its inputs, derives the decomposed schema view,
// and brings the underlying database into the initialized layout before
// returning.
package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"graphmirror/internal/decompose"
	"graphmirror/internal/layout"
	"graphmirror/internal/mirrormetrics"
	"graphmirror/internal/schemamodel"
	"graphmirror/internal/txutil"
)

// ErrNilDB is returned by Open when db is nil.
var ErrNilDB = errors.New("mirror: db must not be nil")

// Mirror is the constructed handle onto one mirrored database. It owns a
// single connection exclusively for its lifetime; nothing about Mirror is
// safe for concurrent use from multiple goroutines. Ingestion and readback
// operations built on top of the initialized layout are out of scope for
// this repository; Mirror's role ends at handing callers an initialized
// connection and the decomposed schema that describes it.
type Mirror struct {
	conn   *txutil.Conn
	schema schemamodel.Schema
	info   decompose.SchemaInfo
	logger *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *mirrormetrics.Metrics
}

// WithLogger overrides the *slog.Logger used during initialization. The
// default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics attaches a mirrormetrics.Metrics instance so Open records the
// initialization attempt's outcome and duration. Without this option, Open
// performs no metrics recording.
func WithMetrics(m *mirrormetrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Open validates db and schema, acquires a single exclusive connection from
// db, decomposes schema, and runs the Layout Initializer against that
// connection. On success it returns a Mirror owning that connection; on
// failure the connection is released and any partial DDL work has already
// been rolled back by the Layout Initializer.
//
// Ownership of the acquired connection transfers to the returned Mirror.
// Callers must call Close when finished with it.
func Open(ctx context.Context, db *sql.DB, schema schemamodel.Schema, opts ...Option) (*Mirror, error) {
	if db == nil {
		return nil, ErrNilDB
	}

	cfg := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := decompose.Decompose(schema)
	if err != nil {
		return nil, fmt.Errorf("mirror: decompose schema: %w", err)
	}

	rawConn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("mirror: acquire connection: %w", err)
	}
	conn := txutil.NewConn(rawConn)

	start := time.Now()
	initErr := layout.Initialize(ctx, conn, schema, cfg.logger)
	if cfg.metrics != nil {
		cfg.metrics.RecordInit(ctx, outcomeFor(initErr), time.Since(start))
	}
	if initErr != nil {
		_ = conn.Close()
		return nil, initErr
	}

	return &Mirror{conn: conn, schema: schema, info: info, logger: cfg.logger}, nil
}

func outcomeFor(err error) mirrormetrics.Outcome {
	switch {
	case err == nil:
		return mirrormetrics.OutcomeCreated
	case errors.Is(err, layout.ErrSchemaMismatch):
		return mirrormetrics.OutcomeMismatch
	case errors.Is(err, layout.ErrUnsafeIdentifier):
		return mirrormetrics.OutcomeUnsafeID
	default:
		return mirrormetrics.OutcomeEngineErr
	}
}

// Schema returns the schema this Mirror was opened with.
func (m *Mirror) Schema() schemamodel.Schema { return m.schema }

// SchemaInfo returns the decomposed view of m's schema.
func (m *Mirror) SchemaInfo() decompose.SchemaInfo { return m.info }

// Conn returns the connection this Mirror owns exclusively, for use by
// ingestion/readback code built on top of the initialized layout.
func (m *Mirror) Conn() *txutil.Conn { return m.conn }

// Close releases the connection this Mirror owns. After Close, m must not
// be used again.
func (m *Mirror) Close() error {
	return m.conn.Close()
}
