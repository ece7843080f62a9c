// Package txutil implements the transaction discipline the mirror's
// storage layer requires: a wrapper that begins a transaction, invokes a
// callback, and commits or rolls back based on whatever transaction state
// the callback leaves behind, not unconditionally.
package txutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Handle wraps a *sql.Tx and is what the callback passed to Conn.InTransaction
// receives. The callback may call Commit or Rollback on the handle itself;
// InTransaction's own exit logic only acts if the handle is still open when
// the callback returns.
type Handle struct {
	*sql.Tx
	done bool
}

// Commit commits the underlying transaction unless it was already committed
// or rolled back, in which case it is a no-op.
func (h *Handle) Commit() error {
	if h.done {
		return nil
	}
	h.done = true
	return h.Tx.Commit()
}

// Rollback rolls back the underlying transaction unless it was already
// committed or rolled back, in which case it is a no-op.
func (h *Handle) Rollback() error {
	if h.done {
		return nil
	}
	h.done = true
	return h.Tx.Rollback()
}

// Conn wraps a single, exclusively-owned *sql.Conn. A Mirror Handle holds
// exactly one Conn for its lifetime; nothing about Conn is safe for
// concurrent use from multiple goroutines.
type Conn struct {
	conn *sql.Conn
	inTx bool
}

// NewConn wraps conn. Ownership of conn transfers to the returned Conn.
func NewConn(conn *sql.Conn) *Conn {
	return &Conn{conn: conn}
}

// Raw returns the underlying *sql.Conn for callers that need to issue
// statements outside of a transaction (e.g. a top-level read after Open).
func (c *Conn) Raw() *sql.Conn {
	return c.conn
}

// Close releases the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// InTransaction begins a transaction, invokes fn with a Handle wrapping it,
// and:
//   - on normal return, commits the handle if it is still open;
//   - on any error from fn or from the commit, rolls the handle back if it
//     is still open, then returns that error (the rollback's own error, if
//     any, is merged in rather than silently discarded).
//
// Precondition: InTransaction must not be called again while a prior call on
// the same Conn has not yet returned. Violating this is a programming error,
// not a recoverable condition, so it panics rather than returning an error.
func (c *Conn) InTransaction(ctx context.Context, fn func(*Handle) error) (err error) {
	if c.inTx {
		panic("txutil: InTransaction called while a transaction is already open on this connection")
	}

	tx, beginErr := c.conn.BeginTx(ctx, nil)
	if beginErr != nil {
		return fmt.Errorf("txutil: begin transaction: %w", beginErr)
	}

	c.inTx = true
	defer func() { c.inTx = false }()

	h := &Handle{Tx: tx}

	if fnErr := fn(h); fnErr != nil {
		if rbErr := h.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback also failed: %v)", fnErr, rbErr)
		}
		return fnErr
	}

	if commitErr := h.Commit(); commitErr != nil {
		if rbErr := h.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("txutil: commit failed: %w (rollback also failed: %v)", commitErr, rbErr)
		}
		return fmt.Errorf("txutil: commit failed: %w", commitErr)
	}

	return nil
}
