package repository

import (
	"context"
	"errors"

	"github.com/swapcrate/swapcrate/internal/logger"
)

// ErrTxClosed matches the sentinel drivers return when a transaction is
// already committed or rolled back
var ErrTxClosed = errors.New("tx is closed")

// SafeRollback rolls back a transaction, logging unexpected failures.
// Safe to defer after BeginTx: rolling back a committed tx is a no-op.
func SafeRollback(ctx context.Context, tx Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, ErrTxClosed) {
		logger.FromContext(ctx).Debug("Transaction rollback after completion", "error", err)
	}
}
