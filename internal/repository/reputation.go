package repository

import (
	"context"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// Reputation defines the interface for the append-only scoring ledger
type Reputation interface {
	AppendEvent(ctx context.Context, ev *domain.ReputationEvent) error
	ListEventsForUser(ctx context.Context, userID string) ([]*domain.ReputationEvent, error)

	// HasEventForTrade reports whether a trade already scored a given user,
	// making the engine idempotent against replay
	HasEventForTrade(ctx context.Context, tradeID, userID string) (bool, error)
}
