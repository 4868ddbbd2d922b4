package repository

import (
	"context"
	"time"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// Trade defines the interface for trade persistence
type Trade interface {
	CreateTrade(ctx context.Context, trade *domain.Trade) error
	GetTrade(ctx context.Context, tradeID string) (*domain.Trade, error)
	UpdateTrade(ctx context.Context, trade *domain.Trade) error

	// GetTradeChain walks ParentTradeID links back to the original proposal,
	// newest first. Counter-offers form a forward-only linked list.
	GetTradeChain(ctx context.Context, tradeID string) ([]*domain.Trade, error)

	// Deadline sweeps
	ListTradesPastDeliveryDeadline(ctx context.Context, now time.Time) ([]*domain.Trade, error)
	ListTradesPastRatingDeadline(ctx context.Context, now time.Time) ([]*domain.Trade, error)

	BeginTx(ctx context.Context) (TradeTx, error)
}
