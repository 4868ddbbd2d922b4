package repository

import (
	"context"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// Rating defines the interface for trade rating persistence
type Rating interface {
	CreateRating(ctx context.Context, rating *domain.TradeRating) error

	// GetRating returns the rating a party left on a trade, or nil
	GetRating(ctx context.Context, tradeID, raterID string) (*domain.TradeRating, error)

	ListRatingsForTrade(ctx context.Context, tradeID string) ([]*domain.TradeRating, error)
	ListRatingsForUser(ctx context.Context, rateeID string) ([]*domain.TradeRating, error)
}
