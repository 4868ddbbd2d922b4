package repository

import (
	"context"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// Tx defines the interface for transactional operations shared by repositories
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TradeTx is the unit of work for guarded trade transitions. Ownership checks
// and the resulting writes happen against row-locked snapshots so that
// check-then-transition has no gap.
type TradeTx interface {
	Tx

	GetTradeForUpdate(ctx context.Context, tradeID string) (*domain.Trade, error)
	UpdateTrade(ctx context.Context, trade *domain.Trade) error

	// CreateTrade inserts a new trade within the transaction. Countering
	// freezes the original and spawns its replacement as one atomic write.
	CreateTrade(ctx context.Context, trade *domain.Trade) error

	GetItemsForUpdate(ctx context.Context, itemIDs []string) ([]domain.Item, error)
	TransferItems(ctx context.Context, itemIDs []string, newOwnerID string) error

	GetUserForUpdate(ctx context.Context, userID string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// ListOpenTradesReferencingItems returns non-terminal trades other than
	// excludeTradeID that offer any of the given items on either side.
	ListOpenTradesReferencingItems(ctx context.Context, itemIDs []string, excludeTradeID string) ([]*domain.Trade, error)

	AppendReputationEvent(ctx context.Context, ev *domain.ReputationEvent) error
}
