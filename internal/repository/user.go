package repository

import (
	"context"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// User defines the interface for user and item persistence
type User interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	CreateItem(ctx context.Context, item *domain.Item) error
	GetItemByID(ctx context.Context, itemID string) (*domain.Item, error)
	GetItemsByIDs(ctx context.Context, itemIDs []string) ([]*domain.Item, error)
	UpdateItem(ctx context.Context, item *domain.Item) error
	ListItemsByOwner(ctx context.Context, ownerID string) ([]*domain.Item, error)

	GetWishlist(ctx context.Context, userID string) ([]string, error)
	AddWishlistItem(ctx context.Context, userID, itemID string) error
	RemoveWishlistItem(ctx context.Context, userID, itemID string) error
}
