package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// UserRepository implements user and item persistence for PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

var _ repository.User = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `user_id, username, balance_cents, valuation_reputation_score, net_trade_surplus_cents, wishlist, moderator, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user     domain.User
		id       uuid.UUID
		wishlist []byte
	)
	err := row.Scan(&id, &user.Username, &user.BalanceCents, &user.ValuationReputationScore,
		&user.NetTradeSurplusCents, &wishlist, &user.Moderator, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.ID = id.String()
	if user.Wishlist, err = unmarshalStrings(wishlist); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	wishlist, err := marshalStrings(user.Wishlist)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertUser, err)
	}

	query := `
		INSERT INTO users (username, balance_cents, valuation_reputation_score, net_trade_surplus_cents, wishlist, moderator)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id, created_at, updated_at
	`
	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, user.Username, user.BalanceCents, user.ValuationReputationScore,
		user.NetTradeSurplusCents, wishlist, user.Moderator).Scan(&id, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertUser, err)
	}
	user.ID = id.String()
	return nil
}

// GetUserByID returns a user by id, or nil if not found
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	id, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetUser, err)
	}
	return user, nil
}

// GetUserByUsername returns a user by username, or nil if not found
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetUser, err)
	}
	return user, nil
}

// UpdateUser persists user fields mutated by settlement and scoring
func (r *UserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	id, err := parseID(user.ID, "user")
	if err != nil {
		return err
	}
	wishlist, err := marshalStrings(user.Wishlist)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateUser, err)
	}

	query := `
		UPDATE users
		SET username = $1, balance_cents = $2, valuation_reputation_score = $3,
		    net_trade_surplus_cents = $4, wishlist = $5, moderator = $6, updated_at = NOW()
		WHERE user_id = $7
	`
	tag, err := r.db.Exec(ctx, query, user.Username, user.BalanceCents, user.ValuationReputationScore,
		user.NetTradeSurplusCents, wishlist, user.Moderator, id)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateUser, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, user.ID)
	}
	return nil
}

const itemColumns = `item_id, owner_id, item_name, item_description, emv_cents, valuation_source, valuation_confidence, created_at, updated_at`

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		item        domain.Item
		id, ownerID uuid.UUID
		description *string
		source      string
	)
	err := row.Scan(&id, &ownerID, &item.Name, &description, &item.EMVCents,
		&source, &item.ValuationConfidence, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.ID = id.String()
	item.OwnerID = ownerID.String()
	if description != nil {
		item.Description = *description
	}
	item.ValuationSource = domain.ValuationSource(source)
	return &item, nil
}

// CreateItem inserts a new item
func (r *UserRepository) CreateItem(ctx context.Context, item *domain.Item) error {
	ownerID, err := parseID(item.OwnerID, "user")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO items (owner_id, item_name, item_description, emv_cents, valuation_source, valuation_confidence)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING item_id, created_at, updated_at
	`
	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, ownerID, item.Name, strToText(item.Description),
		item.EMVCents, string(item.ValuationSource), item.ValuationConfidence).Scan(&id, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertItem, err)
	}
	item.ID = id.String()
	return nil
}

// GetItemByID returns an item by id, or nil if not found
func (r *UserRepository) GetItemByID(ctx context.Context, itemID string) (*domain.Item, error) {
	id, err := parseID(itemID, "item")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE item_id = $1`
	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetItem, err)
	}
	return item, nil
}

// GetItemsByIDs returns the items found for the given ids; missing ids are
// simply absent from the result
func (r *UserRepository) GetItemsByIDs(ctx context.Context, itemIDs []string) ([]*domain.Item, error) {
	if len(itemIDs) == 0 {
		return []*domain.Item{}, nil
	}
	ids, err := parseIDs(itemIDs, "item")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE item_id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetItem, err)
	}
	defer rows.Close()

	items := make([]*domain.Item, 0, len(itemIDs))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetItem, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem persists item fields
func (r *UserRepository) UpdateItem(ctx context.Context, item *domain.Item) error {
	id, err := parseID(item.ID, "item")
	if err != nil {
		return err
	}
	ownerID, err := parseID(item.OwnerID, "user")
	if err != nil {
		return err
	}

	query := `
		UPDATE items
		SET owner_id = $1, item_name = $2, item_description = $3, emv_cents = $4,
		    valuation_source = $5, valuation_confidence = $6, updated_at = NOW()
		WHERE item_id = $7
	`
	tag, err := r.db.Exec(ctx, query, ownerID, item.Name, strToText(item.Description),
		item.EMVCents, string(item.ValuationSource), item.ValuationConfidence, id)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateItem, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.ID)
	}
	return nil
}

// ListItemsByOwner returns all items currently owned by a user
func (r *UserRepository) ListItemsByOwner(ctx context.Context, ownerID string) ([]*domain.Item, error) {
	id, err := parseID(ownerID, "user")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetItem, err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetItem, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetWishlist returns the item ids on a user's wishlist
func (r *UserRepository) GetWishlist(ctx context.Context, userID string) ([]string, error) {
	id, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	var wishlist []byte
	err = r.db.QueryRow(ctx, `SELECT wishlist FROM users WHERE user_id = $1`, id).Scan(&wishlist)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetUser, err)
	}
	return unmarshalStrings(wishlist)
}

// AddWishlistItem adds an item id to a user's wishlist if not already present
func (r *UserRepository) AddWishlistItem(ctx context.Context, userID, itemID string) error {
	id, err := parseID(userID, "user")
	if err != nil {
		return err
	}
	if _, err := parseID(itemID, "item"); err != nil {
		return err
	}

	query := `
		UPDATE users
		SET wishlist = wishlist || to_jsonb($1::text), updated_at = NOW()
		WHERE user_id = $2 AND NOT wishlist ? $1
	`
	if _, err := r.db.Exec(ctx, query, itemID, id); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateWishlist, err)
	}
	return nil
}

// RemoveWishlistItem removes an item id from a user's wishlist
func (r *UserRepository) RemoveWishlistItem(ctx context.Context, userID, itemID string) error {
	id, err := parseID(userID, "user")
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET wishlist = wishlist - $1, updated_at = NOW()
		WHERE user_id = $2
	`
	if _, err := r.db.Exec(ctx, query, itemID, id); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateWishlist, err)
	}
	return nil
}
