package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// tradeTx implements the trade unit of work on top of a pgx transaction.
// FOR UPDATE locks keep check-then-transition free of gaps.
type tradeTx struct {
	tx pgx.Tx
}

var _ repository.TradeTx = (*tradeTx)(nil)

func (t *tradeTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return repository.ErrTxClosed
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return nil
}

func (t *tradeTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return repository.ErrTxClosed
		}
		return err
	}
	return nil
}

// GetTradeForUpdate returns a row-locked trade, or nil if not found
func (t *tradeTx) GetTradeForUpdate(ctx context.Context, tradeID string) (*domain.Trade, error) {
	id, err := parseID(tradeID, "trade")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE trade_id = $1 FOR UPDATE`
	trade, err := scanTrade(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetTrade, err)
	}
	return trade, nil
}

// UpdateTrade persists trade fields within the transaction
func (t *tradeTx) UpdateTrade(ctx context.Context, trade *domain.Trade) error {
	id, err := parseID(trade.ID, "trade")
	if err != nil {
		return err
	}
	args, err := tradeWriteArgs(trade)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateTrade, err)
	}
	args = append(args, id)

	tag, err := t.tx.Exec(ctx, tradeUpdateSQL, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateTrade, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTradeNotFound, trade.ID)
	}
	return nil
}

// CreateTrade inserts a new trade within the transaction
func (t *tradeTx) CreateTrade(ctx context.Context, trade *domain.Trade) error {
	args, err := tradeWriteArgs(trade)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertTrade, err)
	}

	var id uuid.UUID
	err = t.tx.QueryRow(ctx, tradeInsertSQL, args...).Scan(&id, &trade.CreatedAt, &trade.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertTrade, err)
	}
	trade.ID = id.String()
	return nil
}

// GetItemsForUpdate returns row-locked items in a stable order so concurrent
// transactions acquire locks consistently
func (t *tradeTx) GetItemsForUpdate(ctx context.Context, itemIDs []string) ([]domain.Item, error) {
	if len(itemIDs) == 0 {
		return []domain.Item{}, nil
	}
	ids, err := parseIDs(itemIDs, "item")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE item_id = ANY($1) ORDER BY item_id FOR UPDATE`
	rows, err := t.tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetItem, err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0, len(itemIDs))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetItem, err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// TransferItems reassigns ownership of the given items
func (t *tradeTx) TransferItems(ctx context.Context, itemIDs []string, newOwnerID string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	ids, err := parseIDs(itemIDs, "item")
	if err != nil {
		return err
	}
	ownerID, err := parseID(newOwnerID, "user")
	if err != nil {
		return err
	}

	query := `UPDATE items SET owner_id = $1, updated_at = NOW() WHERE item_id = ANY($2)`
	tag, err := t.tx.Exec(ctx, query, ownerID, ids)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToTransferItems, err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("%s: expected %d rows, got %d", ErrMsgFailedToTransferItems, len(ids), tag.RowsAffected())
	}
	return nil
}

// GetUserForUpdate returns a row-locked user, or nil if not found
func (t *tradeTx) GetUserForUpdate(ctx context.Context, userID string) (*domain.User, error) {
	id, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 FOR UPDATE`
	user, err := scanUser(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetUser, err)
	}
	return user, nil
}

// UpdateUser persists user fields within the transaction
func (t *tradeTx) UpdateUser(ctx context.Context, user *domain.User) error {
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
	tag, err := t.tx.Exec(ctx, query, user.Username, user.BalanceCents, user.ValuationReputationScore,
		user.NetTradeSurplusCents, wishlist, user.Moderator, id)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateUser, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, user.ID)
	}
	return nil
}

// ListOpenTradesReferencingItems returns non-terminal trades other than
// excludeTradeID that offer any of the given items on either side
func (t *tradeTx) ListOpenTradesReferencingItems(ctx context.Context, itemIDs []string, excludeTradeID string) ([]*domain.Trade, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	if _, err := parseIDs(itemIDs, "item"); err != nil {
		return nil, err
	}
	exclude, err := parseID(excludeTradeID, "trade")
	if err != nil {
		return nil, err
	}

	terminal := []string{
		string(domain.TradeStatusCompleted),
		string(domain.TradeStatusCountered),
		string(domain.TradeStatusRejected),
		string(domain.TradeStatusCancelled),
		string(domain.TradeStatusDisputeResolved),
	}

	query := `SELECT ` + tradeColumns + ` FROM trades
		WHERE trade_id != $1
		  AND status != ALL($2)
		  AND (proposer_item_ids ?| $3 OR receiver_item_ids ?| $3)
		FOR UPDATE`
	rows, err := t.tx.Query(ctx, query, exclude, terminal, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListTrades, err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListTrades, err)
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

// AppendReputationEvent writes one ledger entry
func (t *tradeTx) AppendReputationEvent(ctx context.Context, ev *domain.ReputationEvent) error {
	userID, err := parseID(ev.UserID, "user")
	if err != nil {
		return err
	}
	tradeID, err := parseID(ev.TradeID, "trade")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reputation_events (user_id, trade_id, score_delta, surplus_delta_cents, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING event_id, created_at
	`
	var id uuid.UUID
	err = t.tx.QueryRow(ctx, query, userID, tradeID, ev.ScoreDelta, ev.SurplusDeltaCents, ev.Reason).
		Scan(&id, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToAppendRepEvent, err)
	}
	ev.ID = id.String()
	return nil
}
