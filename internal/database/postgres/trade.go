package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// TradeRepository implements trade persistence for PostgreSQL
type TradeRepository struct {
	db *pgxpool.Pool
}

var _ repository.Trade = (*TradeRepository)(nil)

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{db: db}
}

const tradeColumns = `trade_id, parent_trade_id, proposer_id, receiver_id,
	proposer_item_ids, receiver_item_ids, proposer_cash_cents, receiver_cash_cents,
	status, cancel_reason, proposer_value_cents, receiver_value_cents,
	platform_fee_cents, fee_payer_id, escrow_payer_id, escrow_amount_cents, escrow_funded,
	settled, proposer_tracking_number, receiver_tracking_number,
	proposer_confirmed, receiver_confirmed, proposer_rated, receiver_rated,
	dispute_ticket_id, delivery_deadline, rating_deadline, created_at, updated_at`

func scanTrade(row rowScanner) (*domain.Trade, error) {
	var (
		t                        domain.Trade
		id                       uuid.UUID
		parentID                 pgtype.UUID
		proposerID, receiverID   uuid.UUID
		proposerItems, recvItems []byte
		cancelReason             pgtype.Text
		feePayer, escrowPayer    pgtype.UUID
		proposerTrack, recvTrack pgtype.Text
		disputeTicketID          pgtype.UUID
		deliveryDL, ratingDL     pgtype.Timestamptz
		status                   string
	)
	err := row.Scan(&id, &parentID, &proposerID, &receiverID,
		&proposerItems, &recvItems, &t.ProposerCashCents, &t.ReceiverCashCents,
		&status, &cancelReason, &t.ProposerValueCents, &t.ReceiverValueCents,
		&t.PlatformFeeCents, &feePayer, &escrowPayer, &t.EscrowAmountCents, &t.EscrowFunded,
		&t.Settled, &proposerTrack, &recvTrack,
		&t.ProposerConfirmed, &t.ReceiverConfirmed, &t.ProposerRated, &t.ReceiverRated,
		&disputeTicketID, &deliveryDL, &ratingDL, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.ID = id.String()
	t.ParentTradeID = pgUUIDToPtr(parentID)
	t.ProposerID = proposerID.String()
	t.ReceiverID = receiverID.String()
	if t.ProposerItemIDs, err = unmarshalStrings(proposerItems); err != nil {
		return nil, err
	}
	if t.ReceiverItemIDs, err = unmarshalStrings(recvItems); err != nil {
		return nil, err
	}
	t.Status = domain.TradeStatus(status)
	t.CancelReason = textToStr(cancelReason)
	t.FeePayerID = pgUUIDToStr(feePayer)
	t.EscrowPayerID = pgUUIDToStr(escrowPayer)
	t.ProposerTrackingNumber = textToStr(proposerTrack)
	t.ReceiverTrackingNumber = textToStr(recvTrack)
	t.DisputeTicketID = pgUUIDToPtr(disputeTicketID)
	t.DeliveryDeadline = tzToPtr(deliveryDL)
	t.RatingDeadline = tzToPtr(ratingDL)
	return &t, nil
}

// tradeWriteArgs builds the argument list shared by insert and update
func tradeWriteArgs(t *domain.Trade) ([]interface{}, error) {
	parentID, err := uuidPtrOrNull(t.ParentTradeID, "trade")
	if err != nil {
		return nil, err
	}
	proposerID, err := parseID(t.ProposerID, "user")
	if err != nil {
		return nil, err
	}
	receiverID, err := parseID(t.ReceiverID, "user")
	if err != nil {
		return nil, err
	}
	proposerItems, err := marshalStrings(t.ProposerItemIDs)
	if err != nil {
		return nil, err
	}
	recvItems, err := marshalStrings(t.ReceiverItemIDs)
	if err != nil {
		return nil, err
	}
	feePayer, err := uuidOrNull(t.FeePayerID, "user")
	if err != nil {
		return nil, err
	}
	escrowPayer, err := uuidOrNull(t.EscrowPayerID, "user")
	if err != nil {
		return nil, err
	}
	disputeTicketID, err := uuidPtrOrNull(t.DisputeTicketID, "ticket")
	if err != nil {
		return nil, err
	}

	return []interface{}{
		parentID, proposerID, receiverID,
		proposerItems, recvItems, t.ProposerCashCents, t.ReceiverCashCents,
		string(t.Status), strToText(t.CancelReason), t.ProposerValueCents, t.ReceiverValueCents,
		t.PlatformFeeCents, feePayer, escrowPayer, t.EscrowAmountCents, t.EscrowFunded,
		t.Settled, strToText(t.ProposerTrackingNumber), strToText(t.ReceiverTrackingNumber),
		t.ProposerConfirmed, t.ReceiverConfirmed, t.ProposerRated, t.ReceiverRated,
		disputeTicketID, timeToTz(t.DeliveryDeadline), timeToTz(t.RatingDeadline),
	}, nil
}

const tradeInsertSQL = `
	INSERT INTO trades (parent_trade_id, proposer_id, receiver_id,
		proposer_item_ids, receiver_item_ids, proposer_cash_cents, receiver_cash_cents,
		status, cancel_reason, proposer_value_cents, receiver_value_cents,
		platform_fee_cents, fee_payer_id, escrow_payer_id, escrow_amount_cents, escrow_funded,
		settled, proposer_tracking_number, receiver_tracking_number,
		proposer_confirmed, receiver_confirmed, proposer_rated, receiver_rated,
		dispute_ticket_id, delivery_deadline, rating_deadline)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	RETURNING trade_id, created_at, updated_at
`

const tradeUpdateSQL = `
	UPDATE trades SET parent_trade_id = $1, proposer_id = $2, receiver_id = $3,
		proposer_item_ids = $4, receiver_item_ids = $5, proposer_cash_cents = $6, receiver_cash_cents = $7,
		status = $8, cancel_reason = $9, proposer_value_cents = $10, receiver_value_cents = $11,
		platform_fee_cents = $12, fee_payer_id = $13, escrow_payer_id = $14, escrow_amount_cents = $15, escrow_funded = $16,
		settled = $17, proposer_tracking_number = $18, receiver_tracking_number = $19,
		proposer_confirmed = $20, receiver_confirmed = $21, proposer_rated = $22, receiver_rated = $23,
		dispute_ticket_id = $24, delivery_deadline = $25, rating_deadline = $26,
		updated_at = NOW()
	WHERE trade_id = $27
`

// CreateTrade inserts a new trade
func (r *TradeRepository) CreateTrade(ctx context.Context, trade *domain.Trade) error {
	args, err := tradeWriteArgs(trade)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertTrade, err)
	}

	var id uuid.UUID
	err = r.db.QueryRow(ctx, tradeInsertSQL, args...).Scan(&id, &trade.CreatedAt, &trade.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertTrade, err)
	}
	trade.ID = id.String()
	return nil
}

// GetTrade returns a trade by id, or nil if not found
func (r *TradeRepository) GetTrade(ctx context.Context, tradeID string) (*domain.Trade, error) {
	id, err := parseID(tradeID, "trade")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE trade_id = $1`
	trade, err := scanTrade(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetTrade, err)
	}
	return trade, nil
}

// UpdateTrade persists trade fields
func (r *TradeRepository) UpdateTrade(ctx context.Context, trade *domain.Trade) error {
	id, err := parseID(trade.ID, "trade")
	if err != nil {
		return err
	}
	args, err := tradeWriteArgs(trade)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateTrade, err)
	}
	args = append(args, id)

	tag, err := r.db.Exec(ctx, tradeUpdateSQL, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateTrade, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTradeNotFound, trade.ID)
	}
	return nil
}

// GetTradeChain walks ParentTradeID links back to the original proposal,
// newest first. Chains are short, so a per-hop query is fine.
func (r *TradeRepository) GetTradeChain(ctx context.Context, tradeID string) ([]*domain.Trade, error) {
	var chain []*domain.Trade

	next := tradeID
	for next != "" {
		trade, err := r.GetTrade(ctx, next)
		if err != nil {
			return nil, err
		}
		if trade == nil {
			if len(chain) == 0 {
				return nil, fmt.Errorf("%w: %s", domain.ErrTradeNotFound, tradeID)
			}
			break
		}
		chain = append(chain, trade)
		if trade.ParentTradeID == nil {
			break
		}
		next = *trade.ParentTradeID
	}
	return chain, nil
}

// ListTradesPastDeliveryDeadline returns IN_TRANSIT trades whose delivery
// window elapsed
func (r *TradeRepository) ListTradesPastDeliveryDeadline(ctx context.Context, now time.Time) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades
		WHERE status = $1 AND delivery_deadline IS NOT NULL AND delivery_deadline <= $2`
	return r.listTrades(ctx, query, string(domain.TradeStatusInTransit), now)
}

// ListTradesPastRatingDeadline returns trades whose rating window elapsed
func (r *TradeRepository) ListTradesPastRatingDeadline(ctx context.Context, now time.Time) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades
		WHERE status = $1 AND rating_deadline IS NOT NULL AND rating_deadline <= $2`
	return r.listTrades(ctx, query, string(domain.TradeStatusCompletedAwaitingRating), now)
}

func (r *TradeRepository) listTrades(ctx context.Context, query string, args ...interface{}) ([]*domain.Trade, error) {
	rows, err := r.db.Query(ctx, query, args...)
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

// BeginTx opens a unit of work with row-level locking
func (r *TradeRepository) BeginTx(ctx context.Context) (repository.TradeTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	return &tradeTx{tx: tx}, nil
}
