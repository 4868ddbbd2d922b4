package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// ReputationRepository implements the append-only scoring ledger for PostgreSQL
type ReputationRepository struct {
	db *pgxpool.Pool
}

var _ repository.Reputation = (*ReputationRepository)(nil)

// NewReputationRepository creates a new ReputationRepository
func NewReputationRepository(db *pgxpool.Pool) *ReputationRepository {
	return &ReputationRepository{db: db}
}

// AppendEvent writes one ledger entry
func (r *ReputationRepository) AppendEvent(ctx context.Context, ev *domain.ReputationEvent) error {
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
	err = r.db.QueryRow(ctx, query, userID, tradeID, ev.ScoreDelta, ev.SurplusDeltaCents, ev.Reason).
		Scan(&id, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToAppendRepEvent, err)
	}
	ev.ID = id.String()
	return nil
}

// ListEventsForUser returns a user's ledger entries, newest first
func (r *ReputationRepository) ListEventsForUser(ctx context.Context, userID string) ([]*domain.ReputationEvent, error) {
	id, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	query := `
		SELECT event_id, user_id, trade_id, score_delta, surplus_delta_cents, reason, created_at
		FROM reputation_events
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListRepEvents, err)
	}
	defer rows.Close()

	var events []*domain.ReputationEvent
	for rows.Next() {
		var (
			ev                    domain.ReputationEvent
			evID, uID, tradeID    uuid.UUID
		)
		if err := rows.Scan(&evID, &uID, &tradeID, &ev.ScoreDelta, &ev.SurplusDeltaCents, &ev.Reason, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListRepEvents, err)
		}
		ev.ID = evID.String()
		ev.UserID = uID.String()
		ev.TradeID = tradeID.String()
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// HasEventForTrade reports whether a trade already scored a given user
func (r *ReputationRepository) HasEventForTrade(ctx context.Context, tradeID, userID string) (bool, error) {
	tid, err := parseID(tradeID, "trade")
	if err != nil {
		return false, err
	}
	uid, err := parseID(userID, "user")
	if err != nil {
		return false, err
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reputation_events WHERE trade_id = $1 AND user_id = $2)`
	if err := r.db.QueryRow(ctx, query, tid, uid).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToListRepEvents, err)
	}
	return exists, nil
}
