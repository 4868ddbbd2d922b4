package reputation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/logger"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// Summary is a user's current reputation standing plus the ledger behind it
type Summary struct {
	UserID                   string                    `json:"user_id"`
	ValuationReputationScore int                       `json:"valuation_reputation_score"`
	NetTradeSurplusCents     int64                     `json:"net_trade_surplus_cents"`
	Events                   []*domain.ReputationEvent `json:"events"`
}

// Service scores completed trades and serves reputation history
type Service interface {
	// ApplyTradeOutcome scores both parties of a completed trade inside the
	// caller's transaction. Invoked exactly once per trade, when it reaches
	// COMPLETED.
	ApplyTradeOutcome(ctx context.Context, tx repository.TradeTx, trade *domain.Trade) ([]*domain.ReputationEvent, error)

	GetSummary(ctx context.Context, userID string) (*Summary, error)
}

type service struct {
	users  repository.User
	ledger repository.Reputation
	cfg    Config
}

// NewService creates a new reputation service
func NewService(users repository.User, ledger repository.Reputation, cfg Config) Service {
	return &service{users: users, ledger: ledger, cfg: cfg}
}

func (s *service) ApplyTradeOutcome(ctx context.Context, tx repository.TradeTx, trade *domain.Trade) ([]*domain.ReputationEvent, error) {
	log := logger.FromContext(ctx)

	events := make([]*domain.ReputationEvent, 0, 2)
	for _, partyID := range []string{trade.ProposerID, trade.ReceiverID} {
		// Replay guard: a trade scores each party at most once
		scored, err := s.ledger.HasEventForTrade(ctx, trade.ID, partyID)
		if err != nil {
			return nil, fmt.Errorf("failed to check scoring ledger: %w", err)
		}
		if scored {
			log.Warn("Trade already scored for party, skipping", "trade_id", trade.ID, "user_id", partyID)
			continue
		}

		outcome := Score(trade.ValueGiven(partyID), trade.ValueReceived(partyID), s.cfg)

		user, err := tx.GetUserForUpdate(ctx, partyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load user for scoring: %w", err)
		}
		if user == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, partyID)
		}

		user.ValuationReputationScore += outcome.ScoreDelta
		user.NetTradeSurplusCents += outcome.SurplusDeltaCents
		if err := tx.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user score: %w", err)
		}

		ev := &domain.ReputationEvent{
			ID:                uuid.NewString(),
			UserID:            partyID,
			TradeID:           trade.ID,
			ScoreDelta:        outcome.ScoreDelta,
			SurplusDeltaCents: outcome.SurplusDeltaCents,
			Reason:            outcome.Reason,
		}
		if err := tx.AppendReputationEvent(ctx, ev); err != nil {
			return nil, fmt.Errorf("failed to append reputation event: %w", err)
		}
		events = append(events, ev)

		log.Info("Party scored for completed trade",
			"trade_id", trade.ID,
			"user_id", partyID,
			"score_delta", outcome.ScoreDelta,
			"surplus_delta_cents", outcome.SurplusDeltaCents,
			"reason", outcome.Reason)
	}

	return events, nil
}

func (s *service) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	events, err := s.ledger.ListEventsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reputation events: %w", err)
	}

	return &Summary{
		UserID:                   user.ID,
		ValuationReputationScore: user.ValuationReputationScore,
		NetTradeSurplusCents:     user.NetTradeSurplusCents,
		Events:                   events,
	}, nil
}
