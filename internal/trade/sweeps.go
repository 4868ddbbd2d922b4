package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/event"
	"github.com/swapcrate/swapcrate/internal/logger"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// SweepDeliveryDeadlines auto-confirms trades whose delivery window expired
// with no objection. Silence past the deadline counts as satisfaction; a party
// with a genuine problem opens a dispute, which freezes the trade and takes it
// out of the sweep.
func (s *service) SweepDeliveryDeadlines(ctx context.Context, now time.Time) (int, error) {
	log := logger.FromContext(ctx)

	overdue, err := s.repo.ListTradesPastDeliveryDeadline(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue deliveries: %w", err)
	}

	swept := 0
	for _, stale := range overdue {
		if err := s.autoConfirm(ctx, stale.ID); err != nil {
			log.Error("Failed to auto-confirm overdue trade", "trade_id", stale.ID, "error", err)
			continue
		}
		swept++
	}

	if swept > 0 {
		log.Info("Delivery deadline sweep finished", "swept", swept, "candidates", len(overdue))
	}
	return swept, nil
}

func (s *service) autoConfirm(ctx context.Context, tradeID string) error {
	mu := s.locks.GetLock(tradeID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := tx.GetTradeForUpdate(ctx, tradeID)
	if err != nil {
		return fmt.Errorf("failed to get trade: %w", err)
	}
	// A dispute or manual confirmation may have landed since listing
	if trade == nil || trade.Status != domain.TradeStatusInTransit {
		return nil
	}

	fromStatus := trade.Status
	trade.ProposerConfirmed = true
	trade.ReceiverConfirmed = true
	if err := s.settle(ctx, tx, trade); err != nil {
		return err
	}
	trade.Status = domain.TradeStatusCompletedAwaitingRating
	deadline := time.Now().Add(s.cfg.RatingWindow)
	trade.RatingDeadline = &deadline

	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publish(ctx, event.NewTradeEvent(event.TradeAwaitingRating, trade, fromStatus, "delivery_window_expired"))
	return nil
}

// SweepRatingDeadlines completes trades whose rating window expired. Unrated
// sides simply forfeit their rating; reputation scoring still runs, since it
// reads the value snapshots, not the ratings.
func (s *service) SweepRatingDeadlines(ctx context.Context, now time.Time) (int, error) {
	log := logger.FromContext(ctx)

	overdue, err := s.repo.ListTradesPastRatingDeadline(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue ratings: %w", err)
	}

	swept := 0
	for _, stale := range overdue {
		if err := s.autoComplete(ctx, stale.ID); err != nil {
			log.Error("Failed to auto-complete overdue trade", "trade_id", stale.ID, "error", err)
			continue
		}
		swept++
	}

	if swept > 0 {
		log.Info("Rating deadline sweep finished", "swept", swept, "candidates", len(overdue))
	}
	return swept, nil
}

func (s *service) autoComplete(ctx context.Context, tradeID string) error {
	mu := s.locks.GetLock(tradeID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := tx.GetTradeForUpdate(ctx, tradeID)
	if err != nil {
		return fmt.Errorf("failed to get trade: %w", err)
	}
	if trade == nil || trade.Status != domain.TradeStatusCompletedAwaitingRating {
		return nil
	}

	fromStatus := trade.Status
	repEvents, err := s.complete(ctx, tx, trade)
	if err != nil {
		return err
	}

	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publishCompletion(ctx, trade, fromStatus, repEvents)
	return nil
}
