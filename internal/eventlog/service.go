// Package eventlog persists every lifecycle event as an audit record. The
// audit trail is how terminal trades stay explainable long after the fact.
package eventlog

import (
	"context"

	"github.com/swapcrate/swapcrate/internal/event"
	"github.com/swapcrate/swapcrate/internal/logger"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// Service handles event logging business logic
type Service interface {
	// Subscribe registers the event logger to listen to all lifecycle events
	Subscribe(bus event.Bus)

	// CleanupOldEvents removes events older than retention period
	CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error)
}

type service struct {
	repo repository.EventLog
}

// NewService creates a new event logging service
func NewService(repo repository.EventLog) Service {
	return &service{repo: repo}
}

func (s *service) Subscribe(bus event.Bus) {
	for _, eventType := range event.AllTradeEventTypes {
		bus.Subscribe(eventType, s.handleEvent)
	}
}

func (s *service) handleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	userID := subjectUserID(evt)
	if err := s.repo.LogEvent(ctx, string(evt.Type), userID, evt.Payload, evt.Metadata); err != nil {
		log.Error("Failed to log event to database", "error", err, "type", evt.Type)
		return err
	}

	log.Debug("Event logged to database", "type", evt.Type)
	return nil
}

// subjectUserID extracts the user an event is about, where one exists. Trade
// status events concern two parties and carry no single subject.
func subjectUserID(evt event.Event) *string {
	switch p := evt.Payload.(type) {
	case event.DisputePayloadV1:
		return &p.InitiatorID
	case event.RatingPayloadV1:
		return &p.RaterID
	case event.ReputationPayloadV1:
		return &p.UserID
	}
	return nil
}

func (s *service) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	return s.repo.CleanupOldEvents(ctx, retentionDays)
}
