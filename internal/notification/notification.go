// Package notification delivers best-effort user notifications off the event
// bus. Delivery is fire and forget: a failed or slow notification never blocks
// or fails the lifecycle operation that triggered it.
package notification

import (
	"context"
	"fmt"

	"github.com/swapcrate/swapcrate/internal/event"
	"github.com/swapcrate/swapcrate/internal/logger"
)

// Sender delivers one notification to one user
type Sender interface {
	Send(ctx context.Context, userID, message string) error
}

// LogSender writes notifications to the structured log. Stands in for a push
// or email integration in local mode.
type LogSender struct{}

// Send logs the notification
func (LogSender) Send(ctx context.Context, userID, message string) error {
	logger.FromContext(ctx).Info("Notification", "user_id", userID, "message", message)
	return nil
}

// Service fans lifecycle events out to the parties they concern
type Service struct {
	sender Sender
}

// NewService creates a notification service
func NewService(sender Sender) *Service {
	return &Service{sender: sender}
}

// Subscribe registers the notifier on every lifecycle event type
func (s *Service) Subscribe(bus event.Bus) {
	for _, eventType := range event.AllTradeEventTypes {
		bus.Subscribe(eventType, s.handleEvent)
	}
}

// handleEvent dispatches asynchronously and always returns nil: notification
// failure must not surface as a handler error to the publisher
func (s *Service) handleEvent(ctx context.Context, evt event.Event) error {
	recipients, message := describe(evt)
	if message == "" {
		return nil
	}

	requestID, _ := logger.RequestIDFromContext(ctx)
	go func() {
		// Detached from the request context on purpose: the request may
		// complete before delivery does
		ctx := logger.WithRequestID(context.Background(), requestID)
		for _, userID := range recipients {
			if userID == "" {
				continue
			}
			if err := s.sender.Send(ctx, userID, message); err != nil {
				logger.FromContext(ctx).Warn("Notification delivery failed",
					"user_id", userID, "event_type", evt.Type, "error", err)
			}
		}
	}()
	return nil
}

// describe maps an event to its recipients and a human message
func describe(evt event.Event) ([]string, string) {
	switch p := evt.Payload.(type) {
	case event.TradeStatusPayloadV1:
		recipients := []string{p.ProposerID, p.ReceiverID}
		switch evt.Type {
		case event.TradeProposed:
			return []string{p.ReceiverID}, fmt.Sprintf("You received a trade offer (%s)", p.TradeID)
		case event.TradeAccepted:
			return recipients, fmt.Sprintf("Trade %s was accepted", p.TradeID)
		case event.TradeCountered:
			return []string{p.ProposerID}, fmt.Sprintf("Your offer on trade %s was countered", p.TradeID)
		case event.TradeRejected:
			return []string{p.ProposerID}, fmt.Sprintf("Your offer on trade %s was declined", p.TradeID)
		case event.TradeCancelled, event.TradeInvalidated:
			return recipients, fmt.Sprintf("Trade %s was cancelled (%s)", p.TradeID, p.Reason)
		case event.TradeEscrowFunded:
			return recipients, fmt.Sprintf("Escrow for trade %s is funded, time to ship", p.TradeID)
		case event.TradeInTransit:
			return recipients, fmt.Sprintf("All packages for trade %s are in transit", p.TradeID)
		case event.TradeAwaitingRating:
			return recipients, fmt.Sprintf("Trade %s settled, leave your rating", p.TradeID)
		case event.TradeCompleted:
			return recipients, fmt.Sprintf("Trade %s is complete", p.TradeID)
		}
	case event.DisputePayloadV1:
		switch evt.Type {
		case event.DisputeOpened:
			return []string{p.InitiatorID}, fmt.Sprintf("Your dispute on trade %s is open", p.TradeID)
		case event.DisputeEscalated:
			return []string{p.InitiatorID}, fmt.Sprintf("Dispute %s was escalated to a moderator", p.TicketID)
		case event.DisputeResolved:
			return []string{p.InitiatorID}, fmt.Sprintf("Dispute %s closed: %s", p.TicketID, p.Outcome)
		}
	case event.RatingPayloadV1:
		return []string{p.RateeID}, fmt.Sprintf("You received a %d-star rating on trade %s", p.OverallScore, p.TradeID)
	}
	return nil, ""
}
