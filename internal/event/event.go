package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if e.Metadata == nil {
		return nil
	}
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Trade lifecycle event types
const (
	TradeProposed       Type = "trade.proposed"
	TradeAccepted       Type = "trade.accepted"
	TradeCountered      Type = "trade.countered"
	TradeRejected       Type = "trade.rejected"
	TradeCancelled      Type = "trade.cancelled"
	TradeInvalidated    Type = "trade.invalidated"
	TradeEscrowFunded   Type = "trade.escrow_funded"
	TradeInTransit      Type = "trade.in_transit"
	TradeAwaitingRating Type = "trade.awaiting_rating"
	TradeCompleted      Type = "trade.completed"

	DisputeOpened    Type = "dispute.opened"
	DisputeResponded Type = "dispute.responded"
	DisputeEscalated Type = "dispute.escalated"
	DisputeResolved  Type = "dispute.resolved"

	RatingSubmitted  Type = "rating.submitted"
	ReputationScored Type = "reputation.scored"
)

// AllTradeEventTypes lists every lifecycle event, in the order they can occur.
// The audit log and the notification hook subscribe to all of them.
var AllTradeEventTypes = []Type{
	TradeProposed, TradeAccepted, TradeCountered, TradeRejected,
	TradeCancelled, TradeInvalidated, TradeEscrowFunded, TradeInTransit,
	TradeAwaitingRating, TradeCompleted,
	DisputeOpened, DisputeResponded, DisputeEscalated, DisputeResolved,
	RatingSubmitted, ReputationScored,
}

// Typed event payloads for type safety

// TradeStatusPayloadV1 is the typed payload for trade lifecycle events
type TradeStatusPayloadV1 struct {
	TradeID    string `json:"trade_id"`
	ProposerID string `json:"proposer_id"`
	ReceiverID string `json:"receiver_id"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status"`
	Reason     string `json:"reason,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// DisputePayloadV1 is the typed payload for dispute events
type DisputePayloadV1 struct {
	TicketID    string `json:"ticket_id"`
	TradeID     string `json:"trade_id"`
	InitiatorID string `json:"initiator_id"`
	Status      string `json:"status"`
	DisputeType string `json:"dispute_type,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// RatingPayloadV1 is the typed payload for rating submission events
type RatingPayloadV1 struct {
	TradeID      string `json:"trade_id"`
	RaterID      string `json:"rater_id"`
	RateeID      string `json:"ratee_id"`
	OverallScore int    `json:"overall_score"`
	Timestamp    int64  `json:"timestamp"`
}

// ReputationPayloadV1 is the typed payload for reputation scoring events
type ReputationPayloadV1 struct {
	UserID            string `json:"user_id"`
	TradeID           string `json:"trade_id"`
	ScoreDelta        int    `json:"score_delta"`
	SurplusDeltaCents int64  `json:"surplus_delta_cents"`
	Reason            string `json:"reason"`
	Timestamp         int64  `json:"timestamp"`
}

// Type-safe event constructors

// NewTradeEvent creates a lifecycle event for a trade status change
func NewTradeEvent(eventType Type, trade *domain.Trade, fromStatus domain.TradeStatus, reason string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    eventType,
		Payload: TradeStatusPayloadV1{
			TradeID:    trade.ID,
			ProposerID: trade.ProposerID,
			ReceiverID: trade.ReceiverID,
			FromStatus: string(fromStatus),
			ToStatus:   string(trade.Status),
			Reason:     reason,
			Timestamp:  time.Now().Unix(),
		},
		Metadata: map[string]interface{}{
			domain.MetadataKeyTradeID: trade.ID,
		},
	}
}

// NewDisputeEvent creates an event for a dispute ticket change
func NewDisputeEvent(eventType Type, ticket *domain.DisputeTicket, outcome string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    eventType,
		Payload: DisputePayloadV1{
			TicketID:    ticket.ID,
			TradeID:     ticket.TradeID,
			InitiatorID: ticket.InitiatorID,
			Status:      string(ticket.Status),
			DisputeType: string(ticket.Type),
			Outcome:     outcome,
			Timestamp:   time.Now().Unix(),
		},
		Metadata: map[string]interface{}{
			domain.MetadataKeyTicketID: ticket.ID,
			domain.MetadataKeyTradeID:  ticket.TradeID,
		},
	}
}

// NewRatingEvent creates an event for a submitted rating
func NewRatingEvent(rating *domain.TradeRating) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    RatingSubmitted,
		Payload: RatingPayloadV1{
			TradeID:      rating.TradeID,
			RaterID:      rating.RaterID,
			RateeID:      rating.RateeID,
			OverallScore: rating.OverallScore,
			Timestamp:    time.Now().Unix(),
		},
		Metadata: map[string]interface{}{
			domain.MetadataKeyTradeID: rating.TradeID,
		},
	}
}

// NewReputationEvent creates an event for an applied reputation score delta
func NewReputationEvent(ev *domain.ReputationEvent) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ReputationScored,
		Payload: ReputationPayloadV1{
			UserID:            ev.UserID,
			TradeID:           ev.TradeID,
			ScoreDelta:        ev.ScoreDelta,
			SurplusDeltaCents: ev.SurplusDeltaCents,
			Reason:            ev.Reason,
			Timestamp:         time.Now().Unix(),
		},
		Metadata: map[string]interface{}{
			domain.MetadataKeyUserID:  ev.UserID,
			domain.MetadataKeyTradeID: ev.TradeID,
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
