package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcrate/swapcrate/internal/domain"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	received := make([]Event, 0)

	bus.Subscribe(TradeProposed, func(ctx context.Context, evt Event) error {
		received = append(received, evt)
		return nil
	})

	trade := &domain.Trade{
		ID:         "trade-1",
		ProposerID: "alice",
		ReceiverID: "bob",
		Status:     domain.TradeStatusPendingAcceptance,
	}
	evt := NewTradeEvent(TradeProposed, trade, "", "")

	err := bus.Publish(context.Background(), evt)
	require.NoError(t, err)
	require.Len(t, received, 1)

	payload, ok := received[0].Payload.(TradeStatusPayloadV1)
	require.True(t, ok)
	assert.Equal(t, "trade-1", payload.TradeID)
	assert.Equal(t, string(domain.TradeStatusPendingAcceptance), payload.ToStatus)
	assert.Equal(t, "trade-1", received[0].GetMetadataValue(domain.MetadataKeyTradeID))
}

func TestMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	err := bus.Publish(context.Background(), Event{Type: TradeCompleted})
	assert.NoError(t, err)
}

func TestMemoryBus_HandlerErrorIsReturned(t *testing.T) {
	bus := NewMemoryBus()
	bus.Subscribe(TradeCompleted, func(ctx context.Context, evt Event) error {
		return errors.New("boom")
	})

	err := bus.Publish(context.Background(), Event{Type: TradeCompleted})
	assert.Error(t, err)
}

func TestNewDisputeEvent(t *testing.T) {
	ticket := &domain.DisputeTicket{
		ID:          "ticket-1",
		TradeID:     "trade-1",
		InitiatorID: "alice",
		Status:      domain.DisputeStatusResolved,
		Type:        domain.DisputeTypeSNAD,
	}

	evt := NewDisputeEvent(DisputeResolved, ticket, string(domain.ResolutionFullRefund))
	payload, ok := evt.Payload.(DisputePayloadV1)
	require.True(t, ok)
	assert.Equal(t, "ticket-1", payload.TicketID)
	assert.Equal(t, string(domain.ResolutionFullRefund), payload.Outcome)
	assert.Equal(t, EventSchemaVersion, evt.Version)
}
