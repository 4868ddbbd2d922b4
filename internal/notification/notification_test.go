package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcrate/swapcrate/internal/event"
)

type recordingSender struct {
	mu    sync.Mutex
	sends map[string]string
	done  chan struct{}
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sends: make(map[string]string), done: make(chan struct{}, 16)}
}

func (r *recordingSender) Send(_ context.Context, userID, message string) error {
	r.mu.Lock()
	r.sends[userID] = message
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingSender) wait(t *testing.T, n int) {
	t.Helper()
	timeout := time.After(time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-timeout:
			t.Fatalf("timed out waiting for %d notifications", n)
		}
	}
}

func (r *recordingSender) get(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.sends[userID]
	return msg, ok
}

func TestService_TradeProposedNotifiesReceiverOnly(t *testing.T) {
	sender := newRecordingSender()
	bus := event.NewMemoryBus()
	NewService(sender).Subscribe(bus)

	err := bus.Publish(context.Background(), event.Event{
		Type:    event.TradeProposed,
		Payload: event.TradeStatusPayloadV1{TradeID: "t1", ProposerID: "alice", ReceiverID: "bob"},
	})
	require.NoError(t, err)
	sender.wait(t, 1)

	msg, ok := sender.get("bob")
	require.True(t, ok)
	assert.Contains(t, msg, "trade offer")

	_, ok = sender.get("alice")
	assert.False(t, ok, "proposer does not hear about their own offer")
}

func TestService_TradeAcceptedNotifiesBothParties(t *testing.T) {
	sender := newRecordingSender()
	bus := event.NewMemoryBus()
	NewService(sender).Subscribe(bus)

	err := bus.Publish(context.Background(), event.Event{
		Type:    event.TradeAccepted,
		Payload: event.TradeStatusPayloadV1{TradeID: "t1", ProposerID: "alice", ReceiverID: "bob"},
	})
	require.NoError(t, err)
	sender.wait(t, 2)

	for _, userID := range []string{"alice", "bob"} {
		msg, ok := sender.get(userID)
		require.True(t, ok, "expected notification for %s", userID)
		assert.Contains(t, msg, "accepted")
	}
}

func TestService_RatingNotifiesRatee(t *testing.T) {
	sender := newRecordingSender()
	bus := event.NewMemoryBus()
	NewService(sender).Subscribe(bus)

	err := bus.Publish(context.Background(), event.Event{
		Type:    event.RatingSubmitted,
		Payload: event.RatingPayloadV1{TradeID: "t1", RaterID: "alice", RateeID: "bob", OverallScore: 4},
	})
	require.NoError(t, err)
	sender.wait(t, 1)

	msg, ok := sender.get("bob")
	require.True(t, ok)
	assert.Contains(t, msg, "4-star")
}

func TestService_UnmappedEventSendsNothing(t *testing.T) {
	sender := newRecordingSender()
	bus := event.NewMemoryBus()
	svc := NewService(sender)
	svc.Subscribe(bus)

	// Reputation scoring is internal bookkeeping, not user-facing
	err := bus.Publish(context.Background(), event.Event{
		Type:    event.ReputationScored,
		Payload: event.ReputationPayloadV1{UserID: "alice", TradeID: "t1", ScoreDelta: 1},
	})
	require.NoError(t, err)

	select {
	case <-sender.done:
		t.Fatal("unexpected notification for reputation event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDescribe_DisputeResolvedMentionsOutcome(t *testing.T) {
	recipients, msg := describe(event.Event{
		Type:    event.DisputeResolved,
		Payload: event.DisputePayloadV1{TicketID: "d1", TradeID: "t1", InitiatorID: "alice", Outcome: "FULL_REFUND"},
	})
	assert.Equal(t, []string{"alice"}, recipients)
	assert.Contains(t, msg, "FULL_REFUND")
}
