package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swapcrate/swapcrate/internal/domain"
)

func TestCanTransition_HappyPath(t *testing.T) {
	path := []domain.TradeStatus{
		domain.TradeStatusPendingAcceptance,
		domain.TradeStatusAccepted,
		domain.TradeStatusPaymentPending,
		domain.TradeStatusEscrowFunded,
		domain.TradeStatusShippingPending,
		domain.TradeStatusInTransit,
		domain.TradeStatusCompletedAwaitingRating,
		domain.TradeStatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.NoError(t, CanTransition(path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestCanTransition_TerminalStatesRejectEverything(t *testing.T) {
	terminals := []domain.TradeStatus{
		domain.TradeStatusCompleted,
		domain.TradeStatusCountered,
		domain.TradeStatusRejected,
		domain.TradeStatusCancelled,
		domain.TradeStatusDisputeResolved,
	}
	for _, from := range terminals {
		err := CanTransition(from, domain.TradeStatusAccepted)
		assert.ErrorIs(t, err, domain.ErrTerminalState, "from %s", from)
	}
}

func TestCanTransition_NoSkippingStates(t *testing.T) {
	cases := []struct {
		from, to domain.TradeStatus
	}{
		{domain.TradeStatusPendingAcceptance, domain.TradeStatusCompleted},
		{domain.TradeStatusPaymentPending, domain.TradeStatusInTransit},
		{domain.TradeStatusShippingPending, domain.TradeStatusCompleted},
		{domain.TradeStatusInTransit, domain.TradeStatusShippingPending},
		{domain.TradeStatusDisputeOpened, domain.TradeStatusCompleted},
	}
	for _, tc := range cases {
		err := CanTransition(tc.from, tc.to)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
	}
}

func TestCanOpenDispute(t *testing.T) {
	assert.False(t, CanOpenDispute(domain.TradeStatusPendingAcceptance))
	assert.False(t, CanOpenDispute(domain.TradeStatusCompleted))
	assert.False(t, CanOpenDispute(domain.TradeStatusRejected))

	assert.True(t, CanOpenDispute(domain.TradeStatusPaymentPending))
	assert.True(t, CanOpenDispute(domain.TradeStatusShippingPending))
	assert.True(t, CanOpenDispute(domain.TradeStatusInTransit))
	assert.True(t, CanOpenDispute(domain.TradeStatusCompletedAwaitingRating))
}
