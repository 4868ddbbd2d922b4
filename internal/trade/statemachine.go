package trade

import (
	"fmt"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// transitions is the guarded automaton: every legal edge of the trade
// lifecycle. Guards beyond pure status checks (ownership, balances, actor
// roles) live in the service methods that drive these edges.
var transitions = map[domain.TradeStatus][]domain.TradeStatus{
	domain.TradeStatusPendingAcceptance: {
		domain.TradeStatusAccepted,
		domain.TradeStatusRejected,
		domain.TradeStatusCancelled,
		domain.TradeStatusCountered,
	},
	domain.TradeStatusAccepted: {
		domain.TradeStatusPaymentPending,
		domain.TradeStatusShippingPending,
		domain.TradeStatusDisputeOpened,
	},
	domain.TradeStatusPaymentPending: {
		domain.TradeStatusEscrowFunded,
		domain.TradeStatusCancelled,
		domain.TradeStatusDisputeOpened,
	},
	domain.TradeStatusEscrowFunded: {
		domain.TradeStatusShippingPending,
		domain.TradeStatusDisputeOpened,
	},
	domain.TradeStatusShippingPending: {
		domain.TradeStatusInTransit,
		domain.TradeStatusDisputeOpened,
	},
	domain.TradeStatusInTransit: {
		domain.TradeStatusCompletedAwaitingRating,
		domain.TradeStatusDisputeOpened,
	},
	domain.TradeStatusCompletedAwaitingRating: {
		domain.TradeStatusCompleted,
		domain.TradeStatusDisputeOpened,
	},
	domain.TradeStatusDisputeOpened: {
		domain.TradeStatusDisputeResolved,
	},
}

// CanTransition validates a single lifecycle edge. Terminal states reject
// every transition; anything else must appear in the automaton.
func CanTransition(from, to domain.TradeStatus) error {
	if from.IsTerminal() {
		return fmt.Errorf("%w: %s", domain.ErrTerminalState, from)
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}

// CanOpenDispute reports whether a dispute may be filed from the given state:
// any non-terminal state past negotiation.
func CanOpenDispute(from domain.TradeStatus) bool {
	if from.IsTerminal() || from == domain.TradeStatusPendingAcceptance {
		return false
	}
	return CanTransition(from, domain.TradeStatusDisputeOpened) == nil
}
