package domain

import "time"

// TradeStatus represents the lifecycle state of a trade
type TradeStatus string

const (
	TradeStatusPendingAcceptance       TradeStatus = "PENDING_ACCEPTANCE"
	TradeStatusAccepted                TradeStatus = "ACCEPTED"
	TradeStatusPaymentPending          TradeStatus = "PAYMENT_PENDING"
	TradeStatusEscrowFunded            TradeStatus = "ESCROW_FUNDED"
	TradeStatusShippingPending         TradeStatus = "SHIPPING_PENDING"
	TradeStatusInTransit               TradeStatus = "IN_TRANSIT"
	TradeStatusCompletedAwaitingRating TradeStatus = "COMPLETED_AWAITING_RATING"
	TradeStatusCompleted               TradeStatus = "COMPLETED"
	TradeStatusCountered               TradeStatus = "COUNTERED"
	TradeStatusRejected                TradeStatus = "REJECTED"
	TradeStatusCancelled               TradeStatus = "CANCELLED"
	TradeStatusDisputeOpened           TradeStatus = "DISPUTE_OPENED"
	TradeStatusDisputeResolved         TradeStatus = "DISPUTE_RESOLVED"
)

// IsTerminal reports whether no further mutating operation may touch a trade
// in this status. Terminal trades are retained for audit and reputation history.
func (s TradeStatus) IsTerminal() bool {
	switch s {
	case TradeStatusCompleted, TradeStatusCountered, TradeStatusRejected,
		TradeStatusCancelled, TradeStatusDisputeResolved:
		return true
	}
	return false
}

// Cancellation reason constants stored on Trade.CancelReason
const (
	CancelReasonProposerWithdrew     = "proposer_withdrew"
	CancelReasonBeforeFunding        = "cancelled_before_funding"
	CancelReasonItemNoLongerAvailable = "item_no_longer_available"
)

// Trade is the central aggregate: two parties, their offered items/cash and a
// status. Once the status leaves negotiation the offered sets are frozen;
// renegotiation happens through a new trade linked by ParentTradeID.
type Trade struct {
	ID            string  `json:"id"`
	ParentTradeID *string `json:"parent_trade_id,omitempty"`

	ProposerID string `json:"proposer_id"`
	ReceiverID string `json:"receiver_id"`

	ProposerItemIDs   []string `json:"proposer_item_ids"`
	ReceiverItemIDs   []string `json:"receiver_item_ids"`
	ProposerCashCents int64    `json:"proposer_cash_cents"`
	ReceiverCashCents int64    `json:"receiver_cash_cents"`

	Status       TradeStatus `json:"status"`
	CancelReason string      `json:"cancel_reason,omitempty"`

	// EMV snapshots taken at acceptance, when the offered sets freeze.
	// Reputation scoring at completion reads these, not live item values.
	ProposerValueCents int64 `json:"proposer_value_cents"`
	ReceiverValueCents int64 `json:"receiver_value_cents"`

	PlatformFeeCents int64  `json:"platform_fee_cents"`
	FeePayerID       string `json:"fee_payer_id,omitempty"`

	// Escrow differential. EscrowPayerID is empty for balanced trades.
	EscrowPayerID     string `json:"escrow_payer_id,omitempty"`
	EscrowAmountCents int64  `json:"escrow_amount_cents"`
	EscrowFunded      bool   `json:"escrow_funded"`

	// Settled is set once items, cash and escrow have moved. Dispute
	// resolutions consult it to decide between cancelling the settlement
	// and reversing it.
	Settled bool `json:"settled"`

	ProposerTrackingNumber string `json:"proposer_tracking_number,omitempty"`
	ReceiverTrackingNumber string `json:"receiver_tracking_number,omitempty"`
	ProposerConfirmed      bool   `json:"proposer_confirmed"`
	ReceiverConfirmed      bool   `json:"receiver_confirmed"`
	ProposerRated          bool   `json:"proposer_rated"`
	ReceiverRated          bool   `json:"receiver_rated"`

	DisputeTicketID *string `json:"dispute_ticket_id,omitempty"`

	DeliveryDeadline *time.Time `json:"delivery_deadline,omitempty"`
	RatingDeadline   *time.Time `json:"rating_deadline,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsParticipant reports whether userID is one of the two trade parties
func (t *Trade) IsParticipant(userID string) bool {
	return userID == t.ProposerID || userID == t.ReceiverID
}

// Counterparty returns the other party of the trade, or "" if userID is not a party
func (t *Trade) Counterparty(userID string) string {
	switch userID {
	case t.ProposerID:
		return t.ReceiverID
	case t.ReceiverID:
		return t.ProposerID
	}
	return ""
}

// MustShip reports whether the given party has items to ship. A cash-only side
// has nothing to ship and is trivially "shipped".
func (t *Trade) MustShip(userID string) bool {
	switch userID {
	case t.ProposerID:
		return len(t.ProposerItemIDs) > 0
	case t.ReceiverID:
		return len(t.ReceiverItemIDs) > 0
	}
	return false
}

// HasTracking reports whether the given party has submitted a tracking number
func (t *Trade) HasTracking(userID string) bool {
	switch userID {
	case t.ProposerID:
		return t.ProposerTrackingNumber != ""
	case t.ReceiverID:
		return t.ReceiverTrackingNumber != ""
	}
	return false
}

// AllTrackingSubmitted reports whether every party that must ship has tracking
func (t *Trade) AllTrackingSubmitted() bool {
	if t.MustShip(t.ProposerID) && !t.HasTracking(t.ProposerID) {
		return false
	}
	if t.MustShip(t.ReceiverID) && !t.HasTracking(t.ReceiverID) {
		return false
	}
	return true
}

// BothConfirmed reports whether both parties confirmed satisfaction
func (t *Trade) BothConfirmed() bool {
	return t.ProposerConfirmed && t.ReceiverConfirmed
}

// BothRated reports whether both parties submitted their rating
func (t *Trade) BothRated() bool {
	return t.ProposerRated && t.ReceiverRated
}

// ValueGiven returns the accepted-time EMV snapshot of what the party put in,
// cash included
func (t *Trade) ValueGiven(userID string) int64 {
	switch userID {
	case t.ProposerID:
		return t.ProposerValueCents
	case t.ReceiverID:
		return t.ReceiverValueCents
	}
	return 0
}

// ValueReceived returns the accepted-time EMV snapshot of what the party got
func (t *Trade) ValueReceived(userID string) int64 {
	return t.ValueGiven(t.Counterparty(userID))
}
