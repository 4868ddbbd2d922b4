package domain

import "time"

// DisputeStatus represents the state of a dispute ticket
type DisputeStatus string

const (
	DisputeStatusOpenAwaitingResponse DisputeStatus = "OPEN_AWAITING_RESPONSE"
	DisputeStatusInMediation          DisputeStatus = "IN_MEDIATION"
	DisputeStatusEscalated            DisputeStatus = "ESCALATED_TO_MODERATOR"
	DisputeStatusResolved             DisputeStatus = "RESOLVED"
	DisputeStatusClosedAutomatically  DisputeStatus = "CLOSED_AUTOMATICALLY"
)

// IsClosed reports whether the ticket reached a final state
func (s DisputeStatus) IsClosed() bool {
	return s == DisputeStatusResolved || s == DisputeStatusClosedAutomatically
}

// DisputeType classifies what the initiator is contesting
type DisputeType string

const (
	DisputeTypeINR            DisputeType = "INR" // item not received
	DisputeTypeSNAD           DisputeType = "SNAD" // significantly not as described
	DisputeTypeCounterfeit    DisputeType = "COUNTERFEIT"
	DisputeTypeShippingDamage DisputeType = "SHIPPING_DAMAGE"
)

// ValidDisputeType reports whether t is a known dispute type
func ValidDisputeType(t DisputeType) bool {
	switch t {
	case DisputeTypeINR, DisputeTypeSNAD, DisputeTypeCounterfeit, DisputeTypeShippingDamage:
		return true
	}
	return false
}

// ResolutionOutcome is the tagged variant a moderator picks when closing a dispute
type ResolutionOutcome string

const (
	ResolutionTradeUpheld   ResolutionOutcome = "TRADE_UPHELD"
	ResolutionFullRefund    ResolutionOutcome = "FULL_REFUND"
	ResolutionPartialRefund ResolutionOutcome = "PARTIAL_REFUND"
	ResolutionTradeReversal ResolutionOutcome = "TRADE_REVERSAL"
)

// ValidResolutionOutcome reports whether o is a known outcome
func ValidResolutionOutcome(o ResolutionOutcome) bool {
	switch o {
	case ResolutionTradeUpheld, ResolutionFullRefund, ResolutionPartialRefund, ResolutionTradeReversal:
		return true
	}
	return false
}

// DisputeResolution carries the outcome plus outcome-specific payload.
// RefundSplitBps is meaningful only for PARTIAL_REFUND: the share of the
// escrowed amount (in basis points) returned to the payer.
type DisputeResolution struct {
	Outcome        ResolutionOutcome `json:"outcome"`
	RefundSplitBps int               `json:"refund_split_bps,omitempty"`
	Note           string            `json:"note,omitempty"`
	DecidedBy      string            `json:"decided_by"`
	DecidedAt      time.Time         `json:"decided_at"`
}

// Evidence is a party's statement plus attachment references
type Evidence struct {
	Statement   string    `json:"statement"`
	Attachments []string  `json:"attachments,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// MediationMessage is one entry of the append-only mediation log
type MediationMessage struct {
	AuthorID string    `json:"author_id"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
}

// DisputeTicket is 1:1 with a trade while open. Once Resolution is set the
// ticket is immutable and the parent trade moves to DISPUTE_RESOLVED.
type DisputeTicket struct {
	ID           string        `json:"id"`
	TradeID      string        `json:"trade_id"`
	InitiatorID  string        `json:"initiator_id"`
	RespondentID string        `json:"respondent_id"`
	Status       DisputeStatus `json:"status"`
	Type         DisputeType   `json:"type"`

	InitiatorEvidence  *Evidence `json:"initiator_evidence,omitempty"`
	RespondentEvidence *Evidence `json:"respondent_evidence,omitempty"`

	MediationLog []MediationMessage `json:"mediation_log,omitempty"`

	Resolution *DisputeResolution `json:"resolution,omitempty"`

	DeadlineForNextAction time.Time `json:"deadline_for_next_action"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
