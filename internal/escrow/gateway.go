package escrow

import "context"

// HoldStatus is the state of an escrow hold at the ledger
type HoldStatus string

const (
	HoldStatusHeld     HoldStatus = "HELD"
	HoldStatusReleased HoldStatus = "RELEASED"
	HoldStatusRefunded HoldStatus = "REFUNDED"
)

// Hold is the gateway's record of funds held for a trade differential
type Hold struct {
	TradeID        string
	PayerID        string
	AmountCents    int64
	IdempotencyKey string
	Status         HoldStatus
}

// Gateway is the external ledger holding cash differentials. The core only
// calls hold/release/refund and observes pass/fail. Every call carries an
// idempotency key: retrying a fund call for the same trade must not
// double-charge.
type Gateway interface {
	HoldFunds(ctx context.Context, tradeID, payerID string, amountCents int64, idempotencyKey string) (*Hold, error)

	// ReleaseFunds pays the held amount out to the payee
	ReleaseFunds(ctx context.Context, tradeID, payeeID string, idempotencyKey string) (*Hold, error)

	// RefundFunds returns the held amount to the payer
	RefundFunds(ctx context.Context, tradeID string, idempotencyKey string) (*Hold, error)

	// SplitFunds refunds splitBps of the hold to the payer and releases the
	// remainder to the payee, for PARTIAL_REFUND resolutions
	SplitFunds(ctx context.Context, tradeID, payeeID string, splitBps int, idempotencyKey string) (*Hold, error)

	GetHold(ctx context.Context, tradeID string) (*Hold, error)
}
