package domain

import "time"

// User represents a registered marketplace member
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`

	// BalanceCents is mutated only by escrow settlement or trade cash
	// transfer, and may never go negative.
	BalanceCents int64 `json:"balance_cents"`

	// ValuationReputationScore tracks historical honesty of self-declared
	// item values. Starts at ReputationStartingScore and is mutated only by
	// the reputation engine.
	ValuationReputationScore int `json:"valuation_reputation_score"`

	// NetTradeSurplusCents is the cumulative value received minus value given
	// across completed trades. Tracks economic outcome, not honesty.
	NetTradeSurplusCents int64 `json:"net_trade_surplus_cents"`

	// Wishlist holds item ids the user wants; no ownership implication.
	Wishlist []string `json:"wishlist,omitempty"`

	Moderator bool `json:"moderator"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
