package domain

import "time"

// ReputationStartingScore is every user's initial valuation reputation
const ReputationStartingScore = 100

// Reputation event reason constants
const (
	ReputationReasonBalancedTrade = "balanced_trade"
	ReputationReasonOvervaluation = "overvaluation_penalty"
	ReputationReasonGiveaway      = "giveaway"
	ReputationReasonNeutral       = "neutral"
)

// ReputationEvent is one row of the append-only scoring ledger. The current
// score on User is derived from the starting score plus the sum of deltas,
// which keeps history auditable and scoring idempotent against replay.
type ReputationEvent struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	TradeID           string    `json:"trade_id"`
	ScoreDelta        int       `json:"score_delta"`
	SurplusDeltaCents int64     `json:"surplus_delta_cents"`
	Reason            string    `json:"reason"`
	CreatedAt         time.Time `json:"created_at"`
}
