package config

import "time"

// Default values used when the corresponding environment variable is unset
const (
	DefaultPort = 8080

	// Reputation engine defaults. The balanced band defaults to exact match;
	// the overvaluation threshold is 20% above value received.
	DefaultBalancedToleranceBps      = 0
	DefaultOvervaluationThresholdBps = 2000
	DefaultBalancedRewardDelta       = 1
	DefaultOvervaluationPenaltyDelta = -10

	// Platform fee: 2.5% of the smaller side's value
	DefaultPlatformFeeBps = 250

	// Unanswered disputes close in the initiator's favor with a 50/50 split
	DefaultAutoCloseRefundSplitBps = 5000

	DefaultDeliveryConfirmWindow = 14 * 24 * time.Hour
	DefaultRatingWindow          = 7 * 24 * time.Hour
	DefaultDisputeResponseWindow = 5 * 24 * time.Hour
	DefaultDeadlineSweepInterval = time.Minute
	DefaultEscrowCallTimeout     = 10 * time.Second
)
