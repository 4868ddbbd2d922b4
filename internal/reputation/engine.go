package reputation

import "github.com/swapcrate/swapcrate/internal/domain"

// Giveaway policy values. A pure give-away (value received == 0) says nothing
// about valuation honesty, so the default is neutral; product may flip it to
// reward generosity instead.
const (
	GiveawayNeutral = "neutral"
	GiveawayReward  = "reward"
)

// Config tunes the scoring rules. The balanced band defaults to exact match;
// it is configurable because the band is a product decision, not a constant.
type Config struct {
	BalancedToleranceBps      int
	OvervaluationThresholdBps int
	BalancedReward            int
	OvervaluationPenalty      int
	GiveawayPolicy            string
}

// DefaultConfig returns the scoring defaults: exact balance required for the
// reward, a 20% overvaluation threshold, +1 reward, -10 penalty, neutral
// give-aways
func DefaultConfig() Config {
	return Config{
		BalancedToleranceBps:      0,
		OvervaluationThresholdBps: 2000,
		BalancedReward:            1,
		OvervaluationPenalty:      -10,
		GiveawayPolicy:            GiveawayNeutral,
	}
}

// Outcome is the scoring result for one party of one completed trade
type Outcome struct {
	ScoreDelta        int
	SurplusDeltaCents int64
	Reason            string
}

// Score computes the reputation outcome for a party that gave valueGiven and
// received valueReceived (EMV snapshots plus cash, in cents).
//
// The function is pure and depends only on how the party's offered value
// compared to what they received - never on who got the better deal. Surplus
// is tracked regardless of the reputation outcome: surplus measures economic
// result, the score measures valuation honesty.
func Score(valueGiven, valueReceived int64, cfg Config) Outcome {
	out := Outcome{
		SurplusDeltaCents: valueReceived - valueGiven,
		Reason:            domain.ReputationReasonNeutral,
	}

	// Give-away branch: guards the ratio math against division by zero and
	// applies the configured policy
	if valueReceived == 0 {
		if valueGiven > 0 && cfg.GiveawayPolicy == GiveawayReward {
			out.ScoreDelta = cfg.BalancedReward
		}
		out.Reason = domain.ReputationReasonGiveaway
		if valueGiven == 0 {
			out.Reason = domain.ReputationReasonNeutral
		}
		return out
	}

	// Balanced band: |given - received| within tolerance of value received.
	// Integer basis-point math, no floats.
	diff := valueGiven - valueReceived
	if diff < 0 {
		diff = -diff
	}
	if diff*10000 <= int64(cfg.BalancedToleranceBps)*valueReceived {
		out.ScoreDelta = cfg.BalancedReward
		out.Reason = domain.ReputationReasonBalancedTrade
		return out
	}

	// Overvaluation: offering more than received by over the threshold flags
	// an inflated offer. Accepting an unbalanced trade in one's own favor is
	// never penalized.
	if valueGiven*10000 > valueReceived*(10000+int64(cfg.OvervaluationThresholdBps)) {
		out.ScoreDelta = cfg.OvervaluationPenalty
		out.Reason = domain.ReputationReasonOvervaluation
	}

	return out
}
