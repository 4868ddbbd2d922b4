package domain

import "time"

// Rating score bounds
const (
	RatingScoreMin = 1
	RatingScoreMax = 5
)

// TradeRating is created at most once per party per completed trade.
// PrivateFeedback is never exposed to the ratee.
type TradeRating struct {
	ID      string `json:"id"`
	TradeID string `json:"trade_id"`
	RaterID string `json:"rater_id"`
	RateeID string `json:"ratee_id"`

	OverallScore       int `json:"overall_score"`
	ItemAccuracyScore  int `json:"item_accuracy_score"`
	ShippingSpeedScore int `json:"shipping_speed_score"`
	CommunicationScore int `json:"communication_score"`

	PublicComment   string `json:"public_comment,omitempty"`
	PrivateFeedback string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// ValidScore reports whether a sub-score is within the 1-5 band
func ValidScore(s int) bool {
	return s >= RatingScoreMin && s <= RatingScoreMax
}
