package domain

import "time"

// ValuationSource tags where an item's estimated market value came from.
// API-verified values are treated as ground truth by the reputation engine;
// user-defined values are the object of trust scoring.
type ValuationSource string

const (
	ValuationSourceAPIVerified        ValuationSource = "API_VERIFIED"
	ValuationSourceUserDefinedUnique  ValuationSource = "USER_DEFINED_UNIQUE"
	ValuationSourceUserDefinedGeneric ValuationSource = "USER_DEFINED_GENERIC"
)

// Item is a collectible owned by exactly one user at a time. Ownership
// transfers atomically on trade completion, never split.
type Item struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// EMVCents is the estimated market value in minor currency units
	EMVCents            int64           `json:"emv_cents"`
	ValuationSource     ValuationSource `json:"valuation_source"`
	ValuationConfidence float64         `json:"valuation_confidence"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
