package domain

import "time"

// Default lifecycle deadlines. Overridable through config.
const (
	DefaultDeliveryConfirmWindow = 14 * 24 * time.Hour
	DefaultRatingWindow          = 7 * 24 * time.Hour
	DefaultDisputeResponseWindow = 5 * 24 * time.Hour
)

// Trade limits
const (
	MaxItemsPerSide     = 20
	MaxCashCents        = 10_000_00 // $10,000 per side
	MaxAttachmentsCount = 10
	MaxStatementLength  = 4000
	MaxCommentLength    = 2000
)

// Mediation round limit before a dispute escalates to a moderator
const MediationRoundLimit = 6

// Shared metadata keys used across modules for event payloads
const (
	MetadataKeyTradeID  = "trade_id"
	MetadataKeyTicketID = "ticket_id"
	MetadataKeyUserID   = "user_id"
	MetadataKeySource   = "source"
)
