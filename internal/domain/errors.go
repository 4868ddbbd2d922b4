package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// User errors
	ErrMsgUserNotFound        = "user not found"
	ErrMsgInsufficientBalance = "insufficient balance"

	// Item errors
	ErrMsgItemNotFound          = "item not found"
	ErrMsgItemNotOwned          = "item not owned by offering party"
	ErrMsgItemNoLongerAvailable = "item no longer available"
	ErrMsgItemOnBothSides       = "item offered on both sides of trade"

	// Trade errors
	ErrMsgTradeNotFound     = "trade not found"
	ErrMsgInvalidTransition = "invalid trade transition"
	ErrMsgTerminalState     = "trade is in a terminal state"
	ErrMsgNotParticipant    = "actor is not a trade participant"
	ErrMsgWrongActor        = "action not permitted for this actor"
	ErrMsgSelfTrade         = "cannot trade with yourself"

	// Escrow errors
	ErrMsgEscrowDeclined     = "escrow hold declined"
	ErrMsgEscrowNotRequired  = "trade has no cash differential to fund"
	ErrMsgEscrowHoldNotFound = "escrow hold not found"

	// Dispute errors
	ErrMsgDisputeNotFound      = "dispute ticket not found"
	ErrMsgDisputeAlreadyOpen   = "a dispute is already open for this trade"
	ErrMsgDisputeImmutable     = "dispute ticket is resolved and immutable"
	ErrMsgNotModerator         = "only a moderator may resolve a dispute"
	ErrMsgInitiatorCannotReply = "dispute initiator cannot supply respondent evidence"

	// Rating errors
	ErrMsgDuplicateRating  = "trade already rated by this party"
	ErrMsgScoreOutOfRange  = "rating score out of range"
	ErrMsgRatingWindowOver = "rating window has closed"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// User errors
	ErrUserNotFound        = errors.New(ErrMsgUserNotFound)
	ErrInsufficientBalance = errors.New(ErrMsgInsufficientBalance)

	// Item errors
	ErrItemNotFound          = errors.New(ErrMsgItemNotFound)
	ErrItemNotOwned          = errors.New(ErrMsgItemNotOwned)
	ErrItemNoLongerAvailable = errors.New(ErrMsgItemNoLongerAvailable)
	ErrItemOnBothSides       = errors.New(ErrMsgItemOnBothSides)

	// Trade errors
	ErrTradeNotFound     = errors.New(ErrMsgTradeNotFound)
	ErrInvalidTransition = errors.New(ErrMsgInvalidTransition)
	ErrTerminalState     = errors.New(ErrMsgTerminalState)
	ErrNotParticipant    = errors.New(ErrMsgNotParticipant)
	ErrWrongActor        = errors.New(ErrMsgWrongActor)
	ErrSelfTrade         = errors.New(ErrMsgSelfTrade)

	// Escrow errors
	ErrEscrowDeclined     = errors.New(ErrMsgEscrowDeclined)
	ErrEscrowNotRequired  = errors.New(ErrMsgEscrowNotRequired)
	ErrEscrowHoldNotFound = errors.New(ErrMsgEscrowHoldNotFound)

	// Dispute errors
	ErrDisputeNotFound      = errors.New(ErrMsgDisputeNotFound)
	ErrDisputeAlreadyOpen   = errors.New(ErrMsgDisputeAlreadyOpen)
	ErrDisputeImmutable     = errors.New(ErrMsgDisputeImmutable)
	ErrNotModerator         = errors.New(ErrMsgNotModerator)
	ErrInitiatorCannotReply = errors.New(ErrMsgInitiatorCannotReply)

	// Rating errors
	ErrDuplicateRating  = errors.New(ErrMsgDuplicateRating)
	ErrScoreOutOfRange  = errors.New(ErrMsgScoreOutOfRange)
	ErrRatingWindowOver = errors.New(ErrMsgRatingWindowOver)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)
