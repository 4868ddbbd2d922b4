package handler

// Generic HTTP error messages for client responses.
// These intentionally do not expose internal error details.
// Both handlers and tests reference these constants.
const (
	ErrMsgMethodNotAllowed = "Method not allowed"
	ErrMsgInvalidRequest   = "Invalid request body"

	ErrMsgProposeTradeFailed  = "Failed to propose trade"
	ErrMsgRespondTradeFailed  = "Failed to respond to trade"
	ErrMsgFundEscrowFailed    = "Failed to fund escrow"
	ErrMsgSubmitTrackFailed   = "Failed to submit tracking"
	ErrMsgConfirmFailed       = "Failed to confirm satisfaction"
	ErrMsgSubmitRatingFailed  = "Failed to submit rating"
	ErrMsgGetTradeFailed      = "Failed to retrieve trade"
	ErrMsgGetChainFailed      = "Failed to retrieve trade chain"
	ErrMsgOpenDisputeFailed   = "Failed to open dispute"
	ErrMsgDisputeReplyFailed  = "Failed to respond to dispute"
	ErrMsgEscalateFailed      = "Failed to escalate dispute"
	ErrMsgResolveFailed       = "Failed to resolve dispute"
	ErrMsgGetDisputeFailed    = "Failed to retrieve dispute"
	ErrMsgGetReputationFailed = "Failed to retrieve reputation"
	ErrMsgGetWishlistFailed   = "Failed to retrieve wishlist"
	ErrMsgWishlistEditFailed  = "Failed to update wishlist"
	ErrMsgGetRatingsFailed    = "Failed to retrieve ratings"
)
