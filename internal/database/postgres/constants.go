package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
)

// Error Messages - Transaction Operations
const (
	ErrMsgFailedToBeginTransaction  = "failed to begin transaction"
	ErrMsgFailedToCommitTransaction = "failed to commit transaction"
)

// Error Messages - User Operations
const (
	ErrMsgInvalidUserID           = "invalid user id"
	ErrMsgFailedToInsertUser      = "failed to insert user"
	ErrMsgFailedToUpdateUser      = "failed to update user"
	ErrMsgFailedToGetUser         = "failed to get user"
	ErrMsgFailedToUpdateWishlist  = "failed to update wishlist"
)

// Error Messages - Item Operations
const (
	ErrMsgInvalidItemID         = "invalid item id"
	ErrMsgFailedToInsertItem    = "failed to insert item"
	ErrMsgFailedToUpdateItem    = "failed to update item"
	ErrMsgFailedToGetItem       = "failed to get item"
	ErrMsgFailedToTransferItems = "failed to transfer items"
)

// Error Messages - Trade Operations
const (
	ErrMsgInvalidTradeID       = "invalid trade id"
	ErrMsgFailedToInsertTrade  = "failed to insert trade"
	ErrMsgFailedToUpdateTrade  = "failed to update trade"
	ErrMsgFailedToGetTrade     = "failed to get trade"
	ErrMsgFailedToListTrades   = "failed to list trades"
)

// Error Messages - Dispute Operations
const (
	ErrMsgInvalidTicketID      = "invalid ticket id"
	ErrMsgFailedToInsertTicket = "failed to insert dispute ticket"
	ErrMsgFailedToUpdateTicket = "failed to update dispute ticket"
	ErrMsgFailedToGetTicket    = "failed to get dispute ticket"
	ErrMsgFailedToListTickets  = "failed to list dispute tickets"
)

// Error Messages - Rating and Reputation Operations
const (
	ErrMsgFailedToInsertRating   = "failed to insert rating"
	ErrMsgFailedToGetRating      = "failed to get rating"
	ErrMsgFailedToListRatings    = "failed to list ratings"
	ErrMsgFailedToAppendRepEvent = "failed to append reputation event"
	ErrMsgFailedToListRepEvents  = "failed to list reputation events"
)
