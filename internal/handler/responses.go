package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Headers already sent, nothing left to do but log
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// HandleMethodNotAllowed is the router's fallback for known paths hit with
// the wrong verb
func HandleMethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, ErrMsgMethodNotAllowed)
	}
}

// respondServiceError maps a service error to its HTTP shape and sends it
func respondServiceError(w http.ResponseWriter, err error) {
	status, message := mapServiceErrorToUserMessage(err)
	respondError(w, status, message)
}

// User-facing error messages derived from domain errors
const (
	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"

	ErrMsgUserNotFoundError    = "User not found"
	ErrMsgTradeNotFoundError   = "Trade not found"
	ErrMsgItemNotFoundError    = "Item not found"
	ErrMsgDisputeNotFoundError = "Dispute ticket not found"

	ErrMsgInsufficientBalanceError = "Insufficient balance to cover this trade"
	ErrMsgItemNotOwnedError        = "You can only offer items you own"
	ErrMsgItemNoLongerAvailError   = "An offered item is no longer available"
	ErrMsgItemOnBothSidesError     = "The same item cannot appear on both sides"
	ErrMsgSelfTradeError           = "You cannot trade with yourself"
	ErrMsgEscrowNotRequiredError   = "This trade has no differential to fund"
	ErrMsgScoreOutOfRangeError     = "Rating scores must be between 1 and 5"

	ErrMsgInvalidTransitionError = "That action is not valid in the trade's current state"
	ErrMsgTerminalStateError     = "This trade is closed and cannot be changed"
	ErrMsgDisputeAlreadyOpenErr  = "A dispute is already open for this trade"
	ErrMsgDisputeImmutableError  = "This dispute is closed and cannot be changed"
	ErrMsgDuplicateRatingError   = "You have already rated this trade"
	ErrMsgRatingWindowOverError  = "The rating window for this trade has closed"

	ErrMsgNotParticipantError       = "You are not a party to this trade"
	ErrMsgWrongActorError           = "You cannot perform that action on this trade"
	ErrMsgNotModeratorError         = "Only a moderator can resolve an escalated dispute"
	ErrMsgInitiatorCannotReplyError = "The dispute initiator cannot submit the response"

	ErrMsgEscrowDeclinedError = "The escrow service declined the request. Please try again."
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP
// responses without leaking internals
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	// Not found
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, ErrMsgUserNotFoundError
	case errors.Is(err, domain.ErrTradeNotFound):
		return http.StatusNotFound, ErrMsgTradeNotFoundError
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, ErrMsgItemNotFoundError
	case errors.Is(err, domain.ErrDisputeNotFound):
		return http.StatusNotFound, ErrMsgDisputeNotFoundError

	// Bad input
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest, ErrMsgInsufficientBalanceError
	case errors.Is(err, domain.ErrItemNotOwned):
		return http.StatusBadRequest, ErrMsgItemNotOwnedError
	case errors.Is(err, domain.ErrItemOnBothSides):
		return http.StatusBadRequest, ErrMsgItemOnBothSidesError
	case errors.Is(err, domain.ErrSelfTrade):
		return http.StatusBadRequest, ErrMsgSelfTradeError
	case errors.Is(err, domain.ErrEscrowNotRequired):
		return http.StatusBadRequest, ErrMsgEscrowNotRequiredError
	case errors.Is(err, domain.ErrScoreOutOfRange):
		return http.StatusBadRequest, ErrMsgScoreOutOfRangeError
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequest

	// State conflicts
	case errors.Is(err, domain.ErrItemNoLongerAvailable):
		return http.StatusConflict, ErrMsgItemNoLongerAvailError
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, ErrMsgInvalidTransitionError
	case errors.Is(err, domain.ErrTerminalState):
		return http.StatusConflict, ErrMsgTerminalStateError
	case errors.Is(err, domain.ErrDisputeAlreadyOpen):
		return http.StatusConflict, ErrMsgDisputeAlreadyOpenErr
	case errors.Is(err, domain.ErrDisputeImmutable):
		return http.StatusConflict, ErrMsgDisputeImmutableError
	case errors.Is(err, domain.ErrDuplicateRating):
		return http.StatusConflict, ErrMsgDuplicateRatingError
	case errors.Is(err, domain.ErrRatingWindowOver):
		return http.StatusConflict, ErrMsgRatingWindowOverError

	// Authorization
	case errors.Is(err, domain.ErrNotParticipant):
		return http.StatusForbidden, ErrMsgNotParticipantError
	case errors.Is(err, domain.ErrWrongActor):
		return http.StatusForbidden, ErrMsgWrongActorError
	case errors.Is(err, domain.ErrNotModerator):
		return http.StatusForbidden, ErrMsgNotModeratorError
	case errors.Is(err, domain.ErrInitiatorCannotReply):
		return http.StatusForbidden, ErrMsgInitiatorCannotReplyError

	// Upstream
	case errors.Is(err, domain.ErrEscrowDeclined):
		return http.StatusBadGateway, ErrMsgEscrowDeclinedError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
