package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swapcrate/swapcrate/internal/dispute"
	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/logger"
)

// OpenDisputeRequest files a dispute against an in-flight trade
type OpenDisputeRequest struct {
	InitiatorID string   `json:"initiator_id" validate:"required"`
	Type        string   `json:"type" validate:"required"`
	Statement   string   `json:"statement" validate:"required,max=10000"`
	Attachments []string `json:"attachments" validate:"max=10"`
}

// DisputeReplyRequest carries a respondent's evidence or a mediation message
type DisputeReplyRequest struct {
	ActorID     string   `json:"actor_id" validate:"required"`
	Statement   string   `json:"statement" validate:"required,max=10000"`
	Attachments []string `json:"attachments" validate:"max=10"`
}

// EscalateDisputeRequest identifies the escalating party
type EscalateDisputeRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
}

// ResolveDisputeRequest carries a moderator's ruling
type ResolveDisputeRequest struct {
	ModeratorID    string `json:"moderator_id" validate:"required"`
	Outcome        string `json:"outcome" validate:"required"`
	RefundSplitBps int    `json:"refund_split_bps" validate:"min=0,max=10000"`
	Note           string `json:"note" validate:"max=10000"`
}

// HandleOpenDispute files a dispute on a trade, freezing its lifecycle
// @Summary Open a dispute
// @Tags dispute
// @Accept json
// @Produce json
// @Success 201 {object} DataResponse
// @Router /api/v1/trade/{tradeID}/dispute [post]
func HandleOpenDispute(svc dispute.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tradeID := chi.URLParam(r, "tradeID")

		var req OpenDisputeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		ticket, err := svc.OpenDispute(r.Context(), dispute.OpenParams{
			TradeID:     tradeID,
			InitiatorID: req.InitiatorID,
			Type:        domain.DisputeType(req.Type),
			Statement:   req.Statement,
			Attachments: req.Attachments,
		})
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgOpenDisputeFailed, "error", err, "trade_id", tradeID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, DataResponse{Data: ticket})
	}
}

// HandleRespondToDispute accepts the respondent's evidence or a mediation message
// @Summary Respond to a dispute
// @Tags dispute
// @Accept json
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/dispute/{ticketID}/respond [post]
func HandleRespondToDispute(svc dispute.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID := chi.URLParam(r, "ticketID")

		var req DisputeReplyRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		ticket, err := svc.RespondToDispute(r.Context(), ticketID, req.ActorID, req.Statement, req.Attachments)
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgDisputeReplyFailed, "error", err, "ticket_id", ticketID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: ticket})
	}
}

// HandleEscalateDispute moves an in-mediation dispute to the moderator queue
// @Summary Escalate a dispute
// @Tags dispute
// @Accept json
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/dispute/{ticketID}/escalate [post]
func HandleEscalateDispute(svc dispute.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID := chi.URLParam(r, "ticketID")

		var req EscalateDisputeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		ticket, err := svc.EscalateDispute(r.Context(), ticketID, req.ActorID)
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgEscalateFailed, "error", err, "ticket_id", ticketID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: ticket})
	}
}

// HandleResolveDispute applies a moderator ruling to an escalated dispute
// @Summary Resolve a dispute
// @Tags dispute
// @Accept json
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/dispute/{ticketID}/resolve [post]
func HandleResolveDispute(svc dispute.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID := chi.URLParam(r, "ticketID")

		var req ResolveDisputeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		ticket, err := svc.ResolveDispute(r.Context(), ticketID, req.ModeratorID, domain.DisputeResolution{
			Outcome:        domain.ResolutionOutcome(req.Outcome),
			RefundSplitBps: req.RefundSplitBps,
			Note:           req.Note,
		})
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgResolveFailed, "error", err, "ticket_id", ticketID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: ticket})
	}
}

// HandleGetDispute returns a dispute ticket
// @Summary Get a dispute ticket
// @Tags dispute
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/dispute/{ticketID} [get]
func HandleGetDispute(svc dispute.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID := chi.URLParam(r, "ticketID")

		ticket, err := svc.GetTicket(r.Context(), ticketID)
		if err != nil {
			logger.FromContext(r.Context()).Warn(ErrMsgGetDisputeFailed, "error", err, "ticket_id", ticketID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: ticket})
	}
}
