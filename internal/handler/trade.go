package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swapcrate/swapcrate/internal/logger"
	"github.com/swapcrate/swapcrate/internal/trade"
)

// ProposeTradeRequest represents a new trade proposal
type ProposeTradeRequest struct {
	ProposerID        string   `json:"proposer_id" validate:"required"`
	ReceiverID        string   `json:"receiver_id" validate:"required"`
	ProposerItemIDs   []string `json:"proposer_item_ids" validate:"max=20"`
	ReceiverItemIDs   []string `json:"receiver_item_ids" validate:"max=20"`
	ProposerCashCents int64    `json:"proposer_cash_cents" validate:"min=0"`
	ReceiverCashCents int64    `json:"receiver_cash_cents" validate:"min=0"`
}

// CounterTermsRequest is the replacement offer on a counter response
type CounterTermsRequest struct {
	ProposerItemIDs   []string `json:"proposer_item_ids" validate:"max=20"`
	ReceiverItemIDs   []string `json:"receiver_item_ids" validate:"max=20"`
	ProposerCashCents int64    `json:"proposer_cash_cents" validate:"min=0"`
	ReceiverCashCents int64    `json:"receiver_cash_cents" validate:"min=0"`
}

// RespondTradeRequest carries a party's response to a pending proposal
type RespondTradeRequest struct {
	ActorID string               `json:"actor_id" validate:"required"`
	Action  string               `json:"action" validate:"required,oneof=accept reject counter cancel"`
	Counter *CounterTermsRequest `json:"counter,omitempty"`
}

// SubmitTrackingRequest carries a shipping tracking number
type SubmitTrackingRequest struct {
	ActorID        string `json:"actor_id" validate:"required"`
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

// ConfirmRequest identifies the confirming party
type ConfirmRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
}

// SubmitRatingRequest carries a post-trade rating
type SubmitRatingRequest struct {
	RaterID            string `json:"rater_id" validate:"required"`
	OverallScore       int    `json:"overall_score" validate:"required,min=1,max=5"`
	ItemAccuracyScore  int    `json:"item_accuracy_score" validate:"required,min=1,max=5"`
	ShippingSpeedScore int    `json:"shipping_speed_score" validate:"required,min=1,max=5"`
	CommunicationScore int    `json:"communication_score" validate:"required,min=1,max=5"`
	PublicComment      string `json:"public_comment" validate:"max=2000"`
	PrivateFeedback    string `json:"private_feedback" validate:"max=2000"`
}

// decodeAndValidate decodes a JSON body into dst and runs struct validation
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	log := logger.FromContext(r.Context())
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Warn("Failed to decode request body", "error", err)
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return false
	}
	if err := GetValidator().ValidateStruct(dst); err != nil {
		log.Warn("Request validation failed", "error", err)
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  ErrMsgInvalidRequest,
			"fields": FormatValidationError(err),
		})
		return false
	}
	return true
}

// HandleProposeTrade handles new trade proposals
// @Summary Propose a trade
// @Description Creates a PENDING_ACCEPTANCE trade between two users
// @Tags trade
// @Accept json
// @Produce json
// @Success 201 {object} DataResponse
// @Router /api/v1/trade/propose [post]
func HandleProposeTrade(svc trade.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProposeTradeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		created, err := svc.ProposeTrade(r.Context(), trade.ProposeParams{
			ProposerID:        req.ProposerID,
			ReceiverID:        req.ReceiverID,
			ProposerItemIDs:   req.ProposerItemIDs,
			ReceiverItemIDs:   req.ReceiverItemIDs,
			ProposerCashCents: req.ProposerCashCents,
			ReceiverCashCents: req.ReceiverCashCents,
		})
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgProposeTradeFailed, "error", err)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, DataResponse{Data: created})
	}
}

// HandleRespondToTrade handles accept/reject/counter/cancel on a trade
// @Summary Respond to a trade
// @Tags trade
// @Accept json
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/trade/{tradeID}/respond [post]
func HandleRespondToTrade(svc trade.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tradeID := chi.URLParam(r, "tradeID")

		var req RespondTradeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		var counter *trade.CounterTerms
		if req.Counter != nil {
			counter = &trade.CounterTerms{
				ProposerItemIDs:   req.Counter.ProposerItemIDs,
				ReceiverItemIDs:   req.Counter.ReceiverItemIDs,
				ProposerCashCents: req.Counter.ProposerCashCents,
				ReceiverCashCents: req.Counter.ReceiverCashCents,
			}
		}

		updated, err := svc.RespondToTrade(r.Context(), tradeID, req.ActorID, trade.ResponseAction(req.Action), counter)
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgRespondTradeFailed, "error", err, "trade_id", tradeID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: updated})
	}
}

// HandleFundEscrow handles escrow funding for a trade's cash differential
// @Summary Fund the escrow differential
// @Tags trade
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/trade/{tradeID}/fund [post]
func HandleFundEscrow(svc trade.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tradeID := chi.URLParam(r, "tradeID")

		funded, err := svc.FundEscrow(r.Context(), tradeID)
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgFundEscrowFailed, "error", err, "trade_id", tradeID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: funded})
	}
}

// HandleSubmitTracking records a shipping tracking number
// @Summary Submit tracking
// @Tags trade
// @Accept json
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/trade/{tradeID}/tracking [post]
func HandleSubmitTracking(svc trade.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tradeID := chi.URLParam(r, "tradeID")

		var req SubmitTrackingRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		updated, err := svc.SubmitTracking(r.Context(), tradeID, req.ActorID, req.TrackingNumber)
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgSubmitTrackFailed, "error", err, "trade_id", tradeID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: updated})
	}
}

// HandleConfirmSatisfaction records a delivery confirmation
// @Summary Confirm satisfaction
// @Tags trade
// @Accept json
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/trade/{tradeID}/confirm [post]
func HandleConfirmSatisfaction(svc trade.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tradeID := chi.URLParam(r, "tradeID")

		var req ConfirmRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		updated, err := svc.ConfirmSatisfaction(r.Context(), tradeID, req.ActorID)
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgConfirmFailed, "error", err, "trade_id", tradeID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: updated})
	}
}

// HandleSubmitRating records a post-trade rating
// @Summary Rate a completed trade
// @Tags trade
// @Accept json
// @Produce json
// @Success 201 {object} DataResponse
// @Router /api/v1/trade/{tradeID}/rate [post]
func HandleSubmitRating(svc trade.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tradeID := chi.URLParam(r, "tradeID")

		var req SubmitRatingRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		rating, err := svc.SubmitRating(r.Context(), trade.RatingParams{
			TradeID:            tradeID,
			RaterID:            req.RaterID,
			OverallScore:       req.OverallScore,
			ItemAccuracyScore:  req.ItemAccuracyScore,
			ShippingSpeedScore: req.ShippingSpeedScore,
			CommunicationScore: req.CommunicationScore,
			PublicComment:      req.PublicComment,
			PrivateFeedback:    req.PrivateFeedback,
		})
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgSubmitRatingFailed, "error", err, "trade_id", tradeID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, DataResponse{Data: rating})
	}
}

// HandleGetTrade returns a single trade
// @Summary Get a trade
// @Tags trade
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/trade/{tradeID} [get]
func HandleGetTrade(svc trade.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tradeID := chi.URLParam(r, "tradeID")

		found, err := svc.GetTrade(r.Context(), tradeID)
		if err != nil {
			logger.FromContext(r.Context()).Warn(ErrMsgGetTradeFailed, "error", err, "trade_id", tradeID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: found})
	}
}

// HandleGetTradeChain returns a trade plus its counter-offer ancestry
// @Summary Get a trade's negotiation chain
// @Tags trade
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/trade/{tradeID}/chain [get]
func HandleGetTradeChain(svc trade.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tradeID := chi.URLParam(r, "tradeID")

		chain, err := svc.GetTradeChain(r.Context(), tradeID)
		if err != nil {
			logger.FromContext(r.Context()).Warn(ErrMsgGetChainFailed, "error", err, "trade_id", tradeID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: chain})
	}
}
