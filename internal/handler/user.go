package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/logger"
	"github.com/swapcrate/swapcrate/internal/reputation"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// WishlistEditRequest adds or removes a wishlist entry
type WishlistEditRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

// PublicRating is a rating as shown to anyone but the ratee; private
// feedback never leaves the service boundary here
type PublicRating struct {
	TradeID            string    `json:"trade_id"`
	RaterID            string    `json:"rater_id"`
	OverallScore       int       `json:"overall_score"`
	ItemAccuracyScore  int       `json:"item_accuracy_score"`
	ShippingSpeedScore int       `json:"shipping_speed_score"`
	CommunicationScore int       `json:"communication_score"`
	PublicComment      string    `json:"public_comment,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// HandleGetReputation returns a user's reputation score and ledger
// @Summary Get a user's reputation
// @Tags user
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/user/{userID}/reputation [get]
func HandleGetReputation(svc reputation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		summary, err := svc.GetSummary(r.Context(), userID)
		if err != nil {
			logger.FromContext(r.Context()).Warn(ErrMsgGetReputationFailed, "error", err, "user_id", userID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: summary})
	}
}

// HandleGetUserRatings returns the public ratings received by a user
// @Summary Get ratings received by a user
// @Tags user
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/user/{userID}/ratings [get]
func HandleGetUserRatings(users repository.User, ratings repository.Rating) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		log := logger.FromContext(r.Context())

		if err := requireUser(r, users, userID); err != nil {
			log.Warn(ErrMsgGetRatingsFailed, "error", err, "user_id", userID)
			respondServiceError(w, err)
			return
		}

		received, err := ratings.ListRatingsForUser(r.Context(), userID)
		if err != nil {
			log.Error(ErrMsgGetRatingsFailed, "error", err, "user_id", userID)
			respondServiceError(w, err)
			return
		}

		public := make([]PublicRating, 0, len(received))
		for _, rt := range received {
			public = append(public, PublicRating{
				TradeID:            rt.TradeID,
				RaterID:            rt.RaterID,
				OverallScore:       rt.OverallScore,
				ItemAccuracyScore:  rt.ItemAccuracyScore,
				ShippingSpeedScore: rt.ShippingSpeedScore,
				CommunicationScore: rt.CommunicationScore,
				PublicComment:      rt.PublicComment,
				CreatedAt:          rt.CreatedAt,
			})
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: public})
	}
}

// HandleGetWishlist returns a user's wishlist item IDs
// @Summary Get a user's wishlist
// @Tags user
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/user/{userID}/wishlist [get]
func HandleGetWishlist(users repository.User) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		log := logger.FromContext(r.Context())

		if err := requireUser(r, users, userID); err != nil {
			log.Warn(ErrMsgGetWishlistFailed, "error", err, "user_id", userID)
			respondServiceError(w, err)
			return
		}

		wishlist, err := users.GetWishlist(r.Context(), userID)
		if err != nil {
			log.Error(ErrMsgGetWishlistFailed, "error", err, "user_id", userID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: wishlist})
	}
}

// HandleAddWishlistItem adds an item to a user's wishlist
// @Summary Add a wishlist entry
// @Tags user
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/v1/user/{userID}/wishlist [post]
func HandleAddWishlistItem(users repository.User) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		log := logger.FromContext(r.Context())

		var req WishlistEditRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		if err := requireUser(r, users, userID); err != nil {
			log.Warn(ErrMsgWishlistEditFailed, "error", err, "user_id", userID)
			respondServiceError(w, err)
			return
		}

		item, err := users.GetItemByID(r.Context(), req.ItemID)
		if err != nil {
			log.Error(ErrMsgWishlistEditFailed, "error", err, "item_id", req.ItemID)
			respondServiceError(w, err)
			return
		}
		if item == nil {
			respondServiceError(w, domain.ErrItemNotFound)
			return
		}

		if err := users.AddWishlistItem(r.Context(), userID, req.ItemID); err != nil {
			log.Error(ErrMsgWishlistEditFailed, "error", err, "user_id", userID, "item_id", req.ItemID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Item added to wishlist"})
	}
}

// HandleRemoveWishlistItem removes an item from a user's wishlist
// @Summary Remove a wishlist entry
// @Tags user
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/v1/user/{userID}/wishlist [delete]
func HandleRemoveWishlistItem(users repository.User) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		log := logger.FromContext(r.Context())

		var req WishlistEditRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		if err := requireUser(r, users, userID); err != nil {
			log.Warn(ErrMsgWishlistEditFailed, "error", err, "user_id", userID)
			respondServiceError(w, err)
			return
		}

		if err := users.RemoveWishlistItem(r.Context(), userID, req.ItemID); err != nil {
			log.Error(ErrMsgWishlistEditFailed, "error", err, "user_id", userID, "item_id", req.ItemID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Item removed from wishlist"})
	}
}

// requireUser resolves userID or returns a not-found error
func requireUser(r *http.Request, users repository.User, userID string) error {
	user, err := users.GetUserByID(r.Context(), userID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return nil
}
