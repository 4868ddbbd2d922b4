package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/swapcrate/swapcrate/internal/database/memory"
	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/handler"
	"github.com/swapcrate/swapcrate/internal/reputation"
)

func newUserRouter(store *memory.Store, reputationSvc reputation.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/user/{userID}/reputation", handler.HandleGetReputation(reputationSvc))
	r.Get("/user/{userID}/ratings", handler.HandleGetUserRatings(store, store))
	r.Get("/user/{userID}/wishlist", handler.HandleGetWishlist(store))
	r.Post("/user/{userID}/wishlist", handler.HandleAddWishlistItem(store))
	r.Delete("/user/{userID}/wishlist", handler.HandleRemoveWishlistItem(store))
	return r
}

func TestHandleGetReputation(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockSvc := &MockReputationService{}
		mockSvc.On("GetSummary", mock.Anything, "alice").Return(&reputation.Summary{
			UserID:                   "alice",
			ValuationReputationScore: 3,
			NetTradeSurplusCents:     -1500,
		}, nil)

		w := doJSON(t, newUserRouter(memory.NewStore(), mockSvc), http.MethodGet, "/user/alice/reputation", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data reputation.Summary `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Data.ValuationReputationScore)
		assert.Equal(t, int64(-1500), resp.Data.NetTradeSurplusCents)
	})

	t.Run("User Not Found", func(t *testing.T) {
		mockSvc := &MockReputationService{}
		mockSvc.On("GetSummary", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)

		w := doJSON(t, newUserRouter(memory.NewStore(), mockSvc), http.MethodGet, "/user/ghost/reputation", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleGetUserRatings_OmitsPrivateFeedback(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, &domain.User{ID: "bob", Username: "bob"}))
	require.NoError(t, store.CreateRating(ctx, &domain.TradeRating{
		ID: "r1", TradeID: "t1", RaterID: "alice", RateeID: "bob",
		OverallScore: 4, PublicComment: "good trade", PrivateFeedback: "packaging was sloppy",
	}))

	w := doJSON(t, newUserRouter(store, &MockReputationService{}), http.MethodGet, "/user/bob/ratings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "good trade")
	assert.NotContains(t, w.Body.String(), "packaging was sloppy")
}

func TestWishlistHandlers(t *testing.T) {
	handler.InitValidator()

	setup := func(t *testing.T) *memory.Store {
		store := memory.NewStore()
		ctx := context.Background()
		require.NoError(t, store.CreateUser(ctx, &domain.User{ID: "alice", Username: "alice"}))
		require.NoError(t, store.CreateItem(ctx, &domain.Item{ID: "lamp", OwnerID: "bob", Name: "lamp"}))
		return store
	}

	t.Run("Add Then Get", func(t *testing.T) {
		store := setup(t)
		router := newUserRouter(store, &MockReputationService{})

		w := doJSON(t, router, http.MethodPost, "/user/alice/wishlist", handler.WishlistEditRequest{ItemID: "lamp"})
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/user/alice/wishlist", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "lamp")
	})

	t.Run("Add Unknown Item", func(t *testing.T) {
		store := setup(t)

		w := doJSON(t, newUserRouter(store, &MockReputationService{}), http.MethodPost, "/user/alice/wishlist",
			handler.WishlistEditRequest{ItemID: "phantom"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), handler.ErrMsgItemNotFoundError)
	})

	t.Run("Unknown User", func(t *testing.T) {
		store := setup(t)

		w := doJSON(t, newUserRouter(store, &MockReputationService{}), http.MethodGet, "/user/ghost/wishlist", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Remove", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()
		require.NoError(t, store.AddWishlistItem(ctx, "alice", "lamp"))

		w := doJSON(t, newUserRouter(store, &MockReputationService{}), http.MethodDelete, "/user/alice/wishlist",
			handler.WishlistEditRequest{ItemID: "lamp"})
		assert.Equal(t, http.StatusOK, w.Code)

		wishlist, err := store.GetWishlist(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, wishlist)
	})

	t.Run("Missing Item ID Rejected", func(t *testing.T) {
		store := setup(t)

		w := doJSON(t, newUserRouter(store, &MockReputationService{}), http.MethodPost, "/user/alice/wishlist",
			handler.WishlistEditRequest{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMapServiceError_UnknownErrorIsOpaque(t *testing.T) {
	mockSvc := &MockReputationService{}
	mockSvc.On("GetSummary", mock.Anything, "alice").Return(nil, errors.New("pq: connection reset"))

	w := doJSON(t, newUserRouter(memory.NewStore(), mockSvc), http.MethodGet, "/user/alice/reputation", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
