package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/handler"
	"github.com/swapcrate/swapcrate/internal/trade"
)

// newTradeRouter mounts the trade handlers the way the server does, so path
// parameters resolve through chi
func newTradeRouter(svc trade.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/trade/propose", handler.HandleProposeTrade(svc))
	r.Get("/trade/{tradeID}", handler.HandleGetTrade(svc))
	r.Get("/trade/{tradeID}/chain", handler.HandleGetTradeChain(svc))
	r.Post("/trade/{tradeID}/respond", handler.HandleRespondToTrade(svc))
	r.Post("/trade/{tradeID}/fund", handler.HandleFundEscrow(svc))
	r.Post("/trade/{tradeID}/tracking", handler.HandleSubmitTracking(svc))
	r.Post("/trade/{tradeID}/confirm", handler.HandleConfirmSatisfaction(svc))
	r.Post("/trade/{tradeID}/rate", handler.HandleSubmitRating(svc))
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf []byte
	if s, ok := body.(string); ok {
		buf = []byte(s)
	} else if body != nil {
		var err error
		buf, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(buf))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleProposeTrade(t *testing.T) {
	handler.InitValidator()

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockTradeService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Success",
			requestBody: handler.ProposeTradeRequest{
				ProposerID:      "alice",
				ReceiverID:      "bob",
				ProposerItemIDs: []string{"sword"},
				ReceiverItemIDs: []string{"shield"},
			},
			setupMock: func(m *MockTradeService) {
				m.On("ProposeTrade", mock.Anything, mock.MatchedBy(func(p trade.ProposeParams) bool {
					return p.ProposerID == "alice" && p.ReceiverID == "bob"
				})).Return(&domain.Trade{ID: "t1", Status: domain.TradeStatusPendingAcceptance}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Self Trade",
			requestBody: handler.ProposeTradeRequest{
				ProposerID:      "alice",
				ReceiverID:      "alice",
				ProposerItemIDs: []string{"sword"},
			},
			setupMock: func(m *MockTradeService) {
				m.On("ProposeTrade", mock.Anything, mock.Anything).Return(nil, domain.ErrSelfTrade)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  handler.ErrMsgSelfTradeError,
		},
		{
			name: "User Not Found",
			requestBody: handler.ProposeTradeRequest{
				ProposerID:      "alice",
				ReceiverID:      "ghost",
				ProposerItemIDs: []string{"sword"},
			},
			setupMock: func(m *MockTradeService) {
				m.On("ProposeTrade", mock.Anything, mock.Anything).Return(nil, domain.ErrUserNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  handler.ErrMsgUserNotFoundError,
		},
		{
			name: "Item Not Owned",
			requestBody: handler.ProposeTradeRequest{
				ProposerID:      "alice",
				ReceiverID:      "bob",
				ProposerItemIDs: []string{"stolen"},
			},
			setupMock: func(m *MockTradeService) {
				m.On("ProposeTrade", mock.Anything, mock.Anything).Return(nil, domain.ErrItemNotOwned)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  handler.ErrMsgItemNotOwnedError,
		},
		{
			name:           "Validation Error (Missing Receiver)",
			requestBody:    handler.ProposeTradeRequest{ProposerID: "alice"},
			setupMock:      func(m *MockTradeService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  handler.ErrMsgInvalidRequest,
		},
		{
			name:           "Invalid Body (Malformed JSON)",
			requestBody:    "not-json",
			setupMock:      func(m *MockTradeService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  handler.ErrMsgInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &MockTradeService{}
			tt.setupMock(mockSvc)

			w := doJSON(t, newTradeRouter(mockSvc), http.MethodPost, "/trade/propose", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, strings.ToLower(w.Body.String()), strings.ToLower(tt.expectedError))
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestHandleRespondToTrade(t *testing.T) {
	handler.InitValidator()

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockTradeService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:        "Accept",
			requestBody: handler.RespondTradeRequest{ActorID: "bob", Action: "accept"},
			setupMock: func(m *MockTradeService) {
				m.On("RespondToTrade", mock.Anything, "t1", "bob", trade.ActionAccept, (*trade.CounterTerms)(nil)).
					Return(&domain.Trade{ID: "t1", Status: domain.TradeStatusAccepted}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Counter Carries Terms",
			requestBody: handler.RespondTradeRequest{
				ActorID: "bob",
				Action:  "counter",
				Counter: &handler.CounterTermsRequest{
					ProposerItemIDs:   []string{"shield"},
					ReceiverCashCents: 500,
				},
			},
			setupMock: func(m *MockTradeService) {
				m.On("RespondToTrade", mock.Anything, "t1", "bob", trade.ActionCounter,
					mock.MatchedBy(func(c *trade.CounterTerms) bool {
						return c != nil && c.ReceiverCashCents == 500
					})).
					Return(&domain.Trade{ID: "t2", Status: domain.TradeStatusPendingAcceptance}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Unknown Action Rejected By Validation",
			requestBody:    handler.RespondTradeRequest{ActorID: "bob", Action: "shrug"},
			setupMock:      func(m *MockTradeService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  handler.ErrMsgInvalidRequest,
		},
		{
			name:        "Invalid Transition",
			requestBody: handler.RespondTradeRequest{ActorID: "bob", Action: "accept"},
			setupMock: func(m *MockTradeService) {
				m.On("RespondToTrade", mock.Anything, "t1", "bob", trade.ActionAccept, (*trade.CounterTerms)(nil)).
					Return(nil, domain.ErrInvalidTransition)
			},
			expectedStatus: http.StatusConflict,
			expectedError:  handler.ErrMsgInvalidTransitionError,
		},
		{
			name:        "Not A Participant",
			requestBody: handler.RespondTradeRequest{ActorID: "mallory", Action: "accept"},
			setupMock: func(m *MockTradeService) {
				m.On("RespondToTrade", mock.Anything, "t1", "mallory", trade.ActionAccept, (*trade.CounterTerms)(nil)).
					Return(nil, domain.ErrNotParticipant)
			},
			expectedStatus: http.StatusForbidden,
			expectedError:  handler.ErrMsgNotParticipantError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &MockTradeService{}
			tt.setupMock(mockSvc)

			w := doJSON(t, newTradeRouter(mockSvc), http.MethodPost, "/trade/t1/respond", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, strings.ToLower(w.Body.String()), strings.ToLower(tt.expectedError))
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestHandleFundEscrow(t *testing.T) {
	handler.InitValidator()

	t.Run("Success", func(t *testing.T) {
		mockSvc := &MockTradeService{}
		mockSvc.On("FundEscrow", mock.Anything, "t1").
			Return(&domain.Trade{ID: "t1", Status: domain.TradeStatusEscrowFunded}, nil)

		w := doJSON(t, newTradeRouter(mockSvc), http.MethodPost, "/trade/t1/fund", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("Escrow Declined", func(t *testing.T) {
		mockSvc := &MockTradeService{}
		mockSvc.On("FundEscrow", mock.Anything, "t1").Return(nil, domain.ErrEscrowDeclined)

		w := doJSON(t, newTradeRouter(mockSvc), http.MethodPost, "/trade/t1/fund", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "escrow service declined")
	})

	t.Run("No Differential", func(t *testing.T) {
		mockSvc := &MockTradeService{}
		mockSvc.On("FundEscrow", mock.Anything, "t1").Return(nil, domain.ErrEscrowNotRequired)

		w := doJSON(t, newTradeRouter(mockSvc), http.MethodPost, "/trade/t1/fund", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleSubmitRating(t *testing.T) {
	handler.InitValidator()

	validBody := handler.SubmitRatingRequest{
		RaterID:            "alice",
		OverallScore:       5,
		ItemAccuracyScore:  4,
		ShippingSpeedScore: 5,
		CommunicationScore: 4,
		PublicComment:      "smooth trade",
	}

	t.Run("Success", func(t *testing.T) {
		mockSvc := &MockTradeService{}
		mockSvc.On("SubmitRating", mock.Anything, mock.MatchedBy(func(p trade.RatingParams) bool {
			return p.TradeID == "t1" && p.RaterID == "alice" && p.OverallScore == 5
		})).Return(&domain.TradeRating{ID: "r1", TradeID: "t1", RaterID: "alice", OverallScore: 5}, nil)

		w := doJSON(t, newTradeRouter(mockSvc), http.MethodPost, "/trade/t1/rate", validBody)
		assert.Equal(t, http.StatusCreated, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("Score Out Of Range Rejected By Validation", func(t *testing.T) {
		body := validBody
		body.OverallScore = 6

		w := doJSON(t, newTradeRouter(&MockTradeService{}), http.MethodPost, "/trade/t1/rate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Duplicate Rating", func(t *testing.T) {
		mockSvc := &MockTradeService{}
		mockSvc.On("SubmitRating", mock.Anything, mock.Anything).Return(nil, domain.ErrDuplicateRating)

		w := doJSON(t, newTradeRouter(mockSvc), http.MethodPost, "/trade/t1/rate", validBody)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already rated")
	})

	t.Run("Rating Window Over", func(t *testing.T) {
		mockSvc := &MockTradeService{}
		mockSvc.On("SubmitRating", mock.Anything, mock.Anything).Return(nil, domain.ErrRatingWindowOver)

		w := doJSON(t, newTradeRouter(mockSvc), http.MethodPost, "/trade/t1/rate", validBody)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandleGetTrade(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockSvc := &MockTradeService{}
		mockSvc.On("GetTrade", mock.Anything, "t1").
			Return(&domain.Trade{ID: "t1", ProposerID: "alice", ReceiverID: "bob"}, nil)

		w := doJSON(t, newTradeRouter(mockSvc), http.MethodGet, "/trade/t1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data domain.Trade `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "t1", resp.Data.ID)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockSvc := &MockTradeService{}
		mockSvc.On("GetTrade", mock.Anything, "missing").Return(nil, domain.ErrTradeNotFound)

		w := doJSON(t, newTradeRouter(mockSvc), http.MethodGet, "/trade/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleGetTradeChain(t *testing.T) {
	mockSvc := &MockTradeService{}
	mockSvc.On("GetTradeChain", mock.Anything, "t3").Return([]*domain.Trade{
		{ID: "t3"}, {ID: "t2"}, {ID: "t1"},
	}, nil)

	w := doJSON(t, newTradeRouter(mockSvc), http.MethodGet, "/trade/t3/chain", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []domain.Trade `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 3)
	assert.Equal(t, "t3", resp.Data[0].ID)
}
