package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/swapcrate/swapcrate/internal/dispute"
	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/handler"
)

func newDisputeRouter(svc dispute.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/trade/{tradeID}/dispute", handler.HandleOpenDispute(svc))
	r.Get("/dispute/{ticketID}", handler.HandleGetDispute(svc))
	r.Post("/dispute/{ticketID}/respond", handler.HandleRespondToDispute(svc))
	r.Post("/dispute/{ticketID}/escalate", handler.HandleEscalateDispute(svc))
	r.Post("/dispute/{ticketID}/resolve", handler.HandleResolveDispute(svc))
	return r
}

func TestHandleOpenDispute(t *testing.T) {
	handler.InitValidator()

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockDisputeService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Success",
			requestBody: handler.OpenDisputeRequest{
				InitiatorID: "alice",
				Type:        "SNAD",
				Statement:   "The card arrived creased",
			},
			setupMock: func(m *MockDisputeService) {
				m.On("OpenDispute", mock.Anything, mock.MatchedBy(func(p dispute.OpenParams) bool {
					return p.TradeID == "t1" && p.InitiatorID == "alice" && p.Type == domain.DisputeTypeSNAD
				})).Return(&domain.DisputeTicket{ID: "d1", TradeID: "t1", Status: domain.DisputeStatusOpenAwaitingResponse}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Dispute Already Open",
			requestBody: handler.OpenDisputeRequest{
				InitiatorID: "alice",
				Type:        "INR",
				Statement:   "Never arrived",
			},
			setupMock: func(m *MockDisputeService) {
				m.On("OpenDispute", mock.Anything, mock.Anything).Return(nil, domain.ErrDisputeAlreadyOpen)
			},
			expectedStatus: http.StatusConflict,
			expectedError:  handler.ErrMsgDisputeAlreadyOpenErr,
		},
		{
			name: "Not A Participant",
			requestBody: handler.OpenDisputeRequest{
				InitiatorID: "mallory",
				Type:        "INR",
				Statement:   "Not my trade but I have opinions",
			},
			setupMock: func(m *MockDisputeService) {
				m.On("OpenDispute", mock.Anything, mock.Anything).Return(nil, domain.ErrNotParticipant)
			},
			expectedStatus: http.StatusForbidden,
			expectedError:  handler.ErrMsgNotParticipantError,
		},
		{
			name:           "Validation Error (Missing Statement)",
			requestBody:    handler.OpenDisputeRequest{InitiatorID: "alice", Type: "SNAD"},
			setupMock:      func(m *MockDisputeService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  handler.ErrMsgInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &MockDisputeService{}
			tt.setupMock(mockSvc)

			w := doJSON(t, newDisputeRouter(mockSvc), http.MethodPost, "/trade/t1/dispute", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, strings.ToLower(w.Body.String()), strings.ToLower(tt.expectedError))
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestHandleRespondToDispute(t *testing.T) {
	handler.InitValidator()

	t.Run("Success", func(t *testing.T) {
		mockSvc := &MockDisputeService{}
		mockSvc.On("RespondToDispute", mock.Anything, "d1", "bob", "It was fine when I shipped it", []string{"photo-1"}).
			Return(&domain.DisputeTicket{ID: "d1", Status: domain.DisputeStatusInMediation}, nil)

		w := doJSON(t, newDisputeRouter(mockSvc), http.MethodPost, "/dispute/d1/respond", handler.DisputeReplyRequest{
			ActorID:     "bob",
			Statement:   "It was fine when I shipped it",
			Attachments: []string{"photo-1"},
		})
		assert.Equal(t, http.StatusOK, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("Initiator Cannot Reply", func(t *testing.T) {
		mockSvc := &MockDisputeService{}
		mockSvc.On("RespondToDispute", mock.Anything, "d1", "alice", "Me again", []string(nil)).
			Return(nil, domain.ErrInitiatorCannotReply)

		w := doJSON(t, newDisputeRouter(mockSvc), http.MethodPost, "/dispute/d1/respond", handler.DisputeReplyRequest{
			ActorID:   "alice",
			Statement: "Me again",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Dispute Closed", func(t *testing.T) {
		mockSvc := &MockDisputeService{}
		mockSvc.On("RespondToDispute", mock.Anything, "d1", "bob", "Too late?", []string(nil)).
			Return(nil, domain.ErrDisputeImmutable)

		w := doJSON(t, newDisputeRouter(mockSvc), http.MethodPost, "/dispute/d1/respond", handler.DisputeReplyRequest{
			ActorID:   "bob",
			Statement: "Too late?",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandleResolveDispute(t *testing.T) {
	handler.InitValidator()

	t.Run("Success", func(t *testing.T) {
		mockSvc := &MockDisputeService{}
		mockSvc.On("ResolveDispute", mock.Anything, "d1", "mod-1", domain.DisputeResolution{
			Outcome:        domain.ResolutionPartialRefund,
			RefundSplitBps: 5000,
			Note:           "Split the difference",
		}).Return(&domain.DisputeTicket{ID: "d1", Status: domain.DisputeStatusResolved}, nil)

		w := doJSON(t, newDisputeRouter(mockSvc), http.MethodPost, "/dispute/d1/resolve", handler.ResolveDisputeRequest{
			ModeratorID:    "mod-1",
			Outcome:        string(domain.ResolutionPartialRefund),
			RefundSplitBps: 5000,
			Note:           "Split the difference",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("Not A Moderator", func(t *testing.T) {
		mockSvc := &MockDisputeService{}
		mockSvc.On("ResolveDispute", mock.Anything, "d1", "alice", mock.Anything).
			Return(nil, domain.ErrNotModerator)

		w := doJSON(t, newDisputeRouter(mockSvc), http.MethodPost, "/dispute/d1/resolve", handler.ResolveDisputeRequest{
			ModeratorID: "alice",
			Outcome:     string(domain.ResolutionFullRefund),
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "moderator")
	})

	t.Run("Split Over 10000 Bps Rejected", func(t *testing.T) {
		w := doJSON(t, newDisputeRouter(&MockDisputeService{}), http.MethodPost, "/dispute/d1/resolve", handler.ResolveDisputeRequest{
			ModeratorID:    "mod-1",
			Outcome:        string(domain.ResolutionPartialRefund),
			RefundSplitBps: 12000,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleGetDispute(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockSvc := &MockDisputeService{}
		mockSvc.On("GetTicket", mock.Anything, "d1").
			Return(&domain.DisputeTicket{ID: "d1", TradeID: "t1"}, nil)

		w := doJSON(t, newDisputeRouter(mockSvc), http.MethodGet, "/dispute/d1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockSvc := &MockDisputeService{}
		mockSvc.On("GetTicket", mock.Anything, "missing").Return(nil, domain.ErrDisputeNotFound)

		w := doJSON(t, newDisputeRouter(mockSvc), http.MethodGet, "/dispute/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
