package handler_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/swapcrate/swapcrate/internal/dispute"
	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/reputation"
	"github.com/swapcrate/swapcrate/internal/repository"
	"github.com/swapcrate/swapcrate/internal/trade"
)

// MockTradeService implements trade.Service for testing
type MockTradeService struct {
	mock.Mock
}

func (m *MockTradeService) ProposeTrade(ctx context.Context, p trade.ProposeParams) (*domain.Trade, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trade), args.Error(1)
}

func (m *MockTradeService) RespondToTrade(ctx context.Context, tradeID, actorID string, action trade.ResponseAction, counter *trade.CounterTerms) (*domain.Trade, error) {
	args := m.Called(ctx, tradeID, actorID, action, counter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trade), args.Error(1)
}

func (m *MockTradeService) FundEscrow(ctx context.Context, tradeID string) (*domain.Trade, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trade), args.Error(1)
}

func (m *MockTradeService) SubmitTracking(ctx context.Context, tradeID, actorID, trackingNumber string) (*domain.Trade, error) {
	args := m.Called(ctx, tradeID, actorID, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trade), args.Error(1)
}

func (m *MockTradeService) ConfirmSatisfaction(ctx context.Context, tradeID, actorID string) (*domain.Trade, error) {
	args := m.Called(ctx, tradeID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trade), args.Error(1)
}

func (m *MockTradeService) SubmitRating(ctx context.Context, p trade.RatingParams) (*domain.TradeRating, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TradeRating), args.Error(1)
}

func (m *MockTradeService) GetTrade(ctx context.Context, tradeID string) (*domain.Trade, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trade), args.Error(1)
}

func (m *MockTradeService) GetTradeChain(ctx context.Context, tradeID string) ([]*domain.Trade, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Trade), args.Error(1)
}

func (m *MockTradeService) MarkDisputeOpened(ctx context.Context, tradeID, ticketID string) (*domain.Trade, error) {
	args := m.Called(ctx, tradeID, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trade), args.Error(1)
}

func (m *MockTradeService) ApplyResolution(ctx context.Context, tradeID string, res domain.DisputeResolution) (*domain.Trade, error) {
	args := m.Called(ctx, tradeID, res)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trade), args.Error(1)
}

func (m *MockTradeService) SweepDeliveryDeadlines(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *MockTradeService) SweepRatingDeadlines(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

// MockDisputeService implements dispute.Service for testing
type MockDisputeService struct {
	mock.Mock
}

func (m *MockDisputeService) OpenDispute(ctx context.Context, p dispute.OpenParams) (*domain.DisputeTicket, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DisputeTicket), args.Error(1)
}

func (m *MockDisputeService) RespondToDispute(ctx context.Context, ticketID, actorID, statement string, attachments []string) (*domain.DisputeTicket, error) {
	args := m.Called(ctx, ticketID, actorID, statement, attachments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DisputeTicket), args.Error(1)
}

func (m *MockDisputeService) EscalateDispute(ctx context.Context, ticketID, actorID string) (*domain.DisputeTicket, error) {
	args := m.Called(ctx, ticketID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DisputeTicket), args.Error(1)
}

func (m *MockDisputeService) ResolveDispute(ctx context.Context, ticketID, moderatorID string, res domain.DisputeResolution) (*domain.DisputeTicket, error) {
	args := m.Called(ctx, ticketID, moderatorID, res)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DisputeTicket), args.Error(1)
}

func (m *MockDisputeService) GetTicket(ctx context.Context, ticketID string) (*domain.DisputeTicket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DisputeTicket), args.Error(1)
}

func (m *MockDisputeService) SweepDeadlines(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

// MockReputationService implements reputation.Service for testing
type MockReputationService struct {
	mock.Mock
}

func (m *MockReputationService) ApplyTradeOutcome(ctx context.Context, tx repository.TradeTx, t *domain.Trade) ([]*domain.ReputationEvent, error) {
	args := m.Called(ctx, tx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReputationEvent), args.Error(1)
}

func (m *MockReputationService) GetSummary(ctx context.Context, userID string) (*reputation.Summary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reputation.Summary), args.Error(1)
}
