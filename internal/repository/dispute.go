package repository

import (
	"context"
	"time"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// Dispute defines the interface for dispute ticket persistence
type Dispute interface {
	CreateTicket(ctx context.Context, ticket *domain.DisputeTicket) error
	GetTicket(ctx context.Context, ticketID string) (*domain.DisputeTicket, error)
	UpdateTicket(ctx context.Context, ticket *domain.DisputeTicket) error

	// GetOpenTicketByTradeID returns the open ticket for a trade, or nil
	GetOpenTicketByTradeID(ctx context.Context, tradeID string) (*domain.DisputeTicket, error)

	// ListTicketsPastDeadline returns open tickets whose deadline for next
	// action has elapsed, for the auto-close sweep
	ListTicketsPastDeadline(ctx context.Context, now time.Time) ([]*domain.DisputeTicket, error)
}
