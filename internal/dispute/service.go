package dispute

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swapcrate/swapcrate/internal/concurrency"
	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/event"
	"github.com/swapcrate/swapcrate/internal/logger"
	"github.com/swapcrate/swapcrate/internal/metrics"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// SystemActorID is recorded as the decider on automatic closures
const SystemActorID = "system"

// TradeGateway is the narrow slice of the trade service the dispute
// sub-machine drives. The trade side owns escrow and ownership effects; this
// package owns the ticket.
type TradeGateway interface {
	GetTrade(ctx context.Context, tradeID string) (*domain.Trade, error)
	MarkDisputeOpened(ctx context.Context, tradeID, ticketID string) (*domain.Trade, error)
	ApplyResolution(ctx context.Context, tradeID string, res domain.DisputeResolution) (*domain.Trade, error)
}

// OpenParams carries a new dispute filing
type OpenParams struct {
	TradeID     string
	InitiatorID string
	Type        domain.DisputeType
	Statement   string
	Attachments []string
}

// Config tunes dispute behavior
type Config struct {
	// ResponseWindow bounds how long the next actor has before the sweep
	// intervenes
	ResponseWindow time.Duration
	// AutoCloseOutcome applies when the respondent never engages
	AutoCloseOutcome        domain.ResolutionOutcome
	AutoCloseRefundSplitBps int
}

// Service drives dispute tickets through their sub-machine
type Service interface {
	OpenDispute(ctx context.Context, p OpenParams) (*domain.DisputeTicket, error)
	RespondToDispute(ctx context.Context, ticketID, actorID, statement string, attachments []string) (*domain.DisputeTicket, error)
	EscalateDispute(ctx context.Context, ticketID, actorID string) (*domain.DisputeTicket, error)
	ResolveDispute(ctx context.Context, ticketID, moderatorID string, res domain.DisputeResolution) (*domain.DisputeTicket, error)
	GetTicket(ctx context.Context, ticketID string) (*domain.DisputeTicket, error)

	// SweepDeadlines advances stalled tickets: unanswered filings close
	// automatically, stalled mediations escalate
	SweepDeadlines(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	repo   repository.Dispute
	users  repository.User
	trades TradeGateway
	bus    event.Bus
	locks  *concurrency.LockManager
	cfg    Config
}

// NewService creates a new dispute service
func NewService(repo repository.Dispute, users repository.User, trades TradeGateway, bus event.Bus, locks *concurrency.LockManager, cfg Config) Service {
	return &service{
		repo:   repo,
		users:  users,
		trades: trades,
		bus:    bus,
		locks:  locks,
		cfg:    cfg,
	}
}

func (s *service) OpenDispute(ctx context.Context, p OpenParams) (*domain.DisputeTicket, error) {
	log := logger.FromContext(ctx)
	log.Info("OpenDispute called", "trade_id", p.TradeID, "initiator_id", p.InitiatorID, "type", p.Type)

	if !domain.ValidDisputeType(p.Type) {
		return nil, fmt.Errorf("%w: unknown dispute type %q", domain.ErrInvalidInput, p.Type)
	}
	if err := validateEvidence(p.Statement, p.Attachments); err != nil {
		return nil, err
	}

	trade, err := s.trades.GetTrade(ctx, p.TradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(p.InitiatorID) {
		return nil, domain.ErrNotParticipant
	}

	existing, err := s.repo.GetOpenTicketByTradeID(ctx, p.TradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for open ticket: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ticket %s", domain.ErrDisputeAlreadyOpen, existing.ID)
	}

	now := time.Now()
	ticket := &domain.DisputeTicket{
		ID:           uuid.NewString(),
		TradeID:      p.TradeID,
		InitiatorID:  p.InitiatorID,
		RespondentID: trade.Counterparty(p.InitiatorID),
		Status:       domain.DisputeStatusOpenAwaitingResponse,
		Type:         p.Type,
		InitiatorEvidence: &domain.Evidence{
			Statement:   p.Statement,
			Attachments: p.Attachments,
			SubmittedAt: now,
		},
		DeadlineForNextAction: now.Add(s.cfg.ResponseWindow),
	}

	// Freezing the trade first keeps the invariant that a DISPUTE_OPENED
	// trade always references its ticket; a ticket without a frozen trade
	// would let the lifecycle race the dispute
	if _, err := s.trades.MarkDisputeOpened(ctx, p.TradeID, ticket.ID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	metrics.DisputesOpened.Inc()
	s.publish(ctx, event.NewDisputeEvent(event.DisputeOpened, ticket, ""))

	log.Info("Dispute opened", "ticket_id", ticket.ID, "trade_id", p.TradeID)
	return ticket, nil
}

// RespondToDispute is two operations sharing a door: the respondent's first
// reply attaches counter-evidence and starts mediation, and once mediation is
// running either party appends to the log.
func (s *service) RespondToDispute(ctx context.Context, ticketID, actorID, statement string, attachments []string) (*domain.DisputeTicket, error) {
	log := logger.FromContext(ctx)
	log.Info("RespondToDispute called", "ticket_id", ticketID, "actor_id", actorID)

	if err := validateEvidence(statement, attachments); err != nil {
		return nil, err
	}

	mu := s.locks.GetLock(ticketID)
	mu.Lock()
	defer mu.Unlock()

	ticket, err := s.getOpenTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if actorID != ticket.InitiatorID && actorID != ticket.RespondentID {
		return nil, domain.ErrNotParticipant
	}

	now := time.Now()
	escalated := false
	switch ticket.Status {
	case domain.DisputeStatusOpenAwaitingResponse:
		if actorID == ticket.InitiatorID {
			return nil, domain.ErrInitiatorCannotReply
		}
		ticket.RespondentEvidence = &domain.Evidence{
			Statement:   statement,
			Attachments: attachments,
			SubmittedAt: now,
		}
		ticket.Status = domain.DisputeStatusInMediation
	case domain.DisputeStatusInMediation:
		ticket.MediationLog = append(ticket.MediationLog, domain.MediationMessage{
			AuthorID: actorID,
			Body:     statement,
			SentAt:   now,
		})
		// Mediation that drags past the round limit goes to a moderator
		if len(ticket.MediationLog) >= domain.MediationRoundLimit {
			ticket.Status = domain.DisputeStatusEscalated
			escalated = true
		}
	default:
		return nil, fmt.Errorf("%w: ticket is %s", domain.ErrInvalidTransition, ticket.Status)
	}

	ticket.DeadlineForNextAction = now.Add(s.cfg.ResponseWindow)
	if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	s.publish(ctx, event.NewDisputeEvent(event.DisputeResponded, ticket, ""))
	if escalated {
		s.publish(ctx, event.NewDisputeEvent(event.DisputeEscalated, ticket, ""))
	}
	return ticket, nil
}

// EscalateDispute hands a running mediation to a moderator at either party's
// request
func (s *service) EscalateDispute(ctx context.Context, ticketID, actorID string) (*domain.DisputeTicket, error) {
	log := logger.FromContext(ctx)
	log.Info("EscalateDispute called", "ticket_id", ticketID, "actor_id", actorID)

	mu := s.locks.GetLock(ticketID)
	mu.Lock()
	defer mu.Unlock()

	ticket, err := s.getOpenTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if actorID != ticket.InitiatorID && actorID != ticket.RespondentID {
		return nil, domain.ErrNotParticipant
	}
	if ticket.Status != domain.DisputeStatusInMediation {
		return nil, fmt.Errorf("%w: ticket is %s", domain.ErrInvalidTransition, ticket.Status)
	}

	ticket.Status = domain.DisputeStatusEscalated
	ticket.DeadlineForNextAction = time.Now().Add(s.cfg.ResponseWindow)
	if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	s.publish(ctx, event.NewDisputeEvent(event.DisputeEscalated, ticket, ""))
	return ticket, nil
}

func (s *service) ResolveDispute(ctx context.Context, ticketID, moderatorID string, res domain.DisputeResolution) (*domain.DisputeTicket, error) {
	log := logger.FromContext(ctx)
	log.Info("ResolveDispute called", "ticket_id", ticketID, "moderator_id", moderatorID, "outcome", res.Outcome)

	if err := validateResolution(res); err != nil {
		return nil, err
	}

	moderator, err := s.users.GetUserByID(ctx, moderatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get moderator: %w", err)
	}
	if moderator == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, moderatorID)
	}
	if !moderator.Moderator {
		return nil, domain.ErrNotModerator
	}

	mu := s.locks.GetLock(ticketID)
	mu.Lock()
	defer mu.Unlock()

	ticket, err := s.getOpenTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.DisputeStatusEscalated {
		return nil, fmt.Errorf("%w: ticket is %s, not escalated", domain.ErrInvalidTransition, ticket.Status)
	}
	// A party to the trade cannot moderate its own dispute
	if moderatorID == ticket.InitiatorID || moderatorID == ticket.RespondentID {
		return nil, fmt.Errorf("%w: participant cannot moderate own dispute", domain.ErrNotModerator)
	}

	res.DecidedBy = moderatorID
	res.DecidedAt = time.Now()

	// Trade-side effects first; the ticket closes only once escrow and
	// ownership moved
	if _, err := s.trades.ApplyResolution(ctx, ticket.TradeID, res); err != nil {
		return nil, err
	}

	ticket.Status = domain.DisputeStatusResolved
	ticket.Resolution = &res
	if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	metrics.DisputesResolved.Inc()
	s.publish(ctx, event.NewDisputeEvent(event.DisputeResolved, ticket, string(res.Outcome)))

	log.Info("Dispute resolved", "ticket_id", ticket.ID, "outcome", res.Outcome)
	return ticket, nil
}

func (s *service) GetTicket(ctx context.Context, ticketID string) (*domain.DisputeTicket, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, domain.ErrDisputeNotFound
	}
	return ticket, nil
}

// SweepDeadlines walks open tickets past their action deadline. An unanswered
// filing closes automatically with the configured default outcome; a stalled
// mediation escalates to a moderator rather than closing, since both parties
// have engaged.
func (s *service) SweepDeadlines(ctx context.Context, now time.Time) (int, error) {
	log := logger.FromContext(ctx)

	overdue, err := s.repo.ListTicketsPastDeadline(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue tickets: %w", err)
	}

	swept := 0
	for _, stale := range overdue {
		if err := s.sweepTicket(ctx, stale.ID, now); err != nil {
			log.Error("Failed to sweep overdue ticket", "ticket_id", stale.ID, "error", err)
			continue
		}
		swept++
	}

	if swept > 0 {
		log.Info("Dispute deadline sweep finished", "swept", swept, "candidates", len(overdue))
	}
	return swept, nil
}

func (s *service) sweepTicket(ctx context.Context, ticketID string, now time.Time) error {
	mu := s.locks.GetLock(ticketID)
	mu.Lock()
	defer mu.Unlock()

	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("failed to get ticket: %w", err)
	}
	// Action may have landed between listing and locking
	if ticket == nil || ticket.Status.IsClosed() || now.Before(ticket.DeadlineForNextAction) {
		return nil
	}

	switch ticket.Status {
	case domain.DisputeStatusOpenAwaitingResponse:
		return s.autoClose(ctx, ticket, now)
	case domain.DisputeStatusInMediation:
		ticket.Status = domain.DisputeStatusEscalated
		ticket.DeadlineForNextAction = now.Add(s.cfg.ResponseWindow)
		if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}
		s.publish(ctx, event.NewDisputeEvent(event.DisputeEscalated, ticket, ""))
	case domain.DisputeStatusEscalated:
		// Moderator queues have no automatic outcome; the deadline only
		// feeds alerting
	}
	return nil
}

func (s *service) autoClose(ctx context.Context, ticket *domain.DisputeTicket, now time.Time) error {
	res := domain.DisputeResolution{
		Outcome:        s.cfg.AutoCloseOutcome,
		RefundSplitBps: s.cfg.AutoCloseRefundSplitBps,
		Note:           "respondent did not reply within the response window",
		DecidedBy:      SystemActorID,
		DecidedAt:      now,
	}

	if _, err := s.trades.ApplyResolution(ctx, ticket.TradeID, res); err != nil {
		return err
	}

	ticket.Status = domain.DisputeStatusClosedAutomatically
	ticket.Resolution = &res
	if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	metrics.DisputesAutoClosed.Inc()
	s.publish(ctx, event.NewDisputeEvent(event.DisputeResolved, ticket, string(res.Outcome)))

	logger.FromContext(ctx).Info("Dispute auto-closed", "ticket_id", ticket.ID, "outcome", res.Outcome)
	return nil
}

func (s *service) getOpenTicket(ctx context.Context, ticketID string) (*domain.DisputeTicket, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, domain.ErrDisputeNotFound
	}
	if ticket.Status.IsClosed() {
		return nil, fmt.Errorf("%w: ticket is %s", domain.ErrDisputeImmutable, ticket.Status)
	}
	return ticket, nil
}

func validateEvidence(statement string, attachments []string) error {
	if statement == "" {
		return fmt.Errorf("%w: statement required", domain.ErrInvalidInput)
	}
	if len(statement) > domain.MaxStatementLength {
		return fmt.Errorf("%w: statement too long", domain.ErrInvalidInput)
	}
	if len(attachments) > domain.MaxAttachmentsCount {
		return fmt.Errorf("%w: too many attachments", domain.ErrInvalidInput)
	}
	return nil
}

func validateResolution(res domain.DisputeResolution) error {
	if !domain.ValidResolutionOutcome(res.Outcome) {
		return fmt.Errorf("%w: unknown outcome %q", domain.ErrInvalidInput, res.Outcome)
	}
	if res.Outcome == domain.ResolutionPartialRefund {
		if res.RefundSplitBps <= 0 || res.RefundSplitBps >= 10000 {
			return fmt.Errorf("%w: partial refund split must be between 1 and 9999 bps", domain.ErrInvalidInput)
		}
	}
	return nil
}

func (s *service) publish(ctx context.Context, evt event.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn("Failed to publish dispute event", "event_type", evt.Type, "error", err)
	}
}
