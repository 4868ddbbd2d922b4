package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swapcrate/swapcrate/internal/concurrency"
	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/escrow"
	"github.com/swapcrate/swapcrate/internal/event"
	"github.com/swapcrate/swapcrate/internal/logger"
	"github.com/swapcrate/swapcrate/internal/metrics"
	"github.com/swapcrate/swapcrate/internal/reputation"
	"github.com/swapcrate/swapcrate/internal/repository"
	"github.com/swapcrate/swapcrate/internal/valuation"
)

// ResponseAction is what a party does with a pending proposal
type ResponseAction string

const (
	ActionAccept  ResponseAction = "accept"
	ActionReject  ResponseAction = "reject"
	ActionCounter ResponseAction = "counter"
	ActionCancel  ResponseAction = "cancel"
)

// ProposeParams carries a new trade proposal
type ProposeParams struct {
	ProposerID        string
	ReceiverID        string
	ProposerItemIDs   []string
	ReceiverItemIDs   []string
	ProposerCashCents int64
	ReceiverCashCents int64

	parentTradeID *string // set internally for counter-offers
}

// CounterTerms is the replacement offer attached to a counter response.
// The counter is proposed by the original receiver, so "proposer" here is
// the countering party.
type CounterTerms struct {
	ProposerItemIDs   []string
	ReceiverItemIDs   []string
	ProposerCashCents int64
	ReceiverCashCents int64
}

// RatingParams carries a post-trade satisfaction rating
type RatingParams struct {
	TradeID            string
	RaterID            string
	OverallScore       int
	ItemAccuracyScore  int
	ShippingSpeedScore int
	CommunicationScore int
	PublicComment      string
	PrivateFeedback    string
}

// Config tunes trade lifecycle behavior
type Config struct {
	PlatformFeeBps        int
	DeliveryConfirmWindow time.Duration
	RatingWindow          time.Duration
	EscrowCallTimeout     time.Duration
}

// Service drives the trade lifecycle state machine
type Service interface {
	ProposeTrade(ctx context.Context, p ProposeParams) (*domain.Trade, error)
	RespondToTrade(ctx context.Context, tradeID, actorID string, action ResponseAction, counter *CounterTerms) (*domain.Trade, error)
	FundEscrow(ctx context.Context, tradeID string) (*domain.Trade, error)
	SubmitTracking(ctx context.Context, tradeID, actorID, trackingNumber string) (*domain.Trade, error)
	ConfirmSatisfaction(ctx context.Context, tradeID, actorID string) (*domain.Trade, error)
	SubmitRating(ctx context.Context, p RatingParams) (*domain.TradeRating, error)

	GetTrade(ctx context.Context, tradeID string) (*domain.Trade, error)
	GetTradeChain(ctx context.Context, tradeID string) ([]*domain.Trade, error)

	// Dispute sub-machine hooks
	MarkDisputeOpened(ctx context.Context, tradeID, ticketID string) (*domain.Trade, error)
	ApplyResolution(ctx context.Context, tradeID string, res domain.DisputeResolution) (*domain.Trade, error)

	// Deadline sweeps, driven by the scheduler
	SweepDeliveryDeadlines(ctx context.Context, now time.Time) (int, error)
	SweepRatingDeadlines(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	repo       repository.Trade
	users      repository.User
	ratings    repository.Rating
	reputation reputation.Service
	gateway    escrow.Gateway
	appraiser  valuation.Provider
	bus        event.Bus
	locks      *concurrency.LockManager
	cfg        Config
}

// NewService creates a new trade service
func NewService(repo repository.Trade, users repository.User, ratings repository.Rating, reputationSvc reputation.Service, gateway escrow.Gateway, appraiser valuation.Provider, bus event.Bus, locks *concurrency.LockManager, cfg Config) Service {
	return &service{
		repo:       repo,
		users:      users,
		ratings:    ratings,
		reputation: reputationSvc,
		gateway:    gateway,
		appraiser:  appraiser,
		bus:        bus,
		locks:      locks,
		cfg:        cfg,
	}
}

func (s *service) ProposeTrade(ctx context.Context, p ProposeParams) (*domain.Trade, error) {
	log := logger.FromContext(ctx)
	log.Info("ProposeTrade called", "proposer_id", p.ProposerID, "receiver_id", p.ReceiverID,
		"proposer_items", len(p.ProposerItemIDs), "receiver_items", len(p.ReceiverItemIDs))

	if err := validateProposal(p); err != nil {
		return nil, err
	}

	proposer, err := s.users.GetUserByID(ctx, p.ProposerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposer: %w", err)
	}
	if proposer == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, p.ProposerID)
	}
	receiver, err := s.users.GetUserByID(ctx, p.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get receiver: %w", err)
	}
	if receiver == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, p.ReceiverID)
	}

	// Cash pledges must be coverable at proposal time. The binding check
	// happens again at acceptance against locked rows.
	if proposer.BalanceCents < p.ProposerCashCents {
		return nil, fmt.Errorf("%w: proposer balance %d < pledge %d", domain.ErrInsufficientBalance, proposer.BalanceCents, p.ProposerCashCents)
	}
	if receiver.BalanceCents < p.ReceiverCashCents {
		return nil, fmt.Errorf("%w: receiver balance %d < pledge %d", domain.ErrInsufficientBalance, receiver.BalanceCents, p.ReceiverCashCents)
	}

	if err := s.checkOwnership(ctx, p.ProposerID, p.ProposerItemIDs); err != nil {
		return nil, err
	}
	if err := s.checkOwnership(ctx, p.ReceiverID, p.ReceiverItemIDs); err != nil {
		return nil, err
	}

	trade := &domain.Trade{
		ID:                uuid.NewString(),
		ParentTradeID:     p.parentTradeID,
		ProposerID:        p.ProposerID,
		ReceiverID:        p.ReceiverID,
		ProposerItemIDs:   p.ProposerItemIDs,
		ReceiverItemIDs:   p.ReceiverItemIDs,
		ProposerCashCents: p.ProposerCashCents,
		ReceiverCashCents: p.ReceiverCashCents,
		Status:            domain.TradeStatusPendingAcceptance,
	}

	if err := s.repo.CreateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	metrics.TradesProposed.Inc()
	s.publish(ctx, event.NewTradeEvent(event.TradeProposed, trade, "", ""))

	log.Info("Trade proposed", "trade_id", trade.ID)
	return trade, nil
}

// checkOwnership verifies each item exists and is owned by ownerID
func (s *service) checkOwnership(ctx context.Context, ownerID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	items, err := s.users.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	byID := make(map[string]*domain.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	for _, id := range itemIDs {
		item, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
		}
		if item.OwnerID != ownerID {
			return fmt.Errorf("%w: %s", domain.ErrItemNotOwned, id)
		}
	}
	return nil
}

func validateProposal(p ProposeParams) error {
	if p.ProposerID == p.ReceiverID {
		return domain.ErrSelfTrade
	}
	if p.ProposerCashCents < 0 || p.ReceiverCashCents < 0 {
		return fmt.Errorf("%w: negative cash pledge", domain.ErrInvalidInput)
	}
	if p.ProposerCashCents > domain.MaxCashCents || p.ReceiverCashCents > domain.MaxCashCents {
		return fmt.Errorf("%w: cash pledge exceeds maximum", domain.ErrInvalidInput)
	}
	if len(p.ProposerItemIDs) > domain.MaxItemsPerSide || len(p.ReceiverItemIDs) > domain.MaxItemsPerSide {
		return fmt.Errorf("%w: too many items on one side", domain.ErrInvalidInput)
	}
	if len(p.ProposerItemIDs)+len(p.ReceiverItemIDs) == 0 && p.ProposerCashCents+p.ReceiverCashCents == 0 {
		return fmt.Errorf("%w: empty trade", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool)
	for _, id := range p.ProposerItemIDs {
		if seen[id] {
			return fmt.Errorf("%w: duplicate item %s", domain.ErrInvalidInput, id)
		}
		seen[id] = true
	}
	for _, id := range p.ReceiverItemIDs {
		if seen[id] {
			return fmt.Errorf("%w: %s", domain.ErrItemOnBothSides, id)
		}
		seen[id] = true
	}
	return nil
}

func (s *service) RespondToTrade(ctx context.Context, tradeID, actorID string, action ResponseAction, counter *CounterTerms) (*domain.Trade, error) {
	log := logger.FromContext(ctx)
	log.Info("RespondToTrade called", "trade_id", tradeID, "actor_id", actorID, "action", action)

	mu := s.locks.GetLock(tradeID)
	mu.Lock()
	defer mu.Unlock()

	switch action {
	case ActionAccept:
		return s.accept(ctx, tradeID, actorID)
	case ActionReject:
		return s.reject(ctx, tradeID, actorID)
	case ActionCancel:
		return s.cancel(ctx, tradeID, actorID)
	case ActionCounter:
		if counter == nil {
			return nil, fmt.Errorf("%w: counter terms required", domain.ErrInvalidInput)
		}
		return s.counterOffer(ctx, tradeID, actorID, counter)
	}
	return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, action)
}

// accept runs the heavy guarded transition: ownership re-check against locked
// rows, EMV snapshot, differential and fee computation, balance guards, and
// atomic invalidation of competing proposals.
func (s *service) accept(ctx context.Context, tradeID, actorID string) (*domain.Trade, error) {
	log := logger.FromContext(ctx)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := s.getForTransition(ctx, tx, tradeID, domain.TradeStatusAccepted)
	if err != nil {
		return nil, err
	}
	if actorID != trade.ReceiverID {
		return nil, fmt.Errorf("%w: only the receiver may accept", domain.ErrWrongActor)
	}

	// Ownership guard against the locked inventory snapshot. Items may have
	// been consumed by another trade since proposal.
	allItemIDs := append(append([]string{}, trade.ProposerItemIDs...), trade.ReceiverItemIDs...)
	items, err := tx.GetItemsForUpdate(ctx, allItemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock items: %w", err)
	}
	byID := make(map[string]*domain.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	var proposerItems, receiverItems []*domain.Item
	for _, id := range trade.ProposerItemIDs {
		item := byID[id]
		if item == nil || item.OwnerID != trade.ProposerID {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNoLongerAvailable, id)
		}
		proposerItems = append(proposerItems, item)
	}
	for _, id := range trade.ReceiverItemIDs {
		item := byID[id]
		if item == nil || item.OwnerID != trade.ReceiverID {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNoLongerAvailable, id)
		}
		receiverItems = append(receiverItems, item)
	}

	// Freeze valuations now; everything downstream reads the snapshot
	trade.ProposerValueCents, err = s.appraiseSide(ctx, proposerItems, trade.ProposerCashCents)
	if err != nil {
		return nil, err
	}
	trade.ReceiverValueCents, err = s.appraiseSide(ctx, receiverItems, trade.ReceiverCashCents)
	if err != nil {
		return nil, err
	}

	diff := ComputeDifferential(trade)
	trade.EscrowPayerID = diff.PayerID
	trade.EscrowAmountCents = diff.AmountCents

	trade.PlatformFeeCents = ComputePlatformFee(trade.ProposerValueCents, trade.ReceiverValueCents, s.cfg.PlatformFeeBps)
	trade.FeePayerID = trade.ProposerID
	if diff.PayerID != "" {
		trade.FeePayerID = diff.PayerID
	}

	// Balance guard: a trade cannot be accepted if settlement would drive a
	// party's balance negative
	if err := s.checkAcceptanceBalances(ctx, tx, trade); err != nil {
		return nil, err
	}

	fromStatus := trade.Status
	trade.Status = domain.TradeStatusAccepted

	// Balanced trades skip escrow entirely
	if trade.EscrowAmountCents > 0 {
		if err := CanTransition(trade.Status, domain.TradeStatusPaymentPending); err != nil {
			return nil, err
		}
		trade.Status = domain.TradeStatusPaymentPending
	} else if err := s.enterShipping(trade); err != nil {
		return nil, err
	}

	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}

	// Accepting this trade consumes its items: competing proposals still
	// referencing any of them are invalidated atomically, not silently left
	// to fail later
	invalidated, err := s.invalidateCompeting(ctx, tx, trade, allItemIDs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.TradesAccepted.Inc()
	s.publish(ctx, event.NewTradeEvent(event.TradeAccepted, trade, fromStatus, ""))
	if trade.Status == domain.TradeStatusInTransit {
		s.publish(ctx, event.NewTradeEvent(event.TradeInTransit, trade, domain.TradeStatusShippingPending, ""))
	}
	for _, other := range invalidated {
		s.publish(ctx, event.NewTradeEvent(event.TradeInvalidated, other, domain.TradeStatusPendingAcceptance, domain.CancelReasonItemNoLongerAvailable))
	}

	log.Info("Trade accepted", "trade_id", trade.ID, "status", trade.Status,
		"escrow_amount_cents", trade.EscrowAmountCents, "invalidated", len(invalidated))
	return trade, nil
}

// appraiseSide sums appraised EMVs plus pledged cash for one side. The
// appraiser may serve cached values; item rows stay the source of truth for
// ownership only.
func (s *service) appraiseSide(ctx context.Context, items []*domain.Item, cashCents int64) (int64, error) {
	total := cashCents
	for _, item := range items {
		appraisal, err := s.appraiser.GetEMV(ctx, item.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to appraise item %s: %w", item.ID, err)
		}
		total += appraisal.ValueCents
	}
	return total, nil
}

// checkAcceptanceBalances verifies each party can cover pledge plus, for the
// escrow payer, the differential and platform fee
func (s *service) checkAcceptanceBalances(ctx context.Context, tx repository.TradeTx, trade *domain.Trade) error {
	for _, partyID := range []string{trade.ProposerID, trade.ReceiverID} {
		user, err := tx.GetUserForUpdate(ctx, partyID)
		if err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, partyID)
		}
		required := trade.ProposerCashCents
		if partyID == trade.ReceiverID {
			required = trade.ReceiverCashCents
		}
		if partyID == trade.EscrowPayerID {
			required += trade.EscrowAmountCents
		}
		if partyID == trade.FeePayerID {
			required += trade.PlatformFeeCents
		}
		if user.BalanceCents < required {
			return fmt.Errorf("%w: %s needs %d, has %d", domain.ErrInsufficientBalance, partyID, required, user.BalanceCents)
		}
	}
	return nil
}

func (s *service) invalidateCompeting(ctx context.Context, tx repository.TradeTx, trade *domain.Trade, itemIDs []string) ([]*domain.Trade, error) {
	competing, err := tx.ListOpenTradesReferencingItems(ctx, itemIDs, trade.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competing trades: %w", err)
	}

	invalidated := make([]*domain.Trade, 0, len(competing))
	for _, other := range competing {
		// Only unaccepted proposals can still reference these items; an
		// accepted trade would have consumed them first
		if other.Status != domain.TradeStatusPendingAcceptance {
			continue
		}
		other.Status = domain.TradeStatusCancelled
		other.CancelReason = domain.CancelReasonItemNoLongerAvailable
		if err := tx.UpdateTrade(ctx, other); err != nil {
			return nil, fmt.Errorf("failed to invalidate trade %s: %w", other.ID, err)
		}
		invalidated = append(invalidated, other)
	}
	return invalidated, nil
}

func (s *service) reject(ctx context.Context, tradeID, actorID string) (*domain.Trade, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := s.getForTransition(ctx, tx, tradeID, domain.TradeStatusRejected)
	if err != nil {
		return nil, err
	}
	if actorID != trade.ReceiverID {
		return nil, fmt.Errorf("%w: only the receiver may reject", domain.ErrWrongActor)
	}

	fromStatus := trade.Status
	trade.Status = domain.TradeStatusRejected
	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publish(ctx, event.NewTradeEvent(event.TradeRejected, trade, fromStatus, ""))
	return trade, nil
}

func (s *service) cancel(ctx context.Context, tradeID, actorID string) (*domain.Trade, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := s.getForTransition(ctx, tx, tradeID, domain.TradeStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(actorID) {
		return nil, domain.ErrNotParticipant
	}

	reason := domain.CancelReasonBeforeFunding
	switch trade.Status {
	case domain.TradeStatusPendingAcceptance:
		// Before acceptance only the proposer may withdraw
		if actorID != trade.ProposerID {
			return nil, fmt.Errorf("%w: only the proposer may cancel a pending proposal", domain.ErrWrongActor)
		}
		reason = domain.CancelReasonProposerWithdrew
	case domain.TradeStatusPaymentPending:
		// Either party may back out before escrow funding
	default:
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, trade.Status, domain.TradeStatusCancelled)
	}

	fromStatus := trade.Status
	trade.Status = domain.TradeStatusCancelled
	trade.CancelReason = reason
	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publish(ctx, event.NewTradeEvent(event.TradeCancelled, trade, fromStatus, reason))
	return trade, nil
}

// counterOffer freezes the original trade as COUNTERED and spawns a linked
// replacement proposed by the countering party. Freezing the original and
// creating its replacement are one atomic write: a counter whose terms fail
// any proposal guard leaves the original untouched and respondable. History
// is preserved through the ParentTradeID chain, never by editing a settled
// row.
func (s *service) counterOffer(ctx context.Context, tradeID, actorID string, terms *CounterTerms) (*domain.Trade, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	original, err := s.getForTransition(ctx, tx, tradeID, domain.TradeStatusCountered)
	if err != nil {
		return nil, err
	}
	if actorID != original.ReceiverID {
		return nil, fmt.Errorf("%w: only the receiver may counter", domain.ErrWrongActor)
	}

	parentID := original.ID
	p := ProposeParams{
		ProposerID:        original.ReceiverID,
		ReceiverID:        original.ProposerID,
		ProposerItemIDs:   terms.ProposerItemIDs,
		ReceiverItemIDs:   terms.ReceiverItemIDs,
		ProposerCashCents: terms.ProposerCashCents,
		ReceiverCashCents: terms.ReceiverCashCents,
		parentTradeID:     &parentID,
	}
	if err := validateProposal(p); err != nil {
		return nil, err
	}
	if err := s.checkCounterTerms(ctx, tx, p); err != nil {
		return nil, err
	}

	counter := &domain.Trade{
		ID:                uuid.NewString(),
		ParentTradeID:     p.parentTradeID,
		ProposerID:        p.ProposerID,
		ReceiverID:        p.ReceiverID,
		ProposerItemIDs:   p.ProposerItemIDs,
		ReceiverItemIDs:   p.ReceiverItemIDs,
		ProposerCashCents: p.ProposerCashCents,
		ReceiverCashCents: p.ReceiverCashCents,
		Status:            domain.TradeStatusPendingAcceptance,
	}

	fromStatus := original.Status
	original.Status = domain.TradeStatusCountered
	if err := tx.UpdateTrade(ctx, original); err != nil {
		return nil, fmt.Errorf("failed to update original trade: %w", err)
	}
	if err := tx.CreateTrade(ctx, counter); err != nil {
		return nil, fmt.Errorf("failed to create counter trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.TradesProposed.Inc()
	s.publish(ctx, event.NewTradeEvent(event.TradeCountered, original, fromStatus, ""))
	s.publish(ctx, event.NewTradeEvent(event.TradeProposed, counter, "", ""))
	return counter, nil
}

// checkCounterTerms runs the proposal guards for a counter against row-locked
// state, so the original freezes only alongside a viable replacement
func (s *service) checkCounterTerms(ctx context.Context, tx repository.TradeTx, p ProposeParams) error {
	pledges := map[string]int64{p.ProposerID: p.ProposerCashCents, p.ReceiverID: p.ReceiverCashCents}
	for _, partyID := range []string{p.ProposerID, p.ReceiverID} {
		user, err := tx.GetUserForUpdate(ctx, partyID)
		if err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, partyID)
		}
		if user.BalanceCents < pledges[partyID] {
			return fmt.Errorf("%w: %s balance %d < pledge %d", domain.ErrInsufficientBalance, partyID, user.BalanceCents, pledges[partyID])
		}
	}
	if err := checkOwnershipForUpdate(ctx, tx, p.ProposerID, p.ProposerItemIDs); err != nil {
		return err
	}
	return checkOwnershipForUpdate(ctx, tx, p.ReceiverID, p.ReceiverItemIDs)
}

// checkOwnershipForUpdate mirrors checkOwnership against locked item rows
func checkOwnershipForUpdate(ctx context.Context, tx repository.TradeTx, ownerID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	items, err := tx.GetItemsForUpdate(ctx, itemIDs)
	if err != nil {
		return fmt.Errorf("failed to lock items: %w", err)
	}
	byID := make(map[string]domain.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	for _, id := range itemIDs {
		item, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
		}
		if item.OwnerID != ownerID {
			return fmt.Errorf("%w: %s", domain.ErrItemNotOwned, id)
		}
	}
	return nil
}

// FundEscrow holds the cash differential at the ledger gateway. Idempotent
// per trade id: the hold carries a deterministic idempotency key, and a trade
// already funded returns unchanged.
func (s *service) FundEscrow(ctx context.Context, tradeID string) (*domain.Trade, error) {
	log := logger.FromContext(ctx)
	log.Info("FundEscrow called", "trade_id", tradeID)

	mu := s.locks.GetLock(tradeID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := tx.GetTradeForUpdate(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	if trade == nil {
		return nil, domain.ErrTradeNotFound
	}
	if trade.EscrowFunded {
		return trade, nil
	}
	if err := CanTransition(trade.Status, domain.TradeStatusEscrowFunded); err != nil {
		return nil, err
	}
	if trade.EscrowAmountCents <= 0 {
		return nil, domain.ErrEscrowNotRequired
	}

	payer, err := tx.GetUserForUpdate(ctx, trade.EscrowPayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock payer: %w", err)
	}
	if payer == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, trade.EscrowPayerID)
	}
	if payer.BalanceCents < trade.EscrowAmountCents {
		return nil, fmt.Errorf("%w: payer has %d, hold needs %d", domain.ErrInsufficientBalance, payer.BalanceCents, trade.EscrowAmountCents)
	}

	// External call with bounded timeout. A failure leaves the trade in
	// PAYMENT_PENDING; the caller retries.
	holdCtx, cancel := context.WithTimeout(ctx, s.cfg.EscrowCallTimeout)
	defer cancel()
	if _, err := s.gateway.HoldFunds(holdCtx, trade.ID, payer.ID, trade.EscrowAmountCents, holdKey(trade.ID)); err != nil {
		metrics.EscrowCallFailures.Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrEscrowDeclined, err)
	}

	payer.BalanceCents -= trade.EscrowAmountCents
	if err := tx.UpdateUser(ctx, payer); err != nil {
		return nil, fmt.Errorf("failed to debit payer: %w", err)
	}

	fromStatus := trade.Status
	trade.EscrowFunded = true
	trade.Status = domain.TradeStatusEscrowFunded
	// ESCROW_FUNDED has a single outgoing edge; take it in the same operation
	if err := s.enterShipping(trade); err != nil {
		return nil, err
	}

	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.EscrowHolds.Inc()
	s.publish(ctx, event.NewTradeEvent(event.TradeEscrowFunded, trade, fromStatus, ""))
	if trade.Status == domain.TradeStatusInTransit {
		s.publish(ctx, event.NewTradeEvent(event.TradeInTransit, trade, domain.TradeStatusShippingPending, ""))
	}

	log.Info("Escrow funded", "trade_id", trade.ID, "amount_cents", trade.EscrowAmountCents)
	return trade, nil
}

// enterShipping moves a trade into SHIPPING_PENDING. When nobody has anything
// to ship (cash-for-cash trades) the shipping phase is vacuous: the trade
// advances straight to IN_TRANSIT and the delivery confirmation clock starts.
func (s *service) enterShipping(trade *domain.Trade) error {
	if err := CanTransition(trade.Status, domain.TradeStatusShippingPending); err != nil {
		return err
	}
	trade.Status = domain.TradeStatusShippingPending
	if trade.AllTrackingSubmitted() {
		if err := CanTransition(trade.Status, domain.TradeStatusInTransit); err != nil {
			return err
		}
		trade.Status = domain.TradeStatusInTransit
		deadline := time.Now().Add(s.cfg.DeliveryConfirmWindow)
		trade.DeliveryDeadline = &deadline
	}
	return nil
}

func (s *service) SubmitTracking(ctx context.Context, tradeID, actorID, trackingNumber string) (*domain.Trade, error) {
	log := logger.FromContext(ctx)
	log.Info("SubmitTracking called", "trade_id", tradeID, "actor_id", actorID)

	if trackingNumber == "" {
		return nil, fmt.Errorf("%w: tracking number required", domain.ErrInvalidInput)
	}

	mu := s.locks.GetLock(tradeID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := s.getForTransition(ctx, tx, tradeID, domain.TradeStatusInTransit)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(actorID) {
		return nil, domain.ErrNotParticipant
	}
	if !trade.MustShip(actorID) {
		return nil, fmt.Errorf("%w: cash-only side has nothing to ship", domain.ErrWrongActor)
	}

	if actorID == trade.ProposerID {
		trade.ProposerTrackingNumber = trackingNumber
	} else {
		trade.ReceiverTrackingNumber = trackingNumber
	}

	fromStatus := trade.Status
	if trade.AllTrackingSubmitted() {
		trade.Status = domain.TradeStatusInTransit
		deadline := time.Now().Add(s.cfg.DeliveryConfirmWindow)
		trade.DeliveryDeadline = &deadline
	}

	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if trade.Status == domain.TradeStatusInTransit {
		s.publish(ctx, event.NewTradeEvent(event.TradeInTransit, trade, fromStatus, ""))
	}
	return trade, nil
}

func (s *service) ConfirmSatisfaction(ctx context.Context, tradeID, actorID string) (*domain.Trade, error) {
	log := logger.FromContext(ctx)
	log.Info("ConfirmSatisfaction called", "trade_id", tradeID, "actor_id", actorID)

	mu := s.locks.GetLock(tradeID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := s.getForTransition(ctx, tx, tradeID, domain.TradeStatusCompletedAwaitingRating)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(actorID) {
		return nil, domain.ErrNotParticipant
	}

	if actorID == trade.ProposerID {
		trade.ProposerConfirmed = true
	} else {
		trade.ReceiverConfirmed = true
	}

	fromStatus := trade.Status
	if trade.BothConfirmed() {
		if err := s.settle(ctx, tx, trade); err != nil {
			return nil, err
		}
		trade.Status = domain.TradeStatusCompletedAwaitingRating
		deadline := time.Now().Add(s.cfg.RatingWindow)
		trade.RatingDeadline = &deadline
	}

	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if trade.Status == domain.TradeStatusCompletedAwaitingRating {
		s.publish(ctx, event.NewTradeEvent(event.TradeAwaitingRating, trade, fromStatus, ""))
	}
	return trade, nil
}

// settle moves items, pledged cash, the escrowed differential and the
// platform fee. Escrow release uses a deterministic idempotency key, so a
// retried settlement never pays out twice.
func (s *service) settle(ctx context.Context, tx repository.TradeTx, trade *domain.Trade) error {
	log := logger.FromContext(ctx)

	if trade.Settled {
		return nil
	}

	// Items swap sides atomically; ownership is never split
	if len(trade.ProposerItemIDs) > 0 {
		if err := tx.TransferItems(ctx, trade.ProposerItemIDs, trade.ReceiverID); err != nil {
			return fmt.Errorf("failed to transfer proposer items: %w", err)
		}
	}
	if len(trade.ReceiverItemIDs) > 0 {
		if err := tx.TransferItems(ctx, trade.ReceiverItemIDs, trade.ProposerID); err != nil {
			return fmt.Errorf("failed to transfer receiver items: %w", err)
		}
	}

	proposer, err := tx.GetUserForUpdate(ctx, trade.ProposerID)
	if err != nil {
		return fmt.Errorf("failed to lock proposer: %w", err)
	}
	receiver, err := tx.GetUserForUpdate(ctx, trade.ReceiverID)
	if err != nil {
		return fmt.Errorf("failed to lock receiver: %w", err)
	}
	if proposer == nil || receiver == nil {
		return domain.ErrUserNotFound
	}

	// Pledged cash crosses directly between balances
	proposer.BalanceCents -= trade.ProposerCashCents
	receiver.BalanceCents += trade.ProposerCashCents
	receiver.BalanceCents -= trade.ReceiverCashCents
	proposer.BalanceCents += trade.ReceiverCashCents

	// Escrowed differential pays out to the payer's counterparty
	if trade.EscrowFunded {
		payee := trade.Counterparty(trade.EscrowPayerID)
		releaseCtx, cancel := context.WithTimeout(ctx, s.cfg.EscrowCallTimeout)
		defer cancel()
		if _, err := s.gateway.ReleaseFunds(releaseCtx, trade.ID, payee, releaseKey(trade.ID)); err != nil {
			metrics.EscrowCallFailures.Inc()
			return fmt.Errorf("%w: release failed: %v", domain.ErrEscrowDeclined, err)
		}
		if payee == trade.ProposerID {
			proposer.BalanceCents += trade.EscrowAmountCents
		} else {
			receiver.BalanceCents += trade.EscrowAmountCents
		}
		metrics.EscrowReleases.Inc()
	}

	// Platform fee comes out of the fee payer's balance, guarded at acceptance
	if trade.PlatformFeeCents > 0 {
		if trade.FeePayerID == trade.ProposerID {
			proposer.BalanceCents -= trade.PlatformFeeCents
		} else {
			receiver.BalanceCents -= trade.PlatformFeeCents
		}
	}

	if proposer.BalanceCents < 0 || receiver.BalanceCents < 0 {
		return fmt.Errorf("%w: settlement would drive a balance negative", domain.ErrInsufficientBalance)
	}

	if err := tx.UpdateUser(ctx, proposer); err != nil {
		return fmt.Errorf("failed to update proposer balance: %w", err)
	}
	if err := tx.UpdateUser(ctx, receiver); err != nil {
		return fmt.Errorf("failed to update receiver balance: %w", err)
	}

	trade.Settled = true
	log.Info("Trade settled", "trade_id", trade.ID)
	return nil
}

func (s *service) SubmitRating(ctx context.Context, p RatingParams) (*domain.TradeRating, error) {
	log := logger.FromContext(ctx)
	log.Info("SubmitRating called", "trade_id", p.TradeID, "rater_id", p.RaterID)

	for _, score := range []int{p.OverallScore, p.ItemAccuracyScore, p.ShippingSpeedScore, p.CommunicationScore} {
		if !domain.ValidScore(score) {
			return nil, fmt.Errorf("%w: %d", domain.ErrScoreOutOfRange, score)
		}
	}
	if len(p.PublicComment) > domain.MaxCommentLength || len(p.PrivateFeedback) > domain.MaxCommentLength {
		return nil, fmt.Errorf("%w: comment too long", domain.ErrInvalidInput)
	}

	mu := s.locks.GetLock(p.TradeID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := s.getForTransition(ctx, tx, p.TradeID, domain.TradeStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(p.RaterID) {
		return nil, domain.ErrNotParticipant
	}
	// The window closes at the deadline, not at the next sweep
	if trade.RatingDeadline != nil && time.Now().After(*trade.RatingDeadline) {
		return nil, domain.ErrRatingWindowOver
	}

	existing, err := s.ratings.GetRating(ctx, p.TradeID, p.RaterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing rating: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateRating
	}

	rating := &domain.TradeRating{
		ID:                 uuid.NewString(),
		TradeID:            trade.ID,
		RaterID:            p.RaterID,
		RateeID:            trade.Counterparty(p.RaterID),
		OverallScore:       p.OverallScore,
		ItemAccuracyScore:  p.ItemAccuracyScore,
		ShippingSpeedScore: p.ShippingSpeedScore,
		CommunicationScore: p.CommunicationScore,
		PublicComment:      p.PublicComment,
		PrivateFeedback:    p.PrivateFeedback,
	}
	if err := s.ratings.CreateRating(ctx, rating); err != nil {
		return nil, fmt.Errorf("failed to create rating: %w", err)
	}

	if p.RaterID == trade.ProposerID {
		trade.ProposerRated = true
	} else {
		trade.ReceiverRated = true
	}

	// Rating order is commutative; completion triggers once both are in
	var repEvents []*domain.ReputationEvent
	fromStatus := trade.Status
	if trade.BothRated() {
		repEvents, err = s.complete(ctx, tx, trade)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.RatingsSubmitted.Inc()
	s.publish(ctx, event.NewRatingEvent(rating))
	if trade.Status == domain.TradeStatusCompleted {
		s.publishCompletion(ctx, trade, fromStatus, repEvents)
	}

	return rating, nil
}

// complete runs the COMPLETED transition and scores both parties exactly once
func (s *service) complete(ctx context.Context, tx repository.TradeTx, trade *domain.Trade) ([]*domain.ReputationEvent, error) {
	if err := CanTransition(trade.Status, domain.TradeStatusCompleted); err != nil {
		return nil, err
	}
	trade.Status = domain.TradeStatusCompleted

	events, err := s.reputation.ApplyTradeOutcome(ctx, tx, trade)
	if err != nil {
		return nil, fmt.Errorf("failed to score completed trade: %w", err)
	}
	return events, nil
}

func (s *service) publishCompletion(ctx context.Context, trade *domain.Trade, fromStatus domain.TradeStatus, repEvents []*domain.ReputationEvent) {
	metrics.TradesCompleted.Inc()
	s.publish(ctx, event.NewTradeEvent(event.TradeCompleted, trade, fromStatus, ""))
	for _, ev := range repEvents {
		s.publish(ctx, event.NewReputationEvent(ev))
	}
}

func (s *service) GetTrade(ctx context.Context, tradeID string) (*domain.Trade, error) {
	trade, err := s.repo.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	if trade == nil {
		return nil, domain.ErrTradeNotFound
	}
	return trade, nil
}

func (s *service) GetTradeChain(ctx context.Context, tradeID string) ([]*domain.Trade, error) {
	chain, err := s.repo.GetTradeChain(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade chain: %w", err)
	}
	if len(chain) == 0 {
		return nil, domain.ErrTradeNotFound
	}
	return chain, nil
}

// MarkDisputeOpened freezes forward progress while the dispute sub-machine
// owns the trade
func (s *service) MarkDisputeOpened(ctx context.Context, tradeID, ticketID string) (*domain.Trade, error) {
	mu := s.locks.GetLock(tradeID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := s.getForTransition(ctx, tx, tradeID, domain.TradeStatusDisputeOpened)
	if err != nil {
		return nil, err
	}
	if !CanOpenDispute(trade.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, trade.Status, domain.TradeStatusDisputeOpened)
	}
	if trade.DisputeTicketID != nil {
		return nil, domain.ErrDisputeAlreadyOpen
	}

	fromStatus := trade.Status
	trade.Status = domain.TradeStatusDisputeOpened
	trade.DisputeTicketID = &ticketID
	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.TradesDisputed.Inc()
	s.publish(ctx, event.NewTradeEvent(event.DisputeOpened, trade, fromStatus, ""))
	return trade, nil
}

// ApplyResolution settles a resolved dispute. Each outcome variant maps to a
// specific combination of escrow and ownership effects; the switch is
// exhaustive over the resolution type.
func (s *service) ApplyResolution(ctx context.Context, tradeID string, res domain.DisputeResolution) (*domain.Trade, error) {
	log := logger.FromContext(ctx)
	log.Info("ApplyResolution called", "trade_id", tradeID, "outcome", res.Outcome)

	mu := s.locks.GetLock(tradeID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := s.getForTransition(ctx, tx, tradeID, domain.TradeStatusDisputeResolved)
	if err != nil {
		return nil, err
	}

	switch res.Outcome {
	case domain.ResolutionTradeUpheld:
		// Escrow releases and items transfer as originally planned
		if !trade.Settled {
			if err := s.settle(ctx, tx, trade); err != nil {
				return nil, err
			}
		}
	case domain.ResolutionFullRefund:
		if trade.Settled {
			if err := s.reverseSettlement(ctx, tx, trade); err != nil {
				return nil, err
			}
		} else if err := s.refundEscrow(ctx, tx, trade); err != nil {
			return nil, err
		}
	case domain.ResolutionPartialRefund:
		// Items stay as traded; only the escrowed differential splits
		if !trade.Settled {
			if err := s.settleItemsAndCash(ctx, tx, trade); err != nil {
				return nil, err
			}
		}
		if err := s.splitEscrow(ctx, tx, trade, res.RefundSplitBps); err != nil {
			return nil, err
		}
	case domain.ResolutionTradeReversal:
		if trade.Settled {
			if err := s.reverseSettlement(ctx, tx, trade); err != nil {
				return nil, err
			}
		} else if err := s.refundEscrow(ctx, tx, trade); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown resolution outcome %q", domain.ErrInvalidInput, res.Outcome)
	}

	fromStatus := trade.Status
	trade.Status = domain.TradeStatusDisputeResolved
	if err := tx.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publish(ctx, event.NewTradeEvent(event.DisputeResolved, trade, fromStatus, string(res.Outcome)))
	return trade, nil
}

// settleItemsAndCash performs the ownership and pledge moves of a settlement
// without touching the escrow hold
func (s *service) settleItemsAndCash(ctx context.Context, tx repository.TradeTx, trade *domain.Trade) error {
	escrowFunded := trade.EscrowFunded
	trade.EscrowFunded = false
	err := s.settle(ctx, tx, trade)
	trade.EscrowFunded = escrowFunded
	return err
}

// refundEscrow returns a still-held differential to its payer
func (s *service) refundEscrow(ctx context.Context, tx repository.TradeTx, trade *domain.Trade) error {
	if !trade.EscrowFunded {
		return nil
	}
	refundCtx, cancel := context.WithTimeout(ctx, s.cfg.EscrowCallTimeout)
	defer cancel()
	if _, err := s.gateway.RefundFunds(refundCtx, trade.ID, refundKey(trade.ID)); err != nil {
		metrics.EscrowCallFailures.Inc()
		return fmt.Errorf("%w: refund failed: %v", domain.ErrEscrowDeclined, err)
	}

	payer, err := tx.GetUserForUpdate(ctx, trade.EscrowPayerID)
	if err != nil {
		return fmt.Errorf("failed to lock payer: %w", err)
	}
	if payer == nil {
		return domain.ErrUserNotFound
	}
	payer.BalanceCents += trade.EscrowAmountCents
	if err := tx.UpdateUser(ctx, payer); err != nil {
		return fmt.Errorf("failed to credit payer: %w", err)
	}

	metrics.EscrowRefunds.Inc()
	return nil
}

// splitEscrow divides a held differential: splitBps back to the payer, the
// remainder released to the payee
func (s *service) splitEscrow(ctx context.Context, tx repository.TradeTx, trade *domain.Trade, splitBps int) error {
	if !trade.EscrowFunded {
		return nil
	}
	splitCtx, cancel := context.WithTimeout(ctx, s.cfg.EscrowCallTimeout)
	defer cancel()
	payee := trade.Counterparty(trade.EscrowPayerID)
	if _, err := s.gateway.SplitFunds(splitCtx, trade.ID, payee, splitBps, splitKey(trade.ID)); err != nil {
		metrics.EscrowCallFailures.Inc()
		return fmt.Errorf("%w: split failed: %v", domain.ErrEscrowDeclined, err)
	}

	refundPart := trade.EscrowAmountCents * int64(splitBps) / 10000
	releasePart := trade.EscrowAmountCents - refundPart

	payer, err := tx.GetUserForUpdate(ctx, trade.EscrowPayerID)
	if err != nil {
		return fmt.Errorf("failed to lock payer: %w", err)
	}
	payeeUser, err := tx.GetUserForUpdate(ctx, payee)
	if err != nil {
		return fmt.Errorf("failed to lock payee: %w", err)
	}
	if payer == nil || payeeUser == nil {
		return domain.ErrUserNotFound
	}
	payer.BalanceCents += refundPart
	payeeUser.BalanceCents += releasePart
	if err := tx.UpdateUser(ctx, payer); err != nil {
		return fmt.Errorf("failed to credit payer: %w", err)
	}
	if err := tx.UpdateUser(ctx, payeeUser); err != nil {
		return fmt.Errorf("failed to credit payee: %w", err)
	}

	metrics.EscrowRefunds.Inc()
	return nil
}

// reverseSettlement undoes an already-settled trade: ownership reverts to the
// pre-trade owners and cash moves back. A released escrow payout claws back
// through internal balances since the external hold is gone.
func (s *service) reverseSettlement(ctx context.Context, tx repository.TradeTx, trade *domain.Trade) error {
	if len(trade.ProposerItemIDs) > 0 {
		if err := tx.TransferItems(ctx, trade.ProposerItemIDs, trade.ProposerID); err != nil {
			return fmt.Errorf("failed to revert proposer items: %w", err)
		}
	}
	if len(trade.ReceiverItemIDs) > 0 {
		if err := tx.TransferItems(ctx, trade.ReceiverItemIDs, trade.ReceiverID); err != nil {
			return fmt.Errorf("failed to revert receiver items: %w", err)
		}
	}

	proposer, err := tx.GetUserForUpdate(ctx, trade.ProposerID)
	if err != nil {
		return fmt.Errorf("failed to lock proposer: %w", err)
	}
	receiver, err := tx.GetUserForUpdate(ctx, trade.ReceiverID)
	if err != nil {
		return fmt.Errorf("failed to lock receiver: %w", err)
	}
	if proposer == nil || receiver == nil {
		return domain.ErrUserNotFound
	}

	proposer.BalanceCents += trade.ProposerCashCents
	receiver.BalanceCents -= trade.ProposerCashCents
	receiver.BalanceCents += trade.ReceiverCashCents
	proposer.BalanceCents -= trade.ReceiverCashCents

	if trade.EscrowFunded {
		payee := trade.Counterparty(trade.EscrowPayerID)
		if payee == trade.ProposerID {
			proposer.BalanceCents -= trade.EscrowAmountCents
		} else {
			receiver.BalanceCents -= trade.EscrowAmountCents
		}
		if trade.EscrowPayerID == trade.ProposerID {
			proposer.BalanceCents += trade.EscrowAmountCents
		} else {
			receiver.BalanceCents += trade.EscrowAmountCents
		}
	}

	if err := tx.UpdateUser(ctx, proposer); err != nil {
		return fmt.Errorf("failed to update proposer: %w", err)
	}
	if err := tx.UpdateUser(ctx, receiver); err != nil {
		return fmt.Errorf("failed to update receiver: %w", err)
	}

	trade.Settled = false
	return nil
}

// getForTransition loads a trade under row lock and pre-checks the intended
// edge, so terminal-state and invalid-transition failures surface before any
// work happens
func (s *service) getForTransition(ctx context.Context, tx repository.TradeTx, tradeID string, to domain.TradeStatus) (*domain.Trade, error) {
	trade, err := tx.GetTradeForUpdate(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	if trade == nil {
		return nil, domain.ErrTradeNotFound
	}
	if err := CanTransition(trade.Status, to); err != nil {
		return nil, err
	}
	return trade, nil
}

func (s *service) publish(ctx context.Context, evt event.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn("Failed to publish trade event", "event_type", evt.Type, "error", err)
	}
}

// Deterministic idempotency keys per trade and operation

func holdKey(tradeID string) string    { return "escrow-hold-" + tradeID }
func releaseKey(tradeID string) string { return "escrow-release-" + tradeID }
func refundKey(tradeID string) string  { return "escrow-refund-" + tradeID }
func splitKey(tradeID string) string   { return "escrow-split-" + tradeID }
