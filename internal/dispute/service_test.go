package dispute

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcrate/swapcrate/internal/concurrency"
	"github.com/swapcrate/swapcrate/internal/database/memory"
	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/escrow"
	"github.com/swapcrate/swapcrate/internal/event"
	"github.com/swapcrate/swapcrate/internal/reputation"
	"github.com/swapcrate/swapcrate/internal/trade"
	"github.com/swapcrate/swapcrate/internal/valuation"
)

type fixture struct {
	store    *memory.Store
	gateway  *escrow.MemoryGateway
	trades   trade.Service
	disputes Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	gateway := escrow.NewMemoryGateway()
	bus := event.NewMemoryBus()
	locks := concurrency.NewLockManager()
	appraiser := valuation.NewRepositoryProvider(store)
	repSvc := reputation.NewService(store, store, reputation.DefaultConfig())

	trades := trade.NewService(store, store, store, repSvc, gateway, appraiser, bus, locks, trade.Config{
		DeliveryConfirmWindow: 14 * 24 * time.Hour,
		RatingWindow:          7 * 24 * time.Hour,
		EscrowCallTimeout:     time.Second,
	})
	disputes := NewService(store, store, trades, bus, locks, Config{
		ResponseWindow:          5 * 24 * time.Hour,
		AutoCloseOutcome:        domain.ResolutionPartialRefund,
		AutoCloseRefundSplitBps: 5000,
	})
	return &fixture{store: store, gateway: gateway, trades: trades, disputes: disputes}
}

// fundedTrade drives alice (sword 300_00) vs bob (shield 200_00) through
// acceptance and escrow funding
func (f *fixture) fundedTrade(t *testing.T) *domain.Trade {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.store.CreateUser(ctx, &domain.User{
		ID: "alice", Username: "alice", BalanceCents: 500_00,
		ValuationReputationScore: domain.ReputationStartingScore,
	}))
	require.NoError(t, f.store.CreateUser(ctx, &domain.User{
		ID: "bob", Username: "bob", BalanceCents: 500_00,
		ValuationReputationScore: domain.ReputationStartingScore,
	}))
	require.NoError(t, f.store.CreateItem(ctx, &domain.Item{
		ID: "sword", OwnerID: "alice", Name: "sword", EMVCents: 300_00,
		ValuationSource: domain.ValuationSourceAPIVerified,
	}))
	require.NoError(t, f.store.CreateItem(ctx, &domain.Item{
		ID: "shield", OwnerID: "bob", Name: "shield", EMVCents: 200_00,
		ValuationSource: domain.ValuationSourceAPIVerified,
	}))

	proposed, err := f.trades.ProposeTrade(ctx, trade.ProposeParams{
		ProposerID:      "alice",
		ReceiverID:      "bob",
		ProposerItemIDs: []string{"sword"},
		ReceiverItemIDs: []string{"shield"},
	})
	require.NoError(t, err)
	_, err = f.trades.RespondToTrade(ctx, proposed.ID, "bob", trade.ActionAccept, nil)
	require.NoError(t, err)
	funded, err := f.trades.FundEscrow(ctx, proposed.ID)
	require.NoError(t, err)
	return funded
}

func (f *fixture) seedModerator(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.store.CreateUser(context.Background(), &domain.User{
		ID: id, Username: id, Moderator: true,
		ValuationReputationScore: domain.ReputationStartingScore,
	}))
}

func (f *fixture) openBasic(t *testing.T) *domain.DisputeTicket {
	t.Helper()
	tr := f.fundedTrade(t)
	ticket, err := f.disputes.OpenDispute(context.Background(), OpenParams{
		TradeID:     tr.ID,
		InitiatorID: "bob",
		Type:        domain.DisputeTypeSNAD,
		Statement:   "sword arrived chipped and repainted",
	})
	require.NoError(t, err)
	return ticket
}

// escalate pushes an open ticket into the moderator queue
func (f *fixture) escalate(t *testing.T, ticket *domain.DisputeTicket) {
	t.Helper()
	ctx := context.Background()
	_, err := f.disputes.RespondToDispute(ctx, ticket.ID, ticket.RespondentID, "it shipped in mint condition", nil)
	require.NoError(t, err)
	_, err = f.disputes.EscalateDispute(ctx, ticket.ID, ticket.InitiatorID)
	require.NoError(t, err)
}

// ============================================================================
// Opening
// ============================================================================

func TestOpenDispute_FreezesTrade(t *testing.T) {
	f := newFixture(t)
	ticket := f.openBasic(t)

	assert.Equal(t, domain.DisputeStatusOpenAwaitingResponse, ticket.Status)
	assert.Equal(t, "bob", ticket.InitiatorID)
	assert.Equal(t, "alice", ticket.RespondentID)
	require.NotNil(t, ticket.InitiatorEvidence)
	assert.False(t, ticket.DeadlineForNextAction.IsZero())

	tr, err := f.trades.GetTrade(context.Background(), ticket.TradeID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStatusDisputeOpened, tr.Status)
	require.NotNil(t, tr.DisputeTicketID)
	assert.Equal(t, ticket.ID, *tr.DisputeTicketID)

	// The frozen trade refuses normal lifecycle operations
	_, err = f.trades.SubmitTracking(context.Background(), tr.ID, "alice", "TRACK-A")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestOpenDispute_OnePerTrade(t *testing.T) {
	f := newFixture(t)
	ticket := f.openBasic(t)

	_, err := f.disputes.OpenDispute(context.Background(), OpenParams{
		TradeID:     ticket.TradeID,
		InitiatorID: "alice",
		Type:        domain.DisputeTypeINR,
		Statement:   "shield never arrived",
	})

	assert.ErrorIs(t, err, domain.ErrDisputeAlreadyOpen)
}

func TestOpenDispute_NotFromNegotiation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreateUser(ctx, &domain.User{ID: "alice", Username: "alice", BalanceCents: 100_00}))
	require.NoError(t, f.store.CreateUser(ctx, &domain.User{ID: "bob", Username: "bob", BalanceCents: 100_00}))
	require.NoError(t, f.store.CreateItem(ctx, &domain.Item{ID: "sword", OwnerID: "alice", EMVCents: 100_00}))

	proposed, err := f.trades.ProposeTrade(ctx, trade.ProposeParams{
		ProposerID:      "alice",
		ReceiverID:      "bob",
		ProposerItemIDs: []string{"sword"},
	})
	require.NoError(t, err)

	_, err = f.disputes.OpenDispute(ctx, OpenParams{
		TradeID:     proposed.ID,
		InitiatorID: "bob",
		Type:        domain.DisputeTypeINR,
		Statement:   "nothing arrived",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestOpenDispute_NonParticipant(t *testing.T) {
	f := newFixture(t)
	tr := f.fundedTrade(t)

	_, err := f.disputes.OpenDispute(context.Background(), OpenParams{
		TradeID:     tr.ID,
		InitiatorID: "mallory",
		Type:        domain.DisputeTypeINR,
		Statement:   "I object",
	})

	assert.ErrorIs(t, err, domain.ErrNotParticipant)
}

func TestOpenDispute_UnknownType(t *testing.T) {
	f := newFixture(t)
	tr := f.fundedTrade(t)

	_, err := f.disputes.OpenDispute(context.Background(), OpenParams{
		TradeID:     tr.ID,
		InitiatorID: "bob",
		Type:        "BUYERS_REMORSE",
		Statement:   "changed my mind",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ============================================================================
// Response and mediation
// ============================================================================

func TestRespondToDispute_InitiatorCannotReplyFirst(t *testing.T) {
	f := newFixture(t)
	ticket := f.openBasic(t)

	_, err := f.disputes.RespondToDispute(context.Background(), ticket.ID, "bob", "more detail", nil)

	assert.ErrorIs(t, err, domain.ErrInitiatorCannotReply)
}

func TestRespondToDispute_RespondentStartsMediation(t *testing.T) {
	f := newFixture(t)
	ticket := f.openBasic(t)

	updated, err := f.disputes.RespondToDispute(context.Background(), ticket.ID, "alice",
		"the sword shipped in mint condition", []string{"photo-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.DisputeStatusInMediation, updated.Status)
	require.NotNil(t, updated.RespondentEvidence)
	assert.Equal(t, []string{"photo-1"}, updated.RespondentEvidence.Attachments)
	assert.True(t, updated.DeadlineForNextAction.After(time.Now()))
}

func TestRespondToDispute_MediationAppendsLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.openBasic(t)

	_, err := f.disputes.RespondToDispute(ctx, ticket.ID, "alice", "mint condition", nil)
	require.NoError(t, err)

	updated, err := f.disputes.RespondToDispute(ctx, ticket.ID, "bob", "I have photos saying otherwise", nil)
	require.NoError(t, err)

	require.Len(t, updated.MediationLog, 1)
	assert.Equal(t, "bob", updated.MediationLog[0].AuthorID)
}

func TestRespondToDispute_RoundLimitEscalates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.openBasic(t)

	_, err := f.disputes.RespondToDispute(ctx, ticket.ID, "alice", "mint condition", nil)
	require.NoError(t, err)

	var updated *domain.DisputeTicket
	parties := []string{"bob", "alice"}
	for i := 0; i < domain.MediationRoundLimit; i++ {
		updated, err = f.disputes.RespondToDispute(ctx, ticket.ID, parties[i%2], "still disagree", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, domain.DisputeStatusEscalated, updated.Status)
	assert.Len(t, updated.MediationLog, domain.MediationRoundLimit)
}

func TestEscalateDispute_RequiresMediation(t *testing.T) {
	f := newFixture(t)
	ticket := f.openBasic(t)

	_, err := f.disputes.EscalateDispute(context.Background(), ticket.ID, "bob")

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ============================================================================
// Resolution
// ============================================================================

func TestResolveDispute_RequiresModerator(t *testing.T) {
	f := newFixture(t)
	ticket := f.openBasic(t)
	f.escalate(t, ticket)

	_, err := f.disputes.ResolveDispute(context.Background(), ticket.ID, "alice", domain.DisputeResolution{
		Outcome: domain.ResolutionTradeUpheld,
	})

	assert.ErrorIs(t, err, domain.ErrNotModerator)
}

func TestResolveDispute_RequiresEscalation(t *testing.T) {
	f := newFixture(t)
	ticket := f.openBasic(t)
	f.seedModerator(t, "mod")

	_, err := f.disputes.ResolveDispute(context.Background(), ticket.ID, "mod", domain.DisputeResolution{
		Outcome: domain.ResolutionTradeUpheld,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestResolveDispute_FullRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.openBasic(t)
	f.escalate(t, ticket)
	f.seedModerator(t, "mod")

	resolved, err := f.disputes.ResolveDispute(ctx, ticket.ID, "mod", domain.DisputeResolution{
		Outcome: domain.ResolutionFullRefund,
		Note:    "initiator evidence convincing",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DisputeStatusResolved, resolved.Status)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, "mod", resolved.Resolution.DecidedBy)

	tr, err := f.trades.GetTrade(ctx, ticket.TradeID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStatusDisputeResolved, tr.Status)

	// Alice's escrowed differential came back
	alice, err := f.store.GetUserByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(500_00), alice.BalanceCents)

	hold, err := f.gateway.GetHold(ctx, ticket.TradeID)
	require.NoError(t, err)
	assert.Equal(t, escrow.HoldStatusRefunded, hold.Status)
}

func TestResolveDispute_PartialRefundRequiresSplit(t *testing.T) {
	f := newFixture(t)
	ticket := f.openBasic(t)
	f.escalate(t, ticket)
	f.seedModerator(t, "mod")

	_, err := f.disputes.ResolveDispute(context.Background(), ticket.ID, "mod", domain.DisputeResolution{
		Outcome: domain.ResolutionPartialRefund,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestResolvedTicketIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.openBasic(t)
	f.escalate(t, ticket)
	f.seedModerator(t, "mod")

	_, err := f.disputes.ResolveDispute(ctx, ticket.ID, "mod", domain.DisputeResolution{
		Outcome: domain.ResolutionTradeUpheld,
	})
	require.NoError(t, err)

	_, err = f.disputes.RespondToDispute(ctx, ticket.ID, "alice", "wait", nil)
	assert.ErrorIs(t, err, domain.ErrDisputeImmutable)

	_, err = f.disputes.ResolveDispute(ctx, ticket.ID, "mod", domain.DisputeResolution{
		Outcome: domain.ResolutionFullRefund,
	})
	assert.ErrorIs(t, err, domain.ErrDisputeImmutable)
}

// ============================================================================
// Deadline sweep
// ============================================================================

func TestSweepDeadlines_AutoClosesUnansweredFiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.openBasic(t)

	ticket.DeadlineForNextAction = time.Now().Add(-time.Hour)
	require.NoError(t, f.store.UpdateTicket(ctx, ticket))

	swept, err := f.disputes.SweepDeadlines(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	closed, err := f.disputes.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusClosedAutomatically, closed.Status)
	require.NotNil(t, closed.Resolution)
	assert.Equal(t, domain.ResolutionPartialRefund, closed.Resolution.Outcome)
	assert.Equal(t, SystemActorID, closed.Resolution.DecidedBy)

	tr, err := f.trades.GetTrade(ctx, ticket.TradeID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStatusDisputeResolved, tr.Status)

	// Escrow split 50/50 by the default outcome
	alice, err := f.store.GetUserByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(450_00), alice.BalanceCents)
}

func TestSweepDeadlines_StalledMediationEscalates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.openBasic(t)

	updated, err := f.disputes.RespondToDispute(ctx, ticket.ID, "alice", "mint condition", nil)
	require.NoError(t, err)

	updated.DeadlineForNextAction = time.Now().Add(-time.Hour)
	require.NoError(t, f.store.UpdateTicket(ctx, updated))

	swept, err := f.disputes.SweepDeadlines(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	after, err := f.disputes.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusEscalated, after.Status)
}
