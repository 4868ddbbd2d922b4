package escrow

import (
	"context"
	"fmt"
	"sync"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// MemoryGateway is an in-process ledger used for local runs and tests. It
// honors idempotency keys exactly: replaying an operation with a key already
// seen returns the recorded outcome without moving funds again.
type MemoryGateway struct {
	mu        sync.Mutex
	holds     map[string]*Hold  // by trade id
	appliedOp map[string]string // idempotency key -> operation applied
}

// NewMemoryGateway creates a new MemoryGateway
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		holds:     make(map[string]*Hold),
		appliedOp: make(map[string]string),
	}
}

// HoldFunds places a hold for a trade differential
func (g *MemoryGateway) HoldFunds(ctx context.Context, tradeID, payerID string, amountCents int64, idempotencyKey string) (*Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if op, seen := g.appliedOp[idempotencyKey]; seen {
		if op != "hold" {
			return nil, fmt.Errorf("idempotency key %s already used for %s", idempotencyKey, op)
		}
		return g.copyHold(tradeID)
	}

	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: non-positive hold amount %d", domain.ErrInvalidInput, amountCents)
	}
	if existing, ok := g.holds[tradeID]; ok && existing.Status == HoldStatusHeld {
		// A live hold for the same trade under a different key is a caller bug
		return nil, fmt.Errorf("trade %s already has an active hold", tradeID)
	}

	hold := &Hold{
		TradeID:        tradeID,
		PayerID:        payerID,
		AmountCents:    amountCents,
		IdempotencyKey: idempotencyKey,
		Status:         HoldStatusHeld,
	}
	g.holds[tradeID] = hold
	g.appliedOp[idempotencyKey] = "hold"

	out := *hold
	return &out, nil
}

// ReleaseFunds pays out a held amount to the payee
func (g *MemoryGateway) ReleaseFunds(ctx context.Context, tradeID, payeeID string, idempotencyKey string) (*Hold, error) {
	return g.settle(tradeID, idempotencyKey, "release", HoldStatusReleased)
}

// RefundFunds returns a held amount to the payer
func (g *MemoryGateway) RefundFunds(ctx context.Context, tradeID string, idempotencyKey string) (*Hold, error) {
	return g.settle(tradeID, idempotencyKey, "refund", HoldStatusRefunded)
}

// SplitFunds settles a hold partially in each direction. The memory ledger
// records the terminal status only; the split ratio is the caller's concern.
func (g *MemoryGateway) SplitFunds(ctx context.Context, tradeID, payeeID string, splitBps int, idempotencyKey string) (*Hold, error) {
	if splitBps < 0 || splitBps > 10000 {
		return nil, fmt.Errorf("%w: split %d bps out of range", domain.ErrInvalidInput, splitBps)
	}
	return g.settle(tradeID, idempotencyKey, "split", HoldStatusRefunded)
}

// GetHold returns the current hold for a trade
func (g *MemoryGateway) GetHold(ctx context.Context, tradeID string) (*Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.copyHold(tradeID)
}

func (g *MemoryGateway) settle(tradeID, idempotencyKey, op string, terminal HoldStatus) (*Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if applied, seen := g.appliedOp[idempotencyKey]; seen {
		if applied != op {
			return nil, fmt.Errorf("idempotency key %s already used for %s", idempotencyKey, applied)
		}
		return g.copyHold(tradeID)
	}

	hold, ok := g.holds[tradeID]
	if !ok {
		return nil, domain.ErrEscrowHoldNotFound
	}
	if hold.Status != HoldStatusHeld {
		return nil, fmt.Errorf("hold for trade %s already settled as %s", tradeID, hold.Status)
	}

	hold.Status = terminal
	g.appliedOp[idempotencyKey] = op

	out := *hold
	return &out, nil
}

func (g *MemoryGateway) copyHold(tradeID string) (*Hold, error) {
	hold, ok := g.holds[tradeID]
	if !ok {
		return nil, domain.ErrEscrowHoldNotFound
	}
	out := *hold
	return &out, nil
}
