package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// tx stages writes against the store and applies them atomically on commit.
// Reads inside the transaction see staged state first, matching read-your-own-
// writes inside a database transaction.
type tx struct {
	store  *Store
	closed bool

	trades    map[string]*domain.Trade
	users     map[string]*domain.User
	items     map[string]*domain.Item
	repEvents []*domain.ReputationEvent
}

// BeginTx starts a unit of work against the store
func (s *Store) BeginTx(_ context.Context) (repository.TradeTx, error) {
	return &tx{
		store:  s,
		trades: make(map[string]*domain.Trade),
		users:  make(map[string]*domain.User),
		items:  make(map[string]*domain.Item),
	}, nil
}

func (t *tx) Commit(_ context.Context) error {
	if t.closed {
		return repository.ErrTxClosed
	}
	t.closed = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	now := time.Now()
	for id, trade := range t.trades {
		trade.UpdatedAt = now
		t.store.trades[id] = trade
	}
	for id, user := range t.users {
		user.UpdatedAt = now
		t.store.users[id] = user
	}
	for id, item := range t.items {
		item.UpdatedAt = now
		t.store.items[id] = item
	}
	for _, ev := range t.repEvents {
		ev.CreatedAt = now
		t.store.ledger = append(t.store.ledger, ev)
	}
	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	if t.closed {
		return repository.ErrTxClosed
	}
	t.closed = true
	t.trades = nil
	t.users = nil
	t.items = nil
	t.repEvents = nil
	return nil
}

func (t *tx) GetTradeForUpdate(_ context.Context, tradeID string) (*domain.Trade, error) {
	if t.closed {
		return nil, repository.ErrTxClosed
	}
	if staged, ok := t.trades[tradeID]; ok {
		return copyTrade(staged), nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return copyTrade(t.store.trades[tradeID]), nil
}

func (t *tx) UpdateTrade(_ context.Context, trade *domain.Trade) error {
	if t.closed {
		return repository.ErrTxClosed
	}
	t.trades[trade.ID] = copyTrade(trade)
	return nil
}

func (t *tx) CreateTrade(_ context.Context, trade *domain.Trade) error {
	if t.closed {
		return repository.ErrTxClosed
	}
	if _, ok := t.trades[trade.ID]; ok {
		return fmt.Errorf("trade %s already exists", trade.ID)
	}
	t.store.mu.RLock()
	_, exists := t.store.trades[trade.ID]
	t.store.mu.RUnlock()
	if exists {
		return fmt.Errorf("trade %s already exists", trade.ID)
	}
	trade.CreatedAt = time.Now()
	t.trades[trade.ID] = copyTrade(trade)
	return nil
}

func (t *tx) GetItemsForUpdate(_ context.Context, itemIDs []string) ([]domain.Item, error) {
	if t.closed {
		return nil, repository.ErrTxClosed
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	out := make([]domain.Item, 0, len(itemIDs))
	for _, id := range itemIDs {
		if staged, ok := t.items[id]; ok {
			out = append(out, *copyItem(staged))
			continue
		}
		if item, ok := t.store.items[id]; ok {
			out = append(out, *copyItem(item))
		}
	}
	return out, nil
}

func (t *tx) TransferItems(_ context.Context, itemIDs []string, newOwnerID string) error {
	if t.closed {
		return repository.ErrTxClosed
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	for _, id := range itemIDs {
		item, ok := t.items[id]
		if !ok {
			stored, exists := t.store.items[id]
			if !exists {
				return fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
			}
			item = copyItem(stored)
			t.items[id] = item
		}
		item.OwnerID = newOwnerID
	}
	return nil
}

func (t *tx) GetUserForUpdate(_ context.Context, userID string) (*domain.User, error) {
	if t.closed {
		return nil, repository.ErrTxClosed
	}
	if staged, ok := t.users[userID]; ok {
		return copyUser(staged), nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return copyUser(t.store.users[userID]), nil
}

func (t *tx) UpdateUser(_ context.Context, user *domain.User) error {
	if t.closed {
		return repository.ErrTxClosed
	}
	t.users[user.ID] = copyUser(user)
	return nil
}

func (t *tx) ListOpenTradesReferencingItems(_ context.Context, itemIDs []string, excludeTradeID string) ([]*domain.Trade, error) {
	if t.closed {
		return nil, repository.ErrTxClosed
	}
	wanted := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var out []*domain.Trade
	for id, trade := range t.store.trades {
		if id == excludeTradeID || trade.Status.IsTerminal() {
			continue
		}
		if staged, ok := t.trades[id]; ok {
			trade = staged
			if trade.Status.IsTerminal() {
				continue
			}
		}
		if referencesAny(trade, wanted) {
			out = append(out, copyTrade(trade))
		}
	}
	return out, nil
}

func (t *tx) AppendReputationEvent(_ context.Context, ev *domain.ReputationEvent) error {
	if t.closed {
		return repository.ErrTxClosed
	}
	t.repEvents = append(t.repEvents, copyRepEvent(ev))
	return nil
}

func referencesAny(trade *domain.Trade, wanted map[string]bool) bool {
	for _, id := range trade.ProposerItemIDs {
		if wanted[id] {
			return true
		}
	}
	for _, id := range trade.ReceiverItemIDs {
		if wanted[id] {
			return true
		}
	}
	return false
}
