// Package memory provides an in-memory implementation of every repository
// interface. It backs local development mode and the service test suites;
// the postgres package is the production counterpart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// Store holds all aggregates behind a single mutex. Transactions stage their
// writes and apply them atomically on commit, so a rolled-back transition
// leaves no trace.
type Store struct {
	mu sync.RWMutex

	users    map[string]*domain.User
	items    map[string]*domain.Item
	trades   map[string]*domain.Trade
	tickets  map[string]*domain.DisputeTicket
	ratings  map[string]*domain.TradeRating
	ledger   []*domain.ReputationEvent
	eventLog []loggedEvent
}

type loggedEvent struct {
	eventType string
	userID    *string
	payload   interface{}
	metadata  interface{}
	loggedAt  time.Time
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		users:   make(map[string]*domain.User),
		items:   make(map[string]*domain.Item),
		trades:  make(map[string]*domain.Trade),
		tickets: make(map[string]*domain.DisputeTicket),
		ratings: make(map[string]*domain.TradeRating),
	}
}

// Interface conformance
var (
	_ repository.User       = (*Store)(nil)
	_ repository.Trade      = (*Store)(nil)
	_ repository.Dispute    = (*Store)(nil)
	_ repository.Rating     = (*Store)(nil)
	_ repository.Reputation = (*Store)(nil)
	_ repository.EventLog   = (*Store)(nil)
)

// ---------------------------------------------------------------------------
// User / Item

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.users[userID]), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return copyUser(user), nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; !exists {
		return fmt.Errorf("user %s does not exist", user.ID)
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) CreateItem(_ context.Context, item *domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("item %s already exists", item.ID)
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = copyItem(item)
	return nil
}

func (s *Store) GetItemByID(_ context.Context, itemID string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyItem(s.items[itemID]), nil
}

func (s *Store) GetItemsByIDs(_ context.Context, itemIDs []string) ([]*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Item, 0, len(itemIDs))
	for _, id := range itemIDs {
		if item, ok := s.items[id]; ok {
			out = append(out, copyItem(item))
		}
	}
	return out, nil
}

func (s *Store) UpdateItem(_ context.Context, item *domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; !exists {
		return fmt.Errorf("item %s does not exist", item.ID)
	}
	item.UpdatedAt = time.Now()
	s.items[item.ID] = copyItem(item)
	return nil
}

func (s *Store) ListItemsByOwner(_ context.Context, ownerID string) ([]*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Item
	for _, item := range s.items {
		if item.OwnerID == ownerID {
			out = append(out, copyItem(item))
		}
	}
	return out, nil
}

func (s *Store) GetWishlist(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return append([]string{}, user.Wishlist...), nil
}

func (s *Store) AddWishlistItem(_ context.Context, userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for _, existing := range user.Wishlist {
		if existing == itemID {
			return nil
		}
	}
	user.Wishlist = append(user.Wishlist, itemID)
	user.UpdatedAt = time.Now()
	return nil
}

func (s *Store) RemoveWishlistItem(_ context.Context, userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	kept := user.Wishlist[:0]
	for _, existing := range user.Wishlist {
		if existing != itemID {
			kept = append(kept, existing)
		}
	}
	user.Wishlist = kept
	user.UpdatedAt = time.Now()
	return nil
}

// ---------------------------------------------------------------------------
// Trade

func (s *Store) CreateTrade(_ context.Context, trade *domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.trades[trade.ID]; exists {
		return fmt.Errorf("trade %s already exists", trade.ID)
	}
	now := time.Now()
	trade.CreatedAt = now
	trade.UpdatedAt = now
	s.trades[trade.ID] = copyTrade(trade)
	return nil
}

func (s *Store) GetTrade(_ context.Context, tradeID string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTrade(s.trades[tradeID]), nil
}

func (s *Store) UpdateTrade(_ context.Context, trade *domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.trades[trade.ID]; !exists {
		return fmt.Errorf("trade %s does not exist", trade.ID)
	}
	trade.UpdatedAt = time.Now()
	s.trades[trade.ID] = copyTrade(trade)
	return nil
}

func (s *Store) GetTradeChain(_ context.Context, tradeID string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chain []*domain.Trade
	current := s.trades[tradeID]
	for current != nil {
		chain = append(chain, copyTrade(current))
		if current.ParentTradeID == nil {
			break
		}
		current = s.trades[*current.ParentTradeID]
	}
	return chain, nil
}

func (s *Store) ListTradesPastDeliveryDeadline(_ context.Context, now time.Time) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Trade
	for _, trade := range s.trades {
		if trade.Status == domain.TradeStatusInTransit &&
			trade.DeliveryDeadline != nil && !now.Before(*trade.DeliveryDeadline) {
			out = append(out, copyTrade(trade))
		}
	}
	return out, nil
}

func (s *Store) ListTradesPastRatingDeadline(_ context.Context, now time.Time) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Trade
	for _, trade := range s.trades {
		if trade.Status == domain.TradeStatusCompletedAwaitingRating &&
			trade.RatingDeadline != nil && !now.Before(*trade.RatingDeadline) {
			out = append(out, copyTrade(trade))
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Dispute

func (s *Store) CreateTicket(_ context.Context, ticket *domain.DisputeTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tickets[ticket.ID]; exists {
		return fmt.Errorf("ticket %s already exists", ticket.ID)
	}
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (s *Store) GetTicket(_ context.Context, ticketID string) (*domain.DisputeTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTicket(s.tickets[ticketID]), nil
}

func (s *Store) UpdateTicket(_ context.Context, ticket *domain.DisputeTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tickets[ticket.ID]; !exists {
		return fmt.Errorf("ticket %s does not exist", ticket.ID)
	}
	ticket.UpdatedAt = time.Now()
	s.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (s *Store) GetOpenTicketByTradeID(_ context.Context, tradeID string) (*domain.DisputeTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ticket := range s.tickets {
		if ticket.TradeID == tradeID && !ticket.Status.IsClosed() {
			return copyTicket(ticket), nil
		}
	}
	return nil, nil
}

func (s *Store) ListTicketsPastDeadline(_ context.Context, now time.Time) ([]*domain.DisputeTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.DisputeTicket
	for _, ticket := range s.tickets {
		if !ticket.Status.IsClosed() && !now.Before(ticket.DeadlineForNextAction) {
			out = append(out, copyTicket(ticket))
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Rating

func (s *Store) CreateRating(_ context.Context, rating *domain.TradeRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ratings {
		if existing.TradeID == rating.TradeID && existing.RaterID == rating.RaterID {
			return domain.ErrDuplicateRating
		}
	}
	rating.CreatedAt = time.Now()
	s.ratings[rating.ID] = copyRating(rating)
	return nil
}

func (s *Store) GetRating(_ context.Context, tradeID, raterID string) (*domain.TradeRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rating := range s.ratings {
		if rating.TradeID == tradeID && rating.RaterID == raterID {
			return copyRating(rating), nil
		}
	}
	return nil, nil
}

func (s *Store) ListRatingsForTrade(_ context.Context, tradeID string) ([]*domain.TradeRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.TradeRating
	for _, rating := range s.ratings {
		if rating.TradeID == tradeID {
			out = append(out, copyRating(rating))
		}
	}
	return out, nil
}

func (s *Store) ListRatingsForUser(_ context.Context, rateeID string) ([]*domain.TradeRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.TradeRating
	for _, rating := range s.ratings {
		if rating.RateeID == rateeID {
			out = append(out, copyRating(rating))
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Reputation ledger

func (s *Store) AppendEvent(_ context.Context, ev *domain.ReputationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.CreatedAt = time.Now()
	s.ledger = append(s.ledger, copyRepEvent(ev))
	return nil
}

func (s *Store) ListEventsForUser(_ context.Context, userID string) ([]*domain.ReputationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ReputationEvent
	for _, ev := range s.ledger {
		if ev.UserID == userID {
			out = append(out, copyRepEvent(ev))
		}
	}
	return out, nil
}

func (s *Store) HasEventForTrade(_ context.Context, tradeID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.ledger {
		if ev.TradeID == tradeID && ev.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// Event log

func (s *Store) LogEvent(_ context.Context, eventType string, userID *string, payload interface{}, metadata interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLog = append(s.eventLog, loggedEvent{
		eventType: eventType,
		userID:    userID,
		payload:   payload,
		metadata:  metadata,
		loggedAt:  time.Now(),
	})
	return nil
}

func (s *Store) CleanupOldEvents(_ context.Context, retentionDays int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	kept := s.eventLog[:0]
	var removed int64
	for _, entry := range s.eventLog {
		if entry.loggedAt.After(cutoff) {
			kept = append(kept, entry)
		} else {
			removed++
		}
	}
	s.eventLog = kept
	return removed, nil
}

// LoggedEventCount reports how many audit entries are retained. Test helper.
func (s *Store) LoggedEventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.eventLog)
}
