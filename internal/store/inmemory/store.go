// Package inmemory provides a map-backed Store. It is safe for concurrent
// use and is the default backend for tests and single-instance deployments;
// data is lost on restart, so deployments that need persistence use the
// BigQuery store instead.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu           sync.RWMutex
	sources      map[string]*domain.Source
	categories   map[string]*domain.Category
	transactions map[string]*domain.Transaction
	events       map[string]*domain.CalendarEvent
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		sources:      make(map[string]*domain.Source),
		categories:   make(map[string]*domain.Category),
		transactions: make(map[string]*domain.Transaction),
		events:       make(map[string]*domain.CalendarEvent),
	}
}

// ─── Sources ────────────────────────────────────────────────────────────────

// CreateSource stores a copy of src.
func (s *Store) CreateSource(ctx context.Context, src *domain.Source) error {
	if src.ID == "" {
		return domain.Validationf("id", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[src.ID] = copySource(src)
	return nil
}

// GetSource returns a copy of the source, or domain.ErrNotFound.
func (s *Store) GetSource(ctx context.Context, ownerID, id string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	if !ok || src.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return copySource(src), nil
}

// ListSources returns the owner's sources sorted by name.
func (s *Store) ListSources(ctx context.Context, ownerID string) ([]*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Source
	for _, src := range s.sources {
		if src.OwnerID == ownerID {
			out = append(out, copySource(src))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateSource replaces everything except the balance, which only
// UpdateSourceBalance may touch.
func (s *Store) UpdateSource(ctx context.Context, src *domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.sources[src.ID]
	if !ok || existing.OwnerID != src.OwnerID {
		return domain.ErrNotFound
	}
	updated := copySource(src)
	updated.Balance = existing.Balance
	s.sources[src.ID] = updated
	return nil
}

// UpdateSourceBalance implements the compare-and-swap balance update.
func (s *Store) UpdateSourceBalance(ctx context.Context, ownerID, id string, old, new decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok || src.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	if !src.Balance.Equal(old) {
		return domain.ErrConflict
	}
	src.Balance = new
	src.UpdatedAt = time.Now().UTC()
	return nil
}

// ─── Categories ─────────────────────────────────────────────────────────────

// CreateCategory stores a copy of cat.
func (s *Store) CreateCategory(ctx context.Context, cat *domain.Category) error {
	if cat.ID == "" {
		return domain.Validationf("id", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cat
	s.categories[cat.ID] = &c
	return nil
}

// GetCategory returns a copy of the category, or domain.ErrNotFound.
func (s *Store) GetCategory(ctx context.Context, ownerID, id string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cat, ok := s.categories[id]
	if !ok || cat.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	c := *cat
	return &c, nil
}

// ListCategories returns the owner's categories sorted by name.
func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Category
	for _, cat := range s.categories {
		if cat.OwnerID == ownerID {
			c := *cat
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ─── Transactions ───────────────────────────────────────────────────────────

// CreateTransaction stores a copy of tx.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return domain.Validationf("id", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *tx
	s.transactions[tx.ID] = &t
	return nil
}

// GetTransaction returns a copy of the transaction, or domain.ErrNotFound.
func (s *Store) GetTransaction(ctx context.Context, ownerID, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	t := *tx
	return &t, nil
}

// UpdateTransaction replaces the stored transaction.
func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[tx.ID]
	if !ok || existing.OwnerID != tx.OwnerID {
		return domain.ErrNotFound
	}
	t := *tx
	s.transactions[tx.ID] = &t
	return nil
}

// DeleteTransaction removes the transaction.
func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

// ListTransactionsByDateRange returns the owner's transactions with date in
// [start, end), ordered by date then id.
func (s *Store) ListTransactionsByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Transaction
	for _, tx := range s.transactions {
		if tx.OwnerID != ownerID {
			continue
		}
		d := domain.DateOf(tx.Date)
		if d.Before(start) || !d.Before(end) {
			continue
		}
		t := *tx
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ─── Events ─────────────────────────────────────────────────────────────────

// CreateEvent stores a copy of ev.
func (s *Store) CreateEvent(ctx context.Context, ev *domain.CalendarEvent) error {
	if ev.ID == "" {
		return domain.Validationf("id", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = copyEvent(ev)
	return nil
}

// GetEvent returns a copy of the event, or domain.ErrNotFound.
func (s *Store) GetEvent(ctx context.Context, ownerID, id string) (*domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok || ev.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return copyEvent(ev), nil
}

// UpdateEvent replaces the stored event.
func (s *Store) UpdateEvent(ctx context.Context, ev *domain.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[ev.ID]
	if !ok || existing.OwnerID != ev.OwnerID {
		return domain.ErrNotFound
	}
	s.events[ev.ID] = copyEvent(ev)
	return nil
}

// DeleteEvent removes the event.
func (s *Store) DeleteEvent(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok || ev.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// ListEvents filters events per store.EventFilter semantics, ordered by
// start date then id.
func (s *Store) ListEvents(ctx context.Context, ownerID string, f store.EventFilter) ([]*domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.CalendarEvent
	for _, ev := range s.events {
		if ev.OwnerID != ownerID {
			continue
		}
		if f.Recurring != nil && ev.Recurrence.IsRecurring != *f.Recurring {
			continue
		}
		if !matchesWindow(ev, f) {
			continue
		}
		if len(f.Types) > 0 && !containsType(f.Types, ev.Type) {
			continue
		}
		out = append(out, copyEvent(ev))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchesWindow(ev *domain.CalendarEvent, f store.EventFilter) bool {
	start := domain.DateOf(ev.StartDate)
	if ev.Recurrence.IsRecurring {
		// Intersection test: the definition's effective range must
		// overlap [f.Start, f.End).
		if !f.End.IsZero() && !start.Before(f.End) {
			return false
		}
		if !f.Start.IsZero() && ev.Recurrence.EndDate != nil &&
			domain.DateOf(*ev.Recurrence.EndDate).Before(f.Start) {
			return false
		}
		return true
	}
	if !f.Start.IsZero() && start.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !start.Before(f.End) {
		return false
	}
	return true
}

func containsType(types []domain.EventType, t domain.EventType) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

func copySource(src *domain.Source) *domain.Source {
	out := *src
	if src.InterestRate != nil {
		rate := *src.InterestRate
		out.InterestRate = &rate
	}
	return &out
}

func copyEvent(ev *domain.CalendarEvent) *domain.CalendarEvent {
	out := *ev
	if ev.Amount != nil {
		amount := *ev.Amount
		out.Amount = &amount
	}
	if ev.Recurrence.EndDate != nil {
		end := *ev.Recurrence.EndDate
		out.Recurrence.EndDate = &end
	}
	if ev.Metadata != nil {
		meta := *ev.Metadata
		out.Metadata = &meta
	}
	return &out
}

// Ensure Store implements the full persistence surface.
var _ store.Store = (*Store)(nil)
