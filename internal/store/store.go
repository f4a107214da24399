// Package store defines the persistence interfaces the engine depends on.
// Implementations live under internal/store/inmemory and
// internal/infra/bigquery; every query is scoped by owner id.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-app/tally/internal/domain"
)

// EventFilter narrows an event listing. Start/End form a half-open window
// [Start, End); a zero time leaves that side unbounded.
//
// When Recurring is non-nil the window is interpreted differently:
//   - *Recurring == false: events whose StartDate falls inside the window.
//   - *Recurring == true: recurring definitions whose effective range
//     intersects the window (StartDate before End, and EndDate, if set, not
//     before Start). Expansion against the window is the caller's job.
type EventFilter struct {
	Start     time.Time
	End       time.Time
	Recurring *bool
	Types     []domain.EventType
}

// SourceStore persists funding sources.
type SourceStore interface {
	CreateSource(ctx context.Context, src *domain.Source) error
	GetSource(ctx context.Context, ownerID, id string) (*domain.Source, error)
	ListSources(ctx context.Context, ownerID string) ([]*domain.Source, error)
	UpdateSource(ctx context.Context, src *domain.Source) error

	// UpdateSourceBalance performs a compare-and-swap on the balance.
	// It returns domain.ErrConflict when the stored balance no longer
	// equals old, and domain.ErrNotFound when the source is missing.
	UpdateSourceBalance(ctx context.Context, ownerID, id string, old, new decimal.Decimal) error
}

// CategoryStore persists owner-scoped categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, cat *domain.Category) error
	GetCategory(ctx context.Context, ownerID, id string) (*domain.Category, error)
	ListCategories(ctx context.Context, ownerID string) ([]*domain.Category, error)
}

// TransactionStore persists posted transactions.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, ownerID, id string) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID, id string) error

	// ListTransactionsByDateRange returns transactions with date in
	// [start, end), ordered by date ascending.
	ListTransactionsByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]*domain.Transaction, error)
}

// EventStore persists calendar events.
type EventStore interface {
	CreateEvent(ctx context.Context, ev *domain.CalendarEvent) error
	GetEvent(ctx context.Context, ownerID, id string) (*domain.CalendarEvent, error)
	UpdateEvent(ctx context.Context, ev *domain.CalendarEvent) error
	DeleteEvent(ctx context.Context, ownerID, id string) error
	ListEvents(ctx context.Context, ownerID string, f EventFilter) ([]*domain.CalendarEvent, error)
}

// Store is the full persistence surface of the engine.
type Store interface {
	SourceStore
	CategoryStore
	TransactionStore
	EventStore
}
