package timeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/recurrence"
	"github.com/tally-app/tally/internal/store"
)

// DefaultMaxEntriesPerDay caps the entry list returned per day bucket;
// entries beyond the cap are reported through Day.Overflow.
const DefaultMaxEntriesPerDay = 20

// Reconciler produces merged timelines from the store. Reads are snapshots:
// they take no locks and tolerate a transaction committing mid-read.
type Reconciler struct {
	store     store.Store
	maxPerDay int
	log       zerolog.Logger
}

// NewReconciler creates a Reconciler with the default per-day display cap.
func NewReconciler(st store.Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:     st,
		maxPerDay: DefaultMaxEntriesPerDay,
		log:       log.With().Str("component", "timeline").Logger(),
	}
}

// GetTimeline returns the reconciled day buckets for [start, end). An empty
// or inverted window, or an owner with no data, yields an empty result
// rather than an error. Occurrences matching a real transaction on the same
// day are intentionally not deduplicated; telling "predicted" from
// "actually happened" is the client's concern.
func (r *Reconciler) GetTimeline(ctx context.Context, ownerID string, start, end time.Time) (*Result, error) {
	start = domain.DateOf(start)
	end = domain.DateOf(end)
	result := &Result{Start: start, End: end}
	if !start.Before(end) {
		return result, nil
	}

	entries, err := r.collect(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if pa, pb := typePrecedence(a.Type), typePrecedence(b.Type); pa != pb {
			return pa < pb
		}
		return a.ID < b.ID
	})

	result.Days = r.bucket(entries)
	return result, nil
}

// collect gathers the four entry origins: one-off events, expanded
// recurrences, predictions (which ListEvents returns alongside the other
// event types) and transaction pseudo-events.
func (r *Reconciler) collect(ctx context.Context, ownerID string, start, end time.Time) ([]Entry, error) {
	recurring := true
	single := false

	oneOff, err := r.store.ListEvents(ctx, ownerID, store.EventFilter{Start: start, End: end, Recurring: &single})
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defs, err := r.store.ListEvents(ctx, ownerID, store.EventFilter{Start: start, End: end, Recurring: &recurring})
	if err != nil {
		return nil, fmt.Errorf("listing recurring events: %w", err)
	}
	txs, err := r.store.ListTransactionsByDateRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	var entries []Entry
	for _, ev := range oneOff {
		entries = append(entries, eventEntry(ev, KindEvent, ev.ID, domain.DateOf(ev.StartDate)))
	}
	for _, ev := range defs {
		for _, d := range recurrence.Expand(recurrence.FromEvent(ev), start, end) {
			entries = append(entries, eventEntry(ev, KindOccurrence, recurrence.OccurrenceID(ev.ID, d), d))
		}
	}
	for _, tx := range txs {
		entries = append(entries, transactionEntry(tx))
	}
	return entries, nil
}

// bucket groups sorted entries into ascending day buckets and computes the
// per-day aggregates.
func (r *Reconciler) bucket(entries []Entry) []Day {
	var days []Day
	for _, e := range entries {
		if len(days) == 0 || !days[len(days)-1].Date.Equal(e.Date) {
			days = append(days, Day{
				Date:     e.Date,
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
				Net:      decimal.Zero,
			})
		}
		day := &days[len(days)-1]
		if countsTowardAggregate(e) {
			if e.Type == domain.EventIncome {
				day.Income = day.Income.Add(*e.Amount)
			} else {
				day.Expenses = day.Expenses.Add(*e.Amount)
			}
			day.Net = day.Income.Sub(day.Expenses)
		}
		if len(day.Entries) < r.maxPerDay {
			day.Entries = append(day.Entries, e)
		} else {
			day.Overflow++
		}
	}
	return days
}

func eventEntry(ev *domain.CalendarEvent, kind Kind, id string, date time.Time) Entry {
	e := Entry{
		ID:          id,
		Kind:        kind,
		Title:       ev.Title,
		Description: ev.Description,
		Type:        ev.Type,
		Date:        date,
		CategoryID:  ev.CategoryID,
		SourceID:    ev.SourceID,
		Metadata:    ev.Metadata,
	}
	if kind == KindOccurrence {
		e.EventID = ev.ID
	}
	if ev.Amount != nil {
		amount := *ev.Amount
		e.Amount = &amount
	}
	return e
}

// transactionEntry converts a posted transaction into a display
// pseudo-event. Edits to it go through the ledger, not the timeline.
func transactionEntry(tx *domain.Transaction) Entry {
	amount := tx.Amount
	t := domain.EventExpense
	if tx.Type == domain.FlowIncome {
		t = domain.EventIncome
	}
	return Entry{
		ID:            tx.ID,
		Kind:          KindTransaction,
		Title:         tx.Description,
		Type:          t,
		Amount:        &amount,
		Date:          domain.DateOf(tx.Date),
		CategoryID:    tx.CategoryID,
		SourceID:      tx.SourceID,
		IsTransaction: true,
	}
}
