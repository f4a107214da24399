package timeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/logger"
	"github.com/tally-app/tally/internal/store/inmemory"
)

const testOwner = "owner-1"

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newTestReconciler(t *testing.T) (*Reconciler, *inmemory.Store) {
	t.Helper()
	st := inmemory.NewStore()
	log := logger.NewWithWriter(testLogWriter{t})
	return NewReconciler(st, log), st
}

type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func seedEvent(t *testing.T, st *inmemory.Store, ev *domain.CalendarEvent) {
	t.Helper()
	if ev.OwnerID == "" {
		ev.OwnerID = testOwner
	}
	require.NoError(t, st.CreateEvent(context.Background(), ev))
}

func seedTransaction(t *testing.T, st *inmemory.Store, tx *domain.Transaction) {
	t.Helper()
	if tx.OwnerID == "" {
		tx.OwnerID = testOwner
	}
	require.NoError(t, st.CreateTransaction(context.Background(), tx))
}

func TestGetTimelineOrdering(t *testing.T) {
	ctx := context.Background()
	rec, st := newTestReconciler(t)
	day := date(2025, 4, 10)

	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-reminder", Title: "pay council tax", Type: domain.EventReminder, StartDate: day,
	})
	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-prediction", Title: "netflix", Type: domain.EventPrediction,
		Amount: amountPtr("15.99"), StartDate: day,
		Metadata: &domain.PredictionMeta{Confidence: 0.9, Pattern: "netflix-monthly"},
	})
	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-expense", Title: "rent", Type: domain.EventExpense,
		Amount: amountPtr("900"), StartDate: day,
	})
	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-income", Title: "salary", Type: domain.EventIncome,
		Amount: amountPtr("2500"), StartDate: day,
	})

	res, err := rec.GetTimeline(ctx, testOwner, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Days, 1)

	var types []domain.EventType
	for _, e := range res.Days[0].Entries {
		types = append(types, e.Type)
	}
	assert.Equal(t, []domain.EventType{
		domain.EventIncome,
		domain.EventExpense,
		domain.EventReminder,
		domain.EventPrediction,
	}, types)
}

func TestGetTimelineAggregates(t *testing.T) {
	ctx := context.Background()
	rec, st := newTestReconciler(t)
	day := date(2025, 4, 10)

	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-income", Title: "salary", Type: domain.EventIncome,
		Amount: amountPtr("2500"), StartDate: day,
	})
	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-expense", Title: "rent", Type: domain.EventExpense,
		Amount: amountPtr("900"), StartDate: day,
	})
	seedTransaction(t, st, &domain.Transaction{
		ID: "tx-1", Amount: decimal.RequireFromString("42.50"),
		Type: domain.FlowExpense, Date: day, Description: "groceries",
	})
	// Reminders and predictions are display-only and must not move totals.
	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-reminder", Title: "mot due", Type: domain.EventReminder, StartDate: day,
	})
	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-prediction", Title: "gym", Type: domain.EventPrediction,
		Amount: amountPtr("35"), StartDate: day,
	})

	res, err := rec.GetTimeline(ctx, testOwner, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Days, 1)

	got := res.Days[0]
	assert.True(t, got.Income.Equal(decimal.RequireFromString("2500")))
	assert.True(t, got.Expenses.Equal(decimal.RequireFromString("942.50")))
	assert.True(t, got.Net.Equal(decimal.RequireFromString("1557.50")))
}

func TestGetTimelineExpandsRecurrences(t *testing.T) {
	ctx := context.Background()
	rec, st := newTestReconciler(t)

	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-rent", Title: "rent", Type: domain.EventExpense,
		Amount: amountPtr("900"), StartDate: date(2025, 1, 31),
		Recurrence: domain.Recurrence{IsRecurring: true, Frequency: domain.FreqMonthly},
	})

	res, err := rec.GetTimeline(ctx, testOwner, date(2025, 2, 1), date(2025, 4, 1))
	require.NoError(t, err)
	require.Len(t, res.Days, 2)

	assert.Equal(t, date(2025, 2, 28), res.Days[0].Date)
	assert.Equal(t, date(2025, 3, 31), res.Days[1].Date)

	first := res.Days[0].Entries[0]
	assert.Equal(t, KindOccurrence, first.Kind)
	assert.Equal(t, "ev-rent:2025-02-28", first.ID)
	assert.Equal(t, "ev-rent", first.EventID)
}

// A prediction occurrence and the real transaction that fulfilled it both
// appear; reconciliation never merges them.
func TestGetTimelineNoDeduplication(t *testing.T) {
	ctx := context.Background()
	rec, st := newTestReconciler(t)
	day := date(2025, 4, 15)

	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-electric", Title: "electric bill", Type: domain.EventPrediction,
		Amount: amountPtr("80"), StartDate: day,
	})
	seedTransaction(t, st, &domain.Transaction{
		ID: "tx-electric", Amount: decimal.RequireFromString("80"),
		Type: domain.FlowExpense, Date: day, Description: "electric bill",
		Provenance: domain.ProvenanceManual,
	})

	res, err := rec.GetTimeline(ctx, testOwner, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Days, 1)
	assert.Len(t, res.Days[0].Entries, 2)
}

func TestGetTimelineOverflow(t *testing.T) {
	ctx := context.Background()
	rec, st := newTestReconciler(t)
	day := date(2025, 4, 10)

	for i := 0; i < DefaultMaxEntriesPerDay+5; i++ {
		seedEvent(t, st, &domain.CalendarEvent{
			ID:        fmt.Sprintf("ev-%03d", i),
			Title:     fmt.Sprintf("event %d", i),
			Type:      domain.EventReminder,
			StartDate: day,
		})
	}

	res, err := rec.GetTimeline(ctx, testOwner, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Days, 1)
	assert.Len(t, res.Days[0].Entries, DefaultMaxEntriesPerDay)
	assert.Equal(t, 5, res.Days[0].Overflow)
}

func TestGetTimelineEmptyWindow(t *testing.T) {
	ctx := context.Background()
	rec, st := newTestReconciler(t)
	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-1", Title: "anything", Type: domain.EventReminder, StartDate: date(2025, 4, 10),
	})

	res, err := rec.GetTimeline(ctx, testOwner, date(2025, 4, 10), date(2025, 4, 10))
	require.NoError(t, err)
	assert.Empty(t, res.Days)

	res, err = rec.GetTimeline(ctx, testOwner, date(2025, 4, 12), date(2025, 4, 10))
	require.NoError(t, err)
	assert.Empty(t, res.Days)
}

func TestGetTimelineScopedByOwner(t *testing.T) {
	ctx := context.Background()
	rec, st := newTestReconciler(t)
	day := date(2025, 4, 10)

	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-mine", Title: "mine", Type: domain.EventReminder, StartDate: day,
	})
	seedEvent(t, st, &domain.CalendarEvent{
		ID: "ev-theirs", OwnerID: "owner-2", Title: "theirs",
		Type: domain.EventReminder, StartDate: day,
	})

	res, err := rec.GetTimeline(ctx, testOwner, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Days, 1)
	require.Len(t, res.Days[0].Entries, 1)
	assert.Equal(t, "ev-mine", res.Days[0].Entries[0].ID)
}

func TestGetTimelineTransactionEntry(t *testing.T) {
	ctx := context.Background()
	rec, st := newTestReconciler(t)
	day := date(2025, 4, 10)

	seedTransaction(t, st, &domain.Transaction{
		ID: "tx-1", Amount: decimal.RequireFromString("12.30"),
		Type: domain.FlowIncome, Date: day, Description: "refund",
		SourceID: "src-1", CategoryID: "cat-1",
	})

	res, err := rec.GetTimeline(ctx, testOwner, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Days, 1)
	require.Len(t, res.Days[0].Entries, 1)

	e := res.Days[0].Entries[0]
	assert.Equal(t, KindTransaction, e.Kind)
	assert.True(t, e.IsTransaction)
	assert.Equal(t, domain.EventIncome, e.Type)
	assert.Equal(t, "refund", e.Title)
	require.NotNil(t, e.Amount)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("12.30")))
}
