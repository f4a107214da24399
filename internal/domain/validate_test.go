package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestValidateEvent(t *testing.T) {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)

	base := func() *CalendarEvent {
		return &CalendarEvent{
			Title:     "rent",
			Type:      EventExpense,
			Amount:    amountPtr("900"),
			StartDate: start,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*CalendarEvent)
		wantField string
	}{
		{
			name:   "valid one-off expense",
			mutate: func(ev *CalendarEvent) {},
		},
		{
			name: "valid reminder without amount",
			mutate: func(ev *CalendarEvent) {
				ev.Type = EventReminder
				ev.Amount = nil
			},
		},
		{
			name: "valid recurring",
			mutate: func(ev *CalendarEvent) {
				ev.Recurrence = Recurrence{IsRecurring: true, Frequency: FreqMonthly}
			},
		},
		{
			name:      "missing title",
			mutate:    func(ev *CalendarEvent) { ev.Title = "" },
			wantField: "title",
		},
		{
			name:      "unknown type",
			mutate:    func(ev *CalendarEvent) { ev.Type = "appointment" },
			wantField: "type",
		},
		{
			name:      "missing start date",
			mutate:    func(ev *CalendarEvent) { ev.StartDate = time.Time{} },
			wantField: "start_date",
		},
		{
			name:      "expense without amount",
			mutate:    func(ev *CalendarEvent) { ev.Amount = nil },
			wantField: "amount",
		},
		{
			name:      "prediction without amount",
			mutate:    func(ev *CalendarEvent) { ev.Type = EventPrediction; ev.Amount = nil },
			wantField: "amount",
		},
		{
			name:      "non-positive amount",
			mutate:    func(ev *CalendarEvent) { ev.Amount = amountPtr("0") },
			wantField: "amount",
		},
		{
			name: "recurring without frequency",
			mutate: func(ev *CalendarEvent) {
				ev.Recurrence = Recurrence{IsRecurring: true}
			},
			wantField: "frequency",
		},
		{
			name: "negative recurrence count",
			mutate: func(ev *CalendarEvent) {
				ev.Recurrence = Recurrence{IsRecurring: true, Frequency: FreqWeekly, Count: -1}
			},
			wantField: "recurrence_count",
		},
		{
			name: "end date before start",
			mutate: func(ev *CalendarEvent) {
				ev.Recurrence = Recurrence{IsRecurring: true, Frequency: FreqWeekly, EndDate: &before}
			},
			wantField: "end_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := base()
			tt.mutate(ev)
			err := ValidateEvent(ev)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestSignedAmount(t *testing.T) {
	expense := &Transaction{Amount: decimal.RequireFromString("30"), Type: FlowExpense}
	assert.True(t, expense.SignedAmount().Equal(decimal.RequireFromString("-30")))

	income := &Transaction{Amount: decimal.RequireFromString("30"), Type: FlowIncome}
	assert.True(t, income.SignedAmount().Equal(decimal.RequireFromString("30")))
}

func TestDateOf(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	// 2025-04-10 22:30 in New York is already 2025-04-11 in UTC; day
	// bucketing follows UTC.
	local := time.Date(2025, 4, 10, 22, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC), DateOf(local))

	utc := time.Date(2025, 4, 10, 13, 45, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), DateOf(utc))
}
