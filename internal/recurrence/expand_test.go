package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-app/tally/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name        string
		def         Definition
		windowStart time.Time
		windowEnd   time.Time
		want        []time.Time
	}{
		{
			name:        "non-recurring inside window",
			def:         Definition{Start: date(2025, 3, 15)},
			windowStart: date(2025, 3, 1),
			windowEnd:   date(2025, 4, 1),
			want:        []time.Time{date(2025, 3, 15)},
		},
		{
			name:        "non-recurring outside window",
			def:         Definition{Start: date(2025, 5, 15)},
			windowStart: date(2025, 3, 1),
			windowEnd:   date(2025, 4, 1),
			want:        nil,
		},
		{
			name: "weekly within window",
			def: Definition{
				Start:     date(2025, 3, 3),
				Recurring: true,
				Frequency: domain.FreqWeekly,
			},
			windowStart: date(2025, 3, 1),
			windowEnd:   date(2025, 3, 25),
			want:        []time.Time{date(2025, 3, 3), date(2025, 3, 10), date(2025, 3, 17), date(2025, 3, 24)},
		},
		{
			name: "monthly jan 31 clips to feb 28",
			def: Definition{
				Start:     date(2025, 1, 31),
				Recurring: true,
				Frequency: domain.FreqMonthly,
			},
			windowStart: date(2025, 1, 1),
			windowEnd:   date(2025, 5, 1),
			want: []time.Time{
				date(2025, 1, 31),
				date(2025, 2, 28),
				date(2025, 3, 31),
				date(2025, 4, 30),
			},
		},
		{
			name: "monthly jan 31 clips to feb 29 on leap year",
			def: Definition{
				Start:     date(2024, 1, 31),
				Recurring: true,
				Frequency: domain.FreqMonthly,
			},
			windowStart: date(2024, 2, 1),
			windowEnd:   date(2024, 3, 1),
			want:        []time.Time{date(2024, 2, 29)},
		},
		{
			name: "count cap includes the start as occurrence one",
			def: Definition{
				Start:     date(2025, 1, 1),
				Recurring: true,
				Frequency: domain.FreqDaily,
				Count:     3,
			},
			windowStart: date(2025, 1, 1),
			windowEnd:   date(2025, 2, 1),
			want:        []time.Time{date(2025, 1, 1), date(2025, 1, 2), date(2025, 1, 3)},
		},
		{
			name: "end date is inclusive",
			def: Definition{
				Start:     date(2025, 1, 1),
				Recurring: true,
				Frequency: domain.FreqWeekly,
				End:       timePtr(date(2025, 1, 15)),
			},
			windowStart: date(2025, 1, 1),
			windowEnd:   date(2025, 2, 1),
			want:        []time.Time{date(2025, 1, 1), date(2025, 1, 8), date(2025, 1, 15)},
		},
		{
			name: "count stops before end date",
			def: Definition{
				Start:     date(2025, 1, 1),
				Recurring: true,
				Frequency: domain.FreqDaily,
				Count:     2,
				End:       timePtr(date(2025, 1, 10)),
			},
			windowStart: date(2025, 1, 1),
			windowEnd:   date(2025, 2, 1),
			want:        []time.Time{date(2025, 1, 1), date(2025, 1, 2)},
		},
		{
			name: "bi-weekly anchored before window",
			def: Definition{
				Start:     date(2024, 12, 30),
				Recurring: true,
				Frequency: domain.FreqBiWeekly,
			},
			windowStart: date(2025, 2, 1),
			windowEnd:   date(2025, 3, 1),
			want:        []time.Time{date(2025, 2, 10), date(2025, 2, 24)},
		},
		{
			name: "quarterly preserves day of month",
			def: Definition{
				Start:     date(2025, 1, 31),
				Recurring: true,
				Frequency: domain.FreqQuarterly,
			},
			windowStart: date(2025, 1, 1),
			windowEnd:   date(2026, 1, 1),
			want: []time.Time{
				date(2025, 1, 31),
				date(2025, 4, 30),
				date(2025, 7, 31),
				date(2025, 10, 31),
			},
		},
		{
			name: "yearly feb 29 clips on non-leap years",
			def: Definition{
				Start:     date(2024, 2, 29),
				Recurring: true,
				Frequency: domain.FreqYearly,
			},
			windowStart: date(2024, 1, 1),
			windowEnd:   date(2027, 1, 1),
			want: []time.Time{
				date(2024, 2, 29),
				date(2025, 2, 28),
				date(2026, 2, 28),
			},
		},
		{
			name: "window before start yields nothing",
			def: Definition{
				Start:     date(2025, 6, 1),
				Recurring: true,
				Frequency: domain.FreqDaily,
			},
			windowStart: date(2025, 1, 1),
			windowEnd:   date(2025, 2, 1),
			want:        nil,
		},
		{
			name: "empty window yields nothing",
			def: Definition{
				Start:     date(2025, 1, 1),
				Recurring: true,
				Frequency: domain.FreqDaily,
			},
			windowStart: date(2025, 3, 1),
			windowEnd:   date(2025, 3, 1),
			want:        nil,
		},
		{
			name: "window end is exclusive",
			def: Definition{
				Start:     date(2025, 1, 1),
				Recurring: true,
				Frequency: domain.FreqMonthly,
			},
			windowStart: date(2025, 1, 1),
			windowEnd:   date(2025, 3, 1),
			want:        []time.Time{date(2025, 1, 1), date(2025, 2, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expand(tt.def, tt.windowStart, tt.windowEnd)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Splitting a window in two must yield exactly the occurrences of the whole
// window, with no duplicates at the seam.
func TestExpandWindowPartitioning(t *testing.T) {
	defs := []Definition{
		{Start: date(2025, 1, 31), Recurring: true, Frequency: domain.FreqMonthly},
		{Start: date(2024, 11, 4), Recurring: true, Frequency: domain.FreqBiWeekly},
		{Start: date(2025, 1, 1), Recurring: true, Frequency: domain.FreqDaily, Count: 400},
		{Start: date(2025, 2, 14), Recurring: true, Frequency: domain.FreqWeekly, End: timePtr(date(2025, 9, 1))},
	}
	start := date(2025, 1, 1)
	mid := date(2025, 6, 15)
	end := date(2026, 1, 1)

	for _, def := range defs {
		whole := Expand(def, start, end)
		first := Expand(def, start, mid)
		second := Expand(def, mid, end)

		joined := append(append([]time.Time{}, first...), second...)
		require.Equal(t, whole, joined, "partitioned windows must reassemble the whole expansion")
	}
}

func TestOccurrenceID(t *testing.T) {
	id := OccurrenceID("ev-123", date(2025, 3, 9))
	assert.Equal(t, "ev-123:2025-03-09", id)

	// Same inputs, same id: occurrences are addressable across requests.
	assert.Equal(t, id, OccurrenceID("ev-123", date(2025, 3, 9)))
}

func TestFromEvent(t *testing.T) {
	end := date(2025, 12, 31)
	ev := &domain.CalendarEvent{
		StartDate: date(2025, 1, 15),
		Recurrence: domain.Recurrence{
			IsRecurring: true,
			Frequency:   domain.FreqMonthly,
			Count:       6,
			EndDate:     &end,
		},
	}
	def := FromEvent(ev)
	assert.Equal(t, date(2025, 1, 15), def.Start)
	assert.True(t, def.Recurring)
	assert.Equal(t, domain.FreqMonthly, def.Frequency)
	assert.Equal(t, 6, def.Count)
	require.NotNil(t, def.End)
	assert.Equal(t, end, *def.End)
}

func timePtr(t time.Time) *time.Time { return &t }
