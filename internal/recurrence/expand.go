// Package recurrence expands recurring calendar event definitions into
// concrete occurrence dates. Expansion is a pure function of the definition
// and the requested window, so occurrences are never persisted: repeating a
// query always regenerates the same dates and the same synthetic ids.
package recurrence

import (
	"fmt"
	"time"

	"github.com/tally-app/tally/internal/domain"
)

// Definition is the recurrence shape of a calendar event.
type Definition struct {
	Start     time.Time
	Recurring bool
	Frequency domain.Frequency
	Count     int // 1-based occurrence cap; 0 = unbounded
	End       *time.Time
}

// FromEvent builds a Definition from a stored calendar event.
func FromEvent(ev *domain.CalendarEvent) Definition {
	return Definition{
		Start:     ev.StartDate,
		Recurring: ev.Recurrence.IsRecurring,
		Frequency: ev.Recurrence.Frequency,
		Count:     ev.Recurrence.Count,
		End:       ev.Recurrence.EndDate,
	}
}

// Expand returns every occurrence date of def inside the half-open window
// [windowStart, windowEnd). The start date itself is occurrence 1. Monthly,
// quarterly and yearly steps preserve the start's day-of-month, clipped to
// the last day of shorter months (Jan 31 → Feb 28/29, never Mar 2/3).
//
// A non-recurring definition yields at most its start date. Count and End
// may both be set; whichever bound is reached first stops expansion.
func Expand(def Definition, windowStart, windowEnd time.Time) []time.Time {
	start := domain.DateOf(def.Start)
	ws := domain.DateOf(windowStart)
	we := domain.DateOf(windowEnd)

	if !ws.Before(we) || !start.Before(we) {
		return nil
	}

	if !def.Recurring {
		if !start.Before(ws) {
			return []time.Time{start}
		}
		return nil
	}

	var end *time.Time
	if def.End != nil {
		e := domain.DateOf(*def.End)
		end = &e
	}

	var out []time.Time
	for i := firstCandidate(def, start, ws); ; i++ {
		if def.Count > 0 && i+1 > def.Count {
			break
		}
		d := stepDate(start, def.Frequency, i)
		if end != nil && d.After(*end) {
			break
		}
		if !d.Before(we) {
			break
		}
		if !d.Before(ws) {
			out = append(out, d)
		}
	}
	return out
}

// OccurrenceID derives the stable synthetic identifier of one expanded
// instance: parent event id plus the concrete date.
func OccurrenceID(eventID string, date time.Time) string {
	return fmt.Sprintf("%s:%s", eventID, date.Format("2006-01-02"))
}

// firstCandidate skips ahead for fixed-length steps so a daily definition
// starting years before the window does not iterate day by day. Calendar
// steps (monthly and up) start from zero; their iteration count is bounded
// by the month distance, which is small.
func firstCandidate(def Definition, start, ws time.Time) int {
	if !start.Before(ws) {
		return 0
	}
	var stepDays int
	switch def.Frequency {
	case domain.FreqDaily:
		stepDays = 1
	case domain.FreqWeekly:
		stepDays = 7
	case domain.FreqBiWeekly:
		stepDays = 14
	default:
		return 0
	}
	days := int(ws.Sub(start).Hours() / 24)
	i := days / stepDays
	if i > 0 {
		// Back up one step so the boundary occurrence is re-checked
		// against the window rather than silently skipped.
		i--
	}
	return i
}

// stepDate returns occurrence index n (0-based) of a recurrence anchored at
// start.
func stepDate(start time.Time, freq domain.Frequency, n int) time.Time {
	switch freq {
	case domain.FreqDaily:
		return start.AddDate(0, 0, n)
	case domain.FreqWeekly:
		return start.AddDate(0, 0, 7*n)
	case domain.FreqBiWeekly:
		return start.AddDate(0, 0, 14*n)
	case domain.FreqMonthly:
		return addMonthsClipped(start, n)
	case domain.FreqQuarterly:
		return addMonthsClipped(start, 3*n)
	case domain.FreqYearly:
		return addMonthsClipped(start, 12*n)
	}
	return start
}

// addMonthsClipped adds n calendar months keeping the day-of-month, clamped
// to the target month's length. time.AddDate would normalize Jan 31 + 1
// month into Mar 2/3, which is exactly the behavior we must avoid.
func addMonthsClipped(t time.Time, n int) time.Time {
	year := t.Year()
	month := int(t.Month()) + n
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	day := t.Day()
	if last := daysInMonth(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
