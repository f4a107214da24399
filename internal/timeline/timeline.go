// Package timeline merges persisted calendar events, expanded recurrences
// and transaction-derived entries into one ordered, day-bucketed view.
package timeline

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-app/tally/internal/domain"
)

// Kind tags the origin of a timeline entry.
type Kind string

const (
	KindEvent       Kind = "event"
	KindOccurrence  Kind = "occurrence"
	KindTransaction Kind = "transaction"
)

// Entry is one item on the timeline. It is a tagged variant over the three
// origins rather than a hierarchy; the common sortable key is (Date, type
// precedence, ID).
type Entry struct {
	ID          string           `json:"id"`
	Kind        Kind             `json:"kind"`
	EventID     string           `json:"event_id,omitempty"` // parent for occurrences
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Type        domain.EventType `json:"type"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Date        time.Time        `json:"date"`
	CategoryID  string           `json:"category_id,omitempty"`
	SourceID    string           `json:"source_id,omitempty"`

	// IsTransaction marks entries derived from posted transactions;
	// they are not editable as calendar items.
	IsTransaction bool `json:"is_transaction"`

	Metadata *domain.PredictionMeta `json:"metadata,omitempty"`
}

// Day is one bucket of the timeline with its aggregate. Entries beyond the
// display cap are counted in Overflow. Reminders and predictions never
// contribute to the aggregate.
type Day struct {
	Date     time.Time       `json:"date"`
	Entries  []Entry         `json:"entries"`
	Overflow int             `json:"overflow"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// Result is a reconciled timeline over a half-open window.
type Result struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  []Day     `json:"days"`
}

// typePrecedence orders entries within one day: income, expense, reminder,
// prediction.
func typePrecedence(t domain.EventType) int {
	switch t {
	case domain.EventIncome:
		return 0
	case domain.EventExpense:
		return 1
	case domain.EventReminder:
		return 2
	case domain.EventPrediction:
		return 3
	}
	return 4
}

// countsTowardAggregate reports whether an entry contributes to the day's
// income/expense totals.
func countsTowardAggregate(e Entry) bool {
	if e.Amount == nil {
		return false
	}
	return e.Type == domain.EventIncome || e.Type == domain.EventExpense
}
