// Package domain contains the core entities of the ledger and calendar
// engine. It has no infrastructure imports; stores and services depend on it,
// never the other way around.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind classifies a funding source.
type SourceKind string

const (
	SourceKindBank    SourceKind = "bank"
	SourceKindEWallet SourceKind = "e-wallet"
	SourceKindCash    SourceKind = "cash"
	SourceKindOther   SourceKind = "other"
)

// SourceStatus controls whether a source accepts ledger postings.
type SourceStatus string

const (
	SourceStatusAvailable   SourceStatus = "available"
	SourceStatusLocked      SourceStatus = "locked"
	SourceStatusUnavailable SourceStatus = "unavailable"
)

// Source is a funding account with an authoritative running balance.
// Balance is mutated only through the ledger's apply/reverse operations,
// never set directly except at creation.
type Source struct {
	ID      string          `json:"id"`
	OwnerID string          `json:"owner_id"`
	Name    string          `json:"name"`
	Kind    SourceKind      `json:"kind"`
	Balance decimal.Decimal `json:"balance"`
	Status  SourceStatus    `json:"status"`

	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty"`
	InterestPeriod  string           `json:"interest_period,omitempty"`
	TransferLatency string           `json:"transfer_latency,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanPost reports whether the source accepts new ledger postings.
func (s *Source) CanPost() bool {
	return s.Status == SourceStatusAvailable
}

// FlowType is the direction of money for categories and transactions.
type FlowType string

const (
	FlowExpense FlowType = "expense"
	FlowIncome  FlowType = "income"
)

// Valid reports whether the flow type is one of the known values.
func (f FlowType) Valid() bool {
	return f == FlowExpense || f == FlowIncome
}

// Category is an owner-scoped label for transactions.
type Category struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Type      FlowType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Provenance records how a transaction came to exist.
type Provenance string

const (
	ProvenanceManual              Provenance = "manual"
	ProvenancePredictionConfirmed Provenance = "prediction_confirmed"
	ProvenanceAIAssisted          Provenance = "ai_assisted"
)

// Transaction is a posted ledger entry. Amount is always a positive
// magnitude; Type determines the sign applied to the source balance.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        FlowType        `json:"type"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	SourceID    string          `json:"source_id"`
	Provenance  Provenance      `json:"provenance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SignedAmount returns the amount with the sign the ledger applies to the
// source balance: negative for expenses, positive for income.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == FlowExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// EventType classifies calendar events.
type EventType string

const (
	EventExpense    EventType = "expense"
	EventIncome     EventType = "income"
	EventReminder   EventType = "reminder"
	EventPrediction EventType = "prediction"
)

// Valid reports whether the event type is one of the known values.
func (e EventType) Valid() bool {
	switch e {
	case EventExpense, EventIncome, EventReminder, EventPrediction:
		return true
	}
	return false
}

// RequiresAmount reports whether events of this type must carry an amount.
func (e EventType) RequiresAmount() bool {
	return e == EventExpense || e == EventIncome || e == EventPrediction
}

// Frequency is the recurrence step of a calendar event.
type Frequency string

const (
	FreqDaily     Frequency = "daily"
	FreqWeekly    Frequency = "weekly"
	FreqBiWeekly  Frequency = "bi-weekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	FreqYearly    Frequency = "yearly"
)

// Valid reports whether the frequency is one of the known values.
func (f Frequency) Valid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqBiWeekly, FreqMonthly, FreqQuarterly, FreqYearly:
		return true
	}
	return false
}

// Recurrence describes how a calendar event repeats. Count and EndDate may
// both be set; expansion stops at whichever bound is reached first.
type Recurrence struct {
	IsRecurring bool       `json:"is_recurring"`
	Frequency   Frequency  `json:"frequency,omitempty"`
	Count       int        `json:"count,omitempty"` // 0 = unbounded
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// PredictionMeta is advisory metadata attached to prediction events by the
// generator that proposed them.
type PredictionMeta struct {
	Confidence float64 `json:"confidence"`
	Pattern    string  `json:"pattern"`
	Generator  string  `json:"generator"`
}

// CalendarEvent is a scheduled item independent of any posted transaction.
type CalendarEvent struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"owner_id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Type        EventType        `json:"type"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	StartDate   time.Time        `json:"start_date"`
	Recurrence  Recurrence       `json:"recurrence"`
	CategoryID  string           `json:"category_id,omitempty"`
	SourceID    string           `json:"source_id,omitempty"`
	Metadata    *PredictionMeta  `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateOf truncates a timestamp to a UTC calendar day. All window arithmetic
// in the engine works on day boundaries.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
