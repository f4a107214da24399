package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/tally-app/tally/internal/domain"
)

// numericScale is the scale used when converting BigQuery NUMERIC values
// back into decimals.
const numericScale = 9

type SourceRow struct {
	SourceID string   `bigquery:"source_id"` // REQUIRED
	OwnerID  string   `bigquery:"owner_id"`  // REQUIRED
	Name     string   `bigquery:"name"`      // REQUIRED
	Kind     string   `bigquery:"kind"`      // REQUIRED
	Balance  *big.Rat `bigquery:"balance"`   // REQUIRED NUMERIC
	Status   string   `bigquery:"status"`    // REQUIRED

	InterestRate    *big.Rat            `bigquery:"interest_rate"`    // NULLABLE NUMERIC
	InterestPeriod  bigquery.NullString `bigquery:"interest_period"`  // NULLABLE
	TransferLatency bigquery.NullString `bigquery:"transfer_latency"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"`
	UpdatedTS time.Time `bigquery:"updated_ts"`
}

type CategoryRow struct {
	CategoryID string    `bigquery:"category_id"` // REQUIRED
	OwnerID    string    `bigquery:"owner_id"`    // REQUIRED
	Name       string    `bigquery:"name"`        // REQUIRED
	Type       string    `bigquery:"type"`        // REQUIRED
	CreatedTS  time.Time `bigquery:"created_ts"`
}

type TransactionRow struct {
	TransactionID string     `bigquery:"transaction_id"` // REQUIRED
	OwnerID       string     `bigquery:"owner_id"`       // REQUIRED
	Amount        *big.Rat   `bigquery:"amount"`         // REQUIRED NUMERIC
	Type          string     `bigquery:"type"`           // REQUIRED
	Date          civil.Date `bigquery:"date"`           // REQUIRED
	Description   string     `bigquery:"description"`
	CategoryID    string     `bigquery:"category_id"`
	SourceID      string     `bigquery:"source_id"`
	Provenance    string     `bigquery:"provenance"`

	CreatedTS time.Time `bigquery:"created_ts"`
	UpdatedTS time.Time `bigquery:"updated_ts"`
}

type EventRow struct {
	EventID     string `bigquery:"event_id"` // REQUIRED
	OwnerID     string `bigquery:"owner_id"` // REQUIRED
	Title       string `bigquery:"title"`    // REQUIRED
	Description string `bigquery:"description"`
	Type        string `bigquery:"type"` // REQUIRED

	Amount    *big.Rat   `bigquery:"amount"`     // NULLABLE NUMERIC
	StartDate civil.Date `bigquery:"start_date"` // REQUIRED

	IsRecurring     bool                `bigquery:"is_recurring"`
	Frequency       bigquery.NullString `bigquery:"frequency"`        // NULLABLE
	RecurrenceCount bigquery.NullInt64  `bigquery:"recurrence_count"` // NULLABLE
	EndDate         bigquery.NullDate   `bigquery:"end_date"`         // NULLABLE

	CategoryID bigquery.NullString `bigquery:"category_id"` // NULLABLE
	SourceID   bigquery.NullString `bigquery:"source_id"`   // NULLABLE

	Confidence bigquery.NullFloat64 `bigquery:"confidence"` // NULLABLE
	Pattern    bigquery.NullString  `bigquery:"pattern"`    // NULLABLE
	Generator  bigquery.NullString  `bigquery:"generator"`  // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"`
	UpdatedTS time.Time `bigquery:"updated_ts"`
}

// ─── Converters ─────────────────────────────────────────────────────────────

func ratFromDecimal(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func decimalFromRat(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, numericScale)
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func sourceRowFromDomain(src *domain.Source) *SourceRow {
	row := &SourceRow{
		SourceID:        src.ID,
		OwnerID:         src.OwnerID,
		Name:            src.Name,
		Kind:            string(src.Kind),
		Balance:         ratFromDecimal(src.Balance),
		Status:          string(src.Status),
		InterestPeriod:  nullString(src.InterestPeriod),
		TransferLatency: nullString(src.TransferLatency),
		CreatedTS:       src.CreatedAt,
		UpdatedTS:       src.UpdatedAt,
	}
	if src.InterestRate != nil {
		row.InterestRate = ratFromDecimal(*src.InterestRate)
	}
	return row
}

func (r *SourceRow) toDomain() *domain.Source {
	src := &domain.Source{
		ID:              r.SourceID,
		OwnerID:         r.OwnerID,
		Name:            r.Name,
		Kind:            domain.SourceKind(r.Kind),
		Balance:         decimalFromRat(r.Balance),
		Status:          domain.SourceStatus(r.Status),
		InterestPeriod:  r.InterestPeriod.StringVal,
		TransferLatency: r.TransferLatency.StringVal,
		CreatedAt:       r.CreatedTS,
		UpdatedAt:       r.UpdatedTS,
	}
	if r.InterestRate != nil {
		rate := decimalFromRat(r.InterestRate)
		src.InterestRate = &rate
	}
	return src
}

func categoryRowFromDomain(cat *domain.Category) *CategoryRow {
	return &CategoryRow{
		CategoryID: cat.ID,
		OwnerID:    cat.OwnerID,
		Name:       cat.Name,
		Type:       string(cat.Type),
		CreatedTS:  cat.CreatedAt,
	}
}

func (r *CategoryRow) toDomain() *domain.Category {
	return &domain.Category{
		ID:        r.CategoryID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Type:      domain.FlowType(r.Type),
		CreatedAt: r.CreatedTS,
	}
}

func transactionRowFromDomain(tx *domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID: tx.ID,
		OwnerID:       tx.OwnerID,
		Amount:        ratFromDecimal(tx.Amount),
		Type:          string(tx.Type),
		Date:          civil.DateOf(tx.Date),
		Description:   tx.Description,
		CategoryID:    tx.CategoryID,
		SourceID:      tx.SourceID,
		Provenance:    string(tx.Provenance),
		CreatedTS:     tx.CreatedAt,
		UpdatedTS:     tx.UpdatedAt,
	}
}

func (r *TransactionRow) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:          r.TransactionID,
		OwnerID:     r.OwnerID,
		Amount:      decimalFromRat(r.Amount),
		Type:        domain.FlowType(r.Type),
		Date:        r.Date.In(time.UTC),
		Description: r.Description,
		CategoryID:  r.CategoryID,
		SourceID:    r.SourceID,
		Provenance:  domain.Provenance(r.Provenance),
		CreatedAt:   r.CreatedTS,
		UpdatedAt:   r.UpdatedTS,
	}
}

func eventRowFromDomain(ev *domain.CalendarEvent) *EventRow {
	row := &EventRow{
		EventID:     ev.ID,
		OwnerID:     ev.OwnerID,
		Title:       ev.Title,
		Description: ev.Description,
		Type:        string(ev.Type),
		StartDate:   civil.DateOf(ev.StartDate),
		IsRecurring: ev.Recurrence.IsRecurring,
		CategoryID:  nullString(ev.CategoryID),
		SourceID:    nullString(ev.SourceID),
		CreatedTS:   ev.CreatedAt,
		UpdatedTS:   ev.UpdatedAt,
	}
	if ev.Amount != nil {
		row.Amount = ratFromDecimal(*ev.Amount)
	}
	if ev.Recurrence.IsRecurring {
		row.Frequency = nullString(string(ev.Recurrence.Frequency))
		if ev.Recurrence.Count > 0 {
			row.RecurrenceCount = bigquery.NullInt64{Int64: int64(ev.Recurrence.Count), Valid: true}
		}
		if ev.Recurrence.EndDate != nil {
			row.EndDate = bigquery.NullDate{Date: civil.DateOf(*ev.Recurrence.EndDate), Valid: true}
		}
	}
	if ev.Metadata != nil {
		row.Confidence = bigquery.NullFloat64{Float64: ev.Metadata.Confidence, Valid: true}
		row.Pattern = nullString(ev.Metadata.Pattern)
		row.Generator = nullString(ev.Metadata.Generator)
	}
	return row
}

func (r *EventRow) toDomain() *domain.CalendarEvent {
	ev := &domain.CalendarEvent{
		ID:          r.EventID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Type:        domain.EventType(r.Type),
		StartDate:   r.StartDate.In(time.UTC),
		Recurrence: domain.Recurrence{
			IsRecurring: r.IsRecurring,
			Frequency:   domain.Frequency(r.Frequency.StringVal),
			Count:       int(r.RecurrenceCount.Int64),
		},
		CategoryID: r.CategoryID.StringVal,
		SourceID:   r.SourceID.StringVal,
		CreatedAt:  r.CreatedTS,
		UpdatedAt:  r.UpdatedTS,
	}
	if r.Amount != nil {
		amount := decimalFromRat(r.Amount)
		ev.Amount = &amount
	}
	if r.EndDate.Valid {
		end := r.EndDate.Date.In(time.UTC)
		ev.Recurrence.EndDate = &end
	}
	if r.Confidence.Valid || r.Generator.Valid {
		ev.Metadata = &domain.PredictionMeta{
			Confidence: r.Confidence.Float64,
			Pattern:    r.Pattern.StringVal,
			Generator:  r.Generator.StringVal,
		}
	}
	return ev
}
