package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/store"
)

// CreateEvent implements store.EventStore.
func (s *Store) CreateEvent(ctx context.Context, ev *domain.CalendarEvent) error {
	return s.insert(ctx, eventsTable, eventRowFromDomain(ev))
}

// GetEvent implements store.EventStore.
func (s *Store) GetEvent(ctx context.Context, ownerID, id string) (*domain.CalendarEvent, error) {
	q := s.client.Query(`
		SELECT *
		FROM ` + s.table(eventsTable) + `
		WHERE event_id = @id AND owner_id = @owner
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
		{Name: "owner", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetEvent: query read: %w", err)
	}
	var row EventRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, domain.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("GetEvent: iter next: %w", err)
	}
	return row.toDomain(), nil
}

// UpdateEvent implements store.EventStore.
func (s *Store) UpdateEvent(ctx context.Context, ev *domain.CalendarEvent) error {
	row := eventRowFromDomain(ev)
	q := s.client.Query(`
		UPDATE ` + s.table(eventsTable) + `
		SET title = @title,
		    description = @description,
		    type = @type,
		    amount = @amount,
		    start_date = @start_date,
		    is_recurring = @is_recurring,
		    frequency = @frequency,
		    recurrence_count = @recurrence_count,
		    end_date = @end_date,
		    category_id = @category_id,
		    source_id = @source_id,
		    confidence = @confidence,
		    pattern = @pattern,
		    generator = @generator,
		    updated_ts = @updated_ts
		WHERE event_id = @id AND owner_id = @owner
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "title", Value: row.Title},
		{Name: "description", Value: row.Description},
		{Name: "type", Value: row.Type},
		{Name: "amount", Value: row.Amount},
		{Name: "start_date", Value: row.StartDate},
		{Name: "is_recurring", Value: row.IsRecurring},
		{Name: "frequency", Value: row.Frequency},
		{Name: "recurrence_count", Value: row.RecurrenceCount},
		{Name: "end_date", Value: row.EndDate},
		{Name: "category_id", Value: row.CategoryID},
		{Name: "source_id", Value: row.SourceID},
		{Name: "confidence", Value: row.Confidence},
		{Name: "pattern", Value: row.Pattern},
		{Name: "generator", Value: row.Generator},
		{Name: "updated_ts", Value: row.UpdatedTS},
		{Name: "id", Value: row.EventID},
		{Name: "owner", Value: row.OwnerID},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateEvent: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteEvent implements store.EventStore.
func (s *Store) DeleteEvent(ctx context.Context, ownerID, id string) error {
	q := s.client.Query(`
		DELETE FROM ` + s.table(eventsTable) + `
		WHERE event_id = @id AND owner_id = @owner
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
		{Name: "owner", Value: ownerID},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("DeleteEvent: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListEvents implements store.EventStore. The filter's window semantics
// are documented on store.EventFilter; the recurring branch matches
// definitions whose effective range intersects the window so the caller
// can expand them.
func (s *Store) ListEvents(ctx context.Context, ownerID string, f store.EventFilter) ([]*domain.CalendarEvent, error) {
	query := `
		SELECT *
		FROM ` + s.table(eventsTable) + `
		WHERE owner_id = @owner
	`
	params := []bigquery.QueryParameter{
		{Name: "owner", Value: ownerID},
	}

	switch {
	case f.Recurring != nil && *f.Recurring:
		query += ` AND is_recurring`
		if !f.End.IsZero() {
			query += ` AND start_date < @end_date`
			params = append(params, bigquery.QueryParameter{Name: "end_date", Value: civil.DateOf(f.End)})
		}
		if !f.Start.IsZero() {
			query += ` AND (end_date IS NULL OR end_date >= @start_date)`
			params = append(params, bigquery.QueryParameter{Name: "start_date", Value: civil.DateOf(f.Start)})
		}
	default:
		if f.Recurring != nil {
			query += ` AND NOT is_recurring`
		}
		if !f.Start.IsZero() {
			query += ` AND start_date >= @start_date`
			params = append(params, bigquery.QueryParameter{Name: "start_date", Value: civil.DateOf(f.Start)})
		}
		if !f.End.IsZero() {
			query += ` AND start_date < @end_date`
			params = append(params, bigquery.QueryParameter{Name: "end_date", Value: civil.DateOf(f.End)})
		}
	}

	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		query += ` AND type IN UNNEST(@types)`
		params = append(params, bigquery.QueryParameter{Name: "types", Value: types})
	}

	query += ` ORDER BY start_date, created_ts`

	q := s.client.Query(query)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListEvents: query read: %w", err)
	}
	var out []*domain.CalendarEvent
	for {
		var row EventRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListEvents: iter next: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}
