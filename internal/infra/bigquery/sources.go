package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	"github.com/tally-app/tally/internal/domain"
)

// CreateSource implements store.SourceStore.
func (s *Store) CreateSource(ctx context.Context, src *domain.Source) error {
	return s.insert(ctx, sourcesTable, sourceRowFromDomain(src))
}

// GetSource implements store.SourceStore.
func (s *Store) GetSource(ctx context.Context, ownerID, id string) (*domain.Source, error) {
	q := s.client.Query(`
		SELECT *
		FROM ` + s.table(sourcesTable) + `
		WHERE source_id = @id AND owner_id = @owner
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
		{Name: "owner", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetSource: query read: %w", err)
	}
	var row SourceRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, domain.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("GetSource: iter next: %w", err)
	}
	return row.toDomain(), nil
}

// ListSources implements store.SourceStore.
func (s *Store) ListSources(ctx context.Context, ownerID string) ([]*domain.Source, error) {
	q := s.client.Query(`
		SELECT *
		FROM ` + s.table(sourcesTable) + `
		WHERE owner_id = @owner
		ORDER BY name
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListSources: query read: %w", err)
	}
	var out []*domain.Source
	for {
		var row SourceRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListSources: iter next: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpdateSource implements store.SourceStore. The balance column is excluded:
// only UpdateSourceBalance may change it.
func (s *Store) UpdateSource(ctx context.Context, src *domain.Source) error {
	q := s.client.Query(`
		UPDATE ` + s.table(sourcesTable) + `
		SET name = @name,
		    kind = @kind,
		    status = @status,
		    transfer_latency = @transfer_latency,
		    updated_ts = @updated_ts
		WHERE source_id = @id AND owner_id = @owner
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "name", Value: src.Name},
		{Name: "kind", Value: string(src.Kind)},
		{Name: "status", Value: string(src.Status)},
		{Name: "transfer_latency", Value: src.TransferLatency},
		{Name: "updated_ts", Value: src.UpdatedAt},
		{Name: "id", Value: src.ID},
		{Name: "owner", Value: src.OwnerID},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateSource: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateSourceBalance implements the compare-and-swap balance update. Zero
// affected rows means either a lost race or a missing source; a follow-up
// existence check tells the two apart.
func (s *Store) UpdateSourceBalance(ctx context.Context, ownerID, id string, old, new decimal.Decimal) error {
	q := s.client.Query(`
		UPDATE ` + s.table(sourcesTable) + `
		SET balance = @new_balance,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE source_id = @id AND owner_id = @owner AND balance = @old_balance
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "new_balance", Value: ratFromDecimal(new)},
		{Name: "id", Value: id},
		{Name: "owner", Value: ownerID},
		{Name: "old_balance", Value: ratFromDecimal(old)},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateSourceBalance: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := s.GetSource(ctx, ownerID, id); err != nil {
		return err
	}
	return domain.ErrConflict
}
