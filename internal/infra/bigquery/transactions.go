package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/tally-app/tally/internal/domain"
)

// CreateTransaction implements store.TransactionStore.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return s.insert(ctx, transactionsTable, transactionRowFromDomain(tx))
}

// GetTransaction implements store.TransactionStore.
func (s *Store) GetTransaction(ctx context.Context, ownerID, id string) (*domain.Transaction, error) {
	q := s.client.Query(`
		SELECT *
		FROM ` + s.table(transactionsTable) + `
		WHERE transaction_id = @id AND owner_id = @owner
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
		{Name: "owner", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: query read: %w", err)
	}
	var row TransactionRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, domain.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("GetTransaction: iter next: %w", err)
	}
	return row.toDomain(), nil
}

// UpdateTransaction implements store.TransactionStore.
func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	q := s.client.Query(`
		UPDATE ` + s.table(transactionsTable) + `
		SET amount = @amount,
		    type = @type,
		    date = @date,
		    description = @description,
		    category_id = @category_id,
		    source_id = @source_id,
		    updated_ts = @updated_ts
		WHERE transaction_id = @id AND owner_id = @owner
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "amount", Value: ratFromDecimal(tx.Amount)},
		{Name: "type", Value: string(tx.Type)},
		{Name: "date", Value: civil.DateOf(tx.Date)},
		{Name: "description", Value: tx.Description},
		{Name: "category_id", Value: tx.CategoryID},
		{Name: "source_id", Value: tx.SourceID},
		{Name: "updated_ts", Value: tx.UpdatedAt},
		{Name: "id", Value: tx.ID},
		{Name: "owner", Value: tx.OwnerID},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteTransaction implements store.TransactionStore.
func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	q := s.client.Query(`
		DELETE FROM ` + s.table(transactionsTable) + `
		WHERE transaction_id = @id AND owner_id = @owner
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
		{Name: "owner", Value: ownerID},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListTransactionsByDateRange implements store.TransactionStore with a
// half-open [start, end) window.
func (s *Store) ListTransactionsByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]*domain.Transaction, error) {
	q := s.client.Query(`
		SELECT *
		FROM ` + s.table(transactionsTable) + `
		WHERE owner_id = @owner
		  AND date >= @start_date
		  AND date < @end_date
		ORDER BY date, created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: ownerID},
		{Name: "start_date", Value: civil.DateOf(start)},
		{Name: "end_date", Value: civil.DateOf(end)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsByDateRange: query read: %w", err)
	}
	var out []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactionsByDateRange: iter next: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}
