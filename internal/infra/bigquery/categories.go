package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/tally-app/tally/internal/domain"
)

// CreateCategory implements store.CategoryStore.
func (s *Store) CreateCategory(ctx context.Context, cat *domain.Category) error {
	return s.insert(ctx, categoriesTable, categoryRowFromDomain(cat))
}

// GetCategory implements store.CategoryStore.
func (s *Store) GetCategory(ctx context.Context, ownerID, id string) (*domain.Category, error) {
	q := s.client.Query(`
		SELECT *
		FROM ` + s.table(categoriesTable) + `
		WHERE category_id = @id AND owner_id = @owner
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
		{Name: "owner", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetCategory: query read: %w", err)
	}
	var row CategoryRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, domain.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("GetCategory: iter next: %w", err)
	}
	return row.toDomain(), nil
}

// ListCategories implements store.CategoryStore.
func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]*domain.Category, error) {
	q := s.client.Query(`
		SELECT *
		FROM ` + s.table(categoriesTable) + `
		WHERE owner_id = @owner
		ORDER BY name
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query read: %w", err)
	}
	var out []*domain.Category
	for {
		var row CategoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iter next: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}
