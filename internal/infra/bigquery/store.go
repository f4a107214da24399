// Package bigquery persists the engine's documents in BigQuery tables. It
// mirrors the store interfaces one to one: inserts go through the streaming
// inserter, reads through parameterized queries, updates and deletes through
// DML jobs. The balance compare-and-swap relies on the DML affected-row
// count, so it stays correct even with several API instances sharing the
// dataset.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/tally-app/tally/internal/store"
)

const (
	sourcesTable      = "sources"
	categoriesTable   = "categories"
	transactionsTable = "transactions"
	eventsTable       = "events"
)

// Store is a BigQuery-backed implementation of store.Store.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewStore creates a Store over the given project and dataset. Credentials
// come from the environment.
func NewStore(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &Store{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", s.projectID, s.datasetID, name)
}

func (s *Store) insert(ctx context.Context, table string, row interface{}) error {
	inserter := s.client.DatasetInProject(s.projectID, s.datasetID).Table(table).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	return nil
}

// runDML executes a DML statement and returns the number of affected rows.
func (s *Store) runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}
	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}
	return 0, nil
}

// Ensure Store implements the full persistence surface.
var _ store.Store = (*Store)(nil)
