// Package prediction manages the lifecycle of AI-proposed bill events:
// proposed predictions are either accepted, materializing a real transaction
// through the ledger, or dismissed. Both outcomes are terminal.
package prediction

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/ledger"
	"github.com/tally-app/tally/internal/store"
)

// Manager drives prediction state transitions. A per-event mutex serializes
// concurrent accept/dismiss calls for the same prediction so a single
// accepted prediction can never post two transactions.
type Manager struct {
	store     store.Store
	ledger    *ledger.Ledger
	generator Generator
	locks     *eventLocks
	log       zerolog.Logger
}

// NewManager creates a Manager. generator may be nil when proposal
// generation is handled out of process.
func NewManager(st store.Store, lg *ledger.Ledger, generator Generator, log zerolog.Logger) *Manager {
	return &Manager{
		store:     st,
		ledger:    lg,
		generator: generator,
		locks:     newEventLocks(),
		log:       log.With().Str("component", "prediction").Logger(),
	}
}

// Accept materializes a proposed prediction into a posted transaction with
// prediction_confirmed provenance, then deletes the prediction event. When
// the ledger posting fails the prediction stays proposed and the error is
// returned untouched. A second Accept for the same id finds the event gone
// and returns domain.ErrNotFound.
func (m *Manager) Accept(ctx context.Context, ownerID, eventID string) (*domain.Transaction, error) {
	mu := m.locks.get(eventID)
	mu.Lock()
	defer mu.Unlock()

	ev, err := m.store.GetEvent(ctx, ownerID, eventID)
	if err != nil {
		return nil, err
	}
	if ev.Type != domain.EventPrediction {
		return nil, domain.ErrAlreadyResolved
	}
	if ev.Amount == nil {
		return nil, domain.Validationf("amount", "prediction has no amount")
	}
	if ev.SourceID == "" {
		return nil, domain.Validationf("source_id", "prediction has no source")
	}
	cat, err := m.store.GetCategory(ctx, ownerID, ev.CategoryID)
	if err != nil {
		return nil, err
	}

	tx, err := m.ledger.PostTransaction(ctx, ownerID, ledger.PostParams{
		Amount:      *ev.Amount,
		Type:        cat.Type,
		Date:        ev.StartDate,
		Description: ev.Title,
		CategoryID:  ev.CategoryID,
		SourceID:    ev.SourceID,
		Provenance:  domain.ProvenancePredictionConfirmed,
	})
	if err != nil {
		return nil, err
	}

	if err := m.store.DeleteEvent(ctx, ownerID, eventID); err != nil {
		// Undo the posting rather than leave both the prediction and
		// its materialized transaction behind.
		if delErr := m.ledger.DeleteTransaction(ctx, ownerID, tx.ID); delErr != nil {
			m.log.Error().Err(delErr).Str("transaction_id", tx.ID).Msg("compensating delete failed")
		}
		return nil, err
	}

	m.log.Info().
		Str("event_id", eventID).
		Str("transaction_id", tx.ID).
		Str("amount", tx.Amount.String()).
		Msg("prediction accepted")
	return tx, nil
}

// Dismiss deletes a proposed prediction without touching the ledger. A
// repeat call returns domain.ErrNotFound; a non-prediction event id returns
// domain.ErrAlreadyResolved.
func (m *Manager) Dismiss(ctx context.Context, ownerID, eventID string) error {
	mu := m.locks.get(eventID)
	mu.Lock()
	defer mu.Unlock()

	ev, err := m.store.GetEvent(ctx, ownerID, eventID)
	if err != nil {
		return err
	}
	if ev.Type != domain.EventPrediction {
		return domain.ErrAlreadyResolved
	}
	if err := m.store.DeleteEvent(ctx, ownerID, eventID); err != nil {
		return err
	}

	m.log.Info().Str("event_id", eventID).Msg("prediction dismissed")
	return nil
}
