// Package ledger owns the invariant that a source balance equals the sum of
// signed amounts of the transactions posted against it. Every balance
// mutation in the system flows through Apply or Reverse; the transaction
// lifecycle operations are compound wrappers that keep the invariant under
// create, edit and delete.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/store"
)

const (
	// casAttempts bounds the internal retry on store-level conflicts
	// before ErrConflict is surfaced to the caller.
	casAttempts = 3
	casBackoff  = 25 * time.Millisecond
)

// Ledger serializes balance mutations per source id.
type Ledger struct {
	sources store.SourceStore
	txs     store.TransactionStore
	cats    store.CategoryStore
	locks   *keyedLocks
	log     zerolog.Logger
}

// New creates a Ledger over the given stores.
func New(st store.Store, log zerolog.Logger) *Ledger {
	return &Ledger{
		sources: st,
		txs:     st,
		cats:    st,
		locks:   newKeyedLocks(),
		log:     log.With().Str("component", "ledger").Logger(),
	}
}

// Apply atomically adds signedAmount to the source balance and returns the
// new balance. A negative amount that would push the balance below zero is
// rejected with domain.ErrInsufficientFunds unless allowOverdraft is set.
// Positive amounts always succeed on an available source.
func (l *Ledger) Apply(ctx context.Context, ownerID, sourceID string, signedAmount decimal.Decimal, allowOverdraft bool) (decimal.Decimal, error) {
	mu := l.locks.get(sourceID)
	mu.Lock()
	defer mu.Unlock()
	return l.applyLocked(ctx, ownerID, sourceID, signedAmount, allowOverdraft)
}

// Reverse undoes a previous Apply by posting the negated amount. Reversals
// are always allowed to go negative: undoing an income must succeed even if
// the balance has since been spent.
func (l *Ledger) Reverse(ctx context.Context, ownerID, sourceID string, signedAmount decimal.Decimal) (decimal.Decimal, error) {
	return l.Apply(ctx, ownerID, sourceID, signedAmount.Neg(), true)
}

// CanAfford is the advisory pre-submission check that the source balance
// covers expenseAmount. The authoritative check happens inside Apply at
// commit time.
func (l *Ledger) CanAfford(ctx context.Context, ownerID, sourceID string, expenseAmount decimal.Decimal) (bool, error) {
	src, err := l.sources.GetSource(ctx, ownerID, sourceID)
	if err != nil {
		return false, err
	}
	return src.Balance.GreaterThanOrEqual(expenseAmount), nil
}

// applyLocked performs the CAS balance update. The caller must hold the
// source lock. Conflicts from the store are retried with backoff: the
// in-process lock makes them impossible within one instance, but a second
// instance sharing the store can still race.
func (l *Ledger) applyLocked(ctx context.Context, ownerID, sourceID string, signedAmount decimal.Decimal, allowOverdraft bool) (decimal.Decimal, error) {
	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		src, err := l.sources.GetSource(ctx, ownerID, sourceID)
		if err != nil {
			return decimal.Zero, err
		}
		if !src.CanPost() {
			return decimal.Zero, domain.ErrSourceLocked
		}
		newBalance := src.Balance.Add(signedAmount)
		if signedAmount.IsNegative() && !allowOverdraft && newBalance.IsNegative() {
			return decimal.Zero, domain.ErrInsufficientFunds
		}
		err = l.sources.UpdateSourceBalance(ctx, ownerID, sourceID, src.Balance, newBalance)
		if err == nil {
			return newBalance, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return decimal.Zero, err
		}
		lastErr = err
		l.log.Debug().Str("source_id", sourceID).Int("attempt", attempt+1).Msg("balance CAS lost race, retrying")
		select {
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		case <-time.After(casBackoff << attempt):
		}
	}
	return decimal.Zero, lastErr
}
