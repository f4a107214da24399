package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tally-app/tally/internal/domain"
)

// PostParams holds the inputs for posting a new transaction.
type PostParams struct {
	Amount         decimal.Decimal
	Type           domain.FlowType
	Date           time.Time
	Description    string
	CategoryID     string
	SourceID       string
	Provenance     domain.Provenance
	AllowOverdraft bool
}

// Patch describes an edit to an existing transaction. Nil fields are left
// unchanged. Edits that touch only the date or description do not interact
// with the ledger; amount, type or source changes trigger a reverse+apply
// pair that either fully succeeds or leaves both balances untouched.
type Patch struct {
	Amount         *decimal.Decimal
	Type           *domain.FlowType
	Date           *time.Time
	Description    *string
	CategoryID     *string
	SourceID       *string
	AllowOverdraft bool
}

// PostTransaction validates, applies the signed amount to the source and
// persists the transaction. A failed persist rolls the balance back.
func (l *Ledger) PostTransaction(ctx context.Context, ownerID string, p PostParams) (*domain.Transaction, error) {
	if err := l.validatePost(ctx, ownerID, p); err != nil {
		return nil, err
	}
	if p.Provenance == "" {
		p.Provenance = domain.ProvenanceManual
	}

	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Amount:      p.Amount,
		Type:        p.Type,
		Date:        domain.DateOf(p.Date),
		Description: p.Description,
		CategoryID:  p.CategoryID,
		SourceID:    p.SourceID,
		Provenance:  p.Provenance,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mu := l.locks.get(p.SourceID)
	mu.Lock()
	defer mu.Unlock()

	newBalance, err := l.applyLocked(ctx, ownerID, p.SourceID, tx.SignedAmount(), p.AllowOverdraft || p.Type == domain.FlowIncome)
	if err != nil {
		return nil, err
	}
	if err := l.txs.CreateTransaction(ctx, tx); err != nil {
		// Compensate so the balance does not drift from its history.
		if _, rbErr := l.applyLocked(ctx, ownerID, p.SourceID, tx.SignedAmount().Neg(), true); rbErr != nil {
			l.log.Error().Err(rbErr).Str("source_id", p.SourceID).Msg("rollback after failed transaction create")
		}
		return nil, err
	}

	l.log.Info().
		Str("transaction_id", tx.ID).
		Str("source_id", p.SourceID).
		Str("type", string(tx.Type)).
		Str("amount", tx.Amount.String()).
		Str("balance", newBalance.String()).
		Msg("transaction posted")
	return tx, nil
}

// EditTransaction applies a patch. When the amount, type or source changes
// the old posting is reversed and the new one applied under both source
// locks, acquired in a fixed global order; any failure restores the prior
// balances before returning.
func (l *Ledger) EditTransaction(ctx context.Context, ownerID, id string, patch Patch) (*domain.Transaction, error) {
	old, err := l.txs.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updated := *old
	if patch.Amount != nil {
		updated.Amount = *patch.Amount
	}
	if patch.Type != nil {
		updated.Type = *patch.Type
	}
	if patch.Date != nil {
		updated.Date = domain.DateOf(*patch.Date)
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		updated.CategoryID = *patch.CategoryID
	}
	if patch.SourceID != nil {
		updated.SourceID = *patch.SourceID
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := l.validateTransaction(ctx, ownerID, &updated); err != nil {
		return nil, err
	}

	touchesLedger := !updated.Amount.Equal(old.Amount) ||
		updated.Type != old.Type ||
		updated.SourceID != old.SourceID
	if !touchesLedger {
		if err := l.txs.UpdateTransaction(ctx, &updated); err != nil {
			return nil, err
		}
		return &updated, nil
	}

	oldSigned := old.SignedAmount()
	newSigned := updated.SignedAmount()

	unlock := l.locks.lockPair(old.SourceID, updated.SourceID)
	defer unlock()

	if _, err := l.applyLocked(ctx, ownerID, old.SourceID, oldSigned.Neg(), true); err != nil {
		return nil, err
	}
	allowOverdraft := patch.AllowOverdraft || updated.Type == domain.FlowIncome
	if _, err := l.applyLocked(ctx, ownerID, updated.SourceID, newSigned, allowOverdraft); err != nil {
		l.restore(ctx, ownerID, old.SourceID, oldSigned)
		return nil, err
	}
	if err := l.txs.UpdateTransaction(ctx, &updated); err != nil {
		l.restore(ctx, ownerID, updated.SourceID, newSigned.Neg())
		l.restore(ctx, ownerID, old.SourceID, oldSigned)
		return nil, err
	}

	l.log.Info().
		Str("transaction_id", id).
		Str("old_source", old.SourceID).
		Str("new_source", updated.SourceID).
		Msg("transaction edited")
	return &updated, nil
}

// DeleteTransaction reverses the posting and removes the transaction.
func (l *Ledger) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	tx, err := l.txs.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}

	mu := l.locks.get(tx.SourceID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := l.applyLocked(ctx, ownerID, tx.SourceID, tx.SignedAmount().Neg(), true); err != nil {
		return err
	}
	if err := l.txs.DeleteTransaction(ctx, ownerID, id); err != nil {
		l.restore(ctx, ownerID, tx.SourceID, tx.SignedAmount())
		return err
	}

	l.log.Info().Str("transaction_id", id).Str("source_id", tx.SourceID).Msg("transaction deleted")
	return nil
}

// restore re-applies a signed amount during rollback. The caller holds the
// relevant locks; a failure here is logged and swallowed since there is no
// further compensation possible.
func (l *Ledger) restore(ctx context.Context, ownerID, sourceID string, signed decimal.Decimal) {
	if _, err := l.applyLocked(ctx, ownerID, sourceID, signed, true); err != nil {
		l.log.Error().Err(err).Str("source_id", sourceID).Msg("balance restore failed")
	}
}

func (l *Ledger) validatePost(ctx context.Context, ownerID string, p PostParams) error {
	tx := &domain.Transaction{
		Amount:     p.Amount,
		Type:       p.Type,
		Date:       p.Date,
		CategoryID: p.CategoryID,
		SourceID:   p.SourceID,
	}
	return l.validateTransaction(ctx, ownerID, tx)
}

// validateTransaction enforces the write-time invariants: positive amount,
// known flow type, category type consistent with the transaction type.
func (l *Ledger) validateTransaction(ctx context.Context, ownerID string, tx *domain.Transaction) error {
	if !tx.Amount.IsPositive() {
		return domain.Validationf("amount", "must be positive")
	}
	if !tx.Type.Valid() {
		return domain.Validationf("type", "unknown transaction type %q", tx.Type)
	}
	if tx.Date.IsZero() {
		return domain.Validationf("date", "is required")
	}
	if tx.SourceID == "" {
		return domain.Validationf("source_id", "is required")
	}
	if tx.CategoryID == "" {
		return domain.Validationf("category_id", "is required")
	}
	cat, err := l.cats.GetCategory(ctx, ownerID, tx.CategoryID)
	if err != nil {
		return err
	}
	if cat.Type != tx.Type {
		return domain.Validationf("category_id", "category %q is %s but transaction is %s", cat.Name, cat.Type, tx.Type)
	}
	return nil
}
