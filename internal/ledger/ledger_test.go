package ledger

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/logger"
	"github.com/tally-app/tally/internal/store/inmemory"
)

const testOwner = "owner-1"

func newTestLedger(t *testing.T) (*Ledger, *inmemory.Store) {
	t.Helper()
	st := inmemory.NewStore()
	return New(st, logger.NewWithWriter(testWriter{t})), st
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func seedSource(t *testing.T, st *inmemory.Store, id string, balance string) {
	t.Helper()
	err := st.CreateSource(context.Background(), &domain.Source{
		ID:      id,
		OwnerID: testOwner,
		Name:    id,
		Kind:    domain.SourceKindBank,
		Balance: decimal.RequireFromString(balance),
		Status:  domain.SourceStatusAvailable,
	})
	require.NoError(t, err)
}

func seedCategory(t *testing.T, st *inmemory.Store, id string, flow domain.FlowType) {
	t.Helper()
	err := st.CreateCategory(context.Background(), &domain.Category{
		ID:      id,
		OwnerID: testOwner,
		Name:    id,
		Type:    flow,
	})
	require.NoError(t, err)
}

func balanceOf(t *testing.T, st *inmemory.Store, id string) decimal.Decimal {
	t.Helper()
	src, err := st.GetSource(context.Background(), testOwner, id)
	require.NoError(t, err)
	return src.Balance
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("credit increases the balance", func(t *testing.T) {
		lg, st := newTestLedger(t)
		seedSource(t, st, "src-1", "100")

		got, err := lg.Apply(ctx, testOwner, "src-1", decimal.RequireFromString("40.50"), false)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.RequireFromString("140.50")))
		assert.True(t, balanceOf(t, st, "src-1").Equal(got))
	})

	t.Run("debit below zero is rejected", func(t *testing.T) {
		lg, st := newTestLedger(t)
		seedSource(t, st, "src-1", "30")

		_, err := lg.Apply(ctx, testOwner, "src-1", decimal.RequireFromString("-50"), false)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		assert.True(t, balanceOf(t, st, "src-1").Equal(decimal.RequireFromString("30")))
	})

	t.Run("debit below zero allowed with overdraft", func(t *testing.T) {
		lg, st := newTestLedger(t)
		seedSource(t, st, "src-1", "30")

		got, err := lg.Apply(ctx, testOwner, "src-1", decimal.RequireFromString("-50"), true)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.RequireFromString("-20")))
	})

	t.Run("debit to exactly zero succeeds", func(t *testing.T) {
		lg, st := newTestLedger(t)
		seedSource(t, st, "src-1", "30")

		got, err := lg.Apply(ctx, testOwner, "src-1", decimal.RequireFromString("-30"), false)
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("locked source rejects postings", func(t *testing.T) {
		lg, st := newTestLedger(t)
		require.NoError(t, st.CreateSource(ctx, &domain.Source{
			ID:      "src-locked",
			OwnerID: testOwner,
			Name:    "frozen",
			Kind:    domain.SourceKindBank,
			Balance: decimal.RequireFromString("100"),
			Status:  domain.SourceStatusLocked,
		}))

		_, err := lg.Apply(ctx, testOwner, "src-locked", decimal.RequireFromString("10"), false)
		assert.ErrorIs(t, err, domain.ErrSourceLocked)
	})

	t.Run("unknown source", func(t *testing.T) {
		lg, _ := newTestLedger(t)
		_, err := lg.Apply(ctx, testOwner, "missing", decimal.RequireFromString("10"), false)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestReverse(t *testing.T) {
	ctx := context.Background()
	lg, st := newTestLedger(t)
	seedSource(t, st, "src-1", "10")

	// Reversing an income may drive the balance negative; it must still
	// succeed, otherwise history and balance diverge.
	got, err := lg.Reverse(ctx, testOwner, "src-1", decimal.RequireFromString("25"))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("-15")))
}

func TestCanAfford(t *testing.T) {
	ctx := context.Background()
	lg, st := newTestLedger(t)
	seedSource(t, st, "src-1", "100")

	ok, err := lg.CanAfford(ctx, testOwner, "src-1", decimal.RequireFromString("100"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lg.CanAfford(ctx, testOwner, "src-1", decimal.RequireFromString("100.01"))
	require.NoError(t, err)
	assert.False(t, ok)
}

// Concurrent applies on one source must serialize: the final balance is the
// sum of every successful delta, regardless of interleaving.
func TestApplyConcurrent(t *testing.T) {
	ctx := context.Background()
	lg, st := newTestLedger(t)
	seedSource(t, st, "src-1", "0")

	const workers = 16
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := lg.Apply(ctx, testOwner, "src-1", decimal.NewFromInt(1), false)
				if err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	want := decimal.NewFromInt(workers * perWorker)
	assert.True(t, balanceOf(t, st, "src-1").Equal(want))
}

// Randomized mix of credits and debits: the balance must always equal the
// sum of applied deltas, and rejected debits must leave it untouched.
func TestApplyRandomizedInvariant(t *testing.T) {
	ctx := context.Background()
	lg, st := newTestLedger(t)
	seedSource(t, st, "src-1", "0")

	rng := rand.New(rand.NewSource(42))
	want := decimal.Zero
	for i := 0; i < 500; i++ {
		delta := decimal.NewFromInt(rng.Int63n(200) - 100)
		got, err := lg.Apply(ctx, testOwner, "src-1", delta, false)
		if delta.IsNegative() && want.Add(delta).IsNegative() {
			require.ErrorIs(t, err, domain.ErrInsufficientFunds)
			continue
		}
		require.NoError(t, err)
		want = want.Add(delta)
		require.True(t, got.Equal(want), "step %d: got %s want %s", i, got, want)
	}
	assert.True(t, balanceOf(t, st, "src-1").Equal(want))
}

func TestApplyContextCancelled(t *testing.T) {
	lg, st := newTestLedger(t)
	seedSource(t, st, "src-1", "100")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context only matters once the CAS loop has to back off,
	// so on the happy path the apply still completes. Exercise a direct
	// call to make sure nothing panics with a dead context.
	_, err := lg.Apply(ctx, testOwner, "src-1", decimal.NewFromInt(1), false)
	require.NoError(t, err)
}
