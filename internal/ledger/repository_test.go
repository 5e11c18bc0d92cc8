package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledger/internal/access"
	"github.com/roach88/ledger/internal/store"
	"github.com/roach88/ledger/internal/testutil"
)

func newTestRepository(t *testing.T) (*Repository, *Facade) {
	t.Helper()
	f := testutil.FileFacade(t, access.PolicyRelaxed)
	return NewRepository(f), f
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestRepository_AddAndGetTransaction(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	added, err := repo.AddTransaction(ctx, Transaction{Date: day(3), Payee: "Grocer", Amount: -4210, Category: "food"})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)

	got, err := repo.Transaction(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, added, got)
}

func TestRepository_AddTransactionDuplicateID(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddTransaction(ctx, Transaction{ID: "t1", Payee: "Rent", Amount: -90000})
	require.NoError(t, err)

	_, err = repo.AddTransaction(ctx, Transaction{ID: "t1", Payee: "Rent", Amount: -90000})
	assert.ErrorIs(t, err, store.ErrVersionConflict)
}

func TestRepository_Validation(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddTransaction(ctx, Transaction{Amount: 100})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, repo.SetBudget(ctx, Budget{Limit: 100}), ErrInvalid)
	_, err = repo.AddRecurring(ctx, Recurring{Amount: 100})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRepository_TransactionsOrderedByDate(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	for _, tx := range []Transaction{
		{ID: "c", Date: day(2), Payee: "Cafe", Amount: -450},
		{ID: "a", Date: day(5), Payee: "Salary", Amount: 250000},
		{ID: "b", Date: day(2), Payee: "Books", Amount: -1999},
	} {
		_, err := repo.AddTransaction(ctx, tx)
		require.NoError(t, err)
	}

	txns, err := repo.Transactions(ctx)
	require.NoError(t, err)
	var ids []string
	for _, tx := range txns {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}

func TestRepository_UpdateAndDeleteTransaction(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	tx, err := repo.AddTransaction(ctx, Transaction{Payee: "Cafe", Amount: -450})
	require.NoError(t, err)

	tx.Memo = "with a friend"
	require.NoError(t, repo.UpdateTransaction(ctx, tx))
	got, err := repo.Transaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "with a friend", got.Memo)

	require.NoError(t, repo.DeleteTransaction(ctx, tx.ID))
	_, err = repo.Transaction(ctx, tx.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, tx.ID), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateTransaction(ctx, tx), ErrNotFound)
}

func TestRepository_Budgets(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SetBudget(ctx, Budget{Category: "food", Limit: 40000, Period: "monthly"}))
	require.NoError(t, repo.SetBudget(ctx, Budget{Category: "fun", Limit: 10000, Period: "monthly"}))
	require.NoError(t, repo.SetBudget(ctx, Budget{Category: "food", Limit: 45000, Period: "monthly"}))

	b, err := repo.Budget(ctx, "food")
	require.NoError(t, err)
	assert.Equal(t, int64(45000), b.Limit)

	all, err := repo.Budgets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "food", all[0].Category)
	assert.Equal(t, "fun", all[1].Category)
}

func TestRepository_Recurrings(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddRecurring(ctx, Recurring{Payee: "Rent", Amount: -90000, Interval: "monthly", NextDue: day(28)})
	require.NoError(t, err)
	_, err = repo.AddRecurring(ctx, Recurring{Payee: "Gym", Amount: -3500, Interval: "monthly", NextDue: day(10)})
	require.NoError(t, err)

	recs, err := repo.Recurrings(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Gym", recs[0].Payee)
	assert.Equal(t, "Rent", recs[1].Payee)
}

// Concurrent read-modify-write blocks would lose updates without write
// exclusion; every increment must land.
func TestRepository_ConcurrentWritesDoNotLoseUpdates(t *testing.T) {
	repo, f := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.SetBudget(ctx, Budget{Category: "food", Limit: 0}))

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := f.Write(ctx, func(tx *store.Tx) error {
				b, err := get[Budget](ctx, tx, KindBudget, "food")
				if err != nil {
					return err
				}
				b.Limit++
				_, err = tx.Put(ctx, KindBudget, "food", b)
				return err
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := repo.Budgets(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b, err := repo.Budget(ctx, "food")
	require.NoError(t, err)
	assert.Equal(t, int64(writers), b.Limit)
}

func TestRepository_FailedWriteLeavesNoTrace(t *testing.T) {
	repo, f := newTestRepository(t)
	ctx := context.Background()
	errAbort := errors.New("abort")

	err := f.Write(ctx, func(tx *store.Tx) error {
		if _, err := tx.Put(ctx, KindBudget, "food", Budget{Category: "food", Limit: 1}); err != nil {
			return err
		}
		return errAbort
	})
	assert.Same(t, errAbort, err)

	_, err = repo.Budget(ctx, "food")
	assert.ErrorIs(t, err, ErrNotFound)
}
