package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/ledger/internal/access"
	"github.com/roach88/ledger/internal/store"
)

// Facade is the access facade bound to the SQLite store.
type Facade = access.Facade[*store.Tx]

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = store.ErrNotFound

// ErrInvalid is returned for records that fail validation.
var ErrInvalid = errors.New("invalid record")

// Repository reads and writes ledger records through the access facade.
type Repository struct {
	facade *Facade
	newID  func() string
}

// NewRepository creates a repository. IDs for new records are UUIDv7.
func NewRepository(f *Facade) *Repository {
	return &Repository{
		facade: f,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// AddTransaction stores a new transaction, assigning an id when empty.
func (r *Repository) AddTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	if strings.TrimSpace(t.Payee) == "" {
		return Transaction{}, fmt.Errorf("%w: transaction payee is required", ErrInvalid)
	}
	if t.ID == "" {
		t.ID = r.newID()
	}
	return access.Write(ctx, r.facade, func(tx *store.Tx) (Transaction, error) {
		if _, err := tx.PutIfVersion(ctx, KindTransaction, t.ID, t, 0); err != nil {
			return Transaction{}, fmt.Errorf("add transaction: %w", err)
		}
		return t, nil
	})
}

// UpdateTransaction replaces an existing transaction.
func (r *Repository) UpdateTransaction(ctx context.Context, t Transaction) error {
	return r.facade.Write(ctx, func(tx *store.Tx) error {
		if _, err := tx.Get(ctx, KindTransaction, t.ID); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if _, err := tx.Put(ctx, KindTransaction, t.ID, t); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
}

// DeleteTransaction removes a transaction. Returns ErrNotFound if absent.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	return r.facade.Write(ctx, func(tx *store.Tx) error {
		ok, err := tx.Delete(ctx, KindTransaction, id)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if !ok {
			return fmt.Errorf("delete transaction %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Transaction returns one transaction by id.
func (r *Repository) Transaction(ctx context.Context, id string) (Transaction, error) {
	return access.Read(ctx, r.facade, func(tx *store.Tx) (Transaction, error) {
		return get[Transaction](ctx, tx, KindTransaction, id)
	})
}

// Transactions returns every transaction ordered by date, then id.
func (r *Repository) Transactions(ctx context.Context) ([]Transaction, error) {
	txns, err := access.Read(ctx, r.facade, func(tx *store.Tx) ([]Transaction, error) {
		return list[Transaction](ctx, tx, KindTransaction)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].ID < txns[j].ID
	})
	return txns, nil
}

// SetBudget creates or replaces the budget for its category.
func (r *Repository) SetBudget(ctx context.Context, b Budget) error {
	if strings.TrimSpace(b.Category) == "" {
		return fmt.Errorf("%w: budget category is required", ErrInvalid)
	}
	return r.facade.Write(ctx, func(tx *store.Tx) error {
		if _, err := tx.Put(ctx, KindBudget, b.Category, b); err != nil {
			return fmt.Errorf("set budget: %w", err)
		}
		return nil
	})
}

// Budget returns the budget for a category.
func (r *Repository) Budget(ctx context.Context, category string) (Budget, error) {
	return access.Read(ctx, r.facade, func(tx *store.Tx) (Budget, error) {
		return get[Budget](ctx, tx, KindBudget, category)
	})
}

// Budgets returns every budget ordered by category.
func (r *Repository) Budgets(ctx context.Context) ([]Budget, error) {
	return access.Read(ctx, r.facade, func(tx *store.Tx) ([]Budget, error) {
		return list[Budget](ctx, tx, KindBudget)
	})
}

// AddRecurring stores a recurring obligation, assigning an id when empty.
func (r *Repository) AddRecurring(ctx context.Context, rec Recurring) (Recurring, error) {
	if strings.TrimSpace(rec.Payee) == "" {
		return Recurring{}, fmt.Errorf("%w: recurring payee is required", ErrInvalid)
	}
	if rec.ID == "" {
		rec.ID = r.newID()
	}
	return access.Write(ctx, r.facade, func(tx *store.Tx) (Recurring, error) {
		if _, err := tx.Put(ctx, KindRecurring, rec.ID, rec); err != nil {
			return Recurring{}, fmt.Errorf("add recurring: %w", err)
		}
		return rec, nil
	})
}

// Recurrings returns every recurring obligation ordered by next due date.
func (r *Repository) Recurrings(ctx context.Context) ([]Recurring, error) {
	recs, err := access.Read(ctx, r.facade, func(tx *store.Tx) ([]Recurring, error) {
		return list[Recurring](ctx, tx, KindRecurring)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].NextDue.Before(recs[j].NextDue)
	})
	return recs, nil
}

func get[T any](ctx context.Context, tx *store.Tx, kind, id string) (T, error) {
	var v T
	rec, err := tx.Get(ctx, kind, id)
	if err != nil {
		return v, err
	}
	if err := rec.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

func list[T any](ctx context.Context, tx *store.Tx, kind string) ([]T, error) {
	recs, err := tx.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := rec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
