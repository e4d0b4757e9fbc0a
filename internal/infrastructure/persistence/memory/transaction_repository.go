// Package memory keeps transactions and jobs in process memory. It backs the
// "memory" database driver and unit tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
)

type TransactionRepository struct {
	mu     sync.RWMutex
	rows   map[int64]domain.PaymentTransaction
	nextID int64
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{rows: make(map[int64]domain.PaymentTransaction)}
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domain.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tx.ID == 0 {
		r.nextID++
		tx.ID = r.nextID
	} else if _, ok := r.rows[tx.ID]; !ok {
		return domain.NewTransactionNotFoundError(tx.ID)
	}

	r.rows[tx.ID] = clone(tx)
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id int64) (*domain.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, domain.NewTransactionNotFoundError(id)
	}
	out := clone(&row)
	return &out, nil
}

func (r *TransactionRepository) FindLatestSuccessfulByReference(ctx context.Context, paymentMethod, reference string, actions []domain.Action) (*domain.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *domain.PaymentTransaction
	for _, row := range r.rows {
		if row.PaymentMethod != paymentMethod || row.Reference != reference || !row.Successful {
			continue
		}
		if !slices.Contains(actions, row.Action) {
			continue
		}
		if best == nil || ranksAbove(row, *best) {
			candidate := clone(&row)
			best = &candidate
		}
	}
	if best == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return best, nil
}

// ranksAbove orders active rows first, then newer ids.
func ranksAbove(a, b domain.PaymentTransaction) bool {
	if a.Active != b.Active {
		return a.Active
	}
	return a.ID > b.ID
}

func (r *TransactionRepository) FindChildren(ctx context.Context, parentID int64) ([]*domain.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var children []*domain.PaymentTransaction
	for _, row := range r.rows {
		if row.SourceTransactionID != nil && *row.SourceTransactionID == parentID {
			child := clone(&row)
			children = append(children, &child)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children, nil
}

func (r *TransactionRepository) HasSuccessfulChild(ctx context.Context, parentID int64, action domain.Action) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.hasSuccessfulChild(parentID, action), nil
}

func (r *TransactionRepository) hasSuccessfulChild(parentID int64, action domain.Action) bool {
	for _, row := range r.rows {
		if row.SourceTransactionID != nil && *row.SourceTransactionID == parentID &&
			row.Action == action && row.Successful {
			return true
		}
	}
	return false
}

func (r *TransactionRepository) StreamExpiringAuthorizations(ctx context.Context, paymentMethod string, createdBefore time.Time, fn func(id int64) error) error {
	r.mu.RLock()
	var ids []int64
	for id, row := range r.rows {
		if row.PaymentMethod != paymentMethod || !row.IsActiveAuthorization() {
			continue
		}
		if !row.CreatedAt.Before(createdBefore) {
			continue
		}
		if r.hasSuccessfulChild(id, domain.ActionCancel) {
			continue
		}
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.Sort(ids)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

func clone(tx *domain.PaymentTransaction) domain.PaymentTransaction {
	out := *tx
	out.Options = tx.Options.Clone()
	if tx.SourceTransactionID != nil {
		parent := *tx.SourceTransactionID
		out.SourceTransactionID = &parent
	}
	if tx.Response.Raw != nil {
		out.Response.Raw = slices.Clone(tx.Response.Raw)
	}
	return out
}
