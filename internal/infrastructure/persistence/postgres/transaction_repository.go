package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `
	id, action, payment_method, amount::text, currency, active, successful,
	reference, access_token, entity_class, entity_identifier, response, options,
	source_transaction_id, created_at, updated_at`

type TransactionRepository struct {
	q Executor
}

func NewTransactionRepository(q Executor) *TransactionRepository {
	return &TransactionRepository{q: q}
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domain.PaymentTransaction) error {
	if tx.ID == 0 {
		return r.insert(ctx, tx)
	}
	return r.update(ctx, tx)
}

func (r *TransactionRepository) insert(ctx context.Context, tx *domain.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (
			action, payment_method, amount, currency, active, successful,
			reference, access_token, entity_class, entity_identifier, response, options,
			source_transaction_id, created_at, updated_at
		) VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	m, err := toDBModel(tx)
	if err != nil {
		return err
	}

	err = r.q.QueryRow(ctx, query,
		m.Action, m.PaymentMethod, m.Amount, m.Currency, m.Active, m.Successful,
		m.Reference, m.AccessToken, m.EntityClass, m.EntityIdentifier, m.Response, m.Options,
		m.SourceTransactionID, m.CreatedAt, m.UpdatedAt,
	).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepository) update(ctx context.Context, tx *domain.PaymentTransaction) error {
	query := `
		UPDATE payment_transactions
		SET action = $1, amount = $2::numeric, active = $3, successful = $4, reference = $5,
			response = $6, options = $7, updated_at = $8
		WHERE id = $9
	`

	tx.UpdatedAt = time.Now().UTC()
	m, err := toDBModel(tx)
	if err != nil {
		return err
	}

	tag, err := r.q.Exec(ctx, query,
		m.Action, m.Amount, m.Active, m.Successful, m.Reference,
		m.Response, m.Options, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment transaction %d: %w", tx.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewTransactionNotFoundError(tx.ID)
	}

	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id int64) (*domain.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1`

	tx, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewTransactionNotFoundError(id)
	}
	return tx, err
}

func (r *TransactionRepository) FindLatestSuccessfulByReference(ctx context.Context, paymentMethod, reference string, actions []domain.Action) (*domain.PaymentTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE payment_method = $1
		  AND reference = $2
		  AND successful
		  AND action = ANY($3)
		ORDER BY active DESC, id DESC
		LIMIT 1
	`

	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}

	tx, err := scanTransaction(r.q.QueryRow(ctx, query, paymentMethod, reference, names))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, err
}

func (r *TransactionRepository) FindChildren(ctx context.Context, parentID int64) ([]*domain.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE source_transaction_id = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("query children of transaction %d: %w", parentID, err)
	}

	children, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.PaymentTransaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan children of transaction %d: %w", parentID, err)
	}
	return children, nil
}

func (r *TransactionRepository) HasSuccessfulChild(ctx context.Context, parentID int64, action domain.Action) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM payment_transactions
			WHERE source_transaction_id = $1 AND action = $2 AND successful
		)
	`

	var exists bool
	if err := r.q.QueryRow(ctx, query, parentID, string(action)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check children of transaction %d: %w", parentID, err)
	}
	return exists, nil
}

// StreamExpiringAuthorizations reads matching ids row by row and stops at the
// first error returned by fn.
func (r *TransactionRepository) StreamExpiringAuthorizations(ctx context.Context, paymentMethod string, createdBefore time.Time, fn func(id int64) error) error {
	query := `
		SELECT t.id
		FROM payment_transactions t
		WHERE t.payment_method = $1
		  AND t.action = 'authorize'
		  AND t.active
		  AND t.successful
		  AND t.created_at < $2
		  AND NOT EXISTS (
			SELECT 1 FROM payment_transactions c
			WHERE c.source_transaction_id = t.id AND c.action = 'cancel' AND c.successful
		  )
		ORDER BY t.id
	`

	rows, err := r.q.Query(ctx, query, paymentMethod, createdBefore)
	if err != nil {
		return fmt.Errorf("query expiring authorizations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan expiring authorization: %w", err)
		}
		if err := fn(id); err != nil {
			return err
		}
	}

	return rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.PaymentTransaction, error) {
	var m TransactionModel
	err := row.Scan(
		&m.ID, &m.Action, &m.PaymentMethod, &m.Amount, &m.Currency, &m.Active, &m.Successful,
		&m.Reference, &m.AccessToken, &m.EntityClass, &m.EntityIdentifier, &m.Response, &m.Options,
		&m.SourceTransactionID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return toDomainModel(m)
}
