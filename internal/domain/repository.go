package domain

import (
	"context"
	"time"
)

type TransactionRepository interface {
	// Save inserts a transaction without an ID and updates it otherwise
	Save(ctx context.Context, tx *PaymentTransaction) error

	FindByID(ctx context.Context, id int64) (*PaymentTransaction, error)

	// FindLatestSuccessfulByReference returns the newest successful transaction of one of
	// the given actions carrying reference, active ones first.
	FindLatestSuccessfulByReference(ctx context.Context, paymentMethod, reference string, actions []Action) (*PaymentTransaction, error)

	FindChildren(ctx context.Context, parentID int64) ([]*PaymentTransaction, error)

	HasSuccessfulChild(ctx context.Context, parentID int64, action Action) (bool, error)

	// StreamExpiringAuthorizations calls fn with the id of every active, successful
	// authorization created before the cutoff that has no successful cancel child.
	// Rows are read through a cursor, in id order.
	StreamExpiringAuthorizations(ctx context.Context, paymentMethod string, createdBefore time.Time, fn func(id int64) error) error
}
