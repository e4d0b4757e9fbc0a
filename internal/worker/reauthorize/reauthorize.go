// Package reauthorize renews authorization holds before the Gateway lets
// them expire. An init job finds the expiring authorizations and splits them
// into chunk jobs; each chunk job cancels and re-authorizes its transactions.
package reauthorize

import (
	"context"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/method"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
)

const (
	TopicInit  = "reauthorize.init"
	TopicChunk = "reauthorize.chunk"

	DefaultChunkSize        = 10
	DefaultExpirationWindow = 164 * time.Hour
	DefaultCancelReason     = "abandoned"
)

type Config struct {
	ChunkSize        int
	ExpirationWindow time.Duration
	CancelReason     string
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ExpirationWindow <= 0 {
		c.ExpirationWindow = DefaultExpirationWindow
	}
	if c.CancelReason == "" {
		c.CancelReason = DefaultCancelReason
	}
	return c
}

type ChunkPayload struct {
	TransactionIDs []int64 `json:"transaction_ids"`
}

type InitPayload struct {
	TriggeredAt time.Time `json:"triggered_at"`
}

type Methods interface {
	Enabled() []method.Method
	Get(identifier string) (method.Method, error)
}

type Repository interface {
	FindByID(ctx context.Context, id int64) (*domain.PaymentTransaction, error)
	Save(ctx context.Context, tx *domain.PaymentTransaction) error
	HasSuccessfulChild(ctx context.Context, parentID int64, action domain.Action) (bool, error)
	StreamExpiringAuthorizations(ctx context.Context, paymentMethod string, createdBefore time.Time, fn func(id int64) error) error
}
