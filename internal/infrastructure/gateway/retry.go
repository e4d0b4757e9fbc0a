package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// RetryClient retries transient failures. Every mutating call carries an
// idempotency key, so replays are safe.
type RetryClient struct {
	inner      Client
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryClient(inner Client, baseDelay time.Duration, maxRetries int) *RetryClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryClient{
		inner:      inner,
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
	}
}

func (r *RetryClient) CreatePaymentIntent(ctx context.Context, params PaymentIntentParams, idempotencyKey string) (*PaymentIntent, error) {
	return retry(r, ctx, func(ctx context.Context) (*PaymentIntent, error) {
		return r.inner.CreatePaymentIntent(ctx, params, idempotencyKey)
	})
}

func (r *RetryClient) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	return retry(r, ctx, func(ctx context.Context) (*PaymentIntent, error) {
		return r.inner.GetPaymentIntent(ctx, id)
	})
}

func (r *RetryClient) ConfirmPaymentIntent(ctx context.Context, id string, params ConfirmParams, idempotencyKey string) (*PaymentIntent, error) {
	return retry(r, ctx, func(ctx context.Context) (*PaymentIntent, error) {
		return r.inner.ConfirmPaymentIntent(ctx, id, params, idempotencyKey)
	})
}

func (r *RetryClient) CapturePaymentIntent(ctx context.Context, id string, params CaptureParams, idempotencyKey string) (*PaymentIntent, error) {
	return retry(r, ctx, func(ctx context.Context) (*PaymentIntent, error) {
		return r.inner.CapturePaymentIntent(ctx, id, params, idempotencyKey)
	})
}

func (r *RetryClient) CancelPaymentIntent(ctx context.Context, id string, params CancelParams, idempotencyKey string) (*PaymentIntent, error) {
	return retry(r, ctx, func(ctx context.Context) (*PaymentIntent, error) {
		return r.inner.CancelPaymentIntent(ctx, id, params, idempotencyKey)
	})
}

func (r *RetryClient) CreateRefund(ctx context.Context, params RefundParams, idempotencyKey string) (*Refund, error) {
	return retry(r, ctx, func(ctx context.Context) (*Refund, error) {
		return r.inner.CreateRefund(ctx, params, idempotencyKey)
	})
}

func (r *RetryClient) CreateCustomer(ctx context.Context, params CustomerParams, idempotencyKey string) (*Customer, error) {
	return retry(r, ctx, func(ctx context.Context) (*Customer, error) {
		return r.inner.CreateCustomer(ctx, params, idempotencyKey)
	})
}

func (r *RetryClient) CreateSetupIntent(ctx context.Context, params SetupIntentParams, idempotencyKey string) (*SetupIntent, error) {
	return retry(r, ctx, func(ctx context.Context) (*SetupIntent, error) {
		return r.inner.CreateSetupIntent(ctx, params, idempotencyKey)
	})
}

func (r *RetryClient) GetSetupIntent(ctx context.Context, id string) (*SetupIntent, error) {
	return retry(r, ctx, func(ctx context.Context) (*SetupIntent, error) {
		return r.inner.GetSetupIntent(ctx, id)
	})
}

// CreateWebhookEndpoint is not retried: the call has no idempotency key.
func (r *RetryClient) CreateWebhookEndpoint(ctx context.Context, params WebhookEndpointParams) (*WebhookEndpoint, error) {
	return r.inner.CreateWebhookEndpoint(ctx, params)
}

func retry[T any](r *RetryClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if gwErr, ok := IsGatewayError(err); ok {
		return gwErr.IsRetryable()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	return true
}

// Exponential delay with up to 50% jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if base <= 0 {
		return 0
	}

	jitter := time.Duration(rand.Int63n(int64(base)/2 + 1))

	return base + jitter
}
