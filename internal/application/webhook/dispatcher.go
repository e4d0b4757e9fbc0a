package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/method"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
)

// saveTimeout bounds the final write, which must outlive the request context.
const saveTimeout = 5 * time.Second

type TransactionRepository interface {
	TransactionFinder
	Save(ctx context.Context, tx *domain.PaymentTransaction) error
}

// Dispatcher hands a verified event to its payment method and stores the
// matched transaction exactly once, whatever the handler returns.
type Dispatcher struct {
	matcher *Matcher
	repo    TransactionRepository
	logger  *slog.Logger
}

func NewDispatcher(repo TransactionRepository, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		matcher: NewMatcher(repo),
		repo:    repo,
		logger:  logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ve *VerifiedEvent) (err error) {
	logger := d.logger.With(
		"event_id", ve.Event.ID,
		"event_type", ve.Event.Type,
		"payment_method", ve.Method.Identifier(),
	)

	tx, err := d.matcher.Match(ctx, ve)
	if err != nil {
		logger.Warn("webhook event not matched", "error", err)
		return err
	}
	logger = logger.With("transaction_id", tx.ID)

	defer func() {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		defer cancel()
		if saveErr := d.repo.Save(saveCtx, tx); saveErr != nil {
			logger.Error("failed to save transaction after webhook", "error", saveErr)
			if err == nil {
				err = fmt.Errorf("save transaction %d: %w", tx.ID, saveErr)
			}
		}
	}()

	handler, ok := ve.Method.(method.WebhookHandler)
	if !ok {
		logger.Info("payment method does not handle webhooks")
		return domain.NewNotSupportedEventError(fmt.Sprintf("payment method %s does not handle webhooks", ve.Method.Identifier()))
	}

	if err := handler.HandleWebhookEvent(ctx, ve.Event, tx); err != nil {
		logger.Error("webhook handling failed", "error", err)
		return err
	}

	logger.Info("webhook event handled")
	return nil
}
