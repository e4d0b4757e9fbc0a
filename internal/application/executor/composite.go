package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/amount"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
)

// Executor performs one or more named actions.
type Executor interface {
	Names() []ActionName
	IsApplicableForAction(action Action) bool
	Execute(ctx context.Context, client gateway.Client, action Action) (Result, error)
}

type ClientProvider interface {
	Client(cfg gateway.Config) gateway.Client
}

type TransactionSaver interface {
	Save(ctx context.Context, tx *domain.PaymentTransaction) error
}

// Composite dispatches an action to the first registered executor that
// accepts it.
type Composite struct {
	registry map[ActionName][]Executor
	clients  ClientProvider
	repo     TransactionSaver
	logger   *slog.Logger
}

func NewComposite(clients ClientProvider, repo TransactionSaver, logger *slog.Logger, executors ...Executor) *Composite {
	registry := make(map[ActionName][]Executor)
	for _, e := range executors {
		for _, name := range e.Names() {
			registry[name] = append(registry[name], e)
		}
	}
	return &Composite{
		registry: registry,
		clients:  clients,
		repo:     repo,
		logger:   logger,
	}
}

// NewDefaultComposite registers the standard executors. The off-session
// authorize executor must stay ahead of the purchase executor.
func NewDefaultComposite(clients ClientProvider, repo TransactionSaver, converter amount.Converter, logger *slog.Logger) *Composite {
	return NewComposite(clients, repo, logger,
		NewOffSessionAuthorizeExecutor(converter),
		NewPurchaseExecutor(converter),
		NewConfirmExecutor(),
		NewCaptureExecutor(converter),
		NewCancelExecutor(),
		NewRefundExecutor(converter),
		NewCreateCustomerExecutor(),
		NewCreateSetupIntentExecutor(),
		NewFindSetupIntentExecutor(),
		NewCreateWebhookEndpointExecutor(),
	)
}

func (c *Composite) IsSupportedByActionName(name ActionName) bool {
	return len(c.registry[name]) > 0
}

func (c *Composite) ExecuteAction(ctx context.Context, action Action) (Result, error) {
	exec := c.find(action)
	if exec == nil {
		return Result{}, domain.NewUnsupportedActionError(string(action.Name))
	}

	tx := action.Transaction
	if tx != nil && triggersWebhook[action.Name] && !action.DeferPersist {
		if err := c.repo.Save(ctx, tx); err != nil {
			return Result{}, fmt.Errorf("persist transaction before %s: %w", action.Name, err)
		}
	}

	client := c.clients.Client(action.Client)

	result, err := exec.Execute(ctx, client, action)
	if err == nil {
		return result, nil
	}

	gwErr, ok := gateway.IsGatewayError(err)
	if !ok {
		return Result{}, err
	}

	c.logger.Warn("gateway rejected action",
		"action", action.Name,
		"payment_method", action.Method.Identifier,
		"error_type", gwErr.Type,
		"error_code", gwErr.Code,
		"error", gwErr.Message,
	)

	if tx != nil {
		tx.RecordError(gwErr.Type, gwErr.Code, gwErr.DeclineCode, gwErr.Message)
		tx.MarkFailed()
	}

	return Result{Successful: false, Error: gwErr}, nil
}

func (c *Composite) find(action Action) Executor {
	for _, e := range c.registry[action.Name] {
		if e.IsApplicableForAction(action) {
			return e
		}
	}
	return nil
}
