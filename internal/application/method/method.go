// Package method binds a payment method configuration to the action executor.
package method

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/amount"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/executor"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/shopspring/decimal"
)

// Additional data keys filled by Prepare.
const (
	AdditionalIntegration   = "integration"
	AdditionalCaptureMethod = "capture_method"
	AdditionalPaymentMethod = "payment_method"
)

type Method interface {
	Identifier() string
	Config() domain.PaymentMethodConfig
	Supports(name executor.ActionName) bool
	IsApplicable(amount decimal.Decimal, currency string) bool
	Execute(ctx context.Context, name executor.ActionName, tx *domain.PaymentTransaction) (executor.Result, error)
}

// WebhookHandler is implemented by methods that react to Gateway events. The
// caller persists tx after the handler returns.
type WebhookHandler interface {
	HandleWebhookEvent(ctx context.Context, event *gateway.Event, tx *domain.PaymentTransaction) error
}

type ActionExecutor interface {
	IsSupportedByActionName(name executor.ActionName) bool
	ExecuteAction(ctx context.Context, action executor.Action) (executor.Result, error)
}

type TransactionStore interface {
	Save(ctx context.Context, tx *domain.PaymentTransaction) error
	FindChildren(ctx context.Context, parentID int64) ([]*domain.PaymentTransaction, error)
	HasSuccessfulChild(ctx context.Context, parentID int64, action domain.Action) (bool, error)
}

// GatewayMethod is a payment method served by the Gateway.
type GatewayMethod struct {
	cfg       domain.PaymentMethodConfig
	client    gateway.Config
	actions   ActionExecutor
	repo      TransactionStore
	converter amount.Converter
	logger    *slog.Logger
}

func NewGatewayMethod(
	cfg domain.PaymentMethodConfig,
	client gateway.Config,
	actions ActionExecutor,
	repo TransactionStore,
	converter amount.Converter,
	logger *slog.Logger,
) *GatewayMethod {
	return &GatewayMethod{
		cfg:       cfg,
		client:    client,
		actions:   actions,
		repo:      repo,
		converter: converter,
		logger:    logger.With("payment_method", cfg.Identifier),
	}
}

func (m *GatewayMethod) Identifier() string {
	return m.cfg.Identifier
}

func (m *GatewayMethod) Config() domain.PaymentMethodConfig {
	return m.cfg
}

// Supports reports whether the method can run the named action. Re-authorization
// is opt-in per configuration.
func (m *GatewayMethod) Supports(name executor.ActionName) bool {
	if name == executor.ActionReAuthorize {
		return m.cfg.ReauthorizationAllowed
	}
	return m.actions.IsSupportedByActionName(name)
}

func (m *GatewayMethod) IsApplicable(amount decimal.Decimal, currency string) bool {
	if !m.cfg.IsApplicable(amount, currency) {
		return false
	}
	return m.converter.IsApplicable(currency)
}

// Prepare fills the method specific additional data of a transaction.
func (m *GatewayMethod) Prepare(tx *domain.PaymentTransaction) {
	tx.Options.SetAdditional(AdditionalPaymentMethod, m.cfg.Identifier)
	tx.Options.SetAdditional(AdditionalIntegration, string(m.cfg.Integration))
	tx.Options.SetAdditional(AdditionalCaptureMethod, executor.ResolveCaptureMethod(m.cfg, tx.Options.PaymentMethodType))
}

// Execute runs a transaction action and stores the outcome.
func (m *GatewayMethod) Execute(ctx context.Context, name executor.ActionName, tx *domain.PaymentTransaction) (executor.Result, error) {
	// re_authorize is a cancel followed by an authorize, driven by the pipeline
	if name == executor.ActionReAuthorize || !m.Supports(name) {
		return executor.Result{}, domain.NewUnsupportedActionError(string(name))
	}
	if tx == nil {
		return executor.Result{}, domain.NewLogicError("action %s needs a transaction", name)
	}
	if tx.PaymentMethod != m.cfg.Identifier {
		return executor.Result{}, domain.NewLogicError("transaction %d belongs to payment method %q", tx.ID, tx.PaymentMethod)
	}

	m.Prepare(tx)

	result, err := m.actions.ExecuteAction(ctx, m.action(name, tx))
	if err != nil {
		return executor.Result{}, err
	}

	if err := m.repo.Save(ctx, tx); err != nil {
		return result, fmt.Errorf("save transaction after %s: %w", name, err)
	}

	m.logger.Info("action executed",
		"action", name,
		"transaction_id", tx.ID,
		"successful", result.Successful,
	)

	return result, nil
}

// RegisterWebhookEndpoint registers url with the Gateway for this method's account.
func (m *GatewayMethod) RegisterWebhookEndpoint(ctx context.Context, url string) (*gateway.WebhookEndpoint, error) {
	action := m.action(executor.ActionCreateWebhookEndpoint, nil)
	action.WebhookURL = url

	result, err := m.actions.ExecuteAction(ctx, action)
	if err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return result.WebhookEndpoint, nil
}

func (m *GatewayMethod) action(name executor.ActionName, tx *domain.PaymentTransaction) executor.Action {
	return executor.Action{
		Name:        name,
		Transaction: tx,
		Method:      m.cfg,
		Client:      m.client,
	}
}
