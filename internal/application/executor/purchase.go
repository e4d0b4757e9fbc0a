package executor

import (
	"context"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/amount"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
)

// PurchaseExecutor creates a payment intent for a checkout. With manual
// capture the resulting transaction becomes an authorization.
type PurchaseExecutor struct {
	converter amount.Converter
}

func NewPurchaseExecutor(converter amount.Converter) *PurchaseExecutor {
	return &PurchaseExecutor{converter: converter}
}

func (e *PurchaseExecutor) Names() []ActionName {
	return []ActionName{ActionPurchase, ActionAuthorize}
}

func (e *PurchaseExecutor) IsApplicableForAction(action Action) bool {
	return action.Transaction != nil
}

func (e *PurchaseExecutor) Execute(ctx context.Context, client gateway.Client, action Action) (Result, error) {
	tx := action.Transaction
	cfg := action.Method

	if cfg.Integration != domain.IntegrationPaymentElement {
		if err := tx.Options.Require(domain.OptionPaymentMethodID); err != nil {
			return Result{}, err
		}
	}

	minor, err := e.converter.ToMinorUnits(tx.Amount, tx.Currency)
	if err != nil {
		return Result{}, err
	}

	params := gateway.PaymentIntentParams{
		Amount:        minor,
		Currency:      gatewayCurrency(tx.Currency),
		PaymentMethod: tx.Options.PaymentMethodID,
		Customer:      tx.Options.CustomerID,
		CaptureMethod: ResolveCaptureMethod(cfg, tx.Options.PaymentMethodType),
		ReturnURL:     tx.Options.ReturnURL,
		Metadata:      transactionMetadata(tx),
	}
	if action.Name == ActionAuthorize {
		params.CaptureMethod = CaptureMethodManual
	}
	if tx.Options.PaymentMethodType != "" && cfg.Integration == domain.IntegrationPaymentElement {
		params.PaymentMethodTypes = []string{tx.Options.PaymentMethodType}
	}
	if tx.Options.PaymentMethodID != "" {
		params.Confirm = true
		if cfg.Integration == domain.IntegrationPaymentElement {
			params.ConfirmationMethod = "automatic"
		} else {
			params.ConfirmationMethod = "manual"
		}
	}
	if tx.Options.SaveForLaterUse || tx.Options.ReauthorizationEnabled {
		params.SetupFutureUsage = "off_session"
	}

	pi, err := client.CreatePaymentIntent(ctx, params, idempotencyKey(action.Name, tx))
	if err != nil {
		return Result{}, err
	}

	successful := applyPaymentIntent(tx, pi)

	return Result{Successful: successful, PaymentIntent: pi}, nil
}

// OffSessionAuthorizeExecutor authorizes a saved payment method without the
// customer present. It only accepts authorizations descending from an
// earlier transaction.
type OffSessionAuthorizeExecutor struct {
	converter amount.Converter
}

func NewOffSessionAuthorizeExecutor(converter amount.Converter) *OffSessionAuthorizeExecutor {
	return &OffSessionAuthorizeExecutor{converter: converter}
}

func (e *OffSessionAuthorizeExecutor) Names() []ActionName {
	return []ActionName{ActionAuthorize}
}

func (e *OffSessionAuthorizeExecutor) IsApplicableForAction(action Action) bool {
	tx := action.Transaction
	return tx != nil &&
		tx.SourceTransactionID != nil &&
		tx.Options.CustomerID != "" &&
		tx.Options.PaymentMethodID != ""
}

func (e *OffSessionAuthorizeExecutor) Execute(ctx context.Context, client gateway.Client, action Action) (Result, error) {
	tx := action.Transaction

	minor, err := e.converter.ToMinorUnits(tx.Amount, tx.Currency)
	if err != nil {
		return Result{}, err
	}

	params := gateway.PaymentIntentParams{
		Amount:        minor,
		Currency:      gatewayCurrency(tx.Currency),
		PaymentMethod: tx.Options.PaymentMethodID,
		Customer:      tx.Options.CustomerID,
		CaptureMethod: CaptureMethodManual,
		Confirm:       true,
		OffSession:    true,
		Metadata:      transactionMetadata(tx),
	}

	pi, err := client.CreatePaymentIntent(ctx, params, idempotencyKey(action.Name, tx))
	if err != nil {
		return Result{}, err
	}

	successful := applyPaymentIntent(tx, pi)

	return Result{Successful: successful, PaymentIntent: pi}, nil
}
