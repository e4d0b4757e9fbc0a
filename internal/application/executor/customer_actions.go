package executor

import (
	"context"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
)

type CreateCustomerExecutor struct{}

func NewCreateCustomerExecutor() *CreateCustomerExecutor {
	return &CreateCustomerExecutor{}
}

func (e *CreateCustomerExecutor) Names() []ActionName {
	return []ActionName{ActionCreateCustomer}
}

func (e *CreateCustomerExecutor) IsApplicableForAction(action Action) bool {
	return action.Transaction != nil
}

func (e *CreateCustomerExecutor) Execute(ctx context.Context, client gateway.Client, action Action) (Result, error) {
	tx := action.Transaction

	customer, err := client.CreateCustomer(ctx, gateway.CustomerParams{
		Email:         tx.Options.CustomerEmail,
		PaymentMethod: tx.Options.PaymentMethodID,
		Metadata:      transactionMetadata(tx),
	}, idempotencyKey(action.Name, tx))
	if err != nil {
		return Result{}, err
	}

	tx.Options.CustomerID = customer.ID

	return Result{Successful: true, Customer: customer}, nil
}

// CreateSetupIntentExecutor saves a payment method for later off-session use.
type CreateSetupIntentExecutor struct{}

func NewCreateSetupIntentExecutor() *CreateSetupIntentExecutor {
	return &CreateSetupIntentExecutor{}
}

func (e *CreateSetupIntentExecutor) Names() []ActionName {
	return []ActionName{ActionCreateSetupIntent}
}

func (e *CreateSetupIntentExecutor) IsApplicableForAction(action Action) bool {
	return action.Transaction != nil
}

func (e *CreateSetupIntentExecutor) Execute(ctx context.Context, client gateway.Client, action Action) (Result, error) {
	tx := action.Transaction
	if err := tx.Options.Require(domain.OptionCustomerID); err != nil {
		return Result{}, err
	}

	params := gateway.SetupIntentParams{
		Customer:      tx.Options.CustomerID,
		PaymentMethod: tx.Options.PaymentMethodID,
		Usage:         "off_session",
		ReturnURL:     tx.Options.ReturnURL,
		Metadata:      transactionMetadata(tx),
	}
	if params.PaymentMethod != "" {
		params.Confirm = true
	}
	if tx.Options.PaymentMethodType != "" {
		params.PaymentMethodTypes = []string{tx.Options.PaymentMethodType}
	}

	si, err := client.CreateSetupIntent(ctx, params, idempotencyKey(action.Name, tx))
	if err != nil {
		return Result{}, err
	}

	successful := applySetupIntent(tx, si)

	return Result{Successful: successful, SetupIntent: si}, nil
}

// FindSetupIntentExecutor refreshes a setup intent and picks up the payment
// method it saved.
type FindSetupIntentExecutor struct{}

func NewFindSetupIntentExecutor() *FindSetupIntentExecutor {
	return &FindSetupIntentExecutor{}
}

func (e *FindSetupIntentExecutor) Names() []ActionName {
	return []ActionName{ActionFindSetupIntent}
}

func (e *FindSetupIntentExecutor) IsApplicableForAction(action Action) bool {
	return action.Transaction != nil
}

func (e *FindSetupIntentExecutor) Execute(ctx context.Context, client gateway.Client, action Action) (Result, error) {
	tx := action.Transaction
	if err := tx.Options.Require(domain.OptionSetupIntentID); err != nil {
		return Result{}, err
	}

	si, err := client.GetSetupIntent(ctx, tx.Options.SetupIntentID)
	if err != nil {
		return Result{}, err
	}

	successful := applySetupIntent(tx, si)

	return Result{Successful: successful, SetupIntent: si}, nil
}

func applySetupIntent(tx *domain.PaymentTransaction, si *gateway.SetupIntent) bool {
	tx.Options.SetupIntentID = si.ID
	if si.PaymentMethod != "" {
		tx.Options.PaymentMethodID = si.PaymentMethod
	}
	if si.Customer != "" {
		tx.Options.CustomerID = si.Customer
	}

	tx.Response = domain.TransactionResponse{
		ObjectID:       si.ID,
		ObjectType:     "setup_intent",
		Status:         si.Status,
		ClientSecret:   si.ClientSecret,
		RequiresAction: si.Status == gateway.StatusRequiresAction,
		Raw:            snapshot(si),
	}

	return si.Status == gateway.StatusSucceeded
}

// DefaultWebhookEvents are subscribed when registering the engine's endpoint.
var DefaultWebhookEvents = []string{
	gateway.EventPaymentIntentSucceeded,
	gateway.EventPaymentIntentAmountCapturableUpdate,
	gateway.EventPaymentIntentPaymentFailed,
	gateway.EventPaymentIntentCanceled,
	gateway.EventRefundUpdated,
	gateway.EventChargeRefundUpdated,
}

// CreateWebhookEndpointExecutor registers the engine's webhook URL with the Gateway.
type CreateWebhookEndpointExecutor struct{}

func NewCreateWebhookEndpointExecutor() *CreateWebhookEndpointExecutor {
	return &CreateWebhookEndpointExecutor{}
}

func (e *CreateWebhookEndpointExecutor) Names() []ActionName {
	return []ActionName{ActionCreateWebhookEndpoint}
}

func (e *CreateWebhookEndpointExecutor) IsApplicableForAction(action Action) bool {
	return action.WebhookURL != ""
}

func (e *CreateWebhookEndpointExecutor) Execute(ctx context.Context, client gateway.Client, action Action) (Result, error) {
	endpoint, err := client.CreateWebhookEndpoint(ctx, gateway.WebhookEndpointParams{
		URL:           action.WebhookURL,
		EnabledEvents: DefaultWebhookEvents,
		APIVersion:    action.Client.APIVersion,
		Description:   "payment engine: " + action.Method.Identifier,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{Successful: true, WebhookEndpoint: endpoint}, nil
}
