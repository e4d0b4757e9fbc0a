// Package executor runs named payment actions against the Gateway.
package executor

import (
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
)

// ActionName is the closed set of actions an executor can be registered for.
type ActionName string

const (
	ActionPurchase              ActionName = "purchase"
	ActionAuthorize             ActionName = "authorize"
	ActionConfirm               ActionName = "confirm"
	ActionCapture               ActionName = "capture"
	ActionCancel                ActionName = "cancel"
	ActionRefund                ActionName = "refund"
	ActionCreateCustomer        ActionName = "create_customer"
	ActionCreateSetupIntent     ActionName = "create_setup_intent"
	ActionFindSetupIntent       ActionName = "find_setup_intent"
	ActionCreateWebhookEndpoint ActionName = "create_webhook_endpoint"

	// ActionReAuthorize is declared by payment methods; the pipeline runs it as
	// a cancel followed by an authorize.
	ActionReAuthorize ActionName = "re_authorize"
)

// triggersWebhook lists actions after which the Gateway may call back before
// the initiating request has finished.
var triggersWebhook = map[ActionName]bool{
	ActionPurchase:  true,
	ActionAuthorize: true,
	ActionConfirm:   true,
	ActionCapture:   true,
	ActionCancel:    true,
	ActionRefund:    true,
}

type Action struct {
	Name        ActionName
	Transaction *domain.PaymentTransaction
	Method      domain.PaymentMethodConfig
	Client      gateway.Config

	// WebhookURL is only read by create_webhook_endpoint.
	WebhookURL string

	// DeferPersist leaves persistence to the caller, which then owns the
	// single write of the transaction.
	DeferPersist bool
}

// Result is the uniform outcome of an action. Gateway failures are reported
// through Error rather than as a Go error.
type Result struct {
	Successful      bool
	PaymentIntent   *gateway.PaymentIntent
	Refund          *gateway.Refund
	Customer        *gateway.Customer
	SetupIntent     *gateway.SetupIntent
	WebhookEndpoint *gateway.WebhookEndpoint
	Error           *gateway.Error
}

func (r Result) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}
