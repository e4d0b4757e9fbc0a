package domain

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Integration is the flavour of checkout a payment method renders.
type Integration string

const (
	IntegrationCard           Integration = "card"
	IntegrationPaymentElement Integration = "payment_element"
)

// PaymentAction selects whether funds are captured with the payment or later.
type PaymentAction string

const (
	PaymentActionManual    PaymentAction = "manual"
	PaymentActionAutomatic PaymentAction = "automatic"
)

// PaymentMethodConfig is an immutable snapshot of one integration's settings.
type PaymentMethodConfig struct {
	Identifier     string
	Enabled        bool
	Integration    Integration
	PublishableKey string
	SecretKey      string
	WebhookSecret  string
	PaymentAction  PaymentAction

	ReauthorizationAllowed bool
	ReauthorizationEmail   string

	MinimumAmount     decimal.NullDecimal
	MaximumAmount     decimal.NullDecimal
	AllowedCurrencies []string
}

func (c PaymentMethodConfig) IsManualCapture() bool {
	return c.PaymentAction == PaymentActionManual
}

// IsApplicable checks amount bounds and currency restrictions.
func (c PaymentMethodConfig) IsApplicable(amount decimal.Decimal, currency string) bool {
	if !c.Enabled {
		return false
	}
	if c.MinimumAmount.Valid && amount.LessThan(c.MinimumAmount.Decimal) {
		return false
	}
	if c.MaximumAmount.Valid && amount.GreaterThan(c.MaximumAmount.Decimal) {
		return false
	}
	if len(c.AllowedCurrencies) == 0 {
		return true
	}
	return slices.ContainsFunc(c.AllowedCurrencies, func(allowed string) bool {
		return strings.EqualFold(allowed, currency)
	})
}
