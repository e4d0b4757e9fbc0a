package domain

import "maps"

// Option keys as they are persisted with the transaction.
const (
	OptionPaymentMethodID        = "payment_method_id"
	OptionPaymentMethodType      = "payment_method_type"
	OptionPaymentIntentID        = "payment_intent_id"
	OptionCustomerID             = "customer_id"
	OptionCustomerEmail          = "customer_email"
	OptionSetupIntentID          = "setup_intent_id"
	OptionReturnURL              = "return_url"
	OptionSuccessURL             = "success_url"
	OptionFailureURL             = "failure_url"
	OptionPartiallyPaidURL       = "partially_paid_url"
	OptionCancelReason           = "cancel_reason"
	OptionRefundReason           = "refund_reason"
	OptionReauthorizationEnabled = "reauthorization_enabled"
	OptionSaveForLaterUse        = "save_for_later_use"
)

// TransactionOptions carries Gateway identifiers and checkout URLs alongside a
// transaction.
type TransactionOptions struct {
	PaymentMethodID        string            `json:"payment_method_id,omitempty"`
	PaymentMethodType      string            `json:"payment_method_type,omitempty"`
	PaymentIntentID        string            `json:"payment_intent_id,omitempty"`
	CustomerID             string            `json:"customer_id,omitempty"`
	CustomerEmail          string            `json:"customer_email,omitempty"`
	SetupIntentID          string            `json:"setup_intent_id,omitempty"`
	ReturnURL              string            `json:"return_url,omitempty"`
	SuccessURL             string            `json:"success_url,omitempty"`
	FailureURL             string            `json:"failure_url,omitempty"`
	PartiallyPaidURL       string            `json:"partially_paid_url,omitempty"`
	CancelReason           string            `json:"cancel_reason,omitempty"`
	RefundReason           string            `json:"refund_reason,omitempty"`
	ReauthorizationEnabled bool              `json:"reauthorization_enabled,omitempty"`
	SaveForLaterUse        bool              `json:"save_for_later_use,omitempty"`
	AdditionalData         map[string]string `json:"additional_data,omitempty"`
}

// Value returns the string form of a keyed option. Unknown keys yield "".
func (o TransactionOptions) Value(key string) string {
	switch key {
	case OptionPaymentMethodID:
		return o.PaymentMethodID
	case OptionPaymentMethodType:
		return o.PaymentMethodType
	case OptionPaymentIntentID:
		return o.PaymentIntentID
	case OptionCustomerID:
		return o.CustomerID
	case OptionCustomerEmail:
		return o.CustomerEmail
	case OptionSetupIntentID:
		return o.SetupIntentID
	case OptionReturnURL:
		return o.ReturnURL
	case OptionSuccessURL:
		return o.SuccessURL
	case OptionFailureURL:
		return o.FailureURL
	case OptionPartiallyPaidURL:
		return o.PartiallyPaidURL
	case OptionCancelReason:
		return o.CancelReason
	case OptionRefundReason:
		return o.RefundReason
	case OptionReauthorizationEnabled:
		if o.ReauthorizationEnabled {
			return "true"
		}
	case OptionSaveForLaterUse:
		if o.SaveForLaterUse {
			return "true"
		}
	}
	return ""
}

// Require fails with a logic error naming the first missing key.
func (o TransactionOptions) Require(keys ...string) error {
	for _, key := range keys {
		if o.Value(key) == "" {
			return NewLogicError("transaction option %q is required", key)
		}
	}
	return nil
}

func (o TransactionOptions) Clone() TransactionOptions {
	clone := o
	if o.AdditionalData != nil {
		clone.AdditionalData = maps.Clone(o.AdditionalData)
	}
	return clone
}

func (o *TransactionOptions) SetAdditional(key, value string) {
	if o.AdditionalData == nil {
		o.AdditionalData = make(map[string]string)
	}
	o.AdditionalData[key] = value
}
