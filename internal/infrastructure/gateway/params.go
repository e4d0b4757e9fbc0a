package gateway

import (
	"net/url"
	"sort"
	"strconv"
)

type PaymentIntentParams struct {
	Amount             int64
	Currency           string
	PaymentMethod      string
	PaymentMethodTypes []string
	Customer           string
	CaptureMethod      string
	ConfirmationMethod string
	Confirm            bool
	OffSession         bool
	SetupFutureUsage   string
	ReturnURL          string
	Metadata           map[string]string
}

func (p PaymentIntentParams) Values() url.Values {
	v := url.Values{}
	v.Set("amount", strconv.FormatInt(p.Amount, 10))
	v.Set("currency", p.Currency)
	setIf(v, "payment_method", p.PaymentMethod)
	for _, t := range p.PaymentMethodTypes {
		v.Add("payment_method_types[]", t)
	}
	setIf(v, "customer", p.Customer)
	setIf(v, "capture_method", p.CaptureMethod)
	setIf(v, "confirmation_method", p.ConfirmationMethod)
	if p.Confirm {
		v.Set("confirm", "true")
	}
	if p.OffSession {
		v.Set("off_session", "true")
	}
	setIf(v, "setup_future_usage", p.SetupFutureUsage)
	setIf(v, "return_url", p.ReturnURL)
	setMetadata(v, p.Metadata)
	return v
}

type ConfirmParams struct {
	PaymentMethod string
	ReturnURL     string
	OffSession    bool
}

func (p ConfirmParams) Values() url.Values {
	v := url.Values{}
	setIf(v, "payment_method", p.PaymentMethod)
	setIf(v, "return_url", p.ReturnURL)
	if p.OffSession {
		v.Set("off_session", "true")
	}
	return v
}

type CaptureParams struct {
	AmountToCapture int64
}

func (p CaptureParams) Values() url.Values {
	v := url.Values{}
	if p.AmountToCapture > 0 {
		v.Set("amount_to_capture", strconv.FormatInt(p.AmountToCapture, 10))
	}
	return v
}

type CancelParams struct {
	CancellationReason string
}

func (p CancelParams) Values() url.Values {
	v := url.Values{}
	setIf(v, "cancellation_reason", p.CancellationReason)
	return v
}

type RefundParams struct {
	PaymentIntent string
	Amount        int64
	Reason        string
	Metadata      map[string]string
}

func (p RefundParams) Values() url.Values {
	v := url.Values{}
	v.Set("payment_intent", p.PaymentIntent)
	if p.Amount > 0 {
		v.Set("amount", strconv.FormatInt(p.Amount, 10))
	}
	setIf(v, "reason", p.Reason)
	setMetadata(v, p.Metadata)
	return v
}

type CustomerParams struct {
	Email         string
	Name          string
	PaymentMethod string
	Metadata      map[string]string
}

func (p CustomerParams) Values() url.Values {
	v := url.Values{}
	setIf(v, "email", p.Email)
	setIf(v, "name", p.Name)
	setIf(v, "payment_method", p.PaymentMethod)
	setMetadata(v, p.Metadata)
	return v
}

type SetupIntentParams struct {
	Customer           string
	PaymentMethod      string
	PaymentMethodTypes []string
	Usage              string
	Confirm            bool
	ReturnURL          string
	Metadata           map[string]string
}

func (p SetupIntentParams) Values() url.Values {
	v := url.Values{}
	setIf(v, "customer", p.Customer)
	setIf(v, "payment_method", p.PaymentMethod)
	for _, t := range p.PaymentMethodTypes {
		v.Add("payment_method_types[]", t)
	}
	setIf(v, "usage", p.Usage)
	if p.Confirm {
		v.Set("confirm", "true")
	}
	setIf(v, "return_url", p.ReturnURL)
	setMetadata(v, p.Metadata)
	return v
}

type WebhookEndpointParams struct {
	URL           string
	EnabledEvents []string
	APIVersion    string
	Description   string
}

func (p WebhookEndpointParams) Values() url.Values {
	v := url.Values{}
	v.Set("url", p.URL)
	for _, e := range p.EnabledEvents {
		v.Add("enabled_events[]", e)
	}
	setIf(v, "api_version", p.APIVersion)
	setIf(v, "description", p.Description)
	return v
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setMetadata(v url.Values, metadata map[string]string) {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Set("metadata["+k+"]", metadata[k])
	}
}
