package gateway

import (
	"encoding/json"
	"fmt"
)

// Payment intent statuses.
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusRequiresAction        = "requires_action"
	StatusProcessing            = "processing"
	StatusRequiresCapture       = "requires_capture"
	StatusCanceled              = "canceled"
	StatusSucceeded             = "succeeded"
)

// Refund statuses.
const (
	RefundStatusPending   = "pending"
	RefundStatusSucceeded = "succeeded"
	RefundStatusFailed    = "failed"
	RefundStatusCanceled  = "canceled"
)

// Metadata keys linking Gateway objects back to local transactions.
const (
	MetadataOrderID          = "order_id"
	MetadataAccessIdentifier = "payment_transaction_access_identifier"
	MetadataAccessToken      = "payment_transaction_access_token"
)

type PaymentIntent struct {
	ID                 string            `json:"id"`
	Object             string            `json:"object"`
	Amount             int64             `json:"amount"`
	AmountCapturable   int64             `json:"amount_capturable"`
	AmountReceived     int64             `json:"amount_received"`
	Currency           string            `json:"currency"`
	Status             string            `json:"status"`
	CaptureMethod      string            `json:"capture_method"`
	ClientSecret       string            `json:"client_secret"`
	Customer           string            `json:"customer"`
	PaymentMethod      string            `json:"payment_method"`
	PaymentMethodTypes []string          `json:"payment_method_types"`
	LatestCharge       string            `json:"latest_charge"`
	Metadata           map[string]string `json:"metadata"`
	LastPaymentError   *APIErrorDetail   `json:"last_payment_error"`
	NextAction         json.RawMessage   `json:"next_action"`
}

type APIErrorDetail struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	DeclineCode string `json:"decline_code"`
	Message     string `json:"message"`
}

type Refund struct {
	ID            string            `json:"id"`
	Object        string            `json:"object"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	PaymentIntent string            `json:"payment_intent"`
	Status        string            `json:"status"`
	Reason        string            `json:"reason"`
	FailureReason string            `json:"failure_reason"`
	Metadata      map[string]string `json:"metadata"`
}

type Customer struct {
	ID       string            `json:"id"`
	Object   string            `json:"object"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

type SetupIntent struct {
	ID            string            `json:"id"`
	Object        string            `json:"object"`
	Status        string            `json:"status"`
	Customer      string            `json:"customer"`
	PaymentMethod string            `json:"payment_method"`
	Usage         string            `json:"usage"`
	ClientSecret  string            `json:"client_secret"`
	Metadata      map[string]string `json:"metadata"`
}

type WebhookEndpoint struct {
	ID            string   `json:"id"`
	Object        string   `json:"object"`
	URL           string   `json:"url"`
	Secret        string   `json:"secret"`
	Status        string   `json:"status"`
	EnabledEvents []string `json:"enabled_events"`
}

// Event is a webhook notification as delivered by the Gateway.
type Event struct {
	ID         string    `json:"id"`
	Object     string    `json:"object"`
	Type       string    `json:"type"`
	Created    int64     `json:"created"`
	Livemode   bool      `json:"livemode"`
	APIVersion string    `json:"api_version"`
	Data       EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

// Event types the engine reacts to.
const (
	EventPaymentIntentSucceeded              = "payment_intent.succeeded"
	EventPaymentIntentAmountCapturableUpdate = "payment_intent.amount_capturable_updated"
	EventPaymentIntentPaymentFailed          = "payment_intent.payment_failed"
	EventPaymentIntentCanceled               = "payment_intent.canceled"
	EventRefundCreated                       = "refund.created"
	EventRefundUpdated                       = "refund.updated"
	EventRefundFailed                        = "refund.failed"
	EventChargeRefundUpdated                 = "charge.refund.updated"
)

func (e *Event) PaymentIntent() (*PaymentIntent, error) {
	var pi PaymentIntent
	if err := json.Unmarshal(e.Data.Object, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent from event %s: %w", e.ID, err)
	}
	return &pi, nil
}

func (e *Event) Refund() (*Refund, error) {
	var r Refund
	if err := json.Unmarshal(e.Data.Object, &r); err != nil {
		return nil, fmt.Errorf("decode refund from event %s: %w", e.ID, err)
	}
	return &r, nil
}

// ParseEvent decodes a raw webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("decode event: missing id or type")
	}
	return &event, nil
}
