// Package domain holds the payment transaction record and the contracts around it
package domain

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Action is the kind of money movement a transaction records
type Action string

const (
	ActionPurchase    Action = "purchase"
	ActionAuthorize   Action = "authorize"
	ActionCharge      Action = "charge"
	ActionCapture     Action = "capture"
	ActionCancel      Action = "cancel"
	ActionRefund      Action = "refund"
	ActionReAuthorize Action = "re_authorize"
	ActionConfirm     Action = "confirm"
)

// CapturableActions are the actions whose Gateway reference a refund can point at.
var CapturableActions = []Action{ActionPurchase, ActionCharge, ActionCapture}

func (a Action) IsValid() bool {
	switch a {
	case ActionPurchase, ActionAuthorize, ActionCharge, ActionCapture,
		ActionCancel, ActionRefund, ActionReAuthorize, ActionConfirm:
		return true
	}
	return false
}

// PaymentTransaction is one attempted money movement against the Gateway.
type PaymentTransaction struct {
	ID            int64
	Action        Action
	PaymentMethod string
	Amount        decimal.Decimal
	Currency      string

	Active     bool
	Successful bool

	Reference   string
	AccessToken string

	EntityClass      string
	EntityIdentifier string

	Response TransactionResponse
	Options  TransactionOptions

	SourceTransactionID *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionResponse is the typed snapshot of the last Gateway answer.
type TransactionResponse struct {
	ObjectID       string          `json:"object_id,omitempty"`
	ObjectType     string          `json:"object_type,omitempty"`
	Status         string          `json:"status,omitempty"`
	ClientSecret   string          `json:"client_secret,omitempty"`
	RequiresAction bool            `json:"requires_action,omitempty"`
	ErrorType      string          `json:"error_type,omitempty"`
	ErrorCode      string          `json:"error_code,omitempty"`
	DeclineCode    string          `json:"decline_code,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

func NewTransaction(action Action, paymentMethod string, amount decimal.Decimal, currency string) *PaymentTransaction {
	now := time.Now().UTC()
	return &PaymentTransaction{
		Action:        action,
		PaymentMethod: paymentMethod,
		Amount:        amount,
		Currency:      currency,
		AccessToken:   uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewChild creates a transaction descending from t. Entity fields and the
// access token scheme are inherited, options are copied.
func (t *PaymentTransaction) NewChild(action Action) *PaymentTransaction {
	child := NewTransaction(action, t.PaymentMethod, t.Amount, t.Currency)
	child.EntityClass = t.EntityClass
	child.EntityIdentifier = t.EntityIdentifier
	child.Options = t.Options.Clone()
	parentID := t.ID
	child.SourceTransactionID = &parentID
	return child
}

func (t *PaymentTransaction) IsAction(actions ...Action) bool {
	return slices.Contains(actions, t.Action)
}

func (t *PaymentTransaction) IsActiveAuthorization() bool {
	return t.Action == ActionAuthorize && t.Active && t.Successful
}

// MarkSucceeded records a successful Gateway outcome.
func (t *PaymentTransaction) MarkSucceeded(reference string) {
	t.Successful = true
	if reference != "" {
		t.Reference = reference
	}
	t.touch()
}

// MarkFailed records an unsuccessful Gateway outcome. The transaction stops
// being the active one of its lineage.
func (t *PaymentTransaction) MarkFailed() {
	t.Successful = false
	t.Active = false
	t.touch()
}

func (t *PaymentTransaction) Deactivate() {
	t.Active = false
	t.touch()
}

func (t *PaymentTransaction) RecordError(errType, code, declineCode, message string) {
	t.Response.ErrorType = errType
	t.Response.ErrorCode = code
	t.Response.DeclineCode = declineCode
	t.Response.ErrorMessage = message
	t.touch()
}

// MatchesAccess reports whether an access identifier/token pair written into
// Gateway metadata belongs to this transaction.
func (t *PaymentTransaction) MatchesAccess(id int64, token string) bool {
	return t.ID == id && token != "" && t.AccessToken == token
}

func (t *PaymentTransaction) touch() {
	t.UpdatedAt = time.Now().UTC()
}
