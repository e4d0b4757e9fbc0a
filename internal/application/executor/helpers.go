package executor

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/google/uuid"
)

var idempotencyNamespace = uuid.MustParse("6f1c3a52-8d0e-4f7b-9a43-2b5e1d7c9f60")

// idempotencyKey is stable for one action on one transaction, so retries of
// the same logical call collapse on the Gateway side.
func idempotencyKey(name ActionName, tx *domain.PaymentTransaction) string {
	seed := string(name) + ":" + strconv.FormatInt(tx.ID, 10) + ":" + tx.AccessToken
	return uuid.NewSHA1(idempotencyNamespace, []byte(seed)).String()
}

func transactionMetadata(tx *domain.PaymentTransaction) map[string]string {
	metadata := map[string]string{
		gateway.MetadataAccessIdentifier: strconv.FormatInt(tx.ID, 10),
		gateway.MetadataAccessToken:      tx.AccessToken,
	}
	if tx.EntityIdentifier != "" {
		metadata[gateway.MetadataOrderID] = tx.EntityIdentifier
	}
	return metadata
}

func gatewayCurrency(currency string) string {
	return strings.ToLower(currency)
}

func snapshot(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// applyPaymentIntent copies the intent state onto the transaction and reports
// whether the intent reached a successful state. An intent waiting for
// capture turns a purchase into an authorization.
func applyPaymentIntent(tx *domain.PaymentTransaction, pi *gateway.PaymentIntent) bool {
	tx.Options.PaymentIntentID = pi.ID
	if pi.PaymentMethod != "" && tx.Options.PaymentMethodID == "" {
		tx.Options.PaymentMethodID = pi.PaymentMethod
	}
	if pi.Customer != "" && tx.Options.CustomerID == "" {
		tx.Options.CustomerID = pi.Customer
	}

	tx.Response = domain.TransactionResponse{
		ObjectID:       pi.ID,
		ObjectType:     "payment_intent",
		Status:         pi.Status,
		ClientSecret:   pi.ClientSecret,
		RequiresAction: pi.Status == gateway.StatusRequiresAction,
		Raw:            snapshot(pi),
	}
	if pi.LastPaymentError != nil {
		tx.RecordError(pi.LastPaymentError.Type, pi.LastPaymentError.Code, pi.LastPaymentError.DeclineCode, pi.LastPaymentError.Message)
	}

	switch pi.Status {
	case gateway.StatusRequiresCapture:
		if tx.Action == domain.ActionPurchase {
			tx.Action = domain.ActionAuthorize
		}
		tx.Active = true
		tx.MarkSucceeded(pi.ID)
		return true
	case gateway.StatusSucceeded:
		tx.Active = true
		tx.MarkSucceeded(pi.ID)
		return true
	case gateway.StatusCanceled:
		tx.Reference = pi.ID
		tx.MarkFailed()
		return false
	case gateway.StatusRequiresPaymentMethod:
		// a declined confirmation sends the intent back here with an error attached
		tx.Reference = pi.ID
		if pi.LastPaymentError != nil {
			tx.MarkFailed()
		} else {
			tx.Successful = false
		}
		return false
	default:
		tx.Reference = pi.ID
		tx.Successful = false
		return false
	}
}
