package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/spf13/cast"
)

type TransactionFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.PaymentTransaction, error)
	FindLatestSuccessfulByReference(ctx context.Context, paymentMethod, reference string, actions []domain.Action) (*domain.PaymentTransaction, error)
}

// Matcher resolves the local transaction an event is about.
type Matcher struct {
	repo TransactionFinder
}

func NewMatcher(repo TransactionFinder) *Matcher {
	return &Matcher{repo: repo}
}

func (m *Matcher) Match(ctx context.Context, ve *VerifiedEvent) (*domain.PaymentTransaction, error) {
	switch {
	case strings.HasPrefix(ve.Event.Type, "payment_intent."):
		return m.matchPaymentIntent(ctx, ve)
	case isRefundEvent(ve.Event.Type):
		return m.matchRefund(ctx, ve)
	}
	return nil, domain.NewNotSupportedEventError(fmt.Sprintf("event type %s is not supported", ve.Event.Type))
}

func isRefundEvent(eventType string) bool {
	return strings.HasPrefix(eventType, "refund.") || eventType == gateway.EventChargeRefundUpdated
}

// matchPaymentIntent uses the access identifier and token written into the
// intent metadata when it was created.
func (m *Matcher) matchPaymentIntent(ctx context.Context, ve *VerifiedEvent) (*domain.PaymentTransaction, error) {
	pi, err := ve.Event.PaymentIntent()
	if err != nil {
		return nil, domain.NewNotSupportedEventError(err.Error())
	}

	id, err := cast.ToInt64E(pi.Metadata[gateway.MetadataAccessIdentifier])
	if err != nil || id <= 0 {
		return nil, domain.NewNotSupportedEventError(fmt.Sprintf("payment intent %s carries no transaction identifier", pi.ID))
	}
	token := pi.Metadata[gateway.MetadataAccessToken]

	tx, err := m.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, domain.NewNotSupportedEventError(fmt.Sprintf("no transaction matches payment intent %s", pi.ID))
	}
	if err != nil {
		return nil, err
	}

	if !tx.MatchesAccess(id, token) || tx.PaymentMethod != ve.Method.Identifier() {
		return nil, domain.NewNotSupportedEventError(fmt.Sprintf("no transaction matches payment intent %s", pi.ID))
	}

	return tx, nil
}

// matchRefund finds the captured transaction the refund was issued against.
func (m *Matcher) matchRefund(ctx context.Context, ve *VerifiedEvent) (*domain.PaymentTransaction, error) {
	refund, err := ve.Event.Refund()
	if err != nil {
		return nil, domain.NewNotSupportedEventError(err.Error())
	}
	if refund.PaymentIntent == "" {
		return nil, domain.NewLogicError("refund %s has no payment intent", refund.ID)
	}

	tx, err := m.repo.FindLatestSuccessfulByReference(ctx, ve.Method.Identifier(), refund.PaymentIntent, domain.CapturableActions)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, domain.NewLogicError("no captured transaction for refund %s of payment intent %s", refund.ID, refund.PaymentIntent)
	}
	if err != nil {
		return nil, err
	}

	return tx, nil
}
