// Package webhook verifies, matches and dispatches Gateway webhook events.
package webhook

import (
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/method"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
)

type MethodSource interface {
	Enabled() []method.Method
}

// VerifiedEvent is an event whose signature matched the webhook secret of Method.
type VerifiedEvent struct {
	Event  *gateway.Event
	Method method.Method
}

// EventFactory turns a signed payload into a VerifiedEvent.
type EventFactory struct {
	methods   MethodSource
	tolerance time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func NewEventFactory(methods MethodSource, tolerance time.Duration, logger *slog.Logger) *EventFactory {
	return &EventFactory{
		methods:   methods,
		tolerance: tolerance,
		now:       time.Now,
		logger:    logger,
	}
}

// Create tries the webhook secret of every enabled method in identifier
// order. The first method whose secret verifies the signature owns the event.
func (f *EventFactory) Create(payload []byte, signatureHeader string) (*VerifiedEvent, error) {
	if signatureHeader == "" {
		return nil, domain.NewNotSupportedEventError("missing " + gateway.SignatureHeader + " header")
	}

	now := f.now()
	for _, m := range f.methods.Enabled() {
		secret := m.Config().WebhookSecret
		if secret == "" {
			continue
		}

		if err := gateway.VerifySignature(payload, signatureHeader, secret, f.tolerance, now); err != nil {
			f.logger.Debug("webhook signature not valid for method",
				"payment_method", m.Identifier(),
				"error", err,
			)
			continue
		}

		event, err := gateway.ParseEvent(payload)
		if err != nil {
			return nil, domain.NewNotSupportedEventError(err.Error())
		}

		return &VerifiedEvent{Event: event, Method: m}, nil
	}

	return nil, domain.NewNotSupportedEventError("no payment method verifies the webhook signature")
}
