package handlers

import (
	"context"
	"log/slog"

	"github.com/getkin/kin-openapi/openapi3"
)

// WebhookProcessor verifies and applies one Gateway webhook delivery.
type WebhookProcessor interface {
	Handle(ctx context.Context, payload []byte, signatureHeader string) error
}

type Handlers struct {
	webhooks WebhookProcessor
	doc      *openapi3.T
	logger   *slog.Logger
}

func NewHandlers(webhooks WebhookProcessor, doc *openapi3.T, logger *slog.Logger) *Handlers {
	return &Handlers{
		webhooks: webhooks,
		doc:      doc,
		logger:   logger,
	}
}
