package handlers

import (
	"io"
	"net/http"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/application"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/interfaces/rest"
)

const maxWebhookBody = 1 << 20

// GatewayWebhook answers 200 with an empty body when the event was applied.
// Events no payment method handles are acknowledged with 200 and a message
// so the Gateway stops redelivering them.
func (h *Handlers) GatewayWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		rest.WriteError(w, application.NewInternalError(err), h.logger)
		return
	}
	if len(payload) > maxWebhookBody {
		rest.WriteError(w, application.NewRequestTooLargeError(maxWebhookBody), h.logger)
		return
	}
	if len(payload) == 0 {
		rest.WriteError(w, application.NewEmptyRequestError(), h.logger)
		return
	}

	if err := h.webhooks.Handle(r.Context(), payload, r.Header.Get(gateway.SignatureHeader)); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}
