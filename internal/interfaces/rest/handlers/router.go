package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/interfaces/rest/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the engine's HTTP surface behind the shared middleware.
func NewRouter(h *Handlers, timeout time.Duration, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Timeout(timeout))

	r.Post("/webhooks/gateway", h.GatewayWebhook)
	r.Get("/healthz", h.Health)
	r.Get("/docs/openapi", h.OpenAPI)

	return r
}
