package handlers

import (
	"net/http"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/interfaces/rest"
)

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

func (h *Handlers) OpenAPI(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, h.doc, h.logger)
}
