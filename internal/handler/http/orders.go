package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kirito-012/Ancient-Health/internal/orders"
	"github.com/Kirito-012/Ancient-Health/internal/session"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// OrdersHandler handles the read-only order history endpoints.
type OrdersHandler struct {
	hub    *session.Hub
	viewer *orders.Viewer
	logger *slog.Logger
}

// NewOrdersHandler creates an orders HTTP handler.
func NewOrdersHandler(hub *session.Hub, viewer *orders.Viewer, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{hub: hub, viewer: viewer, logger: logger}
}

// List handles GET /api/orders.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	store := h.hub.Store(r.Context(), sessionID(r))
	records, err := h.viewer.List(r.Context(), store)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"orders": records}})
}

// Get handles GET /api/orders/{id}, serving the order confirmation view.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, r, apperrors.InvalidInput("order id is required"))
		return
	}

	store := h.hub.Store(r.Context(), sessionID(r))
	record, err := h.viewer.Get(r.Context(), store, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"order": record}})
}
