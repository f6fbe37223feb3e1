package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kirito-012/Ancient-Health/internal/event"
	"github.com/Kirito-012/Ancient-Health/internal/notify"
	"github.com/Kirito-012/Ancient-Health/internal/session"
	"github.com/Kirito-012/Ancient-Health/pkg/httputil"
	"github.com/Kirito-012/Ancient-Health/pkg/validator"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// CartHandler handles cart endpoints.
type CartHandler struct {
	hub    *session.Hub
	events *event.Publisher
	logger *slog.Logger
}

// NewCartHandler creates a cart HTTP handler.
func NewCartHandler(hub *session.Hub, events *event.Publisher, logger *slog.Logger) *CartHandler {
	return &CartHandler{hub: hub, events: events, logger: logger}
}

// AddItemRequest is the JSON body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1"`
}

// UpdateQuantityRequest is the JSON body for changing a line's quantity.
type UpdateQuantityRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sync := h.hub.Cart(r.Context(), sessionID(r))
	if err := sync.Refresh(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"cart": sync.Snapshot()}})
}

// Add handles POST /api/cart/add. Without a login the operation is rejected
// before any backend request and the response redirects to the login view.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx, col := notify.WithCollector(r.Context())
	sync := h.hub.Cart(ctx, sessionID(r))
	if err := sync.AddItem(ctx, req.ProductID, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}

	snapshot := sync.Snapshot()
	h.events.CartUpdated(ctx, sessionID(r), snapshot)
	writeJSON(w, http.StatusOK, response{
		Data:    map[string]any{"cart": snapshot},
		Notices: col.Notices(),
	})
}

// Update handles PUT /api/cart/update. Quantities below one are a no-op;
// removing a line goes through Remove instead.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx, col := notify.WithCollector(r.Context())
	sync := h.hub.Cart(ctx, sessionID(r))
	if err := sync.SetQuantity(ctx, req.ProductID, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}

	snapshot := sync.Snapshot()
	h.events.CartUpdated(ctx, sessionID(r), snapshot)
	writeJSON(w, http.StatusOK, response{
		Data:    map[string]any{"cart": snapshot},
		Notices: col.Notices(),
	})
}

// Remove handles DELETE /api/cart/remove/{productId}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeError(w, r, apperrors.InvalidInput("productId is required"))
		return
	}

	ctx, col := notify.WithCollector(r.Context())
	sync := h.hub.Cart(ctx, sessionID(r))
	if err := sync.RemoveItem(ctx, productID); err != nil {
		writeError(w, r, err)
		return
	}

	snapshot := sync.Snapshot()
	h.events.CartUpdated(ctx, sessionID(r), snapshot)
	writeJSON(w, http.StatusOK, response{
		Data:    map[string]any{"cart": snapshot},
		Notices: col.Notices(),
	})
}

// Clear handles DELETE /api/cart/clear.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, col := notify.WithCollector(r.Context())
	sync := h.hub.Cart(ctx, sessionID(r))
	if err := sync.Clear(ctx); err != nil {
		writeError(w, r, err)
		return
	}

	snapshot := sync.Snapshot()
	h.events.CartUpdated(ctx, sessionID(r), snapshot)
	writeJSON(w, http.StatusOK, response{
		Data:    map[string]any{"cart": snapshot},
		Notices: col.Notices(),
	})
}
