package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Kirito-012/Ancient-Health/internal/event"
	"github.com/Kirito-012/Ancient-Health/internal/gateway/razorpay"
	"github.com/Kirito-012/Ancient-Health/internal/notify"
	"github.com/Kirito-012/Ancient-Health/internal/session"
	"github.com/Kirito-012/Ancient-Health/pkg/httputil"
	"github.com/Kirito-012/Ancient-Health/pkg/validator"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// CheckoutHandler drives the checkout flow over HTTP. The widget callbacks
// arrive from the browser on the callback endpoints and are dispatched onto
// the session's orchestrator through the gateway adapter.
type CheckoutHandler struct {
	hub    *session.Hub
	widget *razorpay.Widget
	events *event.Publisher
	logger *slog.Logger
}

// NewCheckoutHandler creates a checkout HTTP handler.
func NewCheckoutHandler(hub *session.Hub, widget *razorpay.Widget, events *event.Publisher, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{hub: hub, widget: widget, events: events, logger: logger}
}

// ConfirmAddressRequest optionally overrides the default shipping address.
type ConfirmAddressRequest struct {
	AddressID string `json:"addressId"`
}

// SuccessCallbackRequest carries the widget's payment-success identifiers.
type SuccessCallbackRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	GatewaySignature string `json:"razorpay_signature" validate:"required"`
}

// FailureCallbackRequest carries the widget's payment-failed report.
type FailureCallbackRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
	Reason         string `json:"reason"`
}

// DismissCallbackRequest identifies the attempt the user closed.
type DismissCallbackRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
}

// Status handles GET /api/checkout.
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	orch := h.hub.Checkout(r.Context(), sessionID(r))
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"checkout": orch.Status()}})
}

// ConfirmAddress handles POST /api/checkout/address.
func (h *CheckoutHandler) ConfirmAddress(w http.ResponseWriter, r *http.Request) {
	var req ConfirmAddressRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, apperrors.InvalidInput("invalid request body"))
			return
		}
	}

	orch := h.hub.Checkout(r.Context(), sessionID(r))
	if err := orch.ConfirmAddress(r.Context(), req.AddressID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"checkout": orch.Status()}})
}

// Pay handles POST /api/checkout/pay: it creates the pending order, loads the
// gateway, and returns the widget options the frontend opens it with.
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	ctx, col := notify.WithCollector(r.Context())
	orch := h.hub.Checkout(ctx, sessionID(r))

	opts, err := orch.Start(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{
		Data:    map[string]any{"checkout": orch.Status(), "gateway": opts},
		Notices: col.Notices(),
	})
}

// Success handles POST /api/checkout/callback/success.
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	var req SuccessCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx, col := notify.WithCollector(r.Context())
	if err := h.widget.DispatchSuccess(ctx, req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature); err != nil {
		writeError(w, r, err)
		return
	}

	orch := h.hub.Checkout(ctx, sessionID(r))
	status := orch.Status()
	switch status.State {
	case "success":
		h.events.CheckoutCompleted(ctx, sessionID(r), status.OrderID)
	case "failed":
		h.events.CheckoutFailed(ctx, sessionID(r), status.Message)
	}
	writeJSON(w, http.StatusOK, response{
		Data:    map[string]any{"checkout": status},
		Notices: col.Notices(),
	})
}

// Failure handles POST /api/checkout/callback/failure.
func (h *CheckoutHandler) Failure(w http.ResponseWriter, r *http.Request) {
	var req FailureCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx, col := notify.WithCollector(r.Context())
	if err := h.widget.DispatchFailure(ctx, req.GatewayOrderID, req.Reason); err != nil {
		writeError(w, r, err)
		return
	}

	orch := h.hub.Checkout(ctx, sessionID(r))
	status := orch.Status()
	h.events.CheckoutFailed(ctx, sessionID(r), status.Message)
	writeJSON(w, http.StatusOK, response{
		Data:    map[string]any{"checkout": status},
		Notices: col.Notices(),
	})
}

// Dismiss handles POST /api/checkout/callback/dismiss. Closing the widget is
// not an error: the flow returns to the confirmed address, and retrying will
// create a fresh pending order.
func (h *CheckoutHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	var req DismissCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.widget.DispatchDismiss(r.Context(), req.GatewayOrderID); err != nil {
		writeError(w, r, err)
		return
	}

	orch := h.hub.Checkout(r.Context(), sessionID(r))
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"checkout": orch.Status()}})
}

// Reset handles POST /api/checkout/reset: back to Idle for a fresh attempt.
func (h *CheckoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	orch := h.hub.Checkout(r.Context(), sessionID(r))
	orch.Reset()
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"checkout": orch.Status()}})
}
