// Package checkout drives the multi-step flow that turns a cart and a
// shipping address into a paid order: create a pending order on the backend,
// open the payment gateway, and verify the gateway's result server-side.
package checkout

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Kirito-012/Ancient-Health/internal/backend"
	"github.com/Kirito-012/Ancient-Health/internal/domain"
	"github.com/Kirito-012/Ancient-Health/internal/gateway"
	"github.com/Kirito-012/Ancient-Health/internal/notify"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

var checkoutOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Total number of checkout attempts by outcome",
	},
	[]string{"outcome"},
)

// State is the orchestrator's position in the checkout flow.
type State int

const (
	StateIdle State = iota
	StateAddressConfirmed
	StateOrderCreated
	StateGatewayOpen
	StateVerifying
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAddressConfirmed:
		return "address_confirmed"
	case StateOrderCreated:
		return "order_created"
	case StateGatewayOpen:
		return "gateway_open"
	case StateVerifying:
		return "verifying"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is the slice of the session store the orchestrator needs.
type Session interface {
	Credential() (string, bool)
	Profile() (domain.Profile, bool)
}

// Cart is the slice of the cart synchronizer the orchestrator needs.
type Cart interface {
	Snapshot() domain.CartSnapshot
	Clear(ctx context.Context) error
}

// OrderAPI is the slice of the backend client the orchestrator needs.
type OrderAPI interface {
	CreateOrder(ctx context.Context, credential string, shipping domain.Address) (domain.PendingOrder, error)
	VerifyPayment(ctx context.Context, credential string, req backend.VerifyRequest) (domain.OrderRecord, error)
}

// Brand carries the storefront identity shown inside the payment widget.
type Brand struct {
	Name       string
	ThemeColor string
	Currency   string
}

// Orchestrator is the per-session checkout state machine:
//
//	Idle -> AddressConfirmed -> OrderCreated -> GatewayOpen -> Verifying -> Success | Failed
//
// plus GatewayOpen -> AddressConfirmed on dismissal and GatewayOpen -> Failed
// on a gateway-reported failure. Success and Failed are terminal; another
// attempt starts over from Idle via Reset.
type Orchestrator struct {
	mu    sync.Mutex
	state State
	busy  bool

	address        domain.Address
	pending        domain.PendingOrder
	successOrderID string
	failureMessage string

	session  Session
	cart     Cart
	orders   OrderAPI
	gateway  gateway.Gateway
	notifier notify.Notifier
	brand    Brand
	logger   *slog.Logger
}

// NewOrchestrator creates an idle orchestrator for one session.
func NewOrchestrator(sess Session, cart Cart, orders OrderAPI, gw gateway.Gateway, notifier notify.Notifier, brand Brand, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		state:    StateIdle,
		session:  sess,
		cart:     cart,
		orders:   orders,
		gateway:  gw,
		notifier: notifier,
		brand:    brand,
		logger:   logger,
	}
}

// Status is a read-only view of the orchestrator for the frontend.
type Status struct {
	State   string          `json:"state"`
	Busy    bool            `json:"busy"`
	Address *domain.Address `json:"address,omitempty"`
	OrderID string          `json:"orderId,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Status returns the current state for display.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := Status{
		State:   o.state.String(),
		Busy:    o.busy,
		OrderID: o.successOrderID,
		Message: o.failureMessage,
	}
	if o.state >= StateAddressConfirmed && o.state != StateFailed {
		addr := o.address
		st.Address = &addr
	}
	return st
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ConfirmAddress resolves the shipping address and moves Idle to
// AddressConfirmed. It is rejected with a distinct error per missing
// precondition: not logged in, no saved addresses, no resolvable selection,
// or an empty cart. Re-confirming with a different override is allowed while
// still in AddressConfirmed.
func (o *Orchestrator) ConfirmAddress(ctx context.Context, overrideID string) error {
	o.mu.Lock()
	if o.state != StateIdle && o.state != StateAddressConfirmed {
		o.mu.Unlock()
		return apperrors.InvalidInput("checkout is already in progress")
	}
	if o.busy {
		o.mu.Unlock()
		return apperrors.InvalidInput("checkout is already in progress")
	}
	o.mu.Unlock()

	profile, loaded := o.session.Profile()
	addr, err := SelectAddress(profile, loaded, overrideID)
	if err != nil {
		return err
	}
	if o.cart.Snapshot().IsEmpty() {
		return &apperrors.AppError{
			Code:    "EMPTY_CART",
			Message: "Your cart is empty",
			Status:  http.StatusUnprocessableEntity,
			Err:     apperrors.ErrInvalidInput,
		}
	}

	o.mu.Lock()
	o.address = addr
	o.state = StateAddressConfirmed
	o.mu.Unlock()
	return nil
}

// Start creates the pending order and opens the payment gateway, returning
// the widget options the frontend opens the gateway with. A failure at any
// step returns the orchestrator to AddressConfirmed; nothing is retried
// automatically.
func (o *Orchestrator) Start(ctx context.Context) (gateway.Options, error) {
	o.mu.Lock()
	if o.state != StateAddressConfirmed {
		o.mu.Unlock()
		return gateway.Options{}, apperrors.InvalidInput("confirm a shipping address before paying")
	}
	if o.busy {
		o.mu.Unlock()
		return gateway.Options{}, apperrors.InvalidInput("checkout is already in progress")
	}
	o.busy = true
	addr := o.address
	o.mu.Unlock()

	credential, ok := o.session.Credential()
	if !ok {
		// The session logged out underneath the flow, e.g. via a 401.
		o.mu.Lock()
		o.busy = false
		o.state = StateIdle
		o.mu.Unlock()
		return gateway.Options{}, apperrors.AuthRequired("Please login to continue")
	}

	pending, err := o.orders.CreateOrder(ctx, credential, addr)
	if err != nil {
		o.backToConfirmed()
		checkoutOutcomesTotal.WithLabelValues("order_create_failed").Inc()
		o.notifier.Error(ctx, apperrors.UserMessage(err, "Failed to create order. Please try again."))
		return gateway.Options{}, err
	}

	o.mu.Lock()
	o.pending = pending
	o.state = StateOrderCreated
	o.mu.Unlock()

	if err := o.gateway.Load(ctx); err != nil {
		o.backToConfirmed()
		checkoutOutcomesTotal.WithLabelValues("gateway_load_failed").Inc()
		loadErr := apperrors.GatewayLoad("Failed to load payment gateway. Please check your connection.")
		o.notifier.Error(ctx, loadErr.Message)
		return gateway.Options{}, loadErr
	}

	opts := o.widgetOptions(pending, addr)
	if err := o.gateway.Open(ctx, opts, gateway.Callbacks{
		OnSuccess: func(ctx context.Context, orderID, paymentID, signature string) {
			// The outcome lands on the orchestrator's own state either way.
			_ = o.HandleGatewaySuccess(ctx, orderID, paymentID, signature)
		},
		OnFailure: o.HandleGatewayFailure,
		OnDismiss: o.HandleGatewayDismiss,
	}); err != nil {
		o.backToConfirmed()
		checkoutOutcomesTotal.WithLabelValues("gateway_open_failed").Inc()
		openErr := apperrors.GatewayLoad("Failed to open payment gateway. Please try again.")
		o.notifier.Error(ctx, openErr.Message)
		return gateway.Options{}, openErr
	}

	o.mu.Lock()
	o.state = StateGatewayOpen
	o.mu.Unlock()
	return opts, nil
}

func (o *Orchestrator) widgetOptions(pending domain.PendingOrder, addr domain.Address) gateway.Options {
	opts := gateway.Options{
		Key:         pending.Key,
		AmountPaise: pending.AmountPaise(),
		Currency:    o.brand.Currency,
		OrderID:     pending.GatewayOrderID,
		Name:        o.brand.Name,
		Description: "Purchase from " + o.brand.Name,
		ThemeColor:  o.brand.ThemeColor,
		Notes: map[string]string{
			"address": addr.Address + ", " + addr.City + ", " + addr.State + " - " + addr.Pincode,
		},
	}
	if profile, ok := o.session.Profile(); ok {
		contact := addr.Phone
		if contact == "" {
			contact = profile.Phone
		}
		opts.Prefill = gateway.Prefill{
			Name:    profile.Name,
			Email:   profile.Email,
			Contact: NormalizeContact(contact),
		}
	}
	return opts
}

func (o *Orchestrator) backToConfirmed() {
	o.mu.Lock()
	o.busy = false
	o.state = StateAddressConfirmed
	o.pending = domain.PendingOrder{}
	o.mu.Unlock()
}

// HandleGatewaySuccess verifies a gateway-reported payment with the backend.
// Verification success clears the cart and lands in Success with the created
// order's id for the confirmation view. Any verification failure, rejection
// or transport error alike, lands in Failed with a message telling the user
// to contact support: funds may have moved at the gateway even though the
// backend could not confirm it, so this is deliberately not phrased as
// "payment failed".
func (o *Orchestrator) HandleGatewaySuccess(ctx context.Context, orderID, paymentID, signature string) error {
	o.mu.Lock()
	if o.state != StateGatewayOpen {
		o.mu.Unlock()
		return apperrors.InvalidInput("no payment in progress")
	}
	o.state = StateVerifying
	o.mu.Unlock()

	credential, ok := o.session.Credential()
	if !ok {
		return o.failVerification(ctx)
	}

	record, err := o.orders.VerifyPayment(ctx, credential, backend.VerifyRequest{
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		GatewaySignature: signature,
		PaymentMethod:    "Razorpay",
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "payment verification failed",
			slog.String("gateway_order_id", orderID),
			slog.String("error", err.Error()),
		)
		return o.failVerification(ctx)
	}

	o.mu.Lock()
	o.state = StateSuccess
	o.busy = false
	o.successOrderID = record.ID
	o.mu.Unlock()

	if err := o.cart.Clear(ctx); err != nil {
		// The order is placed either way; the next cart refresh reconciles.
		o.logger.WarnContext(ctx, "cart clear after payment failed",
			slog.String("error", err.Error()),
		)
	}
	checkoutOutcomesTotal.WithLabelValues("success").Inc()
	o.notifier.Success(ctx, "Payment successful! Your order has been placed.")
	return nil
}

func (o *Orchestrator) failVerification(ctx context.Context) error {
	verr := apperrors.VerificationFailed()
	o.mu.Lock()
	o.state = StateFailed
	o.busy = false
	o.failureMessage = verr.Message
	o.mu.Unlock()
	checkoutOutcomesTotal.WithLabelValues("verification_failed").Inc()
	o.notifier.Error(ctx, verr.Message)
	return verr
}

// HandleGatewayFailure records a failure reported by the payment widget. The
// gateway's reason is surfaced verbatim when present.
func (o *Orchestrator) HandleGatewayFailure(ctx context.Context, reason string) {
	o.mu.Lock()
	if o.state != StateGatewayOpen {
		o.mu.Unlock()
		return
	}
	if reason == "" {
		reason = "Payment failed. Please try again."
	}
	o.state = StateFailed
	o.busy = false
	o.failureMessage = reason
	o.mu.Unlock()
	checkoutOutcomesTotal.WithLabelValues("gateway_failed").Inc()
	o.notifier.Error(ctx, reason)
}

// HandleGatewayDismiss handles the user closing the widget without paying.
// Not an error: the orchestrator returns to AddressConfirmed and the busy
// flag clears, so a retry re-creates a fresh pending order. The abandoned
// order is the backend's to garbage-collect; no cleanup is attempted here.
func (o *Orchestrator) HandleGatewayDismiss(ctx context.Context) {
	o.mu.Lock()
	if o.state != StateGatewayOpen {
		o.mu.Unlock()
		return
	}
	o.state = StateAddressConfirmed
	o.busy = false
	o.pending = domain.PendingOrder{}
	o.mu.Unlock()
	checkoutOutcomesTotal.WithLabelValues("dismissed").Inc()
}

// Reset returns the orchestrator to Idle for a fresh attempt. Terminal
// states are never re-entered automatically; the frontend calls this when the
// user re-initiates checkout.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateIdle
	o.busy = false
	o.address = domain.Address{}
	o.pending = domain.PendingOrder{}
	o.successOrderID = ""
	o.failureMessage = ""
}
