// Package razorpay adapts the Razorpay hosted checkout to the gateway
// capability. The widget itself runs in the browser; this adapter owns the
// one-time availability probe of the checkout script and the registry of open
// attempts whose callbacks the storefront's callback endpoints dispatch.
package razorpay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Kirito-012/Ancient-Health/internal/gateway"
	"github.com/Kirito-012/Ancient-Health/pkg/httpclient"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// DefaultScriptURL is Razorpay's hosted checkout script.
const DefaultScriptURL = "https://checkout.razorpay.com/v1/checkout.js"

// attemptTTL bounds how long an undispatched attempt stays registered. A
// Razorpay order stays payable for well under this, so a callback arriving
// after expiry belongs to an abandoned widget.
const attemptTTL = 30 * time.Minute

type attempt struct {
	opts    gateway.Options
	cb      gateway.Callbacks
	created time.Time
}

// Widget implements gateway.Gateway against Razorpay's hosted checkout.
type Widget struct {
	mu       sync.Mutex
	loaded   bool
	attempts map[string]attempt

	scriptURL  string
	attemptTTL time.Duration
	client     *httpclient.Client
	logger     *slog.Logger
}

// New creates a Razorpay widget adapter. scriptURL falls back to
// DefaultScriptURL when empty.
func New(scriptURL string, client *httpclient.Client, logger *slog.Logger) *Widget {
	if scriptURL == "" {
		scriptURL = DefaultScriptURL
	}
	return &Widget{
		attempts:   make(map[string]attempt),
		scriptURL:  scriptURL,
		attemptTTL: attemptTTL,
		client:     client,
		logger:     logger,
	}
}

// Load probes the hosted checkout script once per process. After a successful
// probe every later call returns immediately; after a failure the next Load
// probes again, mirroring the check-before-inject behavior of a script tag.
func (w *Widget) Load(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loaded {
		return nil
	}

	resp, err := w.client.Get(ctx, w.scriptURL)
	if err != nil {
		return fmt.Errorf("probe checkout script: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("probe checkout script: status %d", resp.StatusCode)
	}

	w.loaded = true
	w.logger.InfoContext(ctx, "payment gateway script available", slog.String("url", w.scriptURL))
	return nil
}

// Open registers a checkout attempt keyed by its gateway order id. The
// frontend opens the widget with the returned options; the attempt's
// callbacks stay registered until one of the three dispatches consumes them
// or the attempt expires.
func (w *Widget) Open(_ context.Context, opts gateway.Options, cb gateway.Callbacks) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.loaded {
		return fmt.Errorf("payment gateway script not loaded")
	}
	if opts.OrderID == "" {
		return fmt.Errorf("missing gateway order id")
	}

	now := time.Now()
	for id, a := range w.attempts {
		if now.Sub(a.created) > w.attemptTTL {
			delete(w.attempts, id)
		}
	}
	w.attempts[opts.OrderID] = attempt{opts: opts, cb: cb, created: now}
	return nil
}

// take consumes the attempt for the given order id. An expired attempt is
// indistinguishable from an unknown one.
func (w *Widget) take(orderID string) (attempt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.attempts[orderID]
	if !ok || time.Since(a.created) > w.attemptTTL {
		delete(w.attempts, orderID)
		return attempt{}, apperrors.NotFound("checkout attempt", orderID)
	}
	delete(w.attempts, orderID)
	return a, nil
}

// DispatchSuccess routes the widget's payment-success callback to its attempt.
func (w *Widget) DispatchSuccess(ctx context.Context, orderID, paymentID, signature string) error {
	a, err := w.take(orderID)
	if err != nil {
		return err
	}
	a.cb.OnSuccess(ctx, orderID, paymentID, signature)
	return nil
}

// DispatchFailure routes the widget's payment-failed callback to its attempt.
func (w *Widget) DispatchFailure(ctx context.Context, orderID, reason string) error {
	a, err := w.take(orderID)
	if err != nil {
		return err
	}
	a.cb.OnFailure(ctx, reason)
	return nil
}

// DispatchDismiss routes the widget's dismissal callback to its attempt.
func (w *Widget) DispatchDismiss(ctx context.Context, orderID string) error {
	a, err := w.take(orderID)
	if err != nil {
		return err
	}
	a.cb.OnDismiss(ctx)
	return nil
}
