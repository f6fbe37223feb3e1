// Package cart keeps a per-session snapshot of the server-held cart. Every
// mutation is a full round trip; the backend computes items and totals and the
// synchronizer replaces its snapshot wholesale with each applied response.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Kirito-012/Ancient-Health/internal/domain"
	"github.com/Kirito-012/Ancient-Health/internal/notify"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

var cartMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart mutations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

// API is the slice of the backend client the synchronizer needs.
type API interface {
	GetCart(ctx context.Context, credential string) (domain.CartSnapshot, error)
	AddToCart(ctx context.Context, credential, productID string, quantity int) (domain.CartSnapshot, error)
	UpdateCartItem(ctx context.Context, credential, productID string, quantity int) (domain.CartSnapshot, error)
	RemoveCartItem(ctx context.Context, credential, productID string) (domain.CartSnapshot, error)
	ClearCart(ctx context.Context, credential string) (domain.CartSnapshot, error)
}

// SessionGate exposes the session state the synchronizer depends on: the
// credential for outgoing calls and the forced logout on a rejected one.
type SessionGate interface {
	Credential() (string, bool)
	Logout(ctx context.Context)
}

// Synchronizer mediates all cart mutations for one session.
//
// Overlapping mutations are not queued; their responses may arrive out of
// order. Each issued request carries a monotonically increasing sequence
// number and a response older than the last applied one is discarded, so the
// snapshot always reflects the most recently issued mutation that completed.
type Synchronizer struct {
	mu         sync.Mutex
	snapshot   domain.CartSnapshot
	nextSeq    uint64
	appliedSeq uint64

	api      API
	gate     SessionGate
	notifier notify.Notifier
	logger   *slog.Logger
}

// New creates a synchronizer with an empty snapshot.
func New(api API, gate SessionGate, notifier notify.Notifier, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		snapshot: domain.EmptyCart(),
		api:      api,
		gate:     gate,
		notifier: notifier,
		logger:   logger,
	}
}

// Snapshot returns the current cart snapshot. It may be stale while a
// mutation is in flight; totals are never computed locally.
func (s *Synchronizer) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Reset replaces the snapshot with the empty cart and invalidates every
// in-flight response. Called on logout.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.appliedSeq = s.nextSeq
	s.snapshot = domain.EmptyCart()
}

// issue reserves the sequence number for a request about to go out.
func (s *Synchronizer) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// apply installs a response snapshot unless a later request already applied.
// It reports whether the snapshot was taken.
func (s *Synchronizer) apply(seq uint64, snapshot domain.CartSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.appliedSeq {
		return false
	}
	s.appliedSeq = seq
	if snapshot.Items == nil {
		snapshot.Items = []domain.CartLine{}
	}
	s.snapshot = snapshot
	return true
}

// Refresh fetches the cart and replaces the snapshot. Without a credential it
// makes no network call.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	credential, ok := s.gate.Credential()
	if !ok {
		return nil
	}

	seq := s.issue()
	snapshot, err := s.api.GetCart(ctx, credential)
	if err != nil {
		return s.fail(ctx, "refresh", err, false)
	}
	s.apply(seq, snapshot)
	cartMutationsTotal.WithLabelValues("refresh", "success").Inc()
	return nil
}

// AddItem adds a product to the cart. Without a credential the operation is
// rejected before any request is issued; the caller redirects to login.
func (s *Synchronizer) AddItem(ctx context.Context, productID string, quantity int) error {
	credential, ok := s.gate.Credential()
	if !ok {
		cartMutationsTotal.WithLabelValues("add", "auth_required").Inc()
		return apperrors.AuthRequired("Please login to add items to cart")
	}
	if quantity < 1 {
		quantity = 1
	}

	seq := s.issue()
	snapshot, err := s.api.AddToCart(ctx, credential, productID, quantity)
	if err != nil {
		return s.fail(ctx, "add", err, true)
	}
	s.apply(seq, snapshot)
	cartMutationsTotal.WithLabelValues("add", "success").Inc()
	s.notifier.Success(ctx, "Product added to cart")
	return nil
}

// SetQuantity sets the quantity of a line already in the cart. Quantities
// below one are rejected as a no-op without a request: decrementing to zero
// must go through RemoveItem, never a silent delete-by-zero. An increase is
// announced; decreases stay silent to avoid notification noise.
func (s *Synchronizer) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return nil
	}
	credential, ok := s.gate.Credential()
	if !ok {
		return apperrors.AuthRequired("Please login to update your cart")
	}

	previous := s.Snapshot().Quantity(productID)

	seq := s.issue()
	snapshot, err := s.api.UpdateCartItem(ctx, credential, productID, quantity)
	if err != nil {
		return s.fail(ctx, "update", err, true)
	}
	s.apply(seq, snapshot)
	cartMutationsTotal.WithLabelValues("update", "success").Inc()
	if quantity > previous {
		s.notifier.Success(ctx, "Product quantity updated")
	}
	return nil
}

// RemoveItem removes a product line from the cart.
func (s *Synchronizer) RemoveItem(ctx context.Context, productID string) error {
	credential, ok := s.gate.Credential()
	if !ok {
		return apperrors.AuthRequired("Please login to update your cart")
	}

	seq := s.issue()
	snapshot, err := s.api.RemoveCartItem(ctx, credential, productID)
	if err != nil {
		return s.fail(ctx, "remove", err, true)
	}
	s.apply(seq, snapshot)
	cartMutationsTotal.WithLabelValues("remove", "success").Inc()
	s.notifier.Success(ctx, "Item removed from cart")
	return nil
}

// Clear empties the cart server-side.
func (s *Synchronizer) Clear(ctx context.Context) error {
	credential, ok := s.gate.Credential()
	if !ok {
		return apperrors.AuthRequired("Please login to update your cart")
	}

	seq := s.issue()
	snapshot, err := s.api.ClearCart(ctx, credential)
	if err != nil {
		return s.fail(ctx, "clear", err, true)
	}
	s.apply(seq, snapshot)
	cartMutationsTotal.WithLabelValues("clear", "success").Inc()
	s.notifier.Success(ctx, "Cart cleared successfully")
	return nil
}

// fail handles a mutation error: the prior snapshot stays untouched, a 401
// forces the session logout, and the backend's own message is surfaced when
// it sent one.
func (s *Synchronizer) fail(ctx context.Context, operation string, err error, notifyUser bool) error {
	cartMutationsTotal.WithLabelValues(operation, "error").Inc()
	if errors.Is(err, apperrors.ErrUnauthorized) {
		s.gate.Logout(ctx)
	}
	s.logger.WarnContext(ctx, "cart mutation failed",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
	if notifyUser {
		s.notifier.Error(ctx, apperrors.UserMessage(err, "Something went wrong. Please try again."))
	}
	return err
}
