package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Kirito-012/Ancient-Health/internal/backend"
	"github.com/Kirito-012/Ancient-Health/internal/cart"
	"github.com/Kirito-012/Ancient-Health/internal/checkout"
	"github.com/Kirito-012/Ancient-Health/internal/gateway"
	"github.com/Kirito-012/Ancient-Health/internal/notify"
)

// Hub owns the complete per-session state graph: each store together with its
// cart synchronizer and checkout orchestrator. Handlers resolve all three
// through the hub by session id.
type Hub struct {
	manager *Manager

	mu        sync.Mutex
	carts     map[string]*cart.Synchronizer
	checkouts map[string]*checkout.Orchestrator
}

// NewHub wires the session manager with a factory that builds the cart
// synchronizer and checkout orchestrator alongside every new store. The
// manager's idle eviction tears the whole graph down together, so an
// abandoned session leaves nothing behind.
func NewHub(api *backend.Client, creds CredentialStore, gw gateway.Gateway, notifier notify.Notifier, brand checkout.Brand, idleTTL time.Duration, logger *slog.Logger) *Hub {
	h := &Hub{
		carts:     make(map[string]*cart.Synchronizer),
		checkouts: make(map[string]*checkout.Orchestrator),
	}
	factory := func(st *Store) CartState {
		sync := cart.New(api, st, notifier, logger)
		orch := checkout.NewOrchestrator(st, sync, api, gw, notifier, brand, logger)
		h.mu.Lock()
		h.carts[st.ID()] = sync
		h.checkouts[st.ID()] = orch
		h.mu.Unlock()
		return sync
	}
	h.manager = NewManager(api, creds, factory, idleTTL, logger)
	h.manager.onEvict = func(sessionID string) {
		h.mu.Lock()
		delete(h.carts, sessionID)
		delete(h.checkouts, sessionID)
		h.mu.Unlock()
	}
	return h
}

// Store returns the session store, creating the session on first sight.
func (h *Hub) Store(ctx context.Context, sessionID string) *Store {
	return h.manager.Get(ctx, sessionID)
}

// Cart returns the session's cart synchronizer.
func (h *Hub) Cart(ctx context.Context, sessionID string) *cart.Synchronizer {
	h.manager.Get(ctx, sessionID)
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.carts[sessionID]
}

// Checkout returns the session's checkout orchestrator.
func (h *Hub) Checkout(ctx context.Context, sessionID string) *checkout.Orchestrator {
	h.manager.Get(ctx, sessionID)
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checkouts[sessionID]
}

// Logout logs the session out and evicts its whole state graph.
func (h *Hub) Logout(ctx context.Context, sessionID string) {
	h.manager.Logout(ctx, sessionID)
	h.mu.Lock()
	delete(h.carts, sessionID)
	delete(h.checkouts, sessionID)
	h.mu.Unlock()
}
