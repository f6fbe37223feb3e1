package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CartFactory builds the cart synchronizer bound to a freshly created store.
type CartFactory func(s *Store) CartState

type managerEntry struct {
	store    *Store
	lastSeen time.Time
}

// Manager owns the per-session stores, keyed by the session id the frontend
// presents in the X-Session-ID header. Sessions are created on first sight
// and dropped again after idleTTL without a request; a persisted credential
// outlives the in-memory store, so a returning browser stays logged in.
type Manager struct {
	mu        sync.Mutex
	entries   map[string]*managerEntry
	lastSweep time.Time

	api     ProfileAPI
	creds   CredentialStore
	newCart CartFactory
	idleTTL time.Duration
	onEvict func(sessionID string)
	logger  *slog.Logger
}

// NewManager creates a session manager. idleTTL <= 0 disables idle eviction.
func NewManager(api ProfileAPI, creds CredentialStore, newCart CartFactory, idleTTL time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		entries: make(map[string]*managerEntry),
		api:     api,
		creds:   creds,
		newCart: newCart,
		idleTTL: idleTTL,
		logger:  logger,
	}
}

// Get returns the store for the given session id, creating it on demand. When
// a persisted credential exists the store is restored logged-in; the profile
// and cart are then refreshed, and a credential the backend no longer accepts
// self-heals into a logged-out session.
func (m *Manager) Get(ctx context.Context, sessionID string) *Store {
	now := time.Now()
	m.mu.Lock()
	m.sweepLocked(now)
	if e, ok := m.entries[sessionID]; ok {
		e.lastSeen = now
		m.mu.Unlock()
		return e.store
	}

	s := NewStore(sessionID, m.api, m.creds, m.logger)
	s.AttachCart(m.newCart(s))
	m.entries[sessionID] = &managerEntry{store: s, lastSeen: now}
	m.mu.Unlock()

	credential, found, err := m.creds.Get(ctx, sessionID)
	if err != nil {
		m.logger.WarnContext(ctx, "credential lookup failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return s
	}
	if !found {
		// No persisted credential: the session starts logged out and makes
		// no network calls until the user logs in.
		return s
	}

	s.restore(credential)
	if err := s.RefreshProfile(ctx); err != nil {
		m.logger.WarnContext(ctx, "profile restore failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
	return s
}

// sweepLocked drops sessions idle past the TTL. The persisted credential is
// left alone; Redis expires it on its own schedule, and until then an evicted
// session restores logged-in on its next request.
func (m *Manager) sweepLocked(now time.Time) {
	if m.idleTTL <= 0 || now.Sub(m.lastSweep) < m.idleTTL/4 {
		return
	}
	m.lastSweep = now
	for id, e := range m.entries {
		if now.Sub(e.lastSeen) > m.idleTTL {
			delete(m.entries, id)
			if m.onEvict != nil {
				m.onEvict(id)
			}
		}
	}
}

// Logout logs the session out and evicts its store.
func (m *Manager) Logout(ctx context.Context, sessionID string) {
	m.mu.Lock()
	e, ok := m.entries[sessionID]
	if ok {
		delete(m.entries, sessionID)
	}
	m.mu.Unlock()

	if ok {
		e.store.Logout(ctx)
		return
	}
	// Never-seen session: still clear any persisted credential.
	if err := m.creds.Delete(ctx, sessionID); err != nil {
		m.logger.WarnContext(ctx, "failed to delete persisted credential",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}
