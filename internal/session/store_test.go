package session

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kirito-012/Ancient-Health/internal/domain"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

type fakeProfileAPI struct {
	mu    sync.Mutex
	calls int
	meFn  func(credential string) (domain.Profile, error)
}

func (f *fakeProfileAPI) Me(_ context.Context, credential string) (domain.Profile, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.meFn(credential)
}

func (f *fakeProfileAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCart struct {
	mu        sync.Mutex
	refreshes int
	resets    int
}

func (f *fakeCart) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeCart) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func acceptingAPI(profile domain.Profile) *fakeProfileAPI {
	return &fakeProfileAPI{meFn: func(string) (domain.Profile, error) {
		return profile, nil
	}}
}

func rejectingAPI() *fakeProfileAPI {
	return &fakeProfileAPI{meFn: func(string) (domain.Profile, error) {
		return domain.Profile{}, apperrors.Unauthorized("token expired")
	}}
}

func newTestStore(api ProfileAPI) (*Store, *fakeCart, *MemoryCredentialStore) {
	creds := NewMemoryCredentialStore()
	cart := &fakeCart{}
	s := NewStore("sess-1", api, creds, testLogger())
	s.AttachCart(cart)
	return s, cart, creds
}

func TestLogin_PersistsAndLoadsProfile(t *testing.T) {
	ctx := context.Background()
	profile := domain.Profile{ID: "u1", Name: "Asha", Email: "asha@example.com"}
	s, cart, creds := newTestStore(acceptingAPI(profile))

	require.NoError(t, s.Login(ctx, "token-1"))

	cred, ok := s.Credential()
	require.True(t, ok)
	assert.Equal(t, "token-1", cred)

	got, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, "Asha", got.Name)

	persisted, found, err := creds.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "token-1", persisted)

	assert.Equal(t, 1, cart.refreshes, "login must refresh the cart")
}

func TestLogin_RejectedCredentialLeavesLoggedOut(t *testing.T) {
	ctx := context.Background()
	s, cart, _ := newTestStore(rejectingAPI())

	err := s.Login(ctx, "bad-token")
	require.Error(t, err)

	_, ok := s.Credential()
	assert.False(t, ok, "a rejected credential must not stay installed")
	_, ok = s.Profile()
	assert.False(t, ok)
	assert.Equal(t, 1, cart.resets)
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, cart, creds := newTestStore(acceptingAPI(domain.Profile{ID: "u1"}))
	require.NoError(t, s.Login(ctx, "token-1"))

	s.Logout(ctx)
	s.Logout(ctx)
	s.Logout(ctx)

	_, ok := s.Credential()
	assert.False(t, ok)
	assert.Equal(t, 1, cart.resets, "repeated logouts must not loop")

	_, found, err := creds.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRefreshProfile_NoCredentialNoNetwork(t *testing.T) {
	api := acceptingAPI(domain.Profile{ID: "u1"})
	s, _, _ := newTestStore(api)

	require.NoError(t, s.RefreshProfile(context.Background()))
	assert.Zero(t, api.callCount(), "logged-out sessions must never call the backend")
}

func TestRefreshProfile_401SelfHeals(t *testing.T) {
	ctx := context.Background()
	api := acceptingAPI(domain.Profile{ID: "u1"})
	s, cart, _ := newTestStore(api)
	require.NoError(t, s.Login(ctx, "token-1"))

	// The backend stops accepting the credential.
	api.meFn = func(string) (domain.Profile, error) {
		return domain.Profile{}, apperrors.Unauthorized("token expired")
	}

	err := s.RefreshProfile(ctx)
	require.Error(t, err)

	_, ok := s.Credential()
	assert.False(t, ok, "an expired credential must heal into a logged-out session")
	assert.Equal(t, 1, cart.resets)
}

func TestSetProfile_IgnoredWhenLoggedOut(t *testing.T) {
	s, _, _ := newTestStore(acceptingAPI(domain.Profile{ID: "u1"}))

	s.SetProfile(domain.Profile{ID: "u2", Name: "Ghost"})

	_, ok := s.Profile()
	assert.False(t, ok)
}

func TestManager_RestoresPersistedCredential(t *testing.T) {
	ctx := context.Background()
	api := acceptingAPI(domain.Profile{ID: "u1", Name: "Asha"})
	creds := NewMemoryCredentialStore()
	require.NoError(t, creds.Set(ctx, "sess-1", "token-1"))

	cart := &fakeCart{}
	m := NewManager(api, creds, func(*Store) CartState { return cart }, 0, testLogger())

	s := m.Get(ctx, "sess-1")

	cred, ok := s.Credential()
	require.True(t, ok)
	assert.Equal(t, "token-1", cred)

	profile, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, "Asha", profile.Name)
}

func TestManager_GetIsStablePerSession(t *testing.T) {
	ctx := context.Background()
	m := NewManager(acceptingAPI(domain.Profile{}), NewMemoryCredentialStore(),
		func(*Store) CartState { return &fakeCart{} }, 0, testLogger())

	a := m.Get(ctx, "sess-1")
	b := m.Get(ctx, "sess-1")
	c := m.Get(ctx, "sess-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestManager_RestoreWithRejectedCredentialHeals(t *testing.T) {
	ctx := context.Background()
	creds := NewMemoryCredentialStore()
	require.NoError(t, creds.Set(ctx, "sess-1", "stale-token"))

	m := NewManager(rejectingAPI(), creds, func(*Store) CartState { return &fakeCart{} }, 0, testLogger())

	s := m.Get(ctx, "sess-1")

	_, ok := s.Credential()
	assert.False(t, ok)

	_, found, err := creds.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, found, "the rejected credential must be purged")
}

func TestManager_LogoutEvictsAndClearsCredential(t *testing.T) {
	ctx := context.Background()
	creds := NewMemoryCredentialStore()
	m := NewManager(acceptingAPI(domain.Profile{ID: "u1"}), creds,
		func(*Store) CartState { return &fakeCart{} }, 0, testLogger())

	s := m.Get(ctx, "sess-1")
	require.NoError(t, s.Login(ctx, "token-1"))

	m.Logout(ctx, "sess-1")

	// A fresh Get builds a new, logged-out store.
	replacement := m.Get(ctx, "sess-1")
	assert.NotSame(t, s, replacement)
	_, ok := replacement.Credential()
	assert.False(t, ok)
}

func TestManager_EvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	creds := NewMemoryCredentialStore()
	require.NoError(t, creds.Set(ctx, "sess-idle", "token-1"))

	var evicted []string
	m := NewManager(acceptingAPI(domain.Profile{ID: "u1"}), creds,
		func(*Store) CartState { return &fakeCart{} }, 20*time.Millisecond, testLogger())
	m.onEvict = func(sessionID string) { evicted = append(evicted, sessionID) }

	idle := m.Get(ctx, "sess-idle")
	time.Sleep(50 * time.Millisecond)

	// Any request sweeps; this one keeps its own session alive.
	m.Get(ctx, "sess-active")

	assert.Equal(t, []string{"sess-idle"}, evicted)

	// The credential survived eviction, so the session restores logged-in
	// in a fresh store.
	replacement := m.Get(ctx, "sess-idle")
	assert.NotSame(t, idle, replacement)
	cred, ok := replacement.Credential()
	require.True(t, ok)
	assert.Equal(t, "token-1", cred)
}

func TestManager_LogoutOfUnknownSessionClearsPersistedCredential(t *testing.T) {
	ctx := context.Background()
	creds := NewMemoryCredentialStore()
	require.NoError(t, creds.Set(ctx, "sess-orphan", "token-x"))

	m := NewManager(acceptingAPI(domain.Profile{}), creds,
		func(*Store) CartState { return &fakeCart{} }, 0, testLogger())

	m.Logout(ctx, "sess-orphan")

	_, found, err := creds.Get(ctx, "sess-orphan")
	require.NoError(t, err)
	assert.False(t, found)
}
