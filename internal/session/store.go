// Package session holds the per-session authentication state. A Store is the
// single source of truth for "is a user logged in"; it gates cart mutations
// and checkout, and self-heals when the backend stops accepting a credential.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Kirito-012/Ancient-Health/internal/domain"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// ProfileAPI is the slice of the backend client the store needs.
type ProfileAPI interface {
	Me(ctx context.Context, credential string) (domain.Profile, error)
}

// CartState is the session's handle on the cart synchronizer. Login refreshes
// it; logout resets it to the empty snapshot.
type CartState interface {
	Refresh(ctx context.Context) error
	Reset()
}

// Store holds one browser session's credential and profile.
//
// Invariant: the profile is populated if and only if a credential is present
// and the last "who am I" fetch with it succeeded. The store never claims a
// logged-in state it has not verified against the backend.
type Store struct {
	mu sync.Mutex

	id         string
	credential string
	profile    *domain.Profile

	api    ProfileAPI
	creds  CredentialStore
	cart   CartState
	logger *slog.Logger
}

// NewStore creates a logged-out store for the given session id. Wire the cart
// synchronizer with AttachCart before use.
func NewStore(id string, api ProfileAPI, creds CredentialStore, logger *slog.Logger) *Store {
	return &Store{
		id:     id,
		api:    api,
		creds:  creds,
		logger: logger,
	}
}

// AttachCart binds the cart synchronizer to this store. Separate from NewStore
// because the synchronizer also needs the store (as its credential gate).
func (s *Store) AttachCart(cart CartState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = cart
}

// ID returns the session identifier.
func (s *Store) ID() string {
	return s.id
}

// Credential returns the current credential, if any.
func (s *Store) Credential() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential, s.credential != ""
}

// Profile returns the current profile, if loaded.
func (s *Store) Profile() (domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return domain.Profile{}, false
	}
	return *s.profile, true
}

// Login installs a credential, persists it, and refreshes the profile and
// cart. A credential the backend rejects leaves the store logged out.
func (s *Store) Login(ctx context.Context, credential string) error {
	s.mu.Lock()
	s.credential = credential
	s.profile = nil
	s.mu.Unlock()

	if err := s.creds.Set(ctx, s.id, credential); err != nil {
		s.logger.WarnContext(ctx, "failed to persist credential",
			slog.String("session_id", s.id),
			slog.String("error", err.Error()),
		)
		// The session still works for its lifetime; only reload survival is lost.
	}

	if err := s.RefreshProfile(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	cart := s.cart
	s.mu.Unlock()
	if cart != nil {
		if err := cart.Refresh(ctx); err != nil {
			s.logger.WarnContext(ctx, "cart refresh after login failed",
				slog.String("session_id", s.id),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// restore installs a credential recovered from the credential store without
// re-persisting it. The manager calls it when a session reappears.
func (s *Store) restore(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	s.profile = nil
}

// Logout clears the credential and profile and resets the cart snapshot to
// empty. Idempotent: a logout triggered by an in-flight 401 after an explicit
// logout is a no-op and never loops.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	if s.credential == "" && s.profile == nil {
		s.mu.Unlock()
		return
	}
	s.credential = ""
	s.profile = nil
	cart := s.cart
	s.mu.Unlock()

	if err := s.creds.Delete(ctx, s.id); err != nil {
		s.logger.WarnContext(ctx, "failed to delete persisted credential",
			slog.String("session_id", s.id),
			slog.String("error", err.Error()),
		)
	}
	if cart != nil {
		cart.Reset()
	}
	s.logger.InfoContext(ctx, "session logged out", slog.String("session_id", s.id))
}

// RefreshProfile fetches the current user and replaces the profile wholesale.
// Without a credential it makes no network call. A 401 forces a logout so an
// expired credential heals itself.
func (s *Store) RefreshProfile(ctx context.Context) error {
	s.mu.Lock()
	credential := s.credential
	s.mu.Unlock()
	if credential == "" {
		return nil
	}

	profile, err := s.api.Me(ctx, credential)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			s.Logout(ctx)
		}
		return err
	}

	s.mu.Lock()
	// Discard the result if a logout raced the fetch.
	if s.credential == credential {
		s.profile = &profile
	}
	s.mu.Unlock()
	return nil
}

// SetProfile replaces the profile wholesale with a server-provided one, e.g.
// after a profile update response. Ignored when logged out.
func (s *Store) SetProfile(profile domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credential == "" {
		return
	}
	s.profile = &profile
}
