package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CredentialStore persists the opaque backend credential across restarts and
// reloads. It is the only storefront state that survives a session's process
// lifetime; profile, cart and order data are always re-fetched.
type CredentialStore interface {
	Get(ctx context.Context, sessionID string) (string, bool, error)
	Set(ctx context.Context, sessionID, credential string) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisCredentialStore keeps credentials in Redis with a sliding TTL.
type RedisCredentialStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCredentialStore creates a Redis-backed credential store.
func NewRedisCredentialStore(client *redis.Client, ttl time.Duration) *RedisCredentialStore {
	return &RedisCredentialStore{client: client, ttl: ttl}
}

func credentialKey(sessionID string) string {
	return "session:credential:" + sessionID
}

func (s *RedisCredentialStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	val, err := s.client.Get(ctx, credentialKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get credential: %w", err)
	}
	// Refresh the TTL so active sessions stay logged in.
	s.client.Expire(ctx, credentialKey(sessionID), s.ttl)
	return val, true, nil
}

func (s *RedisCredentialStore) Set(ctx context.Context, sessionID, credential string) error {
	if err := s.client.Set(ctx, credentialKey(sessionID), credential, s.ttl).Err(); err != nil {
		return fmt.Errorf("set credential: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, credentialKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity, for readiness probes.
func (s *RedisCredentialStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MemoryCredentialStore keeps credentials in memory. Used in tests and when
// no Redis address is configured.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]string
}

// NewMemoryCredentialStore creates an in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]string)}
}

func (s *MemoryCredentialStore) Get(_ context.Context, sessionID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[sessionID]
	return cred, ok, nil
}

func (s *MemoryCredentialStore) Set(_ context.Context, sessionID, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[sessionID] = credential
	return nil
}

func (s *MemoryCredentialStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, sessionID)
	return nil
}
