package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the interface for identity persistence keyed by session id.
type Store interface {
	// Get retrieves an identity by session id. Returns nil if not found or expired.
	Get(ctx context.Context, id string) (*Identity, error)

	// Save replaces the identity stored under id.
	Save(ctx context.Context, id string, ident *Identity, ttl time.Duration) error

	// Delete removes a session by id.
	Delete(ctx context.Context, id string) error
}

// RedisStore implements Store backed by Redis.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "estimate:session:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Get retrieves an identity by session id. Returns nil if not found.
func (s *RedisStore) Get(ctx context.Context, id string) (*Identity, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var ident Identity
	if err := json.Unmarshal([]byte(val), &ident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &ident, nil
}

// Save stores the identity with the given ttl.
func (s *RedisStore) Save(ctx context.Context, id string, ident *Identity, ttl time.Duration) error {
	b, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(id), b, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Delete removes a session by id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string][]byte
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:    make(map[string][]byte),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Get retrieves an identity by session id. Returns nil if not found or expired.
func (m *MemoryStore) Get(_ context.Context, id string) (*Identity, error) {
	m.mu.RLock()
	b, ok := m.data[id]
	exp := m.expires[id]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !exp.IsZero() && m.now().After(exp) {
		m.mu.Lock()
		delete(m.data, id)
		delete(m.expires, id)
		m.mu.Unlock()
		return nil, nil
	}

	var ident Identity
	if err := json.Unmarshal(b, &ident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &ident, nil
}

// Save stores a copy of the identity.
func (m *MemoryStore) Save(_ context.Context, id string, ident *Identity, ttl time.Duration) error {
	b, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = b
	if ttl > 0 {
		m.expires[id] = m.now().Add(ttl)
	} else {
		delete(m.expires, id)
	}
	return nil
}

// Delete removes a session by id.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	delete(m.expires, id)
	return nil
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
