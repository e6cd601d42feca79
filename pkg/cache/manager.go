package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// DefaultTTL is the default lifetime of a cached search page. Order search
// results go stale quickly; a short TTL only collapses bursts of identical
// queries.
const DefaultTTL = 30 * time.Second

// Manager handles caching operations with Redis backend.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewManager creates a new cache manager with Redis backend.
// A non-positive ttl falls back to DefaultTTL.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get retrieves the cached response body for key.
// Returns ErrCacheMiss if the key doesn't exist or has expired.
func (m *Manager) Get(ctx context.Context, key Key) ([]byte, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	CacheHits.WithLabelValues("redis").Inc()
	return data, nil
}

// Set stores a response body under key with the manager's TTL.
func (m *Manager) Set(ctx context.Context, key Key, body []byte) error {
	if err := m.redis.Set(ctx, key.String(), body, m.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// TTL returns the configured entry lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
