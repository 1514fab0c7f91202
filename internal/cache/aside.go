package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"social/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Store is a JSON cache-aside helper over Redis. A Store with a nil client is
// valid and always misses, so callers never branch on Redis availability.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a Store writing entries with ttl.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis client is attached.
func (s *Store) Enabled() bool {
	return s != nil && s.rdb != nil
}

// GetJSON reads key into dest. Returns (true, nil) on hit, (false, nil) on miss.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with the store TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

// Aside serves dest from the cache, or runs fetch to fill dest and stores the
// result. Cache failures never fail the call; fetch errors are returned as is.
func (s *Store) Aside(ctx context.Context, name, key string, dest any, fetch func() error) error {
	if found, err := s.GetJSON(ctx, key, dest); err == nil && found {
		observability.CacheLookups.WithLabelValues(name, "hit").Inc()
		return nil
	}
	if s.Enabled() {
		observability.CacheLookups.WithLabelValues(name, "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = s.SetJSON(ctx, key, dest)
	return nil
}

// Invalidate deletes keys, ignoring Redis failures.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	_ = s.rdb.Del(ctx, keys...).Err()
}
