// Package cache is a JSON read-through cache over Redis.
//
// A nil *Store, or one whose Redis ping failed, behaves as a permanent miss
// so callers never need to branch on whether caching is configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/pehnawa/pkg/metrics"
)

// Store wraps a Redis client.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// Connect dials Redis and verifies the connection with a ping.
func Connect(ctx context.Context, addr, password, prefix string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return &Store{rdb: rdb, prefix: prefix}, nil
}

// NewStore wraps an existing client.
func NewStore(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

// Client exposes the underlying client so the queue can share it.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.rdb
}

func (s *Store) enabled() bool { return s != nil && s.rdb != nil }

func (s *Store) key(k string) string { return s.prefix + k }

// Get unmarshals the cached value into dest. It reports a hit.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.enabled() {
		return false
	}

	raw, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	hit := err == nil && json.Unmarshal(raw, dest) == nil
	metrics.RecordCache(family(key), hit)
	return hit
}

// Set stores value as JSON for ttl.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return s.rdb.Set(ctx, s.key(key), data, ttl).Err()
}

// Del removes keys.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if !s.enabled() || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return s.rdb.Del(ctx, full...).Err()
}

// DelPrefix removes every key starting with prefix using SCAN.
func (s *Store) DelPrefix(ctx context.Context, prefix string) error {
	if !s.enabled() {
		return nil
	}

	iter := s.rdb.Scan(ctx, 0, s.key(prefix)+"*", 200).Iterator()
	batch := make([]string, 0, 200)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

// Remember returns the cached value for key or fills dest with load and
// caches it. Load errors are returned and nothing is cached.
func (s *Store) Remember(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func() error) error {
	if s.Get(ctx, key, dest) {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	_ = s.Set(ctx, key, dest, ttl)
	return nil
}

// Ping reports whether Redis answers. A nil store reports an error.
func (s *Store) Ping(ctx context.Context) error {
	if !s.enabled() {
		return fmt.Errorf("cache: not configured")
	}
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	if !s.enabled() {
		return nil
	}
	return s.rdb.Close()
}

// family turns "catalog:product:42" into "catalog:product" for metric labels.
func family(key string) string {
	if i := strings.LastIndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
