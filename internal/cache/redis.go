package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore caches operation responses in Redis, for deployments where
// several hosts share one cache. Keys follow the same scheme as the file
// store, prefixed with "apibind:". Expiry is delegated to Redis TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore with the default 5-minute TTL.
func NewRedisStore(client *redis.Client) *RedisStore {
	return NewRedisStoreWithTTL(client, DefaultTTL)
}

// NewRedisStoreWithTTL creates a RedisStore with a custom TTL.
func NewRedisStoreWithTTL(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "apibind:", ttl: ttl}
}

// Get loads the cached value for an operation into dst.
// Returns false on miss, expiry, decode failure, or when caching is disabled.
func (s *RedisStore) Get(ctx context.Context, operation, baseURL string, dst any) bool {
	if disabled() {
		return false
	}
	data, err := s.client.Get(ctx, s.key(operation, baseURL)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// Put writes the value for an operation. Silently no-ops on error or when
// caching is disabled.
func (s *RedisStore) Put(ctx context.Context, operation, baseURL string, items any) {
	if disabled() {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, s.key(operation, baseURL), raw, s.ttl).Err()
}

// Clear removes the cached value for one operation.
func (s *RedisStore) Clear(ctx context.Context, operation, baseURL string) {
	_ = s.client.Del(ctx, s.key(operation, baseURL)).Err()
}

func (s *RedisStore) key(operation, baseURL string) string {
	return s.prefix + cacheKey(operation, baseURL)
}
