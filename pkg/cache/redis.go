package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long rendered documents stay in Redis when no TTL is given.
const DefaultTTL = 24 * time.Hour

// RedisStore keeps rendered documents in Redis.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a store with Redis backend.
// A ttl of zero or less uses DefaultTTL.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Test reports whether key exists in Redis.
func (s *RedisStore) Test(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		CacheErrors.WithLabelValues(storeRedis, "test").Inc()
		return false, fmt.Errorf("redis exists: %w", err)
	}
	if n == 0 {
		CacheMisses.WithLabelValues(storeRedis).Inc()
		return false, nil
	}
	return true, nil
}

// Load retrieves the document stored under key.
// Returns ErrCacheMiss if the key doesn't exist or has expired in between.
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.WithLabelValues(storeRedis).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(storeRedis, "load").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	CacheHits.WithLabelValues(storeRedis).Inc()
	return data, nil
}

// Save stores data under key with the store TTL.
// The entry will be automatically removed from Redis when it expires.
func (s *RedisStore) Save(ctx context.Context, data []byte, key string) error {
	if data == nil {
		return ErrNilData
	}

	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues(storeRedis, "save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheStoredBytes.WithLabelValues(storeRedis).Add(float64(len(data)))
	return nil
}

// Delete removes a cached document.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		CacheErrors.WithLabelValues(storeRedis, "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
