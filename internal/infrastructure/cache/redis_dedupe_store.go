package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDedupeStore implements DedupeStore using Redis. Suitable for
// distributed deployments where multiple instances share webhook state.
type RedisDedupeStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisDedupeStore creates a Redis-backed dedupe store
func NewRedisDedupeStore(cfg RedisConfig) (*RedisDedupeStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisDedupeStore{
		client:    client,
		keyPrefix: "webhook:dedupe:",
	}, nil
}

// MarkProcessed records a delivery ID atomically with SETNX. Returns true
// when the key was set, false when it already existed.
func (s *RedisDedupeStore) MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	key := s.keyPrefix + deliveryID

	result, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery as processed: %w", err)
	}
	return result, nil
}

// IsProcessed reports whether a delivery ID is already known
func (s *RedisDedupeStore) IsProcessed(ctx context.Context, deliveryID string) (bool, error) {
	key := s.keyPrefix + deliveryID

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check delivery: %w", err)
	}
	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisDedupeStore) Close() error {
	return s.client.Close()
}

var _ DedupeStore = (*RedisDedupeStore)(nil)
