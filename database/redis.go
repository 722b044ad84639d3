package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"journeytrack/ingest/config"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// DedupRedis remembers which events were already written so the
// pipeline stays idempotent toward the backend even though delivery is
// at-least-once.
type DedupRedis struct {
	*redis.Client
	ttlMilliseconds int64
}

const RedisKeyPrefix = "journey_event:"

func (r DedupRedis) getExpirationDuration() time.Duration {
	if r.ttlMilliseconds <= 0 {
		return 0
	}
	return time.Duration(r.ttlMilliseconds) * time.Millisecond
}

// IsEventProcessed reports whether an event key was already written.
func (r DedupRedis) IsEventProcessed(ctx context.Context, key string) (bool, error) {
	result, err := r.Get(ctx, RedisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return result == "1", nil
}

// AreEventsProcessed checks a batch of event keys with a single MGET.
func (r DedupRedis) AreEventsProcessed(ctx context.Context, keys []string) (map[string]bool, error) {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = RedisKeyPrefix + key
	}

	results, err := r.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, err
	}

	processedMap := make(map[string]bool, len(keys))
	for i, result := range results {
		if result == nil {
			processedMap[keys[i]] = false
		} else if str, ok := result.(string); ok && str == "1" {
			processedMap[keys[i]] = true
		}
	}
	return processedMap, nil
}

// SetEventsProcessed marks a batch of event keys as written, with
// expiration, using a pipeline.
func (r DedupRedis) SetEventsProcessed(ctx context.Context, keys []string) error {
	pipe := r.Pipeline()
	for _, key := range keys {
		pipe.SetEx(ctx, RedisKeyPrefix+key, "1", r.getExpirationDuration())
	}
	_, err := pipe.Exec(ctx)
	return err
}

// InitRedis initializes the Redis client connection
func InitRedis(cfg *config.RedisConfig) error {
	opts := &redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Password,
		DB:       0, // default DB
	}

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	redisClient = client
	log.Println("Redis connection established successfully")
	return nil
}

// CloseRedis closes the Redis client connection
func CloseRedis() error {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
		log.Println("Redis connection closed")
	}
	return nil
}

// RedisEnabled reports whether a Redis connection was established at
// startup. The service runs without one, with duplicate suppression
// disabled.
func RedisEnabled() bool {
	return redisClient != nil
}

// RedisHealthCheck verifies that the Redis connection is alive
func RedisHealthCheck(ctx context.Context) error {
	if redisClient == nil {
		return fmt.Errorf("Redis connection is not initialized")
	}
	return redisClient.Ping(ctx).Err()
}

// GetRedisClient wraps the shared connection as a dedup cache with the
// configured key TTL.
func GetRedisClient(dedupTTLMS int64) DedupRedis {
	return DedupRedis{redisClient, dedupTTLMS}
}
