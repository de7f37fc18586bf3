// Package cache is a thin JSON cache over Redis. When Redis is unreachable
// every call degrades to a miss or a no-op, so callers never need to branch
// on availability.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
)

var RDB *redis.Client
var Ctx = context.Background()

// Connect initialises the Redis client and verifies the connection with a ping.
// On failure RDB stays nil and the cache runs disabled.
func Connect() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       config.GetInt("REDIS_DB", 0),
	})

	ctx, cancel := context.WithTimeout(Ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		RDB = nil
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	RDB = client
	return nil
}

// Use installs an already-built client, e.g. one pointed at a test server.
func Use(c *redis.Client) { RDB = c }

// Enabled reports whether a Redis client is installed.
func Enabled() bool { return RDB != nil }

// Get unmarshals the value at key into dest. Returns true on a hit.
func Get(key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(Ctx, key).Bytes()
	if err != nil || json.Unmarshal(val, dest) != nil {
		metrics.CacheMisses.WithLabelValues(key).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(key).Inc()
	return true
}

// Set stores value as JSON under key for ttl.
func Set(key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return RDB.Set(Ctx, key, data, ttl).Err()
}

// Remember returns the cached value at key or, on a miss, calls load,
// stores its result and returns it.
func Remember[T any](key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var out T
	if Get(key, &out) {
		return out, nil
	}
	out, err := load()
	if err != nil {
		return out, err
	}
	_ = Set(key, out, ttl)
	return out, nil
}

// Del removes keys.
func Del(keys ...string) error {
	if RDB == nil || len(keys) == 0 {
		return nil
	}
	return RDB.Del(Ctx, keys...).Err()
}

// Forget is an alias for Del.
func Forget(key string) error {
	return Del(key)
}

// Incr increments key and sets ttl when the key is new. Used by the rate
// limiter for fixed-window counters.
func Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if RDB == nil {
		return 0, fmt.Errorf("cache: redis disabled")
	}
	n, err := RDB.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		RDB.Expire(ctx, key, ttl)
	}
	return n, nil
}
