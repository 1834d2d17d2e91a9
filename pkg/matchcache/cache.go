// Package matchcache memoizes ranking calls in Redis. Entries are keyed on the
// volunteer and a digest of every input to the call, so a change to the
// volunteer, any opportunity, the engine config or the clock bucket produces a
// new key and stale results simply expire.
package matchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
)

const keyPrefix = "match:v1:"

// Config holds Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client for the given config
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// Cache stores ranked results in Redis
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing Redis client
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Ping tests the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get returns the cached results for key. A miss is (nil, false, nil).
func (c *Cache) Get(ctx context.Context, key string) ([]matcher.MatchResult, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var results []matcher.MatchResult
	if err := json.Unmarshal(val, &results); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return results, true, nil
}

// Set stores results under key for the configured TTL
func (c *Cache) Set(ctx context.Context, key string, results []matcher.MatchResult) error {
	if results == nil {
		results = []matcher.MatchResult{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Key builds the cache key for a volunteer's ranking at an inputs version
func Key(volunteerID, version string) string {
	return keyPrefix + volunteerID + ":" + version
}

// Version digests the inputs of a ranking call. now is truncated to
// granularity so calls within the same bucket share a version.
func Version(now time.Time, granularity time.Duration, inputs ...any) (string, error) {
	if granularity > 0 {
		now = now.Truncate(granularity)
	}

	h := sha256.New()
	h.Write([]byte(now.UTC().Format(time.RFC3339Nano)))

	enc := json.NewEncoder(h)
	for i, in := range inputs {
		if err := enc.Encode(in); err != nil {
			return "", fmt.Errorf("failed to encode input %d: %w", i, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)[:16]), nil
}
