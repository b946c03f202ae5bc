package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/orphadx-io/orphadx/internal/model"
	"github.com/orphadx-io/orphadx/internal/pkg/textutil"
	"github.com/orphadx-io/orphadx/pkg/utils/json"
)

// QueryCacheConfig configures the diagnosis result cache.
type QueryCacheConfig struct {
	// Enabled toggles the cache.
	Enabled bool
	// TTL is the entry lifetime.
	TTL time.Duration
	// KeyPrefix namespaces the cache keys.
	KeyPrefix string
}

// DefaultQueryCacheConfig returns the default cache parameters.
func DefaultQueryCacheConfig() *QueryCacheConfig {
	return &QueryCacheConfig{
		Enabled:   false,
		TTL:       1 * time.Hour,
		KeyPrefix: "diagnosis:query:",
	}
}

// QueryCache caches diagnosis results in Redis, keyed by the hash of the
// symptom text. Degraded results are never cached.
type QueryCache struct {
	redis  *goredis.Client
	config *QueryCacheConfig
}

// NewQueryCache creates a query cache.
func NewQueryCache(redis *goredis.Client, config *QueryCacheConfig) *QueryCache {
	if config == nil {
		config = DefaultQueryCacheConfig()
	}
	return &QueryCache{
		redis:  redis,
		config: config,
	}
}

func (c *QueryCache) enabled() bool {
	return c != nil && c.config.Enabled && c.redis != nil
}

func (c *QueryCache) cacheKey(symptoms string) string {
	return c.config.KeyPrefix + textutil.HashString(symptoms)
}

// Get returns the cached result for the symptom text, or (nil, nil) on a
// miss. Corrupted entries are deleted and reported as an error.
func (c *QueryCache) Get(ctx context.Context, symptoms string) (*model.DiagnosisResult, error) {
	if !c.enabled() {
		return nil, nil
	}

	key := c.cacheKey(symptoms)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		logger.Warnw("query cache read failed", "error", err.Error(), "key", key)
		return nil, err
	}

	var result model.DiagnosisResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warnw("deleting corrupted cache entry", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return nil, err
	}

	return &result, nil
}

// Set caches a diagnosis result.
func (c *QueryCache) Set(ctx context.Context, symptoms string, result *model.DiagnosisResult) error {
	if !c.enabled() || result == nil || result.Degraded {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	key := c.cacheKey(symptoms)
	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("query cache write failed", "error", err.Error(), "key", key)
		return err
	}

	return nil
}

// Clear removes all cached diagnosis results.
func (c *QueryCache) Clear(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 100).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return err
	}

	logger.Infow("query cache cleared", "deleted", deleted)
	return nil
}

// Stats reports the number of cached entries.
func (c *QueryCache) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{
		"enabled": c.enabled(),
		"entries": 0,
	}
	if !c.enabled() {
		return stats, nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 100).Iterator()
	entries := 0
	for iter.Next(ctx) {
		entries++
	}
	if err := iter.Err(); err != nil {
		return stats, err
	}

	stats["entries"] = entries
	stats["ttl"] = c.config.TTL.String()
	return stats, nil
}
