package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/orphadx-io/orphadx/pkg/utils/json"
)

// EmbeddingCacheConfig configures the embedding cache.
type EmbeddingCacheConfig struct {
	// Size is the maximum number of entries held in the in-process LRU.
	Size int
	// TTL is the expiry of Redis-backed entries.
	TTL time.Duration
	// KeyPrefix prefixes Redis keys.
	KeyPrefix string
}

// DefaultEmbeddingCacheConfig returns the default embedding cache configuration.
func DefaultEmbeddingCacheConfig() *EmbeddingCacheConfig {
	return &EmbeddingCacheConfig{
		Size:      4096,
		TTL:       24 * time.Hour, // embeddings are stable, cache them for long
		KeyPrefix: "emb:",
	}
}

// CachedEmbeddingProvider wraps an EmbeddingProvider with a bounded
// in-process LRU cache keyed by content hash, optionally backed by Redis.
// Cached entries are returned verbatim, so repeated embeddings of the same
// text are always identical.
type CachedEmbeddingProvider struct {
	provider EmbeddingProvider
	local    *lru.Cache[string, []float32]
	redis    *goredis.Client
	config   *EmbeddingCacheConfig
}

// NewCachedEmbeddingProvider creates a caching wrapper around provider.
// redis may be nil; the in-process LRU is always active.
func NewCachedEmbeddingProvider(
	provider EmbeddingProvider,
	redis *goredis.Client,
	config *EmbeddingCacheConfig,
) (*CachedEmbeddingProvider, error) {
	if config == nil {
		config = DefaultEmbeddingCacheConfig()
	}
	local, err := lru.New[string, []float32](config.Size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbeddingProvider{
		provider: provider,
		local:    local,
		redis:    redis,
		config:   config,
	}, nil
}

// cacheKey derives the cache key from the text content (SHA256 hash).
func (c *CachedEmbeddingProvider) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

// lookup checks the local LRU first, then Redis. Redis hits are promoted
// into the LRU.
func (c *CachedEmbeddingProvider) lookup(ctx context.Context, key string) ([]float32, bool) {
	if embedding, ok := c.local.Get(key); ok {
		return embedding, true
	}

	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			logger.Warnw("redis get error, falling back to provider", "error", err.Error())
		}
		return nil, false
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		logger.Warnw("failed to unmarshal cached embedding, deleting", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}

	c.local.Add(key, embedding)
	return embedding, true
}

// store writes the embedding to the LRU and, if configured, Redis.
func (c *CachedEmbeddingProvider) store(ctx context.Context, key string, embedding []float32) {
	c.local.Add(key, embedding)

	if c.redis == nil {
		return
	}

	data, err := json.Marshal(embedding)
	if err != nil {
		logger.Warnw("failed to marshal embedding for caching", "error", err.Error())
		return
	}
	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to cache embedding", "error", err.Error(), "key", key)
	}
}

// EmbedSingle generates an embedding for a single text, cached.
func (c *CachedEmbeddingProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)

	if embedding, ok := c.lookup(ctx, key); ok {
		logger.Debugw("embedding cache hit", "text_length", len(text))
		return embedding, nil
	}

	embedding, err := c.provider.EmbedSingle(ctx, text)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, embedding)
	return embedding, nil
}

// Embed generates embeddings for multiple texts, serving cached entries and
// batching the remainder into a single provider call.
func (c *CachedEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	uncachedIndices := []int{}
	uncachedTexts := []string{}

	for i, text := range texts {
		if embedding, ok := c.lookup(ctx, c.cacheKey(text)); ok {
			embeddings[i] = embedding
			continue
		}
		uncachedIndices = append(uncachedIndices, i)
		uncachedTexts = append(uncachedTexts, text)
	}

	if len(uncachedTexts) == 0 {
		logger.Debugw("all embeddings from cache", "total", len(texts))
		return embeddings, nil
	}

	logger.Debugw("embedding cache miss (batch)", "total", len(texts), "uncached", len(uncachedTexts))
	uncachedEmbeddings, err := c.provider.Embed(ctx, uncachedTexts)
	if err != nil {
		return nil, err
	}

	for i, idx := range uncachedIndices {
		embeddings[idx] = uncachedEmbeddings[i]
		c.store(ctx, c.cacheKey(uncachedTexts[i]), uncachedEmbeddings[i])
	}

	return embeddings, nil
}

// Name returns the underlying provider name with a cache suffix.
func (c *CachedEmbeddingProvider) Name() string {
	return c.provider.Name() + "-cached"
}

// Len returns the number of entries in the in-process cache.
func (c *CachedEmbeddingProvider) Len() int {
	return c.local.Len()
}

// Purge drops all local entries and, when Redis is configured, deletes all
// matching keys.
func (c *CachedEmbeddingProvider) Purge(ctx context.Context) error {
	c.local.Purge()

	if c.redis == nil {
		return nil
	}

	pattern := c.config.KeyPrefix + "*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	deletedCount := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
		} else {
			deletedCount++
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	logger.Infow("cleared embedding cache", "deleted_count", deletedCount)
	return nil
}

// Stats returns cache statistics.
func (c *CachedEmbeddingProvider) Stats() map[string]interface{} {
	return map[string]interface{}{
		"size":       c.config.Size,
		"entries":    c.local.Len(),
		"redis":      c.redis != nil,
		"ttl":        c.config.TTL.String(),
		"key_prefix": c.config.KeyPrefix,
		"provider":   c.provider.Name(),
	}
}

var _ EmbeddingProvider = (*CachedEmbeddingProvider)(nil)
