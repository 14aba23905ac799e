package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wayfare-go/internal/models"
)

// RateCacheStats tracks cache performance metrics
type RateCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// RedisRateCache stores resolved exchange rates in Redis, one key per pair.
// Each write is a single SET, so concurrent writers for a pair end as last
// writer wins and unrelated pairs never contend.
type RedisRateCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *RateCacheStats
	prefix string
	logger *logrus.Logger
}

// NewRedisRateCache creates a new Redis-based rate cache. A zero ttl keeps entries until cleared.
func NewRedisRateCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisRateCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisRateCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &RateCacheStats{},
		prefix: "fx_rate:",
		logger: logger,
	}
}

func (c *RedisRateCache) key(base, quote string) string {
	return c.prefix + base + ":" + quote
}

// Get retrieves the cached rate for base->quote
func (c *RedisRateCache) Get(ctx context.Context, base, quote string) (float64, bool) {
	entry, ok := c.Entry(ctx, base, quote)
	if !ok {
		return 0, false
	}
	return entry.Rate, true
}

// Entry retrieves the full cached entry for base->quote
func (c *RedisRateCache) Entry(ctx context.Context, base, quote string) (models.RateCacheEntry, bool) {
	cacheKey := c.key(base, quote)

	data, err := c.redis.Get(ctx, cacheKey).Result()
	if errors.Is(err, redis.Nil) {
		c.recordMiss()
		return models.RateCacheEntry{}, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("Redis error getting cached rate")
		c.recordMiss()
		return models.RateCacheEntry{}, false
	}

	var entry models.RateCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("Error deserializing cached rate")
		c.recordMiss()
		return models.RateCacheEntry{}, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()

	return entry, true
}

// Set stores the rate for base->quote, overwriting any previous entry
func (c *RedisRateCache) Set(ctx context.Context, base, quote string, rate float64) {
	cacheKey := c.key(base, quote)

	data, err := json.Marshal(models.RateCacheEntry{
		Base:      base,
		Quote:     quote,
		Rate:      rate,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("Error serializing rate")
		return
	}

	if err := c.redis.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("Redis error setting rate")
		return
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

func (c *RedisRateCache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}

// GetStats returns current cache statistics
func (c *RedisRateCache) GetStats() RateCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return RateCacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Sets:   c.stats.Sets,
	}
}

// LogStats logs current cache performance statistics
func (c *RedisRateCache) LogStats() {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}

	c.logger.WithFields(logrus.Fields{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"sets":     stats.Sets,
		"hit_rate": fmt.Sprintf("%.2f%%", hitRate),
	}).Info("Rate cache stats")
}

// Clear removes every cached rate
func (c *RedisRateCache) Clear(ctx context.Context) error {
	keys, err := c.scanKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error clearing rate cache: %w", err)
	}

	c.logger.WithField("count", len(keys)).Info("Cleared rate cache entries")
	return nil
}

func (c *RedisRateCache) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rate cache keys: %w", err)
	}
	return keys, nil
}
