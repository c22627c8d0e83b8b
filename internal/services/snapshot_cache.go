package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storelens/service-analytics/internal/analytics"
)

// SnapshotCache stores composed analytics snapshots for the cache TTL.
type SnapshotCache interface {
	// Get returns the cached snapshot for a store, or nil on a miss.
	Get(ctx context.Context, storeID string) (*analytics.Snapshot, error)
	// Set stores a snapshot under the store key.
	Set(ctx context.Context, storeID string, snapshot *analytics.Snapshot) error
	// Invalidate drops the cached snapshot for a store.
	Invalidate(ctx context.Context, storeID string) error
}

func snapshotKey(storeID string) string {
	return fmt.Sprintf("analytics:snapshot:%s", storeID)
}

// RedisSnapshotCache caches snapshots in Redis as JSON.
type RedisSnapshotCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSnapshotCache creates a Redis-backed snapshot cache.
func NewRedisSnapshotCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSnapshotCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &RedisSnapshotCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

// Get retrieves a cached snapshot. Cache errors are logged and treated
// as misses so a degraded Redis never blocks snapshot reads.
func (c *RedisSnapshotCache) Get(ctx context.Context, storeID string) (*analytics.Snapshot, error) {
	key := snapshotKey(storeID)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		c.logger.Warn("failed to get snapshot from cache", zap.Error(err), zap.String("key", key))
		return nil, nil
	}

	var snapshot analytics.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.logger.Warn("failed to unmarshal cached snapshot", zap.Error(err), zap.String("key", key))
		return nil, nil
	}

	c.logger.Debug("snapshot cache hit", zap.String("store_id", storeID))
	return &snapshot, nil
}

// Set stores a snapshot with the configured TTL.
func (c *RedisSnapshotCache) Set(ctx context.Context, storeID string, snapshot *analytics.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := snapshotKey(storeID)
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache snapshot", zap.Error(err), zap.String("key", key))
		return err
	}

	c.logger.Debug("cached snapshot",
		zap.String("store_id", storeID),
		zap.Duration("ttl", c.ttl),
	)
	return nil
}

// Invalidate removes the cached snapshot for a store.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, storeID string) error {
	if err := c.redis.Del(ctx, snapshotKey(storeID)).Err(); err != nil {
		c.logger.Warn("failed to invalidate snapshot cache",
			zap.Error(err),
			zap.String("store_id", storeID),
		)
		return err
	}
	return nil
}

type memoryCacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySnapshotCache is an in-process snapshot cache used when Redis
// is not configured. Entries round-trip through JSON so cached reads
// behave identically to the Redis cache.
type MemorySnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySnapshotCache creates an in-process snapshot cache.
func NewMemorySnapshotCache(ttl time.Duration) *MemorySnapshotCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &MemorySnapshotCache{
		entries: make(map[string]memoryCacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached snapshot for a store, or nil on a miss.
func (c *MemorySnapshotCache) Get(ctx context.Context, storeID string) (*analytics.Snapshot, error) {
	c.mu.RLock()
	entry, ok := c.entries[snapshotKey(storeID)]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, nil
	}

	var snapshot analytics.Snapshot
	if err := json.Unmarshal(entry.data, &snapshot); err != nil {
		return nil, nil
	}
	return &snapshot, nil
}

// Set stores a snapshot with the configured TTL.
func (c *MemorySnapshotCache) Set(ctx context.Context, storeID string, snapshot *analytics.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	c.mu.Lock()
	c.entries[snapshotKey(storeID)] = memoryCacheEntry{
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}

// Invalidate removes the cached snapshot for a store.
func (c *MemorySnapshotCache) Invalidate(ctx context.Context, storeID string) error {
	c.mu.Lock()
	delete(c.entries, snapshotKey(storeID))
	c.mu.Unlock()
	return nil
}
