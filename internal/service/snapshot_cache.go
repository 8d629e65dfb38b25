package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"general-ledger/pkg/redis"
)

// SnapshotCache caches serialized report snapshots with an in-memory layer
// in front of an optional Redis layer. Entries are invalidated whenever a
// posting or reversal changes an entity's ledger.
type SnapshotCache struct {
	redis  *redis.Client // nil when caching is memory-only
	logger *zap.Logger
	ttl    time.Duration

	mu   sync.RWMutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	payload  []byte
	cachedAt time.Time
}

func NewSnapshotCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
		data:   make(map[string]memoryEntry),
	}
}

func snapshotKey(entityID, parts string) string {
	return "reports:" + entityID + ":" + parts
}

// Get loads a cached snapshot into dest, reporting whether it was found.
func (c *SnapshotCache) Get(ctx context.Context, entityID, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	full := snapshotKey(entityID, key)

	c.mu.RLock()
	entry, ok := c.data[full]
	c.mu.RUnlock()
	if ok && time.Since(entry.cachedAt) < c.ttl {
		return json.Unmarshal(entry.payload, dest) == nil
	}

	if c.redis == nil {
		return false
	}
	val, err := c.redis.Get(ctx, full)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false
	}
	c.mu.Lock()
	c.data[full] = memoryEntry{payload: []byte(val), cachedAt: time.Now()}
	c.mu.Unlock()
	return true
}

// Set stores a snapshot in both layers.
func (c *SnapshotCache) Set(ctx context.Context, entityID, key string, value interface{}) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	full := snapshotKey(entityID, key)

	c.mu.Lock()
	c.data[full] = memoryEntry{payload: payload, cachedAt: time.Now()}
	c.mu.Unlock()

	if c.redis != nil {
		if err := c.redis.Set(ctx, full, string(payload), c.ttl); err != nil {
			c.logger.Warn("failed to cache report snapshot", zap.Error(err))
		}
	}
}

// InvalidateEntity drops all cached snapshots for an entity.
func (c *SnapshotCache) InvalidateEntity(ctx context.Context, entityID string) {
	if c == nil {
		return
	}
	prefix := snapshotKey(entityID, "")

	c.mu.Lock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	c.mu.Unlock()

	if c.redis != nil {
		if err := c.redis.DeletePrefix(ctx, prefix); err != nil {
			c.logger.Warn("failed to invalidate report cache", zap.Error(err))
		}
	}
}
