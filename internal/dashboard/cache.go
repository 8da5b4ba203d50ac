// Package dashboard composes the read-only rollups shown to a signed-in
// user.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered summaries in Redis. Keys carry a per-owner
// version; mutations bump the version instead of deleting entries, so
// invalidation is a single INCR and stale entries age out via TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) versionKey(ownerID string) string {
	return "dashboard:ver:" + ownerID
}

func (c *Cache) version(ctx context.Context, ownerID string) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	ver, err := c.client.Get(ctx, c.versionKey(ownerID)).Int64()
	if err != nil {
		return 0
	}
	return ver
}

func (c *Cache) summaryKey(ctx context.Context, ownerID string) string {
	return fmt.Sprintf("dashboard:summary:%s:%d", ownerID, c.version(ctx, ownerID))
}

// Get loads a cached summary. The second return reports a hit.
func (c *Cache) Get(ctx context.Context, ownerID string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, c.summaryKey(ctx, ownerID)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set stores a freshly built summary under the current version.
func (c *Cache) Set(ctx context.Context, ownerID string, value any) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.summaryKey(ctx, ownerID), raw, c.ttl).Err()
}

// Bump invalidates every cached summary for the owner.
func (c *Cache) Bump(ctx context.Context, ownerID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Incr(ctx, c.versionKey(ownerID)).Err()
}
