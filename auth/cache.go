package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 200 * time.Millisecond

type cacheEntry struct {
	id    Identity
	until time.Time
}

// Cache memoizes resolved identities by raw passkey. The local tier is a
// plain locked map with per-entry TTL, satisfying the ≤1ms P99 resolution
// contract of §4.2 on a cache hit. The optional Redis tier lets a passkey
// resolved by one tracker process become immediately visible to its
// siblings, at the cost of a network round trip on a local miss — still far
// cheaper than falling through to passkey resolution itself.
type Cache struct {
	mu    sync.RWMutex
	local map[string]cacheEntry
	ttl   time.Duration

	redis    *redis.Client
	redisTTL time.Duration
}

// NewCache builds a local-only Cache with the given per-entry TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{local: make(map[string]cacheEntry), ttl: ttl}
}

// WithRedis attaches a shared Redis tier, returning c for chaining.
func (c *Cache) WithRedis(client *redis.Client, ttl time.Duration) *Cache {
	c.redis = client
	c.redisTTL = ttl
	return c
}

// Get returns the cached identity for passkey, checking the local tier
// first and falling back to Redis if attached.
func (c *Cache) Get(passkey string) (Identity, bool) {
	if c == nil {
		return Identity{}, false
	}

	c.mu.RLock()
	e, ok := c.local[passkey]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.until) {
		return e.id, true
	}

	if c.redis == nil {
		return Identity{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	userID, err := c.redis.Get(ctx, redisKey(passkey)).Result()
	if err != nil {
		return Identity{}, false
	}

	id := Identity{UserID: userID}
	c.setLocal(passkey, id)
	return id, true
}

// Set stores id for passkey in both tiers (the Redis tier is best-effort).
func (c *Cache) Set(passkey string, id Identity) {
	if c == nil {
		return
	}
	c.setLocal(passkey, id)
	if c.redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := c.redis.Set(ctx, redisKey(passkey), id.UserID, c.redisTTL).Err(); err != nil {
		logger.Debug().Err(err).Msg("shared passkey cache write failed")
	}
}

func (c *Cache) setLocal(passkey string, id Identity) {
	c.mu.Lock()
	c.local[passkey] = cacheEntry{id: id, until: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func redisKey(passkey string) string {
	return "tracker:passkey:" + Fingerprint(passkey)
}
