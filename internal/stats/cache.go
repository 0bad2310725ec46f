package stats

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the read/invalidate layer in front of the rating store.
// Implementations must be safe for concurrent use. Writers only Set whole
// entries or Delete them; there are no partial updates.
type Cache interface {
	Get(ctx context.Context, key string) (Stats, bool)
	Set(ctx context.Context, key string, s Stats)
	Delete(ctx context.Context, key string)
}

type cacheItem struct {
	stats     Stats
	expiresAt time.Time
}

// TTLCache is an in-process Cache with per-entry expiry. It is the default
// backend; a single bot process gains nothing from an external cache unless
// it runs sharded.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	ttl   time.Duration
}

func NewTTLCache(ttl time.Duration) *TTLCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TTLCache{items: make(map[string]cacheItem), ttl: ttl}
}

func (c *TTLCache) Get(_ context.Context, key string) (Stats, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return Stats{}, false
	}
	if time.Now().After(it.expiresAt) {
		c.mu.Lock()
		if cur, ok2 := c.items[key]; ok2 && time.Now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return Stats{}, false
	}
	return it.stats, true
}

func (c *TTLCache) Set(_ context.Context, key string, s Stats) {
	c.mu.Lock()
	c.items[key] = cacheItem{stats: s, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTLCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// RedisCache stores entries in Redis with the same TTL semantics, for
// deployments running more than one bot shard against one database.
// Cache errors degrade to misses; the store recompute is the authority.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: redis.NewClient(opt), ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (Stats, bool) {
	val, err := c.client.Get(ctx, "imdbbot:stats:"+key).Result()
	if err != nil {
		return Stats{}, false
	}
	var s Stats
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return Stats{}, false
	}
	return s, true
}

func (c *RedisCache) Set(ctx context.Context, key string, s Stats) {
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, "imdbbot:stats:"+key, b, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	_ = c.client.Del(ctx, "imdbbot:stats:"+key).Err()
}
