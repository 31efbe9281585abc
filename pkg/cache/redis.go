package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/sdnegeri1godegan/library/pkg/api"
)

const redisKeyPrefix = "opac:cache:"

// Redis shares cached results between kiosk processes. Expiry rides on
// Redis TTLs instead of a lazy per-lookup check.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewRedis builds a Redis-backed result cache. A ttl <= 0 falls back to
// DefaultTTL.
func NewRedis(addr, password string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl:    ttl,
		logger: slog.Default(),
	}
}

// GetOrFetch mirrors Memory.GetOrFetch. Redis being unreachable degrades
// to fetching every time; it never turns into a caller-visible error.
func (c *Redis) GetOrFetch(ctx context.Context, key string, fetch Fetcher) api.Envelope {
	if env, ok := c.lookup(ctx, key); ok {
		return env
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		if env, ok := c.lookup(ctx, key); ok {
			return env, nil
		}
		env := fetch(ctx)
		if env.Success {
			c.store(ctx, key, env)
		}
		return env, nil
	})
	return v.(api.Envelope)
}

// Invalidate drops one key.
func (c *Redis) Invalidate(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", "key", key, "err", err)
	}
}

// InvalidateAll drops every cached result under this client's prefix.
// Iterates with SCAN so a shared Redis is never blocked on a large
// keyspace.
func (c *Redis) InvalidateAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			c.logger.Warn("cache scan failed", "err", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("cache flush failed", "err", err)
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

func (c *Redis) lookup(ctx context.Context, key string) (api.Envelope, bool) {
	val, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return api.Envelope{}, false
	}
	var env api.Envelope
	if err := json.Unmarshal(val, &env); err != nil {
		return api.Envelope{}, false
	}
	return env, true
}

func (c *Redis) store(ctx context.Context, key string, env api.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache store failed", "key", key, "err", err)
	}
}
