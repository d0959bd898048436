// Package cache shares rendered charts between dashboard processes through Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

// DefaultPrefix namespaces chart keys.
const DefaultPrefix = "fundboard:chart:"

// Connect opens a client from a redis:// URL or a bare host:port address.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		return nil, errors.New("cache: redis url is required")
	}
	var client *redis.Client
	if strings.Contains(redisURL, "://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("cache: parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	return client, nil
}

type stringStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisRenderCache implements dashboard.RenderCache on Redis. Redis failures fall
// back to rendering so charts never fail because the cache is down.
type RedisRenderCache struct {
	store  stringStore
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

var _ dashboard.RenderCache = (*RedisRenderCache)(nil)

// NewRedisRenderCache wraps client. A non-positive ttl defaults to five minutes.
func NewRedisRenderCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RedisRenderCache {
	return newRedisRenderCache(client, ttl, logger)
}

func newRedisRenderCache(store stringStore, ttl time.Duration, logger *zap.Logger) *RedisRenderCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRenderCache{store: store, ttl: ttl, prefix: DefaultPrefix, logger: logger}
}

// GetOrRender implements dashboard.RenderCache.
func (c *RedisRenderCache) GetOrRender(ctx context.Context, key string, render func() (string, error)) (string, error) {
	full := c.prefix + key
	html, err := c.store.Get(ctx, full).Result()
	switch {
	case err == nil:
		return html, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("chart cache read failed", zap.String("key", full), zap.Error(err))
	}

	html, err = render()
	if err != nil {
		return "", err
	}
	if err := c.store.Set(ctx, full, html, c.ttl).Err(); err != nil {
		c.logger.Warn("chart cache write failed", zap.String("key", full), zap.Error(err))
	}
	return html, nil
}
