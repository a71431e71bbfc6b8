package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPreviewCache keeps the preview entry in Redis so it is shared across
// processes and survives restarts.
type RedisPreviewCache struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

func NewRedisPreviewCache(client *redis.Client, logger *zap.SugaredLogger) *RedisPreviewCache {
	return &RedisPreviewCache{client: client, logger: logger}
}

func (c *RedisPreviewCache) Get(ctx context.Context) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := c.client.Get(ctx, previewKey).Bytes()
	if err != nil {
		if c.logger != nil {
			c.logger.Debugf("preview cache miss err=%v", err)
		}
		return nil, false
	}
	return b, true
}

func (c *RedisPreviewCache) Set(ctx context.Context, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultPreviewTTL
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.client.Set(ctx, previewKey, payload, ttl).Err(); err != nil {
		if c.logger != nil {
			c.logger.Warnf("preview cache set failed err=%v", err)
		}
	}
}

func (c *RedisPreviewCache) Invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.client.Del(ctx, previewKey).Err(); err != nil {
		if c.logger != nil {
			c.logger.Warnf("preview cache invalidate failed err=%v", err)
		}
	}
}
