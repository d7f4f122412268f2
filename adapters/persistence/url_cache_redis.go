package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/talent-portfolio/internal/application/service"
)

const urlCachePrefix = "resolver:url:"

type redisURLCache struct {
	client *redis.Client
}

func NewRedisURLCache(client *redis.Client) service.URLCache {
	return &redisURLCache{client: client}
}

func (c *redisURLCache) Get(ctx context.Context, path string) (string, bool, error) {
	url, err := c.client.Get(ctx, urlCachePrefix+path).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return url, true, nil
}

func (c *redisURLCache) Set(ctx context.Context, path, url string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, urlCachePrefix+path, url, ttl).Err()
}
