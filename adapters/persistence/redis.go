package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/talent-portfolio/internal/config"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

func NewRedisClient(cfg config.Config, log logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("can not connect Redis: %w", err)
	}

	log.Info("Connect Redis successfully.")
	return rdb, nil
}
