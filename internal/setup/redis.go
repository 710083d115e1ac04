package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// InitRedis 初始化 Redis 连接
// 未配置地址时返回 nil，模型元数据缓存退化为直查数据库
func InitRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		logger.Warn("Redis 未配置，跳过初始化")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("Connected to Redis successfully!")
	return client, nil
}

func CloseRedis(client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.Error("Error closing Redis connection", zap.Error(err))
	} else {
		logger.Info("Redis connection closed.")
	}
}
