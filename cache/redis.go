package cache

import (
	"context"
	"fmt"
	"time"

	"story4u-backend/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedis 按配置创建Redis客户端并测试连接。未配置地址时返回 ErrRedisNotAvailable。
func NewRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, ErrRedisNotAvailable
	}

	log.Info("初始化Redis连接", zap.String("addr", cfg.RedisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 3 * time.Second,
		ReadTimeout: 3 * time.Second,
		PoolSize:    10,
	})

	// 测试连接
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	log.Info("Redis连接初始化成功")
	return client, nil
}

// CloseRedis 关闭Redis连接
func CloseRedis(client *redis.Client, log *zap.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Error("关闭Redis连接失败", zap.Error(err))
		return
	}
	log.Info("Redis连接已关闭")
}
