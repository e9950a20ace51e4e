package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisClient 定义限流存储所需的Redis操作，便于在测试中替换
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

var _ RedisClient = (*redis.Client)(nil)
