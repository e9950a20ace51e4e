// redischeck 针对真实Redis手动验证共享限流计数和分布式锁。
//
//	go run ./cmd/redischeck [rate] [lock]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"story4u-backend/cache"
	"story4u-backend/config"
	"story4u-backend/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 测试限流器
func testRateLimiter(ctx context.Context, client *redis.Client, log *zap.Logger) {
	fmt.Println("=== 测试限流器 ===")

	rules := map[cache.Class]cache.Rule{
		cache.ClassVote: {Window: 3 * time.Second, Anonymous: 5, IdentityAgnostic: true},
	}
	limiter := cache.NewWindowRateLimiter(cache.NewRedisWindowStore(client), rules)
	key := "redischeck:" + uuid.NewString()

	// 窗口内发送10个请求，应该只有前5个允许通过
	allowed := 0
	for i := 0; i < 10; i++ {
		d, err := limiter.Allow(ctx, cache.ClassVote, cache.TierAnonymous, key)
		switch {
		case err != nil:
			log.Error("限流检查错误", zap.Int("request", i+1), zap.Error(err))
		case d.Allowed:
			allowed++
		}
	}
	log.Info("窗口内请求完成", zap.Int("allowed", allowed), zap.Int("expected", 5))

	// 窗口结束后应重新计数
	time.Sleep(3*time.Second + 200*time.Millisecond)
	d, err := limiter.Allow(ctx, cache.ClassVote, cache.TierAnonymous, key)
	if err != nil {
		log.Error("限流检查错误", zap.Error(err))
		return
	}
	log.Info("窗口结束后的第一个请求", zap.Bool("allowed", d.Allowed), zap.Int64("remaining", d.Remaining))
}

// 测试分布式锁
func testDistributedLock(ctx context.Context, client *redis.Client, log *zap.Logger) {
	fmt.Println("\n=== 测试分布式锁 ===")

	locker := cache.NewLockService(client)
	lockKey := "lock:redischeck:" + uuid.NewString()
	concurrentRequests := 10

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inside   int
		maxSeen  int
		acquired int
	)

	for i := 0; i < concurrentRequests; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			err := locker.WithLock(ctx, lockKey, 5*time.Second, func() error {
				mu.Lock()
				inside++
				acquired++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(100 * time.Millisecond) // 模拟执行一些工作

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if errors.Is(err, cache.ErrLockNotAcquired) {
				log.Info("未能获取锁", zap.Int("request", idx+1))
			} else if err != nil {
				log.Error("锁操作错误", zap.Int("request", idx+1), zap.Error(err))
			}
		}(i)
	}
	wg.Wait()

	// 锁正常工作时临界区内最多只有一个请求
	log.Info("所有请求完成", zap.Int("acquired", acquired), zap.Int("max_concurrent", maxSeen))
}

func main() {
	defer fmt.Println("所有测试完成！")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.NewStdout(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	ctx := context.Background()
	client, err := cache.NewRedis(ctx, cfg, log)
	if err != nil {
		log.Fatal("初始化Redis失败", zap.Error(err))
	}
	defer cache.CloseRedis(client, log)

	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"rate", "lock"}
	}
	for _, arg := range args {
		switch arg {
		case "rate":
			testRateLimiter(ctx, client, log)
		case "lock":
			testDistributedLock(ctx, client, log)
		default:
			log.Warn("未知测试", zap.String("name", arg))
		}
	}
}
