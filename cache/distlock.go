package cache

import (
	"context"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// Locker 在锁内执行操作
type Locker interface {
	WithLock(ctx context.Context, name string, expiry time.Duration, action func() error) error
}

// DistributedLockService 基于redsync的分布式锁服务
type DistributedLockService struct {
	rs *redsync.Redsync
}

// NewLockService 使用现有的Redis客户端创建分布式锁服务
func NewLockService(client *redis.Client) *DistributedLockService {
	pool := goredis.NewPool(client)
	return &DistributedLockService{rs: redsync.New(pool)}
}

// WithLock 在锁内执行操作
func (s *DistributedLockService) WithLock(ctx context.Context, name string, expiry time.Duration, action func() error) error {
	mutex := s.rs.NewMutex(name,
		redsync.WithExpiry(expiry),
		redsync.WithTries(5),                        // 最大重试次数
		redsync.WithRetryDelay(50*time.Millisecond), // 重试延迟
		redsync.WithDriftFactor(0.01),               // 时钟漂移因子
	)

	if err := mutex.LockContext(ctx); err != nil {
		return ErrLockNotAcquired
	}

	// 确保解锁
	defer func() {
		_, _ = mutex.UnlockContext(context.WithoutCancel(ctx))
	}()

	return action()
}

// LocalLockService 单实例部署时使用的进程内锁
type LocalLockService struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalLockService 创建进程内锁服务
func NewLocalLockService() *LocalLockService {
	return &LocalLockService{locks: make(map[string]*sync.Mutex)}
}

// WithLock 在锁内执行操作，expiry在进程内锁中不生效
func (s *LocalLockService) WithLock(ctx context.Context, name string, _ time.Duration, action func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	m, ok := s.locks[name]
	if !ok {
		m = &sync.Mutex{}
		s.locks[name] = m
	}
	s.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return action()
}
