package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// WindowStore 固定窗口计数存储
type WindowStore interface {
	// Incr 为key计数加一，返回窗口内的计数和窗口重置时间
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

type windowEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryWindowStore 进程内的固定窗口计数，只适用于单实例部署
type MemoryWindowStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

// NewMemoryWindowStore 创建进程内计数存储
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// WithClock 替换时钟
func (s *MemoryWindowStore) WithClock(now func() time.Time) *MemoryWindowStore {
	s.now = now
	return s
}

// Incr 实现WindowStore
func (s *MemoryWindowStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &windowEntry{resetAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.resetAt, nil
}

// Sweep 清理已过期的窗口，返回清理数量
func (s *MemoryWindowStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// StartJanitor 定期清理过期窗口，ctx取消时退出
func (s *MemoryWindowStore) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// 固定窗口计数的Lua脚本：首次计数时设置过期时间
const incrWindowScript = `
local current = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if current == 1 or ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {current, ttl}
`

// RedisWindowStore 基于Redis的固定窗口计数，多实例共享
type RedisWindowStore struct {
	client RedisClient
	prefix string
	now    func() time.Time
}

// NewRedisWindowStore 创建Redis计数存储
func NewRedisWindowStore(client RedisClient) *RedisWindowStore {
	return &RedisWindowStore{
		client: client,
		prefix: "rate_limit:",
		now:    time.Now,
	}
}

// Incr 实现WindowStore
func (s *RedisWindowStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	if s.client == nil {
		return 0, time.Time{}, ErrRedisNotAvailable
	}

	res, err := s.client.Eval(ctx, incrWindowScript, []string{s.prefix + key}, window.Milliseconds()).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, time.Time{}, fmt.Errorf("限流脚本返回了意外的结果: %v", res)
	}
	count, ok1 := vals[0].(int64)
	ttl, ok2 := vals[1].(int64)
	if !ok1 || !ok2 {
		return 0, time.Time{}, fmt.Errorf("限流脚本返回了意外的结果: %v", res)
	}

	return count, s.now().Add(time.Duration(ttl) * time.Millisecond), nil
}
