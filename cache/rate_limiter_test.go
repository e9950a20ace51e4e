package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rules map[Class]Rule) (*WindowRateLimiter, *fakeClock, *MemoryWindowStore) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryWindowStore().WithClock(clock.Now)
	return NewWindowRateLimiter(store, rules), clock, store
}

func TestWindowRateLimiter_RejectsAfterMaxThenResets(t *testing.T) {
	rules := map[Class]Rule{ClassWrite: {Window: time.Minute, Anonymous: 2, User: 3}}
	l, clock, _ := newTestLimiter(rules)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, ClassWrite, TierUser, "user:1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, int64(3-i-1), d.Remaining)
	}

	d, err := l.Allow(ctx, ClassWrite, TierUser, "user:1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), d.ResetAt)

	clock.Advance(time.Minute)
	d, err = l.Allow(ctx, ClassWrite, TierUser, "user:1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestWindowRateLimiter_KeysAndTiersAreIndependent(t *testing.T) {
	rules := map[Class]Rule{ClassWrite: {Window: time.Minute, Anonymous: 1, User: 1}}
	l, _, _ := newTestLimiter(rules)
	ctx := context.Background()

	d, _ := l.Allow(ctx, ClassWrite, TierUser, "user:1")
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, ClassWrite, TierUser, "user:2")
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, ClassWrite, TierAnonymous, "anon:1.2.3.4:curl")
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, ClassWrite, TierUser, "user:1")
	assert.False(t, d.Allowed)
}

func TestWindowRateLimiter_ZeroCeilingBlocks(t *testing.T) {
	l, _, _ := newTestLimiter(DefaultRules())
	d, err := l.Allow(context.Background(), ClassUserCreate, TierUser, "user:1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestWindowRateLimiter_IdentityAgnosticUsesAnonymousCeiling(t *testing.T) {
	rules := map[Class]Rule{ClassVote: {Window: time.Minute, Anonymous: 1, SuperAdmin: 100, IdentityAgnostic: true}}
	l, _, _ := newTestLimiter(rules)
	ctx := context.Background()

	d, _ := l.Allow(ctx, ClassVote, TierSuperAdmin, "anon:ip:ua")
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Limit)
	d, _ = l.Allow(ctx, ClassVote, TierAnonymous, "anon:ip:ua")
	assert.False(t, d.Allowed, "tiers share the anonymous bucket")
}

func TestWindowRateLimiter_UnknownClass(t *testing.T) {
	l, _, _ := newTestLimiter(map[Class]Rule{})
	d, err := l.Allow(context.Background(), ClassRead, TierUser, "k")
	assert.Error(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryWindowStore_Sweep(t *testing.T) {
	_, clock, store := newTestLimiter(nil)
	ctx := context.Background()
	_, _, _ = store.Incr(ctx, "a", time.Second)
	_, _, _ = store.Incr(ctx, "b", time.Hour)

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, store.Sweep())
	count, _, _ := store.Incr(ctx, "b", time.Hour)
	assert.Equal(t, int64(2), count)
}

type fakeRedis struct {
	result interface{}
	err    error
	keys   []string
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.keys = keys
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(f.result)
	}
	return cmd
}

func TestRedisWindowStore(t *testing.T) {
	fr := &fakeRedis{result: []interface{}{int64(3), int64(1500)}}
	store := NewRedisWindowStore(fr)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	count, reset, err := store.Incr(context.Background(), "write:user:user:1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, now.Add(1500*time.Millisecond), reset)
	assert.Equal(t, []string{"rate_limit:write:user:user:1"}, fr.keys)

	fr.err = errors.New("conn refused")
	_, _, err = store.Incr(context.Background(), "k", time.Minute)
	assert.Error(t, err)

	fr.err = nil
	fr.result = "garbage"
	_, _, err = store.Incr(context.Background(), "k", time.Minute)
	assert.Error(t, err)

	_, _, err = NewRedisWindowStore(nil).Incr(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ErrRedisNotAvailable)
}

func TestLocalLockService_Serializes(t *testing.T) {
	locks := NewLocalLockService()
	ctx := context.Background()
	counter := 0
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			_ = locks.WithLock(ctx, "bootstrap", time.Second, func() error {
				v := counter
				time.Sleep(time.Millisecond)
				counter = v + 1
				return nil
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	assert.Equal(t, 10, counter)
}
