package cache

import (
	"context"
	"fmt"
	"time"
)

// Class 限流的操作类别
type Class string

const (
	ClassRead       Class = "read"
	ClassWrite      Class = "write"
	ClassUpload     Class = "upload"
	ClassUserCreate Class = "user_create"
	ClassLogin      Class = "login"
	ClassVote       Class = "vote"
)

// Tier 限流等级，匿名调用者单独一级
type Tier string

const (
	TierAnonymous  Tier = "anonymous"
	TierUser       Tier = "user"
	TierAdmin      Tier = "admin"
	TierSuperAdmin Tier = "superadmin"
)

// Rule 某一类操作的窗口和各等级上限
type Rule struct {
	Window     time.Duration
	Anonymous  int64
	User       int64
	Admin      int64
	SuperAdmin int64
	// IdentityAgnostic 为true时所有调用者按地址+客户端标识计数并使用匿名上限
	IdentityAgnostic bool
}

// Max 返回等级对应的上限
func (r Rule) Max(t Tier) int64 {
	switch t {
	case TierUser:
		return r.User
	case TierAdmin:
		return r.Admin
	case TierSuperAdmin:
		return r.SuperAdmin
	default:
		return r.Anonymous
	}
}

// DefaultRules 默认限流配置
func DefaultRules() map[Class]Rule {
	return map[Class]Rule{
		ClassRead:       {Window: 15 * time.Minute, Anonymous: 500, User: 1000, Admin: 5000, SuperAdmin: 10000},
		ClassWrite:      {Window: 15 * time.Minute, Anonymous: 10, User: 100, Admin: 1000, SuperAdmin: 5000},
		ClassUpload:     {Window: time.Hour, Anonymous: 5, User: 20, Admin: 200, SuperAdmin: 500},
		ClassUserCreate: {Window: time.Hour, Anonymous: 0, User: 0, Admin: 50, SuperAdmin: 200},
		ClassLogin:      {Window: 15 * time.Minute, Anonymous: 10, IdentityAgnostic: true},
		ClassVote:       {Window: 15 * time.Minute, Anonymous: 60, IdentityAgnostic: true},
	}
}

// Decision 一次限流判断的结果
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// WindowRateLimiter 按类别和等级在固定窗口内计数
type WindowRateLimiter struct {
	store WindowStore
	rules map[Class]Rule
}

// NewWindowRateLimiter 创建限流器
func NewWindowRateLimiter(store WindowStore, rules map[Class]Rule) *WindowRateLimiter {
	return &WindowRateLimiter{store: store, rules: rules}
}

// Rule 返回类别的规则
func (l *WindowRateLimiter) Rule(class Class) (Rule, bool) {
	r, ok := l.rules[class]
	return r, ok
}

// Allow 对 class:tier:key 计数并判断是否超限
func (l *WindowRateLimiter) Allow(ctx context.Context, class Class, tier Tier, key string) (Decision, error) {
	rule, ok := l.rules[class]
	if !ok {
		return Decision{Allowed: true}, fmt.Errorf("未配置的限流类别: %s", class)
	}
	if rule.IdentityAgnostic {
		tier = TierAnonymous
	}
	max := rule.Max(tier)

	count, resetAt, err := l.store.Incr(ctx, fmt.Sprintf("%s:%s:%s", class, tier, key), rule.Window)
	if err != nil {
		return Decision{Allowed: true, Limit: max, Remaining: max}, err
	}

	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= max,
		Limit:     max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
