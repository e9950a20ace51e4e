package handlers

import (
	"math"
	"strconv"
	"time"

	"story4u-backend/cache"
	"story4u-backend/errs"
	"story4u-backend/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxFingerprintLen = 50

// RateLimit 按操作类别和调用者角色限流
func (a *API) RateLimit(class cache.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		tier, key := a.rateLimitIdentity(c, class)

		decision, err := a.limiter.Allow(c.Request.Context(), class, tier, key)
		if err != nil {
			// 存储不可用时放行
			a.log.Warn("限流存储出错，已放行请求",
				zap.String("class", string(class)),
				zap.String("key", key),
				zap.Error(err))
			a.observeLimit(class, tier, "error")
			c.Next()
			return
		}

		reset := int64(math.Ceil(time.Until(decision.ResetAt).Seconds()))
		if reset < 0 {
			reset = 0
		}
		c.Header("RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		c.Header("RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		c.Header("RateLimit-Reset", strconv.FormatInt(reset, 10))

		if !decision.Allowed {
			a.observeLimit(class, tier, "rejected")
			c.Header("Retry-After", strconv.FormatInt(reset, 10))
			respondError(c, a.log, errs.New(errs.RateLimited, "Too many requests, please try again later."))
			return
		}
		a.observeLimit(class, tier, "allowed")
		c.Next()
	}
}

// rateLimitIdentity 已登录用户按ID和当前角色计数，其余按IP和客户端标识计数。
// 角色解析失败时退化为匿名上限。
func (a *API) rateLimitIdentity(c *gin.Context, class cache.Class) (cache.Tier, string) {
	anon := "anon:" + c.ClientIP() + ":" + fingerprint(c.Request.UserAgent())

	if rule, ok := a.limiter.Rule(class); ok && rule.IdentityAgnostic {
		return cache.TierAnonymous, anon
	}
	if _, ok := userID(c); !ok {
		return cache.TierAnonymous, anon
	}
	user, err := a.currentUser(c)
	if err != nil {
		return cache.TierAnonymous, anon
	}

	var tier cache.Tier
	switch user.Role {
	case models.RoleSuperAdmin:
		tier = cache.TierSuperAdmin
	case models.RoleAdmin:
		tier = cache.TierAdmin
	case models.RoleUser:
		tier = cache.TierUser
	default:
		return cache.TierAnonymous, anon
	}
	return tier, "user:" + strconv.FormatUint(uint64(user.ID), 10)
}

func fingerprint(ua string) string {
	if ua == "" {
		return "unknown"
	}
	r := []rune(ua)
	if len(r) > maxFingerprintLen {
		r = r[:maxFingerprintLen]
	}
	return string(r)
}

func (a *API) observeLimit(class cache.Class, tier cache.Tier, outcome string) {
	if a.metrics != nil {
		a.metrics.RateLimit.WithLabelValues(string(class), string(tier), outcome).Inc()
	}
}

// GlobalRateLimit 全局令牌桶限流，未启用时直接放行
func (a *API) GlobalRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.global == nil {
			c.Next()
			return
		}
		if !a.global.Allow() {
			a.observeLimit("global", cache.TierAnonymous, "rejected")
			c.Header("Retry-After", "1")
			respondError(c, a.log, errs.New(errs.RateLimited, "Too many requests, please try again later."))
			return
		}
		c.Next()
	}
}
