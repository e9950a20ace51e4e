// Package auth 负责签发与校验身份令牌以及密码哈希。
package auth

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"story4u-backend/errs"

	"github.com/golang-jwt/jwt/v5"
)

// TokenHeader 自定义令牌头，优先于 Authorization
const TokenHeader = "x-access-token"

// TokenTTL 令牌有效期固定为24小时
const TokenTTL = 24 * time.Hour

// Claims 只携带用户ID（Subject），角色总是在请求时重新解析
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService 签发和校验HS256令牌
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService 创建令牌服务
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

// WithClock 替换时钟，用于测试过期
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue 为用户签发令牌
func (s *TokenService) Issue(userID uint) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errs.New(errs.Internal, "failed to sign token", errs.WithOp("auth.issue"), errs.WithErr(err))
	}
	return signed, nil
}

// Verify 校验令牌并返回用户ID
func (s *TokenService) Verify(tokenStr string) (uint, error) {
	if tokenStr == "" {
		return 0, errs.New(errs.Unauthenticated, "No token provided")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, errs.New(errs.Unauthenticated, "Failed to authenticate token", errs.WithOp("auth.verify"), errs.WithErr(err))
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errs.New(errs.Unauthenticated, "Failed to authenticate token", errs.WithOp("auth.verify"))
	}
	return uint(id), nil
}

// ExtractToken 从请求头读取令牌：x-access-token 优先，其次 Authorization: Bearer
func ExtractToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(TokenHeader)); t != "" {
		return t
	}
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
