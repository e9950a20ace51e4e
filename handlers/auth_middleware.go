package handlers

import (
	"story4u-backend/auth"
	"story4u-backend/errs"
	"story4u-backend/models"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxUser   = "user"
)

// RequireAuth 校验令牌并把用户ID写入上下文
func (a *API) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := a.tokens.Verify(auth.ExtractToken(c.Request))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.Set(ctxUserID, id)
		c.Next()
	}
}

// OptionalAuth 令牌有效时写入用户ID，无效或缺失时按匿名处理
func (a *API) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := auth.ExtractToken(c.Request); token != "" {
			if id, err := a.tokens.Verify(token); err == nil {
				c.Set(ctxUserID, id)
			}
		}
		c.Next()
	}
}

// RequireRole 重新读取当前用户的角色并要求不低于min
func (a *API) RequireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.currentUser(c)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		if !user.Role.AtLeast(min) {
			respondError(c, a.log, errs.New(errs.Forbidden, "Require "+min.String()+" role"))
			return
		}
		c.Next()
	}
}

// RejectSelfTarget 路径参数指向调用者本人时拒绝请求
func (a *API) RejectSelfTarget(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := paramID(c, param)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		if id, ok := userID(c); ok && id == target {
			respondError(c, a.log, errs.New(errs.InvalidRequest, "You cannot change your own role"))
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// currentUser 按ID读取用户，同一请求内只查询一次
func (a *API) currentUser(c *gin.Context) (*models.User, error) {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(*models.User); ok {
			return u, nil
		}
	}
	id, ok := userID(c)
	if !ok {
		return nil, errs.New(errs.Unauthenticated, "No token provided")
	}
	user, err := a.users.Get(c.Request.Context(), id)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.New(errs.NotFound, "User not found", errs.WithErr(err))
		}
		return nil, err
	}
	c.Set(ctxUser, user)
	return user, nil
}
