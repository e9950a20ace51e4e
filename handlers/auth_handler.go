package handlers

import (
	"net/http"

	"story4u-backend/service"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"omitempty,role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type roleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

func (r registerRequest) input() service.RegisterInput {
	return service.RegisterInput{Name: r.Name, Email: r.Email, Password: r.Password, Role: r.Role}
}

// Bootstrap 创建第一个超级管理员
func (a *API) Bootstrap(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, a.log, err)
		return
	}
	user, token, err := a.users.Bootstrap(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{
		Status:    true,
		Message:   "Superadmin created",
		Auth:      true,
		Token:     &token,
		LoginUser: user.Email,
		Role:      user.Role.String(),
		Data:      user,
	})
}

// Register 超级管理员创建账号
func (a *API) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, a.log, err)
		return
	}
	user, token, err := a.users.Register(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{
		Status:  true,
		Message: "User registered",
		Auth:    true,
		Token:   &token,
		Role:    user.Role.String(),
		Data:    user,
	})
}

// Login 校验邮箱密码并签发令牌
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, a.log, err)
		return
	}
	user, token, err := a.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{
		Status:    true,
		Message:   "Login successful",
		Auth:      true,
		Token:     &token,
		LoginUser: user.Email,
		Role:      user.Role.String(),
	})
}

// Logout 令牌无状态，由客户端丢弃
func (a *API) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, AuthResponse{Status: true, Message: "Logged out", Auth: false, Token: nil})
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	user, err := a.currentUser(c)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Current user", user)
}

// ListUsers 列出全部账号
func (a *API) ListUsers(c *gin.Context) {
	users, err := a.users.List(c.Request.Context())
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Users", users)
}

// UpdateRole 修改其他用户的角色
func (a *API) UpdateRole(c *gin.Context) {
	target, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	var req roleRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, a.log, err)
		return
	}
	caller, err := a.currentUser(c)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	user, err := a.users.UpdateRole(c.Request.Context(), caller, target, req.Role)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Role updated", user)
}
