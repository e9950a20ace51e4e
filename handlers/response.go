package handlers

import (
	"net/http"
	"strconv"

	"story4u-backend/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 所有接口统一的响应结构
type Response struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// AuthResponse 登录相关接口的响应，附带令牌
type AuthResponse struct {
	Status    bool        `json:"status"`
	Message   string      `json:"message"`
	Auth      bool        `json:"auth"`
	Token     *string     `json:"token"`
	LoginUser string      `json:"loginUser,omitempty"`
	Role      string      `json:"role,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, Response{Status: true, Message: msg, Data: data})
}

// respondError 在处理器边界把错误转换为状态码和响应体
func respondError(c *gin.Context, log *zap.Logger, err error) {
	code := errs.CodeOf(err)
	if code == errs.Internal {
		log.Error("请求处理失败",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(errs.HTTPStatus(code), Response{
		Status:  false,
		Message: errs.MessageOf(err),
		Errors:  errs.DetailsOf(err),
	})
}

func badRequest(msg string) error {
	return errs.New(errs.InvalidRequest, msg)
}

// paramID 解析路径中的正整数ID
func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("Invalid " + name)
	}
	return uint(id), nil
}

func created(isNew bool) int {
	if isNew {
		return http.StatusCreated
	}
	return http.StatusOK
}
