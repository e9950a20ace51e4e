// Package errs 定义服务统一的错误分类，所有失败在处理器边界转换为结构化响应。
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code 错误分类码
type Code string

const (
	Unauthenticated Code = "unauthenticated"
	Forbidden       Code = "forbidden"
	NotFound        Code = "not found"
	InvalidRequest  Code = "invalid"
	RateLimited     Code = "too many requests"
	Conflict        Code = "conflict"
	Internal        Code = "internal error"
)

// Error 是业务层使用的错误类型。
//
// Code 决定HTTP状态码，Msg 面向调用方，Op 和 Err 组成逻辑调用链便于排查，
// Details 携带逐条的校验失败原因。
type Error struct {
	Code    Code
	Msg     string
	Op      string
	Err     error
	Details []string
}

// Option 设置Error的可选字段
type Option func(*Error)

// WithOp 设置出错的操作名
func WithOp(op string) Option {
	return func(e *Error) {
		e.Op = op
	}
}

// WithErr 设置被包装的底层错误
func WithErr(err error) Option {
	return func(e *Error) {
		e.Err = err
	}
}

// WithDetails 设置逐条错误原因
func WithDetails(details ...string) Option {
	return func(e *Error) {
		e.Details = append(e.Details, details...)
	}
}

// New 创建一个带分类码的错误
func New(code Code, msg string, opts ...Option) *Error {
	e := &Error{Code: code, Msg: msg}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Error 实现error接口
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(fmt.Sprintf("<%s>", e.Code))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf 返回错误链上第一个带分类码的Error的分类码；非业务错误一律视为Internal。
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	for errors.As(err, &e) {
		if e.Code != "" {
			return e.Code
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}
	return Internal
}

// MessageOf 返回可以展示给调用方的消息。Internal错误不暴露细节。
func MessageOf(err error) string {
	var e *Error
	if !errors.As(err, &e) || CodeOf(err) == Internal {
		return "An internal error has occurred"
	}
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Code)
}

// DetailsOf 返回错误链上的逐条原因
func DetailsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// Is 判断err是否属于给定分类
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

var statusCodes = map[Code]int{
	Unauthenticated: http.StatusUnauthorized,
	Forbidden:       http.StatusForbidden,
	NotFound:        http.StatusNotFound,
	InvalidRequest:  http.StatusBadRequest,
	RateLimited:     http.StatusTooManyRequests,
	Conflict:        http.StatusConflict,
	Internal:        http.StatusInternalServerError,
}

// HTTPStatus 将分类码映射为HTTP状态码
func HTTPStatus(code Code) int {
	if s, ok := statusCodes[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
