package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"story4u-backend/errs"
	"story4u-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorsOnce sync.Once

// registerValidators 在gin的校验引擎上注册 role 标签，并让错误使用json字段名
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			_, err := models.ParseRole(fl.Field().String())
			return err == nil
		})
	})
}

// bindJSON 解析并校验请求体。标签校验失败时逐字段返回原因。
func bindJSON(c *gin.Context, req interface{}) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequest("Invalid request body")
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = appendDetail(details, fieldMessage(fe))
	}
	return errs.New(errs.InvalidRequest, "Validation failed", errs.WithOp("request.bind"), errs.WithDetails(details...))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	if strings.Contains(fe.Namespace(), "choices[") {
		field = "choice " + field
	}
	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required."
	case "email":
		return "a valid email is required."
	case "role":
		return field + " must be one of user, admin, superadmin."
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be at least %s characters.", field, fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("a survey needs at least %s %s.", fe.Param(), field)
		}
		if fe.Param() == "0" {
			return field + " must not be negative."
		}
		return fmt.Sprintf("%s must be at least %s.", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s is too long.", field)
	}
	return field + " is invalid."
}

func appendDetail(details []string, msg string) []string {
	for _, d := range details {
		if d == msg {
			return details
		}
	}
	return append(details, msg)
}
