package service

import (
	"strings"

	"story4u-backend/errs"
	"story4u-backend/models"
	"story4u-backend/sanitize"
)

// ErrNotOwner 调用者既不是所有者也不是超级管理员
var ErrNotOwner = errs.New(errs.Forbidden, "You are not allowed to modify this item")

// CanMutate 超级管理员或所有者本人可以修改内容
func CanMutate(caller *models.User, ownerEmail string) bool {
	if caller == nil {
		return false
	}
	if caller.Role == models.RoleSuperAdmin {
		return true
	}
	return ownerEmail != "" && strings.EqualFold(caller.Email, ownerEmail)
}

func requireOwner(caller *models.User, ownerEmail string) error {
	if !CanMutate(caller, ownerEmail) {
		return ErrNotOwner
	}
	return nil
}

// fieldValidator 收集逐条校验失败原因
type fieldValidator struct {
	details []string
}

func (v *fieldValidator) text(field string, s *string) {
	if s == nil {
		return
	}
	if err := sanitize.ValidateText(field, *s); err != nil {
		v.details = append(v.details, err.Error())
	}
}

func (v *fieldValidator) rich(s *string) {
	if s == nil {
		return
	}
	if err := sanitize.ValidateHTML(*s); err != nil {
		v.details = append(v.details, sanitize.Messages(err)...)
	}
}

func (v *fieldValidator) require(ok bool, msg string) {
	if !ok {
		v.details = append(v.details, msg)
	}
}

func (v *fieldValidator) err(op string) error {
	if len(v.details) == 0 {
		return nil
	}
	return errs.New(errs.InvalidRequest, "Validation failed", errs.WithOp(op), errs.WithDetails(v.details...))
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
