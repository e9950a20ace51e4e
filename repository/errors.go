package repository

import (
	"errors"

	"story4u-backend/errs"

	"gorm.io/gorm"
)

// ErrNoMatch 条件更新没有命中任何记录（记录已被删除或所有者已变化）
var ErrNoMatch = errs.New(errs.NotFound, "No matching record found")

// translate 将GORM错误转换为业务错误分类
func translate(op, notFoundMsg string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.New(errs.NotFound, notFoundMsg, errs.WithOp(op), errs.WithErr(err))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.New(errs.Conflict, "Duplicate value", errs.WithOp(op), errs.WithErr(err))
	default:
		var e *errs.Error
		if errors.As(err, &e) {
			return err
		}
		return errs.New(errs.Internal, "database error", errs.WithOp(op), errs.WithErr(err))
	}
}

// updateOwned 仅当 id 与所有者同时匹配时才应用部分更新
func updateOwned(tx *gorm.DB, model interface{}, id uint, owner string, fields map[string]interface{}) error {
	res := tx.Model(model).
		Where("id = ? AND user_email = ?", id, owner).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoMatch
	}
	return nil
}
