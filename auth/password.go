package auth

import (
	"story4u-backend/errs"

	"golang.org/x/crypto/bcrypt"
)

// 用于未知邮箱的比较，使响应耗时与邮箱是否存在无关
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("story4u-timing-equalizer"), bcrypt.DefaultCost)

// HashPassword 生成bcrypt哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errs.New(errs.InvalidRequest, "Invalid password", errs.WithOp("auth.hash"), errs.WithErr(err))
	}
	return string(hash), nil
}

// CheckPassword 比较密码与哈希。hash为空时与固定的假哈希比较并总是返回false。
func CheckPassword(hash, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
