package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role 是用户角色，取值封闭，按 user < admin < superadmin 排序
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

var roleRank = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// ParseRole 不区分大小写地解析角色，旧数据中的 "superAdmin" 也归一为 superadmin
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid 角色是否合法
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank 返回角色的序号，非法角色为0
func (r Role) Rank() int {
	return roleRank[r]
}

// AtLeast 角色是否满足最低要求
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

func (r Role) String() string {
	return string(r)
}

// Value 实现driver.Valuer
func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

// Scan 实现sql.Scanner，读取时归一化大小写
func (r *Role) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*r = ""
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		*r = Role(s)
		return nil
	}
	*r = parsed
	return nil
}
