package repository

import (
	"context"
	"strings"

	"story4u-backend/models"

	"gorm.io/gorm"
)

// UserRepository 用户凭证数据访问
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户，Email 以小写存储，重复时返回Conflict
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return translate("user.create", "User not found", r.db.WithContext(ctx).Create(user).Error)
}

// FindByID 根据ID获取用户
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate("user.findByID", "User not found", err)
	}
	return &user, nil
}

// FindByEmail 根据Email获取用户（不区分大小写）
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, translate("user.findByEmail", "User not found", err)
	}
	return &user, nil
}

// CountByRole 统计某个角色的用户数量，旧数据中大小写不同的角色也计入
func (r *UserRepository) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(role) = ?", strings.ToLower(role.String())).
		Count(&count).Error
	return count, translate("user.countByRole", "", err)
}

// UpdateRole 修改用户角色
func (r *UserRepository) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return translate("user.updateRole", "User not found", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoMatch
	}
	return nil
}

// List 按创建时间倒序列出所有用户
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("created_at desc, id desc").Find(&users).Error
	return users, translate("user.list", "", err)
}
