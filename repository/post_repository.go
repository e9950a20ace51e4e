package repository

import (
	"context"

	"story4u-backend/models"

	"gorm.io/gorm"
)

// PostRepository satsang数据访问，归档使用软删除
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository 创建post仓库
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create 新建post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return translate("post.create", "", r.db.WithContext(ctx).Create(post).Error)
}

// FindByID 获取未归档的post
func (r *PostRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate("post.findByID", "Post not found", err)
	}
	return &post, nil
}

// FindArchivedByID 获取已归档的post
func (r *PostRepository) FindArchivedByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL").
		First(&post, id).Error
	if err != nil {
		return nil, translate("post.findArchivedByID", "Archived post not found", err)
	}
	return &post, nil
}

// UpdateOwned 以 id+所有者 为条件部分更新
func (r *PostRepository) UpdateOwned(ctx context.Context, id uint, owner string, fields map[string]interface{}) error {
	err := updateOwned(r.db.WithContext(ctx), &models.Post{}, id, owner, fields)
	return translate("post.update", "Post not found", err)
}

// List 列出未归档的post，category非nil时按分类过滤
func (r *PostRepository) List(ctx context.Context, category *int) ([]models.Post, error) {
	var posts []models.Post
	q := r.db.WithContext(ctx).Order("created_at desc, id desc")
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	err := q.Find(&posts).Error
	return posts, translate("post.list", "", err)
}

// ListArchived 列出已归档的post，owner非空时只返回该用户的
func (r *PostRepository) ListArchived(ctx context.Context, owner string) ([]models.Post, error) {
	var posts []models.Post
	q := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at desc, id desc")
	if owner != "" {
		q = q.Where("user_email = ?", owner)
	}
	err := q.Find(&posts).Error
	return posts, translate("post.listArchived", "", err)
}

// Archive 以 id+所有者 为条件软删除
func (r *PostRepository) Archive(ctx context.Context, id uint, owner string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_email = ?", id, owner).
		Delete(&models.Post{})
	if res.Error != nil {
		return translate("post.archive", "Post not found", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoMatch
	}
	return nil
}

// Restore 以 id+所有者 为条件撤销软删除
func (r *PostRepository) Restore(ctx context.Context, id uint, owner string) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&models.Post{}).
		Where("id = ? AND user_email = ? AND deleted_at IS NOT NULL", id, owner).
		Update("deleted_at", nil)
	if res.Error != nil {
		return translate("post.restore", "Post not found", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoMatch
	}
	return nil
}

// Delete 硬删除post（含已归档的）
func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Unscoped().Delete(&models.Post{}, id)
	if res.Error != nil {
		return translate("post.delete", "Post not found", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoMatch
	}
	return nil
}
