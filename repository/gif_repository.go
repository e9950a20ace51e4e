package repository

import (
	"context"

	"story4u-backend/models"

	"gorm.io/gorm"
)

// GifRepository gif数据访问
type GifRepository struct {
	db *gorm.DB
}

// NewGifRepository 创建gif仓库
func NewGifRepository(db *gorm.DB) *GifRepository {
	return &GifRepository{db: db}
}

// Create 新建gif
func (r *GifRepository) Create(ctx context.Context, gif *models.Gif) error {
	return translate("gif.create", "", r.db.WithContext(ctx).Create(gif).Error)
}

// FindByID 根据ID获取gif
func (r *GifRepository) FindByID(ctx context.Context, id uint) (*models.Gif, error) {
	var gif models.Gif
	if err := r.db.WithContext(ctx).First(&gif, id).Error; err != nil {
		return nil, translate("gif.findByID", "Gif not found", err)
	}
	return &gif, nil
}

// UpdateOwned 以 id+所有者 为条件部分更新
func (r *GifRepository) UpdateOwned(ctx context.Context, id uint, owner string, fields map[string]interface{}) error {
	err := updateOwned(r.db.WithContext(ctx), &models.Gif{}, id, owner, fields)
	return translate("gif.update", "Gif not found", err)
}

// List 按创建时间倒序列出，owner非空时按所有者过滤
func (r *GifRepository) List(ctx context.Context, owner string) ([]models.Gif, error) {
	var gifs []models.Gif
	q := r.db.WithContext(ctx).Order("created_at desc, id desc")
	if owner != "" {
		q = q.Where("user_email = ?", owner)
	}
	err := q.Find(&gifs).Error
	return gifs, translate("gif.list", "", err)
}

// Delete 硬删除gif
func (r *GifRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Gif{}, id)
	if res.Error != nil {
		return translate("gif.delete", "Gif not found", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoMatch
	}
	return nil
}
