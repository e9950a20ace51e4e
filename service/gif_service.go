package service

import (
	"context"

	"story4u-backend/models"
	"story4u-backend/repository"
	"story4u-backend/sanitize"
)

// GifInput 新建或更新gif的输入，ID非零表示更新，nil字段不修改
type GifInput struct {
	ID        uint
	Name      *string
	Content   *string
	OuterFile *string
	Audio     *string
}

// GifService gif业务逻辑
type GifService struct {
	repo *repository.GifRepository
}

// NewGifService 创建gif服务
func NewGifService(repo *repository.GifRepository) *GifService {
	return &GifService{repo: repo}
}

// Save 新建或更新gif，返回结果以及是否为新建
func (s *GifService) Save(ctx context.Context, caller *models.User, in GifInput) (*models.Gif, bool, error) {
	v := &fieldValidator{}
	v.text("name", in.Name)
	v.text("outer_file", in.OuterFile)
	v.text("audio", in.Audio)
	v.rich(in.Content)
	if in.ID == 0 {
		v.require(present(in.Name), "name is required.")
	}
	if err := v.err("gif.save"); err != nil {
		return nil, false, err
	}

	if in.ID != 0 {
		gif, err := s.update(ctx, caller, in)
		return gif, false, err
	}

	gif := &models.Gif{
		Name:      sanitize.SanitizeText(*in.Name),
		UserEmail: caller.Email,
		Role:      caller.Role,
	}
	if in.Content != nil {
		gif.Content = sanitize.SanitizeHTML(*in.Content)
	}
	if in.OuterFile != nil {
		gif.OuterFile = sanitize.SanitizeText(*in.OuterFile)
	}
	if in.Audio != nil {
		gif.Audio = sanitize.SanitizeText(*in.Audio)
	}
	if err := s.repo.Create(ctx, gif); err != nil {
		return nil, false, err
	}
	return gif, true, nil
}

func (s *GifService) update(ctx context.Context, caller *models.User, in GifInput) (*models.Gif, error) {
	existing, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(caller, existing.UserEmail); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if present(in.Name) {
		fields["name"] = sanitize.SanitizeText(*in.Name)
	}
	if in.Content != nil {
		fields["content"] = sanitize.SanitizeHTML(*in.Content)
	}
	if in.OuterFile != nil {
		fields["outer_file"] = sanitize.SanitizeText(*in.OuterFile)
	}
	if in.Audio != nil {
		fields["audio"] = sanitize.SanitizeText(*in.Audio)
	}
	if len(fields) == 0 {
		return existing, nil
	}

	if err := s.repo.UpdateOwned(ctx, in.ID, existing.UserEmail, fields); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, in.ID)
}

// List 按创建时间倒序列出gif，owner为空时返回全部
func (s *GifService) List(ctx context.Context, owner string) ([]models.Gif, error) {
	return s.repo.List(ctx, owner)
}

// Get 获取单个gif
func (s *GifService) Get(ctx context.Context, id uint) (*models.Gif, error) {
	return s.repo.FindByID(ctx, id)
}

// Delete 硬删除gif，调用方需已通过超级管理员校验
func (s *GifService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
