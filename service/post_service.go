package service

import (
	"context"

	"story4u-backend/models"
	"story4u-backend/repository"
	"story4u-backend/sanitize"
)

// PostInput 新建或更新satsang的输入，ID非零表示更新
type PostInput struct {
	ID          uint
	Name        *string
	Description *string
	Category    *int
}

// PostService satsang业务逻辑
type PostService struct {
	repo *repository.PostRepository
}

// NewPostService 创建post服务
func NewPostService(repo *repository.PostRepository) *PostService {
	return &PostService{repo: repo}
}

// Save 新建或更新post，返回结果以及是否为新建
func (s *PostService) Save(ctx context.Context, caller *models.User, in PostInput) (*models.Post, bool, error) {
	v := &fieldValidator{}
	v.text("name", in.Name)
	v.rich(in.Description)
	if in.ID == 0 {
		v.require(present(in.Name), "name is required.")
	}
	if err := v.err("post.save"); err != nil {
		return nil, false, err
	}

	if in.ID != 0 {
		post, err := s.update(ctx, caller, in)
		return post, false, err
	}

	post := &models.Post{
		Name:      sanitize.SanitizeText(*in.Name),
		UserEmail: caller.Email,
		Role:      caller.Role,
	}
	if in.Description != nil {
		post.Description = sanitize.SanitizeHTML(*in.Description)
	}
	if in.Category != nil {
		post.Category = *in.Category
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, false, err
	}
	return post, true, nil
}

func (s *PostService) update(ctx context.Context, caller *models.User, in PostInput) (*models.Post, error) {
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
	if in.Description != nil {
		fields["description"] = sanitize.SanitizeHTML(*in.Description)
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if len(fields) == 0 {
		return existing, nil
	}

	if err := s.repo.UpdateOwned(ctx, in.ID, existing.UserEmail, fields); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, in.ID)
}

// List 列出未归档的post
func (s *PostService) List(ctx context.Context, category *int) ([]models.Post, error) {
	return s.repo.List(ctx, category)
}

// Get 获取未归档的post
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.repo.FindByID(ctx, id)
}

// ListArchived 超级管理员可以看到全部已归档post，其他人只能看到自己的
func (s *PostService) ListArchived(ctx context.Context, caller *models.User) ([]models.Post, error) {
	owner := caller.Email
	if caller.Role == models.RoleSuperAdmin {
		owner = ""
	}
	return s.repo.ListArchived(ctx, owner)
}

// Archive 软删除post
func (s *PostService) Archive(ctx context.Context, caller *models.User, id uint) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, existing.UserEmail); err != nil {
		return err
	}
	return s.repo.Archive(ctx, id, existing.UserEmail)
}

// Restore 撤销归档
func (s *PostService) Restore(ctx context.Context, caller *models.User, id uint) (*models.Post, error) {
	existing, err := s.repo.FindArchivedByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(caller, existing.UserEmail); err != nil {
		return nil, err
	}
	if err := s.repo.Restore(ctx, id, existing.UserEmail); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete 硬删除post，调用方需已通过超级管理员校验
func (s *PostService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
