package service

import (
	"context"
	"strings"

	"story4u-backend/errs"
	"story4u-backend/models"
	"story4u-backend/repository"
	"story4u-backend/sanitize"
)

// ChoiceInput 问卷选项
type ChoiceInput struct {
	Key   string
	Label string
}

// SurveyInput 新建或更新问卷的输入。更新时只能修改标题，选项在创建后不可变。
type SurveyInput struct {
	ID      uint
	Title   *string
	Choices []ChoiceInput
}

// SurveyService 问卷业务逻辑
type SurveyService struct {
	repo *repository.SurveyRepository
}

// NewSurveyService 创建问卷服务
func NewSurveyService(repo *repository.SurveyRepository) *SurveyService {
	return &SurveyService{repo: repo}
}

// Save 新建或更新问卷，返回结果以及是否为新建
func (s *SurveyService) Save(ctx context.Context, caller *models.User, in SurveyInput) (*models.Survey, bool, error) {
	v := &fieldValidator{}
	v.text("title", in.Title)
	v.require(present(in.Title), "title is required.")

	if in.ID != 0 {
		if err := v.err("survey.save"); err != nil {
			return nil, false, err
		}
		existing, err := s.repo.FindByID(ctx, in.ID)
		if err != nil {
			return nil, false, err
		}
		if err := requireOwner(caller, existing.UserEmail); err != nil {
			return nil, false, err
		}
		if err := s.repo.UpdateTitleOwned(ctx, in.ID, existing.UserEmail, sanitize.SanitizeText(*in.Title)); err != nil {
			return nil, false, err
		}
		survey, err := s.repo.FindByID(ctx, in.ID)
		return survey, false, err
	}

	v.require(len(in.Choices) >= 2, "a survey needs at least two choices.")
	seen := make(map[string]bool, len(in.Choices))
	for _, c := range in.Choices {
		key := strings.TrimSpace(c.Key)
		label := c.Label
		v.text("choice key", &key)
		v.text("choice label", &label)
		if seen[key] {
			v.require(false, "choice key \""+key+"\" is duplicated.")
		}
		seen[key] = true
	}
	if err := v.err("survey.save"); err != nil {
		return nil, false, err
	}

	survey := &models.Survey{
		Title:     sanitize.SanitizeText(*in.Title),
		UserEmail: caller.Email,
		Role:      caller.Role,
	}
	for _, c := range in.Choices {
		survey.Choices = append(survey.Choices, models.SurveyChoice{
			Key:   strings.TrimSpace(c.Key),
			Label: sanitize.SanitizeText(c.Label),
		})
	}
	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, false, err
	}
	return survey, true, nil
}

// Vote 为问卷的某个选项投一票，每次调用计一票
func (s *SurveyService) Vote(ctx context.Context, id uint, key string) (*models.Survey, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errs.New(errs.InvalidRequest, "choice key is required", errs.WithOp("survey.vote"))
	}
	return s.repo.Vote(ctx, id, key)
}

// List 列出问卷标题
func (s *SurveyService) List(ctx context.Context) ([]models.Survey, error) {
	return s.repo.List(ctx)
}

// Get 获取问卷及选项
func (s *SurveyService) Get(ctx context.Context, id uint) (*models.Survey, error) {
	return s.repo.FindByID(ctx, id)
}

// Delete 删除问卷，调用方需已通过超级管理员校验
func (s *SurveyService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
