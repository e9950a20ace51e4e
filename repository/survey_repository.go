package repository

import (
	"context"
	"errors"

	"story4u-backend/errs"
	"story4u-backend/models"

	"gorm.io/gorm"
)

// ErrInvalidChoice 投票的选项键不属于该问卷
var ErrInvalidChoice = errs.New(errs.InvalidRequest, "Invalid choice key")

// SurveyRepository 问卷数据访问
type SurveyRepository struct {
	db *gorm.DB
}

// NewSurveyRepository 创建问卷仓库
func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// Create 在同一事务中创建问卷及其选项
func (r *SurveyRepository) Create(ctx context.Context, survey *models.Survey) error {
	return translate("survey.create", "", r.db.WithContext(ctx).Create(survey).Error)
}

// FindByID 获取问卷及其选项
func (r *SurveyRepository) FindByID(ctx context.Context, id uint) (*models.Survey, error) {
	var survey models.Survey
	err := r.db.WithContext(ctx).
		Preload("Choices", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&survey, id).Error
	if err != nil {
		return nil, translate("survey.findByID", "Survey not found", err)
	}
	return &survey, nil
}

// List 按创建时间倒序列出问卷标题
func (r *SurveyRepository) List(ctx context.Context) ([]models.Survey, error) {
	var surveys []models.Survey
	err := r.db.WithContext(ctx).
		Select("id", "title", "total_votes", "user_email", "role", "created_at", "updated_at").
		Order("created_at desc, id desc").
		Find(&surveys).Error
	return surveys, translate("survey.list", "", err)
}

// UpdateTitleOwned 以 id+所有者 为条件更新标题
func (r *SurveyRepository) UpdateTitleOwned(ctx context.Context, id uint, owner, title string) error {
	err := updateOwned(r.db.WithContext(ctx), &models.Survey{}, id, owner, map[string]interface{}{"title": title})
	return translate("survey.update", "Survey not found", err)
}

// Delete 删除问卷及其选项
func (r *SurveyRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("survey_id = ?", id).Delete(&models.SurveyChoice{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Survey{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoMatch
		}
		return nil
	})
	return translate("survey.delete", "Survey not found", err)
}

// Vote 在一个事务中原子地为选项和问卷总数各加一
func (r *SurveyRepository) Vote(ctx context.Context, surveyID uint, key string) (*models.Survey, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var survey models.Survey
		if err := tx.Select("id").First(&survey, surveyID).Error; err != nil {
			return err
		}

		// 原子增加选项计数
		res := tx.Model(&models.SurveyChoice{}).
			Where("survey_id = ? AND choice_key = ?", surveyID, key).
			UpdateColumn("votes", gorm.Expr("votes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidChoice
		}

		return tx.Model(&models.Survey{}).
			Where("id = ?", surveyID).
			UpdateColumn("total_votes", gorm.Expr("total_votes + ?", 1)).Error
	})
	if err != nil {
		if errors.Is(err, ErrInvalidChoice) {
			return nil, err
		}
		return nil, translate("survey.vote", "Survey not found", err)
	}
	return r.FindByID(ctx, surveyID)
}
