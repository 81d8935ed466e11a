package repository

import (
	"context"
	"fmt"

	"github.com/lamngo/formflow/internal/cache"
	"github.com/lamngo/formflow/internal/model"
	"gorm.io/gorm"
)

// QuestionRepository is the question catalog: the read-only view the
// response engine uses to resolve types, options, correct-answer metadata
// and required flags. Catalog reads are hot on every finalize, so the
// per-questionnaire question list is cached best-effort in Redis.
type QuestionRepository interface {
	FindByID(id uint) (*model.Question, error)
	FindByQuestionnaireID(ctx context.Context, questionnaireID uint) ([]model.Question, error)
	InvalidateCatalog(ctx context.Context, questionnaireID uint)
}

type questionRepository struct {
	db    *gorm.DB
	cache *cache.CatalogCache
}

func NewQuestionRepository(db *gorm.DB, catalogCache *cache.CatalogCache) QuestionRepository {
	return &questionRepository{db: db, cache: catalogCache}
}

func catalogKey(questionnaireID uint) string {
	return fmt.Sprintf("catalog:questionnaire:%d", questionnaireID)
}

func (r *questionRepository) FindByID(id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindByQuestionnaireID(ctx context.Context, questionnaireID uint) ([]model.Question, error) {
	key := catalogKey(questionnaireID)

	var questions []model.Question
	if r.cache.Get(ctx, key, &questions) {
		return questions, nil
	}

	err := r.db.WithContext(ctx).
		Where("questionnaire_id = ?", questionnaireID).
		Order("section_id ASC, order_in_section ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, key, questions)
	return questions, nil
}

func (r *questionRepository) InvalidateCatalog(ctx context.Context, questionnaireID uint) {
	r.cache.Invalidate(ctx, catalogKey(questionnaireID))
}
