package repository

import (
	"errors"

	"github.com/lamngo/formflow/internal/apperr"
	"github.com/lamngo/formflow/internal/model"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(activity *model.Activity) error
	Update(activity *model.Activity) error
	FindByID(id uint) (*model.Activity, error)
	FindByIDWithQuestionnaire(id uint) (*model.Activity, error)
	FindAllActive() ([]model.Activity, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(activity *model.Activity) error {
	return r.db.Create(activity).Error
}

func (r *activityRepository) Update(activity *model.Activity) error {
	return r.db.Save(activity).Error
}

func (r *activityRepository) FindByID(id uint) (*model.Activity, error) {
	var activity model.Activity
	if err := r.db.First(&activity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) FindByIDWithQuestionnaire(id uint) (*model.Activity, error) {
	var activity model.Activity
	err := r.db.
		Preload("Questionnaire.Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.section_order ASC")
		}).
		Preload("Questionnaire.Sections.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_in_section ASC")
		}).
		First(&activity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) FindAllActive() ([]model.Activity, error) {
	var activities []model.Activity
	if err := r.db.Where("active = ?", true).Order("created_at DESC").Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}
