package repository

import (
	"errors"

	"github.com/lamngo/formflow/internal/apperr"
	"github.com/lamngo/formflow/internal/model"
	"gorm.io/gorm"
)

type QuestionnaireRepository interface {
	Create(questionnaire *model.Questionnaire) error
	FindByID(id uint) (*model.Questionnaire, error)
	FindByIDWithQuestions(id uint) (*model.Questionnaire, error)
}

type questionnaireRepository struct {
	db *gorm.DB
}

func NewQuestionnaireRepository(db *gorm.DB) QuestionnaireRepository {
	return &questionnaireRepository{db: db}
}

func (r *questionnaireRepository) Create(questionnaire *model.Questionnaire) error {
	// Nested create persists sections and their questions in one go. The
	// questionnaire_id on questions is denormalized for catalog reads and
	// backfilled inside the same transaction.
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(questionnaire).Error; err != nil {
			return err
		}
		sectionIDs := make([]uint, 0, len(questionnaire.Sections))
		for i := range questionnaire.Sections {
			sectionIDs = append(sectionIDs, questionnaire.Sections[i].ID)
			for j := range questionnaire.Sections[i].Questions {
				questionnaire.Sections[i].Questions[j].QuestionnaireID = questionnaire.ID
			}
		}
		if len(sectionIDs) == 0 {
			return nil
		}
		return tx.Model(&model.Question{}).
			Where("section_id IN ?", sectionIDs).
			Update("questionnaire_id", questionnaire.ID).Error
	})
}

func (r *questionnaireRepository) FindByID(id uint) (*model.Questionnaire, error) {
	var questionnaire model.Questionnaire
	if err := r.db.First(&questionnaire, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &questionnaire, nil
}

func (r *questionnaireRepository) FindByIDWithQuestions(id uint) (*model.Questionnaire, error) {
	var questionnaire model.Questionnaire
	err := r.db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.section_order ASC")
		}).
		Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_in_section ASC")
		}).
		First(&questionnaire, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &questionnaire, nil
}
