package repository

import (
	"time"

	"github.com/lamngo/formflow/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	// UpsertAll writes one row per (response, question) in a single
	// transaction. An existing row for the same key is overwritten,
	// never duplicated. Returns the number of entries written.
	UpsertAll(responseID uint, values map[uint]model.AnswerValue) (int, error)
	FindAllByResponseID(responseID uint) ([]model.Answer, error)
	CountDistinct(responseID uint) (int64, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) UpsertAll(responseID uint, values map[uint]model.AnswerValue) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}

	written := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for questionID, value := range values {
			answer := model.Answer{
				ResponseID: responseID,
				QuestionID: questionID,
				UpdatedAt:  now,
			}
			answer.SetValue(value)

			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "response_id"}, {Name: "question_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"value", "value_array", "time_spent", "updated_at",
				}),
			}).Create(&answer).Error
			if err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (r *answerRepository) FindAllByResponseID(responseID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.
		Where("response_id = ?", responseID).
		Order("question_id ASC").
		Find(&answers).Error
	return answers, err
}

func (r *answerRepository) CountDistinct(responseID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Answer{}).
		Where("response_id = ?", responseID).
		Distinct("question_id").
		Count(&count).Error
	return count, err
}
