package repository

import (
	"errors"
	"time"

	"github.com/lamngo/formflow/internal/apperr"
	"github.com/lamngo/formflow/internal/model"
	"gorm.io/gorm"
)

// ParticipantKey identifies who is answering: a registered participant or
// a guest. Exactly one side is set.
type ParticipantKey struct {
	ParticipantID   *uint
	GuestIdentifier *string
}

// SubmitFields carries the values MarkSubmitted writes during the atomic
// in_progress -> submitted transition.
type SubmitFields struct {
	SubmittedAt         time.Time
	CompletedAt         time.Time
	AnsweredQuestions   int
	CompletionPct       float64
	Score               *float64
	AssessmentResult    *string
	CorrectAnswersCount int
	AutoSubmitted       bool
	TimeExpiredAt       *time.Time
}

type ResponseRepository interface {
	Create(response *model.Response) error
	Update(response *model.Response) error
	FindByID(id uint) (*model.Response, error)
	FindByIDWithAnswers(id uint) (*model.Response, error)
	FindSubmitted(activityID uint, key ParticipantKey) (*model.Response, error)
	FindInProgress(activityID uint, key ParticipantKey, isPreview bool) (*model.Response, error)
	FindPreview(activityID uint, key ParticipantKey) (*model.Response, error)
	FindAllByActivity(activityID uint) ([]model.Response, error)
	// MarkSubmitted performs the conditional transition: it updates the row
	// only while status is still in_progress and reports whether this call
	// won the transition. The loser of a concurrent finalize observes false
	// with no error and reloads the already-submitted row.
	MarkSubmitted(responseID uint, fields SubmitFields) (bool, error)
}

type responseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) Create(response *model.Response) error {
	return r.db.Create(response).Error
}

func (r *responseRepository) Update(response *model.Response) error {
	return r.db.Save(response).Error
}

func (r *responseRepository) FindByID(id uint) (*model.Response, error) {
	var response model.Response
	if err := r.db.First(&response, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) FindByIDWithAnswers(id uint) (*model.Response, error) {
	var response model.Response
	err := r.db.
		Preload("Activity").
		Preload("Answers").
		First(&response, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &response, nil
}

func scopeKey(query *gorm.DB, key ParticipantKey) *gorm.DB {
	if key.ParticipantID != nil {
		return query.Where("participant_id = ?", *key.ParticipantID)
	}
	if key.GuestIdentifier != nil {
		return query.Where("guest_identifier = ?", *key.GuestIdentifier)
	}
	// Neither side set matches nothing rather than everything.
	return query.Where("1 = 0")
}

func (r *responseRepository) FindSubmitted(activityID uint, key ParticipantKey) (*model.Response, error) {
	var response model.Response
	query := r.db.Where("activity_id = ? AND status = ? AND is_preview = ?",
		activityID, model.ResponseStatusSubmitted, false)
	err := scopeKey(query, key).First(&response).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) FindInProgress(activityID uint, key ParticipantKey, isPreview bool) (*model.Response, error) {
	var response model.Response
	query := r.db.Where("activity_id = ? AND status = ? AND is_preview = ?",
		activityID, model.ResponseStatusInProgress, isPreview)
	err := scopeKey(query, key).First(&response).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) FindPreview(activityID uint, key ParticipantKey) (*model.Response, error) {
	var response model.Response
	query := r.db.Where("activity_id = ? AND is_preview = ?", activityID, true)
	err := scopeKey(query, key).First(&response).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) FindAllByActivity(activityID uint) ([]model.Response, error) {
	var responses []model.Response
	err := r.db.
		Where("activity_id = ?", activityID).
		Order("created_at DESC").
		Find(&responses).Error
	return responses, err
}

func (r *responseRepository) MarkSubmitted(responseID uint, fields SubmitFields) (bool, error) {
	updates := map[string]interface{}{
		"status":                model.ResponseStatusSubmitted,
		"submitted_at":          fields.SubmittedAt,
		"completed_at":          fields.CompletedAt,
		"answered_questions":    fields.AnsweredQuestions,
		"completion_percentage": fields.CompletionPct,
		"score":                 fields.Score,
		"assessment_result":     fields.AssessmentResult,
		"correct_answers_count": fields.CorrectAnswersCount,
		"auto_submitted":        fields.AutoSubmitted,
		"time_expired_at":       fields.TimeExpiredAt,
	}

	result := r.db.Model(&model.Response{}).
		Where("id = ? AND status = ?", responseID, model.ResponseStatusInProgress).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
