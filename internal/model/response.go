package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	ResponseStatusInProgress = "in_progress"
	ResponseStatusSubmitted  = "submitted"
)

const (
	AssessmentResultPass    = "pass"
	AssessmentResultFail    = "fail"
	AssessmentResultPending = "pending"
)

// Response is one participant's attempt at one Activity. At most one
// in_progress row exists per (activity, participant key, is_preview), and
// at most one non-preview row ever reaches submitted for a given key.
type Response struct {
	ID                   uint           `gorm:"primarykey" json:"id"`
	ActivityID           uint           `json:"activity_id" gorm:"not null;index:idx_responses_activity_participant"`
	Activity             Activity       `json:"activity,omitempty" gorm:"foreignKey:ActivityID"`
	ParticipantID        *uint          `json:"participant_id,omitempty" gorm:"index:idx_responses_activity_participant"`
	GuestIdentifier      *string        `json:"guest_identifier,omitempty" gorm:"index"`
	Status               string         `json:"status" gorm:"not null;default:'in_progress';index"`
	IsPreview            bool           `json:"is_preview" gorm:"not null;default:false"`
	AttemptNumber        int            `json:"attempt_number" gorm:"not null;default:1"`
	StartedAt            time.Time      `json:"started_at"`
	LastSavedAt          *time.Time     `json:"last_saved_at,omitempty"`
	SubmittedAt          *time.Time     `json:"submitted_at,omitempty"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`
	TotalQuestions       int            `json:"total_questions"`
	AnsweredQuestions    int            `json:"answered_questions"`
	CompletionPercentage float64        `json:"completion_percentage"`
	Score                *float64       `json:"score,omitempty"`
	AssessmentResult     *string        `json:"assessment_result,omitempty"` // "pass", "fail", "pending"
	CorrectAnswersCount  int            `json:"correct_answers_count"`
	AutoSubmitted        bool           `json:"auto_submitted" gorm:"default:false"`
	TimeExpiredAt        *time.Time     `json:"time_expired_at,omitempty"`
	Answers              []Answer       `json:"answers,omitempty" gorm:"foreignKey:ResponseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// Submitted reports whether the response reached its terminal state.
func (r *Response) Submitted() bool {
	return r.Status == ResponseStatusSubmitted
}
