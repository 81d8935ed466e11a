package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	ActivityTypeSurvey     = "survey"
	ActivityTypePoll       = "poll"
	ActivityTypeAssessment = "assessment"
)

// Activity is a configured run of a Questionnaire, open to participants
// over a date window.
type Activity struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	QuestionnaireID  uint           `json:"questionnaire_id" gorm:"not null;index"`
	Questionnaire    Questionnaire  `json:"questionnaire,omitempty" gorm:"foreignKey:QuestionnaireID"`
	Title            string         `json:"title" gorm:"not null"`
	Description      string         `json:"description,omitempty"`
	Type             string         `json:"type" gorm:"not null;default:'survey'"` // "survey", "poll", "assessment"
	Active           bool           `json:"active" gorm:"default:true"`
	StartDate        *time.Time     `json:"start_date,omitempty"`
	EndDate          *time.Time     `json:"end_date,omitempty"`
	AllowGuest       bool           `json:"allow_guest" gorm:"default:false"`
	PassThreshold    *float64       `json:"pass_threshold,omitempty"`
	MaxRetakes       int            `json:"max_retakes" gorm:"default:1"`
	TimeLimitMinutes *int           `json:"time_limit_minutes,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAssessment reports whether finalized responses get scored.
func (a *Activity) IsAssessment() bool {
	return a.Type == ActivityTypeAssessment
}
