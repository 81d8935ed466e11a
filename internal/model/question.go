package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionTypeSingleChoice   = "single_choice"
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeDropdown       = "dropdown"
	QuestionTypeText           = "text"
	QuestionTypeRating         = "rating"
)

type Question struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	SectionID       uint           `json:"section_id" gorm:"not null;index"`
	QuestionnaireID uint           `json:"questionnaire_id" gorm:"not null;index"`
	Text            string         `json:"text" gorm:"type:text;not null"`
	Type            string         `json:"type" gorm:"not null"` // "single_choice", "multiple_choice", "dropdown", "text", "rating"
	Options         datatypes.JSON `json:"options,omitempty" gorm:"type:jsonb"`         // []string, ordered option labels
	CorrectAnswers  datatypes.JSON `json:"correct_answers,omitempty" gorm:"type:jsonb"` // []int, 0-based option indices; empty => not machine-scored
	Required        bool           `json:"required" gorm:"default:false"`
	OrderInSection  int            `json:"order_in_section" gorm:"not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// MultiAnswer reports whether answers to this question are ordered lists
// rather than a single scalar.
func (q *Question) MultiAnswer() bool {
	return q.Type == QuestionTypeMultipleChoice
}

// OptionList decodes the jsonb option column. A question without options
// (free text, rating) yields an empty slice.
func (q *Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// CorrectIndices decodes the correct-answer metadata. Empty means the
// question is not counted by the scoring engine.
func (q *Question) CorrectIndices() []int {
	if len(q.CorrectAnswers) == 0 {
		return nil
	}
	var idx []int
	if err := json.Unmarshal(q.CorrectAnswers, &idx); err != nil {
		return nil
	}
	return idx
}

// Scorable reports whether the question carries correct-answer metadata.
func (q *Question) Scorable() bool {
	return len(q.CorrectIndices()) > 0
}
