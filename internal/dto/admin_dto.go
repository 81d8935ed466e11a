package dto

import "time"

// QuestionCreateDTO is used within SectionCreateDTO for admin activity creation.
type QuestionCreateDTO struct {
	Text           string   `json:"text" binding:"required"`
	Type           string   `json:"type" binding:"required,oneof=single_choice multiple_choice dropdown text rating"`
	Options        []string `json:"options"`
	CorrectAnswers []int    `json:"correct_answers"` // 0-based option indices; empty => not machine-scored
	Required       bool     `json:"required"`
	OrderInSection int      `json:"order_in_section" binding:"required,min=1"`
}

type SectionCreateDTO struct {
	Title     string              `json:"title" binding:"required"`
	Order     int                 `json:"order" binding:"required,min=1"`
	Questions []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

// ActivityCreateDTO creates an activity together with its questionnaire in
// one transactional request.
type ActivityCreateDTO struct {
	Title            string             `json:"title" binding:"required"`
	Description      string             `json:"description,omitempty"`
	Type             string             `json:"type" binding:"required,oneof=survey poll assessment"`
	StartDate        *time.Time         `json:"start_date"`
	EndDate          *time.Time         `json:"end_date"`
	AllowGuest       bool               `json:"allow_guest"`
	PassThreshold    *float64           `json:"pass_threshold"`
	MaxRetakes       int                `json:"max_retakes"`
	TimeLimitMinutes *int               `json:"time_limit_minutes"`
	Sections         []SectionCreateDTO `json:"sections" binding:"required,min=1,dive"`
}

// ActivityCreatedDTO acknowledges an admin create.
type ActivityCreatedDTO struct {
	ActivityID      uint `json:"activity_id"`
	QuestionnaireID uint `json:"questionnaire_id"`
	QuestionCount   int  `json:"question_count"`
}
