package dto

import "time"

// QuestionDTO is the participant-facing view of a question. Correct-answer
// metadata never leaves the server through this type.
type QuestionDTO struct {
	ID             uint     `json:"id"`
	SectionID      uint     `json:"section_id"`
	Text           string   `json:"text"`
	Type           string   `json:"type"`
	Options        []string `json:"options,omitempty"`
	Required       bool     `json:"required"`
	OrderInSection int      `json:"order_in_section"`
}

type SectionDTO struct {
	ID        uint          `json:"id"`
	Title     string        `json:"title"`
	Order     int           `json:"order"`
	Questions []QuestionDTO `json:"questions,omitempty"`
}

// ActivityDetailDTO is the participant-facing activity view with the full
// questionnaire.
type ActivityDetailDTO struct {
	ID               uint         `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	Type             string       `json:"type"`
	StartDate        *time.Time   `json:"start_date,omitempty"`
	EndDate          *time.Time   `json:"end_date,omitempty"`
	AllowGuest       bool         `json:"allow_guest"`
	TimeLimitMinutes *int         `json:"time_limit_minutes,omitempty"`
	Sections         []SectionDTO `json:"sections,omitempty"`
}

// ActivitySummaryDTO is one row of the activity listing.
type ActivitySummaryDTO struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	AllowGuest  bool       `json:"allow_guest"`
	CreatedAt   time.Time  `json:"created_at"`
}
