package dto

import "time"

// AnswerDTO is one stored answer in API responses.
type AnswerDTO struct {
	QuestionID uint     `json:"question_id"`
	Value      *string  `json:"value,omitempty"`
	ValueArray []string `json:"value_array,omitempty"`
	TimeSpent  *int     `json:"time_spent,omitempty"`
}

// StartOrResumeResult is returned when a participant opens an activity.
type StartOrResumeResult struct {
	ResponseID       uint        `json:"response_id"`
	Status           string      `json:"status"`
	AlreadySubmitted bool        `json:"already_submitted"`
	GuestIdentifier  *string     `json:"guest_identifier,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	TotalQuestions   int         `json:"total_questions"`
	RetakesRemaining int         `json:"retakes_remaining"`
	ExistingAnswers  []AnswerDTO `json:"existing_answers,omitempty"`
}

// SaveProgressResult acknowledges one autosave round.
type SaveProgressResult struct {
	SavedCount           int       `json:"saved_count"`
	AnsweredQuestions    int       `json:"answered_questions"`
	CompletionPercentage float64   `json:"completion_percentage"`
	LastSavedAt          time.Time `json:"last_saved_at"`
}

// LoadProgressResult reports whether a resumable draft exists for the key.
type LoadProgressResult struct {
	HasProgress          bool        `json:"has_progress"`
	ResponseID           *uint       `json:"response_id,omitempty"`
	Answers              []AnswerDTO `json:"answers,omitempty"`
	LastSavedAt          *time.Time  `json:"last_saved_at,omitempty"`
	CompletionPercentage float64     `json:"completion_percentage"`
}

// ResponseDetailDTO is the full view of one response, including the score
// block for finalized assessment responses.
type ResponseDetailDTO struct {
	ID                   uint        `json:"id"`
	ActivityID           uint        `json:"activity_id"`
	ActivityTitle        string      `json:"activity_title,omitempty"`
	Status               string      `json:"status"`
	IsPreview            bool        `json:"is_preview"`
	AlreadySubmitted     bool        `json:"already_submitted,omitempty"`
	AttemptNumber        int         `json:"attempt_number"`
	StartedAt            time.Time   `json:"started_at"`
	LastSavedAt          *time.Time  `json:"last_saved_at,omitempty"`
	SubmittedAt          *time.Time  `json:"submitted_at,omitempty"`
	CompletedAt          *time.Time  `json:"completed_at,omitempty"`
	TotalQuestions       int         `json:"total_questions"`
	AnsweredQuestions    int         `json:"answered_questions"`
	CompletionPercentage float64     `json:"completion_percentage"`
	Score                *float64    `json:"score,omitempty"`
	AssessmentResult     *string     `json:"assessment_result,omitempty"`
	CorrectAnswersCount  int         `json:"correct_answers_count"`
	AutoSubmitted        bool        `json:"auto_submitted"`
	TimeExpiredAt        *time.Time  `json:"time_expired_at,omitempty"`
	Answers              []AnswerDTO `json:"answers,omitempty"`
}

// ResponseSummaryDTO is the per-response row in admin listings.
type ResponseSummaryDTO struct {
	ID                   uint       `json:"id"`
	ActivityID           uint       `json:"activity_id"`
	ParticipantID        *uint      `json:"participant_id,omitempty"`
	GuestIdentifier      *string    `json:"guest_identifier,omitempty"`
	Status               string     `json:"status"`
	IsPreview            bool       `json:"is_preview"`
	StartedAt            time.Time  `json:"started_at"`
	SubmittedAt          *time.Time `json:"submitted_at,omitempty"`
	CompletionPercentage float64    `json:"completion_percentage"`
	Score                *float64   `json:"score,omitempty"`
	AssessmentResult     *string    `json:"assessment_result,omitempty"`
}

// ErrorResponse is the uniform error body of the API.
type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// MissingRequiredResponse is the 422 body of a finalize that left required
// questions unanswered.
type MissingRequiredResponse struct {
	Message            string `json:"message"`
	MissingQuestionIDs []uint `json:"missing_question_ids"`
}
