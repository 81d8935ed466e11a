package dto

import (
	"encoding/json"
	"time"
)

// StartOrResumeRequest opens or resumes the participant's draft response.
// Exactly one of ParticipantID/GuestIdentifier identifies the caller; a
// guest-allowed activity mints an identifier when neither is given.
type StartOrResumeRequest struct {
	ParticipantID   *uint   `json:"participant_id"`
	GuestIdentifier *string `json:"guest_identifier"`
	IsPreview       bool    `json:"is_preview"`
}

// SaveProgressRequest carries one autosave round. Answers accepts both
// payload shapes: a list of {question_id, value|value_array} objects or a
// map of questionId -> value.
type SaveProgressRequest struct {
	Answers json.RawMessage `json:"answers"`
}

// FinalizeRequest submits the response. Answers may carry last-moment edits
// the autosaves never saw; they are merged before validation.
type FinalizeRequest struct {
	Answers       json.RawMessage `json:"answers"`
	AutoSubmitted bool            `json:"auto_submitted"`
	TimeExpiredAt *time.Time      `json:"time_expired_at"`
}
