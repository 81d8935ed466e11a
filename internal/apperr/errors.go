// Package apperr defines the domain error taxonomy shared by services and
// the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing activity, response, or questionnaire.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadySubmitted is the expected outcome of duplicate finalize
	// calls and of writes against a submitted response. Callers treat it
	// as "already done", not as a retriable failure.
	ErrAlreadySubmitted = errors.New("response already submitted")

	// ErrNotAuthorized signals a participant or guest key not allowed to
	// write to the activity.
	ErrNotAuthorized = errors.New("not authorized for this activity")

	// ErrActivityClosed signals an inactive activity or one outside its
	// date window.
	ErrActivityClosed = errors.New("activity is not open for responses")
)

// MissingRequiredError aborts a finalize that does not cover every required
// question. Answers upserted before validation stay committed.
type MissingRequiredError struct {
	MissingQuestionIDs []uint
}

func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("required questions not answered: %v", e.MissingQuestionIDs)
}

// IsMissingRequired unwraps err into a MissingRequiredError if it is one.
func IsMissingRequired(err error) (*MissingRequiredError, bool) {
	var mre *MissingRequiredError
	if errors.As(err, &mre) {
		return mre, true
	}
	return nil, false
}
