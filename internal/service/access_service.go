package service

import (
	"time"

	"github.com/lamngo/formflow/internal/apperr"
	"github.com/lamngo/formflow/internal/model"
	"github.com/lamngo/formflow/internal/repository"
	"github.com/rs/zerolog/log"
)

// AccessService is the gate every response write passes before the engine
// accepts it: activity liveness, date window, and guest permission.
// Preview writes bypass the liveness checks so admins can test an activity
// before it opens.
type AccessService interface {
	CheckWriteAccess(activity *model.Activity, key repository.ParticipantKey, isPreview bool) error
}

type accessService struct{}

func NewAccessService() AccessService {
	return &accessService{}
}

func (s *accessService) CheckWriteAccess(activity *model.Activity, key repository.ParticipantKey, isPreview bool) error {
	if key.ParticipantID == nil && key.GuestIdentifier == nil {
		return apperr.ErrNotAuthorized
	}

	if key.ParticipantID == nil && !activity.AllowGuest {
		log.Warn().Uint("activityID", activity.ID).Msg("Guest write rejected, activity does not allow guests")
		return apperr.ErrNotAuthorized
	}

	if isPreview {
		return nil
	}

	if !activity.Active {
		return apperr.ErrActivityClosed
	}

	now := time.Now()
	if activity.StartDate != nil && now.Before(*activity.StartDate) {
		return apperr.ErrActivityClosed
	}
	if activity.EndDate != nil && now.After(*activity.EndDate) {
		return apperr.ErrActivityClosed
	}
	return nil
}
