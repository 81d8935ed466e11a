package service

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lamngo/formflow/internal/dto"
	"github.com/lamngo/formflow/internal/model"
	"github.com/lamngo/formflow/internal/repository"
	"github.com/rs/zerolog/log"
)

// ActivityService serves the participant-facing activity views. Correct
// answer metadata is stripped before anything leaves this service.
type ActivityService interface {
	GetActiveActivities() ([]dto.ActivitySummaryDTO, error)
	GetActivityDetails(activityID uint) (*dto.ActivityDetailDTO, error)
}

type activityService struct {
	activityRepo repository.ActivityRepository
}

func NewActivityService(activityRepo repository.ActivityRepository) ActivityService {
	return &activityService{activityRepo: activityRepo}
}

func (s *activityService) GetActiveActivities() ([]dto.ActivitySummaryDTO, error) {
	activities, err := s.activityRepo.FindAllActive()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list active activities")
		return nil, fmt.Errorf("error fetching activities: %w", err)
	}

	summaries := make([]dto.ActivitySummaryDTO, 0, len(activities))
	for i := range activities {
		var summary dto.ActivitySummaryDTO
		if err := copier.Copy(&summary, &activities[i]); err != nil {
			log.Error().Err(err).Uint("activityID", activities[i].ID).Msg("Error copying activity to summary DTO")
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *activityService) GetActivityDetails(activityID uint) (*dto.ActivityDetailDTO, error) {
	activity, err := s.activityRepo.FindByIDWithQuestionnaire(activityID)
	if err != nil {
		return nil, err
	}

	detail := dto.ActivityDetailDTO{
		ID:               activity.ID,
		Title:            activity.Title,
		Description:      activity.Description,
		Type:             activity.Type,
		StartDate:        activity.StartDate,
		EndDate:          activity.EndDate,
		AllowGuest:       activity.AllowGuest,
		TimeLimitMinutes: activity.TimeLimitMinutes,
		Sections:         sectionsToDTOs(activity.Questionnaire.Sections),
	}
	return &detail, nil
}

// sectionsToDTOs builds the participant view, deliberately omitting the
// correct-answer metadata.
func sectionsToDTOs(sections []model.Section) []dto.SectionDTO {
	out := make([]dto.SectionDTO, 0, len(sections))
	for i := range sections {
		section := dto.SectionDTO{
			ID:    sections[i].ID,
			Title: sections[i].Title,
			Order: sections[i].Order,
		}
		for j := range sections[i].Questions {
			q := &sections[i].Questions[j]
			section.Questions = append(section.Questions, dto.QuestionDTO{
				ID:             q.ID,
				SectionID:      q.SectionID,
				Text:           q.Text,
				Type:           q.Type,
				Options:        q.OptionList(),
				Required:       q.Required,
				OrderInSection: q.OrderInSection,
			})
		}
		out = append(out, section)
	}
	return out
}
