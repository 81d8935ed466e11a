package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lamngo/formflow/internal/dto"
	"github.com/lamngo/formflow/internal/model"
	"github.com/lamngo/formflow/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// AdminActivityService creates activities together with their questionnaire
// in one nested create, so the question catalog the response engine reads
// from always exists before the first participant arrives.
type AdminActivityService interface {
	CreateActivity(ctx context.Context, req dto.ActivityCreateDTO) (*dto.ActivityCreatedDTO, error)
}

type adminActivityService struct {
	activityRepo      repository.ActivityRepository
	questionnaireRepo repository.QuestionnaireRepository
	questionRepo      repository.QuestionRepository
}

func NewAdminActivityService(
	activityRepo repository.ActivityRepository,
	questionnaireRepo repository.QuestionnaireRepository,
	questionRepo repository.QuestionRepository,
) AdminActivityService {
	return &adminActivityService{
		activityRepo:      activityRepo,
		questionnaireRepo: questionnaireRepo,
		questionRepo:      questionRepo,
	}
}

func (s *adminActivityService) CreateActivity(ctx context.Context, req dto.ActivityCreateDTO) (*dto.ActivityCreatedDTO, error) {
	if err := validateActivityCreate(req); err != nil {
		return nil, err
	}

	questionnaire := model.Questionnaire{
		Title:       req.Title,
		Description: req.Description,
	}
	questionCount := 0
	for _, sectionDTO := range req.Sections {
		section := model.Section{
			Title: sectionDTO.Title,
			Order: sectionDTO.Order,
		}
		for _, questionDTO := range sectionDTO.Questions {
			question, err := buildQuestion(questionDTO)
			if err != nil {
				return nil, err
			}
			section.Questions = append(section.Questions, question)
			questionCount++
		}
		questionnaire.Sections = append(questionnaire.Sections, section)
	}

	if err := s.questionnaireRepo.Create(&questionnaire); err != nil {
		log.Error().Err(err).Msg("CreateActivity: failed to create questionnaire")
		return nil, fmt.Errorf("creating questionnaire: %w", err)
	}

	activity := model.Activity{
		QuestionnaireID:  questionnaire.ID,
		Title:            req.Title,
		Description:      req.Description,
		Type:             req.Type,
		Active:           true,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		AllowGuest:       req.AllowGuest,
		PassThreshold:    req.PassThreshold,
		MaxRetakes:       req.MaxRetakes,
		TimeLimitMinutes: req.TimeLimitMinutes,
	}
	if activity.MaxRetakes <= 0 {
		activity.MaxRetakes = 1
	}
	if err := s.activityRepo.Create(&activity); err != nil {
		log.Error().Err(err).Msg("CreateActivity: failed to create activity")
		return nil, fmt.Errorf("creating activity: %w", err)
	}

	s.questionRepo.InvalidateCatalog(ctx, questionnaire.ID)
	log.Info().Uint("activityID", activity.ID).Uint("questionnaireID", questionnaire.ID).Int("questions", questionCount).Msg("Activity created")

	return &dto.ActivityCreatedDTO{
		ActivityID:      activity.ID,
		QuestionnaireID: questionnaire.ID,
		QuestionCount:   questionCount,
	}, nil
}

func buildQuestion(req dto.QuestionCreateDTO) (model.Question, error) {
	question := model.Question{
		Text:           req.Text,
		Type:           req.Type,
		Required:       req.Required,
		OrderInSection: req.OrderInSection,
	}

	if len(req.Options) > 0 {
		raw, err := json.Marshal(req.Options)
		if err != nil {
			return model.Question{}, fmt.Errorf("encoding options: %w", err)
		}
		question.Options = datatypes.JSON(raw)
	}

	if len(req.CorrectAnswers) > 0 {
		for _, index := range req.CorrectAnswers {
			if index < 0 || index >= len(req.Options) {
				return model.Question{}, fmt.Errorf("correct answer index %d out of range for %d options", index, len(req.Options))
			}
		}
		raw, err := json.Marshal(req.CorrectAnswers)
		if err != nil {
			return model.Question{}, fmt.Errorf("encoding correct answers: %w", err)
		}
		question.CorrectAnswers = datatypes.JSON(raw)
	}
	return question, nil
}

func validateActivityCreate(req dto.ActivityCreateDTO) error {
	if req.Type == model.ActivityTypeAssessment {
		scorable := 0
		for _, section := range req.Sections {
			for _, question := range section.Questions {
				if len(question.CorrectAnswers) > 0 {
					scorable++
				}
			}
		}
		if scorable == 0 {
			return fmt.Errorf("assessment activity needs at least one question with correct answers")
		}
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return fmt.Errorf("end date %s precedes start date %s", req.EndDate, req.StartDate)
	}
	return nil
}
