package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lamngo/formflow/internal/apperr"
	"github.com/lamngo/formflow/internal/dto"
	"github.com/lamngo/formflow/internal/model"
	"github.com/lamngo/formflow/internal/repository"
	"github.com/rs/zerolog/log"
)

// ResponseService owns the lifecycle of one participant-activity attempt:
// in_progress -> submitted, with the preview track as a parallel record
// space. Every operation is independently retryable; coordination happens
// through the store's row constraints, never in-process state.
type ResponseService interface {
	StartOrResume(ctx context.Context, activityID uint, req dto.StartOrResumeRequest) (*dto.StartOrResumeResult, error)
	SaveProgress(ctx context.Context, responseID uint, rawAnswers json.RawMessage) (*dto.SaveProgressResult, error)
	Finalize(ctx context.Context, responseID uint, req dto.FinalizeRequest) (*dto.ResponseDetailDTO, error)
	LoadProgress(ctx context.Context, activityID uint, key repository.ParticipantKey) (*dto.LoadProgressResult, error)
	GetResponseDetails(responseID uint) (*dto.ResponseDetailDTO, error)
	GetResponsesForActivity(activityID uint) ([]dto.ResponseSummaryDTO, error)
}

type responseService struct {
	activityRepo repository.ActivityRepository
	questionRepo repository.QuestionRepository
	responseRepo repository.ResponseRepository
	answerRepo   repository.AnswerRepository
	normalizer   AnswerNormalizer
	scoring      ScoringService
	access       AccessService
}

func NewResponseService(
	activityRepo repository.ActivityRepository,
	questionRepo repository.QuestionRepository,
	responseRepo repository.ResponseRepository,
	answerRepo repository.AnswerRepository,
	normalizer AnswerNormalizer,
	scoring ScoringService,
	access AccessService,
) ResponseService {
	return &responseService{
		activityRepo: activityRepo,
		questionRepo: questionRepo,
		responseRepo: responseRepo,
		answerRepo:   answerRepo,
		normalizer:   normalizer,
		scoring:      scoring,
		access:       access,
	}
}

func (s *responseService) StartOrResume(ctx context.Context, activityID uint, req dto.StartOrResumeRequest) (*dto.StartOrResumeResult, error) {
	activity, err := s.activityRepo.FindByID(activityID)
	if err != nil {
		return nil, fmt.Errorf("loading activity %d: %w", activityID, err)
	}

	key := repository.ParticipantKey{ParticipantID: req.ParticipantID, GuestIdentifier: req.GuestIdentifier}
	var mintedGuest *string
	if key.ParticipantID == nil && key.GuestIdentifier == nil && activity.AllowGuest {
		minted := uuid.NewString()
		key.GuestIdentifier = &minted
		mintedGuest = &minted
		log.Info().Uint("activityID", activityID).Msg("StartOrResume: minted guest identifier for anonymous participant")
	}

	if err := s.access.CheckWriteAccess(activity, key, req.IsPreview); err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.FindByQuestionnaireID(ctx, activity.QuestionnaireID)
	if err != nil {
		return nil, fmt.Errorf("loading question catalog: %w", err)
	}

	// A submitted non-preview response is final for this key: report it,
	// refuse further mutation.
	if !req.IsPreview {
		submitted, err := s.responseRepo.FindSubmitted(activityID, key)
		if err == nil {
			return &dto.StartOrResumeResult{
				ResponseID:       submitted.ID,
				Status:           submitted.Status,
				AlreadySubmitted: true,
				GuestIdentifier:  mintedGuest,
				StartedAt:        submitted.StartedAt,
				TotalQuestions:   submitted.TotalQuestions,
				RetakesRemaining: retakesRemaining(activity, submitted.AttemptNumber),
			}, nil
		}
		if err != apperr.ErrNotFound {
			return nil, fmt.Errorf("checking for submitted response: %w", err)
		}
	}

	response, err := s.findOrCreateDraft(activityID, key, req.IsPreview, len(questions))
	if err != nil {
		return nil, err
	}

	answers, err := s.answerRepo.FindAllByResponseID(response.ID)
	if err != nil {
		return nil, fmt.Errorf("loading existing answers: %w", err)
	}

	return &dto.StartOrResumeResult{
		ResponseID:       response.ID,
		Status:           response.Status,
		AlreadySubmitted: false,
		GuestIdentifier:  mintedGuest,
		StartedAt:        response.StartedAt,
		TotalQuestions:   response.TotalQuestions,
		RetakesRemaining: retakesRemaining(activity, response.AttemptNumber),
		ExistingAnswers:  answersToDTOs(answers),
	}, nil
}

// findOrCreateDraft locates the single resumable draft for the key, or
// creates it. started_at is set once and survives resumes. A submitted
// preview response is reopened instead: the preview track allows unlimited
// re-submission.
func (s *responseService) findOrCreateDraft(activityID uint, key repository.ParticipantKey, isPreview bool, totalQuestions int) (*model.Response, error) {
	if isPreview {
		preview, err := s.responseRepo.FindPreview(activityID, key)
		if err == nil {
			if preview.Submitted() {
				preview.Status = model.ResponseStatusInProgress
				preview.SubmittedAt = nil
				preview.CompletedAt = nil
				preview.Score = nil
				preview.AssessmentResult = nil
				preview.CorrectAnswersCount = 0
				if err := s.responseRepo.Update(preview); err != nil {
					return nil, fmt.Errorf("reopening preview response: %w", err)
				}
			}
			return preview, nil
		}
		if err != apperr.ErrNotFound {
			return nil, fmt.Errorf("finding preview response: %w", err)
		}
	} else {
		draft, err := s.responseRepo.FindInProgress(activityID, key, false)
		if err == nil {
			return draft, nil
		}
		if err != apperr.ErrNotFound {
			return nil, fmt.Errorf("finding draft response: %w", err)
		}
	}

	response := &model.Response{
		ActivityID:      activityID,
		ParticipantID:   key.ParticipantID,
		GuestIdentifier: key.GuestIdentifier,
		Status:          model.ResponseStatusInProgress,
		IsPreview:       isPreview,
		AttemptNumber:   1,
		StartedAt:       time.Now(),
		TotalQuestions:  totalQuestions,
	}
	if err := s.responseRepo.Create(response); err != nil {
		return nil, fmt.Errorf("creating response: %w", err)
	}
	log.Info().Uint("responseID", response.ID).Uint("activityID", activityID).Bool("preview", isPreview).Msg("Response created")
	return response, nil
}

func (s *responseService) SaveProgress(ctx context.Context, responseID uint, rawAnswers json.RawMessage) (*dto.SaveProgressResult, error) {
	response, err := s.responseRepo.FindByID(responseID)
	if err != nil {
		return nil, err
	}
	if response.Submitted() {
		return nil, apperr.ErrAlreadySubmitted
	}

	activity, err := s.activityRepo.FindByID(response.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("loading activity %d: %w", response.ActivityID, err)
	}
	if err := s.access.CheckWriteAccess(activity, responseKey(response), response.IsPreview); err != nil {
		return nil, err
	}

	normalized := s.normalizer.Normalize(rawAnswers)
	savedCount, err := s.answerRepo.UpsertAll(responseID, normalized)
	if err != nil {
		return nil, fmt.Errorf("upserting answers: %w", err)
	}

	answered, err := s.answerRepo.CountDistinct(responseID)
	if err != nil {
		return nil, fmt.Errorf("counting answers: %w", err)
	}

	now := time.Now()
	response.AnsweredQuestions = int(answered)
	response.CompletionPercentage = completionPct(int(answered), response.TotalQuestions)
	response.LastSavedAt = &now
	if err := s.responseRepo.Update(response); err != nil {
		return nil, fmt.Errorf("updating response progress: %w", err)
	}

	log.Debug().Uint("responseID", responseID).Int("saved", savedCount).Int64("answered", answered).Msg("Progress saved")
	return &dto.SaveProgressResult{
		SavedCount:           savedCount,
		AnsweredQuestions:    int(answered),
		CompletionPercentage: response.CompletionPercentage,
		LastSavedAt:          now,
	}, nil
}

func (s *responseService) Finalize(ctx context.Context, responseID uint, req dto.FinalizeRequest) (*dto.ResponseDetailDTO, error) {
	response, err := s.responseRepo.FindByID(responseID)
	if err != nil {
		return nil, err
	}

	// Duplicate finalize of a non-preview response is the expected
	// idempotent outcome of a client retry: return the stored result
	// unchanged, never re-score.
	if response.Submitted() && !response.IsPreview {
		detail, err := s.GetResponseDetails(responseID)
		if err != nil {
			return nil, err
		}
		detail.AlreadySubmitted = true
		return detail, nil
	}

	activity, err := s.activityRepo.FindByID(response.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("loading activity %d: %w", response.ActivityID, err)
	}
	if err := s.access.CheckWriteAccess(activity, responseKey(response), response.IsPreview); err != nil {
		return nil, err
	}

	// Merge last-moment edits with prior autosaves before anything else.
	// These upserts stay committed even if validation aborts below:
	// autosaved work is never rolled back by a failed submit.
	normalized := s.normalizer.Normalize(req.Answers)
	if _, err := s.answerRepo.UpsertAll(responseID, normalized); err != nil {
		return nil, fmt.Errorf("upserting final answers: %w", err)
	}

	stored, err := s.answerRepo.FindAllByResponseID(responseID)
	if err != nil {
		return nil, fmt.Errorf("loading merged answers: %w", err)
	}
	merged := answersToValueMap(stored)

	questions, err := s.questionRepo.FindByQuestionnaireID(ctx, activity.QuestionnaireID)
	if err != nil {
		return nil, fmt.Errorf("loading question catalog: %w", err)
	}

	// Required-question validation is skipped when the clock, not the
	// participant, ended the attempt.
	if !req.AutoSubmitted {
		if missing := missingRequired(questions, merged); len(missing) > 0 {
			return nil, &apperr.MissingRequiredError{MissingQuestionIDs: missing}
		}
	}

	now := time.Now()
	answered := len(merged)
	fields := repository.SubmitFields{
		SubmittedAt:       now,
		CompletedAt:       now,
		AnsweredQuestions: answered,
		CompletionPct:     completionPct(answered, response.TotalQuestions),
		AutoSubmitted:     req.AutoSubmitted,
		TimeExpiredAt:     req.TimeExpiredAt,
	}

	if activity.IsAssessment() {
		summary := s.scoring.Score(merged, questions, activity.PassThreshold)
		result := summary.Result
		fields.Score = summary.Score
		fields.AssessmentResult = &result
		fields.CorrectAnswersCount = summary.CorrectAnswersCount
	}

	if response.IsPreview {
		return s.finalizePreview(response, fields)
	}

	won, err := s.responseRepo.MarkSubmitted(responseID, fields)
	if err != nil {
		return nil, fmt.Errorf("submitting response: %w", err)
	}
	if !won {
		// A concurrent finalize got there first. Observe its result.
		log.Info().Uint("responseID", responseID).Msg("Finalize lost the submit race, returning stored result")
		detail, err := s.GetResponseDetails(responseID)
		if err != nil {
			return nil, err
		}
		detail.AlreadySubmitted = true
		return detail, nil
	}

	log.Info().Uint("responseID", responseID).Bool("autoSubmitted", req.AutoSubmitted).Msg("Response submitted")
	return s.GetResponseDetails(responseID)
}

// finalizePreview overwrites the single preview response in place. The
// preview track re-scores on every submit instead of refusing duplicates.
func (s *responseService) finalizePreview(response *model.Response, fields repository.SubmitFields) (*dto.ResponseDetailDTO, error) {
	if response.Submitted() {
		response.AttemptNumber++
	}
	response.Status = model.ResponseStatusSubmitted
	response.SubmittedAt = &fields.SubmittedAt
	response.CompletedAt = &fields.CompletedAt
	response.AnsweredQuestions = fields.AnsweredQuestions
	response.CompletionPercentage = fields.CompletionPct
	response.Score = fields.Score
	response.AssessmentResult = fields.AssessmentResult
	response.CorrectAnswersCount = fields.CorrectAnswersCount
	response.AutoSubmitted = fields.AutoSubmitted
	response.TimeExpiredAt = fields.TimeExpiredAt

	if err := s.responseRepo.Update(response); err != nil {
		return nil, fmt.Errorf("submitting preview response: %w", err)
	}
	return s.GetResponseDetails(response.ID)
}

func (s *responseService) LoadProgress(ctx context.Context, activityID uint, key repository.ParticipantKey) (*dto.LoadProgressResult, error) {
	draft, err := s.responseRepo.FindInProgress(activityID, key, false)
	if err != nil {
		if err == apperr.ErrNotFound {
			return &dto.LoadProgressResult{HasProgress: false}, nil
		}
		return nil, err
	}

	answers, err := s.answerRepo.FindAllByResponseID(draft.ID)
	if err != nil {
		return nil, fmt.Errorf("loading answers: %w", err)
	}

	return &dto.LoadProgressResult{
		HasProgress:          true,
		ResponseID:           &draft.ID,
		Answers:              answersToDTOs(answers),
		LastSavedAt:          draft.LastSavedAt,
		CompletionPercentage: draft.CompletionPercentage,
	}, nil
}

func (s *responseService) GetResponseDetails(responseID uint) (*dto.ResponseDetailDTO, error) {
	response, err := s.responseRepo.FindByIDWithAnswers(responseID)
	if err != nil {
		return nil, err
	}

	var detail dto.ResponseDetailDTO
	if err := copier.Copy(&detail, response); err != nil {
		return nil, fmt.Errorf("preparing response details: %w", err)
	}
	if response.Activity.ID != 0 {
		detail.ActivityTitle = response.Activity.Title
	}
	detail.Answers = answersToDTOs(response.Answers)
	return &detail, nil
}

func (s *responseService) GetResponsesForActivity(activityID uint) ([]dto.ResponseSummaryDTO, error) {
	responses, err := s.responseRepo.FindAllByActivity(activityID)
	if err != nil {
		return nil, fmt.Errorf("listing responses for activity %d: %w", activityID, err)
	}

	summaries := make([]dto.ResponseSummaryDTO, 0, len(responses))
	for i := range responses {
		var summary dto.ResponseSummaryDTO
		if err := copier.Copy(&summary, &responses[i]); err != nil {
			log.Error().Err(err).Uint("responseID", responses[i].ID).Msg("Error copying response to summary DTO")
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func responseKey(response *model.Response) repository.ParticipantKey {
	return repository.ParticipantKey{
		ParticipantID:   response.ParticipantID,
		GuestIdentifier: response.GuestIdentifier,
	}
}

func retakesRemaining(activity *model.Activity, attemptNumber int) int {
	remaining := activity.MaxRetakes - attemptNumber + 1
	if remaining < 0 {
		return 0
	}
	return remaining
}

func completionPct(answered, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(answered) / float64(total) * 100
}

func missingRequired(questions []model.Question, answers map[uint]model.AnswerValue) []uint {
	var missing []uint
	for i := range questions {
		question := &questions[i]
		if !question.Required {
			continue
		}
		if _, ok := answers[question.ID]; !ok {
			missing = append(missing, question.ID)
		}
	}
	return missing
}

func answersToValueMap(answers []model.Answer) map[uint]model.AnswerValue {
	values := make(map[uint]model.AnswerValue, len(answers))
	for i := range answers {
		values[answers[i].QuestionID] = answers[i].AnswerValueOf()
	}
	return values
}

func answersToDTOs(answers []model.Answer) []dto.AnswerDTO {
	if len(answers) == 0 {
		return nil
	}
	out := make([]dto.AnswerDTO, 0, len(answers))
	for i := range answers {
		value := answers[i].AnswerValueOf()
		out = append(out, dto.AnswerDTO{
			QuestionID: answers[i].QuestionID,
			Value:      value.Scalar,
			ValueArray: value.List,
			TimeSpent:  answers[i].TimeSpent,
		})
	}
	return out
}
