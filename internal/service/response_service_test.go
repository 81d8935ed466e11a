package service_test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/lamngo/formflow/internal/apperr"
	"github.com/lamngo/formflow/internal/dto"
	"github.com/lamngo/formflow/internal/model"
	"github.com/lamngo/formflow/internal/repository"
	"github.com/lamngo/formflow/internal/service"
)

func uintPtr(v uint) *uint    { return &v }
func strPtr(s string) *string { return &s }

type fakeActivityRepo struct {
	nextID     uint
	activities map[uint]*model.Activity
}

func (r *fakeActivityRepo) Create(activity *model.Activity) error {
	if activity.ID == 0 {
		r.nextID++
		activity.ID = r.nextID
	}
	r.activities[activity.ID] = activity
	return nil
}

func (r *fakeActivityRepo) Update(activity *model.Activity) error {
	r.activities[activity.ID] = activity
	return nil
}

func (r *fakeActivityRepo) FindByID(id uint) (*model.Activity, error) {
	activity, ok := r.activities[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return activity, nil
}

func (r *fakeActivityRepo) FindByIDWithQuestionnaire(id uint) (*model.Activity, error) {
	return r.FindByID(id)
}

func (r *fakeActivityRepo) FindAllActive() ([]model.Activity, error) {
	var out []model.Activity
	for _, a := range r.activities {
		if a.Active {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeQuestionRepo struct {
	byQuestionnaire map[uint][]model.Question
}

func (r *fakeQuestionRepo) FindByID(id uint) (*model.Question, error) {
	for _, questions := range r.byQuestionnaire {
		for i := range questions {
			if questions[i].ID == id {
				return &questions[i], nil
			}
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *fakeQuestionRepo) FindByQuestionnaireID(ctx context.Context, questionnaireID uint) ([]model.Question, error) {
	return r.byQuestionnaire[questionnaireID], nil
}

func (r *fakeQuestionRepo) InvalidateCatalog(ctx context.Context, questionnaireID uint) {}

type fakeAnswerRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]map[uint]model.Answer // responseID -> questionID -> row
}

func (r *fakeAnswerRepo) UpsertAll(responseID uint, values map[uint]model.AnswerValue) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows[responseID] == nil {
		r.rows[responseID] = make(map[uint]model.Answer)
	}
	for questionID, value := range values {
		row, ok := r.rows[responseID][questionID]
		if !ok {
			r.nextID++
			row = model.Answer{ID: r.nextID, ResponseID: responseID, QuestionID: questionID}
		}
		row.SetValue(value)
		r.rows[responseID][questionID] = row
	}
	return len(values), nil
}

func (r *fakeAnswerRepo) FindAllByResponseID(responseID uint) ([]model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Answer, 0, len(r.rows[responseID]))
	for _, row := range r.rows[responseID] {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (r *fakeAnswerRepo) CountDistinct(responseID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows[responseID])), nil
}

type fakeResponseRepo struct {
	mu         sync.Mutex
	nextID     uint
	responses  map[uint]*model.Response
	answers    *fakeAnswerRepo
	activities *fakeActivityRepo
	submitWins int
}

func (r *fakeResponseRepo) Create(response *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	response.ID = r.nextID
	stored := *response
	r.responses[response.ID] = &stored
	return nil
}

func (r *fakeResponseRepo) Update(response *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *response
	r.responses[response.ID] = &stored
	return nil
}

func (r *fakeResponseRepo) FindByID(id uint) (*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.responses[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeResponseRepo) FindByIDWithAnswers(id uint) (*model.Response, error) {
	response, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if activity, ok := r.activities.activities[response.ActivityID]; ok {
		response.Activity = *activity
	}
	answers, _ := r.answers.FindAllByResponseID(id)
	response.Answers = answers
	return response, nil
}

func matchKey(response *model.Response, key repository.ParticipantKey) bool {
	if key.ParticipantID != nil {
		return response.ParticipantID != nil && *response.ParticipantID == *key.ParticipantID
	}
	if key.GuestIdentifier != nil {
		return response.GuestIdentifier != nil && *response.GuestIdentifier == *key.GuestIdentifier
	}
	return false
}

func (r *fakeResponseRepo) findOne(match func(*model.Response) bool) (*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.responses {
		if match(stored) {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *fakeResponseRepo) FindSubmitted(activityID uint, key repository.ParticipantKey) (*model.Response, error) {
	return r.findOne(func(resp *model.Response) bool {
		return resp.ActivityID == activityID && resp.Status == model.ResponseStatusSubmitted &&
			!resp.IsPreview && matchKey(resp, key)
	})
}

func (r *fakeResponseRepo) FindInProgress(activityID uint, key repository.ParticipantKey, isPreview bool) (*model.Response, error) {
	return r.findOne(func(resp *model.Response) bool {
		return resp.ActivityID == activityID && resp.Status == model.ResponseStatusInProgress &&
			resp.IsPreview == isPreview && matchKey(resp, key)
	})
}

func (r *fakeResponseRepo) FindPreview(activityID uint, key repository.ParticipantKey) (*model.Response, error) {
	return r.findOne(func(resp *model.Response) bool {
		return resp.ActivityID == activityID && resp.IsPreview && matchKey(resp, key)
	})
}

func (r *fakeResponseRepo) FindAllByActivity(activityID uint) ([]model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Response
	for _, stored := range r.responses {
		if stored.ActivityID == activityID {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (r *fakeResponseRepo) MarkSubmitted(responseID uint, fields repository.SubmitFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.responses[responseID]
	if !ok || stored.Status != model.ResponseStatusInProgress {
		return false, nil
	}
	stored.Status = model.ResponseStatusSubmitted
	stored.SubmittedAt = &fields.SubmittedAt
	stored.CompletedAt = &fields.CompletedAt
	stored.AnsweredQuestions = fields.AnsweredQuestions
	stored.CompletionPercentage = fields.CompletionPct
	stored.Score = fields.Score
	stored.AssessmentResult = fields.AssessmentResult
	stored.CorrectAnswersCount = fields.CorrectAnswersCount
	stored.AutoSubmitted = fields.AutoSubmitted
	stored.TimeExpiredAt = fields.TimeExpiredAt
	r.submitWins++
	return true, nil
}

type testEnv struct {
	activities *fakeActivityRepo
	questions  *fakeQuestionRepo
	responses  *fakeResponseRepo
	answers    *fakeAnswerRepo
	svc        service.ResponseService
}

func newTestEnv(activity *model.Activity, questions []model.Question) *testEnv {
	activities := &fakeActivityRepo{activities: map[uint]*model.Activity{activity.ID: activity}}
	questionRepo := &fakeQuestionRepo{byQuestionnaire: map[uint][]model.Question{activity.QuestionnaireID: questions}}
	answers := &fakeAnswerRepo{rows: make(map[uint]map[uint]model.Answer)}
	responses := &fakeResponseRepo{
		responses:  make(map[uint]*model.Response),
		answers:    answers,
		activities: activities,
	}

	svc := service.NewResponseService(
		activities,
		questionRepo,
		responses,
		answers,
		service.NewAnswerNormalizer(),
		service.NewScoringService(),
		service.NewAccessService(),
	)
	return &testEnv{activities: activities, questions: questionRepo, responses: responses, answers: answers, svc: svc}
}

func surveyActivity(totalQuestions int) (*model.Activity, []model.Question) {
	activity := &model.Activity{
		ID:              1,
		QuestionnaireID: 10,
		Title:           "Team survey",
		Type:            model.ActivityTypeSurvey,
		Active:          true,
		MaxRetakes:      1,
	}
	questions := make([]model.Question, 0, totalQuestions)
	for i := 0; i < totalQuestions; i++ {
		questions = append(questions, model.Question{
			ID:              uint(i + 1),
			QuestionnaireID: 10,
			Type:            model.QuestionTypeText,
		})
	}
	return activity, questions
}

func TestStartOrResumeCreatesThenResumes(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(3)
	env := newTestEnv(activity, questions)
	req := dto.StartOrResumeRequest{ParticipantID: uintPtr(42)}

	first, err := env.svc.StartOrResume(ctx, activity.ID, req)
	if err != nil {
		t.Fatalf("first StartOrResume: %v", err)
	}
	if first.AlreadySubmitted {
		t.Fatal("fresh response reported as already submitted")
	}
	if first.TotalQuestions != 3 {
		t.Fatalf("total_questions = %d, want 3", first.TotalQuestions)
	}
	if first.RetakesRemaining != 1 {
		t.Fatalf("retakes_remaining = %d, want 1 on attempt 1 of max 1", first.RetakesRemaining)
	}

	second, err := env.svc.StartOrResume(ctx, activity.ID, req)
	if err != nil {
		t.Fatalf("second StartOrResume: %v", err)
	}
	if second.ResponseID != first.ResponseID {
		t.Fatalf("resume created a new response: %d then %d", first.ResponseID, second.ResponseID)
	}
	if !second.StartedAt.Equal(first.StartedAt) {
		t.Fatalf("started_at changed on resume: %v then %v", first.StartedAt, second.StartedAt)
	}
}

func TestStartOrResumeMintsGuestIdentifier(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(2)
	activity.AllowGuest = true
	env := newTestEnv(activity, questions)

	result, err := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{})
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if result.GuestIdentifier == nil || *result.GuestIdentifier == "" {
		t.Fatal("no guest identifier minted for anonymous participant")
	}

	stored, err := env.responses.FindByID(result.ResponseID)
	if err != nil {
		t.Fatalf("loading created response: %v", err)
	}
	if stored.GuestIdentifier == nil || *stored.GuestIdentifier != *result.GuestIdentifier {
		t.Fatal("minted guest identifier not persisted on the response")
	}
}

func TestStartOrResumeRefusesGuestWhenNotAllowed(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(2)
	env := newTestEnv(activity, questions)

	_, err := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{GuestIdentifier: strPtr("g-1")})
	if err != apperr.ErrNotAuthorized {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
}

func TestStartOrResumeReportsSubmitted(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(2)
	env := newTestEnv(activity, questions)
	req := dto.StartOrResumeRequest{ParticipantID: uintPtr(7)}

	started, err := env.svc.StartOrResume(ctx, activity.ID, req)
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if _, err := env.svc.Finalize(ctx, started.ResponseID, dto.FinalizeRequest{}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	again, err := env.svc.StartOrResume(ctx, activity.ID, req)
	if err != nil {
		t.Fatalf("StartOrResume after submit: %v", err)
	}
	if !again.AlreadySubmitted {
		t.Fatal("submitted response not reported as already submitted")
	}
	if again.ResponseID != started.ResponseID {
		t.Fatalf("reported response %d, want the submitted one %d", again.ResponseID, started.ResponseID)
	}
}

func TestSaveProgressUpsertsAndTracksCompletion(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(4)
	env := newTestEnv(activity, questions)

	started, err := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{ParticipantID: uintPtr(1)})
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}

	result, err := env.svc.SaveProgress(ctx, started.ResponseID, json.RawMessage(`{"1": "a", "2": "b"}`))
	if err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	if result.AnsweredQuestions != 2 || result.CompletionPercentage != 50 {
		t.Fatalf("got answered=%d pct=%.2f, want 2 and 50", result.AnsweredQuestions, result.CompletionPercentage)
	}

	// Re-saving a question overwrites the row, never duplicates it.
	result, err = env.svc.SaveProgress(ctx, started.ResponseID, json.RawMessage(`{"2": "changed"}`))
	if err != nil {
		t.Fatalf("second SaveProgress: %v", err)
	}
	if result.AnsweredQuestions != 2 {
		t.Fatalf("answered = %d after overwrite, want 2", result.AnsweredQuestions)
	}
	rows, _ := env.answers.FindAllByResponseID(started.ResponseID)
	if len(rows) != 2 {
		t.Fatalf("stored %d answer rows, want 2", len(rows))
	}
	if rows[1].Value == nil || *rows[1].Value != "changed" {
		t.Fatalf("question 2 = %v, want the overwritten value", rows[1].Value)
	}
}

func TestSaveProgressRefusesSubmitted(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(2)
	env := newTestEnv(activity, questions)

	started, _ := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{ParticipantID: uintPtr(1)})
	if _, err := env.svc.Finalize(ctx, started.ResponseID, dto.FinalizeRequest{}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	_, err := env.svc.SaveProgress(ctx, started.ResponseID, json.RawMessage(`{"1": "late"}`))
	if err != apperr.ErrAlreadySubmitted {
		t.Fatalf("err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestFinalizeMergesAutosavedAnswers(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(2)
	env := newTestEnv(activity, questions)

	started, _ := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{ParticipantID: uintPtr(1)})
	if _, err := env.svc.SaveProgress(ctx, started.ResponseID, json.RawMessage(`{"1": "autosaved"}`)); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	detail, err := env.svc.Finalize(ctx, started.ResponseID, dto.FinalizeRequest{
		Answers: json.RawMessage(`{"2": "last-moment"}`),
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if detail.Status != model.ResponseStatusSubmitted {
		t.Fatalf("status = %q, want submitted", detail.Status)
	}
	if len(detail.Answers) != 2 {
		t.Fatalf("finalized with %d answers, want the merged 2: %+v", len(detail.Answers), detail.Answers)
	}
	if detail.CompletionPercentage != 100 {
		t.Fatalf("completion = %.2f, want 100", detail.CompletionPercentage)
	}
	if detail.Score != nil || detail.AssessmentResult != nil {
		t.Fatalf("survey response got a score block: %+v", detail)
	}
}

func TestFinalizeMissingRequired(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(2)
	questions[1].Required = true
	env := newTestEnv(activity, questions)

	started, _ := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{ParticipantID: uintPtr(1)})

	_, err := env.svc.Finalize(ctx, started.ResponseID, dto.FinalizeRequest{
		Answers: json.RawMessage(`{"1": "present"}`),
	})
	missing, ok := apperr.IsMissingRequired(err)
	if !ok {
		t.Fatalf("err = %v, want MissingRequiredError", err)
	}
	if len(missing.MissingQuestionIDs) != 1 || missing.MissingQuestionIDs[0] != 2 {
		t.Fatalf("missing = %v, want [2]", missing.MissingQuestionIDs)
	}

	// The refusal leaves the draft intact and keeps the merged answers.
	stored, _ := env.responses.FindByID(started.ResponseID)
	if stored.Status != model.ResponseStatusInProgress {
		t.Fatalf("status = %q after refusal, want in_progress", stored.Status)
	}
	rows, _ := env.answers.FindAllByResponseID(started.ResponseID)
	if len(rows) != 1 {
		t.Fatalf("answers rolled back: got %d rows, want 1", len(rows))
	}

	// Answering the missing question makes the retry succeed.
	if _, err := env.svc.Finalize(ctx, started.ResponseID, dto.FinalizeRequest{
		Answers: json.RawMessage(`{"2": "now present"}`),
	}); err != nil {
		t.Fatalf("retry Finalize: %v", err)
	}
}

func TestFinalizeAutoSubmitSkipsRequired(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(2)
	questions[0].Required = true
	questions[1].Required = true
	env := newTestEnv(activity, questions)

	started, _ := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{ParticipantID: uintPtr(1)})
	expired := time.Now()

	detail, err := env.svc.Finalize(ctx, started.ResponseID, dto.FinalizeRequest{
		AutoSubmitted: true,
		TimeExpiredAt: &expired,
	})
	if err != nil {
		t.Fatalf("auto-submit Finalize: %v", err)
	}
	if detail.Status != model.ResponseStatusSubmitted || !detail.AutoSubmitted {
		t.Fatalf("detail = %+v, want submitted with auto_submitted", detail)
	}
	if detail.TimeExpiredAt == nil {
		t.Fatal("time_expired_at not recorded")
	}
}

func assessmentActivity(t *testing.T) (*model.Activity, []model.Question) {
	t.Helper()
	activity := &model.Activity{
		ID:              2,
		QuestionnaireID: 20,
		Title:           "Certification quiz",
		Type:            model.ActivityTypeAssessment,
		Active:          true,
		PassThreshold:   floatPtr(75),
		MaxRetakes:      2,
	}
	questions := []model.Question{
		mkQuestion(t, 1, model.QuestionTypeSingleChoice, []string{"a", "b"}, []int{0}, false),
		mkQuestion(t, 2, model.QuestionTypeSingleChoice, []string{"a", "b"}, []int{0}, false),
		mkQuestion(t, 3, model.QuestionTypeMultipleChoice, []string{"a", "b", "c"}, []int{0, 2}, false),
		mkQuestion(t, 4, model.QuestionTypeSingleChoice, []string{"a", "b"}, []int{1}, false),
	}
	for i := range questions {
		questions[i].QuestionnaireID = 20
	}
	return activity, questions
}

func TestFinalizeScoresAssessment(t *testing.T) {
	ctx := context.Background()
	activity, questions := assessmentActivity(t)
	env := newTestEnv(activity, questions)

	started, _ := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{ParticipantID: uintPtr(5)})

	detail, err := env.svc.Finalize(ctx, started.ResponseID, dto.FinalizeRequest{
		Answers: json.RawMessage(`[
			{"question_id": 1, "value": "a"},
			{"question_id": 2, "value": "a"},
			{"question_id": 3, "value_array": ["c", "a"]},
			{"question_id": 4, "value": "a"}
		]`),
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if detail.Score == nil || *detail.Score != 75.0 {
		t.Fatalf("score = %v, want 75.00", detail.Score)
	}
	if detail.CorrectAnswersCount != 3 {
		t.Fatalf("correct = %d, want 3", detail.CorrectAnswersCount)
	}
	if detail.AssessmentResult == nil || *detail.AssessmentResult != model.AssessmentResultPass {
		t.Fatalf("result = %v, want pass at threshold 75", detail.AssessmentResult)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	activity, questions := assessmentActivity(t)
	env := newTestEnv(activity, questions)

	started, _ := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{ParticipantID: uintPtr(5)})
	req := dto.FinalizeRequest{Answers: json.RawMessage(`{"1": "a", "2": "b", "3": ["a"], "4": "b"}`)}

	first, err := env.svc.Finalize(ctx, started.ResponseID, req)
	if err != nil {
		t.Fatalf("first Finalize: %v", err)
	}

	second, err := env.svc.Finalize(ctx, started.ResponseID, req)
	if err != nil {
		t.Fatalf("duplicate Finalize: %v", err)
	}
	if !second.AlreadySubmitted {
		t.Fatal("duplicate finalize not flagged as already submitted")
	}
	if second.SubmittedAt == nil || !second.SubmittedAt.Equal(*first.SubmittedAt) {
		t.Fatalf("submitted_at changed: %v then %v", first.SubmittedAt, second.SubmittedAt)
	}
	if *second.Score != *first.Score || second.CorrectAnswersCount != first.CorrectAnswersCount {
		t.Fatalf("stored result changed on duplicate finalize: %+v vs %+v", second, first)
	}
	if env.responses.submitWins != 1 {
		t.Fatalf("submit transition ran %d times, want once", env.responses.submitWins)
	}
}

func TestFinalizeConcurrentRace(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(2)
	env := newTestEnv(activity, questions)

	started, _ := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{ParticipantID: uintPtr(9)})
	if _, err := env.svc.SaveProgress(ctx, started.ResponseID, json.RawMessage(`{"1": "x", "2": "y"}`)); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	details := make([]*dto.ResponseDetailDTO, racers)
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			details[i], errs[i] = env.svc.Finalize(ctx, started.ResponseID, dto.FinalizeRequest{})
		}(i)
	}
	wg.Wait()

	for i := 0; i < racers; i++ {
		if errs[i] != nil {
			t.Fatalf("racer %d failed: %v", i, errs[i])
		}
		if details[i].Status != model.ResponseStatusSubmitted {
			t.Fatalf("racer %d saw status %q, want submitted", i, details[i].Status)
		}
	}
	if env.responses.submitWins != 1 {
		t.Fatalf("submit transition won %d times, want exactly once", env.responses.submitWins)
	}
}

func TestPreviewRefinalizesAndReopens(t *testing.T) {
	ctx := context.Background()
	activity, questions := assessmentActivity(t)
	env := newTestEnv(activity, questions)
	req := dto.StartOrResumeRequest{ParticipantID: uintPtr(3), IsPreview: true}

	started, err := env.svc.StartOrResume(ctx, activity.ID, req)
	if err != nil {
		t.Fatalf("StartOrResume preview: %v", err)
	}

	first, err := env.svc.Finalize(ctx, started.ResponseID, dto.FinalizeRequest{
		Answers: json.RawMessage(`{"1": "a", "2": "a", "3": ["a", "c"], "4": "b"}`),
	})
	if err != nil {
		t.Fatalf("first preview Finalize: %v", err)
	}
	if first.Score == nil || *first.Score != 100.0 {
		t.Fatalf("preview score = %v, want 100.00", first.Score)
	}

	// Unlike the real track, a preview re-finalize re-scores in place.
	second, err := env.svc.Finalize(ctx, started.ResponseID, dto.FinalizeRequest{
		Answers: json.RawMessage(`{"1": "b"}`),
	})
	if err != nil {
		t.Fatalf("second preview Finalize: %v", err)
	}
	if second.AttemptNumber != 2 {
		t.Fatalf("attempt_number = %d after re-finalize, want 2", second.AttemptNumber)
	}
	if second.Score == nil || *second.Score != 75.0 {
		t.Fatalf("re-scored preview = %v, want 75.00", second.Score)
	}

	// Reopening a submitted preview clears the scoring block.
	reopened, err := env.svc.StartOrResume(ctx, activity.ID, req)
	if err != nil {
		t.Fatalf("StartOrResume on submitted preview: %v", err)
	}
	if reopened.AlreadySubmitted {
		t.Fatal("preview reported as already submitted")
	}
	if reopened.ResponseID != started.ResponseID {
		t.Fatalf("reopen created a new response: %d then %d", started.ResponseID, reopened.ResponseID)
	}
	stored, _ := env.responses.FindByID(started.ResponseID)
	if stored.Status != model.ResponseStatusInProgress || stored.Score != nil || stored.SubmittedAt != nil {
		t.Fatalf("reopened preview not reset: %+v", stored)
	}
}

func TestLoadProgress(t *testing.T) {
	ctx := context.Background()
	activity, questions := surveyActivity(4)
	env := newTestEnv(activity, questions)
	key := repository.ParticipantKey{ParticipantID: uintPtr(6)}

	result, err := env.svc.LoadProgress(ctx, activity.ID, key)
	if err != nil {
		t.Fatalf("LoadProgress without draft: %v", err)
	}
	if result.HasProgress {
		t.Fatal("reported progress before any draft exists")
	}

	started, _ := env.svc.StartOrResume(ctx, activity.ID, dto.StartOrResumeRequest{ParticipantID: uintPtr(6)})
	if _, err := env.svc.SaveProgress(ctx, started.ResponseID, json.RawMessage(`{"1": "a", "3": ["x", "y"]}`)); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	result, err = env.svc.LoadProgress(ctx, activity.ID, key)
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if !result.HasProgress || result.ResponseID == nil || *result.ResponseID != started.ResponseID {
		t.Fatalf("result = %+v, want progress for response %d", result, started.ResponseID)
	}
	if len(result.Answers) != 2 {
		t.Fatalf("restored %d answers, want 2", len(result.Answers))
	}
	if result.Answers[1].ValueArray == nil || len(result.Answers[1].ValueArray) != 2 {
		t.Fatalf("list answer not restored: %+v", result.Answers[1])
	}
	if result.CompletionPercentage != 50 {
		t.Fatalf("completion = %.2f, want 50", result.CompletionPercentage)
	}
}
