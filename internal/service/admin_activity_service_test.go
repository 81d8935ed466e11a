package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/lamngo/formflow/internal/apperr"
	"github.com/lamngo/formflow/internal/dto"
	"github.com/lamngo/formflow/internal/model"
	"github.com/lamngo/formflow/internal/service"
)

type fakeQuestionnaireRepo struct {
	nextID  uint
	created []*model.Questionnaire
}

func (r *fakeQuestionnaireRepo) Create(questionnaire *model.Questionnaire) error {
	r.nextID++
	questionnaire.ID = r.nextID
	r.created = append(r.created, questionnaire)
	return nil
}

func (r *fakeQuestionnaireRepo) FindByID(id uint) (*model.Questionnaire, error) {
	for _, q := range r.created {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *fakeQuestionnaireRepo) FindByIDWithQuestions(id uint) (*model.Questionnaire, error) {
	return r.FindByID(id)
}

func newAdminService() (service.AdminActivityService, *fakeActivityRepo, *fakeQuestionnaireRepo) {
	activities := &fakeActivityRepo{activities: make(map[uint]*model.Activity)}
	questionnaires := &fakeQuestionnaireRepo{}
	questions := &fakeQuestionRepo{byQuestionnaire: make(map[uint][]model.Question)}
	return service.NewAdminActivityService(activities, questionnaires, questions), activities, questionnaires
}

func validAssessmentCreate() dto.ActivityCreateDTO {
	return dto.ActivityCreateDTO{
		Title: "Onboarding quiz",
		Type:  model.ActivityTypeAssessment,
		Sections: []dto.SectionCreateDTO{
			{
				Title: "Basics",
				Order: 1,
				Questions: []dto.QuestionCreateDTO{
					{
						Text:           "Pick one",
						Type:           model.QuestionTypeSingleChoice,
						Options:        []string{"a", "b", "c"},
						CorrectAnswers: []int{1},
						OrderInSection: 1,
					},
					{
						Text:           "Anything else?",
						Type:           model.QuestionTypeText,
						OrderInSection: 2,
					},
				},
			},
		},
	}
}

func TestCreateActivity(t *testing.T) {
	svc, activities, questionnaires := newAdminService()

	created, err := svc.CreateActivity(context.Background(), validAssessmentCreate())
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}
	if created.QuestionCount != 2 {
		t.Fatalf("question_count = %d, want 2", created.QuestionCount)
	}

	questionnaire := questionnaires.created[0]
	if created.QuestionnaireID != questionnaire.ID {
		t.Fatalf("acknowledged questionnaire %d, created %d", created.QuestionnaireID, questionnaire.ID)
	}
	if len(questionnaire.Sections) != 1 || len(questionnaire.Sections[0].Questions) != 2 {
		t.Fatalf("questionnaire shape wrong: %+v", questionnaire)
	}
	scored := questionnaire.Sections[0].Questions[0]
	if !scored.Scorable() {
		t.Fatal("choice question lost its correct-answer metadata")
	}
	if indices := scored.CorrectIndices(); len(indices) != 1 || indices[0] != 1 {
		t.Fatalf("correct indices = %v, want [1]", indices)
	}

	activity := activities.activities[created.ActivityID]
	if activity == nil {
		t.Fatal("activity not persisted")
	}
	if !activity.Active || activity.QuestionnaireID != questionnaire.ID {
		t.Fatalf("activity = %+v, want active and bound to the questionnaire", activity)
	}
	if activity.MaxRetakes != 1 {
		t.Fatalf("max_retakes = %d, want default 1", activity.MaxRetakes)
	}
}

func TestCreateActivityRejectsUnscorableAssessment(t *testing.T) {
	svc, _, _ := newAdminService()

	req := validAssessmentCreate()
	req.Sections[0].Questions[0].CorrectAnswers = nil

	if _, err := svc.CreateActivity(context.Background(), req); err == nil {
		t.Fatal("assessment without scorable questions accepted")
	}
}

func TestCreateActivityRejectsOutOfRangeCorrectIndex(t *testing.T) {
	svc, _, _ := newAdminService()

	req := validAssessmentCreate()
	req.Sections[0].Questions[0].CorrectAnswers = []int{5}

	if _, err := svc.CreateActivity(context.Background(), req); err == nil {
		t.Fatal("correct index beyond the option list accepted")
	}
}

func TestCreateActivityRejectsInvertedDateWindow(t *testing.T) {
	svc, _, _ := newAdminService()

	req := validAssessmentCreate()
	start := time.Now()
	end := start.Add(-time.Hour)
	req.StartDate = &start
	req.EndDate = &end

	if _, err := svc.CreateActivity(context.Background(), req); err == nil {
		t.Fatal("end date before start date accepted")
	}
}
