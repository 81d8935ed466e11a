package service

import (
	"math"
	"sort"

	"github.com/lamngo/formflow/internal/model"
)

// ScoreSummary is the outcome of scoring one finalized answer set.
type ScoreSummary struct {
	// Score is nil when no scorable question exists; it is never zero "by
	// default".
	Score               *float64
	CorrectAnswersCount int
	TotalScored         int
	Result              string // "pass", "fail", "pending"
}

// ScoringService computes assessment results deterministically from stored
// question metadata. It is a pure function of its inputs: no clock, no
// state, so tests can assert exact outputs.
type ScoringService interface {
	Score(answers map[uint]model.AnswerValue, questions []model.Question, passThreshold *float64) ScoreSummary
}

type scoringService struct{}

func NewScoringService() ScoringService {
	return &scoringService{}
}

func (s *scoringService) Score(answers map[uint]model.AnswerValue, questions []model.Question, passThreshold *float64) ScoreSummary {
	summary := ScoreSummary{Result: model.AssessmentResultPending}

	for i := range questions {
		question := &questions[i]
		if !question.Scorable() {
			continue
		}
		summary.TotalScored++

		answer, ok := answers[question.ID]
		if !ok || answer.IsEmpty() {
			continue
		}
		if isCorrect(question, answer) {
			summary.CorrectAnswersCount++
		}
	}

	if summary.TotalScored == 0 {
		return summary
	}

	score := round2(float64(summary.CorrectAnswersCount) / float64(summary.TotalScored) * 100)
	summary.Score = &score

	if passThreshold != nil {
		if score >= *passThreshold {
			summary.Result = model.AssessmentResultPass
		} else {
			summary.Result = model.AssessmentResultFail
		}
	}
	return summary
}

func isCorrect(question *model.Question, answer model.AnswerValue) bool {
	options := question.OptionList()
	correct := question.CorrectIndices()

	if question.MultiAnswer() {
		return matchMulti(options, correct, answer.AsList())
	}
	if answer.IsList() {
		// A list answer to a single-answer question never matches.
		return false
	}
	return matchSingle(options, correct, *answer.Scalar)
}

// matchSingle maps the answer label to its option index and checks
// membership in the correct-index list.
func matchSingle(options []string, correct []int, value string) bool {
	index := indexOf(options, value)
	if index < 0 {
		return false
	}
	for _, c := range correct {
		if c == index {
			return true
		}
	}
	return false
}

// matchMulti requires exact set equality between the submitted option
// indices and the correct indices. Labels that match no option are
// discarded; order is irrelevant.
func matchMulti(options []string, correct []int, values []string) bool {
	submitted := make([]int, 0, len(values))
	for _, value := range values {
		if index := indexOf(options, value); index >= 0 {
			submitted = append(submitted, index)
		}
	}
	if len(submitted) != len(correct) {
		return false
	}

	sortedCorrect := append([]int(nil), correct...)
	sort.Ints(submitted)
	sort.Ints(sortedCorrect)
	for i := range submitted {
		if submitted[i] != sortedCorrect[i] {
			return false
		}
	}
	return true
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
