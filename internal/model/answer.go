package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Answer is one participant's value for one question within a Response.
// Value and ValueArray are mutually exclusive and always written together.
type Answer struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	ResponseID uint           `json:"response_id" gorm:"not null;uniqueIndex:idx_answers_response_question"`
	QuestionID uint           `json:"question_id" gorm:"not null;uniqueIndex:idx_answers_response_question"`
	Question   Question       `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	Value      *string        `json:"value,omitempty" gorm:"type:text"`
	ValueArray datatypes.JSON `json:"value_array,omitempty" gorm:"type:jsonb"` // []string, ordered
	TimeSpent  *int           `json:"time_spent,omitempty"`                    // seconds
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// AnswerValue is the canonical shape of one answer after normalization:
// either a scalar or an ordered list, never both.
type AnswerValue struct {
	Scalar    *string
	List      []string
	TimeSpent *int
}

// ScalarValue builds a scalar AnswerValue.
func ScalarValue(s string) AnswerValue {
	return AnswerValue{Scalar: &s}
}

// ListValue builds a list AnswerValue.
func ListValue(items []string) AnswerValue {
	return AnswerValue{List: items}
}

// IsList reports whether the value is an ordered list.
func (v AnswerValue) IsList() bool {
	return v.List != nil
}

// IsEmpty reports whether the value carries nothing at all.
func (v AnswerValue) IsEmpty() bool {
	return v.Scalar == nil && v.List == nil
}

// AsList returns the value as an ordered list, wrapping a scalar in a
// one-element list.
func (v AnswerValue) AsList() []string {
	if v.List != nil {
		return v.List
	}
	if v.Scalar != nil {
		return []string{*v.Scalar}
	}
	return nil
}

// SetValue writes an AnswerValue into the row, clearing whichever of
// Value/ValueArray does not apply so the pair stays mutually exclusive.
func (a *Answer) SetValue(v AnswerValue) {
	if v.IsList() {
		raw, err := json.Marshal(v.List)
		if err != nil {
			raw = []byte("[]")
		}
		a.Value = nil
		a.ValueArray = datatypes.JSON(raw)
	} else {
		a.Value = v.Scalar
		a.ValueArray = nil
	}
	a.TimeSpent = v.TimeSpent
}

// AnswerValueOf reads the stored row back into canonical form.
func (a *Answer) AnswerValueOf() AnswerValue {
	if len(a.ValueArray) > 0 {
		var items []string
		if err := json.Unmarshal(a.ValueArray, &items); err == nil {
			return AnswerValue{List: items, TimeSpent: a.TimeSpent}
		}
	}
	return AnswerValue{Scalar: a.Value, TimeSpent: a.TimeSpent}
}
