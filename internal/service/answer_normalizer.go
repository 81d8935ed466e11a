package service

import (
	"encoding/json"

	"github.com/lamngo/formflow/internal/model"
	"github.com/rs/zerolog/log"
)

// AnswerNormalizer folds the two raw payload shapes clients send into one
// canonical map. Shape (a) is an array of {question_id, value|value_array}
// objects; shape (b) is already a map of questionId -> value. Malformed
// input yields an empty map rather than an error: an autosave round with
// nothing usable still must not fail the questions that did commit earlier.
type AnswerNormalizer interface {
	Normalize(raw json.RawMessage) map[uint]model.AnswerValue
}

type answerNormalizer struct{}

func NewAnswerNormalizer() AnswerNormalizer {
	return &answerNormalizer{}
}

// rawAnswerEntry is one element of the array shape.
type rawAnswerEntry struct {
	QuestionID json.Number     `json:"question_id"`
	Value      json.RawMessage `json:"value"`
	ValueArray json.RawMessage `json:"value_array"`
	TimeSpent  *int            `json:"time_spent"`
}

func (n *answerNormalizer) Normalize(raw json.RawMessage) map[uint]model.AnswerValue {
	out := make(map[uint]model.AnswerValue)
	if len(raw) == 0 {
		return out
	}

	// Shape detection inspects the first element: an array whose entries
	// carry a question_id key is form (a), folded last-write-wins.
	var entries []rawAnswerEntry
	if err := json.Unmarshal(raw, &entries); err == nil {
		for _, entry := range entries {
			questionID, ok := parseQuestionID(entry.QuestionID)
			if !ok {
				continue
			}
			value, ok := decodeEntryValue(entry)
			if !ok {
				continue
			}
			out[questionID] = value
		}
		return out
	}

	var byQuestion map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byQuestion); err == nil {
		for key, rawValue := range byQuestion {
			questionID, ok := parseQuestionID(json.Number(key))
			if !ok {
				continue
			}
			value, ok := decodeValue(rawValue)
			if !ok {
				continue
			}
			out[questionID] = value
		}
		return out
	}

	log.Warn().Msg("Answer payload is neither an entry list nor a question map, treating as empty")
	return out
}

func parseQuestionID(num json.Number) (uint, bool) {
	id, err := num.Int64()
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func decodeEntryValue(entry rawAnswerEntry) (model.AnswerValue, bool) {
	if len(entry.ValueArray) > 0 && string(entry.ValueArray) != "null" {
		items, ok := decodeScalarList(entry.ValueArray)
		if !ok {
			return model.AnswerValue{}, false
		}
		return model.AnswerValue{List: items, TimeSpent: entry.TimeSpent}, true
	}
	value, ok := decodeValue(entry.Value)
	if !ok {
		return model.AnswerValue{}, false
	}
	value.TimeSpent = entry.TimeSpent
	return value, true
}

// decodeValue accepts a scalar or an array of scalars.
func decodeValue(raw json.RawMessage) (model.AnswerValue, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return model.AnswerValue{}, false
	}
	if raw[0] == '[' {
		items, ok := decodeScalarList(raw)
		if !ok {
			return model.AnswerValue{}, false
		}
		return model.AnswerValue{List: items}, true
	}
	scalar, ok := decodeScalar(raw)
	if !ok {
		return model.AnswerValue{}, false
	}
	return model.ScalarValue(scalar), true
}

func decodeScalarList(raw json.RawMessage) ([]string, bool) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, false
	}
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		scalar, ok := decodeScalar(part)
		if !ok {
			continue
		}
		items = append(items, scalar)
	}
	return items, true
}

// decodeScalar renders a JSON string, number, or bool as its string form.
// Option matching downstream is purely label-based, so one representation
// is enough.
func decodeScalar(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "true", true
		}
		return "false", true
	}
	return "", false
}
