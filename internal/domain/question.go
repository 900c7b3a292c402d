package domain

import (
	"encoding/json"
	"sort"
)

// QuestionType tags the answer shape of a question.
type QuestionType string

const (
	// TypeMultiple is a single-answer multiple-choice question.
	TypeMultiple QuestionType = "multiple"
	// TypeTrueFalse is a two-choice question fixed to True/False.
	TypeTrueFalse QuestionType = "truefalse"
	// TypeCheckbox is a multi-select question answered by a set of keys.
	TypeCheckbox QuestionType = "checkbox"
)

// ValidType reports whether raw is one of the known question types.
func ValidType(raw string) bool {
	switch QuestionType(raw) {
	case TypeMultiple, TypeTrueFalse, TypeCheckbox:
		return true
	}
	return false
}

// Answer holds either a single choice key (multiple/truefalse) or a set of
// choice keys (checkbox). The zero value represents "no answer".
type Answer struct {
	Key  string
	Keys []string
	Set  bool
}

// SingleAnswer builds a scalar answer.
func SingleAnswer(key string) Answer {
	return Answer{Key: key}
}

// SetAnswer builds a checkbox-style answer set.
func SetAnswer(keys ...string) Answer {
	return Answer{Keys: append([]string(nil), keys...), Set: true}
}

// SortedKeys returns the set keys deduplicated and sorted. Scalar answers
// yield an empty slice.
func (a Answer) SortedKeys() []string {
	seen := make(map[string]struct{}, len(a.Keys))
	out := make([]string, 0, len(a.Keys))
	for _, key := range a.Keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of the answer.
func (a Answer) Clone() Answer {
	if a.Set {
		return SetAnswer(a.Keys...)
	}
	return Answer{Key: a.Key}
}

// MarshalJSON encodes scalar answers as a string and sets as an array,
// matching the persisted bank format.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Set {
		keys := a.Keys
		if keys == nil {
			keys = []string{}
		}
		return json.Marshal(keys)
	}
	return json.Marshal(a.Key)
}

// UnmarshalJSON accepts either a string or an array of strings. Any other
// shape decodes to the zero answer; the bank decoder repairs it.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var key string
	if err := json.Unmarshal(data, &key); err == nil {
		*a = Answer{Key: key}
		return nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err == nil {
		*a = Answer{Keys: keys, Set: true}
		return nil
	}
	*a = Answer{}
	return nil
}

// Question is one quiz item. Choice keys are short labels ("A".."D") whose
// lexicographic order is the display order.
type Question struct {
	ID      int
	Type    QuestionType
	Prompt  string
	Choices map[string]string
	Answer  Answer
}

// ChoiceKeys returns the choice keys in display order.
func (q Question) ChoiceKeys() []string {
	keys := make([]string, 0, len(q.Choices))
	for key := range q.Choices {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// HasChoice reports whether key identifies one of the question's choices.
func (q Question) HasChoice(key string) bool {
	_, ok := q.Choices[key]
	return ok
}

// Clone returns a deep copy of the question.
func (q Question) Clone() Question {
	choices := make(map[string]string, len(q.Choices))
	for key, text := range q.Choices {
		choices[key] = text
	}
	return Question{
		ID:      q.ID,
		Type:    q.Type,
		Prompt:  q.Prompt,
		Choices: choices,
		Answer:  q.Answer.Clone(),
	}
}

type questionJSON struct {
	ID       int               `json:"id"`
	Type     QuestionType      `json:"type"`
	Question string            `json:"question"`
	Choices  map[string]string `json:"choices"`
	Answer   Answer            `json:"answer"`
}

// MarshalJSON writes the persisted bank shape: the prompt is stored under
// "question" and the answer as a string or array depending on type.
func (q Question) MarshalJSON() ([]byte, error) {
	choices := q.Choices
	if choices == nil {
		choices = map[string]string{}
	}
	return json.Marshal(questionJSON{
		ID:       q.ID,
		Type:     q.Type,
		Question: q.Prompt,
		Choices:  choices,
		Answer:   q.Answer,
	})
}

// UnmarshalJSON decodes the persisted bank shape. Field-level repair happens
// in DecodeBank; this decoder only maps names.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw questionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = Question{
		ID:      raw.ID,
		Type:    raw.Type,
		Prompt:  raw.Question,
		Choices: raw.Choices,
		Answer:  raw.Answer,
	}
	return nil
}

// CloneQuestions deep-copies a question list.
func CloneQuestions(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
	}
	return out
}
