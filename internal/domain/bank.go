package domain

import "encoding/json"

// defaultQuestions is the built-in bank used whenever no valid bank has been
// persisted yet. Callers always receive a clone.
var defaultQuestions = []Question{
	{
		ID:     1,
		Type:   TypeMultiple,
		Prompt: "Which keyword declares a constant in Go?",
		Choices: map[string]string{
			"A": "let",
			"B": "const",
			"C": "static",
			"D": "final",
		},
		Answer: SingleAnswer("B"),
	},
	{
		ID:     2,
		Type:   TypeTrueFalse,
		Prompt: "A slice shares its backing array with the array it was sliced from.",
		Choices: map[string]string{
			"A": "True",
			"B": "False",
		},
		Answer: SingleAnswer("A"),
	},
	{
		ID:     3,
		Type:   TypeCheckbox,
		Prompt: "Which of these are built-in Go types?",
		Choices: map[string]string{
			"A": "rune",
			"B": "decimal",
			"C": "complex128",
			"D": "char",
		},
		Answer: SetAnswer("A", "C"),
	},
	{
		ID:     4,
		Type:   TypeMultiple,
		Prompt: "What does the blank identifier _ do in an assignment?",
		Choices: map[string]string{
			"A": "Declares a global variable",
			"B": "Panics at runtime",
			"C": "Discards the value",
			"D": "Creates a pointer",
		},
		Answer: SingleAnswer("C"),
	},
	{
		ID:     5,
		Type:   TypeTrueFalse,
		Prompt: "Maps in Go iterate in a guaranteed insertion order.",
		Choices: map[string]string{
			"A": "True",
			"B": "False",
		},
		Answer: SingleAnswer("B"),
	},
}

// DefaultQuestions returns a copy of the built-in question set.
func DefaultQuestions() []Question {
	return CloneQuestions(defaultQuestions)
}

// DecodeBank parses a persisted question bank. It returns ok=false when the
// payload is not a non-empty JSON array with at least one object element, in
// which case callers fall back to the default set. Individual elements are
// repaired rather than rejected: a missing or invalid id becomes the
// positional id, an unknown type becomes "multiple", a missing prompt becomes
// a placeholder, and missing choices become an empty map.
func DecodeBank(raw []byte) ([]Question, bool) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, false
	}
	if len(elements) == 0 {
		return nil, false
	}

	questions := make([]Question, 0, len(elements))
	for idx, element := range elements {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(element, &fields); err != nil || fields == nil {
			continue
		}
		questions = append(questions, repairQuestion(fields, idx))
	}
	if len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

// EncodeBank serializes a bank for persistence.
func EncodeBank(questions []Question) (string, error) {
	data, err := json.Marshal(questions)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func repairQuestion(fields map[string]json.RawMessage, idx int) Question {
	q := Question{
		ID:      idx + 1,
		Type:    TypeMultiple,
		Prompt:  "Untitled question",
		Choices: map[string]string{},
		Answer:  SingleAnswer("A"),
	}

	if raw, ok := fields["id"]; ok {
		var id float64
		if err := json.Unmarshal(raw, &id); err == nil {
			q.ID = int(id)
		}
	}
	if raw, ok := fields["type"]; ok {
		var typ string
		if err := json.Unmarshal(raw, &typ); err == nil && ValidType(typ) {
			q.Type = QuestionType(typ)
		}
	}
	if raw, ok := fields["question"]; ok {
		var prompt string
		if err := json.Unmarshal(raw, &prompt); err == nil && prompt != "" {
			q.Prompt = prompt
		}
	}
	if raw, ok := fields["choices"]; ok {
		var choices map[string]string
		if err := json.Unmarshal(raw, &choices); err == nil && choices != nil {
			q.Choices = choices
		}
	}
	if raw, ok := fields["answer"]; ok {
		var answer Answer
		if err := json.Unmarshal(raw, &answer); err == nil && (answer.Set || answer.Key != "") {
			q.Answer = answer
		}
	}
	return q
}
