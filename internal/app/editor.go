package app

import (
	"sort"
	"strings"

	"solo-quiz-service/internal/domain"
)

// draftSlots are the fixed editor slots. True/false questions only use A and B.
var draftSlots = []string{"A", "B", "C", "D"}

// Draft is an in-memory candidate question being created (ID nil) or edited
// (ID set). Choices keeps one entry per slot; blank slots are dropped when
// the draft is normalized.
type Draft struct {
	ID      *int                `json:"id"`
	Type    domain.QuestionType `json:"type"`
	Prompt  string              `json:"question"`
	Choices map[string]string   `json:"choices"`
	Answer  domain.Answer       `json:"answer"`
}

// NewDraft returns an empty multiple-choice draft.
func NewDraft() Draft {
	choices := make(map[string]string, len(draftSlots))
	for _, slot := range draftSlots {
		choices[slot] = ""
	}
	return Draft{
		Type:    domain.TypeMultiple,
		Choices: choices,
		Answer:  domain.SingleAnswer("A"),
	}
}

// DraftOf copies an existing question into an editable draft, restoring the
// blank slots the editor expects.
func DraftOf(q domain.Question) Draft {
	id := q.ID
	choices := make(map[string]string, len(draftSlots))
	for _, slot := range draftSlots {
		choices[slot] = q.Choices[slot]
	}
	for key, text := range q.Choices {
		choices[key] = text
	}
	return Draft{
		ID:      &id,
		Type:    q.Type,
		Prompt:  q.Prompt,
		Choices: choices,
		Answer:  q.Answer.Clone(),
	}
}

// WithType switches the draft's question type, resetting its shape:
// truefalse forces the choices to True/False with answer A, checkbox wraps a
// scalar answer into a singleton set, and the single-answer types collapse a
// set back to its first key (or A).
func (d Draft) WithType(t domain.QuestionType) Draft {
	d.Type = t
	switch t {
	case domain.TypeTrueFalse:
		d.Choices = map[string]string{"A": "True", "B": "False", "C": "", "D": ""}
		d.Answer = domain.SingleAnswer("A")
	case domain.TypeCheckbox:
		if !d.Answer.Set {
			key := d.Answer.Key
			if key == "" {
				key = "A"
			}
			d.Answer = domain.SetAnswer(key)
		}
	default:
		if d.Answer.Set {
			key := "A"
			if len(d.Answer.Keys) > 0 {
				key = d.Answer.Keys[0]
			}
			d.Answer = domain.SingleAnswer(key)
		}
	}
	return d
}

// NormalizeDraft validates a draft against the current bank and produces the
// question record to persist. Choice slots with blank text are dropped. A
// checkbox answer set is filtered to the surviving keys; a scalar answer that
// no longer names a surviving key silently falls back to the first available
// key rather than rejecting the edit.
func NormalizeDraft(d Draft, bank []domain.Question) (domain.Question, error) {
	prompt := strings.TrimSpace(d.Prompt)
	if prompt == "" {
		return domain.Question{}, domain.ErrQuestionTextRequired
	}

	cleaned := make(map[string]string, len(d.Choices))
	for key, text := range d.Choices {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			cleaned[key] = trimmed
		}
	}
	if len(cleaned) < 2 {
		return domain.Question{}, domain.ErrNotEnoughChoices
	}

	answer := d.Answer
	if d.Type == domain.TypeCheckbox {
		kept := make([]string, 0, len(answer.Keys))
		for _, key := range answer.Keys {
			if _, ok := cleaned[key]; ok {
				kept = append(kept, key)
			}
		}
		if len(kept) == 0 {
			return domain.Question{}, domain.ErrNoCorrectAnswer
		}
		answer = domain.SetAnswer(kept...)
	} else {
		key := answer.Key
		if _, ok := cleaned[key]; answer.Set || !ok {
			key = firstChoiceKey(cleaned)
		}
		answer = domain.SingleAnswer(key)
	}

	id := NextQuestionID(bank)
	if d.ID != nil {
		id = *d.ID
	}
	return domain.Question{
		ID:      id,
		Type:    d.Type,
		Prompt:  prompt,
		Choices: cleaned,
		Answer:  answer,
	}, nil
}

// NextQuestionID returns max(existing ids)+1, or 1 for an empty bank.
func NextQuestionID(bank []domain.Question) int {
	max := 0
	for _, q := range bank {
		if q.ID > max {
			max = q.ID
		}
	}
	return max + 1
}

func firstChoiceKey(choices map[string]string) string {
	keys := make([]string, 0, len(choices))
	for key := range choices {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys[0]
}
