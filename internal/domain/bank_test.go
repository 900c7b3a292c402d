package domain_test

import (
	"reflect"
	"testing"

	"solo-quiz-service/internal/domain"
)

func TestDecodeBankRejectsBadShapes(t *testing.T) {
	cases := map[string]string{
		"not json":     "{oops",
		"not an array": `{"id":1}`,
		"empty array":  `[]`,
		"only scalars": `[1,"two",null]`,
	}
	for name, raw := range cases {
		if _, ok := domain.DecodeBank([]byte(raw)); ok {
			t.Errorf("%s: expected fallback, got ok", name)
		}
	}
}

func TestDecodeBankRepairsElements(t *testing.T) {
	raw := `[
		{"type":"mystery","choices":{"A":"x","B":"y"}},
		{"id":"nope","type":"truefalse","question":"Up is down.","choices":{"A":"True","B":"False"},"answer":"B"},
		{"id":7,"type":"checkbox","question":"Pick some.","answer":["A","C"]}
	]`
	questions, ok := domain.DecodeBank([]byte(raw))
	if !ok {
		t.Fatalf("expected decode to succeed")
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}

	first := questions[0]
	if first.ID != 1 || first.Type != domain.TypeMultiple || first.Prompt != "Untitled question" {
		t.Fatalf("expected repaired first question, got %+v", first)
	}

	second := questions[1]
	if second.ID != 2 {
		t.Fatalf("expected positional id 2 for invalid id, got %d", second.ID)
	}
	if second.Answer.Key != "B" {
		t.Fatalf("expected answer B, got %+v", second.Answer)
	}

	third := questions[2]
	if third.ID != 7 || !third.Answer.Set {
		t.Fatalf("expected id 7 with set answer, got %+v", third)
	}
	if len(third.Choices) != 0 {
		t.Fatalf("expected empty choices for missing map, got %v", third.Choices)
	}
}

func TestBankRoundTrip(t *testing.T) {
	original := domain.DefaultQuestions()

	encoded, err := domain.EncodeBank(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, ok := domain.DecodeBank([]byte(encoded))
	if !ok {
		t.Fatalf("decode failed")
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", original, decoded)
	}
}

func TestDefaultQuestionsAreCloned(t *testing.T) {
	a := domain.DefaultQuestions()
	a[0].Choices["A"] = "mutated"
	b := domain.DefaultQuestions()
	if b[0].Choices["A"] == "mutated" {
		t.Fatalf("default set must not share state between calls")
	}
}

func TestAnswerSortedKeysDedupes(t *testing.T) {
	answer := domain.SetAnswer("C", "A", "C", "B", "A")
	got := answer.SortedKeys()
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
