package app

import "solo-quiz-service/internal/domain"

// IsCorrect reports whether answer matches the question's expected answer.
// Checkbox questions compare deduplicated key sets, so order and repeats do
// not matter. Other types require the scalar key to match exactly. The zero
// Answer never matches a well-formed question.
func IsCorrect(q domain.Question, answer domain.Answer) bool {
	if q.Type == domain.TypeCheckbox {
		expected := q.Answer.SortedKeys()
		got := answer.SortedKeys()
		if len(expected) != len(got) {
			return false
		}
		for i := range expected {
			if expected[i] != got[i] {
				return false
			}
		}
		return true
	}
	return !answer.Set && answer.Key == q.Answer.Key
}

// ComputeScore sums IsCorrect over the bank. With onlyAnswered, questions
// with no recorded answer are skipped (live "score so far"); without it they
// count as incorrect (final scoring).
func ComputeScore(questions []domain.Question, answers map[int]domain.Answer, onlyAnswered bool) int {
	score := 0
	for _, q := range questions {
		answer, answered := answers[q.ID]
		if onlyAnswered && !answered {
			continue
		}
		if answered && IsCorrect(q, answer) {
			score++
		}
	}
	return score
}
