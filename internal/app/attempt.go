package app

import "solo-quiz-service/internal/domain"

// Phase is the attempt lifecycle state.
type Phase string

const (
	PhaseHome       Phase = "home"
	PhaseInProgress Phase = "inProgress"
	PhaseResults    Phase = "results"
)

// Attempt is one play-through of the bank. It is an immutable value: the
// transition functions below return the successor state and the service
// applies side effects (persistence, countdown scheduling) afterwards.
type Attempt struct {
	Phase     Phase
	Index     int
	Answers   map[int]domain.Answer
	TimerOn   bool
	Remaining int
}

func newAttempt() Attempt {
	return Attempt{Phase: PhaseHome}
}

// startAttempt begins a fresh in-progress attempt, arming the countdown when
// timerSeconds is positive.
func startAttempt(timerSeconds int) Attempt {
	a := Attempt{
		Phase:   PhaseInProgress,
		Answers: make(map[int]domain.Answer),
	}
	if timerSeconds > 0 {
		a.TimerOn = true
		a.Remaining = timerSeconds
	}
	return a
}

// selectAnswer records a choice for q. Single-answer types replace the stored
// answer; checkbox types toggle membership of key in the stored set. Invalid
// keys and wrong phases are no-ops.
func selectAnswer(a Attempt, q domain.Question, key string) Attempt {
	if a.Phase != PhaseInProgress || !q.HasChoice(key) {
		return a
	}

	answers := make(map[int]domain.Answer, len(a.Answers)+1)
	for id, answer := range a.Answers {
		answers[id] = answer
	}

	if q.Type == domain.TypeCheckbox {
		prev := answers[q.ID]
		keys := make([]string, 0, len(prev.Keys)+1)
		removed := false
		for _, k := range prev.Keys {
			if k == key {
				removed = true
				continue
			}
			keys = append(keys, k)
		}
		if !removed {
			keys = append(keys, key)
		}
		answers[q.ID] = domain.SetAnswer(keys...)
	} else {
		answers[q.ID] = domain.SingleAnswer(key)
	}

	a.Answers = answers
	return a
}

// move shifts the current index by delta, clamped to the bank bounds. Moving
// forward past the last question reports finished instead.
func move(a Attempt, delta, questionCount int) (Attempt, bool) {
	if a.Phase != PhaseInProgress || questionCount == 0 {
		return a, false
	}
	if delta > 0 && a.Index >= questionCount-1 {
		return a, true
	}
	a.Index = clamp(a.Index+delta, 0, questionCount-1)
	return a, false
}

// tick consumes one second of the countdown and reports expiry at zero.
func tick(a Attempt) (Attempt, bool) {
	if a.Phase != PhaseInProgress || !a.TimerOn {
		return a, false
	}
	a.Remaining--
	if a.Remaining <= 0 {
		a.Remaining = 0
		return a, true
	}
	return a, false
}

// finishAttempt freezes the attempt into the results phase.
func finishAttempt(a Attempt) Attempt {
	a.Phase = PhaseResults
	a.TimerOn = false
	a.Remaining = 0
	return a
}

func clamp(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
