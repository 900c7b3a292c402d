package domain

import "errors"

var (
	// ErrKeyNotFound is returned by key/value backends for absent keys.
	ErrKeyNotFound = errors.New("key not found")
	// ErrQuestionNotFound indicates a question id is not in the bank.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionTextRequired rejects drafts whose prompt is blank.
	ErrQuestionTextRequired = errors.New("question text is required")
	// ErrNotEnoughChoices rejects drafts with fewer than two non-empty choices.
	ErrNotEnoughChoices = errors.New("provide at least two choices")
	// ErrNoCorrectAnswer rejects checkbox drafts with no surviving correct key.
	ErrNoCorrectAnswer = errors.New("select at least one correct answer")
	// ErrLastQuestion refuses to delete the only remaining question.
	ErrLastQuestion = errors.New("quiz needs at least one question")
	// ErrNoDraft is returned when an editor operation needs an open draft.
	ErrNoDraft = errors.New("no draft in progress")
)
