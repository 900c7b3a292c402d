package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"solo-quiz-service/internal/domain"
)

// Storage keys, kept compatible with earlier releases of the app so an
// existing device keeps its bank, timer, and scores.
const (
	keyQuestions = "quiz.items.v1"
	keyTimer     = "quiz.timerSeconds.v1"
	keyHighest   = "quiz.highestScore.v1"
	keyLast      = "quiz.lastScore.v1"
)

// DefaultTimerSeconds applies when no timer duration has been persisted.
const DefaultTimerSeconds = 180

// KeyValue is the durable medium behind the bank and settings stores
// (in-memory, Redis, Postgres). Get returns domain.ErrKeyNotFound for
// absent keys.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// BankStore persists the question bank. Corrupt or missing payloads fall
// back to the built-in default set; a decoded bank is cached in-process and
// invalidated on save.
type BankStore struct {
	kv KeyValue
	sf singleflight.Group

	mu     sync.RWMutex
	cached []domain.Question
}

func NewBankStore(kv KeyValue) *BankStore {
	return &BankStore{kv: kv}
}

// Load returns the current bank. Callers receive a copy.
func (b *BankStore) Load(ctx context.Context) ([]domain.Question, error) {
	b.mu.RLock()
	if b.cached != nil {
		defer b.mu.RUnlock()
		return domain.CloneQuestions(b.cached), nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do(keyQuestions, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		b.mu.RLock()
		if b.cached != nil {
			defer b.mu.RUnlock()
			return domain.CloneQuestions(b.cached), nil
		}
		b.mu.RUnlock()

		questions, err := b.read(ctx)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.cached = domain.CloneQuestions(questions)
		b.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// read fetches and repairs the persisted bank. Only backend failures are
// errors; a malformed payload is recovered with the default set.
func (b *BankStore) read(ctx context.Context) ([]domain.Question, error) {
	raw, err := b.kv.Get(ctx, keyQuestions)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return domain.DefaultQuestions(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	questions, ok := domain.DecodeBank([]byte(raw))
	if !ok {
		return domain.DefaultQuestions(), nil
	}
	return questions, nil
}

// Save persists the bank and refreshes the cache.
func (b *BankStore) Save(ctx context.Context, questions []domain.Question) error {
	encoded, err := domain.EncodeBank(questions)
	if err != nil {
		return fmt.Errorf("encode question bank: %w", err)
	}
	if err := b.kv.Set(ctx, keyQuestions, encoded); err != nil {
		return fmt.Errorf("save question bank: %w", err)
	}

	b.mu.Lock()
	b.cached = domain.CloneQuestions(questions)
	b.mu.Unlock()
	return nil
}

// SettingsStore persists the timer duration and the two score counters.
// Absent or corrupt entries yield defaults, never errors.
type SettingsStore struct {
	kv KeyValue
}

func NewSettingsStore(kv KeyValue) *SettingsStore {
	return &SettingsStore{kv: kv}
}

// TimerSeconds returns the configured countdown duration; zero disables the
// timer.
func (s *SettingsStore) TimerSeconds(ctx context.Context) (int, error) {
	return s.readInt(ctx, keyTimer, DefaultTimerSeconds)
}

// SetTimerSeconds persists the countdown duration. Negative values clamp to
// zero (no timer).
func (s *SettingsStore) SetTimerSeconds(ctx context.Context, seconds int) error {
	if seconds < 0 {
		seconds = 0
	}
	if err := s.kv.Set(ctx, keyTimer, strconv.Itoa(seconds)); err != nil {
		return fmt.Errorf("save timer: %w", err)
	}
	return nil
}

// HighestScore returns the best persisted score.
func (s *SettingsStore) HighestScore(ctx context.Context) (int, error) {
	return s.readInt(ctx, keyHighest, 0)
}

// LastScore returns the most recent attempt's score.
func (s *SettingsStore) LastScore(ctx context.Context) (int, error) {
	return s.readInt(ctx, keyLast, 0)
}

// SetLastScore records the score of a finished attempt.
func (s *SettingsStore) SetLastScore(ctx context.Context, score int) error {
	if err := s.kv.Set(ctx, keyLast, strconv.Itoa(score)); err != nil {
		return fmt.Errorf("save last score: %w", err)
	}
	return nil
}

// SetHighestScore records a new best score.
func (s *SettingsStore) SetHighestScore(ctx context.Context, score int) error {
	if err := s.kv.Set(ctx, keyHighest, strconv.Itoa(score)); err != nil {
		return fmt.Errorf("save highest score: %w", err)
	}
	return nil
}

// ResetScores zeroes both counters. Called whenever the bank changes, since
// old scores no longer describe the current question set.
func (s *SettingsStore) ResetScores(ctx context.Context) error {
	if err := s.SetHighestScore(ctx, 0); err != nil {
		return err
	}
	return s.SetLastScore(ctx, 0)
}

func (s *SettingsStore) readInt(ctx context.Context, key string, fallback int) (int, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", key, err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback, nil
	}
	return n, nil
}
