package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"solo-quiz-service/internal/domain"
)

// QuizService owns the application state: the loaded bank, the single
// current attempt, the single open draft, and the countdown handle. All
// mutations run under one lock; transitions go through the pure functions in
// attempt.go and side effects (persistence, timer scheduling) are applied
// here afterwards.
type QuizService struct {
	bank      *BankStore
	settings  *SettingsStore
	tickEvery time.Duration

	mu          sync.Mutex
	questions   []domain.Question
	attempt     Attempt
	draft       *Draft
	countdown   *countdown
	subscribers map[chan Snapshot]struct{}
}

func NewQuizService(bank *BankStore, settings *SettingsStore) *QuizService {
	return NewQuizServiceWithTick(bank, settings, time.Second)
}

// NewQuizServiceWithTick is test-only for deterministic countdowns.
func NewQuizServiceWithTick(bank *BankStore, settings *SettingsStore, tickEvery time.Duration) *QuizService {
	return &QuizService{
		bank:        bank,
		settings:    settings,
		tickEvery:   tickEvery,
		attempt:     newAttempt(),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Snapshot is the state a presentation shell needs to render any view.
type Snapshot struct {
	Phase         Phase            `json:"phase"`
	QuestionCount int              `json:"questionCount"`
	Index         int              `json:"index"`
	Question      *domain.Question `json:"question,omitempty"`
	Selected      *domain.Answer   `json:"selected,omitempty"`
	Answered      int              `json:"answered"`
	Score         int              `json:"score"`
	TimerSeconds  int              `json:"timerSeconds"`
	TimerOn       bool             `json:"timerOn"`
	Remaining     int              `json:"remaining"`
	TimeLeft      string           `json:"timeLeft"`
	Highest       int              `json:"highest"`
	Last          int              `json:"last"`
}

// Start begins a fresh attempt from Home or Results, arming the countdown
// when a timer duration is configured.
func (s *QuizService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureQuestionsLocked(ctx); err != nil {
		return err
	}
	timerSeconds, err := s.settings.TimerSeconds(ctx)
	if err != nil {
		return err
	}

	s.attempt = startAttempt(timerSeconds)
	if s.attempt.TimerOn {
		s.startCountdownLocked()
	} else {
		s.stopCountdownLocked()
	}
	return s.broadcastLocked(ctx)
}

// SelectAnswer records a choice for a question. Unknown question ids or
// choice keys are ignored; the shells only offer valid keys.
func (s *QuizService) SelectAnswer(ctx context.Context, questionID int, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt.Phase != PhaseInProgress {
		return nil
	}
	for _, q := range s.questions {
		if q.ID == questionID {
			s.attempt = selectAnswer(s.attempt, q, key)
			break
		}
	}
	return s.broadcastLocked(ctx)
}

// Next advances to the following question; past the last question it
// finishes the attempt instead.
func (s *QuizService) Next(ctx context.Context) error {
	return s.move(ctx, 1)
}

// Previous steps back one question, clamped at the first.
func (s *QuizService) Previous(ctx context.Context) error {
	return s.move(ctx, -1)
}

func (s *QuizService) move(ctx context.Context, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, finished := move(s.attempt, delta, len(s.questions))
	if finished {
		if err := s.finishLocked(ctx); err != nil {
			return err
		}
	} else {
		s.attempt = next
	}
	return s.broadcastLocked(ctx)
}

// Finish submits the attempt: the final score (unanswered counting as
// incorrect) is persisted as the last score and, when it beats the stored
// best, as the highest score.
func (s *QuizService) Finish(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt.Phase != PhaseInProgress {
		return nil
	}
	if err := s.finishLocked(ctx); err != nil {
		return err
	}
	return s.broadcastLocked(ctx)
}

// Home abandons any attempt and returns to the home view. Only the derived
// scores survive; the attempt itself is never persisted.
func (s *QuizService) Home(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopCountdownLocked()
	s.attempt = newAttempt()
	return s.broadcastLocked(ctx)
}

// Suspend stops the countdown without finishing the attempt, for when the
// shell switches to the settings view mid-quiz. The countdown is not
// resumed; returning to the quiz goes through Start.
func (s *QuizService) Suspend(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopCountdownLocked()
	return s.broadcastLocked(ctx)
}

// Snapshot returns the current render state.
func (s *QuizService) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(ctx)
}

// Subscribe returns a channel receiving a snapshot after every state change,
// including countdown ticks. The caller must invoke cancel to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	s.mu.Lock()
	initial, err := s.snapshotLocked(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	ch := make(chan Snapshot, 8)
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

// Questions returns a copy of the current bank.
func (s *QuizService) Questions(ctx context.Context) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureQuestionsLocked(ctx); err != nil {
		return nil, err
	}
	return domain.CloneQuestions(s.questions), nil
}

// QuestionByID serves the read-only question detail view.
func (s *QuizService) QuestionByID(ctx context.Context, id int) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureQuestionsLocked(ctx); err != nil {
		return domain.Question{}, err
	}
	for _, q := range s.questions {
		if q.ID == id {
			return q.Clone(), nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// Scores returns the persisted highest and last scores.
func (s *QuizService) Scores(ctx context.Context) (highest, last int, err error) {
	highest, err = s.settings.HighestScore(ctx)
	if err != nil {
		return 0, 0, err
	}
	last, err = s.settings.LastScore(ctx)
	if err != nil {
		return 0, 0, err
	}
	return highest, last, nil
}

// SetTimer persists a new countdown duration in seconds; zero disables the
// timer. A running attempt keeps its current countdown.
func (s *QuizService) SetTimer(ctx context.Context, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settings.SetTimerSeconds(ctx, seconds); err != nil {
		return err
	}
	return s.broadcastLocked(ctx)
}

// StartDraft opens an empty draft, replacing any open one.
func (s *QuizService) StartDraft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := NewDraft()
	s.draft = &d
	return d
}

// EditQuestion opens a draft copying an existing question.
func (s *QuizService) EditQuestion(ctx context.Context, id int) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureQuestionsLocked(ctx); err != nil {
		return Draft{}, err
	}
	for _, q := range s.questions {
		if q.ID == id {
			d := DraftOf(q)
			s.draft = &d
			return d, nil
		}
	}
	return Draft{}, domain.ErrQuestionNotFound
}

// UpdateDraft replaces the open draft with the shell's edited copy.
func (s *QuizService) UpdateDraft(d Draft) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = &d
	return d
}

// SetDraftType switches the open draft's question type, applying the shape
// reset rules.
func (s *QuizService) SetDraftType(t domain.QuestionType) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return Draft{}, domain.ErrNoDraft
	}
	d := s.draft.WithType(t)
	s.draft = &d
	return d, nil
}

// CancelDraft discards the open draft.
func (s *QuizService) CancelDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

// Draft returns the open draft, if any.
func (s *QuizService) Draft() (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

// SaveDraft validates the open draft and persists the updated bank. On a
// validation failure the draft stays open and nothing is persisted. On
// success the stored scores reset to zero and any in-progress attempt is
// discarded, since they no longer describe the new bank.
func (s *QuizService) SaveDraft(ctx context.Context) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return nil, domain.ErrNoDraft
	}
	if err := s.ensureQuestionsLocked(ctx); err != nil {
		return nil, err
	}

	normalized, err := NormalizeDraft(*s.draft, s.questions)
	if err != nil {
		return nil, err
	}

	next := domain.CloneQuestions(s.questions)
	replaced := false
	for i := range next {
		if next[i].ID == normalized.ID {
			next[i] = normalized
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, normalized)
	}

	if err := s.commitBankLocked(ctx, next); err != nil {
		return nil, err
	}
	s.draft = nil
	if err := s.broadcastLocked(ctx); err != nil {
		return nil, err
	}
	return domain.CloneQuestions(next), nil
}

// DeleteQuestion removes a question from the bank, refusing to empty it.
func (s *QuizService) DeleteQuestion(ctx context.Context, id int) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureQuestionsLocked(ctx); err != nil {
		return nil, err
	}

	next := make([]domain.Question, 0, len(s.questions))
	found := false
	for _, q := range s.questions {
		if q.ID == id {
			found = true
			continue
		}
		next = append(next, q.Clone())
	}
	if !found {
		return nil, domain.ErrQuestionNotFound
	}
	if len(next) == 0 {
		return nil, domain.ErrLastQuestion
	}

	if err := s.commitBankLocked(ctx, next); err != nil {
		return nil, err
	}
	if err := s.broadcastLocked(ctx); err != nil {
		return nil, err
	}
	return domain.CloneQuestions(next), nil
}

// commitBankLocked persists a changed bank, zeroes the scores, and discards
// any in-progress attempt.
func (s *QuizService) commitBankLocked(ctx context.Context, next []domain.Question) error {
	if err := s.bank.Save(ctx, next); err != nil {
		return err
	}
	if err := s.settings.ResetScores(ctx); err != nil {
		return err
	}
	s.questions = next
	s.stopCountdownLocked()
	s.attempt = newAttempt()
	return nil
}

func (s *QuizService) ensureQuestionsLocked(ctx context.Context) error {
	if s.questions != nil {
		return nil
	}
	questions, err := s.bank.Load(ctx)
	if err != nil {
		return err
	}
	s.questions = questions
	return nil
}

func (s *QuizService) finishLocked(ctx context.Context) error {
	final := ComputeScore(s.questions, s.attempt.Answers, false)
	if err := s.settings.SetLastScore(ctx, final); err != nil {
		return err
	}
	highest, err := s.settings.HighestScore(ctx)
	if err != nil {
		return err
	}
	if final > highest {
		if err := s.settings.SetHighestScore(ctx, final); err != nil {
			return err
		}
	}
	s.stopCountdownLocked()
	s.attempt = finishAttempt(s.attempt)
	return nil
}

func (s *QuizService) snapshotLocked(ctx context.Context) (Snapshot, error) {
	if err := s.ensureQuestionsLocked(ctx); err != nil {
		return Snapshot{}, err
	}

	// No current question at the current index means the bank shrank under
	// a live attempt; recover by returning to Home.
	if s.attempt.Phase == PhaseInProgress && s.attempt.Index >= len(s.questions) {
		s.stopCountdownLocked()
		s.attempt = newAttempt()
	}

	timerSeconds, err := s.settings.TimerSeconds(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	highest, err := s.settings.HighestScore(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	last, err := s.settings.LastScore(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Phase:         s.attempt.Phase,
		QuestionCount: len(s.questions),
		TimerSeconds:  timerSeconds,
		Highest:       highest,
		Last:          last,
	}
	if s.attempt.Phase == PhaseInProgress {
		snap.Index = s.attempt.Index
		q := s.questions[s.attempt.Index].Clone()
		snap.Question = &q
		if answer, ok := s.attempt.Answers[q.ID]; ok {
			selected := answer.Clone()
			snap.Selected = &selected
		}
		snap.Answered = len(s.attempt.Answers)
		snap.Score = ComputeScore(s.questions, s.attempt.Answers, true)
		snap.TimerOn = s.attempt.TimerOn
		if s.attempt.TimerOn {
			snap.Remaining = s.attempt.Remaining
			snap.TimeLeft = FormatTime(s.attempt.Remaining)
		}
	}
	return snap, nil
}

func (s *QuizService) broadcastLocked(ctx context.Context) error {
	snap, err := s.snapshotLocked(ctx)
	if err != nil {
		return err
	}
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so a slow shell never
			// blocks the countdown.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return nil
}

// countdown is the cancellable handle for the once-per-second timer. At most
// one is live per service; every exit transition cancels it and cancellation
// is idempotent.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func newCountdown() *countdown {
	return &countdown{stop: make(chan struct{})}
}

func (c *countdown) cancel() {
	c.once.Do(func() { close(c.stop) })
}

func (s *QuizService) startCountdownLocked() {
	s.stopCountdownLocked()
	cd := newCountdown()
	s.countdown = cd
	go s.runCountdown(cd)
}

func (s *QuizService) stopCountdownLocked() {
	if s.countdown != nil {
		s.countdown.cancel()
		s.countdown = nil
	}
}

func (s *QuizService) runCountdown(cd *countdown) {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-cd.stop:
			return
		case <-ticker.C:
			if !s.handleTick(cd) {
				return
			}
		}
	}
}

// handleTick consumes one countdown second and force-finishes at zero. It
// reports whether the countdown should keep running.
func (s *QuizService) handleTick(cd *countdown) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.countdown != cd {
		// State moved on; this tick is stale.
		return false
	}

	next, expired := tick(s.attempt)
	s.attempt = next

	ctx := context.Background()
	if expired {
		if err := s.finishLocked(ctx); err != nil {
			log.Printf("auto-submit failed: %v", err)
		}
	}
	if err := s.broadcastLocked(ctx); err != nil {
		log.Printf("countdown broadcast failed: %v", err)
	}
	return !expired
}

// FormatTime renders seconds as mm:ss for the timer pill.
func FormatTime(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}
