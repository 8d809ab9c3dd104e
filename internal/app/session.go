package app

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/leaderboard"
	"trivia-quiz-service/internal/opentdb"
	"trivia-quiz-service/internal/quiz"
)

const (
	minAmount = 1
	maxAmount = 50

	defaultSecondsPerQuestion = 30
	defaultRevealDelay        = 2 * time.Second
)

// QuestionProvider abstracts the remote trivia source.
type QuestionProvider interface {
	FetchQuestions(ctx context.Context, req opentdb.Request) ([]opentdb.RawQuestion, error)
}

// Session is the quiz state machine for one run: setup, loading,
// in-progress, answered, finished, with an absorbing error state reachable
// from loading. All mutation is serialized by one mutex; the countdown tick
// and the reveal-delay callback take the same mutex, and an epoch counter
// invalidates scheduled callbacks that outlive the state they were armed in.
type Session struct {
	provider QuestionProvider
	board    *leaderboard.Store
	view     View
	timer    *Countdown
	rnd      *rand.Rand

	secondsPerQuestion int
	revealDelay        time.Duration
	schedule           func(d time.Duration, fn func())

	mu        sync.Mutex
	state     domain.SessionState
	questions domain.QuestionSet
	index     int
	score     int
	selected  string
	answered  bool
	remaining int
	epoch     int
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithRand injects the shuffle source so presented order is reproducible.
func WithRand(rnd *rand.Rand) SessionOption {
	return func(s *Session) { s.rnd = rnd }
}

// WithSecondsPerQuestion overrides the per-question time budget.
func WithSecondsPerQuestion(seconds int) SessionOption {
	return func(s *Session) {
		if seconds > 0 {
			s.secondsPerQuestion = seconds
		}
	}
}

// WithRevealDelay overrides the pause between committing an answer and
// advancing to the next question.
func WithRevealDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		if d >= 0 {
			s.revealDelay = d
		}
	}
}

// WithCountdown swaps the timer, letting tests tick fast.
func WithCountdown(timer *Countdown) SessionOption {
	return func(s *Session) { s.timer = timer }
}

// WithScheduler replaces the deferred-advance scheduler (test seam).
func WithScheduler(schedule func(d time.Duration, fn func())) SessionOption {
	return func(s *Session) { s.schedule = schedule }
}

func NewSession(provider QuestionProvider, board *leaderboard.Store, view View, opts ...SessionOption) *Session {
	s := &Session{
		provider:           provider,
		board:              board,
		view:               view,
		timer:              NewCountdown(),
		rnd:                rand.New(rand.NewSource(time.Now().UnixNano())),
		secondsPerQuestion: defaultSecondsPerQuestion,
		revealDelay:        defaultRevealDelay,
		state:              domain.StateSetup,
	}
	s.schedule = func(d time.Duration, fn func()) {
		time.AfterFunc(d, fn)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current machine state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Score returns the committed score so far.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Remaining returns the remaining seconds on the session clock.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Start validates the setup input, fetches a question batch, and moves the
// session into its in-progress state. Invalid input keeps the session in
// setup; a provider failure moves it to the error state, from which only
// Restart recovers.
func (s *Session) Start(ctx context.Context, cfg domain.QuizConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != domain.StateSetup {
		s.mu.Unlock()
		return domain.ErrNotRunnable
	}
	s.state = domain.StateLoading
	s.mu.Unlock()
	s.view.RenderLoading()

	raw, err := s.provider.FetchQuestions(ctx, opentdb.Request{
		Amount:     cfg.Amount,
		Category:   cfg.Category,
		Difficulty: cfg.Difficulty,
	})
	if err != nil {
		return s.failLoading(err)
	}

	set, err := quiz.Build(raw, cfg.Amount, s.rnd)
	if err != nil {
		return s.failLoading(err)
	}

	s.mu.Lock()
	s.questions = set
	s.index = 0
	s.score = 0
	s.selected = ""
	s.answered = false
	s.remaining = s.secondsPerQuestion * len(set)
	s.state = domain.StateInProgress
	first := set[0]
	total := len(set)
	display := DisplayFor(s.remaining)
	s.mu.Unlock()

	s.timer.Start(s.tick)
	s.view.RenderQuestion(first, 1, total)
	s.view.RenderTimer(display)
	return nil
}

func (s *Session) failLoading(err error) error {
	s.mu.Lock()
	s.state = domain.StateError
	s.mu.Unlock()
	s.view.RenderError(err.Error())
	return err
}

// Select records a tentative answer. Ignored once the current question is
// committed, outside the in-progress state, or for an answer that is not
// among the presented options.
func (s *Session) Select(answer string) {
	s.mu.Lock()
	if s.state != domain.StateInProgress || s.answered || !s.isPresented(answer) {
		s.mu.Unlock()
		return
	}
	s.selected = answer
	s.mu.Unlock()
	s.view.RenderSelection(answer)
}

// Confirm commits the selected answer: it becomes immutable, the score
// increments iff it matches, and after the reveal delay the session either
// advances to the next question or finishes. A no-op without a selection or
// when the question is already committed.
func (s *Session) Confirm() {
	s.mu.Lock()
	if s.state != domain.StateInProgress || s.answered || s.selected == "" {
		s.mu.Unlock()
		return
	}

	question := s.questions[s.index]
	if s.selected == question.CorrectAnswer {
		s.score++
	}
	s.answered = true
	s.state = domain.StateAnswered
	selected := s.selected
	epoch := s.epoch
	s.mu.Unlock()

	s.view.RenderReveal(question.CorrectAnswer, selected)
	s.schedule(s.revealDelay, func() { s.advance(epoch) })
}

// advance is the deferred transition out of the answered state. A stale
// epoch means the session finished or restarted while the delay ran.
func (s *Session) advance(epoch int) {
	s.mu.Lock()
	if epoch != s.epoch || s.state != domain.StateAnswered {
		s.mu.Unlock()
		return
	}

	if s.index+1 < len(s.questions) {
		s.index++
		s.selected = ""
		s.answered = false
		s.state = domain.StateInProgress
		question := s.questions[s.index]
		number := s.index + 1
		total := len(s.questions)
		s.mu.Unlock()
		s.view.RenderQuestion(question, number, total)
		return
	}

	s.finishLocked()
}

// tick is driven once per second by the countdown while a quiz is running.
func (s *Session) tick() {
	s.mu.Lock()
	if s.state != domain.StateInProgress && s.state != domain.StateAnswered {
		s.mu.Unlock()
		return
	}

	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.finishLocked()
		return
	}

	display := DisplayFor(s.remaining)
	s.mu.Unlock()
	s.view.RenderTimer(display)
}

// finishLocked terminates the run: it stops the timer, invalidates pending
// callbacks, records exactly one leaderboard entry, and renders the
// results. Called with the mutex held; releases it. Recording does slot I/O,
// so it runs after the unlock; the finished state already bars re-entry.
func (s *Session) finishLocked() {
	s.timer.Stop()
	s.epoch++
	s.state = domain.StateFinished

	score := s.score
	total := len(s.questions)
	percentage := domain.Percentage(score, total)
	tier := domain.TierFor(percentage)
	s.mu.Unlock()

	board := s.board.Record(context.Background(), domain.LeaderboardEntry{
		Score:      score,
		Total:      total,
		Percentage: percentage,
	})

	s.view.RenderResults(score, total, tier, domain.FeedbackFor(tier))
	s.view.RenderLeaderboard(board)
}

// Restart returns a finished or failed session to setup for a fresh run.
func (s *Session) Restart() error {
	s.mu.Lock()
	if s.state != domain.StateFinished && s.state != domain.StateError {
		s.mu.Unlock()
		return domain.ErrNotRunnable
	}
	s.timer.Stop()
	s.epoch++
	s.questions = nil
	s.index = 0
	s.score = 0
	s.selected = ""
	s.answered = false
	s.remaining = 0
	s.state = domain.StateSetup
	s.mu.Unlock()

	s.view.RenderSetup()
	return nil
}

// Close releases the timer and invalidates pending callbacks without
// recording a result. Called when the owning connection goes away mid-run.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer.Stop()
	s.epoch++
	s.questions = nil
	s.state = domain.StateSetup
}

func (s *Session) isPresented(answer string) bool {
	for _, option := range s.questions[s.index].PresentedOrder {
		if option == answer {
			return true
		}
	}
	return false
}

func validateConfig(cfg domain.QuizConfig) error {
	if cfg.Amount < minAmount || cfg.Amount > maxAmount {
		return fmt.Errorf("%w: amount must be between %d and %d", domain.ErrInvalidConfig, minAmount, maxAmount)
	}
	switch cfg.Difficulty {
	case "", "easy", "medium", "hard":
	default:
		return fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidConfig, cfg.Difficulty)
	}
	if cfg.Category != "" {
		if _, err := strconv.Atoi(cfg.Category); err != nil {
			return fmt.Errorf("%w: category must be a numeric id", domain.ErrInvalidConfig)
		}
	}
	return nil
}
