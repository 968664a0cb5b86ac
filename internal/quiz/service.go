package quiz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
	"github.com/saulo-duarte/course-progress-agent/internal/remote"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

var (
	ErrBusy            = errors.New("quiz request already in flight")
	ErrSessionActive   = errors.New("a quiz session is already active")
	ErrNoActiveSession = errors.New("no active quiz session")
	ErrInvalidAnswer   = errors.New("invalid answer")
	ErrGeneration      = errors.New("quiz generation failed")
	ErrSubmit          = errors.New("quiz submission failed")
	ErrPartialDeclined = errors.New("partial submission not confirmed")
)

// PartialError carries the counts shown to the learner when an incomplete
// answer set is not confirmed.
type PartialError struct {
	Answered int
	Total    int
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d of %d questions answered", e.Answered, e.Total)
}

func (e *PartialError) Unwrap() error { return ErrPartialDeclined }

// ConfirmFunc decides whether an incomplete answer set may be graded.
type ConfirmFunc func(answered, total int) bool

type Remote interface {
	GenerateQuiz(ctx context.Context, req remote.QuizRequest) (*remote.GeneratedQuiz, error)
	SubmitQuiz(ctx context.Context, answers remote.QuizAnswers) (*remote.QuizResult, error)
	QuizTopics(ctx context.Context) (map[string]remote.Topic, error)
	QuizHistory(ctx context.Context, email string) ([]remote.QuizAttempt, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context) error
}

type QuizService interface {
	Generate(ctx context.Context, req GenerateRequest) (Snapshot, error)
	SelectAnswer(index int, letter string) error
	Submit(ctx context.Context, confirm ConfirmFunc) (*remote.QuizResult, error)
	Cancel(confirm func() bool) (bool, error)
	Snapshot() Snapshot
	Topics(ctx context.Context) (map[string]remote.Topic, error)
	History(ctx context.Context) ([]remote.QuizAttempt, error)
	OnChange(fn func(Snapshot))
}

type quizService struct {
	remote     Remote
	reconciler Reconciler
	identity   auth.Resolver
	clock      util.Clock
	metrics    *metrics.Metrics

	mu      sync.Mutex
	state   State
	session *Session
	result  *remote.QuizResult

	listenersMu sync.RWMutex
	listeners   []func(Snapshot)
}

func NewService(r Remote, rec Reconciler, identity auth.Resolver, clock util.Clock, m *metrics.Metrics) QuizService {
	if clock == nil {
		clock = util.SystemClock
	}
	return &quizService{
		remote:     r,
		reconciler: rec,
		identity:   identity,
		clock:      clock,
		metrics:    m,
		state:      StateIdle,
	}
}

func (s *quizService) Generate(ctx context.Context, req GenerateRequest) (Snapshot, error) {
	log := config.WithContext(ctx)

	id, err := s.identity.Resolve(ctx)
	if err != nil {
		return s.Snapshot(), auth.ErrUnauthenticated
	}
	req = req.normalize()

	s.mu.Lock()
	switch s.state {
	case StateGenerating, StateSubmitting:
		s.mu.Unlock()
		return s.Snapshot(), ErrBusy
	case StateActive:
		s.mu.Unlock()
		return s.Snapshot(), ErrSessionActive
	}
	s.session = nil
	s.result = nil
	s.setStateLocked(StateGenerating)
	s.mu.Unlock()
	s.notify()

	log.WithFields(logrus.Fields{
		"num_questions": req.NumQuestions,
		"difficulty":    req.Difficulty,
	}).Info("Generating quiz")

	quiz, err := s.remote.GenerateQuiz(ctx, remote.QuizRequest{
		Email:        id.Email,
		WeekNumber:   req.WeekNumber,
		Topic:        req.Topic,
		NumQuestions: req.NumQuestions,
		Difficulty:   string(req.Difficulty),
	})

	s.mu.Lock()
	if err != nil {
		s.setStateLocked(StateIdle)
		s.mu.Unlock()
		s.notify()
		log.WithError(err).Warn("Quiz generation failed")
		return s.Snapshot(), fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	limit := time.Duration(quiz.TimeLimitMinutes) * time.Minute
	if limit <= 0 {
		limit = time.Duration(len(quiz.Questions)*minutesPerItem) * time.Minute
	}
	difficulty := Difficulty(quiz.Difficulty)
	if difficulty == "" {
		difficulty = req.Difficulty
	}
	s.session = &Session{
		QuizID:     quiz.QuizID,
		Topic:      quiz.Topic,
		Difficulty: difficulty,
		WeekNumber: quiz.WeekNumber,
		Questions:  quiz.Questions,
		Selected:   make(map[int]string),
		StartTime:  s.clock.Now(),
		TimeLimit:  limit,
	}
	s.result = nil
	s.setStateLocked(StateActive)
	s.mu.Unlock()
	s.notify()

	log.WithField("quiz_id", quiz.QuizID).Info("Quiz session started")
	return s.Snapshot(), nil
}

// SelectAnswer records or overwrites the answer to one question.
func (s *quizService) SelectAnswer(index int, letter string) error {
	s.mu.Lock()
	if s.state != StateActive || s.session == nil {
		s.mu.Unlock()
		return ErrNoActiveSession
	}
	if index < 0 || index >= len(s.session.Questions) {
		s.mu.Unlock()
		return fmt.Errorf("%w: question %d out of range", ErrInvalidAnswer, index)
	}
	if _, ok := s.session.Questions[index].Options[letter]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: option %q not offered", ErrInvalidAnswer, letter)
	}
	s.session.Selected[index] = letter
	s.mu.Unlock()
	s.notify()
	return nil
}

// Submit grades the active session. An incomplete answer set goes to confirm
// first; declining leaves the session active and sends nothing.
func (s *quizService) Submit(ctx context.Context, confirm ConfirmFunc) (*remote.QuizResult, error) {
	log := config.WithContext(ctx)

	id, err := s.identity.Resolve(ctx)
	if err != nil {
		return nil, auth.ErrUnauthenticated
	}

	s.mu.Lock()
	if err := s.requireActiveLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	session := s.session
	answered, total := len(session.Selected), len(session.Questions)
	s.mu.Unlock()

	if answered < total && (confirm == nil || !confirm(answered, total)) {
		return nil, &PartialError{Answered: answered, Total: total}
	}

	s.mu.Lock()
	if err := s.requireActiveLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.session != session {
		s.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	answers := make(map[string]string, len(session.Selected))
	for i, letter := range session.Selected {
		answers[strconv.Itoa(i)] = letter
	}
	timeTaken := util.ElapsedSeconds(s.clock, session.StartTime)
	s.setStateLocked(StateSubmitting)
	s.mu.Unlock()
	s.notify()

	result, err := s.remote.SubmitQuiz(ctx, remote.QuizAnswers{
		Email:     id.Email,
		QuizID:    session.QuizID,
		Answers:   answers,
		TimeTaken: timeTaken,
	})

	s.mu.Lock()
	if err != nil {
		s.setStateLocked(StateActive)
		s.mu.Unlock()
		s.notify()
		log.WithError(err).Warn("Quiz submission failed, session kept active")
		return nil, fmt.Errorf("%w: %w", ErrSubmit, err)
	}
	s.result = result
	s.setStateLocked(StateCompleted)
	s.mu.Unlock()
	s.notify()

	log.WithFields(logrus.Fields{
		"quiz_id":    result.QuizID,
		"percentage": result.Percentage,
		"passed":     result.Passed,
	}).Info("Quiz graded")

	if err := s.reconciler.Reconcile(ctx); err != nil {
		log.WithError(err).Warn("Reconcile after quiz submission failed")
	}
	return result, nil
}

// Cancel discards the active session when confirm agrees. A nil confirm declines.
func (s *quizService) Cancel(confirm func() bool) (bool, error) {
	s.mu.Lock()
	if err := s.requireActiveLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	if confirm == nil || !confirm() {
		return false, nil
	}

	s.mu.Lock()
	if err := s.requireActiveLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.setStateLocked(StateCancelled)
	s.session = nil
	s.mu.Unlock()
	s.notify()

	s.mu.Lock()
	if s.state == StateCancelled {
		s.setStateLocked(StateIdle)
	}
	s.mu.Unlock()
	s.notify()
	return true, nil
}

func (s *quizService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{State: s.state, Result: s.result}
	if s.session != nil && (s.state == StateActive || s.state == StateSubmitting || s.state == StateCompleted) {
		snap.Session = s.session.clone()
		snap.Answered = len(s.session.Selected)
		snap.Total = len(s.session.Questions)
		snap.TimeLimitSeconds = int(s.session.TimeLimit / time.Second)
		if s.state != StateCompleted {
			snap.ElapsedSeconds = util.ElapsedSeconds(s.clock, s.session.StartTime)
		}
	}
	return snap
}

func (s *quizService) Topics(ctx context.Context) (map[string]remote.Topic, error) {
	return s.remote.QuizTopics(ctx)
}

func (s *quizService) History(ctx context.Context) ([]remote.QuizAttempt, error) {
	id, err := s.identity.Resolve(ctx)
	if err != nil {
		return nil, auth.ErrUnauthenticated
	}
	return s.remote.QuizHistory(ctx, id.Email)
}

func (s *quizService) OnChange(fn func(Snapshot)) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

func (s *quizService) requireActiveLocked() error {
	switch s.state {
	case StateActive:
		return nil
	case StateGenerating, StateSubmitting:
		return ErrBusy
	default:
		return ErrNoActiveSession
	}
}

func (s *quizService) setStateLocked(st State) {
	s.state = st
	s.metrics.Transition("quiz", string(st))
}

func (s *quizService) notify() {
	s.listenersMu.RLock()
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.listenersMu.RUnlock()
	if len(listeners) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range listeners {
		fn(snap)
	}
}
