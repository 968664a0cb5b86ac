package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
	"github.com/saulo-duarte/course-progress-agent/internal/progress"
	"github.com/saulo-duarte/course-progress-agent/internal/remote"
)

var (
	ErrBusy         = errors.New("an assignment submission is already in flight")
	ErrSubmitFailed = errors.New("assignment submission failed")
)

type Remote interface {
	Assignments(ctx context.Context, email string) ([]progress.AssignmentDescriptor, error)
	SubmitAssignment(ctx context.Context, sub remote.AssignmentSubmission) (*remote.AssignmentReceipt, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context) error
}

type ProgressSource interface {
	Snapshot() *cache.Envelope
}

type AssignmentService interface {
	Submit(ctx context.Context, assignmentID int64, payload json.RawMessage) (*Outcome, error)
	Reload(ctx context.Context) ([]progress.AssignmentDescriptor, error)
	Badge(week int) progress.Badge
	Snapshot() Snapshot
	OnChange(fn func())
}

type assignmentService struct {
	remote     Remote
	reconciler Reconciler
	identity   auth.Resolver
	progress   ProgressSource
	metrics    *metrics.Metrics

	mu          sync.Mutex
	inFlight    bool
	descriptors []progress.AssignmentDescriptor
	local       map[int64]LocalStatus
	lastOutcome *Outcome

	listenersMu sync.RWMutex
	listeners   []func()
}

func NewService(r Remote, rec Reconciler, identity auth.Resolver, src ProgressSource, m *metrics.Metrics) AssignmentService {
	return &assignmentService{
		remote:     r,
		reconciler: rec,
		identity:   identity,
		progress:   src,
		metrics:    m,
		local:      make(map[int64]LocalStatus),
	}
}

// Submit sends one assignment for grading. Only one submission runs at a time.
// Without a learner identity nothing is sent.
func (s *assignmentService) Submit(ctx context.Context, assignmentID int64, payload json.RawMessage) (*Outcome, error) {
	id, err := s.identity.Resolve(ctx)
	if err != nil || id.IsDevice() {
		return nil, auth.ErrUnauthenticated
	}
	ctx = config.ContextWithLearner(ctx, id.Email)
	log := config.WithContext(ctx).WithFields(logrus.Fields{"assignment_id": assignmentID})

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.inFlight = true
	s.setLocalLocked(assignmentID, LocalSubmitting)
	s.mu.Unlock()
	s.notify()

	receipt, err := s.remote.SubmitAssignment(ctx, remote.AssignmentSubmission{
		Email:        id.Email,
		AssignmentID: assignmentID,
		Status:       string(progress.AssignmentSubmitted),
		Submission:   payload,
	})
	if err != nil {
		s.mu.Lock()
		s.inFlight = false
		s.setLocalLocked(assignmentID, LocalNotSubmitted)
		s.mu.Unlock()
		s.notify()
		log.WithError(err).Warn("Assignment submission failed")
		return nil, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	out := &Outcome{AssignmentID: assignmentID, Status: receipt.Status, Grading: receipt.Grading}
	if g := receipt.Grading; g != nil && g.Result != nil {
		out.Score = g.Result.Score
		out.Feedback = g.Result.Feedback
	}

	s.mu.Lock()
	s.setLocalLocked(assignmentID, LocalSubmitted)
	s.lastOutcome = out
	s.mu.Unlock()
	s.notify()
	log.WithField("graded", out.Score != nil).Info("Assignment submitted")

	var g errgroup.Group
	g.Go(func() error { return s.reconciler.Reconcile(ctx) })
	g.Go(func() error {
		_, err := s.Reload(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("Refresh after assignment submission incomplete")
	}

	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
	s.notify()
	return out, nil
}

func (s *assignmentService) Reload(ctx context.Context) ([]progress.AssignmentDescriptor, error) {
	id, err := s.identity.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.remote.Assignments(ctx, id.Email)
	if err != nil {
		config.WithContext(ctx).WithError(err).Warn("Assignment list could not be loaded")
		return nil, err
	}

	s.mu.Lock()
	s.descriptors = append([]progress.AssignmentDescriptor(nil), list...)
	s.mu.Unlock()
	s.notify()
	return list, nil
}

func (s *assignmentService) Badge(week int) progress.Badge {
	s.mu.Lock()
	descriptors := append([]progress.AssignmentDescriptor(nil), s.descriptors...)
	s.mu.Unlock()
	return progress.DeriveBadge(s.record(), descriptors, week)
}

func (s *assignmentService) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		Assignments: append([]progress.AssignmentDescriptor{}, s.descriptors...),
		Local:       make(map[int64]LocalStatus, len(s.local)),
		Submitting:  s.inFlight,
		LastOutcome: s.lastOutcome,
	}
	for k, v := range s.local {
		snap.Local[k] = v
	}
	s.mu.Unlock()

	snap.Badges = progress.DeriveBadges(s.record(), snap.Assignments)
	return snap
}

func (s *assignmentService) OnChange(fn func()) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

func (s *assignmentService) record() *progress.Record {
	if s.progress == nil {
		return nil
	}
	env := s.progress.Snapshot()
	if env == nil {
		return nil
	}
	return env.Progress
}

func (s *assignmentService) setLocalLocked(id int64, st LocalStatus) {
	s.local[id] = st
	s.metrics.Transition("assignment", string(st))
}

func (s *assignmentService) notify() {
	s.listenersMu.RLock()
	listeners := append([]func(){}, s.listeners...)
	s.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}
