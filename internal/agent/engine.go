package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/saulo-duarte/course-progress-agent/internal/assignment"
	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/quiz"
	"github.com/saulo-duarte/course-progress-agent/internal/syncer"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

var ErrAlreadyStarted = errors.New("engine already started")

// Drainer is anything holding fire-and-forget work that Stop should wait on.
type Drainer interface {
	Drain(ctx context.Context) error
}

type Deps struct {
	Waiter      *auth.Waiter
	Sync        syncer.SyncService
	Quiz        quiz.QuizService
	Assignments assignment.AssignmentService
	Drainers    []Drainer
	Clock       util.Clock
}

// Engine owns the startup sequence: wait for identity, reconcile, then keep
// observers up to date until Stop.
type Engine struct {
	deps Deps

	mu        sync.RWMutex
	phase     Phase
	identity  *auth.Identity
	observers []Observer
	cancel    context.CancelFunc
	done      chan struct{}
	ready     chan struct{}
}

func New(deps Deps) *Engine {
	if deps.Clock == nil {
		deps.Clock = util.SystemClock
	}
	e := &Engine{
		deps:  deps,
		phase: PhaseIdle,
		ready: make(chan struct{}),
	}
	deps.Sync.State().OnChange(e.publish)
	deps.Quiz.OnChange(func(quiz.Snapshot) { e.publish() })
	deps.Assignments.OnChange(e.publish)
	return e
}

func (e *Engine) AddObserver(o Observer) {
	e.mu.Lock()
	e.observers = append(e.observers, o)
	e.mu.Unlock()
}

// Start loads the cached envelope and launches the startup sequence in the
// background. It returns immediately.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.cancel != nil {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.done = make(chan struct{})
	e.mu.Unlock()

	if e.deps.Sync.State().Load(ctx) {
		config.WithContext(ctx).Info("Cached progress loaded")
	} else {
		config.WithContext(ctx).Info("No usable cached progress, starting cold")
	}

	go e.run(runCtx)
	return nil
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	log := config.WithContext(ctx)

	e.setPhase(PhaseWaitingIdentity)
	id, err := e.deps.Waiter.Wait(ctx)
	if err != nil {
		log.WithError(err).Info("Identity wait ended without an identity")
		return
	}

	e.mu.Lock()
	e.identity = &id
	e.mu.Unlock()
	ctx = config.ContextWithLearner(ctx, id.Email)

	e.setPhase(PhaseSyncing)
	if err := e.deps.Sync.Reconcile(ctx); err != nil {
		log.WithError(err).Warn("Startup reconcile failed, using cached progress")
	}
	if !id.IsDevice() {
		if _, err := e.deps.Assignments.Reload(ctx); err != nil {
			log.WithError(err).Warn("Startup assignment load failed")
		}
	}

	e.setPhase(PhaseRunning)
	close(e.ready)
}

// Ready is closed once the startup reconcile has run.
func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

// Stop cancels a pending identity wait and gives background deliveries until
// ctx ends to finish.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	var errs []error
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}
	for _, d := range e.deps.Drainers {
		if err := d.Drain(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	e.setPhase(PhaseStopped)
	return errors.Join(errs...)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	snap := Snapshot{Phase: e.phase, At: e.deps.Clock.Now()}
	if e.identity != nil {
		id := *e.identity
		snap.Identity = &id
	}
	e.mu.RUnlock()

	snap.Progress = syncer.ToProgressView(e.deps.Sync.State().Snapshot())
	snap.Quiz = e.deps.Quiz.Snapshot()
	snap.Assignments = e.deps.Assignments.Snapshot()
	return snap
}

func (e *Engine) setPhase(p Phase) {
	e.mu.Lock()
	e.phase = p
	e.mu.Unlock()
	e.publish()
}

func (e *Engine) publish() {
	e.mu.RLock()
	observers := append([]Observer(nil), e.observers...)
	e.mu.RUnlock()
	if len(observers) == 0 {
		return
	}
	snap := e.Snapshot()
	for _, o := range observers {
		o.Publish(snap)
	}
}
