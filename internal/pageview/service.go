package pageview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
	"github.com/saulo-duarte/course-progress-agent/internal/progress"
	"github.com/saulo-duarte/course-progress-agent/internal/remote"
	"github.com/saulo-duarte/course-progress-agent/internal/syncer"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

var ErrUnknownVisit = errors.New("unknown visit")

// staleVisit bounds how long an entry without an exit is remembered.
const staleVisit = 12 * time.Hour

type Remote interface {
	RecordPageView(ctx context.Context, pv remote.PageView) error
	PageViewBeacon(ctx context.Context, pv remote.PageView)
}

type Tracker interface {
	RecordEntry(ctx context.Context, rawURL, title string) Visit
	RecordExit(ctx context.Context, visitID string) (int, error)
	Drain(ctx context.Context) error
}

type tracker struct {
	state      *syncer.State
	remote     Remote
	identity   auth.Resolver
	clock      util.Clock
	rootPrefix string
	metrics    *metrics.Metrics

	mu     sync.Mutex
	visits map[string]Visit
	bg     util.Background
}

func NewTracker(state *syncer.State, r Remote, identity auth.Resolver, clock util.Clock, rootPrefix string, m *metrics.Metrics) Tracker {
	if clock == nil {
		clock = util.SystemClock
	}
	return &tracker{
		state:      state,
		remote:     r,
		identity:   identity,
		clock:      clock,
		rootPrefix: rootPrefix,
		metrics:    m,
		visits:     make(map[string]Visit),
	}
}

// RecordEntry marks the page as viewed in the cache before the server knows
// about it. Only a first view is reported, with time_spent=0.
func (t *tracker) RecordEntry(ctx context.Context, rawURL, title string) Visit {
	log := config.WithContext(ctx)
	now := t.clock.Now()

	v := Visit{
		ID:        uuid.NewString(),
		Path:      CanonicalPath(rawURL, t.rootPrefix),
		Title:     title,
		EnteredAt: now,
	}

	if err := t.state.Update(ctx, func(env *cache.Envelope) bool {
		set := progress.NewPageSet(env.ViewedPages...)
		if !set.Add(v.Path) {
			return false
		}
		env.ViewedPages = set.Paths()
		env.LastUpdated = now
		v.FirstView = true
		return true
	}); err != nil {
		log.WithError(err).Warn("Viewed page could not be cached")
	}

	t.mu.Lock()
	t.pruneLocked(now)
	t.visits[v.ID] = v
	t.mu.Unlock()
	t.metrics.PageEvent("enter")

	if v.FirstView {
		if id, err := t.identity.Resolve(ctx); err == nil {
			pv := remote.PageView{Email: id.Email, PagePath: v.Path, PageTitle: v.Title}
			t.bg.Go(ctx, "page_view", func(ctx context.Context) error {
				return t.remote.RecordPageView(ctx, pv)
			})
		} else {
			log.WithError(err).Debug("Page view kept local, no identity yet")
		}
	}

	log.WithFields(logrus.Fields{"path": v.Path, "first_view": v.FirstView}).Debug("Page entry recorded")
	return v
}

// RecordExit issues the duration report and returns without waiting for it.
func (t *tracker) RecordExit(ctx context.Context, visitID string) (int, error) {
	t.mu.Lock()
	v, ok := t.visits[visitID]
	delete(t.visits, visitID)
	t.mu.Unlock()
	if !ok {
		return 0, ErrUnknownVisit
	}

	elapsed := util.ElapsedSeconds(t.clock, v.EnteredAt)
	t.metrics.PageEvent("exit")

	id, err := t.identity.Resolve(ctx)
	if err != nil {
		config.WithContext(ctx).WithError(err).Debug("Page exit not reported, no identity")
		return elapsed, nil
	}
	t.remote.PageViewBeacon(ctx, remote.PageView{
		Email:     id.Email,
		PagePath:  v.Path,
		PageTitle: v.Title,
		TimeSpent: elapsed,
	})
	return elapsed, nil
}

func (t *tracker) pruneLocked(now time.Time) {
	for id, v := range t.visits {
		if now.Sub(v.EnteredAt) > staleVisit {
			delete(t.visits, id)
		}
	}
}

func (t *tracker) Drain(ctx context.Context) error {
	return t.bg.Wait(ctx)
}
