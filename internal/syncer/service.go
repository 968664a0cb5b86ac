package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
	"github.com/saulo-duarte/course-progress-agent/internal/progress"
	"github.com/saulo-duarte/course-progress-agent/internal/remote"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

var ErrReconcile = errors.New("reconcile failed")

type Remote interface {
	Sync(ctx context.Context, email string, viewedPages []string) (*remote.SyncResult, error)
	GetProgress(ctx context.Context, email string) (*progress.Record, error)
	ViewedPages(ctx context.Context, email string) ([]string, error)
	RecordBotInteraction(ctx context.Context, bi remote.BotInteraction) error
}

type BotInteractionInput struct {
	Question string  `json:"question" validate:"required"`
	Response string  `json:"response" validate:"required"`
	Language string  `json:"language" validate:"omitempty,oneof=ja en"`
	Topic    *string `json:"topic"`
}

type SyncService interface {
	Reconcile(ctx context.Context) error
	Refresh(ctx context.Context) error
	ServerViewedPages(ctx context.Context) ([]string, error)
	RecordBotInteraction(ctx context.Context, in BotInteractionInput) error
	State() *State
	Drain(ctx context.Context) error
}

type syncService struct {
	state    *State
	remote   Remote
	identity auth.Resolver
	clock    util.Clock
	metrics  *metrics.Metrics

	flight singleflight.Group
	bg     util.Background
}

func NewService(state *State, r Remote, identity auth.Resolver, clock util.Clock, m *metrics.Metrics) SyncService {
	if clock == nil {
		clock = util.SystemClock
	}
	return &syncService{
		state:    state,
		remote:   r,
		identity: identity,
		clock:    clock,
		metrics:  m,
	}
}

func (s *syncService) State() *State { return s.state }

// Reconcile posts the cached viewed pages and replaces the local snapshot with
// the server's answer. Concurrent callers share one request. On failure the
// last known snapshot stays in place.
func (s *syncService) Reconcile(ctx context.Context) error {
	_, err, _ := s.flight.Do("reconcile", func() (any, error) {
		return nil, s.reconcile(context.WithoutCancel(ctx))
	})
	return err
}

func (s *syncService) reconcile(ctx context.Context) error {
	id, err := s.identity.Resolve(ctx)
	if err != nil {
		return err
	}
	ctx = config.ContextWithLearner(ctx, id.Email)
	log := config.WithContext(ctx)

	local := s.state.Snapshot()
	res, err := s.remote.Sync(ctx, id.Email, local.ViewedPages)
	s.metrics.ObserveSync(err)
	if err != nil {
		log.WithError(err).Warn("Reconcile failed, keeping last known progress")
		return fmt.Errorf("%w: %w", ErrReconcile, err)
	}

	next := &cache.Envelope{
		Progress:    res.Progress,
		ViewedPages: progress.NewPageSet(res.ViewedPages...).Paths(),
		LastUpdated: s.clock.Now(),
	}
	if err := s.state.Replace(ctx, next); err != nil {
		log.WithError(err).Warn("Reconciled progress could not be cached")
	}

	log.WithFields(logrus.Fields{
		"viewed_pages": len(next.ViewedPages),
		"synced_at":    res.SyncedAt,
	}).Info("Progress reconciled")
	return nil
}

// Refresh replaces only the progress record, leaving the viewed-page set alone.
func (s *syncService) Refresh(ctx context.Context) error {
	id, err := s.identity.Resolve(ctx)
	if err != nil {
		return err
	}
	rec, err := s.remote.GetProgress(ctx, id.Email)
	if err != nil {
		config.WithContext(ctx).WithError(err).Warn("Progress refresh failed")
		return err
	}
	return s.state.Update(ctx, func(env *cache.Envelope) bool {
		env.Progress = rec
		env.LastUpdated = s.clock.Now()
		return true
	})
}

// ServerViewedPages asks the course service for its page set without touching
// the local state.
func (s *syncService) ServerViewedPages(ctx context.Context) ([]string, error) {
	id, err := s.identity.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	pages, err := s.remote.ViewedPages(ctx, id.Email)
	if err != nil {
		config.WithContext(ctx).WithError(err).Warn("Server viewed pages could not be loaded")
		return nil, err
	}
	return progress.NewPageSet(pages...).Paths(), nil
}

// RecordBotInteraction bumps the cached counter right away and reports the
// interaction in the background.
func (s *syncService) RecordBotInteraction(ctx context.Context, in BotInteractionInput) error {
	id, err := s.identity.Resolve(ctx)
	if err != nil {
		return auth.ErrUnauthenticated
	}

	if err := s.state.Update(ctx, func(env *cache.Envelope) bool {
		if env.Progress == nil {
			env.Progress = &progress.Record{}
		}
		env.Progress.BotInteractions.Count++
		env.LastUpdated = s.clock.Now()
		return true
	}); err != nil {
		config.WithContext(ctx).WithError(err).Warn("Bot interaction count could not be cached")
	}

	lang := strings.TrimSpace(in.Language)
	if lang == "" {
		lang = "ja"
	}
	bi := remote.BotInteraction{
		Email:    id.Email,
		Question: in.Question,
		Response: in.Response,
		Language: lang,
		Topic:    in.Topic,
	}
	s.bg.Go(ctx, "bot_interaction", func(ctx context.Context) error {
		return s.remote.RecordBotInteraction(ctx, bi)
	})
	return nil
}

func (s *syncService) Drain(ctx context.Context) error {
	return s.bg.Wait(ctx)
}
