package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/saulo-duarte/course-progress-agent/internal/agent"
	"github.com/saulo-duarte/course-progress-agent/internal/assignment"
	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
	"github.com/saulo-duarte/course-progress-agent/internal/pageview"
	"github.com/saulo-duarte/course-progress-agent/internal/quiz"
	"github.com/saulo-duarte/course-progress-agent/internal/realtime"
	"github.com/saulo-duarte/course-progress-agent/internal/remote"
	"github.com/saulo-duarte/course-progress-agent/internal/router"
	"github.com/saulo-duarte/course-progress-agent/internal/syncer"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

type Container struct {
	Config  *config.Config
	Metrics *metrics.Metrics
	Remote  *remote.Client
	Store   *cache.Store
	Hub     *realtime.Hub
	Engine  *agent.Engine

	AuthContainer       *auth.AuthContainer
	SyncContainer       *syncer.SyncContainer
	PageViewContainer   *pageview.PageViewContainer
	QuizContainer       *quiz.QuizContainer
	AssignmentContainer *assignment.AssignmentContainer

	closers []io.Closer
}

func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg, Metrics: metrics.New()}

	kv, err := c.openKV(ctx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
	}

	var sealer *config.Sealer
	if cfg.Cache.Key != "" {
		if sealer, err = config.NewSealer([]byte(cfg.Cache.Key)); err != nil {
			c.Close()
			return nil, err
		}
	}
	c.Store = cache.NewStore(kv, sealer)

	if c.Remote, err = remote.NewFromConfig(cfg, c.Metrics); err != nil {
		c.Close()
		return nil, fmt.Errorf("remote client: %w", err)
	}

	clock := util.SystemClock
	c.AuthContainer = auth.NewAuthContainer(kv, cfg.Identity)
	resolver := c.AuthContainer.Resolver

	c.SyncContainer = syncer.NewSyncContainer(c.Store, c.Remote, resolver, clock, c.Metrics)
	c.PageViewContainer = pageview.NewPageViewContainer(
		c.SyncContainer.State, c.Remote, resolver, clock, cfg.Site.RootPrefix, c.Metrics,
	)
	c.QuizContainer = quiz.NewQuizContainer(c.Remote, c.SyncContainer.Service, resolver, clock, c.Metrics)
	c.AssignmentContainer = assignment.NewAssignmentContainer(
		c.Remote, c.SyncContainer.Service, resolver, c.SyncContainer.State, c.Metrics,
	)

	c.Engine = agent.New(agent.Deps{
		Waiter:      c.AuthContainer.Waiter,
		Sync:        c.SyncContainer.Service,
		Quiz:        c.QuizContainer.Service,
		Assignments: c.AssignmentContainer.Service,
		Drainers:    []agent.Drainer{c.PageViewContainer.Tracker, c.SyncContainer.Service, c.Remote},
		Clock:       clock,
	})

	c.Hub = realtime.NewHub(cfg.HTTP.AllowedOrigins, c.Metrics)
	c.Engine.AddObserver(agent.ObserverFunc(func(s agent.Snapshot) {
		c.Hub.Broadcast("snapshot", s)
	}))

	return c, nil
}

func (c *Container) openKV(ctx context.Context) (cache.KV, error) {
	cfg := c.Config.Cache
	switch cfg.Backend {
	case "gorm":
		db, err := config.Connect(ctx, cfg.DBDriver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			c.closers = append(c.closers, sqlDB)
		}
		return cache.NewGormKV(db)
	case "redis":
		kv, err := cache.NewRedisKV(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, kv)
		return kv, nil
	default:
		return cache.NewFileKV(cfg.Dir)
	}
}

func (c *Container) Handler() http.Handler {
	return router.New(router.RouterConfig{
		AllowedOrigins:    c.Config.HTTP.AllowedOrigins,
		IdentityHandler:   c.AuthContainer.Handler,
		SyncHandler:       c.SyncContainer.Handler,
		PageViewHandler:   c.PageViewContainer.Handler,
		QuizHandler:       c.QuizContainer.Handler,
		AssignmentHandler: c.AssignmentContainer.Handler,
		AgentHandler:      agent.NewHandler(c.Engine),
		Snapshots:         c.Hub,
		Metrics:           c.Metrics.Handler(),
	})
}

// Shutdown stops the engine, waits for pending deliveries until ctx ends and
// releases the cache backend.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error
	if c.Engine != nil {
		errs = append(errs, c.Engine.Stop(ctx))
	}
	if c.Hub != nil {
		c.Hub.Close()
	}
	errs = append(errs, c.Close())
	return errors.Join(errs...)
}

func (c *Container) Close() error {
	var errs []error
	for _, cl := range c.closers {
		errs = append(errs, cl.Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}
