package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/saulo-duarte/course-progress-agent/internal/agent"
	"github.com/saulo-duarte/course-progress-agent/internal/assignment"
	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/middlewares"
	"github.com/saulo-duarte/course-progress-agent/internal/pageview"
	"github.com/saulo-duarte/course-progress-agent/internal/quiz"
	"github.com/saulo-duarte/course-progress-agent/internal/syncer"
)

type RouterConfig struct {
	AllowedOrigins    []string
	IdentityHandler   *auth.Handler
	SyncHandler       *syncer.Handler
	PageViewHandler   *pageview.Handler
	QuizHandler       *quiz.Handler
	AssignmentHandler *assignment.Handler
	AgentHandler      *agent.Handler
	Snapshots         http.Handler
	Metrics           http.Handler
}

func New(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CorsMiddleware(cfg.AllowedOrigins))

	r.Get("/healthz", cfg.AgentHandler.Health)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	if cfg.Snapshots != nil {
		r.Handle("/ws", cfg.Snapshots)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", cfg.AgentHandler.GetState)

		r.Mount("/identity", auth.Routes(cfg.IdentityHandler))
		r.Mount("/pages", pageview.Routes(cfg.PageViewHandler))
		r.Mount("/quiz", quiz.Routes(cfg.QuizHandler))
		r.Mount("/assignments", assignment.Routes(cfg.AssignmentHandler))
		r.Mount("/", syncer.Routes(cfg.SyncHandler))
	})
	return r
}
