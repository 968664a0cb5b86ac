package quiz

import (
	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

type QuizContainer struct {
	Service QuizService
	Handler *Handler
}

func NewQuizContainer(r Remote, rec Reconciler, identity auth.Resolver, clock util.Clock, m *metrics.Metrics) *QuizContainer {
	service := NewService(r, rec, identity, clock, m)
	handler := NewHandler(service)

	return &QuizContainer{
		Service: service,
		Handler: handler,
	}
}
