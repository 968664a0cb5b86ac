package assignment

import (
	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
)

type AssignmentContainer struct {
	Service AssignmentService
	Handler *Handler
}

func NewAssignmentContainer(r Remote, rec Reconciler, identity auth.Resolver, src ProgressSource, m *metrics.Metrics) *AssignmentContainer {
	service := NewService(r, rec, identity, src, m)
	return &AssignmentContainer{
		Service: service,
		Handler: NewHandler(service),
	}
}
