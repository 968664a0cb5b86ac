package pageview

import (
	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
	"github.com/saulo-duarte/course-progress-agent/internal/syncer"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

type PageViewContainer struct {
	Tracker Tracker
	Handler *Handler
}

func NewPageViewContainer(state *syncer.State, r Remote, identity auth.Resolver, clock util.Clock, rootPrefix string, m *metrics.Metrics) *PageViewContainer {
	tracker := NewTracker(state, r, identity, clock, rootPrefix, m)
	return &PageViewContainer{
		Tracker: tracker,
		Handler: NewHandler(tracker),
	}
}
