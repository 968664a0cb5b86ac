package syncer

import (
	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

type SyncContainer struct {
	State   *State
	Service SyncService
	Handler *Handler
}

func NewSyncContainer(store *cache.Store, r Remote, identity auth.Resolver, clock util.Clock, m *metrics.Metrics) *SyncContainer {
	state := NewState(store)
	service := NewService(state, r, identity, clock, m)

	return &SyncContainer{
		State:   state,
		Service: service,
		Handler: NewHandler(service),
	}
}
