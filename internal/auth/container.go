package auth

import (
	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
)

type AuthContainer struct {
	Session  *Session
	Resolver Resolver
	Waiter   *Waiter
	Handler  *Handler
}

func NewAuthContainer(kv cache.KV, cfg config.IdentityConfig) *AuthContainer {
	session := NewSession()
	resolver := NewResolver(kv, session, cfg)
	waiter := NewWaiter(resolver, cfg.PollInterval)

	return &AuthContainer{
		Session:  session,
		Resolver: resolver,
		Waiter:   waiter,
		Handler:  NewHandler(resolver, session, waiter),
	}
}
