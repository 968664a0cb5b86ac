package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/saulo-duarte/course-progress-agent/internal/config"
)

// Waiter polls the resolver until an identity shows up. There is no attempt
// limit; the wait ends only when ctx is cancelled.
type Waiter struct {
	resolver Resolver
	interval time.Duration
	kick     chan struct{}
}

func NewWaiter(r Resolver, interval time.Duration) *Waiter {
	if interval < time.Second {
		interval = time.Second
	}
	return &Waiter{resolver: r, interval: interval, kick: make(chan struct{}, 1)}
}

// Kick asks a pending Wait to retry now instead of at the next tick.
func (w *Waiter) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Waiter) Wait(ctx context.Context) (Identity, error) {
	if id, err := w.resolver.Resolve(ctx); err == nil {
		return id, nil
	} else if !errors.Is(err, ErrIdentityMissing) {
		return Identity{}, err
	}

	log := config.WithContext(ctx)
	log.WithField("interval", w.interval.String()).Info("Waiting for learner identity")

	tick := make(chan struct{}, 1)
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", w.interval), func() {
		select {
		case tick <- struct{}{}:
		default:
		}
	}); err != nil {
		return Identity{}, err
	}
	c.Start()
	defer c.Stop()

	for {
		select {
		case <-ctx.Done():
			return Identity{}, ctx.Err()
		case <-tick:
		case <-w.kick:
		}

		id, err := w.resolver.Resolve(ctx)
		if err == nil {
			log.WithField("source", id.Source).Info("Learner identity resolved")
			return id, nil
		}
		if !errors.Is(err, ErrIdentityMissing) {
			log.WithError(err).Warn("Identity lookup failed, retrying")
		}
	}
}
