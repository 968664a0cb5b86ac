package util

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/saulo-duarte/course-progress-agent/internal/config"
)

// Background runs detached fire-and-forget work. Failures are logged and
// dropped. Wait lets shutdown give in-flight work a chance to finish.
type Background struct {
	wg sync.WaitGroup
}

// Go runs fn on its own goroutine with a context that outlives ctx but keeps
// its values. It never blocks the caller.
func (b *Background) Go(ctx context.Context, name string, fn func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := fn(detached); err != nil {
			config.WithContext(detached).
				WithError(err).
				WithFields(logrus.Fields{"task": name}).
				Warn("Background delivery failed")
		}
	}()
}

func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
