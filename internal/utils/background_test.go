package util_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

func TestBackground(t *testing.T) {
	var bg util.Background
	var ran int32
	release := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	bg.Go(ctx, "slow", func(ctx context.Context) error {
		<-release
		if ctx.Err() == nil {
			atomic.AddInt32(&ran, 1)
		}
		return nil
	})
	bg.Go(ctx, "failing", func(context.Context) error { return errors.New("boom") })
	cancel()

	short, done := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer done()
	assert.ErrorIs(t, bg.Wait(short), context.DeadlineExceeded)

	close(release)
	require.NoError(t, bg.Wait(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran), "work keeps running after the caller's context ends")
}
