package util

import (
	"sync"
	"time"
)

// Clock is injected wherever elapsed time feeds a wire value (quiz time_taken,
// page time_spent) so tests can control it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var SystemClock Clock = systemClock{}

// ElapsedSeconds returns whole seconds between start and now, never negative.
func ElapsedSeconds(c Clock, start time.Time) int {
	if start.IsZero() {
		return 0
	}
	d := c.Now().Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *ManualClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
