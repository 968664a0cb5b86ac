package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
)

func TestMetrics(t *testing.T) {
	m := metrics.New()

	m.ObserveRemote("sync", nil, 20*time.Millisecond)
	m.ObserveRemote("sync", errors.New("boom"), time.Millisecond)
	m.ObserveSync(nil)
	m.Transition("quiz", "active")
	m.PageEvent("enter")

	count, err := testutil.GatherAndCount(m.Registry(), "course_agent_remote_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `course_agent_workflow_transitions_total{state="active",workflow="quiz"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveRemote("sync", nil, time.Second)
		m.ObserveSync(errors.New("x"))
		m.Transition("quiz", "idle")
		m.PageEvent("exit")
		m.SubscriberDelta(1)
	})
	assert.Nil(t, m.Registry())
}
