package pageview_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/pageview"
	"github.com/saulo-duarte/course-progress-agent/internal/remote"
	"github.com/saulo-duarte/course-progress-agent/internal/syncer"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

type fakeRemote struct {
	mu      sync.Mutex
	views   []remote.PageView
	beacons []remote.PageView
	block   chan struct{}
}

func (f *fakeRemote) RecordPageView(ctx context.Context, pv remote.PageView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, pv)
	return nil
}

func (f *fakeRemote) PageViewBeacon(ctx context.Context, pv remote.PageView) {
	go func() {
		if f.block != nil {
			<-f.block
		}
		f.mu.Lock()
		f.beacons = append(f.beacons, pv)
		f.mu.Unlock()
	}()
}

type fixture struct {
	state   *syncer.State
	store   *cache.Store
	session *auth.Session
	remote  *fakeRemote
	clock   *util.ManualClock
	tracker pageview.Tracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv, err := cache.NewFileKV(t.TempDir())
	require.NoError(t, err)
	store := cache.NewStore(kv, nil)
	state := syncer.NewState(store)
	session := auth.NewSession()
	session.Set("a@example.com", "")
	r := &fakeRemote{}
	clock := util.NewManualClock(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	resolver := auth.NewResolver(kv, session, config.IdentityConfig{})

	return &fixture{
		state:   state,
		store:   store,
		session: session,
		remote:  r,
		clock:   clock,
		tracker: pageview.NewTracker(state, r, resolver, clock, "/2025AI", nil),
	}
}

func TestRecordEntryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.tracker.RecordEntry(ctx, "https://site.example/2025AI/week1/", "Week 1")
	second := f.tracker.RecordEntry(ctx, "/2025AI/week1/?ref=nav", "Week 1")
	require.NoError(t, f.tracker.Drain(ctx))

	assert.True(t, first.FirstView)
	assert.False(t, second.FirstView)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []string{"/week1/"}, f.state.Snapshot().ViewedPages)
	assert.Equal(t, []string{"/week1/"}, f.store.Load(ctx).ViewedPages, "entry is persisted before any server reply")

	require.Len(t, f.remote.views, 1, "only the first view is reported")
	assert.Equal(t, 0, f.remote.views[0].TimeSpent)
	assert.Equal(t, "/week1/", f.remote.views[0].PagePath)
}

func TestRecordEntryWithoutIdentityStaysLocal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.session.Clear()

	v := f.tracker.RecordEntry(ctx, "/2025AI/", "Home")
	require.NoError(t, f.tracker.Drain(ctx))

	assert.Equal(t, "/", v.Path)
	assert.Equal(t, []string{"/"}, f.state.Snapshot().ViewedPages)
	assert.Empty(t, f.remote.views)
}

func TestRecordExit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.remote.block = make(chan struct{})

	v := f.tracker.RecordEntry(ctx, "/2025AI/week2/", "Week 2")
	f.clock.Advance(42*time.Second + 900*time.Millisecond)

	start := time.Now()
	elapsed, err := f.tracker.RecordExit(ctx, v.ID)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "exit never waits on delivery")
	assert.Equal(t, 42, elapsed)

	close(f.remote.block)
	assert.Eventually(t, func() bool {
		f.remote.mu.Lock()
		defer f.remote.mu.Unlock()
		return len(f.remote.beacons) == 1 && f.remote.beacons[0].TimeSpent == 42
	}, time.Second, 10*time.Millisecond)

	t.Run("SecondExitIsUnknown", func(t *testing.T) {
		_, err := f.tracker.RecordExit(ctx, v.ID)
		assert.ErrorIs(t, err, pageview.ErrUnknownVisit)
	})

	t.Run("InstantNavigation", func(t *testing.T) {
		v := f.tracker.RecordEntry(ctx, "/2025AI/week3/", "Week 3")
		elapsed, err := f.tracker.RecordExit(ctx, v.ID)
		require.NoError(t, err)
		assert.Zero(t, elapsed)
	})
}

func TestHandlers(t *testing.T) {
	f := newFixture(t)
	h := pageview.Routes(pageview.NewHandler(f.tracker))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/enter", strings.NewReader(`{"url":"/2025AI/week4/","title":"Week 4"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"path":"/week4/"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/exit", strings.NewReader(`{"visit_id":"6f1c1a59-32f5-4d7e-9a38-0d5c3f4f7a11"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/exit", strings.NewReader(`{"visit_id":"nope"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
