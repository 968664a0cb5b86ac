package agent_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulo-duarte/course-progress-agent/internal/agent"
	"github.com/saulo-duarte/course-progress-agent/internal/assignment"
	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/progress"
	"github.com/saulo-duarte/course-progress-agent/internal/quiz"
	"github.com/saulo-duarte/course-progress-agent/internal/remote"
	"github.com/saulo-duarte/course-progress-agent/internal/syncer"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

type fakeRemote struct {
	mu    sync.Mutex
	syncs int
}

func (f *fakeRemote) Sync(ctx context.Context, email string, pages []string) (*remote.SyncResult, error) {
	f.mu.Lock()
	f.syncs++
	f.mu.Unlock()
	return &remote.SyncResult{
		Progress:    &progress.Record{Email: email, Content: progress.ContentProgress{Viewed: 2, Total: 10}},
		ViewedPages: []string{"/", "/week1/"},
		SyncedAt:    "2025-05-01T10:00:00",
	}, nil
}

func (f *fakeRemote) GetProgress(ctx context.Context, email string) (*progress.Record, error) {
	return &progress.Record{Email: email}, nil
}

func (f *fakeRemote) ViewedPages(ctx context.Context, email string) ([]string, error) {
	return []string{"/", "/week1/"}, nil
}

func (f *fakeRemote) RecordBotInteraction(ctx context.Context, bi remote.BotInteraction) error {
	return nil
}

func (f *fakeRemote) GenerateQuiz(ctx context.Context, req remote.QuizRequest) (*remote.GeneratedQuiz, error) {
	return nil, remote.ErrNetwork
}

func (f *fakeRemote) SubmitQuiz(ctx context.Context, answers remote.QuizAnswers) (*remote.QuizResult, error) {
	return nil, remote.ErrNetwork
}

func (f *fakeRemote) QuizTopics(ctx context.Context) (map[string]remote.Topic, error) {
	return map[string]remote.Topic{}, nil
}

func (f *fakeRemote) QuizHistory(ctx context.Context, email string) ([]remote.QuizAttempt, error) {
	return nil, nil
}

func (f *fakeRemote) Assignments(ctx context.Context, email string) ([]progress.AssignmentDescriptor, error) {
	return []progress.AssignmentDescriptor{}, nil
}

func (f *fakeRemote) SubmitAssignment(ctx context.Context, sub remote.AssignmentSubmission) (*remote.AssignmentReceipt, error) {
	return nil, remote.ErrNetwork
}

type recorder struct {
	mu    sync.Mutex
	snaps []agent.Snapshot
}

func (r *recorder) Publish(s agent.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) phases() []agent.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]agent.Phase, 0, len(r.snaps))
	for _, s := range r.snaps {
		out = append(out, s.Phase)
	}
	return out
}

func newEngine(t *testing.T, kv cache.KV) (*agent.Engine, *fakeRemote) {
	t.Helper()
	fr := &fakeRemote{}
	clock := util.NewManualClock(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))

	authC := auth.NewAuthContainer(kv, config.IdentityConfig{PollInterval: time.Second})
	syncC := syncer.NewSyncContainer(cache.NewStore(kv, nil), fr, authC.Resolver, clock, nil)
	quizC := quiz.NewQuizContainer(fr, syncC.Service, authC.Resolver, clock, nil)
	assignC := assignment.NewAssignmentContainer(fr, syncC.Service, authC.Resolver, syncC.State, nil)

	e := agent.New(agent.Deps{
		Waiter:      authC.Waiter,
		Sync:        syncC.Service,
		Quiz:        quizC.Service,
		Assignments: assignC.Service,
		Drainers:    []agent.Drainer{syncC.Service},
		Clock:       clock,
	})
	return e, fr
}

func TestEngine_StartupReconcilesOnceIdentityIsKnown(t *testing.T) {
	ctx := context.Background()
	kv, err := cache.NewFileKV(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, cache.LearnerKey, []byte("learner@example.com")))

	e, fr := newEngine(t, kv)
	rec := &recorder{}
	e.AddObserver(rec)

	require.NoError(t, e.Start(ctx))
	select {
	case <-e.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("engine never became ready")
	}

	snap := e.Snapshot()
	assert.Equal(t, agent.PhaseRunning, snap.Phase)
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "learner@example.com", snap.Identity.Email)
	assert.Equal(t, []string{"/", "/week1/"}, snap.Progress.ViewedPages)
	assert.Equal(t, quiz.StateIdle, snap.Quiz.State)

	fr.mu.Lock()
	assert.Equal(t, 1, fr.syncs)
	fr.mu.Unlock()

	assert.Contains(t, rec.phases(), agent.PhaseWaitingIdentity)
	assert.Contains(t, rec.phases(), agent.PhaseRunning)

	assert.ErrorIs(t, e.Start(ctx), agent.ErrAlreadyStarted)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, e.Stop(stopCtx))
	assert.Equal(t, agent.PhaseStopped, e.Snapshot().Phase)
}

func TestEngine_StopCancelsIdentityWait(t *testing.T) {
	ctx := context.Background()
	kv, err := cache.NewFileKV(t.TempDir())
	require.NoError(t, err)

	e, fr := newEngine(t, kv)
	require.NoError(t, e.Start(ctx))

	assert.Eventually(t, func() bool {
		return e.Snapshot().Phase == agent.PhaseWaitingIdentity
	}, 2*time.Second, 10*time.Millisecond)
	assert.Nil(t, e.Snapshot().Identity)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, e.Stop(stopCtx))

	fr.mu.Lock()
	assert.Zero(t, fr.syncs)
	fr.mu.Unlock()

	select {
	case <-e.Ready():
		t.Fatal("ready must stay open when no identity was found")
	default:
	}
}

func TestEngine_CachedProgressVisibleBeforeIdentity(t *testing.T) {
	ctx := context.Background()
	kv, err := cache.NewFileKV(t.TempDir())
	require.NoError(t, err)

	store := cache.NewStore(kv, nil)
	require.NoError(t, store.Save(ctx, &cache.Envelope{
		Progress:    &progress.Record{Email: "cached@example.com"},
		ViewedPages: []string{"/week2/"},
	}))

	e, _ := newEngine(t, kv)
	require.NoError(t, e.Start(ctx))
	defer e.Stop(ctx)

	assert.Equal(t, []string{"/week2/"}, e.Snapshot().Progress.ViewedPages)
}
