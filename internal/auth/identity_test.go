package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
)

func newKV(t *testing.T) cache.KV {
	t.Helper()
	kv, err := cache.NewFileKV(t.TempDir())
	require.NoError(t, err)
	return kv
}

func TestResolvePrecedence(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	session := auth.NewSession()
	token := signToken(t, jwt.MapClaims{"email": "token@example.com"})
	r := auth.NewResolver(kv, session, config.IdentityConfig{AuthToken: token})

	id, err := r.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Email: "token@example.com", Source: auth.SourceToken}, id)

	session.Set("session@example.com", "")
	id, err = r.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.SourceSession, id.Source)
	assert.Equal(t, "session@example.com", id.Email)

	require.NoError(t, r.Persist(ctx, "persisted@example.com"))
	id, err = r.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.SourcePersisted, id.Source)

	require.NoError(t, r.Forget(ctx))
	id, err = r.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.SourceToken, id.Source, "forget clears persisted and session values")
}

func TestResolveMissing(t *testing.T) {
	r := auth.NewResolver(newKV(t), auth.NewSession(), config.IdentityConfig{})
	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, auth.ErrIdentityMissing)
}

func TestResolveDeviceFallback(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	r := auth.NewResolver(kv, auth.NewSession(), config.IdentityConfig{DeviceFallback: true})

	first, err := r.Resolve(ctx)
	require.NoError(t, err)
	assert.True(t, first.IsDevice())
	assert.True(t, strings.HasPrefix(first.Email, "device-"))

	second, err := r.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Email, second.Email, "device id is stable once persisted")
}

func TestWaiter(t *testing.T) {
	t.Run("ImmediateHit", func(t *testing.T) {
		session := auth.NewSession()
		session.Set("a@example.com", "")
		w := auth.NewWaiter(auth.NewResolver(newKV(t), session, config.IdentityConfig{}), time.Second)

		id, err := w.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", id.Email)
	})

	t.Run("KickAfterIdentityArrives", func(t *testing.T) {
		session := auth.NewSession()
		w := auth.NewWaiter(auth.NewResolver(newKV(t), session, config.IdentityConfig{}), time.Hour)

		go func() {
			time.Sleep(50 * time.Millisecond)
			session.Set("late@example.com", "")
			w.Kick()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		id, err := w.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, "late@example.com", id.Email)
	})

	t.Run("PollTick", func(t *testing.T) {
		session := auth.NewSession()
		w := auth.NewWaiter(auth.NewResolver(newKV(t), session, config.IdentityConfig{}), time.Second)

		go func() {
			time.Sleep(100 * time.Millisecond)
			session.Set("polled@example.com", "")
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		id, err := w.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, "polled@example.com", id.Email)
	})

	t.Run("Cancelled", func(t *testing.T) {
		w := auth.NewWaiter(auth.NewResolver(newKV(t), auth.NewSession(), config.IdentityConfig{}), time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := w.Wait(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
