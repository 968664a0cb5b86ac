package cache_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/progress"
)

func sampleEnvelope() *cache.Envelope {
	return &cache.Envelope{
		Progress: &progress.Record{
			Content:         progress.ContentProgress{Viewed: 2, Total: 10, Percentage: 20},
			BotInteractions: progress.BotInteractions{Count: 3},
		},
		ViewedPages: []string{"/week1/", "/week2/"},
		LastUpdated: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newGormKV(t *testing.T) *cache.GormKV {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	kv, err := cache.NewGormKV(db)
	require.NoError(t, err)
	return kv
}

func backends(t *testing.T) map[string]cache.KV {
	fileKV, err := cache.NewFileKV(t.TempDir())
	require.NoError(t, err)
	return map[string]cache.KV{
		"file": fileKV,
		"gorm": newGormKV(t),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := cache.NewStore(kv, nil)
			assert.Nil(t, store.Load(ctx), "empty backend is a cold start")

			require.NoError(t, store.Save(ctx, sampleEnvelope()))
			got := store.Load(ctx)
			require.NotNil(t, got)
			assert.Equal(t, []string{"/week1/", "/week2/"}, got.ViewedPages)
			assert.Equal(t, 3, got.Progress.BotInteractions.Count)
			assert.True(t, got.LastUpdated.Equal(sampleEnvelope().LastUpdated))

			next := sampleEnvelope()
			next.ViewedPages = []string{"/week3/"}
			require.NoError(t, store.Save(ctx, next))
			assert.Equal(t, []string{"/week3/"}, store.Load(ctx).ViewedPages, "save overwrites the whole blob")

			require.NoError(t, store.Clear(ctx))
			assert.Nil(t, store.Load(ctx))
		})
	}
}

func TestStoreCorruptEnvelope(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, cache.EnvelopeKey, []byte("{not json")))
			assert.Nil(t, cache.NewStore(kv, nil).Load(ctx))
		})
	}
}

func TestStoreDedupesViewedPages(t *testing.T) {
	ctx := context.Background()
	kv, err := cache.NewFileKV(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, cache.EnvelopeKey,
		[]byte(`{"progress":null,"viewedPages":["/a/","/b/","/a/"],"lastUpdated":"2025-05-01T00:00:00Z"}`)))

	env := cache.NewStore(kv, nil).Load(ctx)
	require.NotNil(t, env)
	assert.Equal(t, []string{"/a/", "/b/"}, env.ViewedPages)
	assert.Nil(t, env.Progress)
}

func TestStoreSealed(t *testing.T) {
	ctx := context.Background()
	kv, err := cache.NewFileKV(t.TempDir())
	require.NoError(t, err)

	sealer, err := config.NewSealer([]byte("01234567890123456789012345678901"))
	require.NoError(t, err)

	store := cache.NewStore(kv, sealer)
	require.NoError(t, store.Save(ctx, sampleEnvelope()))

	raw, err := kv.Get(ctx, cache.EnvelopeKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "/week1/")

	got := store.Load(ctx)
	require.NotNil(t, got)
	assert.Equal(t, sampleEnvelope().ViewedPages, got.ViewedPages)

	t.Run("WrongKeyIsColdStart", func(t *testing.T) {
		other, err := config.NewSealer([]byte("abcdefghijabcdefghijabcdefghijab"))
		require.NoError(t, err)
		assert.Nil(t, cache.NewStore(kv, other).Load(ctx))
	})

	t.Run("PlaintextUnderSealerIsColdStart", func(t *testing.T) {
		require.NoError(t, cache.NewStore(kv, nil).Save(ctx, sampleEnvelope()))
		assert.Nil(t, store.Load(ctx))
	})
}

func TestFileKVRejectsPathKeys(t *testing.T) {
	kv, err := cache.NewFileKV(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, kv.Set(context.Background(), "../escape", []byte("x")))

	_, err = kv.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestEnvelopeClone(t *testing.T) {
	env := sampleEnvelope()
	c := env.Clone()
	c.ViewedPages[0] = "/changed/"
	c.Progress.BotInteractions.Count = 99

	assert.Equal(t, "/week1/", env.ViewedPages[0])
	assert.Equal(t, 3, env.Progress.BotInteractions.Count)

	var nilEnv *cache.Envelope
	assert.Nil(t, nilEnv.Clone())
}
