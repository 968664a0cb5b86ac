package syncer_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulo-duarte/course-progress-agent/internal/progress"
	"github.com/saulo-duarte/course-progress-agent/internal/remote"
	"github.com/saulo-duarte/course-progress-agent/internal/syncer"
)

func serve(f *fixture, method, target string) *httptest.ResponseRecorder {
	h := syncer.Routes(syncer.NewHandler(f.svc))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestGetProgressRefresh(t *testing.T) {
	t.Run("CachedOnly", func(t *testing.T) {
		r := &fakeRemote{record: &progress.Record{Quizzes: progress.QuizProgress{Passed: 4}}}
		f := newFixture(t, r)
		f.seed(t, "/week1/")

		rec := serve(f, http.MethodGet, "/progress")
		require.Equal(t, http.StatusOK, rec.Code)

		var view syncer.ProgressView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Zero(t, view.Progress.Quizzes.Passed)
	})

	t.Run("FetchesRecord", func(t *testing.T) {
		r := &fakeRemote{record: &progress.Record{Quizzes: progress.QuizProgress{Passed: 4}}}
		f := newFixture(t, r)
		f.seed(t, "/week1/")

		rec := serve(f, http.MethodGet, "/progress?refresh=true")
		require.Equal(t, http.StatusOK, rec.Code)

		var view syncer.ProgressView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, 4, view.Progress.Quizzes.Passed)
		assert.Equal(t, []string{"/week1/"}, view.ViewedPages)
	})

	t.Run("NoIdentity", func(t *testing.T) {
		f := newFixture(t, &fakeRemote{record: &progress.Record{}})
		f.session.Clear()

		rec := serve(f, http.MethodGet, "/progress?refresh=true")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("RemoteFailureKeepsCachedView", func(t *testing.T) {
		f := newFixture(t, &fakeRemote{getErr: remote.ErrNetwork})
		f.seed(t, "/week2/")

		rec := serve(f, http.MethodGet, "/progress?refresh=true")
		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), `"/week2/"`)
	})
}

func TestServerViewedPages(t *testing.T) {
	t.Run("ReturnsServerSet", func(t *testing.T) {
		f := newFixture(t, &fakeRemote{serverSet: []string{"/week1/", "/week3/", "/week1/"}})
		f.seed(t, "/week9/")

		rec := serve(f, http.MethodGet, "/progress/viewed-pages")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			ViewedPages []string `json:"viewed_pages"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, []string{"/week1/", "/week3/"}, body.ViewedPages)
		assert.Equal(t, []string{"/week9/"}, f.svc.State().Snapshot().ViewedPages, "local state untouched")
	})

	t.Run("NoIdentity", func(t *testing.T) {
		f := newFixture(t, &fakeRemote{})
		f.session.Clear()
		assert.Equal(t, http.StatusUnauthorized, serve(f, http.MethodGet, "/progress/viewed-pages").Code)
	})

	t.Run("RemoteFailure", func(t *testing.T) {
		f := newFixture(t, &fakeRemote{pagesErr: remote.ErrNetwork})
		assert.Equal(t, http.StatusBadGateway, serve(f, http.MethodGet, "/progress/viewed-pages").Code)
	})
}
