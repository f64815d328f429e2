package tagging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/pkg/botconversa"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func realBackend(t *testing.T, h http.Handler) Backend {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return RealFactory(botconversa.WithBaseURL(srv.URL), botconversa.WithSleeper(noSleep))("test-key-123")
}

func TestRealBackend_TestKey(t *testing.T) {
	t.Parallel()

	b := realBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key-123", r.Header.Get("API-KEY"))
		w.Write([]byte(`[]`))
	}))

	st, err := b.TestKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.KeyStatus{OK: true, Mode: model.ModeReal}, st)
	assert.Equal(t, model.ModeReal, b.Mode())
}

func TestRealBackend_TestKeyInvalid(t *testing.T) {
	t.Parallel()

	b := realBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	st, err := b.TestKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.KeyStatus{OK: false, Mode: model.ModeReal, Reason: "invalid_key", Status: http.StatusForbidden}, st)
}

func TestRealBackend_TestKeyUpstreamDown(t *testing.T) {
	t.Parallel()

	b := realBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := b.TestKey(context.Background())
	require.Error(t, err)
	assert.True(t, botconversa.IsGateway(err))
}

func TestRealBackend_ResolveTagMissing(t *testing.T) {
	t.Parallel()

	b := realBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tags/", r.URL.Path)
		w.Write([]byte(`[{"id":1,"name":"Other"}]`))
	}))

	_, err := b.ResolveTag(context.Background(), "VIP")
	var nf *TagNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "VIP", nf.Name)
}

func TestRealBackend_AttachOverHTTP(t *testing.T) {
	t.Parallel()

	var attached atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /subscriber/9/tags/4/", func(w http.ResponseWriter, r *http.Request) {
		attached.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /subscriber/9/tags/", func(w http.ResponseWriter, r *http.Request) {
		if attached.Load() {
			w.Write([]byte(`[{"id":4,"name":"VIP"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})
	b := realBackend(t, mux)

	res, err := b.AttachTag(context.Background(), 9, 4)
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, map[string]any{"ok": true}, res.Response)

	tags, err := b.ListSubscriberTags(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{{ID: 4, Name: "VIP"}}, tags)
}

func TestRealBackend_ListTagsUnreadable(t *testing.T) {
	t.Parallel()

	b := realBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	tags, err := b.ListSubscriberTags(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
