package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfusion/playback"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/media/movie.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("not really a video"))
	})
	mux.HandleFunc("/embed/alive", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title>Player</title></head><body><video></video></body></html>"))
	})
	mux.HandleFunc("/embed/gone", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title>File was deleted</title></head><body></body></html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckDirectSource(t *testing.T) {
	srv := newTestServer(t)
	c := NewSourceChecker(0, zerolog.Nop())

	st, err := c.Check(context.Background(), "m1", srv.URL+"/media/movie.mp4")
	require.NoError(t, err)
	assert.True(t, st.OK)
	assert.Equal(t, http.StatusOK, st.StatusCode)
	assert.Equal(t, string(playback.Direct), st.Kind)
	assert.Equal(t, "m1", st.ContentID)
}

func TestCheckEmbeddedSource(t *testing.T) {
	srv := newTestServer(t)
	c := NewSourceChecker(0, zerolog.Nop())

	st, err := c.Check(context.Background(), "s1", srv.URL+"/embed/alive")
	require.NoError(t, err)
	assert.True(t, st.OK)
	assert.Equal(t, string(playback.Embedded), st.Kind)

	st, err = c.Check(context.Background(), "s1", srv.URL+"/embed/gone")
	require.NoError(t, err)
	assert.False(t, st.OK)
	assert.Contains(t, st.Error, "file was deleted")
}

func TestCheckMissingSource(t *testing.T) {
	srv := newTestServer(t)
	c := NewSourceChecker(0, zerolog.Nop())

	st, err := c.Check(context.Background(), "m2", srv.URL+"/media/missing.mp4")
	require.NoError(t, err)
	assert.False(t, st.OK)
	assert.Equal(t, http.StatusNotFound, st.StatusCode)
	assert.NotEmpty(t, st.Error)
}

func TestCheckBlankSource(t *testing.T) {
	c := NewSourceChecker(0, zerolog.Nop())
	st, err := c.Check(context.Background(), "m3", "   ")
	assert.ErrorIs(t, err, ErrNoSource)
	assert.False(t, st.OK)
	assert.Equal(t, string(playback.Unavailable), st.Kind)
}

func TestCheckCanceledContext(t *testing.T) {
	c := NewSourceChecker(0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Check(ctx, "m4", "https://example.com/movie.mp4")
	assert.ErrorIs(t, err, context.Canceled)
}
