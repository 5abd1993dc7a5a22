package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfusion/catalog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *TMDBClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTMDBClient(Config{
		APIKey:  "key",
		BaseURL: srv.URL,
		Delay:   time.Millisecond,
	}, nil, srv.Client(), zerolog.Nop())
}

func TestSearchSendsKeyAndLanguage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "es-ES", r.URL.Query().Get("language"))
		assert.Equal(t, "dark", r.URL.Query().Get("query"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"id": 70523, "name": "Dark", "genre_ids": []int{18, 9648}}},
		})
	})

	results, err := client.Search(context.Background(), catalog.KindSeries, "dark")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Dark", results[0].DisplayTitle())
	assert.Equal(t, []int{18, 9648}, results[0].GenreIDs)
}

func TestBlankSearchSkipsRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL)
	})
	results, err := client.Search(context.Background(), catalog.KindMovie, "  ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		assert.Equal(t, "videos,credits", r.URL.Query().Get("append_to_response"))
		_, _ = w.Write([]byte(`{"id": 550, "title": "El club de la lucha", "genres": [{"id": 18, "name": "Drama"}]}`))
	})

	d, err := client.Details(context.Background(), catalog.KindMovie, 550)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "El club de la lucha", d.DisplayTitle())
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Details(context.Background(), catalog.KindMovie, 1)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewTMDBClient(Config{}, nil, nil, zerolog.Nop())
	_, err := client.Search(context.Background(), catalog.KindMovie, "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSeasonPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/tv/1396/season/2"))
		_, _ = w.Write([]byte(`{"season_number": 2, "episodes": [{"episode_number": 1, "name": "Siete Treinta y Siete"}]}`))
	})

	s, err := client.Season(context.Background(), 1396, 2)
	require.NoError(t, err)
	require.Len(t, s.Episodes, 1)
	assert.Equal(t, "Siete Treinta y Siete", s.Episodes[0].Name)
}
