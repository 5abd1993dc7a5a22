package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfusion/auth"
	"streamfusion/catalog"
	"streamfusion/playback"
	"streamfusion/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginResolvesSession(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_credentials"})
			return
		}
		writeJSON(w, http.StatusOK, auth.Result{
			User:  storage.User{ID: "u1", Email: body.Email, Role: storage.RoleAdmin},
			Token: "tok",
		})
	})
	r.Post("/api/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusCreated, storage.Message{ID: "m1", From: "u1", To: "admin", Body: "hola"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	session := auth.NewSession()
	updates, cancel := session.Subscribe()
	defer cancel()

	c := New(srv.URL, session, nil, zerolog.Nop())
	_, err := c.Login(context.Background(), "a@example.com", "wrong")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_credentials", apiErr.Code)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, auth.SessionLoading, (<-updates).State)
	snap := <-updates
	assert.Equal(t, auth.SessionResolved, snap.State)
	assert.Nil(t, snap.User)

	u, err := c.Login(context.Background(), "a@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	snap = c.Session().Snapshot()
	assert.Equal(t, auth.SessionResolved, snap.State)
	assert.True(t, snap.Admin())
	assert.Equal(t, "tok", snap.Token)

	m, err := c.SendMessage(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)

	c.Logout()
	assert.Nil(t, c.Session().Snapshot().User)
}

func TestRestoreWithExpiredToken(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, auth.Denied{Error: "unauthorized", Redirect: "/login"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(srv.URL, nil, nil, zerolog.Nop())
	_, err := c.Restore(context.Background(), "old")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "/login", apiErr.Redirect)
	assert.Equal(t, auth.SessionResolved, c.Session().Snapshot().State)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Get("/api/v1/content/{id}/play", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream"})
			return
		}
		assert.Equal(t, "2", r.URL.Query().Get("season"))
		writeJSON(w, http.StatusOK, playback.Plan{Kind: playback.Direct, URL: "https://cdn.example.com/e.mp4"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(srv.URL, nil, nil, zerolog.Nop())
	p, err := c.Play(context.Background(), "s1", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, playback.Direct, p.Kind)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenreBrowserDropsStaleResponses(t *testing.T) {
	release := make(chan struct{})
	slowStarted := make(chan struct{})
	r := chi.NewRouter()
	r.Get("/api/v1/genres/{genre}", func(w http.ResponseWriter, r *http.Request) {
		genre := chi.URLParam(r, "genre")
		if genre == "Terror" {
			close(slowStarted)
			<-release
		}
		writeJSON(w, http.StatusOK, catalog.Section{Key: genre, Label: genre, Items: []catalog.Item{{ID: genre}}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	b := NewGenreBrowser(New(srv.URL, nil, nil, zerolog.Nop()))

	var wg sync.WaitGroup
	var staleApplied bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, staleApplied, _ = b.Show(context.Background(), "Terror")
	}()

	select {
	case <-slowStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("slow request never started")
	}

	sec, applied, err := b.Show(context.Background(), "Drama")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "Drama", sec.Key)

	close(release)
	wg.Wait()
	assert.False(t, staleApplied)

	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "Drama", cur.Key)
}

func TestGenreBrowserRepeatedGenre(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/genres/{genre}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog.Section{Key: chi.URLParam(r, "genre")})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	b := NewGenreBrowser(New(srv.URL, nil, nil, zerolog.Nop()))
	_, ok := b.Current()
	assert.False(t, ok)

	for i := 0; i < 2; i++ {
		_, applied, err := b.Show(context.Background(), "Drama")
		require.NoError(t, err)
		assert.True(t, applied)
	}
}
