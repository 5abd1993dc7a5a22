// Package api exposes the catalog, playback, account and admin surfaces
// over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"streamfusion/auth"
	"streamfusion/catalog"
	"streamfusion/events"
	"streamfusion/messaging"
	"streamfusion/metadata"
	"streamfusion/storage"
	"streamfusion/telemetry"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Store is the persistence the HTTP layer depends on.
type Store interface {
	storage.ContentStore
	RecordClick(ctx context.Context, contentID string) error
	GetStats(ctx context.Context) (storage.Stats, error)
	GetUser(ctx context.Context, id string) (storage.User, error)
	ListUsers(ctx context.Context, query string, limit int) ([]storage.User, error)
	SetUserBanned(ctx context.Context, id string, banned bool) error
	DeleteUser(ctx context.Context, id string) error
	GetWebConfig(ctx context.Context) (storage.WebConfig, error)
	SaveWebConfig(ctx context.Context, cfg storage.WebConfig) error
	ListBrokenSources(ctx context.Context) ([]storage.SourceStatus, error)
}

// Deps are the services the API is built from. Importer may be nil when no
// metadata provider is configured.
type Deps struct {
	Store     Store
	Auth      *auth.Service
	Messages  *messaging.Service
	Importer  *metadata.Importer
	Bus       *events.Bus
	JWTSecret []byte
	Logger    zerolog.Logger
}

// API exposes HTTP handlers.
type API struct {
	store     Store
	auth      *auth.Service
	messages  *messaging.Service
	importer  *metadata.Importer
	bus       *events.Bus
	jwtSecret []byte
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates the API router wrapper.
func New(d Deps) *API {
	return &API{
		store:     d.Store,
		auth:      d.Auth,
		messages:  d.Messages,
		importer:  d.Importer,
		bus:       d.Bus,
		jwtSecret: d.JWTSecret,
		logger:    d.Logger.With().Str("component", "api").Logger(),
		now:       time.Now,
	}
}

// Handler builds the full router with middleware.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(telemetry.Middleware)

	r.Get("/health", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())
	a.Routes(r)
	return r
}

// Routes mounts API routes on provided router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(a.jwtSecret))

		r.Get("/home", a.handleHome)
		r.Get("/sections/{section}", a.handleSection)
		r.Get("/home-sections/{key}", a.handleHomeSection)
		r.Get("/genres/{genre}", a.handleGenre)
		r.Get("/categories/{slug}", a.handleCategory)
		r.Get("/search", a.handleSearch)
		r.Get("/settings", a.handlePublicSettings)

		r.Route("/content/{id}", func(r chi.Router) {
			r.Get("/", a.handleContent)
			r.Get("/play", a.handlePlay)
			r.Post("/click", a.handleClick)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", a.handleRegister)
			r.Post("/login", a.handleLogin)
			r.With(auth.RequireUser).Get("/me", a.handleMe)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(auth.RequireUser, a.requireActive)
			pr.Get("/messages", a.handleUserThread)
			pr.Post("/messages", a.handleUserSend)
		})

		r.Route("/admin", func(ar chi.Router) {
			ar.Use(auth.RequireRole(storage.RoleAdmin))

			ar.Get("/stats", a.handleStats)

			ar.Route("/content", func(r chi.Router) {
				r.Get("/", a.handleAdminListContent)
				r.Post("/", a.handleAdminCreateContent)
				r.Get("/{id}", a.handleContent)
				r.Put("/{id}", a.handleAdminUpdateContent)
				r.Delete("/{id}", a.handleAdminDeleteContent)
			})

			ar.Get("/import/search", a.handleImportSearch)
			ar.Post("/import", a.handleImport)

			ar.Route("/users", func(r chi.Router) {
				r.Get("/", a.handleListUsers)
				r.Post("/{id}/ban", a.handleBanUser)
				r.Delete("/{id}", a.handleDeleteUser)
			})

			ar.Route("/messages", func(r chi.Router) {
				r.Get("/", a.handleAdminConversations)
				r.Get("/stream", a.handleMessageStream)
				r.Get("/{user}", a.handleAdminThread)
				r.Post("/{user}", a.handleAdminSend)
			})

			ar.Get("/settings", a.handleGetSettings)
			ar.Put("/settings", a.handlePutSettings)
			ar.Get("/sources/broken", a.handleBrokenSources)
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// allContent loads the catalog, answering the request itself on failure.
func (a *API) allContent(w http.ResponseWriter, r *http.Request) ([]catalog.Item, bool) {
	items, err := a.store.GetAllContent(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to load content")
		writeError(w, http.StatusInternalServerError, "content_unavailable")
		return nil, false
	}
	return items, true
}

func claims(r *http.Request) *auth.Claims {
	c, _ := auth.ClaimsFromContext(r.Context())
	return c
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
