package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"streamfusion/catalog"
	"streamfusion/events"
	"streamfusion/metadata"
	"streamfusion/storage"
)

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.GetStats(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to load stats")
		writeError(w, http.StatusInternalServerError, "stats_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleAdminListContent(w http.ResponseWriter, r *http.Request) {
	items, ok := a.allContent(w, r)
	if !ok {
		return
	}
	if kind := r.URL.Query().Get("type"); kind != "" {
		want := catalog.ParseKind(kind)
		filtered := []catalog.Item{}
		for _, it := range items {
			if it.Kind == want {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	if q := r.URL.Query().Get("q"); q != "" {
		items = catalog.Search(items, q)
	}
	writeJSON(w, http.StatusOK, items)
}

// contentRequest is the admin edit form. Genres accept names or TMDB ids.
type contentRequest struct {
	Kind          string                 `json:"media_type"`
	Title         string                 `json:"title"`
	OriginalTitle string                 `json:"original_title"`
	Overview      string                 `json:"overview"`
	PosterPath    string                 `json:"poster_path"`
	BackdropPath  string                 `json:"backdrop_path"`
	ReleaseDate   string                 `json:"release_date"`
	VoteAverage   float64                `json:"vote_average"`
	Genres        any                    `json:"genres"`
	VideoURL      string                 `json:"video_url"`
	Seasons       map[int]catalog.Season `json:"seasons"`
	Display       catalog.DisplayOptions `json:"display_options"`
}

func (req contentRequest) validate() string {
	if strings.TrimSpace(req.Title) == "" {
		return "title_required"
	}
	if strings.TrimSpace(req.Overview) == "" {
		return "overview_required"
	}
	return ""
}

func (req contentRequest) apply(item *catalog.Item) error {
	seasons, err := catalog.NumberSeasons(req.Seasons)
	if err != nil {
		return err
	}
	if req.Kind != "" {
		item.Kind = catalog.ParseKind(req.Kind)
	}
	item.Title = strings.TrimSpace(req.Title)
	item.OriginalTitle = req.OriginalTitle
	item.Overview = strings.TrimSpace(req.Overview)
	item.PosterPath = req.PosterPath
	item.BackdropPath = req.BackdropPath
	item.ReleaseDate = req.ReleaseDate
	item.VoteAverage = catalog.ClampRating(req.VoteAverage)
	item.Genres = catalog.NormalizeGenres(req.Genres)
	item.VideoURL = strings.TrimSpace(req.VideoURL)
	item.Seasons = seasons
	item.Display = req.Display
	return nil
}

func (a *API) handleAdminCreateContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if code := req.validate(); code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}

	item := catalog.Item{ID: uuid.NewString(), Kind: catalog.KindMovie, ImportedBy: claims(r).UserID}
	if err := req.apply(&item); err != nil {
		writeError(w, http.StatusBadRequest, "season_number_mismatch")
		return
	}
	a.saveContent(w, r, item, http.StatusCreated)
}

func (a *API) handleAdminUpdateContent(w http.ResponseWriter, r *http.Request) {
	item, ok := a.loadItem(w, r)
	if !ok {
		return
	}
	var req contentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if code := req.validate(); code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}
	if err := req.apply(&item); err != nil {
		writeError(w, http.StatusBadRequest, "season_number_mismatch")
		return
	}
	a.saveContent(w, r, item, http.StatusOK)
}

// saveContent stamps the import time, persists and announces the item.
func (a *API) saveContent(w http.ResponseWriter, r *http.Request, item catalog.Item, status int) {
	item.ImportedAt = a.now().UTC()
	if err := a.store.SaveContent(r.Context(), item); err != nil {
		a.logger.Error().Err(err).Str("id", item.ID).Msg("failed to save content")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	a.publish(events.EventContentSaved, events.Payload{"id": item.ID, "title": item.Title, "actor": claims(r).UserID})
	writeJSON(w, status, item)
}

func (a *API) handleAdminDeleteContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := a.store.DeleteContent(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "content_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("id", id).Msg("failed to delete content")
		writeError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	a.publish(events.EventContentDeleted, events.Payload{"id": id, "actor": claims(r).UserID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleImportSearch(w http.ResponseWriter, r *http.Request) {
	if a.importer == nil {
		writeError(w, http.StatusServiceUnavailable, "import_not_configured")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, []metadata.SearchResult{})
		return
	}
	kind := catalog.ParseKind(r.URL.Query().Get("type"))
	results, err := a.importer.Search(r.Context(), kind, q)
	if err != nil {
		a.importError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type importRequest struct {
	Type   string `json:"type"`
	TMDBID int64  `json:"tmdb_id"`
}

func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	if a.importer == nil {
		writeError(w, http.StatusServiceUnavailable, "import_not_configured")
		return
	}
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TMDBID <= 0 {
		writeError(w, http.StatusBadRequest, "tmdb_id_required")
		return
	}

	item, err := a.importer.Import(r.Context(), catalog.ParseKind(req.Type), req.TMDBID, claims(r).UserID)
	if err != nil {
		a.importError(w, err)
		return
	}
	a.publish(events.EventContentSaved, events.Payload{"id": item.ID, "title": item.Title, "actor": claims(r).UserID})
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) importError(w http.ResponseWriter, err error) {
	switch {
	case metadata.IsNotFound(err):
		writeError(w, http.StatusNotFound, "tmdb_not_found")
	case errors.Is(err, metadata.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "import_not_configured")
	default:
		a.logger.Error().Err(err).Msg("metadata request failed")
		writeError(w, http.StatusBadGateway, "tmdb_unavailable")
	}
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	a.handlePublicSettings(w, r)
}

// handlePutSettings applies a partial update over the stored settings.
func (a *API) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.store.GetWebConfig(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to load settings")
		writeError(w, http.StatusInternalServerError, "settings_unavailable")
		return
	}
	if !decodeJSON(w, r, &cfg) {
		return
	}
	if err := a.store.SaveWebConfig(r.Context(), cfg); err != nil {
		a.logger.Error().Err(err).Msg("failed to save settings")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *API) handleBrokenSources(w http.ResponseWriter, r *http.Request) {
	broken, err := a.store.ListBrokenSources(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to list broken sources")
		writeError(w, http.StatusInternalServerError, "sources_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(broken), "sources": broken})
}

func (a *API) publish(t events.EventType, p events.Payload) {
	if a.bus != nil {
		a.bus.Publish(t, p)
	}
}

func parseLimit(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
