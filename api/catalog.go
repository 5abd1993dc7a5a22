package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"streamfusion/catalog"
	"streamfusion/playback"
	"streamfusion/storage"
	"streamfusion/telemetry"
)

type sectionResponse struct {
	Key   string         `json:"key"`
	Label string         `json:"label"`
	Items []catalog.Item `json:"items"`
}

func (a *API) handleHome(w http.ResponseWriter, r *http.Request) {
	items, ok := a.allContent(w, r)
	if !ok {
		return
	}
	now := a.now()
	view := catalog.Build(items, now)
	telemetry.AggregationDuration.Observe(a.now().Sub(now).Seconds())
	telemetry.CatalogItems.Set(float64(len(items)))
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleSection(w http.ResponseWriter, r *http.Request) {
	section := strings.TrimSpace(chi.URLParam(r, "section"))
	items, err := a.store.GetContentBySection(r.Context(), section)
	if err != nil {
		a.logger.Error().Err(err).Str("section", section).Msg("failed to load section")
		writeError(w, http.StatusInternalServerError, "content_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, catalog.SectionPage(items, section, a.now()))
}

func (a *API) handleHomeSection(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	items, ok := a.allContent(w, r)
	if !ok {
		return
	}
	home := catalog.HomeSections(items)
	writeJSON(w, http.StatusOK, sectionResponse{
		Key:   key,
		Label: catalog.SectionLabel(key),
		Items: catalog.Recent(home.Get(key), catalog.HomeSectionLimit),
	})
}

func (a *API) handleGenre(w http.ResponseWriter, r *http.Request) {
	genre := strings.TrimSpace(chi.URLParam(r, "genre"))
	items, ok := a.allContent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sectionResponse{Key: genre, Label: genre, Items: catalog.FilterByGenre(items, genre)})
}

func (a *API) handleCategory(w http.ResponseWriter, r *http.Request) {
	items, ok := a.allContent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, catalog.CategoryView(items, chi.URLParam(r, "slug"), a.now()))
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	items, ok := a.allContent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": catalog.Search(items, q)})
}

func (a *API) handleContent(w http.ResponseWriter, r *http.Request) {
	item, ok := a.loadItem(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) loadItem(w http.ResponseWriter, r *http.Request) (catalog.Item, bool) {
	id := chi.URLParam(r, "id")
	item, err := a.store.GetContent(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "content_not_found")
		return catalog.Item{}, false
	}
	if err != nil {
		a.logger.Error().Err(err).Str("id", id).Msg("failed to load content")
		writeError(w, http.StatusInternalServerError, "content_unavailable")
		return catalog.Item{}, false
	}
	return item, true
}

type playResponse struct {
	playback.Plan
	Season  int                  `json:"season,omitempty"`
	Episode int                  `json:"episode,omitempty"`
	Prev    *playback.EpisodeRef `json:"prev,omitempty"`
	Next    *playback.EpisodeRef `json:"next,omitempty"`
}

// handlePlay resolves what the player should render. Series take season and
// episode query parameters; an unknown episode answers 404 and a missing
// source answers with an unavailable plan.
func (a *API) handlePlay(w http.ResponseWriter, r *http.Request) {
	item, ok := a.loadItem(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var resp playResponse
	if q.Get("season") != "" || q.Get("episode") != "" {
		season, err1 := strconv.Atoi(q.Get("season"))
		episode, err2 := strconv.Atoi(q.Get("episode"))
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "invalid_episode")
			return
		}
		ep, found := item.Episode(season, episode)
		if !found {
			writeError(w, http.StatusNotFound, "episode_not_found")
			return
		}
		prev, next := playback.Neighbors(item, season, episode)
		var nav playback.Navigation
		if prev != nil {
			nav.Prev = func() {}
		}
		if next != nil {
			nav.Next = func() {}
		}
		resp = playResponse{
			Plan:    playback.Prepare(item, season, &ep, nav),
			Season:  season,
			Episode: episode,
			Prev:    prev,
			Next:    next,
		}
	} else {
		resp.Plan = playback.Prepare(item, 0, nil, playback.Navigation{})
	}

	telemetry.PlaybackRequests.WithLabelValues(string(resp.Kind)).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleClick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := a.store.GetContent(r.Context(), id); errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "content_not_found")
		return
	}
	if err := a.store.RecordClick(r.Context(), id); err != nil {
		a.logger.Error().Err(err).Str("id", id).Msg("failed to record click")
		writeError(w, http.StatusInternalServerError, "click_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handlePublicSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.store.GetWebConfig(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to load settings")
		writeError(w, http.StatusInternalServerError, "settings_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
