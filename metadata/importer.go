package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"streamfusion/catalog"
	"streamfusion/telemetry"
)

// ContentSaver persists imported items.
type ContentSaver interface {
	SaveContent(ctx context.Context, item catalog.Item) error
}

// Importer turns provider records into catalog items and saves them.
type Importer struct {
	provider Provider
	store    ContentSaver
	logger   zerolog.Logger
	now      func() time.Time
}

// NewImporter creates an importer.
func NewImporter(provider Provider, store ContentSaver, logger zerolog.Logger) *Importer {
	return &Importer{
		provider: provider,
		store:    store,
		logger:   logger.With().Str("component", "importer").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DocumentID is the catalog id for a provider title, e.g. movie_550 or
// tv_1396.
func DocumentID(kind catalog.Kind, id int64) string {
	return fmt.Sprintf("%s_%d", kind.TMDBType(), id)
}

// Search proxies a title search to the provider.
func (im *Importer) Search(ctx context.Context, kind catalog.Kind, query string) ([]SearchResult, error) {
	return im.provider.Search(ctx, kind, query)
}

// Import fetches a title with its seasons and saves it as a new catalog
// item owned by actor. Placement is left empty for an editor to fill in.
func (im *Importer) Import(ctx context.Context, kind catalog.Kind, id int64, actor string) (catalog.Item, error) {
	item, err := im.build(ctx, kind, id, actor)
	telemetry.Imports.WithLabelValues(kind.TMDBType(), telemetry.Result(err)).Inc()
	if err != nil {
		return catalog.Item{}, err
	}
	if err := im.store.SaveContent(ctx, item); err != nil {
		return catalog.Item{}, fmt.Errorf("failed to save imported content: %w", err)
	}
	im.logger.Info().Str("id", item.ID).Str("title", item.Title).Int("seasons", len(item.Seasons)).Msg("content imported")
	return item, nil
}

func (im *Importer) build(ctx context.Context, kind catalog.Kind, id int64, actor string) (catalog.Item, error) {
	d, err := im.provider.Details(ctx, kind, id)
	if err != nil {
		return catalog.Item{}, fmt.Errorf("failed to fetch details for %s: %w", DocumentID(kind, id), err)
	}

	item := catalog.Item{
		ID:            DocumentID(kind, id),
		Kind:          kind,
		Title:         d.DisplayTitle(),
		OriginalTitle: d.Original(),
		Overview:      d.Overview,
		PosterPath:    d.PosterPath,
		BackdropPath:  d.BackdropPath,
		ReleaseDate:   d.ReleaseDate,
		VoteAverage:   catalog.ClampRating(d.VoteAverage),
		Genres:        genreNames(d),
		Display: catalog.DisplayOptions{
			MainSections: []string{},
			HomeSections: []string{},
			Platforms:    []string{},
		},
		ImportedBy: actor,
		ImportedAt: im.now(),
	}
	if item.ReleaseDate == "" {
		item.ReleaseDate = d.FirstAirDate
	}

	if kind == catalog.KindSeries {
		item.Seasons = map[int]catalog.Season{}
		for _, s := range d.Seasons {
			if s.SeasonNumber == 0 {
				continue
			}
			sd, err := im.provider.Season(ctx, id, s.SeasonNumber)
			if err != nil {
				// A missing season should not sink the whole import.
				im.logger.Warn().Err(err).Int64("id", id).Int("season", s.SeasonNumber).Msg("skipping season")
				continue
			}
			season := catalog.Season{Number: s.SeasonNumber, Name: s.Name, Episodes: map[int]catalog.Episode{}}
			for _, ep := range sd.Episodes {
				season.Episodes[ep.EpisodeNumber] = catalog.Episode{
					Number:    ep.EpisodeNumber,
					Name:      ep.Name,
					Overview:  ep.Overview,
					StillPath: ep.StillPath,
				}
			}
			item.Seasons[s.SeasonNumber] = season
		}
	}
	return item, nil
}

// genreNames prefers the names on the details record and falls back to
// the local id table for ids TMDB sent without names.
func genreNames(d Details) []string {
	out := []string{}
	for _, g := range d.Genres {
		if g.Name != "" {
			out = append(out, g.Name)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, id := range d.GenreIDs {
		if name, ok := catalog.GenreName(id); ok {
			out = append(out, name)
		}
	}
	return out
}
