package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNumberMismatch is returned when a season or episode body carries a
// number different from the key it is stored under.
var ErrNumberMismatch = errors.New("number does not match its key")

// Kind is the media type of a catalog entry.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// ParseKind maps stored and TMDB media types onto a Kind. Unknown values
// fall back to movie.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "series", "tv", "serie", "show":
		return KindSeries
	default:
		return KindMovie
	}
}

// TMDBType returns the media type segment TMDB uses for this kind.
func (k Kind) TMDBType() string {
	if k == KindSeries {
		return "tv"
	}
	return "movie"
}

// DisplayOptions controls where an item is placed in the UI.
type DisplayOptions struct {
	MainSections []string `json:"main_sections"`
	HomeSections []string `json:"home_sections"`
	Platforms    []string `json:"platforms"`
}

// Episode is a single playable episode of a season.
type Episode struct {
	Number    int    `json:"episode_number"`
	Name      string `json:"name"`
	Overview  string `json:"overview"`
	StillPath string `json:"still_path,omitempty"`
	VideoURL  string `json:"video_url,omitempty"`
}

// Season groups episodes by episode number.
type Season struct {
	Number   int             `json:"season_number"`
	Name     string          `json:"name,omitempty"`
	Episodes map[int]Episode `json:"episodes"`
}

// Item is one catalog entry. A zero ImportedAt means the import time was
// missing or could not be parsed.
type Item struct {
	ID            string         `json:"id"`
	Kind          Kind           `json:"media_type"`
	Title         string         `json:"title"`
	OriginalTitle string         `json:"original_title,omitempty"`
	Overview      string         `json:"overview"`
	PosterPath    string         `json:"poster_path"`
	BackdropPath  string         `json:"backdrop_path,omitempty"`
	ReleaseDate   string         `json:"release_date,omitempty"`
	VoteAverage   float64        `json:"vote_average"`
	Genres        []string       `json:"genres"`
	VideoURL      string         `json:"video_url,omitempty"`
	Seasons       map[int]Season `json:"seasons,omitempty"`
	Display       DisplayOptions `json:"display_options"`
	ImportedBy    string         `json:"imported_by,omitempty"`
	ImportedAt    time.Time      `json:"imported_at"`
}

// Episode looks up an episode by season and episode number.
func (it Item) Episode(season, episode int) (Episode, bool) {
	s, ok := it.Seasons[season]
	if !ok {
		return Episode{}, false
	}
	ep, ok := s.Episodes[episode]
	return ep, ok
}

// NumberSeasons returns a copy of seasons with every season and episode
// number set from its map key. A body number of zero means unset; any other
// number must equal its key.
func NumberSeasons(seasons map[int]Season) (map[int]Season, error) {
	out := make(map[int]Season, len(seasons))
	for sn, season := range seasons {
		if season.Number != 0 && season.Number != sn {
			return nil, fmt.Errorf("season %d: %w (got %d)", sn, ErrNumberMismatch, season.Number)
		}
		episodes := make(map[int]Episode, len(season.Episodes))
		for en, ep := range season.Episodes {
			if ep.Number != 0 && ep.Number != en {
				return nil, fmt.Errorf("season %d episode %d: %w (got %d)", sn, en, ErrNumberMismatch, ep.Number)
			}
			ep.Number = en
			episodes[en] = ep
		}
		season.Number = sn
		season.Episodes = episodes
		out[sn] = season
	}
	return out, nil
}

// ClampRating keeps a vote average inside the 0..10 scale.
func ClampRating(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
