// Package metadata imports catalog entries from an external movie
// metadata API.
package metadata

import (
	"context"
	"errors"

	"streamfusion/catalog"
)

// ErrNotFound is returned when the provider has no such title.
var ErrNotFound = errors.New("metadata not found")

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("metadata provider is not configured")

// Provider is a source of title metadata.
type Provider interface {
	Search(ctx context.Context, kind catalog.Kind, query string) ([]SearchResult, error)
	Details(ctx context.Context, kind catalog.Kind, id int64) (Details, error)
	Season(ctx context.Context, showID int64, number int) (SeasonDetails, error)
	Name() string
}

// SearchResult is one hit from a title search.
type SearchResult struct {
	ID           int64   `json:"id"`
	MediaType    string  `json:"media_type,omitempty"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int   `json:"genre_ids"`
}

// DisplayTitle picks the movie title or the show name.
func (r SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Genre is a provider genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SeasonSummary is a season listed on a show's details.
type SeasonSummary struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episode_count"`
}

// Details is the full record for a title.
type Details struct {
	SearchResult
	OriginalTitle string          `json:"original_title,omitempty"`
	OriginalName  string          `json:"original_name,omitempty"`
	Genres        []Genre         `json:"genres"`
	Seasons       []SeasonSummary `json:"seasons,omitempty"`
}

// Original returns the original-language title.
func (d Details) Original() string {
	if d.OriginalTitle != "" {
		return d.OriginalTitle
	}
	return d.OriginalName
}

// EpisodeDetails is one episode of a season.
type EpisodeDetails struct {
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	StillPath     string `json:"still_path"`
}

// SeasonDetails lists a season's episodes.
type SeasonDetails struct {
	SeasonNumber int              `json:"season_number"`
	Name         string           `json:"name"`
	Episodes     []EpisodeDetails `json:"episodes"`
}
