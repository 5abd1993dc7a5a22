package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfusion/catalog"
)

type fakeProvider struct {
	details Details
	seasons map[int]SeasonDetails
	asked   []int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Search(ctx context.Context, kind catalog.Kind, query string) ([]SearchResult, error) {
	return []SearchResult{f.details.SearchResult}, nil
}

func (f *fakeProvider) Details(ctx context.Context, kind catalog.Kind, id int64) (Details, error) {
	if f.details.ID != id {
		return Details{}, ErrNotFound
	}
	return f.details, nil
}

func (f *fakeProvider) Season(ctx context.Context, showID int64, number int) (SeasonDetails, error) {
	f.asked = append(f.asked, number)
	s, ok := f.seasons[number]
	if !ok {
		return SeasonDetails{}, ErrNotFound
	}
	return s, nil
}

type memoryStore struct {
	saved []catalog.Item
	err   error
}

func (m *memoryStore) SaveContent(ctx context.Context, item catalog.Item) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, item)
	return nil
}

func TestImportSeries(t *testing.T) {
	provider := &fakeProvider{
		details: Details{
			SearchResult: SearchResult{ID: 1396, Name: "Breaking Bad", FirstAirDate: "2008-01-20", VoteAverage: 8.9, GenreIDs: []int{18, 80}},
			OriginalName: "Breaking Bad",
			Seasons: []SeasonSummary{
				{SeasonNumber: 0, Name: "Especiales"},
				{SeasonNumber: 1, Name: "Temporada 1"},
				{SeasonNumber: 2, Name: "Temporada 2"},
			},
		},
		seasons: map[int]SeasonDetails{
			1: {SeasonNumber: 1, Episodes: []EpisodeDetails{{EpisodeNumber: 1, Name: "Piloto"}, {EpisodeNumber: 2, Name: "El gato está en la bolsa"}}},
		},
	}
	store := &memoryStore{}
	im := NewImporter(provider, store, zerolog.Nop())
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	im.now = func() time.Time { return fixed }

	item, err := im.Import(context.Background(), catalog.KindSeries, 1396, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, "tv_1396", item.ID)
	assert.Equal(t, catalog.KindSeries, item.Kind)
	assert.Equal(t, "2008-01-20", item.ReleaseDate)
	assert.Equal(t, []string{"Drama", "Crimen"}, item.Genres)
	assert.Equal(t, "admin-1", item.ImportedBy)
	assert.Equal(t, fixed, item.ImportedAt)
	assert.Equal(t, []int{1, 2}, provider.asked)
	require.Len(t, item.Seasons, 1)
	assert.Len(t, item.Seasons[1].Episodes, 2)
	assert.NotNil(t, item.Display.HomeSections)
	require.Len(t, store.saved, 1)
}

func TestImportMoviePrefersNamedGenres(t *testing.T) {
	provider := &fakeProvider{details: Details{
		SearchResult: SearchResult{ID: 550, Title: "El club de la lucha", GenreIDs: []int{18}},
		Genres:       []Genre{{ID: 18, Name: "Drama"}, {ID: 53, Name: "Suspense"}},
	}}
	im := NewImporter(provider, &memoryStore{}, zerolog.Nop())

	item, err := im.Import(context.Background(), catalog.KindMovie, 550, "admin")
	require.NoError(t, err)
	assert.Equal(t, "movie_550", item.ID)
	assert.Equal(t, []string{"Drama", "Suspense"}, item.Genres)
	assert.Empty(t, item.Seasons)
	assert.Empty(t, provider.asked)
}

func TestImportErrors(t *testing.T) {
	provider := &fakeProvider{details: Details{SearchResult: SearchResult{ID: 1, Title: "x"}}}

	_, err := NewImporter(provider, &memoryStore{}, zerolog.Nop()).Import(context.Background(), catalog.KindMovie, 2, "admin")
	assert.True(t, IsNotFound(err))

	boom := errors.New("disk full")
	_, err = NewImporter(provider, &memoryStore{err: boom}, zerolog.Nop()).Import(context.Background(), catalog.KindMovie, 1, "admin")
	assert.ErrorIs(t, err, boom)
}
