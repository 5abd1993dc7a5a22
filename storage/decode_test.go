package storage

import (
	"encoding/json"
	"testing"

	"streamfusion/catalog"
)

const exportFixture = `{
  "movie_550": {
    "media_type": "movie",
    "title": "El club de la lucha",
    "genres": [18, "53"],
    "vote_average": 8.4,
    "display_options": {"main_sections": ["movies"], "home_sections": ["populares"], "platforms": []},
    "imported_by": "admin",
    "imported_at": {"_seconds": 1714979289, "_nanoseconds": 0}
  },
  "tv_1396": {
    "media_type": "tv",
    "name": "Breaking Bad",
    "genres": "Drama",
    "seasons": {
      "1": {"season_number": 1, "episodes": {"1": {"episode_number": 1, "name": "Piloto", "video_url": "https://cdn.example.com/bb.mp4"}}},
      "2": "corrupt"
    },
    "imported_at": "not a date"
  },
  "bad": 42,
  "": {"title": "nameless"}
}`

func TestParseExport(t *testing.T) {
	items, errs := ParseExport([]byte(exportFixture))
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if len(errs) != 2 {
		t.Errorf("Expected 2 record errors, got %v", errs)
	}

	byID := map[string]catalog.Item{}
	for _, it := range items {
		byID[it.ID] = it
	}

	movie := byID["movie_550"]
	if movie.Genres[0] != "Drama" || movie.Genres[1] != "Suspense" {
		t.Errorf("Expected normalized genres, got %v", movie.Genres)
	}
	if movie.ImportedAt.Unix() != 1714979289 {
		t.Errorf("Expected imported_at from wrapper, got %s", movie.ImportedAt)
	}
	if len(movie.Display.HomeSections) != 1 {
		t.Errorf("Expected home sections, got %v", movie.Display)
	}

	show := byID["tv_1396"]
	if show.Kind != catalog.KindSeries || show.Title != "Breaking Bad" {
		t.Errorf("Unexpected show: %+v", show)
	}
	if len(show.Genres) != 0 {
		t.Errorf("Expected non-list genres to be dropped, got %v", show.Genres)
	}
	if !show.ImportedAt.IsZero() {
		t.Errorf("Expected unparseable timestamp to be zero, got %s", show.ImportedAt)
	}
	if len(show.Seasons) != 1 {
		t.Errorf("Expected the corrupt season to be skipped, got %d seasons", len(show.Seasons))
	}
	if ep, ok := show.Episode(1, 1); !ok || ep.Name != "Piloto" {
		t.Errorf("Expected episode 1x1, got %+v", ep)
	}
}

func TestParseExportArray(t *testing.T) {
	items, errs := ParseExport([]byte(`[{"id": "a", "title": "A"}, {"title": "no id"}]`))
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "1" {
		t.Errorf("Unexpected items: %+v", items)
	}
}

func TestParseExportInvalid(t *testing.T) {
	if _, errs := ParseExport([]byte(`{`)); len(errs) != 1 {
		t.Errorf("Expected one parse error, got %v", errs)
	}
}

func TestSeasonsPreferKeysOverBodyNumbers(t *testing.T) {
	var keyed any
	raw := `{"1": {"season_number": 0, "episodes": {"1": {"episode_number": 0, "name": "Pilot"}, "2": {"name": "Two"}}}}`
	if err := json.Unmarshal([]byte(raw), &keyed); err != nil {
		t.Fatal(err)
	}
	seasons := seasonsFromAny(keyed)
	if len(seasons) != 1 || seasons[1].Number != 1 {
		t.Fatalf("Expected season keyed 1, got %+v", seasons)
	}
	if len(seasons[1].Episodes) != 2 || seasons[1].Episodes[1].Name != "Pilot" || seasons[1].Episodes[2].Number != 2 {
		t.Errorf("Expected both episodes keyed by number, got %+v", seasons[1].Episodes)
	}

	var list any
	raw = `[{"season_number": 3, "episodes": [{"episode_number": 5, "name": "Five"}, {"name": "Second"}]}]`
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.Fatal(err)
	}
	seasons = seasonsFromAny(list)
	if _, ok := seasons[3]; !ok {
		t.Fatalf("Expected list season numbered from its body, got %+v", seasons)
	}
	if seasons[3].Episodes[5].Name != "Five" || seasons[3].Episodes[2].Name != "Second" {
		t.Errorf("Unexpected list episodes: %+v", seasons[3].Episodes)
	}
}
