package catalog

import (
	"sort"
	"strings"
	"time"
)

const (
	// RecencyWindow is how far back an import still counts as recently added.
	RecencyWindow = 30 * 24 * time.Hour
	// HomeSectionLimit bounds every home carousel.
	HomeSectionLimit = 20
	// MinGenreSectionSize is the smallest genre bucket that gets its own
	// carousel and category pill.
	MinGenreSectionSize = 2
)

// Sections is an ordered grouping of items by key. Keys keeps first-seen
// order so repeated passes over the same input render identically.
type Sections struct {
	Keys    []string
	Buckets map[string][]Item
}

func newSections() Sections {
	return Sections{Keys: []string{}, Buckets: map[string][]Item{}}
}

func (s *Sections) add(key string, it Item) {
	if _, ok := s.Buckets[key]; !ok {
		s.Keys = append(s.Keys, key)
	}
	s.Buckets[key] = append(s.Buckets[key], it)
}

// Get returns the bucket for key, nil when absent.
func (s Sections) Get(key string) []Item {
	return s.Buckets[key]
}

// Len is the number of non-empty buckets.
func (s Sections) Len() int {
	return len(s.Keys)
}

// Renderable keeps buckets holding at least min items, in the same order.
func (s Sections) Renderable(min int) Sections {
	out := newSections()
	for _, k := range s.Keys {
		if len(s.Buckets[k]) >= min {
			out.Keys = append(out.Keys, k)
			out.Buckets[k] = s.Buckets[k]
		}
	}
	return out
}

// HomeSections groups items under every home section tag they carry.
func HomeSections(items []Item) Sections {
	out := newSections()
	for _, it := range items {
		seen := map[string]bool{}
		for _, key := range it.Display.HomeSections {
			key = strings.TrimSpace(key)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out.add(key, it)
		}
	}
	return out
}

// GenreSections groups items by normalized genre label.
func GenreSections(items []Item) Sections {
	out := newSections()
	for _, it := range items {
		seen := map[string]bool{}
		for _, g := range NormalizeGenres(it.Genres) {
			if strings.TrimSpace(g) == "" || seen[g] {
				continue
			}
			seen[g] = true
			out.add(g, it)
		}
	}
	return out
}

// RenderableGenres is GenreSections restricted to buckets with at least
// MinGenreSectionSize items.
func RenderableGenres(items []Item) Sections {
	return GenreSections(items).Renderable(MinGenreSectionSize)
}

// RecentlyAdded returns the items imported within RecencyWindow of now.
// Items without an import time are never recent.
func RecentlyAdded(items []Item, now time.Time) []Item {
	return AddedSince(items, now, RecencyWindow)
}

// AddedSince returns the items imported less than window before now.
func AddedSince(items []Item, now time.Time, window time.Duration) []Item {
	out := []Item{}
	for _, it := range items {
		if it.ImportedAt.IsZero() {
			continue
		}
		if now.Sub(it.ImportedAt) < window {
			out = append(out, it)
		}
	}
	return out
}

// FilterByMainSection returns the items whose main sections include key.
func FilterByMainSection(items []Item, key string) []Item {
	out := []Item{}
	for _, it := range items {
		if contains(it.Display.MainSections, key) {
			out = append(out, it)
		}
	}
	return out
}

// FilterByGenre returns the items carrying genre, compared without case.
func FilterByGenre(items []Item, genre string) []Item {
	out := []Item{}
	if strings.TrimSpace(genre) == "" {
		return out
	}
	for _, it := range items {
		for _, g := range NormalizeGenres(it.Genres) {
			if sameGenre(g, genre) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Search matches the query against title, overview and genre labels. A
// blank query matches nothing. Surrounding spaces are part of the match.
func Search(items []Item, query string) []Item {
	out := []Item{}
	if strings.TrimSpace(query) == "" {
		return out
	}
	q := strings.ToLower(query)
	for _, it := range items {
		if matches(it, q) {
			out = append(out, it)
		}
	}
	return out
}

func matches(it Item, q string) bool {
	if strings.Contains(strings.ToLower(it.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(it.Overview), q) {
		return true
	}
	for _, g := range NormalizeGenres(it.Genres) {
		if strings.Contains(strings.ToLower(g), q) {
			return true
		}
	}
	return false
}

// SortByRecency returns a copy sorted by import time, newest first. Items
// with the same import time keep their input order and items without one
// sort last.
func SortByRecency(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return recencyKey(out[i]).After(recencyKey(out[j]))
	})
	return out
}

// Recent sorts by recency and keeps the first limit items. A limit of zero
// or less keeps everything.
func Recent(items []Item, limit int) []Item {
	sorted := SortByRecency(items)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func recencyKey(it Item) time.Time {
	if it.ImportedAt.IsZero() {
		return time.Unix(0, 0)
	}
	return it.ImportedAt
}
