package catalog

import (
	"strings"
	"time"
	"unicode"
)

// FeaturedSection is the home section whose first item heads the page.
const FeaturedSection = "en_estreno"

// MaxGenrePills caps how many genres appear in the category strip.
const MaxGenrePills = 8

var sectionLabels = map[string]string{
	"en_estreno":      "En Estreno / Emision",
	"recien_agregado": "Recien Agregado",
	"tendencias":      "Tendencias",
	"populares":       "Populares",
	"mejor_valorados": "Mejor Valorados",
	"recomendados":    "Recomendados",
}

// SectionLabel returns the heading for a home section key. Custom keys are
// title-cased with underscores turned into spaces.
func SectionLabel(key string) string {
	if label, ok := sectionLabels[key]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Section is one rendered carousel.
type Section struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Items []Item `json:"items"`
}

// Category is an entry in the category navigation strip.
type Category struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
	Genre bool   `json:"genre"`
}

var fixedCategories = []Category{
	{Slug: "peliculas", Label: "Películas"},
	{Slug: "series", Label: "Series"},
	{Slug: "anime", Label: "Anime"},
	{Slug: "doramas", Label: "Doramas"},
}

// View is everything the home page renders, derived in one pass.
type View struct {
	GeneratedAt   time.Time  `json:"generated_at"`
	Featured      *Item      `json:"featured,omitempty"`
	HomeSections  []Section  `json:"home_sections"`
	RecentlyAdded []Item     `json:"recently_added"`
	Movies        []Item     `json:"movies"`
	Series        []Item     `json:"series"`
	Genres        []Section  `json:"genres"`
	Categories    []Category `json:"categories"`
	All           []Item     `json:"all"`
}

// Build derives the home page view from the full item set. now is sampled
// once by the caller and used for every recency decision in the pass.
func Build(items []Item, now time.Time) View {
	v := View{
		GeneratedAt:   now,
		HomeSections:  []Section{},
		RecentlyAdded: Recent(RecentlyAdded(items, now), HomeSectionLimit),
		Movies:        Movies(items),
		Series:        Series(items),
		Genres:        []Section{},
		All:           append([]Item{}, items...),
	}

	for _, it := range items {
		if contains(it.Display.HomeSections, FeaturedSection) {
			f := it
			v.Featured = &f
			break
		}
	}
	if v.Featured == nil && len(items) > 0 {
		f := items[0]
		v.Featured = &f
	}

	home := HomeSections(items)
	for _, key := range home.Keys {
		v.HomeSections = append(v.HomeSections, Section{
			Key:   key,
			Label: SectionLabel(key),
			Items: Recent(home.Get(key), HomeSectionLimit),
		})
	}

	genres := RenderableGenres(items)
	for _, g := range genres.Keys {
		v.Genres = append(v.Genres, Section{Key: g, Label: g, Items: genres.Get(g)})
	}
	v.Categories = Categories(genres)
	return v
}

// Categories returns the fixed category entries followed by up to
// MaxGenrePills renderable genres.
func Categories(genres Sections) []Category {
	out := append([]Category{}, fixedCategories...)
	for i, g := range genres.Keys {
		if i >= MaxGenrePills {
			break
		}
		out = append(out, Category{Slug: g, Label: g, Genre: true})
	}
	return out
}

// Movies returns the items placed in the movies main section.
func Movies(items []Item) []Item {
	return FilterByMainSection(items, "movies")
}

// Series returns the items placed in the series main section.
func Series(items []Item) []Item {
	return FilterByMainSection(items, "series")
}

// SplitByKind divides items into movie and series rows. An item counts as
// a movie when it is typed as one or listed in the movies main section, and
// the same for series, so one item can land in both rows.
func SplitByKind(items []Item) (movies, series []Item) {
	movies, series = []Item{}, []Item{}
	for _, it := range items {
		if it.Kind == KindMovie || contains(it.Display.MainSections, "movies") {
			movies = append(movies, it)
		}
		if it.Kind == KindSeries || contains(it.Display.MainSections, "series") {
			series = append(series, it)
		}
	}
	return movies, series
}

var mainSectionLabels = map[string]string{
	"movies":  "Películas",
	"series":  "Series",
	"animes":  "Anime",
	"doramas": "Doramas",
}

// Page is a category page: the full list plus the rows derived from it.
// Main-section pages carry Recent and ByGenre, genre pages carry the
// Movies and Series split.
type Page struct {
	Section
	Recent  []Item    `json:"recent,omitempty"`
	ByGenre []Section `json:"by_genre,omitempty"`
	Movies  []Item    `json:"movies,omitempty"`
	Series  []Item    `json:"series,omitempty"`
}

// SectionPage builds the page for a main section key such as "movies".
func SectionPage(items []Item, key string, now time.Time) Page {
	label, ok := mainSectionLabels[key]
	if !ok {
		label = SectionLabel(key)
	}
	members := FilterByMainSection(items, key)
	p := Page{
		Section: Section{Key: key, Label: label, Items: members},
		Recent:  SortByRecency(RecentlyAdded(members, now)),
		ByGenre: []Section{},
	}
	genres := RenderableGenres(members)
	for _, g := range genres.Keys {
		p.ByGenre = append(p.ByGenre, Section{Key: g, Label: g, Items: genres.Get(g)})
	}
	return p
}

// GenrePage builds the page for a genre, split into movie and series rows.
func GenrePage(items []Item, genre string) Page {
	members := FilterByGenre(items, genre)
	movies, series := SplitByKind(members)
	return Page{
		Section: Section{Key: genre, Label: genre, Items: members},
		Movies:  movies,
		Series:  series,
	}
}

// CategoryView resolves a category slug to its page. Known slugs map to
// main sections, anything else is treated as a genre name.
func CategoryView(items []Item, slug string, now time.Time) Page {
	switch strings.ToLower(strings.TrimSpace(slug)) {
	case "peliculas", "películas", "movies":
		return SectionPage(items, "movies", now)
	case "series":
		return SectionPage(items, "series", now)
	case "anime", "animes":
		return SectionPage(items, "animes", now)
	case "doramas":
		return SectionPage(items, "doramas", now)
	}
	return GenrePage(items, slug)
}
