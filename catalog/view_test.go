package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionLabel(t *testing.T) {
	assert.Equal(t, "En Estreno / Emision", SectionLabel("en_estreno"))
	assert.Equal(t, "Mejor Valorados", SectionLabel("mejor_valorados"))
	assert.Equal(t, "Clasicos Del Cine", SectionLabel("clasicos_del_cine"))
	assert.Equal(t, "", SectionLabel(""))
}

func TestBuild(t *testing.T) {
	first := item("first", []string{"Terror"}, []string{"tendencias"}, 50*day)
	premiere := item("premiere", []string{"27"}, []string{"en_estreno"}, 2*day)
	first.Display.MainSections = []string{"movies"}
	show := item("show", []string{"Drama"}, []string{"tendencias"}, day)
	show.Kind = KindSeries
	show.Display.MainSections = []string{"series"}

	v := Build([]Item{first, premiere, show}, testNow)

	require.NotNil(t, v.Featured)
	assert.Equal(t, "premiere", v.Featured.ID)
	assert.Equal(t, testNow, v.GeneratedAt)

	require.Len(t, v.HomeSections, 2)
	assert.Equal(t, "tendencias", v.HomeSections[0].Key)
	assert.Equal(t, "Tendencias", v.HomeSections[0].Label)
	assert.Equal(t, []string{"show", "first"}, ids(v.HomeSections[0].Items))
	assert.Equal(t, "en_estreno", v.HomeSections[1].Key)

	assert.Equal(t, []string{"show", "premiere"}, ids(v.RecentlyAdded))
	assert.Equal(t, []string{"first"}, ids(v.Movies))
	assert.Equal(t, []string{"show"}, ids(v.Series))

	require.Len(t, v.Genres, 1)
	assert.Equal(t, "Terror", v.Genres[0].Key)
	assert.Len(t, v.Categories, len(fixedCategories)+1)
	assert.Len(t, v.All, 3)
}

func TestBuildFeaturedFallsBackToFirstItem(t *testing.T) {
	v := Build([]Item{item("a", nil, nil, day), item("b", nil, nil, day)}, testNow)
	require.NotNil(t, v.Featured)
	assert.Equal(t, "a", v.Featured.ID)

	empty := Build(nil, testNow)
	assert.Nil(t, empty.Featured)
	assert.NotNil(t, empty.HomeSections)
	assert.NotNil(t, empty.Genres)
}

func TestCategoriesCapsGenrePills(t *testing.T) {
	var items []Item
	for i := 0; i < 12; i++ {
		g := fmt.Sprintf("g%d", i)
		items = append(items, item(g+"a", []string{g}, nil, day), item(g+"b", []string{g}, nil, day))
	}

	cats := Categories(RenderableGenres(items))
	assert.Len(t, cats, len(fixedCategories)+MaxGenrePills)
	assert.False(t, cats[0].Genre)
	assert.True(t, cats[len(cats)-1].Genre)
}

func TestMainSectionRowsIgnoreKind(t *testing.T) {
	film := item("film", nil, nil, day)
	film.Display.MainSections = []string{"animes"}

	items := []Item{film}
	v := Build(items, testNow)
	assert.Empty(t, v.Movies)
	assert.Empty(t, v.Series)
	assert.Empty(t, CategoryView(items, "peliculas", testNow).Items)
	assert.Equal(t, []string{"film"}, ids(CategoryView(items, "anime", testNow).Items))
}

func TestSplitByKind(t *testing.T) {
	movie := item("movie", nil, nil, day)
	show := item("show", nil, nil, day)
	show.Kind = KindSeries
	both := item("both", nil, nil, day)
	both.Display.MainSections = []string{"series"}

	movies, series := SplitByKind([]Item{movie, show, both})
	assert.Equal(t, []string{"movie", "both"}, ids(movies))
	assert.Equal(t, []string{"show", "both"}, ids(series))

	movies, series = SplitByKind(nil)
	assert.NotNil(t, movies)
	assert.NotNil(t, series)
}

func TestSectionPage(t *testing.T) {
	fresh := item("fresh", []string{"Terror"}, nil, 2*day)
	fresher := item("fresher", []string{"27"}, nil, day)
	old := item("old", []string{"Drama"}, nil, 60*day)
	other := item("other", []string{"Terror"}, nil, day)
	for _, it := range []*Item{&fresh, &fresher, &old} {
		it.Display.MainSections = []string{"movies"}
	}
	other.Display.MainSections = []string{"doramas"}

	p := SectionPage([]Item{fresh, fresher, old, other}, "movies", testNow)
	assert.Equal(t, "movies", p.Key)
	assert.Equal(t, "Películas", p.Label)
	assert.Equal(t, []string{"fresh", "fresher", "old"}, ids(p.Items))
	assert.Equal(t, []string{"fresher", "fresh"}, ids(p.Recent))
	require.Len(t, p.ByGenre, 1)
	assert.Equal(t, "Terror", p.ByGenre[0].Key)
	assert.Equal(t, []string{"fresh", "fresher"}, ids(p.ByGenre[0].Items))
	assert.Empty(t, p.Movies)

	custom := SectionPage(nil, "clasicos_del_cine", testNow)
	assert.Equal(t, "Clasicos Del Cine", custom.Label)
	assert.NotNil(t, custom.Items)
	assert.NotNil(t, custom.ByGenre)
}

func TestGenrePage(t *testing.T) {
	movie := item("movie", []string{"Drama"}, nil, day)
	show := item("show", []string{"18"}, nil, day)
	show.Kind = KindSeries
	listed := item("listed", []string{"Drama"}, nil, day)
	listed.Kind = KindSeries
	listed.Display.MainSections = []string{"movies"}
	unrelated := item("unrelated", []string{"Terror"}, nil, day)

	p := GenrePage([]Item{movie, show, listed, unrelated}, "Drama")
	assert.Equal(t, "Drama", p.Label)
	assert.Equal(t, []string{"movie", "show", "listed"}, ids(p.Items))
	assert.Equal(t, []string{"movie", "listed"}, ids(p.Movies))
	assert.Equal(t, []string{"show", "listed"}, ids(p.Series))
	assert.Empty(t, p.Recent)
	assert.Empty(t, p.ByGenre)
}

func TestCategoryView(t *testing.T) {
	movie := item("movie", []string{"Drama"}, nil, day)
	movie.Display.MainSections = []string{"movies"}
	anime := item("anime", nil, nil, day)
	anime.Kind = KindSeries
	anime.Display.MainSections = []string{"animes"}
	show := item("show", nil, nil, day)
	show.Kind = KindSeries
	show.Display.MainSections = []string{"series"}

	items := []Item{movie, anime, show}
	assert.Equal(t, []string{"movie"}, ids(CategoryView(items, "peliculas", testNow).Items))
	assert.Equal(t, []string{"show"}, ids(CategoryView(items, "series", testNow).Items))
	assert.Equal(t, []string{"anime"}, ids(CategoryView(items, "Anime", testNow).Items))
	assert.Empty(t, CategoryView(items, "doramas", testNow).Items)

	genre := CategoryView(items, "drama", testNow)
	assert.Equal(t, "drama", genre.Key)
	assert.Equal(t, []string{"movie"}, ids(genre.Items))
	assert.Equal(t, []string{"movie"}, ids(genre.Movies))
}
