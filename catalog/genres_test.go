package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeGenre(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"int id", 28, "Acción"},
		{"float id", float64(27), "Terror"},
		{"numeric string", "878", "Ciencia Ficción"},
		{"padded numeric string", " 18 ", "Drama"},
		{"json number", json.Number("10751"), "Familia"},
		{"label passes through", "Drama", "Drama"},
		{"unknown id", 4242, "4242"},
		{"unknown numeric string", "4242", "4242"},
		{"fractional number", 28.5, "28.5"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeGenre(tt.in))
		})
	}
}

func TestNormalizeGenreIsIdempotent(t *testing.T) {
	for id, label := range genreNames {
		assert.Equal(t, label, NormalizeGenre(NormalizeGenre(id)))
	}
}

func TestNormalizeGenres(t *testing.T) {
	assert.Equal(t, []string{"Acción", "Drama"}, NormalizeGenres([]any{28, "Drama"}))
	assert.Equal(t, []string{"Terror"}, NormalizeGenres([]int{27}))
	assert.Equal(t, []string{"Comedia", "x"}, NormalizeGenres([]string{"35", "x"}))

	// Anything that is not a list becomes an empty, non-nil slice.
	for _, in := range []any{nil, "Drama", 28, map[string]any{"a": 1}} {
		out := NormalizeGenres(in)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	}
}

func TestGenreName(t *testing.T) {
	name, ok := GenreName(10752)
	assert.True(t, ok)
	assert.Equal(t, "Bélica", name)

	_, ok = GenreName(1)
	assert.False(t, ok)
	assert.Len(t, genreNames, 19)
}
