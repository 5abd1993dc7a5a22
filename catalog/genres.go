package catalog

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// genreNames maps TMDB genre ids to their display labels.
var genreNames = map[int]string{
	28:    "Acción",
	12:    "Aventura",
	16:    "Animación",
	35:    "Comedia",
	80:    "Crimen",
	99:    "Documental",
	18:    "Drama",
	10751: "Familia",
	14:    "Fantasía",
	36:    "Historia",
	27:    "Terror",
	10402: "Música",
	9648:  "Misterio",
	10749: "Romance",
	878:   "Ciencia Ficción",
	10770: "Película de TV",
	53:    "Suspense",
	10752: "Bélica",
	37:    "Western",
}

// GenreName returns the display label for a TMDB genre id.
func GenreName(id int) (string, bool) {
	name, ok := genreNames[id]
	return name, ok
}

// NormalizeGenre converts a genre value to its display label. Numeric ids
// present in the table are mapped, anything else is returned in its string
// form.
func NormalizeGenre(v any) string {
	if n, ok := genreNumber(v); ok {
		if n == math.Trunc(n) && n >= math.MinInt32 && n <= math.MaxInt32 {
			if name, ok := genreNames[int(n)]; ok {
				return name
			}
		}
	}
	return genreString(v)
}

// NormalizeGenres applies NormalizeGenre to every element of a list. Input
// that is not a list yields an empty slice.
func NormalizeGenres(v any) []string {
	out := []string{}
	switch list := v.(type) {
	case nil:
		return out
	case []string:
		for _, g := range list {
			out = append(out, NormalizeGenre(g))
		}
		return out
	case []any:
		for _, g := range list {
			out = append(out, NormalizeGenre(g))
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return out
	}
	for i := 0; i < rv.Len(); i++ {
		out = append(out, NormalizeGenre(rv.Index(i).Interface()))
	}
	return out
}

func genreNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func genreString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case fmtStringer:
		return s.String()
	}
	if n, ok := genreNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

type fmtStringer interface {
	String() string
}

// sameGenre compares two labels case-insensitively.
func sameGenre(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
