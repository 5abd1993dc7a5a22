package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"streamfusion/catalog"
)

// ParseDocument converts a loosely typed content document, as found in
// JSON exports of the old document store, into a catalog item. Fields with
// the wrong shape are dropped rather than failing the whole record.
func ParseDocument(id string, doc map[string]any) (catalog.Item, error) {
	if v := asString(doc["id"]); v != "" {
		id = v
	}
	if strings.TrimSpace(id) == "" {
		return catalog.Item{}, fmt.Errorf("document has no id")
	}

	it := catalog.Item{
		ID:            id,
		Kind:          catalog.ParseKind(asString(doc["media_type"])),
		Title:         asString(doc["title"]),
		OriginalTitle: asString(doc["original_title"]),
		Overview:      asString(doc["overview"]),
		PosterPath:    asString(doc["poster_path"]),
		BackdropPath:  asString(doc["backdrop_path"]),
		ReleaseDate:   asString(doc["release_date"]),
		VoteAverage:   catalog.ClampRating(asFloat(doc["vote_average"])),
		Genres:        catalog.NormalizeGenres(doc["genres"]),
		VideoURL:      asString(doc["video_url"]),
		Seasons:       seasonsFromAny(doc["seasons"]),
		ImportedBy:    asString(doc["imported_by"]),
	}
	if it.Title == "" {
		it.Title = asString(doc["name"])
	}
	if ts, ok := ParseTimestamp(doc["imported_at"]); ok {
		it.ImportedAt = ts
	}
	if opts, ok := doc["display_options"].(map[string]any); ok {
		it.Display = catalog.DisplayOptions{
			MainSections: asStrings(opts["main_sections"]),
			HomeSections: asStrings(opts["home_sections"]),
			Platforms:    asStrings(opts["platforms"]),
		}
	} else {
		it.Display = emptyDisplay()
	}
	return it, nil
}

// ParseExport reads a JSON export holding either an array of documents or
// an object keyed by document id. Records that cannot be used are returned
// as errors next to the good ones.
func ParseExport(data []byte) ([]catalog.Item, []error) {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, []error{fmt.Errorf("failed to parse export: %w", err)}
	}

	var items []catalog.Item
	var errs []error
	add := func(id string, v any) {
		doc, ok := v.(map[string]any)
		if !ok {
			errs = append(errs, fmt.Errorf("record %q is not an object", id))
			return
		}
		it, err := ParseDocument(id, doc)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %q: %w", id, err))
			return
		}
		items = append(items, it)
	}

	switch docs := raw.(type) {
	case []any:
		for i, v := range docs {
			add(strconv.Itoa(i), v)
		}
	case map[string]any:
		keys := make([]string, 0, len(docs))
		for k := range docs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(k, docs[k])
		}
	default:
		errs = append(errs, fmt.Errorf("export must be an array or an object"))
	}
	return items, errs
}

func emptyDisplay() catalog.DisplayOptions {
	return catalog.DisplayOptions{
		MainSections: []string{},
		HomeSections: []string{},
		Platforms:    []string{},
	}
}

func seasonsFromAny(v any) map[int]catalog.Season {
	out := map[int]catalog.Season{}
	list := isList(v)
	for key, raw := range entries(v) {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		num, ok := entityNumber(key, m["season_number"], list)
		if !ok {
			continue
		}
		season := catalog.Season{Number: num, Name: asString(m["name"]), Episodes: map[int]catalog.Episode{}}
		epList := isList(m["episodes"])
		for epKey, epRaw := range entries(m["episodes"]) {
			em, ok := epRaw.(map[string]any)
			if !ok {
				continue
			}
			n, ok := entityNumber(epKey, em["episode_number"], epList)
			if !ok {
				continue
			}
			season.Episodes[n] = catalog.Episode{
				Number:    n,
				Name:      asString(em["name"]),
				Overview:  asString(em["overview"]),
				StillPath: asString(em["still_path"]),
				VideoURL:  asString(em["video_url"]),
			}
		}
		out[num] = season
	}
	return out
}

// entityNumber picks the season or episode number. Keyed objects are
// numbered by their key and lists by the body field, each falling back to
// the other.
func entityNumber(key string, field any, list bool) (int, bool) {
	if list {
		if n, ok := asInt(field); ok {
			return n, true
		}
		return asInt(key)
	}
	if n, ok := asInt(key); ok {
		return n, true
	}
	return asInt(field)
}

func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}

// entries walks either a keyed object or a list, returning list positions
// as 1-based keys.
func entries(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		out := make(map[string]any, len(t))
		for i, e := range t {
			out[strconv.Itoa(i+1)] = e
		}
		return out
	}
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return f
	}
	return 0
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asStrings(v any) []string {
	out := []string{}
	list, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return append(out, ss...)
		}
		return out
	}
	for _, e := range list {
		if s := asString(e); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeJSONColumn unmarshals a stored JSON column into generic values.
func decodeJSONColumn(s string) (any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
