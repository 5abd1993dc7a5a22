package playback

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"streamfusion/catalog"
)

// SourceKind is how a source URL has to be played.
type SourceKind string

const (
	Unavailable SourceKind = "unavailable"
	Direct      SourceKind = "direct"
	Embedded    SourceKind = "embedded"
)

// UnavailableMessage is shown when an item has nothing to play.
const UnavailableMessage = "Video no disponible"

var directMedia = regexp.MustCompile(`(?i)\.(mp4|webm|ogg|m3u8|mkv)(\?|#|$)`)

// embedTokens are substrings of hosts and paths that serve their own player.
var embedTokens = []string{
	"embed",
	"iframe",
	"player",
	"drive.google.com",
	"ok.ru",
	"streamtape",
	"filemoon",
	"voe.sx",
	"dood",
	"upstream",
	"mixdrop",
	"uqload",
}

// ResolveSource picks the URL to play. An episode source wins over the
// item's own source when it is set.
func ResolveSource(item catalog.Item, ep *catalog.Episode) string {
	if ep != nil && strings.TrimSpace(ep.VideoURL) != "" {
		return ep.VideoURL
	}
	return item.VideoURL
}

// Classify decides whether a URL is played natively, handed to an
// embedded third-party player, or missing.
func Classify(raw string) SourceKind {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Unavailable
	}
	if isDirectMedia(raw) {
		return Direct
	}
	lower := strings.ToLower(raw)
	for _, token := range embedTokens {
		if strings.Contains(lower, token) {
			return Embedded
		}
	}
	return Direct
}

func isDirectMedia(raw string) bool {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		if directMedia.MatchString(u.Path) {
			return true
		}
	}
	return directMedia.MatchString(raw)
}

// Navigation carries the optional previous and next episode actions.
type Navigation struct {
	Prev func()
	Next func()
}

// Plan describes what the player surface should render.
type Plan struct {
	Kind     SourceKind `json:"kind"`
	URL      string     `json:"url,omitempty"`
	Title    string     `json:"title"`
	Message  string     `json:"message,omitempty"`
	Controls bool       `json:"controls"`
	HasPrev  bool       `json:"has_prev"`
	HasNext  bool       `json:"has_next"`
}

// Prepare resolves and classifies the source for an item and optional
// episode.
func Prepare(item catalog.Item, season int, ep *catalog.Episode, nav Navigation) Plan {
	src := ResolveSource(item, ep)
	p := Plan{
		Kind:    Classify(src),
		Title:   Title(item, season, ep),
		HasPrev: nav.Prev != nil,
		HasNext: nav.Next != nil,
	}
	switch p.Kind {
	case Unavailable:
		p.Message = UnavailableMessage
	case Direct:
		p.URL = strings.TrimSpace(src)
		p.Controls = true
	case Embedded:
		p.URL = strings.TrimSpace(src)
	}
	return p
}

// Title is the header shown above the player.
func Title(item catalog.Item, season int, ep *catalog.Episode) string {
	if ep == nil {
		return item.Title
	}
	return fmt.Sprintf("%s - T%d:E%d %s", item.Title, season, ep.Number, ep.Name)
}

// FormatTime renders seconds as H:MM:SS from one hour up and M:SS below.
func FormatTime(seconds float64) string {
	if seconds != seconds || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
