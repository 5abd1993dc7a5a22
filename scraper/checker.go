// Package scraper checks stored video sources and reports which ones no
// longer play.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly"
	"github.com/rs/zerolog"

	"streamfusion/playback"
	"streamfusion/storage"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "streamfusion-source-check/1.0"

	// maxBodySize keeps direct media checks from downloading whole files.
	maxBodySize = 256 * 1024
)

// deadMarkers are phrases embed hosts render in place of a removed video.
var deadMarkers = []string{
	"file was deleted",
	"file not found",
	"video not found",
	"video has been removed",
	"this video is unavailable",
	"archivo no encontrado",
	"el video no existe",
	"video no disponible",
}

// ErrNoSource is returned when there is nothing to check.
var ErrNoSource = errors.New("no video source")

// Checker checks a single source URL.
type Checker interface {
	Check(ctx context.Context, contentID, url string) (storage.SourceStatus, error)
}

// SourceChecker visits source URLs with a colly collector.
type SourceChecker struct {
	timeout   time.Duration
	userAgent string
	logger    zerolog.Logger
	now       func() time.Time
}

func NewSourceChecker(timeout time.Duration, logger zerolog.Logger) *SourceChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SourceChecker{
		timeout:   timeout,
		userAgent: DefaultUserAgent,
		logger:    logger.With().Str("component", "source_checker").Logger(),
		now:       time.Now,
	}
}

func (c *SourceChecker) collector() *colly.Collector {
	col := colly.NewCollector()
	col.UserAgent = c.userAgent
	col.AllowURLRevisit = true
	col.IgnoreRobotsTxt = true
	col.MaxBodySize = maxBodySize
	col.SetRequestTimeout(c.timeout)
	return col
}

// Check visits url and reports whether it still serves a playable source.
// A non-nil error means the check itself could not run; a failed check is
// reported through the returned status.
func (c *SourceChecker) Check(ctx context.Context, contentID, url string) (storage.SourceStatus, error) {
	kind := playback.Classify(url)
	st := storage.SourceStatus{
		ContentID: contentID,
		URL:       strings.TrimSpace(url),
		Kind:      string(kind),
		CheckedAt: c.now(),
	}
	if kind == playback.Unavailable {
		return st, ErrNoSource
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}

	col := c.collector()
	var dead string

	col.OnRequest(func(r *colly.Request) {
		c.logger.Debug().Str("url", r.URL.String()).Msg("probing source")
	})

	col.OnResponse(func(r *colly.Response) {
		st.StatusCode = r.StatusCode
		if kind == playback.Direct {
			return
		}
		if marker := deadMarker(r.Body); marker != "" {
			dead = marker
		}
	})

	col.OnHTML("title", func(e *colly.HTMLElement) {
		if marker := deadMarker([]byte(e.Text)); marker != "" {
			dead = marker
		}
	})

	col.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			st.StatusCode = r.StatusCode
		}
		c.logger.Debug().Err(err).Str("url", st.URL).Msg("source check failed")
	})

	err := col.Visit(st.URL)
	switch {
	case err != nil:
		st.Error = err.Error()
	case st.StatusCode >= http.StatusBadRequest:
		st.Error = http.StatusText(st.StatusCode)
	case dead != "":
		st.Error = fmt.Sprintf("page reports %q", dead)
	default:
		st.OK = true
	}
	return st, nil
}

func deadMarker(body []byte) string {
	text := strings.ToLower(string(body))
	for _, m := range deadMarkers {
		if strings.Contains(text, m) {
			return m
		}
	}
	return ""
}
