package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"streamfusion/cache"
	"streamfusion/catalog"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultLanguage = "es-ES"

	// minInterval keeps requests under TMDB's rate limit.
	minInterval = 25 * time.Millisecond
)

// Config configures the TMDB client.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	Attempts uint
	Delay    time.Duration
}

// TMDBClient talks to the TMDB v3 API.
type TMDBClient struct {
	apiKey   string
	baseURL  string
	language string
	attempts uint
	delay    time.Duration
	httpc    *http.Client
	cache    *cache.Cache
	logger   zerolog.Logger

	throttleMu  sync.Mutex
	lastRequest time.Time
}

// NewTMDBClient creates a client. A nil cache disables caching and a nil
// http client uses a 10 second timeout.
func NewTMDBClient(cfg Config, c *cache.Cache, httpc *http.Client, logger zerolog.Logger) *TMDBClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay == 0 {
		cfg.Delay = 300 * time.Millisecond
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &TMDBClient{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		language: cfg.Language,
		attempts: cfg.Attempts,
		delay:    cfg.Delay,
		httpc:    httpc,
		cache:    c,
		logger:   logger.With().Str("component", "tmdb").Logger(),
	}
}

func (c *TMDBClient) Name() string { return "tmdb" }

func (c *TMDBClient) isConfigured() bool {
	return c.apiKey != ""
}

// Search looks up titles of one kind.
func (c *TMDBClient) Search(ctx context.Context, kind catalog.Kind, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	cacheKey := fmt.Sprintf("tmdb:search:%s:%s:%s", kind.TMDBType(), c.language, strings.ToLower(query))
	var page struct {
		Results []SearchResult `json:"results"`
	}
	if c.cache.Get(ctx, cacheKey, &page.Results) {
		return page.Results, nil
	}

	err := c.doGET(ctx, []string{"search", kind.TMDBType()}, url.Values{"query": {query}}, &page)
	if err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []SearchResult{}
	}
	_ = c.cache.Set(ctx, cacheKey, page.Results, c.cache.SearchTTL())
	return page.Results, nil
}

// Details fetches a title with its videos and credits appended.
func (c *TMDBClient) Details(ctx context.Context, kind catalog.Kind, id int64) (Details, error) {
	cacheKey := fmt.Sprintf("tmdb:details:%s:%s:%d", kind.TMDBType(), c.language, id)
	var d Details
	if c.cache.Get(ctx, cacheKey, &d) {
		return d, nil
	}

	params := url.Values{"append_to_response": {"videos,credits"}}
	if err := c.doGET(ctx, []string{kind.TMDBType(), strconv.FormatInt(id, 10)}, params, &d); err != nil {
		return Details{}, err
	}
	_ = c.cache.Set(ctx, cacheKey, d, c.cache.DetailsTTL())
	return d, nil
}

// Season fetches the episodes of one season of a show.
func (c *TMDBClient) Season(ctx context.Context, showID int64, number int) (SeasonDetails, error) {
	cacheKey := fmt.Sprintf("tmdb:season:%s:%d:%d", c.language, showID, number)
	var s SeasonDetails
	if c.cache.Get(ctx, cacheKey, &s) {
		return s, nil
	}

	segments := []string{"tv", strconv.FormatInt(showID, 10), "season", strconv.Itoa(number)}
	if err := c.doGET(ctx, segments, nil, &s); err != nil {
		return SeasonDetails{}, err
	}
	_ = c.cache.Set(ctx, cacheKey, s, c.cache.DetailsTTL())
	return s, nil
}

type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("tmdb returned status %d", e.code)
}

// doGET performs a throttled GET, retrying network errors, rate limits and
// server errors with exponential backoff.
func (c *TMDBClient) doGET(ctx context.Context, segments []string, params url.Values, v any) error {
	if !c.isConfigured() {
		return ErrNotConfigured
	}

	endpoint, err := url.JoinPath(c.baseURL, segments...)
	if err != nil {
		return fmt.Errorf("failed to build tmdb url: %w", err)
	}
	q := url.Values{}
	for k, vals := range params {
		q[k] = vals
	}
	q.Set("api_key", c.apiKey)
	q.Set("language", c.language)
	endpoint += "?" + q.Encode()

	return retry.Do(
		func() error {
			c.throttle()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(ErrNotFound)
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return statusError{code: resp.StatusCode}
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(statusError{code: resp.StatusCode})
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to decode tmdb response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn().Err(err).Uint("attempt", n+1).Str("path", strings.Join(segments, "/")).Msg("tmdb request failed, retrying")
		}),
	)
}

func (c *TMDBClient) throttle() {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()
	if wait := minInterval - time.Since(c.lastRequest); wait > 0 {
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}

// IsNotFound reports whether err means the title does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
