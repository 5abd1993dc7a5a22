// Package client talks to a running streamfusion API and keeps the
// signed-in session for the calling process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"streamfusion/auth"
	"streamfusion/catalog"
	"streamfusion/playback"
	"streamfusion/storage"
)

const (
	DefaultTimeout  = 15 * time.Second
	defaultAttempts = 3
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status   int
	Code     string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Code)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client is an API client bound to one session.
type Client struct {
	baseURL  string
	http     *http.Client
	session  *auth.Session
	attempts uint
	logger   zerolog.Logger
}

// New creates a client for the API at baseURL. httpc may be nil.
func New(baseURL string, session *auth.Session, httpc *http.Client, logger zerolog.Logger) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: DefaultTimeout}
	}
	if session == nil {
		session = auth.NewSession()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpc,
		session:  session,
		attempts: defaultAttempts,
		logger:   logger.With().Str("component", "client").Logger(),
	}
}

// Session returns the session this client signs requests with.
func (c *Client) Session() *auth.Session {
	return c.session
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login signs in and resolves the session. A failed login leaves the
// session resolved to nobody.
func (c *Client) Login(ctx context.Context, email, password string) (storage.User, error) {
	c.session.Begin()
	var res auth.Result
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, credentials{Email: email, Password: password}, &res); err != nil {
		c.session.Clear()
		return storage.User{}, err
	}
	c.session.Resolve(res.User, res.Token)
	return res.User, nil
}

// Restore resolves the session from a stored token.
func (c *Client) Restore(ctx context.Context, token string) (storage.User, error) {
	c.session.Begin()
	var u storage.User
	err := c.doWithToken(ctx, token, http.MethodGet, "/api/v1/auth/me", nil, nil, &u)
	if err != nil {
		c.session.Clear()
		return storage.User{}, err
	}
	c.session.Resolve(u, token)
	return u, nil
}

// Logout forgets the signed-in user.
func (c *Client) Logout() {
	c.session.Clear()
}

// Home fetches the home view.
func (c *Client) Home(ctx context.Context) (catalog.View, error) {
	var v catalog.View
	err := c.do(ctx, http.MethodGet, "/api/v1/home", nil, nil, &v)
	return v, err
}

// Genre fetches the items tagged with genre.
func (c *Client) Genre(ctx context.Context, genre string) (catalog.Section, error) {
	var s catalog.Section
	err := c.do(ctx, http.MethodGet, "/api/v1/genres/"+url.PathEscape(genre), nil, nil, &s)
	return s, err
}

// Category fetches a category page by slug.
func (c *Client) Category(ctx context.Context, slug string) (catalog.Page, error) {
	var p catalog.Page
	err := c.do(ctx, http.MethodGet, "/api/v1/categories/"+url.PathEscape(slug), nil, nil, &p)
	return p, err
}

// Search runs a catalog search.
func (c *Client) Search(ctx context.Context, q string) ([]catalog.Item, error) {
	var res struct {
		Results []catalog.Item `json:"results"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/search", url.Values{"q": {q}}, nil, &res)
	return res.Results, err
}

// Play fetches the playback plan for an item, or for one episode when
// season and episode are positive.
func (c *Client) Play(ctx context.Context, id string, season, episode int) (playback.Plan, error) {
	var q url.Values
	if season > 0 && episode > 0 {
		q = url.Values{"season": {strconv.Itoa(season)}, "episode": {strconv.Itoa(episode)}}
	}
	var p playback.Plan
	err := c.do(ctx, http.MethodGet, "/api/v1/content/"+url.PathEscape(id)+"/play", q, nil, &p)
	return p, err
}

// SendMessage writes to the admin inbox as the signed-in user.
func (c *Client) SendMessage(ctx context.Context, body string) (storage.Message, error) {
	var m storage.Message
	err := c.do(ctx, http.MethodPost, "/api/v1/messages", nil, map[string]string{"body": body}, &m)
	return m, err
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	return c.doWithToken(ctx, c.session.Snapshot().Token, method, path, q, body, out)
}

// doWithToken sends one request. Idempotent requests are retried on
// network errors and 5xx answers.
func (c *Client) doWithToken(ctx context.Context, token, method, path string, q url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	attempts := c.attempts
	if method != http.MethodGet {
		attempts = 1
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to build request: %w", err))
			}
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return fmt.Errorf("failed to call %s: %w", path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode >= http.StatusBadRequest {
				apiErr := &APIError{Status: resp.StatusCode}
				_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(apiErr)
				if resp.StatusCode >= http.StatusInternalServerError {
					return apiErr
				}
				return retry.Unrecoverable(apiErr)
			}
			if out == nil || resp.StatusCode == http.StatusNoContent {
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to decode response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug().Err(err).Uint("attempt", n+1).Str("path", path).Msg("retrying request")
		}),
	)
}
