package client

import (
	"context"
	"sync"

	"streamfusion/catalog"
)

// GenreBrowser shows one genre at a time. When the user moves on before a
// fetch returns, the late response is dropped instead of overwriting the
// newer genre.
type GenreBrowser struct {
	client *Client
	fence  catalog.Fence[string]

	mu      sync.RWMutex
	current catalog.Section
	shown   bool
}

func NewGenreBrowser(c *Client) *GenreBrowser {
	return &GenreBrowser{client: c}
}

// Show fetches genre and publishes it as the current section. applied is
// false when a later Show superseded this one while it was in flight.
func (b *GenreBrowser) Show(ctx context.Context, genre string) (sec catalog.Section, applied bool, err error) {
	ticket := b.fence.Begin(genre)
	sec, err = b.client.Genre(ctx, genre)
	if !b.fence.Current(ticket) {
		b.client.logger.Debug().Str("genre", genre).Str("latest", b.fence.Latest()).Msg("dropping stale genre response")
		return catalog.Section{}, false, nil
	}
	if err != nil {
		return catalog.Section{}, false, err
	}

	b.mu.Lock()
	b.current = sec
	b.shown = true
	b.mu.Unlock()
	return sec, true, nil
}

// Current returns the section on screen, if any.
func (b *GenreBrowser) Current() (catalog.Section, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.shown
}
