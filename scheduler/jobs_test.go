package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfusion/catalog"
	"streamfusion/events"
	"streamfusion/scraper"
	"streamfusion/storage"
)

type memStore struct {
	items    []catalog.Item
	statuses []storage.SourceStatus
}

func (m *memStore) GetAllContent(ctx context.Context) ([]catalog.Item, error) {
	return m.items, nil
}

func (m *memStore) SaveSourceStatus(ctx context.Context, st storage.SourceStatus) error {
	m.statuses = append(m.statuses, st)
	return nil
}

type fakeChecker struct {
	broken map[string]bool
	calls  []string
}

func (f *fakeChecker) Check(ctx context.Context, contentID, url string) (storage.SourceStatus, error) {
	f.calls = append(f.calls, url)
	if url == "" {
		return storage.SourceStatus{}, scraper.ErrNoSource
	}
	st := storage.SourceStatus{ContentID: contentID, URL: url, OK: !f.broken[url]}
	if !st.OK {
		st.Error = "Not Found"
	}
	return st, nil
}

func TestSourceCheckJob(t *testing.T) {
	store := &memStore{items: []catalog.Item{
		{ID: "m1", Title: "Heat", VideoURL: "https://cdn.example.com/heat.mp4"},
		{ID: "m2", Title: "Sin fuente"},
		{ID: "s1", Title: "Dark", Seasons: map[int]catalog.Season{
			1: {Number: 1, Episodes: map[int]catalog.Episode{
				1: {VideoURL: "https://voe.sx/e/abc"},
				2: {VideoURL: "https://voe.sx/e/abc"},
				3: {VideoURL: "https://voe.sx/e/gone"},
			}},
		}},
	}}
	checker := &fakeChecker{broken: map[string]bool{"https://voe.sx/e/gone": true}}
	bus := events.NewBus()
	sub := bus.Subscribe(events.EventSourceBroken)
	defer bus.Unsubscribe(events.EventSourceBroken, sub)

	job := NewSourceCheckJob(store, checker, bus, zerolog.Nop())
	assert.Equal(t, "source_check", job.Name())
	require.NoError(t, job.Run(context.Background()))

	assert.Len(t, checker.calls, 3, "duplicate episode URLs are checked once")
	assert.Len(t, store.statuses, 3)

	select {
	case p := <-sub:
		assert.Equal(t, "s1", p["content_id"])
		assert.Equal(t, "https://voe.sx/e/gone", p["url"])
	case <-time.After(time.Second):
		t.Fatal("expected a broken source event")
	}
}

func TestSourceCheckJobCanceled(t *testing.T) {
	store := &memStore{items: []catalog.Item{{ID: "m1", VideoURL: "https://cdn.example.com/a.mp4"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewSourceCheckJob(store, &fakeChecker{}, nil, zerolog.Nop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingNotifier struct {
	items []catalog.Item
	since time.Time
	err   error
}

func (r *recordingNotifier) NotifyDigest(ctx context.Context, items []catalog.Item, since time.Time) error {
	r.items = items
	r.since = since
	return r.err
}

func TestDigestJob(t *testing.T) {
	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	store := &memStore{items: []catalog.Item{
		{ID: "old", ImportedAt: now.Add(-30 * 24 * time.Hour)},
		{ID: "a", ImportedAt: now.Add(-2 * 24 * time.Hour)},
		{ID: "b", ImportedAt: now.Add(-time.Hour)},
		{ID: "unknown"},
	}}
	n := &recordingNotifier{}
	job := NewDigestJob(store, n, zerolog.Nop())
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, n.items, 2)
	assert.Equal(t, "b", n.items[0].ID)
	assert.Equal(t, "a", n.items[1].ID)
	assert.Equal(t, now.Add(-DigestWindow), n.since)
}

func TestDigestJobPropagatesError(t *testing.T) {
	boom := errors.New("smtp down")
	job := NewDigestJob(&memStore{}, &recordingNotifier{err: boom}, zerolog.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), boom)
}
