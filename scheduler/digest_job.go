package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"streamfusion/catalog"
)

// DigestWindow is how far back the weekly digest looks.
const DigestWindow = 7 * 24 * time.Hour

// DigestNotifier sends the new content digest.
type DigestNotifier interface {
	NotifyDigest(ctx context.Context, items []catalog.Item, since time.Time) error
}

// ContentLister reads the whole catalog.
type ContentLister interface {
	GetAllContent(ctx context.Context) ([]catalog.Item, error)
}

// DigestJob mails the items imported within the digest window.
type DigestJob struct {
	store    ContentLister
	notifier DigestNotifier
	window   time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

func NewDigestJob(store ContentLister, notifier DigestNotifier, logger zerolog.Logger) *DigestJob {
	return &DigestJob{
		store:    store,
		notifier: notifier,
		window:   DigestWindow,
		logger:   logger.With().Str("job", "digest").Logger(),
		now:      time.Now,
	}
}

func (j *DigestJob) Name() string {
	return "digest"
}

func (j *DigestJob) Run(ctx context.Context) error {
	items, err := j.store.GetAllContent(ctx)
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}
	now := j.now()
	fresh := catalog.SortByRecency(catalog.AddedSince(items, now, j.window))
	j.logger.Info().Int("items", len(fresh)).Msg("collected new content")
	return j.notifier.NotifyDigest(ctx, fresh, now.Add(-j.window))
}
