package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"streamfusion/catalog"
	"streamfusion/events"
	"streamfusion/scraper"
	"streamfusion/storage"
	"streamfusion/telemetry"
)

// SourceStore is what the source check job reads and writes.
type SourceStore interface {
	GetAllContent(ctx context.Context) ([]catalog.Item, error)
	SaveSourceStatus(ctx context.Context, st storage.SourceStatus) error
}

// SourceCheckJob checks every stored video source and records the result.
type SourceCheckJob struct {
	store   SourceStore
	checker scraper.Checker
	bus     *events.Bus
	logger  zerolog.Logger
}

func NewSourceCheckJob(store SourceStore, checker scraper.Checker, bus *events.Bus, logger zerolog.Logger) *SourceCheckJob {
	return &SourceCheckJob{
		store:   store,
		checker: checker,
		bus:     bus,
		logger:  logger.With().Str("job", "source_check").Logger(),
	}
}

func (j *SourceCheckJob) Name() string {
	return "source_check"
}

type target struct {
	contentID string
	url       string
}

// targets lists the distinct source URLs an item can play.
func targets(it catalog.Item) []target {
	seen := map[string]bool{}
	var out []target
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, target{contentID: it.ID, url: u})
	}
	add(it.VideoURL)
	for _, s := range it.Seasons {
		for _, ep := range s.Episodes {
			add(ep.VideoURL)
		}
	}
	return out
}

func (j *SourceCheckJob) Run(ctx context.Context) error {
	items, err := j.store.GetAllContent(ctx)
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	var checked, broken int
	for _, it := range items {
		for _, p := range targets(it) {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := j.checker.Check(ctx, p.contentID, p.url)
			if errors.Is(err, scraper.ErrNoSource) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to check %s: %w", p.url, err)
			}
			checked++
			if err := j.store.SaveSourceStatus(ctx, st); err != nil {
				return fmt.Errorf("failed to save source status: %w", err)
			}
			if st.OK {
				continue
			}
			broken++
			j.logger.Warn().Str("content_id", st.ContentID).Str("url", st.URL).Str("error", st.Error).Msg("broken source")
			if j.bus != nil {
				j.bus.Publish(events.EventSourceBroken, events.Payload{
					"content_id": st.ContentID,
					"title":      it.Title,
					"url":        st.URL,
					"error":      st.Error,
				})
			}
		}
	}

	telemetry.BrokenSources.Set(float64(broken))
	j.logger.Info().Int("items", len(items)).Int("checked", checked).Int("broken", broken).Msg("source check finished")
	return nil
}
