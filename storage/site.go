package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"streamfusion/catalog"
)

// GetWebConfig returns the saved settings laid over the defaults.
func (s *SQLiteStorage) GetWebConfig(ctx context.Context) (WebConfig, error) {
	cfg := DefaultWebConfig()
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM web_config WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to get web config: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		s.logger.Warn().Err(err).Msg("stored web config is invalid, using defaults")
		return DefaultWebConfig(), nil
	}
	return cfg, nil
}

// SaveWebConfig replaces the stored settings.
func (s *SQLiteStorage) SaveWebConfig(ctx context.Context, cfg WebConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode web config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO web_config (id, data, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`, string(data))
	if err != nil {
		return fmt.Errorf("failed to save web config: %w", err)
	}
	return nil
}

// RecordClick counts one poster click for an item.
func (s *SQLiteStorage) RecordClick(ctx context.Context, contentID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO poster_clicks (content_id, clicks, last_clicked_at) VALUES (?, 1, ?)
		ON CONFLICT(content_id) DO UPDATE SET clicks = clicks + 1, last_clicked_at = excluded.last_clicked_at`,
		contentID, FormatTimestamp(now()))
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}
	return nil
}

// TotalClicks sums poster clicks across the catalog.
func (s *SQLiteStorage) TotalClicks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(clicks), 0) FROM poster_clicks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to sum clicks: %w", err)
	}
	return n, nil
}

// SaveSourceStatus records the latest check for one item source.
func (s *SQLiteStorage) SaveSourceStatus(ctx context.Context, st SourceStatus) error {
	if st.CheckedAt.IsZero() {
		st.CheckedAt = now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO source_status (content_id, url, kind, ok, status_code, error, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_id, url) DO UPDATE SET kind = excluded.kind, ok = excluded.ok,
			status_code = excluded.status_code, error = excluded.error, checked_at = excluded.checked_at`,
		st.ContentID, st.URL, st.Kind, boolInt(st.OK), st.StatusCode, st.Error, FormatTimestamp(st.CheckedAt))
	if err != nil {
		return fmt.Errorf("failed to save source status: %w", err)
	}
	return nil
}

// ListBrokenSources returns sources whose last check failed.
func (s *SQLiteStorage) ListBrokenSources(ctx context.Context) ([]SourceStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT content_id, url, kind, ok, status_code, error, checked_at
		FROM source_status WHERE ok = 0 ORDER BY checked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list source status: %w", err)
	}
	defer rows.Close()

	out := []SourceStatus{}
	for rows.Next() {
		var st SourceStatus
		var ok int
		var checked any
		if err := rows.Scan(&st.ContentID, &st.URL, &st.Kind, &ok, &st.StatusCode, &st.Error, &checked); err != nil {
			return nil, fmt.Errorf("failed to scan source status: %w", err)
		}
		st.OK = ok != 0
		st.CheckedAt, _ = ParseTimestamp(checked)
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetStats builds the admin dashboard summary.
func (s *SQLiteStorage) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats

	counts, err := s.CountContent(ctx)
	if err != nil {
		return stats, err
	}
	stats.TotalMovies = counts[catalog.KindMovie]
	stats.TotalSeries = counts[catalog.KindSeries]

	if stats.TotalUsers, err = s.CountUsers(ctx); err != nil {
		return stats, err
	}
	if stats.TotalViews, err = s.TotalClicks(ctx); err != nil {
		return stats, err
	}

	items, err := s.GetAllContent(ctx)
	if err != nil {
		return stats, err
	}
	stats.RecentContent = catalog.Recent(items, 5)

	if stats.RecentUsers, err = s.ListUsers(ctx, "", 5); err != nil {
		return stats, err
	}
	return stats, nil
}
