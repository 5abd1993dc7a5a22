package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"streamfusion/catalog"
)

const contentColumns = `id, media_type, title, original_title, overview, poster_path, backdrop_path,
	release_date, vote_average, genres, video_url, seasons, main_sections, home_sections,
	platforms, imported_by, imported_at`

// SaveContent inserts or replaces an item by id.
func (s *SQLiteStorage) SaveContent(ctx context.Context, item catalog.Item) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("failed to save content: missing id")
	}

	genres, err := json.Marshal(nonNil(catalog.NormalizeGenres(item.Genres)))
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}
	seasons, err := catalog.NumberSeasons(item.Seasons)
	if err != nil {
		return fmt.Errorf("failed to save content %s: %w", item.ID, err)
	}
	seasonsJSON, err := json.Marshal(seasons)
	if err != nil {
		return fmt.Errorf("failed to encode seasons: %w", err)
	}
	main, _ := json.Marshal(nonNil(item.Display.MainSections))
	home, _ := json.Marshal(nonNil(item.Display.HomeSections))
	platforms, _ := json.Marshal(nonNil(item.Display.Platforms))

	var importedAt any
	if !item.ImportedAt.IsZero() {
		importedAt = FormatTimestamp(item.ImportedAt)
	}

	query := `
	INSERT INTO content (` + contentColumns + `, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
		media_type = excluded.media_type,
		title = excluded.title,
		original_title = excluded.original_title,
		overview = excluded.overview,
		poster_path = excluded.poster_path,
		backdrop_path = excluded.backdrop_path,
		release_date = excluded.release_date,
		vote_average = excluded.vote_average,
		genres = excluded.genres,
		video_url = excluded.video_url,
		seasons = excluded.seasons,
		main_sections = excluded.main_sections,
		home_sections = excluded.home_sections,
		platforms = excluded.platforms,
		imported_by = excluded.imported_by,
		imported_at = excluded.imported_at,
		updated_at = CURRENT_TIMESTAMP
	`

	_, err = s.db.ExecContext(ctx, query,
		item.ID, string(item.Kind), item.Title, item.OriginalTitle, item.Overview,
		item.PosterPath, item.BackdropPath, item.ReleaseDate, catalog.ClampRating(item.VoteAverage),
		string(genres), item.VideoURL, string(seasonsJSON), string(main), string(home),
		string(platforms), item.ImportedBy, importedAt)
	if err != nil {
		return fmt.Errorf("failed to save content: %w", err)
	}
	return nil
}

// GetContent loads one item.
func (s *SQLiteStorage) GetContent(ctx context.Context, id string) (catalog.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content WHERE id = ?`, id)
	var r contentRow
	if err := r.scan(row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Item{}, ErrNotFound
		}
		return catalog.Item{}, fmt.Errorf("failed to get content: %w", err)
	}
	return s.decodeRow(r), nil
}

// GetAllContent returns every item, newest import first.
func (s *SQLiteStorage) GetAllContent(ctx context.Context) ([]catalog.Item, error) {
	return s.queryContent(ctx, `SELECT `+contentColumns+` FROM content ORDER BY rowid`)
}

// GetContentByType returns the items of one kind, newest import first.
func (s *SQLiteStorage) GetContentByType(ctx context.Context, kind catalog.Kind) ([]catalog.Item, error) {
	return s.queryContent(ctx, `SELECT `+contentColumns+` FROM content WHERE media_type = ? ORDER BY rowid`, string(kind))
}

// GetContentBySection returns the items placed in a main section, newest
// import first.
func (s *SQLiteStorage) GetContentBySection(ctx context.Context, section string) ([]catalog.Item, error) {
	query := `SELECT ` + contentColumns + ` FROM content
	WHERE EXISTS (SELECT 1 FROM json_each(CASE WHEN json_valid(content.main_sections)
		THEN content.main_sections ELSE '[]' END) WHERE value = ?)
	ORDER BY rowid`
	return s.queryContent(ctx, query, section)
}

// DeleteContent removes an item and its click and source records.
func (s *SQLiteStorage) DeleteContent(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM poster_clicks WHERE content_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete clicks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM source_status WHERE content_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source status: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStorage) queryContent(ctx context.Context, query string, args ...any) ([]catalog.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	defer rows.Close()

	items := []catalog.Item{}
	for rows.Next() {
		var r contentRow
		if err := r.scan(rows); err != nil {
			s.logger.Warn().Err(err).Msg("skipping unreadable content row")
			continue
		}
		items = append(items, s.decodeRow(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return catalog.SortByRecency(items), nil
}

type scanner interface {
	Scan(dest ...any) error
}

type contentRow struct {
	id, mediaType, title, originalTitle, overview  sql.NullString
	posterPath, backdropPath, releaseDate         sql.NullString
	genres, videoURL, seasons                     sql.NullString
	mainSections, homeSections, platforms         sql.NullString
	importedBy                                    sql.NullString
	voteAverage, importedAt                       any
}

func (r *contentRow) scan(sc scanner) error {
	return sc.Scan(&r.id, &r.mediaType, &r.title, &r.originalTitle, &r.overview,
		&r.posterPath, &r.backdropPath, &r.releaseDate, &r.voteAverage, &r.genres,
		&r.videoURL, &r.seasons, &r.mainSections, &r.homeSections, &r.platforms,
		&r.importedBy, &r.importedAt)
}

// decodeRow never fails. Columns that do not decode are logged and left
// empty so one damaged record cannot hide the rest of the catalog.
func (s *SQLiteStorage) decodeRow(r contentRow) catalog.Item {
	it := catalog.Item{
		ID:            r.id.String,
		Kind:          catalog.ParseKind(r.mediaType.String),
		Title:         r.title.String,
		OriginalTitle: r.originalTitle.String,
		Overview:      r.overview.String,
		PosterPath:    r.posterPath.String,
		BackdropPath:  r.backdropPath.String,
		ReleaseDate:   r.releaseDate.String,
		VoteAverage:   catalog.ClampRating(asFloat(r.voteAverage)),
		VideoURL:      r.videoURL.String,
		ImportedBy:    r.importedBy.String,
		Genres:        []string{},
		Seasons:       map[int]catalog.Season{},
		Display:       emptyDisplay(),
	}
	if ts, ok := ParseTimestamp(r.importedAt); ok {
		it.ImportedAt = ts
	}

	column := func(name string, v sql.NullString) any {
		decoded, err := decodeJSONColumn(v.String)
		if err != nil {
			s.logger.Warn().Err(err).Str("id", it.ID).Str("column", name).Msg("invalid JSON column")
			return nil
		}
		return decoded
	}

	it.Genres = catalog.NormalizeGenres(column("genres", r.genres))
	it.Seasons = seasonsFromAny(column("seasons", r.seasons))
	it.Display.MainSections = asStrings(column("main_sections", r.mainSections))
	it.Display.HomeSections = asStrings(column("home_sections", r.homeSections))
	it.Display.Platforms = asStrings(column("platforms", r.platforms))
	return it
}

// CountContent returns the number of items per kind.
func (s *SQLiteStorage) CountContent(ctx context.Context) (map[catalog.Kind]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT media_type, COUNT(*) FROM content GROUP BY media_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count content: %w", err)
	}
	defer rows.Close()

	counts := map[catalog.Kind]int{catalog.KindMovie: 0, catalog.KindSeries: 0}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[catalog.ParseKind(kind)] += n
	}
	return counts, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func now() time.Time {
	return time.Now().UTC()
}
