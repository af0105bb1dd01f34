package catalog

import (
	"context"
	"database/sql"
	"time"
)

// timeLayout is fixed width so rendered_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

type Repository interface {
	UpsertPage(ctx context.Context, page *Page) error
	GetPage(ctx context.Context, videoID string) (*Page, error)
	ListPages(ctx context.Context, limit int) ([]*Page, error)
	CountPages(ctx context.Context) (int, error)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// UpsertPage records a render. Re-rendering an existing page refreshes its
// metadata and bumps render_count.
func (r *SQLiteRepository) UpsertPage(ctx context.Context, p *Page) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pages (video_id, title, language, segment_count, size_bytes, render_count, rendered_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			title = excluded.title,
			language = excluded.language,
			segment_count = excluded.segment_count,
			size_bytes = excluded.size_bytes,
			render_count = pages.render_count + 1,
			rendered_at = excluded.rendered_at
	`, p.VideoID, p.Title, p.Language, p.SegmentCount, p.SizeBytes, p.RenderedAt.UTC().Format(timeLayout))
	return err
}

func (r *SQLiteRepository) GetPage(ctx context.Context, videoID string) (*Page, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT video_id, title, language, segment_count, size_bytes, render_count, rendered_at
		FROM pages WHERE video_id = ?
	`, videoID)

	p, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *SQLiteRepository) ListPages(ctx context.Context, limit int) ([]*Page, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT video_id, title, language, segment_count, size_bytes, render_count, rendered_at
		FROM pages ORDER BY rendered_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (r *SQLiteRepository) CountPages(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(s scanner) (*Page, error) {
	var p Page
	var renderedAt string

	if err := s.Scan(&p.VideoID, &p.Title, &p.Language, &p.SegmentCount, &p.SizeBytes, &p.RenderCount, &renderedAt); err != nil {
		return nil, err
	}
	p.RenderedAt, _ = time.Parse(timeLayout, renderedAt)
	return &p, nil
}
