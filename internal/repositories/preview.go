package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/shared"
)

// PreviewRepository caches link previews by URL until they expire.
type PreviewRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPreviewRepository creates a new [PreviewRepository] with the given database connection
func NewPreviewRepository(db *sql.DB) *PreviewRepository {
	return &PreviewRepository{db: db, now: time.Now}
}

// Get returns the cached preview for url. Missing and expired entries return
// [shared.ErrCacheMiss]; expired entries are deleted.
func (r *PreviewRepository) Get(ctx context.Context, url string) (*models.LinkPreview, error) {
	var (
		p                                                 models.LinkPreview
		title, description, image, icon, host, themeColor sql.NullString
		expiresAt                                         int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT title, description, image, icon, host, theme_color, expires_at
		FROM preview_cache WHERE url = ?`, url).
		Scan(&title, &description, &image, &icon, &host, &themeColor, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preview cache: %w", err)
	}

	if r.now().Unix() >= expiresAt {
		_, _ = r.db.ExecContext(ctx, `DELETE FROM preview_cache WHERE url = ?`, url)
		return nil, shared.ErrCacheMiss
	}

	p.Title = title.String
	p.Description = description.String
	p.Image = image.String
	p.Icon = icon.String
	p.Host = host.String
	p.ThemeColor = themeColor.String
	return &p, nil
}

// Put stores p for url for the given ttl, replacing any previous entry.
func (r *PreviewRepository) Put(ctx context.Context, url string, p *models.LinkPreview, ttl time.Duration) error {
	if p == nil {
		return nil
	}
	now := r.now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preview_cache (url, title, description, image, icon, host, theme_color, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			image = excluded.image,
			icon = excluded.icon,
			host = excluded.host,
			theme_color = excluded.theme_color,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at`,
		url, nullString(p.Title), nullString(p.Description), nullString(p.Image), nullString(p.Icon),
		nullString(p.Host), nullString(p.ThemeColor), now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store preview: %w", err)
	}
	return nil
}

// Purge deletes expired entries and reports how many were removed.
func (r *PreviewRepository) Purge(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM preview_cache WHERE expires_at <= ?`, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge preview cache: %w", err)
	}
	return result.RowsAffected()
}

// Count reports the number of cached entries, expired or not.
func (r *PreviewRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM preview_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count previews: %w", err)
	}
	return n, nil
}
