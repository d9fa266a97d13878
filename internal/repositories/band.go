package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/shared"
)

var _ models.Repository[*models.Band] = (*BandRepository)(nil)

const bandColumns = `id, name, slug, city, region, genres, links, photo_url, user_id, created_at, updated_at`

// BandRepository persists [models.Band] rows.
type BandRepository struct {
	db *sql.DB
}

// NewBandRepository creates a new [BandRepository] with the given database connection
func NewBandRepository(db *sql.DB) *BandRepository {
	return &BandRepository{db: db}
}

// ListOptions filters and pages [BandRepository.List]. Zero values mean no filter; a
// Limit of zero returns every matching row.
type ListOptions struct {
	Region  string
	Q       string
	OwnerID string
	Limit   int
	Offset  int
}

// Create validates b, assigns its ID and timestamps, and inserts it.
func (r *BandRepository) Create(ctx context.Context, b *models.Band) error {
	if b.Slug == "" {
		b.Slug = models.Slugify(b.Name)
	}
	if err := b.Validate(); err != nil {
		return err
	}

	genres, linkSet, err := encodeBandJSON(b)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	b.ID = shared.GenerateID()
	b.CreatedAt, b.UpdatedAt = now, now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO bands (`+bandColumns+`, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Slug, nullString(b.City), nullString(string(b.Region)),
		genres, linkSet, nullString(b.PhotoURL), nullString(b.OwnerID), b.CreatedAt, b.UpdatedAt,
		b.SearchText(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert band: %w", err)
	}
	return nil
}

// Get retrieves a band by id.
func (r *BandRepository) Get(ctx context.Context, id string) (*models.Band, error) {
	canonical, ok := shared.ParseID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrBandNotFound, id)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+bandColumns+` FROM bands WHERE id = ?`, canonical)
	return r.scanOne(row, id)
}

// GetBySlug retrieves the oldest band with the given slug.
func (r *BandRepository) GetBySlug(ctx context.Context, slug string) (*models.Band, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+bandColumns+` FROM bands
		WHERE slug = ?
		ORDER BY created_at, id
		LIMIT 1`, slug)
	return r.scanOne(row, slug)
}

// Find looks a band up by slug first and falls back to its id.
func (r *BandRepository) Find(ctx context.Context, slugOrID string) (*models.Band, error) {
	b, err := r.GetBySlug(ctx, slugOrID)
	if err == nil || !errors.Is(err, shared.ErrBandNotFound) {
		return b, err
	}
	return r.Get(ctx, slugOrID)
}

// List returns bands ordered by name along with the total count of matching rows.
//
// Region is an equality filter; Q is matched case-insensitively as a substring of
// [models.Band.SearchText], the same text [search.Filter] uses.
func (r *BandRepository) List(ctx context.Context, opts ListOptions) ([]models.Band, int, error) {
	var (
		where []string
		args  []any
	)
	if opts.Region != "" {
		where = append(where, "region = ?")
		args = append(args, opts.Region)
	}
	if q := strings.TrimSpace(opts.Q); q != "" {
		where = append(where, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(strings.ToLower(q)))
	}
	if opts.OwnerID != "" {
		where = append(where, "user_id = ?")
		args = append(args, opts.OwnerID)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bands"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bands: %w", err)
	}

	query := "SELECT " + bandColumns + " FROM bands" + clause + " ORDER BY name COLLATE NOCASE, id"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, max(opts.Offset, 0))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query bands: %w", err)
	}
	defer rows.Close()

	bands := []models.Band{}
	for rows.Next() {
		b, err := scanBand(rows)
		if err != nil {
			return nil, 0, err
		}
		bands = append(bands, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate bands: %w", err)
	}
	return bands, total, nil
}

// ListByOwner returns every band owned by ownerID, ordered by name.
func (r *BandRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Band, error) {
	if ownerID == "" {
		return []models.Band{}, nil
	}
	bands, _, err := r.List(ctx, ListOptions{OwnerID: ownerID})
	return bands, err
}

// Update applies patch to the band it names on behalf of userID.
//
// Returns [shared.ErrBandNotFound] when no band has that id and [shared.ErrForbidden]
// when userID is not the owner.
func (r *BandRepository) Update(ctx context.Context, userID string, patch models.BandPatch) (*models.Band, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, ok := shared.ParseID(patch.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrBandNotFound, patch.ID)
	}

	b, err := r.scanOne(tx.QueryRowContext(ctx, `SELECT `+bandColumns+` FROM bands WHERE id = ?`, id), id)
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: band %s is not owned by this account", shared.ErrForbidden, id)
	}

	if err := patch.Apply(b); err != nil {
		return nil, err
	}

	genres, linkSet, err := encodeBandJSON(b)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt = time.Now().UTC()

	result, err := tx.ExecContext(ctx, `
		UPDATE bands
		SET name = ?, slug = ?, city = ?, region = ?, genres = ?, links = ?, photo_url = ?, search_text = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		b.Name, b.Slug, nullString(b.City), nullString(string(b.Region)), genres, linkSet,
		nullString(b.PhotoURL), b.SearchText(), b.UpdatedAt, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update band: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrBandNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit band update: %w", err)
	}
	return b, nil
}

func (r *BandRepository) scanOne(row *sql.Row, key string) (*models.Band, error) {
	b, err := scanBand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrBandNotFound, key)
	}
	return b, err
}

func scanBand(s rowScanner) (*models.Band, error) {
	var (
		b                          models.Band
		city, region, photo, owner sql.NullString
		genres, linkSet            string
	)
	err := s.Scan(&b.ID, &b.Name, &b.Slug, &city, &region, &genres, &linkSet, &photo, &owner, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan band: %w", err)
	}

	b.City = city.String
	b.Region = models.Region(region.String)
	b.PhotoURL = photo.String
	b.OwnerID = owner.String

	if err := json.Unmarshal([]byte(genres), &b.Genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres for band %s: %w", b.ID, err)
	}
	if b.Genres == nil {
		b.Genres = []string{}
	}
	if err := json.Unmarshal([]byte(linkSet), &b.Links); err != nil {
		return nil, fmt.Errorf("failed to decode links for band %s: %w", b.ID, err)
	}
	return &b, nil
}

func encodeBandJSON(b *models.Band) (string, string, error) {
	genres := b.Genres
	if genres == nil {
		genres = []string{}
	}
	g, err := json.MarshalNoEscape(genres)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode genres: %w", err)
	}
	l, err := json.MarshalNoEscape(b.Links)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode links: %w", err)
	}
	return string(g), string(l), nil
}
