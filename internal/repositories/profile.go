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

// ProfileRepository persists [models.Profile] rows keyed by user id.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new [ProfileRepository] with the given database connection
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get retrieves the profile for a user.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var (
		p    models.Profile
		name sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name, updated_at FROM profiles WHERE id = ?`, userID).
		Scan(&p.ID, &name, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrProfileNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	p.Name = name.String
	return &p, nil
}

// Upsert inserts or replaces the profile and stamps UpdatedAt.
func (r *ProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		p.ID, nullString(p.Name), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
