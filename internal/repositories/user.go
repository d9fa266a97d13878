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

var _ models.Repository[*models.User] = (*UserRepository)(nil)

const userColumns = `id, email, password_hash, provider, provider_subject, is_admin, created_at, updated_at`

// UserRepository persists sign-in accounts.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user with a generated ID. Returns [shared.ErrEmailTaken] when the
// email or provider identity already exists.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if u.Provider == "" {
		u.Provider = models.ProviderPassword
	}
	if err := u.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	u.ID = shared.GenerateID()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, nullString(u.PasswordHash), u.Provider, nullString(u.ProviderSubject),
		u.IsAdmin, u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", shared.ErrEmailTaken, u.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, models.NormalizeEmail(email))
}

// GetByProvider retrieves the account linked to an OAuth provider identity.
func (r *UserRepository) GetByProvider(ctx context.Context, provider, subject string) (*models.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE provider = ? AND provider_subject = ?`, provider, subject)
}

// List returns every account ordered by email.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetAdmin grants or revokes admin rights.
func (r *UserRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	return r.update(ctx, id, `UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?`, admin, time.Now().UTC(), id)
}

// SetPassword replaces the stored password hash.
func (r *UserRepository) SetPassword(ctx context.Context, id, hash string) error {
	return r.update(ctx, id, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, time.Now().UTC(), id)
}

func (r *UserRepository) update(ctx context.Context, id, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	return nil
}

func (r *UserRepository) queryOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", shared.ErrUserNotFound, args[0])
	}
	return u, err
}

func scanUser(s rowScanner) (*models.User, error) {
	var (
		u             models.User
		hash, subject sql.NullString
	)
	err := s.Scan(&u.ID, &u.Email, &hash, &u.Provider, &subject, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.PasswordHash = hash.String
	u.ProviderSubject = subject.String
	return &u, nil
}
