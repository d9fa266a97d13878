// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/mibands/internal/auth"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/shared"
)

// NewTestDB opens an in-memory SQLite database with foreign keys on and every migration applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// TestPassword is the password of every account made by [CreateUser].
const TestPassword = "password123"

// CreateUser inserts a password account that signs in with [TestPassword].
func CreateUser(t *testing.T, db *sql.DB, email string, admin bool) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	u := &models.User{Email: email, PasswordHash: hash, IsAdmin: admin}
	if err := repositories.NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

// CreateBand validates in and stores it owned by ownerID.
func CreateBand(t *testing.T, db *sql.DB, in models.BandInput, ownerID string) *models.Band {
	t.Helper()
	b, err := in.Band(ownerID)
	if err != nil {
		t.Fatalf("invalid band input: %v", err)
	}
	if err := repositories.NewBandRepository(db).Create(context.Background(), b); err != nil {
		t.Fatalf("failed to create band: %v", err)
	}
	return b
}

// StubPreviews is a preview source that never touches the network. It returns Preview
// for every URL and records the URLs it was asked for.
type StubPreviews struct {
	Preview *models.LinkPreview

	mu   sync.Mutex
	URLs []string
}

func (s *StubPreviews) Fetch(ctx context.Context, url string) *models.LinkPreview {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.URLs = append(s.URLs, url)
	return s.Preview
}

// Calls returns how many fetches were made.
func (s *StubPreviews) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.URLs)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
