package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/shared"
)

func TestBandRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo := NewBandRepository(setupTestDB(t))
			if err := repo.Create(ctx, &models.Band{Name: "  "}); !errors.Is(err, shared.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("UnknownRegion", func(t *testing.T) {
			repo := NewBandRepository(setupTestDB(t))
			err := repo.Create(ctx, &models.Band{Name: "X", Region: "Ohio"})
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("UnknownOwner", func(t *testing.T) {
			repo := NewBandRepository(setupTestDB(t))
			err := repo.Create(ctx, &models.Band{Name: "X", OwnerID: shared.GenerateID()})
			if err == nil {
				t.Fatal("expected foreign key error")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewBandRepository(setupTestDB(t))
			_, err := repo.Get(ctx, shared.GenerateID())
			if !errors.Is(err, shared.ErrBandNotFound) {
				t.Fatalf("expected ErrBandNotFound, got %v", err)
			}
		})

		t.Run("NotAnID", func(t *testing.T) {
			repo := NewBandRepository(setupTestDB(t))
			if _, err := repo.Find(ctx, "no-such-slug"); !errors.Is(err, shared.ErrBandNotFound) {
				t.Fatalf("expected ErrBandNotFound, got %v", err)
			}
		})

		t.Run("QueryFailureIsNotNotFound", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewBandRepository(db)
			if _, err := db.Exec("DROP TABLE bands"); err != nil {
				t.Fatalf("failed to drop table: %v", err)
			}

			_, err := repo.Get(ctx, shared.GenerateID())
			if err == nil || errors.Is(err, shared.ErrBandNotFound) {
				t.Fatalf("expected a query error distinct from not found, got %v", err)
			}

			if _, _, err := repo.List(ctx, ListOptions{}); err == nil {
				t.Fatal("expected list to fail")
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotOwner", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewBandRepository(db)
			owner := createUser(t, db, "owner@example.com")
			other := createUser(t, db, "other@example.com")
			b := createBand(t, repo, models.BandInput{Name: "Mine"}, owner.ID)

			name := "Stolen"
			_, err := repo.Update(ctx, other.ID, models.BandPatch{ID: b.ID, Name: &name})
			if !errors.Is(err, shared.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}

			stored, _ := repo.Get(ctx, b.ID)
			if stored.Name != "Mine" {
				t.Errorf("band changed by non-owner: %q", stored.Name)
			}
		})

		t.Run("AdminInsertedHasNoOwner", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewBandRepository(db)
			user := createUser(t, db, "user@example.com")
			b := createBand(t, repo, models.BandInput{Name: "Unclaimed"}, "")

			city := "Flint"
			if _, err := repo.Update(ctx, user.ID, models.BandPatch{ID: b.ID, City: &city}); !errors.Is(err, shared.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})

		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewBandRepository(db)
			user := createUser(t, db, "user@example.com")

			city := "Flint"
			_, err := repo.Update(ctx, user.ID, models.BandPatch{ID: shared.GenerateID(), City: &city})
			if !errors.Is(err, shared.ErrBandNotFound) {
				t.Fatalf("expected ErrBandNotFound, got %v", err)
			}
		})

		t.Run("EmptyName", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewBandRepository(db)
			owner := createUser(t, db, "owner@example.com")
			b := createBand(t, repo, models.BandInput{Name: "Keep"}, owner.ID)

			empty := " "
			_, err := repo.Update(ctx, owner.ID, models.BandPatch{ID: b.ID, Name: &empty})
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	})
}

func TestUserRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("DuplicateEmail", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		createUser(t, db, "test@example.com")

		err := repo.Create(ctx, &models.User{Email: "TEST@example.com"})
		if !errors.Is(err, shared.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		if err := repo.Create(ctx, &models.User{Email: "nope"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		if _, err := repo.GetByEmail(ctx, "ghost@example.com"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
		if err := repo.SetAdmin(ctx, shared.GenerateID(), true); !errors.Is(err, shared.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestProfileRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		repo := NewProfileRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, shared.GenerateID()); !errors.Is(err, shared.ErrProfileNotFound) {
			t.Fatalf("expected ErrProfileNotFound, got %v", err)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		repo := NewProfileRepository(setupTestDB(t))
		if err := repo.Upsert(ctx, &models.Profile{ID: shared.GenerateID(), Name: "x"}); err == nil {
			t.Fatal("expected foreign key error")
		}
	})
}
