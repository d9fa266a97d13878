package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/mibands/internal/links"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/search"
	"github.com/desertthunder/mibands/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
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

func createUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email}
	if err := NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func createBand(t *testing.T, repo *BandRepository, in models.BandInput, owner string) *models.Band {
	t.Helper()
	b, err := in.Band(owner)
	if err != nil {
		t.Fatalf("invalid band input: %v", err)
	}
	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("failed to create band: %v", err)
	}
	return b
}

func TestBandRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewBandRepository(db)
		owner := createUser(t, db, "owner@example.com")

		b := createBand(t, repo, models.BandInput{
			Name:   "Huron Haze",
			City:   "Ann Arbor",
			Region: "Ann Arbor",
			Genres: []string{"Dream Pop", "Shoegaze"},
			Links:  links.Set{Instagram: "@huronhaze", Website: "huronhaze.com"},
		}, owner.ID)

		if _, ok := shared.ParseID(b.ID); !ok {
			t.Fatalf("expected uuid id, got %q", b.ID)
		}

		got, err := repo.Get(ctx, b.ID)
		if err != nil {
			t.Fatalf("failed to get band: %v", err)
		}

		if got.Name != "Huron Haze" || got.Slug != "huron-haze" || got.Region != models.RegionAnnArbor {
			t.Errorf("unexpected band %+v", got)
		}
		if len(got.Genres) != 2 || got.Genres[1] != "Shoegaze" {
			t.Errorf("unexpected genres %v", got.Genres)
		}
		if got.Links.Instagram != "https://instagram.com/huronhaze" || got.Links.Website != "https://huronhaze.com/" {
			t.Errorf("unexpected links %+v", got.Links)
		}
		if got.OwnerID != owner.ID {
			t.Errorf("expected owner %s, got %s", owner.ID, got.OwnerID)
		}
	})

	t.Run("Find by Slug then ID", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewBandRepository(db)
		b := createBand(t, repo, models.BandInput{Name: "Motor Mouth"}, "")

		bySlug, err := repo.Find(ctx, "motor-mouth")
		if err != nil || bySlug.ID != b.ID {
			t.Fatalf("find by slug: %v, %v", bySlug, err)
		}

		byID, err := repo.Find(ctx, b.ID)
		if err != nil || byID.ID != b.ID {
			t.Fatalf("find by id: %v, %v", byID, err)
		}
	})

	t.Run("Duplicate Slugs Resolve to the Oldest", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewBandRepository(db)
		first := createBand(t, repo, models.BandInput{Name: "Echo"}, "")
		time.Sleep(2 * time.Millisecond)
		createBand(t, repo, models.BandInput{Name: "ECHO!"}, "")

		got, err := repo.GetBySlug(ctx, "echo")
		if err != nil || got.ID != first.ID {
			t.Errorf("expected first band, got %v, %v", got, err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewBandRepository(db)
		owner := createUser(t, db, "owner@example.com")

		createBand(t, repo, models.BandInput{Name: "Zebra Mussels", City: "Marquette", Region: "UP"}, owner.ID)
		createBand(t, repo, models.BandInput{Name: "lake effect", City: "Grand Rapids", Region: "West MI", Genres: []string{"Shoegaze"}}, "")
		createBand(t, repo, models.BandInput{Name: "Motor Mouth", City: "Detroit", Region: "Detroit Metro"}, owner.ID)
		createBand(t, repo, models.BandInput{Name: "100% Pure", City: "Flint", Region: "Flint/Saginaw"}, "")

		t.Run("Ordered by Name", func(t *testing.T) {
			bands, total, err := repo.List(ctx, ListOptions{})
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if total != 4 || len(bands) != 4 {
				t.Fatalf("expected 4 bands, got %d (total %d)", len(bands), total)
			}
			want := []string{"100% Pure", "lake effect", "Motor Mouth", "Zebra Mussels"}
			for i, name := range want {
				if bands[i].Name != name {
					t.Errorf("position %d: expected %s, got %s", i, name, bands[i].Name)
				}
			}
		})

		t.Run("Region Equality", func(t *testing.T) {
			bands, total, err := repo.List(ctx, ListOptions{Region: "UP"})
			if err != nil || total != 1 || bands[0].Name != "Zebra Mussels" {
				t.Errorf("got %v, %d, %v", bands, total, err)
			}
		})

		t.Run("Substring on City", func(t *testing.T) {
			bands, _, err := repo.List(ctx, ListOptions{Q: "grand"})
			if err != nil || len(bands) != 1 || bands[0].Name != "lake effect" {
				t.Errorf("got %v, %v", bands, err)
			}
		})

		t.Run("Substring on Genres", func(t *testing.T) {
			bands, _, err := repo.List(ctx, ListOptions{Q: "shoegaze"})
			if err != nil || len(bands) != 1 || bands[0].Name != "lake effect" {
				t.Errorf("got %v, %v", bands, err)
			}
		})

		t.Run("Like Wildcards Are Literal", func(t *testing.T) {
			bands, _, err := repo.List(ctx, ListOptions{Q: "%"})
			if err != nil || len(bands) != 1 || bands[0].Name != "100% Pure" {
				t.Errorf("got %v, %v", bands, err)
			}
		})

		t.Run("Pagination", func(t *testing.T) {
			bands, total, err := repo.List(ctx, ListOptions{Limit: 2, Offset: 2})
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if total != 4 || len(bands) != 2 || bands[0].Name != "Motor Mouth" {
				t.Errorf("unexpected page %v (total %d)", bands, total)
			}
		})

		t.Run("Owner", func(t *testing.T) {
			bands, err := repo.ListByOwner(ctx, owner.ID)
			if err != nil || len(bands) != 2 || bands[0].Name != "Motor Mouth" {
				t.Errorf("got %v, %v", bands, err)
			}

			none, err := repo.ListByOwner(ctx, "")
			if err != nil || len(none) != 0 {
				t.Errorf("anonymous owner should list nothing, got %v, %v", none, err)
			}
		})
	})

	t.Run("Search Text", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewBandRepository(db)
		owner := createUser(t, db, "owner@example.com")

		soul := createBand(t, repo, models.BandInput{Name: "Velvet Static", City: "Detroit", Genres: []string{"R&B", "Soul"}}, owner.ID)
		createBand(t, repo, models.BandInput{Name: "Los Lagos", City: "Ann Arbor", Genres: []string{"Música Regional"}}, "")
		createBand(t, repo, models.BandInput{Name: "Dune Buggy", City: "Grand Haven", Genres: []string{"Pop", "Indie"}}, "")

		tc := []struct {
			q    string
			want string
		}{
			{"r&b", "Velvet Static"},
			{"R&B", "Velvet Static"},
			{"MÚSICA", "Los Lagos"},
			{"música regional", "Los Lagos"},
			{"pop indie", "Dune Buggy"},
			{`pop", "indie`, ""},
			{`["`, ""},
		}
		for _, c := range tc {
			bands, total, err := repo.List(ctx, ListOptions{Q: c.q})
			if err != nil {
				t.Fatalf("List(%q) failed: %v", c.q, err)
			}
			if filtered := search.Filter(bands, c.q, ""); len(filtered) != total {
				t.Errorf("List(%q): total %d but %d rows pass the listing filter", c.q, total, len(filtered))
			}
			switch {
			case c.want == "" && total != 0:
				t.Errorf("List(%q) should match nothing, got %v", c.q, bands)
			case c.want != "" && (total != 1 || bands[0].Name != c.want):
				t.Errorf("List(%q) = %v (total %d), want %s", c.q, bands, total, c.want)
			}
		}

		var stored string
		if err := db.QueryRow("SELECT genres FROM bands WHERE id = ?", soul.ID).Scan(&stored); err != nil {
			t.Fatalf("failed to read genres: %v", err)
		}
		if stored != `["R&B","Soul"]` {
			t.Errorf("genres stored as %s", stored)
		}

		genres := []string{"Funk"}
		if _, err := repo.Update(ctx, owner.ID, models.BandPatch{ID: soul.ID, Genres: &genres}); err != nil {
			t.Fatalf("failed to update: %v", err)
		}
		if _, total, _ := repo.List(ctx, ListOptions{Q: "funk"}); total != 1 {
			t.Errorf("updated genres should be searchable, got %d", total)
		}
		if _, total, _ := repo.List(ctx, ListOptions{Q: "soul"}); total != 0 {
			t.Errorf("replaced genres should not match, got %d", total)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewBandRepository(db)
		owner := createUser(t, db, "owner@example.com")
		b := createBand(t, repo, models.BandInput{Name: "Old Name", City: "Lansing", Region: "Lansing/Jackson"}, owner.ID)

		name := "New Name"
		updated, err := repo.Update(ctx, owner.ID, models.BandPatch{ID: b.ID, Name: &name})
		if err != nil {
			t.Fatalf("failed to update: %v", err)
		}
		if updated.Slug != "new-name" || updated.City != "Lansing" {
			t.Errorf("unexpected update result %+v", updated)
		}

		stored, err := repo.Get(ctx, b.ID)
		if err != nil {
			t.Fatalf("failed to reload: %v", err)
		}
		if stored.Name != "New Name" || stored.Slug != "new-name" {
			t.Errorf("update not persisted: %+v", stored)
		}
		if !stored.UpdatedAt.After(b.CreatedAt) && !stored.UpdatedAt.Equal(b.CreatedAt) {
			t.Error("updated_at should not move backwards")
		}
	})
}

func TestProfileRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	user := createUser(t, db, "fan@example.com")

	t.Run("Upsert Inserts then Replaces", func(t *testing.T) {
		if err := repo.Upsert(ctx, &models.Profile{ID: user.ID, Name: "Sam"}); err != nil {
			t.Fatalf("failed to insert profile: %v", err)
		}
		if err := repo.Upsert(ctx, &models.Profile{ID: user.ID, Name: "Samantha"}); err != nil {
			t.Fatalf("failed to update profile: %v", err)
		}

		p, err := repo.Get(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to get profile: %v", err)
		}
		if p.Name != "Samantha" || p.UpdatedAt.IsZero() {
			t.Errorf("unexpected profile %+v", p)
		}
	})

	t.Run("Clearing the Name Stores Null", func(t *testing.T) {
		if err := repo.Upsert(ctx, &models.Profile{ID: user.ID}); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		p, err := repo.Get(ctx, user.ID)
		if err != nil || p.Name != "" {
			t.Errorf("got %+v, %v", p, err)
		}
	})
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create Normalizes Email", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		u := &models.User{Email: "  Sam@Example.com ", PasswordHash: "hash"}
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		got, err := repo.GetByEmail(ctx, "SAM@example.com")
		if err != nil {
			t.Fatalf("failed to get by email: %v", err)
		}
		if got.ID != u.ID || got.Provider != models.ProviderPassword || got.PasswordHash != "hash" {
			t.Errorf("unexpected user %+v", got)
		}
	})

	t.Run("GetByProvider", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		u := &models.User{Email: "gh@example.com", Provider: "github", ProviderSubject: "42"}
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		got, err := repo.GetByProvider(ctx, "github", "42")
		if err != nil || got.ID != u.ID {
			t.Errorf("got %v, %v", got, err)
		}
	})

	t.Run("SetAdmin and SetPassword", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		u := createUser(t, db, "admin@example.com")

		if err := repo.SetAdmin(ctx, u.ID, true); err != nil {
			t.Fatalf("failed to set admin: %v", err)
		}
		if err := repo.SetPassword(ctx, u.ID, "new-hash"); err != nil {
			t.Fatalf("failed to set password: %v", err)
		}

		got, err := repo.Get(ctx, u.ID)
		if err != nil || !got.IsAdmin || got.PasswordHash != "new-hash" {
			t.Errorf("got %+v, %v", got, err)
		}

		users, err := repo.List(ctx)
		if err != nil || len(users) != 1 {
			t.Errorf("got %v, %v", users, err)
		}
	})
}

func TestPreviewRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewPreviewRepository(db)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	preview := &models.LinkPreview{Title: "Huron Haze", Host: "huronhaze.com", Icon: "https://huronhaze.com/favicon.ico"}
	if err := repo.Put(ctx, "https://huronhaze.com/", preview, time.Hour); err != nil {
		t.Fatalf("failed to put preview: %v", err)
	}

	t.Run("Hit within TTL", func(t *testing.T) {
		now = now.Add(59 * time.Minute)
		got, err := repo.Get(ctx, "https://huronhaze.com/")
		if err != nil {
			t.Fatalf("expected hit, got %v", err)
		}
		if *got != *preview {
			t.Errorf("got %+v, want %+v", got, preview)
		}
	})

	t.Run("Expired Entries Are Misses", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		if _, err := repo.Get(ctx, "https://huronhaze.com/"); err != shared.ErrCacheMiss {
			t.Fatalf("expected ErrCacheMiss, got %v", err)
		}
		if n, _ := repo.Count(ctx); n != 0 {
			t.Errorf("expired entry should be deleted, %d left", n)
		}
	})

	t.Run("Nil Preview Is Not Stored", func(t *testing.T) {
		if err := repo.Put(ctx, "https://nothing.example/", nil, time.Hour); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n, _ := repo.Count(ctx); n != 0 {
			t.Errorf("expected empty cache, got %d", n)
		}
	})

	t.Run("Purge", func(t *testing.T) {
		_ = repo.Put(ctx, "https://a.example/", &models.LinkPreview{Title: "a"}, time.Minute)
		_ = repo.Put(ctx, "https://b.example/", &models.LinkPreview{Title: "b"}, time.Hour)
		now = now.Add(10 * time.Minute)

		n, err := repo.Purge(ctx)
		if err != nil || n != 1 {
			t.Errorf("expected 1 purged, got %d, %v", n, err)
		}
	})
}
