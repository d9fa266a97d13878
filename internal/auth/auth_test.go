package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/shared"
)

func TestPassword(t *testing.T) {
	t.Run("Hash and Verify", func(t *testing.T) {
		hash, err := HashPassword("correct horse")
		if err != nil {
			t.Fatalf("failed to hash: %v", err)
		}
		if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=1$") {
			t.Errorf("unexpected PHC string %q", hash)
		}
		if !VerifyPassword(hash, "correct horse") {
			t.Error("expected password to verify")
		}
		if VerifyPassword(hash, "wrong horse") {
			t.Error("wrong password verified")
		}
	})

	t.Run("Salts Differ", func(t *testing.T) {
		a, _ := HashPassword("same password")
		b, _ := HashPassword("same password")
		if a == b {
			t.Error("expected distinct salts")
		}
	})

	t.Run("Short Passwords Rejected", func(t *testing.T) {
		if _, err := HashPassword("short"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("Malformed Hashes Never Match", func(t *testing.T) {
		for _, phc := range []string{
			"",
			"plaintext",
			"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$c3Vt",
			"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$c3Vt",
			"$argon2id$v=19$m=65536,t=3$c2FsdA$c3Vt",
			"$argon2id$v=19$m=65536,t=3,p=999$c2FsdA$c3Vt",
			"$argon2id$v=19$m=65536,t=3,p=1$!!$c3Vt",
		} {
			if VerifyPassword(phc, "anything") {
				t.Errorf("VerifyPassword(%q) matched", phc)
			}
		}
	})
}

func newManager(t *testing.T) *SessionManager {
	t.Helper()
	m, err := NewSessionManager("0123456789abcdef-test-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return m
}

func TestSessionManager(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "sam@example.com", IsAdmin: true}

	t.Run("Requires a Secret", func(t *testing.T) {
		if _, err := NewSessionManager("", time.Hour, false); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Issue and Parse", func(t *testing.T) {
		m := newManager(t)
		token, expires, err := m.Issue(user)
		if err != nil {
			t.Fatalf("failed to issue: %v", err)
		}
		if time.Until(expires) <= 0 {
			t.Error("expiry should be in the future")
		}

		id, err := m.Parse(token)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if id.UserID != "user-1" || id.Email != "sam@example.com" || !id.Admin {
			t.Errorf("unexpected identity %+v", id)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		m := newManager(t)
		token, _, _ := m.Issue(user)
		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		if _, err := m.Parse(token); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token, _, _ := newManager(t).Issue(user)
		other, _ := NewSessionManager("another-secret-value-123", time.Hour, false)

		if _, err := other.Parse(token); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := newManager(t).Parse("not.a.token"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Cookie Round Trip", func(t *testing.T) {
		m := newManager(t)
		token, expires, _ := m.Issue(user)

		rec := httptest.NewRecorder()
		m.SetSession(rec, token, expires)
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteLaxMode {
			t.Fatalf("unexpected cookies %+v", cookies)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		id, err := m.FromRequest(req)
		if err != nil || id.UserID != "user-1" {
			t.Errorf("got %+v, %v", id, err)
		}
	})

	t.Run("No Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if _, err := newManager(t).FromRequest(req); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newManager(t).ClearSession(rec)
		c := rec.Result().Cookies()[0]
		if c.Name != SessionCookie || c.MaxAge >= 0 {
			t.Errorf("expected expired cookie, got %+v", c)
		}
	})
}

func TestOAuthState(t *testing.T) {
	m := newManager(t)

	t.Run("Matching State", func(t *testing.T) {
		token, state, err := m.IssueState("github", "/my-bands")
		if err != nil {
			t.Fatalf("failed to issue state: %v", err)
		}
		claims, err := m.ParseState(token, state)
		if err != nil {
			t.Fatalf("failed to parse state: %v", err)
		}
		if claims.Provider != "github" || claims.Next != "/my-bands" {
			t.Errorf("unexpected claims %+v", claims)
		}
	})

	t.Run("Mismatched State", func(t *testing.T) {
		token, _, _ := m.IssueState("github", "/")
		if _, err := m.ParseState(token, "forged"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("External Next Is Dropped", func(t *testing.T) {
		token, state, _ := m.IssueState("google", "https://evil.example/")
		claims, _ := m.ParseState(token, state)
		if claims.Next != "/" {
			t.Errorf("expected /, got %q", claims.Next)
		}
	})
}

func TestSafeNext(t *testing.T) {
	tc := map[string]string{
		"":                   "/",
		"/profile":           "/profile",
		"/bands/x?y=1":       "/bands/x?y=1",
		"//evil.example":     "/",
		`/\evil.example`:     "/",
		"https://evil.test/": "/",
		"profile":            "/",
	}
	for in, want := range tc {
		if got := SafeNext(in); got != want {
			t.Errorf("SafeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Error("empty context should have no identity")
	}

	ctx := WithIdentity(context.Background(), &Identity{UserID: "u1"})
	id, ok := IdentityFrom(ctx)
	if !ok || id.UserID != "u1" {
		t.Errorf("got %+v, %v", id, ok)
	}
}
