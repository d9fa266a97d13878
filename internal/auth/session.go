package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/shared"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "mibands_session"
	// StateCookie carries the signed OAuth state between redirect and callback.
	StateCookie = "mibands_oauth_state"

	issuer   = "mibands"
	stateTTL = 10 * time.Minute
)

// Identity is the signed-in user attached to a request.
type Identity struct {
	UserID string
	Email  string
	Admin  bool
}

// Claims are the session token claims. The subject is the user id.
type Claims struct {
	Email string `json:"email"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// StateClaims bind an OAuth state value to the post sign-in redirect.
type StateClaims struct {
	Provider string `json:"provider"`
	Next     string `json:"next,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager creates a manager. The secret must be non-empty.
func NewSessionManager(secret string, ttl time.Duration, secureCookies bool) (*SessionManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session secret is required", shared.ErrInvalidConfig)
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl, secure: secureCookies, now: time.Now}, nil
}

// Issue signs a session token for u and returns it with its expiry.
func (m *SessionManager) Issue(u *models.User) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := &Claims{
		Email: u.Email,
		Admin: u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a session token and returns the identity it names.
func (m *SessionManager) Parse(token string) (*Identity, error) {
	claims := &Claims{}
	if err := m.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", shared.ErrNotAuthenticated)
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email, Admin: claims.Admin}, nil
}

// IssueState signs a short-lived OAuth state token and returns it with the state value
// to send to the provider.
func (m *SessionManager) IssueState(provider, next string) (token, state string, err error) {
	now := m.now()
	state = shared.GenerateID()
	claims := &StateClaims{
		Provider: provider,
		Next:     SafeNext(next),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ID:        state,
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign state: %w", err)
	}
	return token, state, nil
}

// ParseState verifies the state cookie token and checks it against the state echoed
// back by the provider.
func (m *SessionManager) ParseState(token, state string) (*StateClaims, error) {
	claims := &StateClaims{}
	if err := m.parse(token, claims); err != nil {
		return nil, err
	}
	if state == "" || claims.ID != state {
		return nil, fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)
	}
	return claims, nil
}

func (m *SessionManager) parse(token string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
}

// SetSession writes the session cookie.
func (m *SessionManager) SetSession(w http.ResponseWriter, token string, expires time.Time) {
	m.setCookie(w, SessionCookie, token, expires)
}

// ClearSession expires the session cookie.
func (m *SessionManager) ClearSession(w http.ResponseWriter) {
	m.setCookie(w, SessionCookie, "", time.Unix(0, 0))
}

// SetState writes the OAuth state cookie.
func (m *SessionManager) SetState(w http.ResponseWriter, token string) {
	m.setCookie(w, StateCookie, token, m.now().Add(stateTTL))
}

// ClearState expires the OAuth state cookie.
func (m *SessionManager) ClearState(w http.ResponseWriter) {
	m.setCookie(w, StateCookie, "", time.Unix(0, 0))
}

func (m *SessionManager) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// FromRequest reads and verifies the session cookie.
func (m *SessionManager) FromRequest(r *http.Request) (*Identity, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return m.Parse(c.Value)
}

// SafeNext keeps only same-site relative redirect targets, defaulting to "/".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity attached to ctx, if any.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}
