package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mibands/internal/auth"
	"github.com/desertthunder/mibands/internal/metrics"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/services"
	"github.com/go-chi/chi/v5"
)

// Accounts resolves a provider identity to a local user, creating one on first sign-in.
type Accounts interface {
	SignInExternal(ctx context.Context, id *services.ExternalIdentity) (*models.User, error)
}

// OAuthHandler runs the authorization code flow for every configured [services.IdentityProvider].
//
//	GET /auth/oauth/{provider}?next=/path  redirects to the provider's consent page
//	GET /auth/callback?code=...&state=...  completes sign-in and redirects to next
//
// The state value is bound to a signed cookie, so a callback is accepted only from the browser that started it.
type OAuthHandler struct {
	providers map[string]services.IdentityProvider
	sessions  *auth.SessionManager
	accounts  Accounts
	logger    *log.Logger
}

// NewOAuthHandler creates a new [OAuthHandler].
func NewOAuthHandler(providers map[string]services.IdentityProvider, sessions *auth.SessionManager, accounts Accounts, logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{providers: providers, sessions: sessions, accounts: accounts, logger: logger}
}

// Routes registers the start and callback endpoints.
func (h *OAuthHandler) Routes(r chi.Router) {
	r.Get("/auth/oauth/{provider}", h.start)
	r.Get("/auth/callback", h.callback)
}

func (h *OAuthHandler) start(w http.ResponseWriter, r *http.Request) {
	p, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	token, state, err := h.sessions.IssueState(p.Name(), auth.SafeNext(r.URL.Query().Get("next")))
	if err != nil {
		h.logger.Error("failed to issue oauth state", "error", err)
		http.Error(w, "Sign-in unavailable", http.StatusInternalServerError)
		return
	}

	h.sessions.SetState(w, token)
	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}

func (h *OAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.sessions.ClearState(w)

	cookie, err := r.Cookie(auth.StateCookie)
	if err != nil {
		h.fail(w, r, "", "sign-in expired, please try again")
		return
	}
	claims, err := h.sessions.ParseState(cookie.Value, q.Get("state"))
	if err != nil {
		h.fail(w, r, "", "invalid sign-in state")
		return
	}

	p, ok := h.providers[claims.Provider]
	if !ok {
		h.fail(w, r, claims.Provider, "unknown sign-in provider")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.logger.Warn("authorization denied", "provider", p.Name(), "error", q.Get("error"), "description", q.Get("error_description"))
		h.fail(w, r, p.Name(), "authorization was not granted")
		return
	}

	ext, err := p.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("code exchange failed", "provider", p.Name(), "error", err)
		metrics.RecordSignIn(p.Name(), err)
		h.fail(w, r, p.Name(), "could not sign in with "+p.Name())
		return
	}

	user, err := h.accounts.SignInExternal(r.Context(), ext)
	if err != nil {
		h.logger.Error("failed to resolve account", "provider", p.Name(), "error", err)
		metrics.RecordSignIn(p.Name(), err)
		h.fail(w, r, p.Name(), "could not sign in with "+p.Name())
		return
	}

	session, expires, err := h.sessions.Issue(user)
	if err != nil {
		h.logger.Error("failed to issue session", "error", err)
		http.Error(w, "Sign-in unavailable", http.StatusInternalServerError)
		return
	}
	h.sessions.SetSession(w, session, expires)
	metrics.RecordSignIn(p.Name(), nil)

	http.Redirect(w, r, auth.SafeNext(claims.Next), http.StatusSeeOther)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, provider, msg string) {
	h.logger.Debug("oauth callback rejected", "provider", provider, "reason", msg)
	http.Redirect(w, r, "/sign-in?error="+url.QueryEscape(msg), http.StatusSeeOther)
}
