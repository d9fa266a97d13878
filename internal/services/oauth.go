// OAuth2 sign-in providers
//
// GitHub user API: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
// Google userinfo: https://developers.google.com/identity/openid-connect/openid-connect#obtainuserinfo
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/mibands/internal/shared"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

const (
	githubAuthURL     = "https://github.com/login/oauth/authorize"
	githubTokenURL    = "https://github.com/login/oauth/access_token"
	githubUserInfoURL = "https://api.github.com/user"

	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

const (
	ProviderGitHub = "github"
	ProviderGoogle = "google"
)

// ExternalIdentity is the account a provider vouched for after a successful code exchange.
type ExternalIdentity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// IdentityProvider is an OAuth2 authorization code flow that resolves to an [ExternalIdentity].
type IdentityProvider interface {
	// Name returns the provider key used in routes and the users table.
	Name() string

	// AuthCodeURL builds the consent page URL carrying state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the signed-in account.
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}

type decodeFunc func(body []byte) (*ExternalIdentity, error)

// OAuthProvider implements [IdentityProvider] for providers that expose a JSON user info endpoint.
//
// Token exchange and the user info call run behind a circuit breaker so a failing
// provider fails fast with [shared.ErrServiceUnavailable].
type OAuthProvider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	decode      decodeFunc
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[*ExternalIdentity]
}

// ProviderOption overrides provider defaults.
type ProviderOption func(*OAuthProvider)

// WithEndpoints points the provider at different authorize, token, and user info URLs.
func WithEndpoints(authURL, tokenURL, userInfoURL string) ProviderOption {
	return func(p *OAuthProvider) {
		p.config.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
		p.userInfoURL = userInfoURL
	}
}

// WithHTTPClient sets the client used for token exchange and user info requests.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *OAuthProvider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// NewGitHubProvider creates a GitHub sign-in provider.
func NewGitHubProvider(creds shared.OAuthProvider, opts ...ProviderOption) (*OAuthProvider, error) {
	return newOAuthProvider(ProviderGitHub, creds, &oauth2.Config{
		Scopes:   []string{"read:user", "user:email"},
		Endpoint: oauth2.Endpoint{AuthURL: githubAuthURL, TokenURL: githubTokenURL},
	}, githubUserInfoURL, decodeGitHubUser, opts)
}

// NewGoogleProvider creates a Google sign-in provider.
func NewGoogleProvider(creds shared.OAuthProvider, opts ...ProviderOption) (*OAuthProvider, error) {
	return newOAuthProvider(ProviderGoogle, creds, &oauth2.Config{
		Scopes:   []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{AuthURL: googleAuthURL, TokenURL: googleTokenURL},
	}, googleUserInfoURL, decodeGoogleUser, opts)
}

func newOAuthProvider(name string, creds shared.OAuthProvider, config *oauth2.Config, userInfoURL string, decode decodeFunc, opts []ProviderOption) (*OAuthProvider, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: %s client_id", shared.ErrMissingConfig, name)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: %s client_secret", shared.ErrMissingConfig, name)
	}

	config.ClientID = creds.ClientID
	config.ClientSecret = creds.ClientSecret
	config.RedirectURL = creds.RedirectURI

	p := &OAuthProvider{
		name:        name,
		config:      config,
		userInfoURL: userInfoURL,
		decode:      decode,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}

	p.breaker = gobreaker.NewCircuitBreaker[*ExternalIdentity](gobreaker.Settings{
		Name:        "oauth-" + name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return p, nil
}

func (p *OAuthProvider) Name() string {
	return p.name
}

func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// BreakerState reports the circuit breaker state as a string for status output.
func (p *OAuthProvider) BreakerState() string {
	return p.breaker.State().String()
}

func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: missing authorization code", shared.ErrAuthFailed)
	}

	id, err := p.breaker.Execute(func() (*ExternalIdentity, error) {
		return p.exchange(ctx, code)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s sign-in", shared.ErrServiceUnavailable, p.name)
	}
	return id, err
}

func (p *OAuthProvider) exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s user info status %d", shared.ErrAuthFailed, p.name, resp.StatusCode)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	id, err := p.decode(body)
	if err != nil {
		return nil, err
	}
	id.Provider = p.name
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))
	return id, nil
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func decodeGitHubUser(body []byte) (*ExternalIdentity, error) {
	var u githubUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("%w: github user has no id", shared.ErrAuthFailed)
	}

	email := u.Email
	if email == "" && u.Login != "" {
		email = u.Login + "@users.noreply.github.com"
	}
	name := u.Name
	if name == "" {
		name = u.Login
	}
	return &ExternalIdentity{Subject: strconv.FormatInt(u.ID, 10), Email: email, Name: name}, nil
}

type googleUser struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func decodeGoogleUser(body []byte) (*ExternalIdentity, error) {
	var u googleUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if u.Sub == "" {
		return nil, fmt.Errorf("%w: google user has no subject", shared.ErrAuthFailed)
	}
	return &ExternalIdentity{Subject: u.Sub, Email: u.Email, Name: u.Name}, nil
}

// ProvidersFromConfig builds every provider that has client credentials configured, keyed by [IdentityProvider.Name].
func ProvidersFromConfig(cfg shared.AuthConfig, opts ...ProviderOption) map[string]IdentityProvider {
	providers := make(map[string]IdentityProvider)
	if cfg.GitHub.Enabled() {
		if p, err := NewGitHubProvider(cfg.GitHub, opts...); err == nil {
			providers[p.Name()] = p
		}
	}
	if cfg.Google.Enabled() {
		if p, err := NewGoogleProvider(cfg.Google, opts...); err == nil {
			providers[p.Name()] = p
		}
	}
	return providers
}
