package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Auth      AuthConfig      `toml:"auth"`
	Preview   PreviewConfig   `toml:"preview"`
	Listing   ListingConfig   `toml:"listing"`
	CORS      CORSConfig      `toml:"cors"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Tasks     TasksConfig     `toml:"tasks"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                string `toml:"host"`
	Port                int    `toml:"port"`
	BaseURL             string `toml:"base_url"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// Addr joins host and port into a listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// AuthConfig holds session signing and sign-in provider settings.
type AuthConfig struct {
	SessionSecret   string        `toml:"session_secret"`
	SessionTTLHours int           `toml:"session_ttl_hours"`
	CookieSecure    bool          `toml:"cookie_secure"`
	AdminToken      string        `toml:"admin_token"`
	GitHub          OAuthProvider `toml:"github"`
	Google          OAuthProvider `toml:"google"`
}

// SessionTTL returns the session lifetime, defaulting to one week.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// OAuthProvider contains OAuth2 client credentials for a sign-in provider.
type OAuthProvider struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Enabled reports whether the provider has client credentials.
func (p OAuthProvider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// PreviewConfig controls the website link preview fetcher.
type PreviewConfig struct {
	TimeoutMS       int    `toml:"timeout_ms"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
	UserAgent       string `toml:"user_agent"`
}

// Timeout returns the fetch timeout, 3s when unset.
func (p PreviewConfig) Timeout() time.Duration {
	if p.TimeoutMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// CacheTTL returns the preview reuse window, 1h when unset.
func (p PreviewConfig) CacheTTL() time.Duration {
	if p.CacheTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(p.CacheTTLMinutes) * time.Minute
}

// ListingConfig sets listing page sizes.
type ListingConfig struct {
	PageSize    int `toml:"page_size"`
	MaxPageSize int `toml:"max_page_size"`
}

// CORSConfig lists origins allowed to call the JSON API.
type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// RateLimitConfig throttles write and sign-in endpoints per client IP.
type RateLimitConfig struct {
	Requests      int `toml:"requests"`
	WindowSeconds int `toml:"window_seconds"`
}

// Window returns the rate limit window.
func (r RateLimitConfig) Window() time.Duration {
	if r.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.WindowSeconds) * time.Second
}

// TasksConfig contains settings for background bulk tasks.
type TasksConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("%w: auth.session_secret is required", ErrInvalidConfig)
	}
	if len(c.Auth.SessionSecret) < 16 {
		return fmt.Errorf("%w: auth.session_secret must be at least 16 characters", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Listing.PageSize <= 0 || c.Listing.PageSize > c.Listing.MaxPageSize {
		return fmt.Errorf("%w: listing.page_size must be between 1 and %d", ErrInvalidConfig, c.Listing.MaxPageSize)
	}
	return nil
}
