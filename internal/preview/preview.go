// Package preview fetches best-effort Open Graph metadata for band websites.
package preview

import (
	"context"
	"errors"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mibands/internal/metrics"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/shared"
)

const (
	DefaultTimeout   = 3 * time.Second
	DefaultUserAgent = "mibands-preview/1.0"
	maxBodyBytes     = 1 << 20
)

// Source produces a preview for a URL. A nil result means no preview.
type Source interface {
	Fetch(ctx context.Context, rawURL string) *models.LinkPreview
}

// Fetcher performs a single GET and scrapes meta tags out of the raw body.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// NewFetcher builds a [Fetcher] from preview settings. baseURL is appended to the user agent when set.
func NewFetcher(cfg shared.PreviewConfig, baseURL string) *Fetcher {
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	if baseURL != "" {
		ua += " (+" + baseURL + ")"
	}
	return &Fetcher{
		client:    &http.Client{},
		userAgent: ua,
		timeout:   cfg.Timeout(),
	}
}

// WithClient swaps the HTTP client.
func (f *Fetcher) WithClient(c *http.Client) *Fetcher {
	f.client = c
	return f
}

// Fetch returns the page metadata for rawURL, or nil on any failure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (p *models.LinkPreview) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p = nil
		}
		metrics.RecordPreviewFetch(time.Since(start), p != nil)
	}()

	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() || target.Host == "" {
		return nil
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil
	}

	final := target
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	return Extract(string(body), final)
}

var (
	ogTitle       = metaPattern("property", "og:title")
	ogDescription = metaPattern("property", "og:description")
	ogImage       = metaPattern("property", "og:image")
	description   = metaPattern("name", "description")
	themeColor    = metaPattern("name", "theme-color")
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	iconHrefFirst = regexp.MustCompile(`(?is)<link[^>]+href=` + quoted + `[^>]*rel=["'](?:shortcut )?icon["']`)
	iconRelFirst  = regexp.MustCompile(`(?is)<link[^>]+rel=["'](?:shortcut )?icon["'][^>]*href=` + quoted)
)

// quoted captures an attribute value in double or single quotes. The other
// quote character may appear inside the value.
const quoted = `(?:"([^"]*)"|'([^']*)')`

// metaPattern matches a meta tag's content in either attribute order.
func metaPattern(attr, key string) []*regexp.Regexp {
	k := regexp.QuoteMeta(key)
	return []*regexp.Regexp{
		regexp.MustCompile(`(?is)<meta[^>]+` + attr + `=["']` + k + `["'][^>]*content=` + quoted),
		regexp.MustCompile(`(?is)<meta[^>]+content=` + quoted + `[^>]*` + attr + `=["']` + k + `["']`),
	}
}

func first(body string, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		for _, g := range m[1:] {
			if v := strings.TrimSpace(html.UnescapeString(g)); v != "" {
				return v
			}
		}
	}
	return ""
}

// Extract scrapes preview fields from an HTML document fetched from page.
func Extract(body string, page *url.URL) *models.LinkPreview {
	p := &models.LinkPreview{
		Title:       first(body, append(ogTitle, titleTag)...),
		Description: first(body, append(ogDescription, description...)...),
		Image:       resolve(page, first(body, ogImage...)),
		Icon:        resolve(page, first(body, iconRelFirst, iconHrefFirst)),
		ThemeColor:  first(body, themeColor...),
		Host:        strings.TrimPrefix(strings.ToLower(page.Hostname()), "www."),
	}
	if p.Icon == "" {
		p.Icon = page.Scheme + "://" + page.Host + "/favicon.ico"
	}
	return p
}

func resolve(page *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return page.ResolveReference(u).String()
}

// Cache stores previews for a bounded time.
type Cache interface {
	Get(ctx context.Context, url string) (*models.LinkPreview, error)
	Put(ctx context.Context, url string, p *models.LinkPreview, ttl time.Duration) error
}

// Cached serves previews from a [Cache] and falls back to a [Source] on a miss.
type Cached struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger *log.Logger
}

// NewCached wraps source with cache. A non-positive ttl means one hour.
func NewCached(source Source, cache Cache, ttl time.Duration, logger *log.Logger) *Cached {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Cached{source: source, cache: cache, ttl: ttl, logger: logger}
}

// Fetch returns a cached preview inside the reuse window, otherwise fetches and stores it.
func (c *Cached) Fetch(ctx context.Context, rawURL string) *models.LinkPreview {
	if p, err := c.cache.Get(ctx, rawURL); err == nil {
		metrics.RecordPreview(metrics.PreviewHit)
		return p
	} else if !errors.Is(err, shared.ErrCacheMiss) {
		c.logger.Debug("preview cache read failed", "url", rawURL, "error", err)
	}
	metrics.RecordPreview(metrics.PreviewMiss)

	p := c.source.Fetch(ctx, rawURL)
	if p == nil {
		return nil
	}
	if err := c.cache.Put(ctx, rawURL, p, c.ttl); err != nil {
		c.logger.Debug("preview cache write failed", "url", rawURL, "error", err)
	}
	return p
}
