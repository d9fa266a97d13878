// Package search narrows band listings and carries listing state through URL query parameters.
package search

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/mibands/internal/models"
)

// Filter returns the bands matching both the region and the free-text query, in input order.
//
// The query is matched case-insensitively as a substring of "name city region genres...".
// An empty query matches everything, as does a region of "" or [models.AllRegions].
func Filter(bands []models.Band, query, region string) []models.Band {
	needle := strings.ToLower(strings.TrimSpace(query))
	region = strings.TrimSpace(region)
	allRegions := region == "" || region == models.AllRegions

	out := make([]models.Band, 0, len(bands))
	for _, b := range bands {
		if !allRegions && string(b.Region) != region {
			continue
		}
		if needle != "" && !strings.Contains(b.SearchText(), needle) {
			continue
		}
		out = append(out, b)
	}
	return out
}

const (
	DefaultPageSize = 24
	MaxPageSize     = 500
)

// Query is the listing state shared by the page URL, the JSON API and the data store.
type Query struct {
	Q        string
	Region   string
	Page     int
	PageSize int
}

// ParseQuery reads q, region, page and pageSize. Missing or invalid values fall back to
// defaults; region values outside the known set mean all regions. Page is capped at [MaxPage].
func ParseQuery(v url.Values, defaultPageSize int) Query {
	if defaultPageSize <= 0 || defaultPageSize > MaxPageSize {
		defaultPageSize = DefaultPageSize
	}

	q := Query{
		Q:        strings.TrimSpace(v.Get("q")),
		Region:   models.AllRegions,
		Page:     1,
		PageSize: defaultPageSize,
	}

	if r, ok := models.ParseRegion(v.Get("region")); ok {
		q.Region = string(r)
	}
	if n, err := strconv.Atoi(v.Get("pageSize")); err == nil && n > 0 {
		q.PageSize = min(n, MaxPageSize)
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		q.Page = min(n, MaxPage(q.PageSize))
	}
	return q
}

// MaxPage is the highest page whose offset still fits in a 32-bit signed integer.
func MaxPage(pageSize int) int {
	return math.MaxInt32/max(pageSize, 1) + 1
}

// Offset is the number of rows to skip for the current page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// RegionFilter returns the stored region to filter on, or "" for all regions.
func (q Query) RegionFilter() string {
	if q.Region == models.AllRegions {
		return ""
	}
	return q.Region
}

// Values encodes the query, omitting parameters equal to their defaults.
func (q Query) Values(defaultPageSize int) url.Values {
	v := url.Values{}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.Region != "" && q.Region != models.AllRegions {
		v.Set("region", q.Region)
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 && q.PageSize != defaultPageSize {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	return v
}

// Href renders the query as a link to path.
func (q Query) Href(path string, defaultPageSize int) string {
	enc := q.Values(defaultPageSize).Encode()
	if enc == "" {
		return path
	}
	return path + "?" + enc
}

// WithPage returns a copy pointing at page n.
func (q Query) WithPage(n int) Query {
	q.Page = max(n, 1)
	return q
}

// Page describes one page of results.
type Page struct {
	Query Query
	Total int
}

// HasPrev reports whether there is an earlier page.
func (p Page) HasPrev() bool { return p.Query.Page > 1 }

// HasNext reports whether more rows exist past this page.
func (p Page) HasNext() bool { return p.Query.Offset()+p.Query.PageSize < p.Total }

// Pages is the number of pages needed for Total rows.
func (p Page) Pages() int {
	if p.Total == 0 || p.Query.PageSize <= 0 {
		return 1
	}
	return (p.Total + p.Query.PageSize - 1) / p.Query.PageSize
}
