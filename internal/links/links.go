// Package links turns user-entered social links into canonical URLs and
// platform embed URLs.
//
// Every function here is pure. Input that cannot be normalized yields an
// absent result (an empty string and false), never an error.
package links

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
	handlePattern = regexp.MustCompile(`^[A-Za-z0-9._]+$`)
)

// Set holds a band's outbound links. Each field is optional.
type Set struct {
	Website   string `json:"website,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Spotify   string `json:"spotify,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

// IsZero reports whether no link is set.
func (s Set) IsZero() bool {
	return s == Set{}
}

// Canonical returns a copy with every link normalized. Links that cannot be
// normalized are dropped.
func (s Set) Canonical() Set {
	website, _ := Normalize(s.Website)
	instagram, _ := Instagram(s.Instagram)
	spotify, _ := Normalize(s.Spotify)
	youtube, _ := Normalize(s.YouTube)
	return Set{Website: website, Instagram: instagram, Spotify: spotify, YouTube: youtube}
}

// Normalize turns loosely formatted input into an absolute URL.
//
// Input without a scheme gets "https://" prepended before parsing. The result
// has a lowercase scheme and host, no default port, and "/" for an empty path
// on http(s) URLs, so Normalize is idempotent. Empty or unparseable input
// yields "", false.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if !schemePattern.MatchString(s) {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	return canonical(u)
}

func canonical(u *url.URL) (string, bool) {
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return u.String(), true
	}
	if u.Opaque != "" || u.Hostname() == "" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	switch port := u.Port(); {
	case port == "":
	case u.Scheme == "https" && port == "443":
	case u.Scheme == "http" && port == "80":
	default:
		host += ":" + port
	}
	u.Host = host

	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	return u.String(), true
}

// Instagram canonicalizes a profile URL, "@handle", or bare handle to
// https://instagram.com/<handle>. Anything else falls back to [Normalize].
func Instagram(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "instagram.com") || strings.Contains(lower, "instagr.am") {
		return Normalize(s)
	}

	if handle := strings.TrimPrefix(s, "@"); handlePattern.MatchString(handle) {
		return "https://instagram.com/" + handle, true
	}
	return Normalize(s)
}

// InstagramLabel renders a canonical Instagram URL as "@handle", or
// "Instagram" when no handle can be read from it.
func InstagramLabel(canonicalURL string) string {
	u, err := url.Parse(strings.TrimSpace(canonicalURL))
	if err != nil || u.Host == "" {
		return "Instagram"
	}
	segs := segments(u.Path)
	if len(segs) == 0 {
		return "Instagram"
	}
	return "@" + segs[0]
}

// segments splits a URL path on "/" and drops empty parts.
func segments(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// parse normalizes raw and returns the parsed canonical URL.
func parse(raw string) (*url.URL, bool) {
	s, ok := Normalize(raw)
	if !ok {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, false
	}
	return u, true
}
