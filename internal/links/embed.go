package links

import (
	"net/url"
	"strings"
)

var spotifyTypes = map[string]bool{
	"artist":   true,
	"album":    true,
	"track":    true,
	"playlist": true,
	"episode":  true,
	"show":     true,
}

// SpotifyEmbed converts an open.spotify.com resource URL to its embedded
// player URL, https://open.spotify.com/embed/<type>/<id>.
func SpotifyEmbed(raw string) (string, bool) {
	u, ok := parse(raw)
	if !ok || u.Host != "open.spotify.com" {
		return "", false
	}

	segs := segments(u.Path)
	if len(segs) < 2 || !spotifyTypes[segs[0]] {
		return "", false
	}
	return "https://open.spotify.com/embed/" + segs[0] + "/" + url.PathEscape(segs[1]), true
}

// YouTubeEmbed converts youtu.be links, watch, shorts and playlist URLs to an
// iframe URL. Existing /embed/ URLs are returned as given (after normalization).
func YouTubeEmbed(raw string) (string, bool) {
	u, ok := parse(raw)
	if !ok {
		return "", false
	}

	host := strings.TrimPrefix(u.Host, "www.")
	segs := segments(u.Path)

	switch host {
	case "youtu.be":
		if len(segs) > 0 {
			return videoEmbed(segs[0])
		}
	case "youtube.com", "m.youtube.com":
		if len(segs) == 0 {
			return "", false
		}
		switch segs[0] {
		case "embed":
			if len(segs) > 1 {
				return u.String(), true
			}
		case "shorts":
			if len(segs) > 1 {
				return videoEmbed(segs[1])
			}
		case "watch":
			return videoEmbed(u.Query().Get("v"))
		case "playlist":
			if list := u.Query().Get("list"); list != "" {
				return "https://www.youtube.com/embed/videoseries?list=" + url.QueryEscape(list), true
			}
		}
	}
	return "", false
}

func videoEmbed(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	return "https://www.youtube.com/embed/" + url.PathEscape(id), true
}

// Rendered is a band's link set prepared for display. Empty fields are not
// rendered.
type Rendered struct {
	Website        string
	Instagram      string
	InstagramLabel string
	Spotify        string
	SpotifyEmbed   string
	YouTube        string
	YouTubeEmbed   string
}

// Any reports whether there is at least one link to show.
func (r Rendered) Any() bool {
	return r.Website != "" || r.Instagram != "" || r.Spotify != "" || r.YouTube != ""
}

// Derive normalizes every link in s and computes labels and embeds.
func Derive(s Set) Rendered {
	var r Rendered
	r.Website, _ = Normalize(s.Website)
	if ig, ok := Instagram(s.Instagram); ok {
		r.Instagram = ig
		r.InstagramLabel = InstagramLabel(ig)
	}
	r.Spotify, _ = Normalize(s.Spotify)
	r.SpotifyEmbed, _ = SpotifyEmbed(s.Spotify)
	r.YouTube, _ = Normalize(s.YouTube)
	r.YouTubeEmbed, _ = YouTubeEmbed(s.YouTube)
	return r
}
