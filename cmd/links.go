package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mibands/internal/links"
	"github.com/desertthunder/mibands/internal/shared"
)

// LinksNormalize prints the canonical form of a URL.
func (r *Runner) LinksNormalize(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("url")
	if raw == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	u, ok := links.Normalize(raw)
	if !ok {
		return fmt.Errorf("%w: cannot normalize %q", shared.ErrInvalidInput, raw)
	}
	return r.writePlain("%s\n", u)
}

// LinksInstagram prints the canonical Instagram URL and its display handle.
func (r *Runner) LinksInstagram(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("input")
	if raw == "" {
		return fmt.Errorf("%w: handle or url", shared.ErrMissingArgument)
	}
	u, ok := links.Instagram(raw)
	if !ok {
		return fmt.Errorf("%w: cannot normalize %q", shared.ErrInvalidInput, raw)
	}
	return r.writePlain("%s\t%s\n", u, links.InstagramLabel(u))
}

// LinksEmbed prints the player URL for a Spotify or YouTube link.
func (r *Runner) LinksEmbed(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("url")
	if raw == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	if u, ok := links.SpotifyEmbed(raw); ok {
		return r.writePlain("spotify\t%s\n", u)
	}
	if u, ok := links.YouTubeEmbed(raw); ok {
		return r.writePlain("youtube\t%s\n", u)
	}
	return fmt.Errorf("%w: no embed for %q", shared.ErrInvalidInput, raw)
}

// LinksPreview fetches a website preview without touching the cache.
func (r *Runner) LinksPreview(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("url")
	if raw == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	u, ok := links.Normalize(raw)
	if !ok {
		return fmt.Errorf("%w: cannot normalize %q", shared.ErrInvalidInput, raw)
	}

	p := r.fetcher().Fetch(ctx, u)
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"url": u, "preview": p}, true)
	}
	if p == nil {
		return r.writePlain("No preview for %s\n", u)
	}

	r.writePlainHeader(u)
	for _, row := range [][2]string{
		{"Title", p.Title},
		{"Description", p.Description},
		{"Image", p.Image},
		{"Icon", p.Icon},
		{"Host", p.Host},
		{"Theme", p.ThemeColor},
	} {
		if row[1] != "" {
			r.writePlain("%-12s %s\n", row[0]+":", row[1])
		}
	}
	return nil
}
