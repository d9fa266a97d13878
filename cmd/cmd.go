// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mibands/internal/formatter"
)

// serveCommand runs the web app and JSON API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web app and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the site in the default browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the configuration file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
			{
				Name:   "status",
				Usage:  "List applied migrations",
				Action: r.SetupStatus,
			},
		},
	}
}

// bandsCommand handles directory operations.
func bandsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "bands",
		Usage: "List, show, export and import bands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List bands ordered by name",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "region",
						Usage: "Only bands in this region",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Search name, city, region and genres",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of bands to return (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.BandsList,
			},
			{
				Name:  "show",
				Usage: "Show one band by slug or id",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "band"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.BandsShow,
			},
			{
				Name:  "export",
				Usage: "Export the directory to files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   formatter.FormatJSON,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: bands_export_{epoch})",
					},
					&cli.StringFlag{
						Name:  "region",
						Usage: "Only bands in this region",
					},
					&cli.BoolFlag{
						Name:  "by-region",
						Usage: "Write one file per region",
					},
				},
				Action: r.BandsExport,
			},
			{
				Name:  "import",
				Usage: "Import bands from a CSV or JSON file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv or json (default: from the file extension)",
					},
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Email of the user who will own the imported bands",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Validate rows without writing",
					},
					&cli.BoolFlag{
						Name:  "skip-existing",
						Usage: "Skip rows whose slug already exists",
					},
				},
				Action: r.BandsImport,
			},
		},
	}
}

// linksCommand exposes the link normalizers.
func linksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "links",
		Usage: "Normalize links and inspect embeds and previews",
		Commands: []*cli.Command{
			{
				Name:      "normalize",
				Usage:     "Print the canonical form of a URL",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Action:    r.LinksNormalize,
			},
			{
				Name:      "instagram",
				Usage:     "Print the canonical Instagram URL and handle for a handle or URL",
				Arguments: []cli.Argument{&cli.StringArg{Name: "input"}},
				Action:    r.LinksInstagram,
			},
			{
				Name:      "embed",
				Usage:     "Print the Spotify or YouTube embed URL for a link",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Action:    r.LinksEmbed,
			},
			{
				Name:      "preview",
				Usage:     "Fetch the title, description and image of a website",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LinksPreview,
			},
		},
	}
}

// previewsCommand manages the website preview cache.
func previewsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "previews",
		Usage: "Manage the website preview cache",
		Commands: []*cli.Command{
			{
				Name:  "warm",
				Usage: "Fetch and cache the preview of every band website",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "region",
						Usage: "Only bands in this region",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent fetchers (default: tasks.workers)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Fetches per second (default: tasks.rate_limit)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PreviewsWarm,
			},
			{
				Name:   "purge",
				Usage:  "Delete every cached preview",
				Action: r.PreviewsPurge,
			},
		},
	}
}

// usersCommand manages accounts.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage accounts",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a password account",
				Arguments: []cli.Argument{&cli.StringArg{Name: "email"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "admin",
						Usage: "Grant admin rights",
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "Password (prompted when omitted)",
					},
				},
				Action: r.UsersAdd,
			},
			{
				Name:  "list",
				Usage: "List accounts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UsersList,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing the directory.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse bands in an interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where TUI logs go",
				Value: "./tmp/mibands-tui.log",
			},
		},
		Action: r.TUI,
	}
}
