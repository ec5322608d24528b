// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is shared by every command that touches the config file.
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override the configured listen host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override the configured listen port",
			},
		},
		Action: r.Serve,
	}
}

// resolveCommand runs a one-off track resolution against a catalog.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a song against an external catalog",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Song name to resolve",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "artist",
				Usage:    "Artist name to resolve",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Catalog to search (itunes or spotify)",
				Value: "itunes",
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
		Action: r.Resolve,
	}
}

// backfillCommand runs enrichment sweeps over the song collection.
func backfillCommand(r *Runner) *cli.Command {
	sweepFlags := func() []cli.Flag {
		return []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Records fetched per page",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output final counters as JSON",
			},
		}
	}

	return &cli.Command{
		Name:  "backfill",
		Usage: "Sweep the song collection and fill missing fields",
		Commands: []*cli.Command{
			{
				Name:   "covers",
				Usage:  "Fill missing artwork from the iTunes Search API",
				Flags:  sweepFlags(),
				Action: r.BackfillCovers,
			},
			{
				Name:   "spotify-ids",
				Usage:  "Fill missing Spotify track IDs",
				Flags:  sweepFlags(),
				Action: r.BackfillSpotifyIDs,
			},
			{
				Name:   "durations",
				Usage:  "Fill missing track durations from Spotify",
				Flags:  sweepFlags(),
				Action: r.BackfillDurations,
			},
		},
	}
}

// exportCommand writes a playlist to disk in one of the supported formats.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a playlist with its songs",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"id"},
				Usage:    "Playlist ID to export",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (csv, markdown, text, json)",
				Value: "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path (file for csv/text/json, directory for markdown)",
			},
		},
		Action: r.Export,
	}
}

// browseCommand returns the top-level TUI command for browsing the catalog.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui"},
		Usage:   "Launch interactive TUI for browsing playlists and songs",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "user",
				Usage: "User ID whose playlists to browse",
				Value: "local",
			},
		},
		Action: r.Browse,
	}
}
