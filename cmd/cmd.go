// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is shared by every command that reads config.toml.
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// outputFlags are shared by the data retrieval commands.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// formatFlag selects the export format used alongside --output.
func formatFlag(value, usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   usage,
		Value:   value,
	}
}

// topItemFlags extend the output flags with limit and time range selection.
func topItemFlags(r *Runner) []cli.Flag {
	return append(outputFlags(),
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Number of items to return (1-50)",
			Value: r.config.Analytics.DefaultLimit,
		},
		&cli.StringFlag{
			Name:    "time-range",
			Aliases: []string{"t"},
			Usage:   "Time window: short_term, medium_term or long_term",
			Value:   r.config.Analytics.TimeRange,
		},
	)
}

// setupCommand handles setup operations for configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a starter configuration file",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// serveCommand starts the HTTP API for notebook consumption.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host interface to bind",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
			},
		},
		Action: r.Serve,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Action: r.AuthStatus,
			},
		},
	}
}

// profileCommand fetches the authenticated user's profile.
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "profile",
		Usage:  "Show the authenticated user's Spotify profile",
		Flags:  outputFlags(),
		Action: r.Profile,
	}
}

// topCommand handles top tracks and top artists retrieval.
func topCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "Top listening data",
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "List the user's top tracks",
				Flags: append(topItemFlags(r),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write an export to this path (CSV uses it as a base path)",
					},
					formatFlag("csv", "Export format: csv, markdown or txt"),
				),
				Action: r.TopTracks,
			},
			{
				Name:  "artists",
				Usage: "List the user's top artists",
				Flags: append(topItemFlags(r),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write an export to this path",
					},
					formatFlag("csv", "Export format: csv, markdown or txt"),
				),
				Action: r.TopArtists,
			},
		},
	}
}

// recentCommand lists recently played tracks.
func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "List recently played tracks",
		Flags: append(outputFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of plays to return (1-50)",
				Value: 50,
			},
		),
		Action: r.Recent,
	}
}

// statsCommand computes the listening statistics report.
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Compute listening statistics from top items",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to this path",
			},
			formatFlag("json", "Export format: json or markdown"),
		),
		Action: r.Stats,
	}
}

// featuresCommand builds the audio-features dataset.
func featuresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "features",
		Usage: "Build an audio-features dataset for top tracks",
		Flags: append(topItemFlags(r),
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Tracks per features request",
				Value: 10,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write CSV export to this path",
			},
		),
		Action: r.Features,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing listening data",
		Action:  r.TUI,
	}
}
