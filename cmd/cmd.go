// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func listFlags(r *Runner) []cli.Flag {
	return append([]cli.Flag{
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Number of items to fetch (1-50)",
			Value:   r.config.Client.Limit,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "Only show items whose name, artist or album contains this text",
		},
	}, outputFlags()...)
}

func rangeFlag(r *Runner) cli.Flag {
	return &cli.StringFlag{
		Name:    "range",
		Aliases: []string{"r"},
		Usage:   "Time range: short, medium or long",
		Value:   r.config.Client.TimeRange,
	}
}

func rangedFlags(r *Runner) []cli.Flag {
	return append([]cli.Flag{rangeFlag(r)}, listFlags(r)...)
}

// serveCommand runs the token exchange backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the token exchange and signup backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.host and server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the backend database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the config",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with Spotify",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "token",
				Usage: "Store an existing access token instead of running the browser flow",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored access token",
		Action: r.Logout,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show sign-in state and backend health",
		Action: r.Status,
	}
}

// topCommand lists ranked resources.
func topCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "Your most played artists and tracks",
		Commands: []*cli.Command{
			{
				Name:   "artists",
				Usage:  "Top artists",
				Flags:  rangedFlags(r),
				Action: r.TopArtists,
			},
			{
				Name:   "tracks",
				Usage:  "Top tracks",
				Flags:  rangedFlags(r),
				Action: r.TopTracks,
			},
		},
	}
}

func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "genres",
		Usage:  "Genres of your top artists",
		Flags:  rangedFlags(r),
		Action: r.Genres,
	}
}

func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "recent",
		Usage:  "Recently played tracks",
		Flags:  listFlags(r),
		Action: r.Recent,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "playlists",
		Usage:  "Your playlists",
		Flags:  listFlags(r),
		Action: r.Playlists,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of results (1-50)",
				Value:   r.config.Client.Limit,
			},
		}, outputFlags()...),
		Action: r.Search,
	}
}

func dashboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"stats"},
		Usage:   "Load everything at once and print a summary",
		Flags:   rangedFlags(r),
		Action:  r.Dashboard,
	}
}

// mineCommand manages the curated scratch list.
func mineCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "mine",
		Aliases: []string{"my-playlist"},
		Usage:   "Manage your curated track list",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Show the curated tracks",
				Flags:  outputFlags(),
				Action: r.MineList,
			},
			{
				Name:  "add",
				Usage: "Add a track by ID from your top tracks, recent plays or a search",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.MineAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a track by ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.MineRemove,
			},
			{
				Name:   "clear",
				Usage:  "Remove every track",
				Action: r.MineClear,
			},
			{
				Name:  "export",
				Usage: "Export the curated tracks to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "csv, markdown or text",
						Value: "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title written to the export",
						Value: "My Playlist",
					},
				},
				Action: r.MineExport,
			},
		},
	}
}

// signupCommand talks to the backend's pending-signup endpoints.
func signupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Request access or administer pending signups",
		Commands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "Request access for an email address",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Action: r.SignupSubmit,
			},
			{
				Name:   "list",
				Usage:  "List pending signups (administrator only)",
				Flags:  outputFlags(),
				Action: r.SignupList,
			},
			{
				Name:  "delete",
				Usage: "Delete a pending signup by ID (administrator only)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SignupDelete,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive dashboard",
		Flags:   []cli.Flag{rangeFlag(r), listFlags(r)[0]},
		Action:  r.TUI,
	}
}
