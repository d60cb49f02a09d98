// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/lectures/internal/formatter"
	"github.com/urfave/cli/v3"
)

// serveCommand runs the web application
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the lecture catalog web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides config and PORT)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the site in the default browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles database & account bootstrap.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and bootstrap commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create config.toml if missing and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "admin",
				Usage: "Create the admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account username",
						Value:   defaultAdminUsername,
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "Account password (defaults to an insecure placeholder)",
					},
				},
				Action: r.SetupAdmin,
			},
			{
				Name:  "password",
				Usage: "Change an account's password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account username",
						Value:   defaultAdminUsername,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "New password",
						Required: true,
					},
				},
				Action: r.SetupPassword,
			},
		},
	}
}

// catalogCommand handles bulk data operations
func catalogCommand(r *Runner) *cli.Command {
	formats := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		formats[i] = string(f)
	}

	return &cli.Command{
		Name:  "catalog",
		Usage: "Export, import & reset catalog data",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export every lecture and taxonomy term",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   fmt.Sprintf("Output format (%s)", strings.Join(formats, ", ")),
						Value:   string(formatter.FormatJSON),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (json, text), base name (csv) or directory (markdown); stdout when empty",
					},
					&cli.BoolFlag{
						Name:  "thumbnails",
						Usage: "Download thumbnails alongside a markdown export",
					},
				},
				Action: r.CatalogExport,
			},
			{
				Name:  "import",
				Usage: "Import a snapshot JSON file, reusing existing terms and skipping known videos",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the result as JSON",
					},
				},
				Action: r.CatalogImport,
			},
			{
				Name:  "reset",
				Usage: "Delete all lectures and terms, saving a snapshot first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Snapshot path (default: reset-<timestamp>.json)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Confirm deletion",
					},
				},
				Action: r.CatalogReset,
			},
			{
				Name:  "stats",
				Usage: "Show catalog counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CatalogStats,
			},
		},
	}
}

// browseCommand returns the top-level TUI command for browsing the catalog.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Browse & search lectures in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the UI owns the terminal",
				Value: "./tmp/lectures-tui.log",
			},
		},
		Action: r.Browse,
	}
}
