package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	cacheact "github.com/gamelens/gamelens/internal/cache"
	dbact "github.com/gamelens/gamelens/internal/db"
	detectact "github.com/gamelens/gamelens/internal/detect"
	fetchact "github.com/gamelens/gamelens/internal/fetch"
	routeact "github.com/gamelens/gamelens/internal/route"
	validateact "github.com/gamelens/gamelens/internal/validate"
)

func main() {
	app := &cli.App{
		Name:  "gamelens",
		Usage: "Detect storefront game pages and enrich them with completion times",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
			&cli.StringFlag{Name: "config", Usage: "YAML config file"},
		},
		Commands: []*cli.Command{
			{
				Name:   "detect",
				Usage:  "Classify a page and extract its game entity",
				Action: detectact.DetectAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "Page URL (required)"},
					&cli.StringFlag{Name: "file", Usage: "Read HTML from this file instead of fetching"},
					&cli.BoolFlag{Name: "no-wait", Usage: "Skip the content stability gate"},
				},
			},
			{
				Name:   "session",
				Usage:  "Run a full page pass and print the enriched document",
				Action: detectact.SessionAction,
				Flags:  append(pipelineFlags(),
					&cli.StringFlag{Name: "url", Usage: "Page URL (required)"},
					&cli.StringFlag{Name: "file", Usage: "Read HTML from this file instead of fetching"},
				),
			},
			{
				Name:   "fetch",
				Usage:  "Look up completion data for one title",
				Action: fetchact.FetchAction,
				Flags: append(pipelineFlags(),
					&cli.StringFlag{Name: "title", Usage: "Game title (required)"},
					&cli.StringFlag{Name: "app-id", Usage: "Storefront app id"},
				),
			},
			{
				Name:   "batch",
				Usage:  "Look up completion data for many titles from a YAML file",
				Action: fetchact.BatchAction,
				Flags: append(pipelineFlags(),
					&cli.StringFlag{Name: "input", Usage: "YAML file of {title, app_id} entries (required)"},
				),
			},
			{
				Name:  "cache",
				Usage: "Inspect or clear the completion-data cache",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Print cache counters",
						Action: cacheact.StatsAction,
						Flags:  pipelineFlags(),
					},
					{
						Name:   "clear",
						Usage:  "Drop every cached entry",
						Action: cacheact.ClearAction,
						Flags:  pipelineFlags(),
					},
				},
			},
			{
				Name:  "db",
				Usage: "Manage the local games database",
				Subcommands: []*cli.Command{
					{
						Name:   "info",
						Usage:  "Print database statistics",
						Action: dbact.InfoAction,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "db", Usage: "SQLite games database (required)"},
						},
					},
					{
						Name:   "import",
						Usage:  "Import game records from a YAML file",
						Action: dbact.ImportAction,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "db", Usage: "SQLite games database (required)"},
							&cli.StringFlag{Name: "input", Usage: "YAML file of game records (required)"},
						},
					},
				},
			},
			{
				Name:   "validate",
				Usage:  "Run synthetic detection scenarios against performance thresholds",
				Action: validateact.ValidateAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Usage: "Write the YAML report here instead of stdout"},
					&cli.DurationFlag{Name: "max-avg-detection", Usage: "Average detection budget"},
					&cli.DurationFlag{Name: "max-detection", Usage: "Worst-case detection budget"},
				},
			},
			{
				Name:   "route",
				Usage:  "Dispatch one {action, payload} request through the message router",
				Action: routeact.RouteAction,
				Flags: append(pipelineFlags(),
					&cli.StringFlag{Name: "request", Usage: "Request JSON (reads stdin when omitted)"},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// pipelineFlags are shared by every command that assembles the full
// detect/fetch pipeline.
func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "db", Usage: "SQLite games database to resolve titles against"},
		&cli.StringFlag{Name: "scraper-url", Usage: "Completion-time search endpoint for titles missing locally"},
		&cli.StringFlag{Name: "store", Usage: "SQLite file for persisted cache and settings (in-memory when omitted)"},
		&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "HTTP fetch timeout"},
	}
}
