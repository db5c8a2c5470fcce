package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"docketsocket/internal/history"
	"docketsocket/internal/run"
)

func main() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to the YAML configuration file",
		Value:   "config.yaml",
	}
	quietFlag := &cli.BoolFlag{
		Name:  "quiet",
		Usage: "only log errors",
	}

	app := &cli.App{
		Name:  "docketsocket",
		Usage: "download, package, and deliver public docket records",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "download one docket and stage the packaged archive",
				ArgsUsage: "<docket-id>",
				Flags: []cli.Flag{
					configFlag,
					quietFlag,
					&cli.StringFlag{
						Name:    "categories",
						Aliases: []string{"t"},
						Usage:   "comma-separated categories: primary, supporting, comments",
						Value:   "primary,supporting,comments",
					},
					&cli.StringFlag{
						Name:     "requester",
						Aliases:  []string{"r"},
						Usage:    "email address that receives the completion notice",
						Required: true,
					},
				},
				Action: run.RunAction,
			},
			{
				Name:      "check",
				Usage:     "report how many records a docket holds",
				ArgsUsage: "<docket-id>",
				Flags:     []cli.Flag{configFlag, quietFlag},
				Action:    run.CheckAction,
			},
			{
				Name:  "history",
				Usage: "list past runs from the run registry",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:  "docket",
						Usage: "only show runs for this docket ID",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "maximum runs to show (0 = all)",
						Value: 20,
					},
				},
				Action: history.HistoryAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
