package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-realtime/internal/env"
	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/rxtech-lab/argo-realtime/internal/service"
	"github.com/rxtech-lab/argo-realtime/internal/version"
	"github.com/rxtech-lab/argo-realtime/pkg/marketdata/provider"
)

// appEnv is what every command needs: where the files live and how to read timestamps.
type appEnv struct {
	settings env.Settings
	layout   service.Layout
	loc      *time.Location
}

// loadAppEnv applies the global flags over the environment settings.
func loadAppEnv(cmd *cli.Command, settings env.Settings) (appEnv, error) {
	settings.DataDir = cmd.String("data-dir")
	settings.Provider = cmd.String("provider")
	settings.Timezone = cmd.String("timezone")
	settings.LogLevel = cmd.String("log-level")

	loc, err := settings.Location()
	if err != nil {
		return appEnv{}, err
	}

	return appEnv{
		settings: settings,
		layout:   service.NewLayout(settings.DataDir),
		loc:      loc,
	}, nil
}

// newLogger builds the service logger at the configured level.
func (a appEnv) newLogger() (*logger.Logger, error) {
	return logger.NewLoggerWithLevel(a.settings.LogLevel)
}

// out returns the writer commands print to.
func out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}

// newApp builds the command tree. Flag defaults come from settings so that
// ARGO_RT_* variables and .env apply unless a flag overrides them.
func newApp(settings env.Settings) *cli.Command {
	// action binds an appEnv-aware handler to a cli action.
	action := func(fn func(ctx context.Context, cmd *cli.Command, app appEnv) error) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			app, err := loadAppEnv(cmd, settings)
			if err != nil {
				return err
			}

			return fn(ctx, cmd, app)
		}
	}

	return &cli.Command{
		Name:    "realtime",
		Usage:   "Poll market snapshots during trading hours and manage the polling service",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding config, control, status, latest snapshot and logs",
				Value:   settings.DataDir,
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage: fmt.Sprintf("Snapshot provider (%s, %s, %s)",
					provider.ProviderSina, provider.ProviderBinance, provider.ProviderPolygon),
				Value: settings.Provider,
			},
			&cli.StringFlag{
				Name:  "timezone",
				Usage: "IANA timezone used for trading hours and log dates",
				Value: settings.Timezone,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Service log level (debug, info, warn, error)",
				Value: settings.LogLevel,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the polling loop in the foreground",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run a single iteration and exit",
					},
				},
				Action: action(runAction),
			},
			{
				Name:  "start",
				Usage: "Clear pause and stop flags, then launch the polling loop",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "foreground",
						Usage: "Run in this process instead of spawning a background one",
					},
				},
				Action: action(startAction),
			},
			{
				Name:   "stop",
				Usage:  "Ask the running loop to exit at its next iteration",
				Action: action(controlAction(verbStop)),
			},
			{
				Name:   "pause",
				Usage:  "Pause polling",
				Action: action(controlAction(verbPause)),
			},
			{
				Name:   "resume",
				Usage:  "Resume a paused loop",
				Action: action(controlAction(verbResume)),
			},
			{
				Name:  "status",
				Usage: "Show the last published service status",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the raw status as JSON",
					},
				},
				Action: action(statusAction),
			},
			{
				Name:  "config",
				Usage: "Inspect or change config.json",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: action(configShowAction),
					},
					{
						Name:  "set",
						Usage: "Change configuration values",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "codes",
								Usage: "Replace tracked codes (comma separated)",
							},
							&cli.StringFlag{
								Name:  "add",
								Usage: "Codes to add (comma separated)",
							},
							&cli.StringFlag{
								Name:  "remove",
								Usage: "Codes to remove (comma separated)",
							},
							&cli.IntFlag{
								Name:  "interval",
								Usage: "Poll interval in seconds (values below 30 act as 30)",
							},
							&cli.FloatFlag{
								Name:  "threshold",
								Usage: "Absolute percent change that raises an alert",
							},
							&cli.IntFlag{
								Name:  "retention",
								Usage: "Days to keep compressed logs",
							},
						},
						Action: action(configSetAction),
					},
					{
						Name:   "schema",
						Usage:  "Print the JSON schema of config.json",
						Action: action(configSchemaAction),
					},
				},
			},
			{
				Name:   "latest",
				Usage:  "Print the latest snapshot or heartbeat",
				Action: action(latestAction),
			},
			{
				Name:  "logs",
				Usage: "Browse the daily price logs",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List live and archived log files",
						Action: action(logsListAction),
					},
					{
						Name:   "query",
						Usage:  "Query logged records",
						Flags:  queryFlags(),
						Action: action(logsQueryAction),
					},
					{
						Name:  "export",
						Usage: "Export logged records to a parquet file",
						Flags: append(queryFlags(), &cli.StringFlag{
							Name:     "output",
							Aliases:  []string{"o"},
							Usage:    "Parquet file to write",
							Required: true,
						}),
						Action: action(logsExportAction),
					},
				},
			},
			{
				Name:  "watch",
				Usage: "Monitor status and latest quotes in the terminal",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "refresh",
						Usage: "How often to re-read the status and latest files",
						Value: 2 * time.Second,
					},
				},
				Action: action(watchAction),
			},
		},
	}
}

func main() {
	settings, err := env.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := newApp(settings).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
