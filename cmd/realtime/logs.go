package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/rxtech-lab/argo-realtime/internal/pricelog"
)

const dateFlagLayout = "2006-01-02"

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "codes",
			Usage: "Only these codes (comma separated)",
		},
		&cli.StringFlag{
			Name:  "from",
			Usage: "First day to include, `YYYY-MM-DD`",
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "Last day to include, `YYYY-MM-DD`",
		},
		&cli.BoolFlag{
			Name:  "alerts",
			Usage: "Only records that raised an alert",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of records (0 for all)",
		},
	}
}

// queryOptions turns the query flags into pricelog options. Days are read in
// loc; "to" covers the whole day.
func queryOptions(cmd *cli.Command, loc *time.Location) (pricelog.QueryOptions, error) {
	opts := pricelog.QueryOptions{
		Codes:      ParseCodes(cmd.String("codes")),
		Start:      optional.None[time.Time](),
		End:        optional.None[time.Time](),
		AlertsOnly: cmd.Bool("alerts"),
		Limit:      0,
	}

	if from := cmd.String("from"); from != "" {
		day, err := time.ParseInLocation(dateFlagLayout, from, loc)
		if err != nil {
			return opts, fmt.Errorf("invalid --from %q: %w", from, err)
		}

		opts.Start = optional.Some(day)
	}

	if to := cmd.String("to"); to != "" {
		day, err := time.ParseInLocation(dateFlagLayout, to, loc)
		if err != nil {
			return opts, fmt.Errorf("invalid --to %q: %w", to, err)
		}

		opts.End = optional.Some(day.AddDate(0, 0, 1).Add(-time.Second))
	}

	if limit := int(cmd.Int("limit")); limit > 0 {
		opts.Limit = uint64(limit)
	}

	return opts, nil
}

func logsListAction(_ context.Context, cmd *cli.Command, app appEnv) error {
	files, err := pricelog.NewManager(app.layout.LogDir(), app.loc, logger.NewNopLogger()).List()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Fprintln(out(cmd), "No log files in", app.layout.LogDir())

		return nil
	}

	rows := make([][]string, 0, len(files))

	for _, f := range files {
		kind := "live"
		if f.Archived {
			kind = "archived"
		}

		rows = append(rows, []string{f.Date.Format(dateFlagLayout), kind, fmt.Sprintf("%d", f.Size), f.Path})
	}

	fmt.Fprintln(out(cmd), table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(HelpStyle).
		Headers("Date", "Kind", "Bytes", "Path").
		Rows(rows...).
		String())

	return nil
}

func logsQueryAction(ctx context.Context, cmd *cli.Command, app appEnv) error {
	opts, err := queryOptions(cmd, app.loc)
	if err != nil {
		return err
	}

	records, err := pricelog.NewManager(app.layout.LogDir(), app.loc, logger.NewNopLogger()).Query(ctx, opts)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(out(cmd), "No matching records")

		return nil
	}

	fmt.Fprintln(out(cmd), renderRecords(records))

	return nil
}

func logsExportAction(ctx context.Context, cmd *cli.Command, app appEnv) error {
	opts, err := queryOptions(cmd, app.loc)
	if err != nil {
		return err
	}

	output := cmd.String("output")

	n, err := pricelog.NewManager(app.layout.LogDir(), app.loc, logger.NewNopLogger()).ExportParquet(ctx, opts, output)
	if err != nil {
		return err
	}

	fmt.Fprintf(out(cmd), "Exported %d records to %s\n", n, output)

	return nil
}
