package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-realtime/internal/snapshot"
)

func latestAction(_ context.Context, cmd *cli.Command, app appEnv) error {
	w := out(cmd)

	latest, err := snapshot.ReadLatest(app.layout.LatestPath(), app.loc)
	if err != nil {
		return err
	}

	if latest.IsNone() {
		fmt.Fprintln(w, "No snapshot written yet")

		return nil
	}

	l := latest.Unwrap()
	if l.IsHeartbeat() {
		hb := l.Heartbeat.Unwrap()
		fmt.Fprintf(w, "%s  %s\n", hb.CollectedAt.Format(snapshot.TimeLayout), hb.Status)

		return nil
	}

	fmt.Fprintln(w, renderRecords(l.Records))

	return nil
}

// renderRecords draws records as a bordered table.
func renderRecords(records []snapshot.Record) string {
	rows := make([][]string, 0, len(records))

	for _, r := range records {
		rows = append(rows, []string{
			r.CollectedAt.Format(snapshot.TimeLayout),
			r.Code,
			r.Name.TakeOr(""),
			r.Price.String(),
			pctString(r),
			alertMark(r.Alert),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(HelpStyle).
		Headers("Time", "Code", "Name", "Price", "Chg %", "Alert").
		Rows(rows...).
		String()
}

func pctString(r snapshot.Record) string {
	if r.PctChange.IsNone() {
		return "-"
	}

	return r.PctChange.Unwrap().StringFixed(2)
}

func alertMark(alert bool) string {
	if alert {
		return "!"
	}

	return ""
}
