package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-realtime/internal/config"
)

func configShowAction(_ context.Context, cmd *cli.Command, app appEnv) error {
	cfg, err := config.Load(app.layout.ConfigPath())
	if err != nil {
		fmt.Fprintf(out(cmd), "Warning: %v (showing defaults)\n", err)
	}

	return printJSON(cmd, cfg)
}

func configSetAction(_ context.Context, cmd *cli.Command, app appEnv) error {
	current, err := config.Load(app.layout.ConfigPath())
	if err != nil {
		return err
	}

	raw := map[string]any{
		"tracked_codes":       current.TrackedCodes,
		"poll_interval_sec":   current.PollIntervalSec,
		"alert_threshold_pct": current.AlertThresholdPct,
		"retention_days":      current.RetentionDays,
	}

	codes := current.TrackedCodes
	if cmd.IsSet("codes") {
		codes = ParseCodes(cmd.String("codes"))
	}

	codes = mergeCodes(codes, ParseCodes(cmd.String("add")), ParseCodes(cmd.String("remove")))
	raw["tracked_codes"] = codes

	if cmd.IsSet("interval") {
		raw["poll_interval_sec"] = int(cmd.Int("interval"))
	}

	if cmd.IsSet("threshold") {
		raw["alert_threshold_pct"] = cmd.Float("threshold")
	}

	if cmd.IsSet("retention") {
		raw["retention_days"] = int(cmd.Int("retention"))
	}

	saved, err := config.SaveRaw(app.layout.ConfigPath(), raw)
	if err != nil {
		return err
	}

	if saved.PollIntervalSec < config.MinPollIntervalSec {
		fmt.Fprintf(out(cmd), "Note: poll interval %ds is raised to %ds at runtime\n",
			saved.PollIntervalSec, config.MinPollIntervalSec)
	}

	return printJSON(cmd, saved)
}

func configSchemaAction(_ context.Context, cmd *cli.Command, _ appEnv) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}

	fmt.Fprintln(out(cmd), schema)

	return nil
}

// ParseCodes splits a comma separated list of instrument codes.
// Blank entries and repeats are dropped; order is kept.
func ParseCodes(input string) []string {
	codes := []string{}

	for _, part := range strings.Split(input, ",") {
		code := strings.TrimSpace(part)
		if code == "" || slices.Contains(codes, code) {
			continue
		}

		codes = append(codes, code)
	}

	return codes
}

// mergeCodes appends add to codes and then drops remove, keeping order and uniqueness.
func mergeCodes(codes, add, remove []string) []string {
	merged := make([]string, 0, len(codes)+len(add))

	for _, code := range append(slices.Clone(codes), add...) {
		if slices.Contains(merged, code) || slices.Contains(remove, code) {
			continue
		}

		merged = append(merged, code)
	}

	return merged
}

func printJSON(cmd *cli.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	fmt.Fprintln(out(cmd), string(data))

	return nil
}
