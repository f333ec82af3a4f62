package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/rxtech-lab/argo-realtime/internal/status"
	"github.com/rxtech-lab/argo-realtime/internal/version"
)

func statusAction(_ context.Context, cmd *cli.Command, app appEnv) error {
	w := out(cmd)

	current := status.NewReporter(app.layout.StatusPath(), logger.NewNopLogger()).Read()
	if current.IsNone() {
		fmt.Fprintln(w, "No status published yet: the service has never run in", app.layout.Dir)

		return nil
	}

	st := current.Unwrap()

	if cmd.Bool("json") {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}

		fmt.Fprintln(w, string(data))

		return nil
	}

	return printStatus(w, st, time.Now().In(app.loc))
}

// printStatus renders a status summary, the YAML document and the interval progress.
func printStatus(w io.Writer, st status.ServiceStatus, now time.Time) error {
	fmt.Fprintf(w, "Service: %s\n", st.Describe())

	if st.Running {
		fmt.Fprintf(w, "Uptime: %s\n", st.Uptime(now).Truncate(time.Second))
	}

	if err := version.CheckCompatibility(st.Version, version.GetVersion()); err != nil {
		fmt.Fprintf(w, "Warning: %v\n", err)
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprint(w, string(data))

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Interval"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetRenderBlankState(true),
	)

	if err := bar.Set(int(st.ProgressPct)); err != nil {
		return fmt.Errorf("failed to render progress: %w", err)
	}

	fmt.Fprintln(w)

	return nil
}
