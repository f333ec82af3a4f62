package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-realtime/internal/control"
	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/rxtech-lab/argo-realtime/internal/service"
	"github.com/rxtech-lab/argo-realtime/internal/snapshot"
	"github.com/rxtech-lab/argo-realtime/internal/status"
	"github.com/rxtech-lab/argo-realtime/internal/version"
	"github.com/rxtech-lab/argo-realtime/pkg/marketdata/provider"
)

// backgroundLogFile receives stdout and stderr of a service launched by start.
const backgroundLogFile = "service.out"

// newService wires the configured provider into a Service.
func newService(app appEnv, log *logger.Logger, callbacks service.Callbacks) (*service.Service, error) {
	snapshotProvider, err := provider.NewSnapshotProvider(app.settings.ProviderType(), app.settings.ProviderConfig())
	if err != nil {
		return nil, err
	}

	return service.New(service.Options{
		Layout:    app.layout,
		Provider:  snapshotProvider,
		Location:  app.loc,
		Logger:    log,
		Version:   version.GetVersion(),
		Callbacks: callbacks,
	})
}

// printingCallbacks reports the loop's progress on w.
func printingCallbacks(w io.Writer) service.Callbacks {
	onStart := service.OnServiceStartCallback(func(runID string) error {
		fmt.Fprintf(w, "Service started: run_id=%s\n", runID)

		return nil
	})

	onStop := service.OnServiceStopCallback(func(err error) {
		if err != nil {
			fmt.Fprintf(w, "Service stopped: %v\n", err)
		} else {
			fmt.Fprintln(w, "Service stopped")
		}
	})

	onSnapshot := service.OnSnapshotCallback(func(records []snapshot.Record) {
		fmt.Fprintf(w, "Polled %d instruments\n", len(records))
	})

	onAlert := service.OnAlertCallback(func(record snapshot.Record) {
		fmt.Fprintf(w, "ALERT %s %s %s%%\n", record.Code, record.Price.String(), pctString(record))
	})

	onError := service.OnErrorCallback(func(err error) {
		fmt.Fprintf(w, "Error: %v\n", err)
	})

	return service.Callbacks{
		OnServiceStart: &onStart,
		OnServiceStop:  &onStop,
		OnSnapshot:     &onSnapshot,
		OnAlert:        &onAlert,
		OnError:        &onError,
		OnStatusUpdate: nil,
	}
}

func runAction(ctx context.Context, cmd *cli.Command, app appEnv) error {
	return runService(ctx, cmd, app, cmd.Bool("once"))
}

// runService runs the loop in this process until a stop request, a signal or,
// with once, the end of the first iteration.
func runService(ctx context.Context, cmd *cli.Command, app appEnv, once bool) error {
	log, err := app.newLogger()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	w := out(cmd)

	svc, err := newService(app, log, printingCallbacks(w))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(w, "\nReceived interrupt signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if once {
		err = svc.RunOnce(ctx)
	} else {
		err = svc.Run(ctx)
	}

	if err != nil && ctx.Err() != nil {
		// Interrupted by a signal. The loop already published running=false.
		return nil
	}

	return err
}

func startAction(ctx context.Context, cmd *cli.Command, app appEnv) error {
	channel := control.NewChannel(app.layout.ControlPath(), logger.NewNopLogger())
	if _, err := channel.Set(control.StartUpdate); err != nil {
		return err
	}

	if existing := status.NewReporter(app.layout.StatusPath(), logger.NewNopLogger()).Read(); existing.IsSome() {
		if st := existing.Unwrap(); st.Running && !st.StopRequested {
			fmt.Fprintf(out(cmd), "Warning: status reports pid %d still running\n", st.PID)
		}
	}

	if cmd.Bool("foreground") {
		return runService(ctx, cmd, app, false)
	}

	pid, err := spawnBackground(app)
	if err != nil {
		return err
	}

	fmt.Fprintf(out(cmd), "Service launched in background (pid %d), output in %s\n",
		pid, filepath.Join(app.layout.Dir, backgroundLogFile))

	return nil
}

// spawnBackground re-executes this binary with "run" and detaches from it.
func spawnBackground(app appEnv) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to locate executable: %w", err)
	}

	if err := os.MkdirAll(app.layout.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create data dir: %w", err)
	}

	logFile, err := os.OpenFile(filepath.Join(app.layout.Dir, backgroundLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open service output: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(executable, backgroundArgs(app.settings.DataDir, app.settings.Provider, app.settings.Timezone, app.settings.LogLevel)...) //nolint:gosec // re-executes this binary
	child.Stdout = logFile
	child.Stderr = logFile
	child.Stdin = nil

	if err := child.Start(); err != nil {
		return 0, fmt.Errorf("failed to launch service: %w", err)
	}

	pid := child.Process.Pid

	if err := child.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to detach service: %w", err)
	}

	return pid, nil
}

// backgroundArgs forwards the global flags to the spawned run command.
func backgroundArgs(dataDir, providerName, timezone, logLevel string) []string {
	return []string{
		"--data-dir", dataDir,
		"--provider", providerName,
		"--timezone", timezone,
		"--log-level", logLevel,
		"run",
	}
}
