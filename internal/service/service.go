// Package service runs the polling loop.
//
// The loop is strictly sequential. Each iteration re-reads config.json and
// control.json, then either stops, sleeps briefly while paused, polls the
// snapshot provider during trading hours, or writes an off-hours heartbeat.
// It publishes service_status.json once per iteration and then sleeps the full
// poll interval, so the period is processing time plus the interval.
//
// Coordination with other processes is file based and lock free: external
// writers replace config.json and control.json atomically and the loop picks
// the change up at the top of the next iteration. Last write wins.
package service

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-realtime/internal/config"
	"github.com/rxtech-lab/argo-realtime/internal/control"
	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/rxtech-lab/argo-realtime/internal/pricelog"
	"github.com/rxtech-lab/argo-realtime/internal/snapshot"
	"github.com/rxtech-lab/argo-realtime/internal/status"
	"github.com/rxtech-lab/argo-realtime/internal/tradingtime"
	"github.com/rxtech-lab/argo-realtime/internal/version"
	"github.com/rxtech-lab/argo-realtime/pkg/errors"
	"github.com/rxtech-lab/argo-realtime/pkg/marketdata/provider"
)

const (
	// DefaultPauseSleep is how long a paused loop waits before re-reading control.json.
	DefaultPauseSleep = 2 * time.Second
	// DefaultBackoff is the extra wait after a transient poll failure.
	DefaultBackoff = 5 * time.Second
)

// Options configures a Service. Provider is required; everything else has a default.
type Options struct {
	Layout    Layout
	Provider  provider.SnapshotProvider
	Calendar  tradingtime.Predicate
	Clock     Clock
	Sleeper   Sleeper
	Logger    *logger.Logger
	Location  *time.Location
	Version   string
	PID       int
	Callbacks Callbacks

	PauseSleep time.Duration
	Backoff    time.Duration
}

// Service is the scheduler loop and the state it reports.
type Service struct {
	layout    Layout
	provider  provider.SnapshotProvider
	calendar  tradingtime.Predicate
	clock     Clock
	sleeper   Sleeper
	log       *logger.Logger
	callbacks Callbacks

	control  *control.Channel
	reporter *status.Reporter
	logs     *pricelog.Manager

	pauseSleep time.Duration
	backoff    time.Duration
	version    string
	pid        int
	runID      string

	cfg          config.ServiceConfig
	startTime    time.Time
	workStart    time.Time
	lastPollTime *time.Time
	errorCount   int
	lastError    string
}

// step is the outcome of one iteration.
type step struct {
	phase   status.Phase
	trading bool
	paused  bool
	stop    bool
}

// New creates a Service from opts.
func New(opts Options) (*Service, error) {
	if opts.Provider == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "snapshot provider is required")
	}

	if opts.Layout.Dir == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "data directory is required")
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Service{
		layout:     opts.Layout,
		provider:   opts.Provider,
		calendar:   opts.Calendar,
		clock:      opts.Clock,
		sleeper:    opts.Sleeper,
		log:        log,
		callbacks:  opts.Callbacks,
		control:    control.NewChannel(opts.Layout.ControlPath(), log),
		reporter:   status.NewReporter(opts.Layout.StatusPath(), log),
		logs:       pricelog.NewManager(opts.Layout.LogDir(), loc, log),
		pauseSleep: opts.PauseSleep,
		backoff:    opts.Backoff,
		version:    opts.Version,
		pid:        opts.PID,
		runID:      uuid.New().String(),
		cfg:        config.Default(),
	}

	if s.calendar == nil {
		s.calendar = tradingtime.NewCalendar(loc)
	}

	if s.clock == nil {
		s.clock = systemClock{loc: loc}
	}

	if s.sleeper == nil {
		s.sleeper = timerSleeper{}
	}

	if s.pauseSleep <= 0 {
		s.pauseSleep = DefaultPauseSleep
	}

	if s.backoff <= 0 {
		s.backoff = DefaultBackoff
	}

	if s.version == "" {
		s.version = version.GetVersion()
	}

	if s.pid == 0 {
		s.pid = os.Getpid()
	}

	return s, nil
}

// RunID identifies this run in the status file.
func (s *Service) RunID() string {
	return s.runID
}

// Run loops until control.json requests a stop or ctx ends. Iteration
// failures are counted in the status file and never end the loop. It returns
// ctx.Err() when the context ended the loop and nil on a requested stop.
func (s *Service) Run(ctx context.Context) error {
	return s.run(ctx, false)
}

// RunOnce runs a single iteration without the trailing interval sleep.
// A paused service returns right after publishing its status.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.run(ctx, true)
}

func (s *Service) run(ctx context.Context, once bool) (runErr error) {
	s.startTime = s.clock.Now()
	s.reloadConfig()

	s.log.Info("Realtime service started",
		zap.String("run_id", s.runID),
		zap.String("provider", s.provider.Name()),
		zap.String("data_dir", s.layout.Dir),
		zap.Int("tracked", len(s.cfg.TrackedCodes)),
		zap.Bool("once", once),
	)

	defer func() {
		if s.callbacks.OnServiceStop != nil {
			(*s.callbacks.OnServiceStop)(runErr)
		}
	}()

	if s.callbacks.OnServiceStart != nil {
		if err := (*s.callbacks.OnServiceStart)(s.runID); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			s.shutdown(false)

			return err
		}

		result := s.iterate(ctx)

		if result.stop {
			s.log.Info("Stop requested, realtime service exiting", zap.String("run_id", s.runID))

			return nil
		}

		if once {
			return nil
		}

		wait := s.cfg.PollInterval()
		if result.paused {
			wait = s.pauseSleep
		}

		if err := s.sleeper.Sleep(ctx, wait); err != nil {
			s.shutdown(false)

			return err
		}
	}
}

// iterate runs steps 1 to 5 of the loop: read control, branch, work, publish.
func (s *Service) iterate(ctx context.Context) step {
	now := s.clock.Now()
	s.reloadConfig()
	ctrl := s.control.Get()

	if ctrl.Stop {
		s.shutdown(true)

		return step{phase: status.PhaseStopped, trading: false, paused: ctrl.Paused, stop: true}
	}

	trading := s.calendar.IsOpen(now)

	if ctrl.Paused {
		result := step{phase: status.PhasePaused, trading: trading, paused: true, stop: false}
		s.publish(result)

		return result
	}

	s.workStart = now

	if !trading || len(s.cfg.TrackedCodes) == 0 {
		if err := snapshot.WriteHeartbeat(s.layout.LatestPath(), snapshot.NewHeartbeat(now)); err != nil {
			s.log.Warn("Failed to write heartbeat", zap.String("path", s.layout.LatestPath()), zap.Error(err))
		}

		result := step{phase: status.PhaseRunningIdle, trading: trading, paused: false, stop: false}
		s.publish(result)

		return result
	}

	if err := s.poll(ctx, now); err != nil {
		s.recordError(err)

		if errors.IsTransient(err) {
			if sleepErr := s.sleeper.Sleep(ctx, s.backoff); sleepErr != nil {
				s.log.Debug("Backoff interrupted", zap.Error(sleepErr))
			}
		}
	}

	result := step{phase: status.PhaseRunningPoll, trading: trading, paused: false, stop: false}
	s.publish(result)

	return result
}

// poll fetches, normalizes and persists one snapshot. An answer without any
// tracked instrument leaves the latest file and the log untouched.
func (s *Service) poll(ctx context.Context, now time.Time) error {
	codes := s.cfg.TrackedCodes

	table, err := s.provider.Snapshot(ctx, codes)
	if err != nil {
		return err
	}

	records := snapshot.Normalize(table, codes, s.cfg.AlertThresholdPct, now)
	if len(records) == 0 {
		s.log.Debug("Poll returned no tracked instruments",
			zap.String("provider", s.provider.Name()),
			zap.Int("rows", len(table.Rows)),
		)

		return nil
	}

	if err := snapshot.WriteLatest(s.layout.LatestPath(), records); err != nil {
		return err
	}

	if err := s.logs.Append(records, now, s.cfg.RetentionDays); err != nil {
		return err
	}

	polledAt := now
	s.lastPollTime = &polledAt

	for _, r := range snapshot.Alerts(records) {
		s.log.Warn("Price alert",
			zap.String("code", r.Code),
			zap.String("price", r.Price.String()),
			zap.String("pct_change", r.PctChange.Unwrap().String()),
			zap.Float64("threshold_pct", s.cfg.AlertThresholdPct),
		)

		if s.callbacks.OnAlert != nil {
			(*s.callbacks.OnAlert)(r)
		}
	}

	if s.callbacks.OnSnapshot != nil {
		(*s.callbacks.OnSnapshot)(records)
	}

	return nil
}

func (s *Service) recordError(err error) {
	s.errorCount++
	s.lastError = err.Error()

	s.log.Warn("Poll failed",
		zap.String("provider", s.provider.Name()),
		zap.Bool("transient", errors.IsTransient(err)),
		zap.Int("error_count", s.errorCount),
		zap.Error(err),
	)

	if s.callbacks.OnError != nil {
		(*s.callbacks.OnError)(err)
	}
}

// reloadConfig re-reads config.json. A corrupt file keeps the last good value.
func (s *Service) reloadConfig() {
	cfg, err := config.Load(s.layout.ConfigPath())
	if err != nil {
		s.log.Warn("Config unreadable, keeping previous values",
			zap.String("path", s.layout.ConfigPath()),
			zap.Error(err),
		)

		return
	}

	s.cfg = cfg
}

// shutdown publishes the final status. requested marks a control file stop
// as opposed to a cancelled context.
func (s *Service) shutdown(requested bool) {
	s.publish(step{phase: status.PhaseStopped, trading: false, paused: false, stop: requested})
}

func (s *Service) publish(result step) {
	now := s.clock.Now()
	running := result.phase != status.PhaseStopped

	st := status.ServiceStatus{
		Running:       running,
		PID:           s.pid,
		StartTime:     s.startTime,
		LastPollTime:  s.lastPollTime,
		ProgressPct:   status.ProgressPct(s.workStart, now, s.cfg.PollInterval()),
		ErrorCount:    s.errorCount,
		Trading:       result.trading,
		Paused:        result.paused,
		StopRequested: result.stop,
		RunID:         s.runID,
		Version:       s.version,
		State:         result.phase,
		LastError:     s.lastError,
		TrackedCount:  len(s.cfg.TrackedCodes),
		UpdatedAt:     now,
	}

	if err := s.reporter.Publish(st); err != nil {
		s.log.Warn("Failed to publish status", zap.String("path", s.reporter.Path()), zap.Error(err))
	}

	if s.callbacks.OnStatusUpdate != nil {
		(*s.callbacks.OnStatusUpdate)(st)
	}
}
