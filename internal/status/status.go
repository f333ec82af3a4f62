// Package status publishes the lifecycle snapshot of the polling service.
//
// The scheduler loop is the only writer of service_status.json and rewrites it
// once per iteration. External observers read it; the loop itself never does.
package status

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-realtime/internal/atomicfile"
	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/rxtech-lab/argo-realtime/pkg/errors"
	"go.uber.org/zap"
)

// Phase is the scheduler state recorded with each status write.
type Phase string

const (
	PhaseRunningPoll Phase = "running_poll"
	PhaseRunningIdle Phase = "running_idle"
	PhasePaused      Phase = "paused"
	PhaseStopped     Phase = "stopped"
)

// ServiceStatus is the persisted lifecycle snapshot.
type ServiceStatus struct {
	Running       bool       `json:"running" yaml:"running"`
	PID           int        `json:"pid" yaml:"pid"`
	StartTime     time.Time  `json:"start_time" yaml:"start_time"`
	LastPollTime  *time.Time `json:"last_poll_time" yaml:"last_poll_time"`
	ProgressPct   float64    `json:"progress_pct" yaml:"progress_pct"`
	ErrorCount    int        `json:"error_count" yaml:"error_count"`
	Trading       bool       `json:"trading" yaml:"trading"`
	Paused        bool       `json:"paused" yaml:"paused"`
	StopRequested bool       `json:"stop_requested" yaml:"stop_requested"`

	RunID        string    `json:"run_id" yaml:"run_id"`
	Version      string    `json:"version" yaml:"version"`
	State        Phase     `json:"state" yaml:"state"`
	LastError    string    `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	TrackedCount int       `json:"tracked_count" yaml:"tracked_count"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// Describe summarises the status for observers: "stopped" when a stop was
// requested or the loop is not running, "paused" when paused, else "running".
func (s ServiceStatus) Describe() string {
	if s.StopRequested || !s.Running {
		return "stopped"
	}

	if s.Paused {
		return "paused"
	}

	return "running"
}

// Uptime returns how long the service has been running as of now.
func (s ServiceStatus) Uptime(now time.Time) time.Duration {
	if s.StartTime.IsZero() || now.Before(s.StartTime) {
		return 0
	}

	return now.Sub(s.StartTime)
}

// ProgressPct is the share of interval elapsed since workStart, in percent,
// clamped to [0, 100].
func ProgressPct(workStart, now time.Time, interval time.Duration) float64 {
	if interval <= 0 || workStart.IsZero() {
		return 0
	}

	pct := float64(now.Sub(workStart)) / float64(interval) * 100
	pct = math.Max(0, math.Min(100, pct))

	return math.Round(pct*100) / 100
}

// Reporter writes and reads the status file.
type Reporter struct {
	path string
	log  *logger.Logger
}

// NewReporter creates a Reporter backed by the file at path.
func NewReporter(path string, log *logger.Logger) *Reporter {
	return &Reporter{
		path: path,
		log:  log,
	}
}

// Path returns the status file location.
func (r *Reporter) Path() string {
	return r.path
}

// Publish replaces the status file with status.
func (r *Reporter) Publish(status ServiceStatus) error {
	if err := atomicfile.WriteJSON(r.path, status); err != nil {
		return errors.Wrap(errors.ErrCodeStatusWriteFailed, "failed to publish service status", err)
	}

	return nil
}

// Read returns the last published status, or None when the file is missing or
// unreadable.
func (r *Reporter) Read() optional.Option[ServiceStatus] {
	var status ServiceStatus

	found, err := atomicfile.ReadJSON(r.path, &status)
	if err != nil {
		r.log.Warn("Status file unreadable",
			zap.String("path", r.path),
			zap.Error(err),
		)

		return optional.None[ServiceStatus]()
	}

	if !found {
		return optional.None[ServiceStatus]()
	}

	return optional.Some(status)
}
