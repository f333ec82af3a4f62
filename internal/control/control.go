// Package control implements the file-based control plane of the polling service.
//
// Any external process may write control.json at any time; the scheduler loop
// re-reads it at the top of every iteration. There are no locks: the last writer
// wins, and a reader always sees a complete old or new state because every write
// goes through the atomic store. Changes are observed with at most one
// iteration of latency.
package control

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-realtime/internal/atomicfile"
	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/rxtech-lab/argo-realtime/pkg/errors"
	"go.uber.org/zap"
)

// State is the persisted lifecycle flag set.
type State struct {
	Paused bool `json:"paused" yaml:"paused"`
	Stop   bool `json:"stop" yaml:"stop"`
}

// Update carries the fields to change; None leaves the persisted value as is.
type Update struct {
	Paused optional.Option[bool]
	Stop   optional.Option[bool]
}

// Predefined updates issued by the control verbs.
var (
	// StartUpdate clears both flags before a service launch.
	StartUpdate = Update{Paused: optional.Some(false), Stop: optional.Some(false)}
	// StopUpdate requests a graceful stop and leaves paused untouched.
	StopUpdate = Update{Paused: optional.None[bool](), Stop: optional.Some(true)}
	// PauseUpdate pauses the loop.
	PauseUpdate = Update{Paused: optional.Some(true), Stop: optional.Some(false)}
	// ResumeUpdate resumes a paused loop.
	ResumeUpdate = Update{Paused: optional.Some(false), Stop: optional.Some(false)}
)

// Channel reads and writes the control file.
type Channel struct {
	path string
	log  *logger.Logger
}

// NewChannel creates a Channel backed by the file at path.
func NewChannel(path string, log *logger.Logger) *Channel {
	return &Channel{
		path: path,
		log:  log,
	}
}

// Path returns the control file location.
func (c *Channel) Path() string {
	return c.path
}

// Get returns the persisted state. A missing or unparseable file yields the
// zero State; Get never fails.
func (c *Channel) Get() State {
	var state State

	found, err := atomicfile.ReadJSON(c.path, &state)
	if err != nil {
		c.log.Warn("Control file unreadable, using defaults",
			zap.String("path", c.path),
			zap.Error(err),
		)

		return State{}
	}

	if !found {
		return State{}
	}

	return state
}

// Set merges update over the persisted state and writes the result.
// Fields left as None keep their current value.
func (c *Channel) Set(update Update) (State, error) {
	state := c.Get()

	if update.Paused.IsSome() {
		state.Paused = update.Paused.Unwrap()
	}

	if update.Stop.IsSome() {
		state.Stop = update.Stop.Unwrap()
	}

	if err := atomicfile.WriteJSON(c.path, state); err != nil {
		return State{}, errors.Wrap(errors.ErrCodeControlWriteFailed, "failed to write control state", err)
	}

	c.log.Debug("Control state updated",
		zap.Bool("paused", state.Paused),
		zap.Bool("stop", state.Stop),
	)

	return state, nil
}
