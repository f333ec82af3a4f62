package main

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-realtime/internal/control"
	"github.com/rxtech-lab/argo-realtime/internal/snapshot"
	"github.com/rxtech-lab/argo-realtime/internal/status"
)

// RefreshMsg carries what was read from the status and latest files.
type RefreshMsg struct {
	Status optional.Option[status.ServiceStatus]
	Latest optional.Option[snapshot.Latest]
	Err    error
}

// TickMsg triggers the next refresh.
type TickMsg time.Time

// ControlMsg reports the outcome of a control verb sent from the monitor.
type ControlMsg struct {
	Verb  verb
	State control.State
	Err   error
}

// CodesSavedMsg reports the outcome of adding tracked codes from the monitor.
type CodesSavedMsg struct {
	Codes []string
	Err   error
}
