package service

import (
	"github.com/rxtech-lab/argo-realtime/internal/snapshot"
	"github.com/rxtech-lab/argo-realtime/internal/status"
)

// OnServiceStartCallback is called once before the first iteration.
type OnServiceStartCallback func(runID string) error

// OnServiceStopCallback is called when the loop exits (always called via defer).
type OnServiceStopCallback func(err error)

// OnSnapshotCallback is called after a poll produced records and they were persisted.
type OnSnapshotCallback func(records []snapshot.Record)

// OnAlertCallback is called for each record whose alert flag is set.
type OnAlertCallback func(record snapshot.Record)

// OnErrorCallback is called when an iteration fails. The loop keeps running.
type OnErrorCallback func(err error)

// OnStatusUpdateCallback is called after each status publish attempt.
type OnStatusUpdateCallback func(status status.ServiceStatus)

// Callbacks holds optional lifecycle hooks. Nil entries are skipped.
type Callbacks struct {
	OnServiceStart *OnServiceStartCallback
	OnServiceStop  *OnServiceStopCallback
	OnSnapshot     *OnSnapshotCallback
	OnAlert        *OnAlertCallback
	OnError        *OnErrorCallback
	OnStatusUpdate *OnStatusUpdateCallback
}
