// Package snapshot holds the records produced by one poll and their CSV form.
package snapshot

import (
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

// TimeLayout is the timestamp format used in the latest file and daily logs.
const TimeLayout = "2006-01-02 15:04:05"

// HeartbeatStatus is written instead of quotes when no poll happens.
const HeartbeatStatus = "off-hours"

// Header is the column order of snapshot records in CSV files.
var Header = []string{"collected_at", "code", "price", "pct_change", "name", "alert"}

// HeartbeatHeader is the column order of a heartbeat in the latest file.
var HeartbeatHeader = []string{"collected_at", "status"}

// Record is the normalized quote of one tracked instrument at one poll.
type Record struct {
	CollectedAt time.Time
	Code        string
	Price       decimal.Decimal
	PctChange   optional.Option[decimal.Decimal]
	Name        optional.Option[string]
	Alert       bool
}

// Heartbeat replaces the latest records when the market is closed or nothing is tracked.
type Heartbeat struct {
	CollectedAt time.Time
	Status      string
}

// NewHeartbeat creates an off-hours heartbeat.
func NewHeartbeat(now time.Time) Heartbeat {
	return Heartbeat{
		CollectedAt: now,
		Status:      HeartbeatStatus,
	}
}

// CSVRow returns the record in Header order.
func (r Record) CSVRow() []string {
	pct := ""
	if r.PctChange.IsSome() {
		pct = r.PctChange.Unwrap().String()
	}

	return []string{
		r.CollectedAt.Format(TimeLayout),
		r.Code,
		r.Price.String(),
		pct,
		r.Name.TakeOr(""),
		strconv.FormatBool(r.Alert),
	}
}

// ParseRecord parses a row written by CSVRow. Timestamps are interpreted in loc.
func ParseRecord(row []string, loc *time.Location) (Record, error) {
	if len(row) != len(Header) {
		return Record{}, errors.Newf(errors.ErrCodeDecodeFailed, "expected %d columns, got %d", len(Header), len(row))
	}

	collectedAt, err := time.ParseInLocation(TimeLayout, row[0], loc)
	if err != nil {
		return Record{}, errors.Wrapf(errors.ErrCodeDecodeFailed, err, "invalid collected_at %q", row[0])
	}

	price, err := decimal.NewFromString(row[2])
	if err != nil {
		return Record{}, errors.Wrapf(errors.ErrCodeDecodeFailed, err, "invalid price %q", row[2])
	}

	pct := optional.None[decimal.Decimal]()

	if row[3] != "" {
		value, err := decimal.NewFromString(row[3])
		if err != nil {
			return Record{}, errors.Wrapf(errors.ErrCodeDecodeFailed, err, "invalid pct_change %q", row[3])
		}

		pct = optional.Some(value)
	}

	name := optional.None[string]()
	if row[4] != "" {
		name = optional.Some(row[4])
	}

	alert, err := strconv.ParseBool(row[5])
	if err != nil {
		return Record{}, errors.Wrapf(errors.ErrCodeDecodeFailed, err, "invalid alert %q", row[5])
	}

	return Record{
		CollectedAt: collectedAt,
		Code:        row[1],
		Price:       price,
		PctChange:   pct,
		Name:        name,
		Alert:       alert,
	}, nil
}

// IsAlert reports whether |pct| reaches thresholdPct. A missing change never alerts.
func IsAlert(pct optional.Option[decimal.Decimal], thresholdPct float64) bool {
	if pct.IsNone() {
		return false
	}

	return pct.Unwrap().Abs().GreaterThanOrEqual(decimal.NewFromFloat(thresholdPct))
}
