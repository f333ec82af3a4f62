package snapshot

import (
	"bytes"
	"encoding/csv"
	"slices"
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-realtime/internal/atomicfile"
	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

// Latest is the content of the latest file: either records or a heartbeat.
type Latest struct {
	Records   []Record
	Heartbeat optional.Option[Heartbeat]
}

// IsHeartbeat reports whether the latest file holds a heartbeat.
func (l Latest) IsHeartbeat() bool {
	return l.Heartbeat.IsSome()
}

// EncodeRecords renders records as CSV with a header row.
func EncodeRecords(records []Record) ([]byte, error) {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, Header)

	for _, r := range records {
		rows = append(rows, r.CSVRow())
	}

	return encode(rows)
}

// EncodeHeartbeat renders a heartbeat as a two-line CSV.
func EncodeHeartbeat(hb Heartbeat) ([]byte, error) {
	return encode([][]string{
		HeartbeatHeader,
		{hb.CollectedAt.Format(TimeLayout), hb.Status},
	})
}

// DecodeLatest parses a latest file. The header decides between records and heartbeat.
func DecodeLatest(data []byte, loc *time.Location) (Latest, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return Latest{}, errors.Wrap(errors.ErrCodeDecodeFailed, "failed to parse latest csv", err)
	}

	if len(rows) == 0 {
		return Latest{}, errors.New(errors.ErrCodeDecodeFailed, "latest csv is empty")
	}

	switch {
	case slices.Equal(rows[0], HeartbeatHeader):
		if len(rows) < 2 || len(rows[1]) != len(HeartbeatHeader) {
			return Latest{}, errors.New(errors.ErrCodeDecodeFailed, "heartbeat row missing")
		}

		collectedAt, err := time.ParseInLocation(TimeLayout, rows[1][0], loc)
		if err != nil {
			return Latest{}, errors.Wrap(errors.ErrCodeDecodeFailed, "invalid heartbeat time", err)
		}

		return Latest{
			Records:   nil,
			Heartbeat: optional.Some(Heartbeat{CollectedAt: collectedAt, Status: rows[1][1]}),
		}, nil
	case slices.Equal(rows[0], Header):
		records := make([]Record, 0, len(rows)-1)

		for _, row := range rows[1:] {
			record, err := ParseRecord(row, loc)
			if err != nil {
				return Latest{}, err
			}

			records = append(records, record)
		}

		return Latest{Records: records, Heartbeat: optional.None[Heartbeat]()}, nil
	default:
		return Latest{}, errors.Newf(errors.ErrCodeDecodeFailed, "unrecognized latest header %v", rows[0])
	}
}

// WriteLatest replaces the latest file with records.
func WriteLatest(path string, records []Record) error {
	data, err := EncodeRecords(records)
	if err != nil {
		return err
	}

	return atomicfile.Write(path, data)
}

// WriteHeartbeat replaces the latest file with a heartbeat.
func WriteHeartbeat(path string, hb Heartbeat) error {
	data, err := EncodeHeartbeat(hb)
	if err != nil {
		return err
	}

	return atomicfile.Write(path, data)
}

// ReadLatest reads the latest file. It returns None when the file does not exist.
func ReadLatest(path string, loc *time.Location) (optional.Option[Latest], error) {
	data, err := atomicfile.Read(path)
	if err != nil {
		return optional.None[Latest](), err
	}

	if data.IsNone() {
		return optional.None[Latest](), nil
	}

	latest, err := DecodeLatest(data.Unwrap(), loc)
	if err != nil {
		return optional.None[Latest](), err
	}

	return optional.Some(latest), nil
}

func encode(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodeFailed, "failed to encode csv", err)
	}

	return buf.Bytes(), nil
}
