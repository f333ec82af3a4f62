// Package pricelog manages the day-partitioned snapshot log.
//
// Each calendar day gets prices_YYYYMMDD.csv, opened in append mode and
// given a header on first write. Housekeeping compresses every file that is
// not today's into prices_YYYYMMDD.csv.gz and deletes archives whose
// filename date is older than the retention window. Failures on one file
// never stop the others.
package pricelog

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-realtime/internal/atomicfile"
	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/rxtech-lab/argo-realtime/internal/snapshot"
	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

const (
	FilePrefix = "prices_"
	DateLayout = "20060102"
	LiveExt    = ".csv"
	ArchiveExt = ".csv.gz"
)

// DayFile describes one log file on disk.
type DayFile struct {
	Date     time.Time
	Path     string
	Archived bool
	Size     int64
}

// HousekeepingReport lists what one housekeeping pass did.
type HousekeepingReport struct {
	Compressed []string
	Deleted    []string
	Errors     []error
}

// Manager owns the log directory. Only one process should append at a time.
type Manager struct {
	dir string
	loc *time.Location
	log *logger.Logger
}

// NewManager creates a manager for dir. Filename dates are read in loc.
func NewManager(dir string, loc *time.Location, log *logger.Logger) *Manager {
	if loc == nil {
		loc = time.Local
	}

	return &Manager{
		dir: dir,
		loc: loc,
		log: log,
	}
}

func (m *Manager) Dir() string {
	return m.dir
}

// LivePath returns the uncompressed log path for day.
func (m *Manager) LivePath(day time.Time) string {
	return filepath.Join(m.dir, FilePrefix+day.In(m.loc).Format(DateLayout)+LiveExt)
}

// ArchivePath returns the compressed log path for day.
func (m *Manager) ArchivePath(day time.Time) string {
	return filepath.Join(m.dir, FilePrefix+day.In(m.loc).Format(DateLayout)+ArchiveExt)
}

// Append writes records to the log of now's day and then runs housekeeping.
// Housekeeping problems are logged and never returned.
func (m *Manager) Append(records []snapshot.Record, now time.Time, retentionDays int) error {
	if err := m.appendRecords(records, now); err != nil {
		return err
	}

	m.Housekeep(now, retentionDays)

	return nil
}

func (m *Manager) appendRecords(records []snapshot.Record, now time.Time) error {
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeLogAppendFailed, "failed to create log directory", err)
	}

	path := m.LivePath(now)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeLogAppendFailed, err, "failed to open %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeLogAppendFailed, err, "failed to stat %s", path)
	}

	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	if info.Size() == 0 {
		_ = w.Write(snapshot.Header)
	}

	for _, r := range records {
		_ = w.Write(r.CSVRow())
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeEncodeFailed, "failed to encode log rows", err)
	}

	// a single write keeps a crash from leaving half a batch behind the header
	if _, err := f.Write(buf.Bytes()); err != nil {
		return errors.Wrapf(errors.ErrCodeLogAppendFailed, err, "failed to append to %s", path)
	}

	if err := f.Sync(); err != nil {
		return errors.Wrapf(errors.ErrCodeLogAppendFailed, err, "failed to sync %s", path)
	}

	return nil
}

// Housekeep compresses past days and enforces retention relative to now's date.
// An archive dated before now.date - retentionDays is deleted. Days that
// already have an archive are left alone, so repeated passes are idempotent.
func (m *Manager) Housekeep(now time.Time, retentionDays int) HousekeepingReport {
	report := HousekeepingReport{
		Compressed: []string{},
		Deleted:    []string{},
		Errors:     []error{},
	}

	files, err := m.List()
	if err != nil {
		report.Errors = append(report.Errors, err)
		m.log.Warn("Failed to list price logs", zap.String("dir", m.dir), zap.Error(err))

		return report
	}

	now = now.In(m.loc)
	today := now.Format(DateLayout)

	for _, file := range files {
		if file.Archived || file.Date.Format(DateLayout) == today {
			continue
		}

		archivePath := m.ArchivePath(file.Date)
		if _, err := os.Stat(archivePath); err == nil {
			continue
		}

		if err := compress(file.Path, archivePath); err != nil {
			report.Errors = append(report.Errors, err)
			m.log.Warn("Failed to compress price log", zap.String("path", file.Path), zap.Error(err))

			continue
		}

		report.Compressed = append(report.Compressed, archivePath)

		if err := os.Remove(file.Path); err != nil {
			report.Errors = append(report.Errors, errors.Wrapf(errors.ErrCodeLogDeleteFailed, err, "failed to remove %s", file.Path))
			m.log.Warn("Failed to remove compressed price log", zap.String("path", file.Path), zap.Error(err))
		}
	}

	files, err = m.List()
	if err != nil {
		report.Errors = append(report.Errors, err)

		return report
	}

	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, m.loc)
	cutoff := nowDate.AddDate(0, 0, -retentionDays)

	for _, file := range files {
		if !file.Archived || !file.Date.Before(cutoff) {
			continue
		}

		if err := os.Remove(file.Path); err != nil {
			report.Errors = append(report.Errors, errors.Wrapf(errors.ErrCodeLogDeleteFailed, err, "failed to remove %s", file.Path))
			m.log.Warn("Failed to delete expired price log", zap.String("path", file.Path), zap.Error(err))

			continue
		}

		report.Deleted = append(report.Deleted, file.Path)
	}

	if len(report.Compressed) > 0 || len(report.Deleted) > 0 {
		m.log.Info("Price log housekeeping done",
			zap.Int("compressed", len(report.Compressed)),
			zap.Int("deleted", len(report.Deleted)),
			zap.Int("errors", len(report.Errors)),
		)
	}

	return report
}

// List returns the log files in the directory ordered by date, live file
// before archive. Files whose name does not carry a valid date are ignored.
func (m *Manager) List() ([]DayFile, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []DayFile{}, nil
		}

		return nil, errors.Wrapf(errors.ErrCodeReadFailed, err, "failed to read %s", m.dir)
	}

	files := make([]DayFile, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		day, archived, ok := ParseFileName(entry.Name(), m.loc)
		if !ok {
			continue
		}

		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}

		files = append(files, DayFile{
			Date:     day,
			Path:     filepath.Join(m.dir, entry.Name()),
			Archived: archived,
			Size:     size,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].Date.Equal(files[j].Date) {
			return files[i].Date.Before(files[j].Date)
		}

		return !files[i].Archived && files[j].Archived
	})

	return files, nil
}

// ParseFileName extracts the date from prices_YYYYMMDD.csv or prices_YYYYMMDD.csv.gz.
func ParseFileName(name string, loc *time.Location) (day time.Time, archived bool, ok bool) {
	if !strings.HasPrefix(name, FilePrefix) {
		return time.Time{}, false, false
	}

	rest := strings.TrimPrefix(name, FilePrefix)

	switch {
	case strings.HasSuffix(rest, ArchiveExt):
		rest = strings.TrimSuffix(rest, ArchiveExt)
		archived = true
	case strings.HasSuffix(rest, LiveExt):
		rest = strings.TrimSuffix(rest, LiveExt)
	default:
		return time.Time{}, false, false
	}

	day, err := time.ParseInLocation(DateLayout, rest, loc)
	if err != nil {
		return time.Time{}, false, false
	}

	return day, archived, true
}

func compress(src string, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeLogCompressFailed, err, "failed to read %s", src)
	}

	var buf bytes.Buffer

	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLogCompressFailed, "failed to create gzip writer", err)
	}

	zw.Name = filepath.Base(src)

	if _, err := zw.Write(data); err != nil {
		return errors.Wrapf(errors.ErrCodeLogCompressFailed, err, "failed to compress %s", src)
	}

	if err := zw.Close(); err != nil {
		return errors.Wrapf(errors.ErrCodeLogCompressFailed, err, "failed to finish %s", dst)
	}

	if err := atomicfile.Write(dst, buf.Bytes()); err != nil {
		return errors.Wrapf(errors.ErrCodeLogCompressFailed, err, "failed to write %s", dst)
	}

	return nil
}
