package pricelog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-realtime/internal/snapshot"
	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

const (
	logView     = "price_log"
	exportTable = "price_export"
	insertBatch = 500
)

// QueryOptions filters history queries. Zero values mean no filter.
type QueryOptions struct {
	Codes      []string
	Start      optional.Option[time.Time]
	End        optional.Option[time.Time]
	AlertsOnly bool
	Limit      uint64
}

// Query reads live and archived logs through DuckDB and returns matching
// records ordered by time and code.
func (m *Manager) Query(ctx context.Context, opts QueryOptions) ([]snapshot.Record, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}

	files := make([]DayFile, 0, len(all))

	for _, f := range all {
		if f.Size > 0 {
			files = append(files, f)
		}
	}

	if len(files) == 0 {
		return []snapshot.Record{}, nil
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLogQueryFailed, "failed to open duckdb", err)
	}
	defer db.Close()

	if err := createLogView(ctx, db, files); err != nil {
		return nil, err
	}

	query, args, err := m.selectRecords(opts).ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLogQueryFailed, "failed to build query", err)
	}

	m.log.Debug("Querying price logs", zap.String("query", query), zap.Int("files", len(files)))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLogQueryFailed, "failed to query price logs", err)
	}
	defer rows.Close()

	records := make([]snapshot.Record, 0)

	for rows.Next() {
		row := make([]string, len(snapshot.Header))

		var pct, name sql.NullString

		if err := rows.Scan(&row[0], &row[1], &row[2], &pct, &name, &row[5]); err != nil {
			return nil, errors.Wrap(errors.ErrCodeLogQueryFailed, "failed to scan price log row", err)
		}

		row[3] = pct.String
		row[4] = name.String

		record, err := snapshot.ParseRecord(row, m.loc)
		if err != nil {
			m.log.Warn("Skipping malformed price log row", zap.Strings("row", row), zap.Error(err))

			continue
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLogQueryFailed, "failed to iterate price log rows", err)
	}

	return records, nil
}

// ExportParquet writes the records matched by opts to a parquet file at path
// and returns the number of rows exported.
func (m *Manager) ExportParquet(ctx context.Context, opts QueryOptions, path string) (int, error) {
	records, err := m.Query(ctx, opts)
	if err != nil {
		return 0, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeLogExportFailed, "failed to open duckdb", err)
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE %s (
			collected_at TIMESTAMP,
			code TEXT,
			price DOUBLE,
			pct_change DOUBLE,
			name TEXT,
			alert BOOLEAN
		)
	`, exportTable))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeLogExportFailed, "failed to create export table", err)
	}

	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	for start := 0; start < len(records); start += insertBatch {
		end := min(start+insertBatch, len(records))

		insert := sq.Insert(exportTable).Columns(snapshot.Header...)

		for _, r := range records[start:end] {
			var pct, name any
			if r.PctChange.IsSome() {
				pct = r.PctChange.Unwrap().InexactFloat64()
			}

			if r.Name.IsSome() {
				name = r.Name.Unwrap()
			}

			insert = insert.Values(r.CollectedAt, r.Code, r.Price.InexactFloat64(), pct, name, r.Alert)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeLogExportFailed, "failed to build insert", err)
		}

		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return 0, errors.Wrap(errors.ErrCodeLogExportFailed, "failed to insert export rows", err)
		}
	}

	copyQuery := fmt.Sprintf(`COPY (SELECT * FROM %s ORDER BY collected_at, code) TO %s (FORMAT PARQUET)`, exportTable, quote(path))
	if _, err := db.ExecContext(ctx, copyQuery); err != nil {
		return 0, errors.Wrap(errors.ErrCodeLogExportFailed, "failed to export to parquet", err)
	}

	m.log.Info("Exported price logs", zap.String("path", path), zap.Int("rows", len(records)))

	return len(records), nil
}

func (m *Manager) selectRecords(opts QueryOptions) squirrel.SelectBuilder {
	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	builder := sq.Select(snapshot.Header...).From(logView)

	if len(opts.Codes) > 0 {
		builder = builder.Where(squirrel.Eq{"code": opts.Codes})
	}

	// collected_at uses a sortable layout, so string comparison orders by time
	if opts.Start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"collected_at": opts.Start.Unwrap().In(m.loc).Format(snapshot.TimeLayout)})
	}

	if opts.End.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"collected_at": opts.End.Unwrap().In(m.loc).Format(snapshot.TimeLayout)})
	}

	if opts.AlertsOnly {
		builder = builder.Where(squirrel.Eq{"alert": "true"})
	}

	builder = builder.OrderBy("collected_at", "code")

	if opts.Limit > 0 {
		builder = builder.Limit(opts.Limit)
	}

	return builder
}

// createLogView exposes every log file as one view. DuckDB reads the gzip
// archives directly. Columns are read as text so values round-trip exactly.
func createLogView(ctx context.Context, db *sql.DB, files []DayFile) error {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, quote(f.Path))
	}

	columns := make([]string, 0, len(snapshot.Header))
	for _, c := range snapshot.Header {
		columns = append(columns, fmt.Sprintf("'%s': 'VARCHAR'", c))
	}

	// Squirrel does not support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE OR REPLACE VIEW %s AS
		SELECT * FROM read_csv([%s], header = true, columns = {%s})
	`, logView, strings.Join(paths, ", "), strings.Join(columns, ", "))

	if _, err := db.ExecContext(ctx, query); err != nil {
		return errors.Wrap(errors.ErrCodeLogQueryFailed, "failed to create price log view", err)
	}

	return nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
