package provider

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

// ProviderType defines the type of snapshot provider.
type ProviderType string

const (
	ProviderSina    ProviderType = "sina"
	ProviderBinance ProviderType = "binance"
	ProviderPolygon ProviderType = "polygon"
)

// Row is one provider record keyed by the provider's own column names.
type Row map[string]string

// Table is a tabular provider result. Columns lists every column present in
// Rows in the provider's order; consumers pick the first column they recognize.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) Table {
	return Table{
		Columns: columns,
		Rows:    make([]Row, 0),
	}
}

// Append adds a row whose values follow the table's column order.
// Missing trailing values are left out of the row.
func (t *Table) Append(values ...string) {
	row := make(Row, len(t.Columns))
	for i, column := range t.Columns {
		if i < len(values) {
			row[column] = values[i]
		}
	}

	t.Rows = append(t.Rows, row)
}

// HasColumn reports whether the table carries column.
func (t Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}

	return false
}

// SnapshotProvider returns the current quote of a set of instruments.
//
// Implementations must return rows only for instruments they recognize; a
// result without any of the requested codes is a valid, empty answer. Failures
// are reported as *errors.Error with a provider error code so the caller can
// tell transient outages from malformed responses.
type SnapshotProvider interface {
	// Name identifies the provider in logs.
	Name() string
	// Snapshot fetches the latest quote for codes.
	Snapshot(ctx context.Context, codes []string) (Table, error)
}

// NewSnapshotProvider creates a snapshot provider based on the provider type.
func NewSnapshotProvider(providerType ProviderType, config any) (SnapshotProvider, error) {
	switch providerType {
	case ProviderSina:
		cfg, ok := config.(SinaConfig)
		if !ok {
			cfg = SinaConfig{} //nolint:exhaustruct // defaults applied by constructor
		}

		return NewSinaClient(cfg), nil
	case ProviderBinance:
		return NewBinanceClient(), nil
	case ProviderPolygon:
		cfg, ok := config.(PolygonConfig)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires PolygonConfig")
		}

		client, err := NewPolygonClient(cfg)
		if err != nil {
			return nil, err
		}

		return client, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidProvider, fmt.Sprintf("unsupported snapshot provider: %s", providerType))
	}
}
