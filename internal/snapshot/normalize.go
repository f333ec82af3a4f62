package snapshot

import (
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-realtime/pkg/marketdata/provider"
)

// Recognized provider column names, in order of preference.
var (
	CodeColumns      = []string{"代码", "code", "symbol"}
	PriceColumns     = []string{"最新价", "现价", "价格", "close", "收盘", "price"}
	PctChangeColumns = []string{"pct_chg", "涨跌幅", "涨幅"}
	NameColumns      = []string{"名称", "name"}
)

// Normalize turns a provider table into records for the tracked codes.
//
// Rows for untracked codes, duplicate rows and rows with an unparseable price
// are dropped. A table without a recognized code or price column yields no
// records. Codes match case-insensitively, records carry the tracked spelling
// and come out in the order of codes.
func Normalize(table provider.Table, codes []string, thresholdPct float64, now time.Time) []Record {
	codeColumn, ok := firstColumn(table, CodeColumns)
	if !ok {
		return nil
	}

	priceColumn, ok := firstColumn(table, PriceColumns)
	if !ok {
		return nil
	}

	pctColumn, hasPct := firstColumn(table, PctChangeColumns)
	nameColumn, hasName := firstColumn(table, NameColumns)

	// first row with a parseable price per code
	rows := make(map[string]provider.Row, len(table.Rows))
	prices := make(map[string]decimal.Decimal, len(table.Rows))

	for _, row := range table.Rows {
		key := strings.ToUpper(strings.TrimSpace(row[codeColumn]))
		if _, dup := rows[key]; dup {
			continue
		}

		price, err := parseNumber(row[priceColumn])
		if err != nil {
			continue
		}

		rows[key] = row
		prices[key] = price
	}

	seen := make(map[string]bool, len(codes))
	records := make([]Record, 0, len(codes))

	for _, code := range codes {
		key := strings.ToUpper(strings.TrimSpace(code))

		row, found := rows[key]
		if !found || seen[key] {
			continue
		}

		pct := optional.None[decimal.Decimal]()
		if hasPct {
			if value, err := parseNumber(row[pctColumn]); err == nil {
				pct = optional.Some(value)
			}
		}

		name := optional.None[string]()
		if hasName && strings.TrimSpace(row[nameColumn]) != "" {
			name = optional.Some(strings.TrimSpace(row[nameColumn]))
		}

		seen[key] = true
		records = append(records, Record{
			CollectedAt: now,
			Code:        code,
			Price:       prices[key],
			PctChange:   pct,
			Name:        name,
			Alert:       IsAlert(pct, thresholdPct),
		})
	}

	return records
}

// Alerts returns the records whose alert flag is set.
func Alerts(records []Record) []Record {
	alerts := make([]Record, 0)

	for _, r := range records {
		if r.Alert {
			alerts = append(alerts, r)
		}
	}

	return alerts
}

func firstColumn(table provider.Table, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if table.HasColumn(candidate) {
			return candidate, true
		}
	}

	return "", false
}

// parseNumber accepts values such as "1,234.50", "3.2%" and " -1.5 ".
func parseNumber(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	return decimal.NewFromString(strings.TrimSpace(cleaned))
}
