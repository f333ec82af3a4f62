package main

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-realtime/internal/snapshot"
)

// NewCodeInput creates the text input used to add tracked codes.
func NewCodeInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "600519, 000001"
	ti.CharLimit = 256
	ti.Width = 50

	return ti
}

// NewQuoteTable creates the table of latest quotes.
func NewQuoteTable() table.Model {
	columns := []table.Column{
		{Title: "Code", Width: 10},
		{Title: "Name", Width: 12},
		{Title: "Price", Width: 14},
		{Title: "Chg %", Width: 8},
		{Title: "Alert", Width: 5},
		{Title: "Time", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateQuoteRows replaces the table rows with records, in file order.
func UpdateQuoteRows(t table.Model, records []snapshot.Record, prevPrices map[string]decimal.Decimal) table.Model {
	rows := make([]table.Row, 0, len(records))

	for _, r := range records {
		rows = append(rows, table.Row{
			r.Code,
			r.Name.TakeOr(""),
			FormatPriceWithTrend(r.Price, prevPrices[r.Code]),
			pctString(r),
			alertMark(r.Alert),
			r.CollectedAt.Format("15:04:05"),
		})
	}

	t.SetRows(rows)

	return t
}
