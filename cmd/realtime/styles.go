package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text and table borders.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	// AlertStyle marks rows whose alert flag is set.
	AlertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

// FormatPriceWithTrend formats a price with an indicator comparing it to the
// previously displayed price. A zero previous price means there is nothing to compare.
func FormatPriceWithTrend(current, previous decimal.Decimal) string {
	priceStr := current.String()

	if previous.IsZero() {
		return priceStr
	}

	if current.GreaterThan(previous) {
		return priceStr + " ▲"
	} else if current.LessThan(previous) {
		return priceStr + " ▼"
	}

	return priceStr
}
