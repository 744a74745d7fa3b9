// Package render draws dashboard snapshots: charts as PNG files and the
// table and statistics for the terminal.
package render

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/HFocko/Dashboard/internal/core/services/aggregation"
)

// NotAvailable is shown for aggregates that could not be computed
const NotAvailable = "N/A"

var printer = message.NewPrinter(language.English)

// FormatNumber formats v with two decimals, or "N/A" when unavailable
func FormatNumber(v float64, available bool) string {
	if !available || math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	return printer.Sprintf("%.2f", v)
}

// FormatCount formats an integer count
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// StatLine is one labelled value of the statistics panel
type StatLine struct {
	Label string
	Value string
}

// SummaryLines returns the statistics panel for s in display order
func SummaryLines(s aggregation.Summary) []StatLine {
	return []StatLine{
		{Label: "Average", Value: FormatNumber(s.Mean, s.Available)},
		{Label: "Maximum", Value: FormatNumber(s.Max, s.Available)},
		{Label: "Minimum", Value: FormatNumber(s.Min, s.Available)},
		{Label: "Median", Value: FormatNumber(s.Median, s.Available)},
	}
}
