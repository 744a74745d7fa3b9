package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/HFocko/Dashboard/internal/core/services/dashboard"
)

// DefaultMaxCellWidth truncates long cells such as descriptions
const DefaultMaxCellWidth = 32

// TableRenderer writes the statistics panel and the current table page
type TableRenderer struct {
	out          io.Writer
	renderer     *lipgloss.Renderer
	MaxCellWidth int

	headerStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	oddRowStyle  lipgloss.Style
	borderStyle  lipgloss.Style
	titleStyle   lipgloss.Style
}

// NewTableRenderer creates a renderer writing to out
func NewTableRenderer(out io.Writer) *TableRenderer {
	re := lipgloss.NewRenderer(out)
	base := re.NewStyle().Padding(0, 1)

	return &TableRenderer{
		out:          out,
		renderer:     re,
		MaxCellWidth: DefaultMaxCellWidth,
		headerStyle:  base.Foreground(lipgloss.Color("252")).Bold(true),
		evenRowStyle: base.Foreground(lipgloss.Color("245")),
		oddRowStyle:  base.Foreground(lipgloss.Color("252")),
		borderStyle:  re.NewStyle().Foreground(lipgloss.Color("238")),
		titleStyle:   re.NewStyle().Bold(true).Foreground(lipgloss.Color("#3498db")),
	}
}

// Render implements dashboard.Renderer
func (r *TableRenderer) Render(ctx context.Context, snap *dashboard.Snapshot) error {
	_, err := fmt.Fprintln(r.out, r.RenderString(snap))
	return err
}

// RenderString returns title, statistics and the table page as text
func (r *TableRenderer) RenderString(snap *dashboard.Snapshot) string {
	var b strings.Builder
	b.WriteString(r.titleStyle.Render(snap.DatasetTitle))
	b.WriteString("\n")
	b.WriteString(r.RenderSummary(snap))
	b.WriteString("\n")
	b.WriteString(r.RenderTable(snap.Table))
	b.WriteString("\n")
	b.WriteString(footer(snap))
	return b.String()
}

// RenderSummary renders the total and the statistics panel
func (r *TableRenderer) RenderSummary(snap *dashboard.Snapshot) string {
	headers := []string{"Total Records"}
	values := []string{FormatCount(snap.Total)}
	for _, line := range SummaryLines(snap.Summary) {
		headers = append(headers, line.Label)
		values = append(values, line.Value)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.borderStyle).
		Headers(headers...).
		Row(values...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.headerStyle
			}
			return r.oddRowStyle
		}).
		String()
}

// RenderTable renders one table page with the dataset's column labels
func (r *TableRenderer) RenderTable(tv dashboard.TableView) string {
	headers := tv.Labels
	if len(headers) == 0 {
		headers = tv.Headers
	}

	rows := make([][]string, len(tv.Rows))
	for i, row := range tv.Rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = truncate(cell, r.MaxCellWidth)
		}
		rows[i] = cells
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.headerStyle
			}
			if row%2 == 0 {
				return r.evenRowStyle
			}
			return r.oddRowStyle
		}).
		String()
}

func footer(snap *dashboard.Snapshot) string {
	parts := []string{fmt.Sprintf("Page %d of %d", snap.Table.CurrentPage, snap.Table.TotalPages)}
	if snap.Filter != "" {
		parts = append(parts, fmt.Sprintf("filter %q", snap.Filter))
	}
	if snap.SortField != "" {
		parts = append(parts, "sorted by "+snap.SortField)
	}
	return strings.Join(parts, " | ")
}

// truncate shortens s to max runes, marking the cut with an ellipsis
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
