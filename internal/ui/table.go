package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Table renders rows in aligned columns.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // Max width per column (0 = auto)
	Plain    bool
}

// ColumnWidths returns the display width of each column.
func (t *Table) ColumnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}
	if t.MaxWidth > 0 {
		for i := range widths {
			widths[i] = min(widths[i], t.MaxWidth)
		}
	}
	return widths
}

// Render outputs the table to a string.
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.ColumnWidths()
	headerStyle := t.style(styleTableHeader)
	cellStyle := t.style(styleTableCell)
	dimStyle := t.style(styleTableRule)

	var sb strings.Builder
	cells := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		cells[i] = headerStyle(runewidth.FillRight(h, widths[i]))
	}
	sb.WriteString(" " + strings.Join(cells, "  ") + "\n")

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = dimStyle(strings.Repeat("─", w))
	}
	sb.WriteString(" " + strings.Join(sep, "──") + "\n")

	for _, row := range t.Rows {
		for i := range t.Headers {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if runewidth.StringWidth(val) > widths[i] {
				val = runewidth.Truncate(val, widths[i], "…")
			}
			cells[i] = cellStyle(runewidth.FillRight(val, widths[i]))
		}
		sb.WriteString(" " + strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	}
	return sb.String()
}

func (t *Table) style(s lipgloss.Style) func(...string) string {
	if t.Plain {
		return func(strs ...string) string { return strings.Join(strs, " ") }
	}
	return s.Render
}
