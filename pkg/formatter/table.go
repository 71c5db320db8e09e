// File: pkg/formatter/table.go
package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

type Table struct {
	Headers      []string
	Rows         [][]string
	columnWidths []int
}

// Creates a new table with the given headers
func NewTable(headers []string) *Table {
	t := &Table{
		Headers: headers,
		Rows:    [][]string{},
	}
	t.calculateColumnWidths()
	return t
}

func (t *Table) AddRow(row []string) {
	t.Rows = append(t.Rows, row)
	t.calculateColumnWidths()
}

// Widths are measured in terminal cells so styled cells line up
func (t *Table) calculateColumnWidths() {
	t.columnWidths = make([]int, len(t.Headers))
	for i, h := range t.Headers {
		t.columnWidths[i] = lipgloss.Width(h)
	}

	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(t.columnWidths) && lipgloss.Width(cell) > t.columnWidths[i] {
				t.columnWidths[i] = lipgloss.Width(cell)
			}
		}
	}
}

// Returns the string representation of the table
func (t *Table) String() string {
	if len(t.Headers) == 0 {
		return ""
	}

	t.calculateColumnWidths()

	var sb strings.Builder

	t.writeBorder(&sb)
	sb.WriteString("\n")

	sb.WriteString("| ")
	for i, h := range t.Headers {
		t.writeCell(&sb, headerStyle.Render(h), i)
	}
	sb.WriteString("\n")

	t.writeBorder(&sb)
	sb.WriteString("\n")

	for _, row := range t.Rows {
		sb.WriteString("| ")
		for i, cell := range row {
			if i < len(t.columnWidths) {
				t.writeCell(&sb, cell, i)
			}
		}
		sb.WriteString("\n")
	}

	t.writeBorder(&sb)

	return sb.String()
}

func (t *Table) writeCell(sb *strings.Builder, cell string, col int) {
	sb.WriteString(cell)
	sb.WriteString(strings.Repeat(" ", max(t.columnWidths[col]-lipgloss.Width(cell), 0)))
	sb.WriteString(" | ")
}

// writeBorder writes a horizontal border to the string builder
func (t *Table) writeBorder(sb *strings.Builder) {
	sb.WriteString("+")
	for _, width := range t.columnWidths {
		sb.WriteString(strings.Repeat("-", width+2))
		sb.WriteString("+")
	}
}

// Formats a section header with a title
func FormatHeaderSection(title string) string {
	var sb strings.Builder

	borderLine := strings.Repeat("=", len(title)+30)

	sb.WriteString(borderLine)
	sb.WriteString("\n")
	sb.WriteString("  " + headerStyle.Render(title) + "  ")
	sb.WriteString("\n")
	sb.WriteString(borderLine)

	return sb.String()
}

// Formats a simple section title
func FormatSectionTitle(title string) string {
	return "-- " + title + " --"
}
