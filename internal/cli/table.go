package cli

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ansiSequence matches SGR escape sequences, which take no space on screen.
var ansiSequence = regexp.MustCompile("\x1b\\[[0-9;]*m")

// Table renders left-aligned columns sized to their widest cell.
// Cells may contain ANSI colour sequences.
type Table struct {
	headers []string
	rows    [][]string
	padding int
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		padding: 2,
	}
}

// AddRow adds a row, padding or truncating it to the header count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render formats and returns the table as a string.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], visibleWidth(cell))
		}
	}

	var sb strings.Builder
	t.writeRow(&sb, t.headers, widths)

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	t.writeRow(&sb, sep, widths)

	for _, row := range t.rows {
		t.writeRow(&sb, row, widths)
	}
	return sb.String()
}

func (t *Table) writeRow(sb *strings.Builder, cells []string, widths []int) {
	gap := strings.Repeat(" ", t.padding)
	for i, cell := range cells {
		if i > 0 {
			sb.WriteString(gap)
		}
		sb.WriteString(cell)
		// The last column is not padded so lines carry no trailing spaces.
		if i < len(cells)-1 {
			sb.WriteString(strings.Repeat(" ", widths[i]-visibleWidth(cell)))
		}
	}
	sb.WriteString("\n")
}

// visibleWidth returns the number of runes s occupies on a terminal.
func visibleWidth(s string) int {
	return utf8.RuneCountInString(ansiSequence.ReplaceAllString(s, ""))
}
