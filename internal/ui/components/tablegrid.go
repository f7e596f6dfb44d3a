package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a single column for TableGrid. Width is the visual
// width of the cell content, excluding separators.
type TableColumn struct {
	Header string
	Width  int
	Align  lipgloss.Position
}

const gridLeftOffset = 2

var (
	gridLineStyle = lipgloss.NewStyle().
			Foreground(borderColor)

	gridActiveRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#d7d9da")).
				Background(lipgloss.Color("#1f2530")).
				Bold(true)

	gridActiveSepStyle = lipgloss.NewStyle().
				Foreground(borderColor).
				Background(lipgloss.Color("#1f2530"))
)

// TableGrid renders rows under a header line and rule. The last column
// absorbs whatever width the others leave, so the result is exactly
// tableWidth cells wide. activeRow highlights one data row; -1 disables it.
func TableGrid(columns []TableColumn, rows [][]string, tableWidth int, activeRow int) string {
	if tableWidth <= 0 {
		return ""
	}
	if len(columns) == 0 {
		return padRight("", tableWidth)
	}

	border := lipgloss.RoundedBorder()
	cols := fitGridColumns(columns, tableWidth)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Header
	}

	out := make([]string, 0, len(rows)+2)
	out = append(out, renderGridRow(cols, header, border.Left, tableWidth, true, false))
	out = append(out, renderGridRule(cols, border.Middle, border.Top, tableWidth))
	for i, row := range rows {
		out = append(out, renderGridRow(cols, row, border.Left, tableWidth, false, i == activeRow))
	}
	return strings.Join(out, "\n")
}

func fitGridColumns(columns []TableColumn, tableWidth int) []TableColumn {
	fitted := make([]TableColumn, len(columns))
	copy(fitted, columns)

	contentWidth := tableWidth - gridLeftOffset
	if contentWidth < len(fitted) {
		contentWidth = len(fitted)
	}

	// n columns have n-1 one-cell separators.
	used := len(fitted) - 1
	for i := range fitted {
		if fitted[i].Width < 1 {
			fitted[i].Width = 1
		}
		used += fitted[i].Width
	}
	last := &fitted[len(fitted)-1]
	last.Width += contentWidth - used
	if last.Width < 1 {
		last.Width = 1
	}
	return fitted
}

func renderGridRow(columns []TableColumn, cells []string, sep string, tableWidth int, header, active bool) string {
	sepStyle := gridLineStyle
	if active {
		sepStyle = gridActiveSepStyle
	}
	sepStyled := sepStyle.Inline(true).Render(sep)

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gridLeftOffset))
	for i, col := range columns {
		if i > 0 {
			b.WriteString(sepStyled)
		}
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		cell := renderGridCell(text, col.Width, col.Align)
		switch {
		case header:
			cell = boxLabelStyle.Inline(true).Render(cell)
		case active:
			cell = gridActiveRowStyle.Inline(true).Render(cell)
		}
		b.WriteString(cell)
	}
	return padRight(b.String(), tableWidth)
}

func renderGridRule(columns []TableColumn, cross, horiz string, tableWidth int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gridLeftOffset))
	for i, col := range columns {
		b.WriteString(strings.Repeat(horiz, col.Width))
		if i < len(columns)-1 {
			b.WriteString(cross)
		}
	}
	return gridLineStyle.Inline(true).Render(padRight(b.String(), tableWidth))
}

func renderGridCell(text string, width int, align lipgloss.Position) string {
	clamped := ClampTextWidth(text, width)
	pad := width - lipgloss.Width(clamped)
	if pad <= 0 {
		return clamped
	}
	switch align {
	case lipgloss.Right:
		return strings.Repeat(" ", pad) + clamped
	case lipgloss.Center:
		left := pad / 2
		return strings.Repeat(" ", left) + clamped + strings.Repeat(" ", pad-left)
	default:
		return clamped + strings.Repeat(" ", pad)
	}
}
