package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/bugdash/pkg/model"
	"github.com/vanderheijden86/bugdash/pkg/tableview"
)

const (
	cursorMarker  = "▸ "
	minTitleWidth = 10
	prevLabel     = "‹ Prev"
	nextLabel     = "Next ›"
)

// columnWidths resolves flexible columns so the row fills width.
func columnWidths(cols []tableview.ColumnSpec, width int) []int {
	widths := make([]int, len(cols))
	fixed, flex := 0, 0
	for i, c := range cols {
		widths[i] = c.Width
		fixed += c.Width
		if c.Width == 0 {
			flex++
		}
	}
	if flex == 0 {
		return widths
	}
	avail := width - len(cursorMarker) - fixed - (len(cols) - 1)
	each := avail / flex
	if each < minTitleWidth {
		each = minTitleWidth
	}
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = each
		}
	}
	return widths
}

// minTableWidth is the narrowest width at which every column fits.
func minTableWidth(cols []tableview.ColumnSpec) int {
	w := len(cursorMarker) + len(cols) - 1
	for _, c := range cols {
		if c.Width == 0 {
			w += minTitleWidth
		}
		w += c.Width
	}
	return w
}

func renderCell(t Theme, c tableview.Column, b *model.Bug, width int) string {
	switch c {
	case tableview.ColumnSeverity:
		return RenderSeverityBadge(t, b.Severity, width)
	case tableview.ColumnStatus:
		return RenderStatusBadge(t, b.Status, width)
	case tableview.ColumnAssignee:
		if _, ok := b.Assignee(); !ok {
			return t.MutedText.Italic(true).Render(fit(tableview.Unassigned, width))
		}
	case tableview.ColumnID:
		return t.Renderer.NewStyle().Foreground(t.Secondary).Render(fit(tableview.CellText(c, b), width))
	}
	return t.Base.Render(fit(tableview.CellText(c, b), width))
}

// renderTableHeader shows the sort indicator on the active column and the
// number key that toggles each column's sort.
func renderTableHeader(t Theme, tbl *tableview.Table, widths []int, width int) string {
	sort := tbl.Sort()
	parts := make([]string, 0, len(widths))
	for i, c := range tbl.Columns() {
		label := c.Header
		if sort.Column == c.Column && sort.Column != tableview.ColumnNone {
			label += " " + sort.Direction.Indicator()
		}
		parts = append(parts, fit(strconv.Itoa(i+1)+" "+label, widths[i]))
	}
	line := strings.Repeat(" ", len(cursorMarker)) + strings.Join(parts, " ")
	return t.Header.Render(fit(line, width))
}

// renderTable draws the current page, one line per row, padded to the page
// size so the pager does not jump.
func renderTable(t Theme, tbl *tableview.Table, cursor, width int) string {
	cols := tbl.Columns()
	widths := columnWidths(cols, width)

	lines := []string{renderTableHeader(t, tbl, widths, width)}

	rows := tbl.VisibleRows()
	if len(rows) == 0 {
		msg := t.MutedText.Render(tableview.NoResults)
		lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, msg))
	}
	for i, b := range rows {
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = renderCell(t, c.Column, b, widths[j])
		}
		marker := strings.Repeat(" ", len(cursorMarker))
		if i == cursor {
			marker = t.KeyText.Render(cursorMarker)
		}
		line := marker + strings.Join(cells, " ")
		if i == cursor {
			line = t.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	for n := max(len(rows), 1); n < tbl.PageSize(); n++ {
		lines = append(lines, "")
	}

	lines = append(lines, renderPager(t, tbl, width))
	return strings.Join(lines, "\n")
}

// renderPager draws "Showing N of M items" on the left and the page
// controls on the right. Controls that cannot be used are dimmed.
func renderPager(t Theme, tbl *tableview.Table, width int) string {
	prev, next := t.Disabled.Render(prevLabel), t.Disabled.Render(nextLabel)
	if tbl.CanPrev() {
		prev = t.Enabled.Render(prevLabel)
	}
	if tbl.CanNext() {
		next = t.Enabled.Render(nextLabel)
	}
	controls := prev + "  " + t.MutedText.Render(tbl.PagerView()) + "  " + next
	left := t.MutedText.Render(tbl.Footer())

	gap := width - lipgloss.Width(left) - lipgloss.Width(controls)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + controls
}
