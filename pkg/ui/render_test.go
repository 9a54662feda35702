package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/bugdash/pkg/model"
	"github.com/vanderheijden86/bugdash/pkg/tableview"
)

func renderBugs() []model.Bug {
	return []model.Bug{
		{ID: "1", Title: "Login fails", Status: model.StatusOpen, Severity: model.SeverityHigh, AssignedTo: model.StringPtr("John Doe"), DateReported: "2023-05-15"},
		{ID: "2", Title: "Typo on homepage", Status: model.StatusResolved, Severity: model.SeverityLow, DateReported: "2023-05-16"},
	}
}

func TestRenderHeader(t *testing.T) {
	out := renderHeader(TestTheme(), ViewConfig{Theme: "dark", Role: model.RoleManager}, 100)
	if !strings.Contains(out, model.RoleManager.Title()) {
		t.Errorf("expected role title in header:\n%s", out)
	}
	if !strings.Contains(out, "dark theme") {
		t.Errorf("expected theme name in header:\n%s", out)
	}
	if !strings.Contains(out, model.RoleManager.Description()) {
		t.Errorf("expected role description in header:\n%s", out)
	}
}

func TestRenderSummary(t *testing.T) {
	s := model.Summarize(renderBugs())
	out := renderSummary(TestTheme(), s, 200)

	for _, want := range []string{"50%", "Completion (2 total)", "Open", "In Progress", "Resolved", "Closed"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	wide := lipgloss.Height(out)
	narrow := lipgloss.Height(renderSummary(TestTheme(), s, 40))
	if narrow <= wide {
		t.Errorf("expected cards to wrap when narrow, heights %d vs %d", narrow, wide)
	}
}

func TestProgressBar(t *testing.T) {
	theme := TestTheme()
	for _, f := range []float64{-1, 0, 0.5, 1, 2} {
		if w := lipgloss.Width(progressBar(theme, f, barWidth, theme.Primary)); w != barWidth {
			t.Errorf("progressBar(%v): width %d, want %d", f, w, barWidth)
		}
	}
}

func TestColumnWidths(t *testing.T) {
	cols := tableview.DefaultColumns()
	widths := columnWidths(cols, 120)

	total := len(cursorMarker) + len(cols) - 1
	for _, w := range widths {
		total += w
	}
	if total != 120 {
		t.Errorf("expected columns to fill the row, got %d", total)
	}

	narrow := columnWidths(cols, 20)
	for i, c := range cols {
		if c.Width == 0 && narrow[i] != minTitleWidth {
			t.Errorf("expected flexible column to clamp to %d, got %d", minTitleWidth, narrow[i])
		}
	}
	if minTableWidth(cols) > 120 {
		t.Errorf("default columns should fit in 120 cells")
	}
}

func TestRenderTable(t *testing.T) {
	theme := TestTheme()
	tbl := tableview.New(renderBugs(), tableview.WithPageSize(5))

	out := renderTable(theme, tbl, 0, 100)
	for _, want := range []string{"Login fails", "Typo on homepage", tableview.Unassigned, cursorMarker, "Showing 2 of 2 items"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	// header + page rows + pager
	if h := lipgloss.Height(out); h != 1+5+1 {
		t.Errorf("expected fixed height 7, got %d", h)
	}

	tbl.SetSearch("nothing matches this")
	out = renderTable(theme, tbl, 0, 100)
	if !strings.Contains(out, tableview.NoResults) {
		t.Errorf("expected empty placeholder:\n%s", out)
	}
}

func TestRenderTableHeader_SortIndicator(t *testing.T) {
	tbl := tableview.New(renderBugs())
	tbl.SetSort(tableview.SortKey{Column: tableview.ColumnID, Direction: tableview.Ascending})

	cols := tbl.Columns()
	out := renderTableHeader(TestTheme(), tbl, columnWidths(cols, 120), 120)
	want := "ID " + tableview.Ascending.Indicator()
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in header %q", want, out)
	}
}
