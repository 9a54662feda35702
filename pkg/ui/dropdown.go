package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/vanderheijden86/bugdash/pkg/model"
	"github.com/vanderheijden86/bugdash/pkg/tableview"
)

// DropdownOption is a single selectable item in a dropdown overlay.
type DropdownOption struct {
	Label string // Display text
	Value string // Value applied on selection
}

// dropdownKind identifies what a dropdown changes.
type dropdownKind int

const (
	dropdownStatus dropdownKind = iota
	dropdownSeverity
	dropdownSort
	dropdownRole
)

// Dropdown is a floating menu anchored below the filter bar. It captures
// all keyboard input while open: up/down to move, enter to select, esc to
// dismiss.
type Dropdown struct {
	Title   string
	Options []DropdownOption
	Cursor  int
	kind    dropdownKind
}

// MoveUp moves the cursor up by one, wrapping to the bottom.
func (d *Dropdown) MoveUp() {
	d.Cursor--
	if d.Cursor < 0 {
		d.Cursor = len(d.Options) - 1
	}
}

// MoveDown moves the cursor down by one, wrapping to the top.
func (d *Dropdown) MoveDown() {
	d.Cursor++
	if d.Cursor >= len(d.Options) {
		d.Cursor = 0
	}
}

// Selected returns the currently highlighted option.
func (d *Dropdown) Selected() DropdownOption {
	return d.Options[d.Cursor]
}

// focusValue puts the cursor on the option with the given value, if any.
func (d *Dropdown) focusValue(v string) {
	for i, o := range d.Options {
		if o.Value == v {
			d.Cursor = i
			return
		}
	}
}

// Width returns the visible width of every rendered line.
func (d *Dropdown) Width() int {
	maxLabelWidth := ansi.StringWidth(d.Title)
	for _, o := range d.Options {
		if w := ansi.StringWidth(o.Label); w > maxLabelWidth {
			maxLabelWidth = w
		}
	}
	// " > LABEL " plus one column of padding either side
	return 2 + maxLabelWidth + 2
}

// Render produces the dropdown lines for overlay splicing. Each line has
// the same visible width.
func (d *Dropdown) Render(t Theme) []string {
	total := d.Width()
	inner := total - 2

	pad := func(s string) string {
		if gap := inner - ansi.StringWidth(s); gap > 0 {
			s += strings.Repeat(" ", gap)
		}
		return " " + s + " "
	}

	lines := []string{t.Menu.Bold(true).Render(pad(d.Title))}
	for i, o := range d.Options {
		marker := "  "
		style := t.Menu
		if i == d.Cursor {
			marker = "> "
			style = t.MenuItem
		}
		lines = append(lines, style.Render(pad(marker+o.Label)))
	}
	return lines
}

func statusDropdown(current string) *Dropdown {
	d := &Dropdown{Title: "Status", kind: dropdownStatus}
	d.Options = append(d.Options, DropdownOption{Label: "All", Value: tableview.All})
	for _, st := range model.AllStatuses() {
		d.Options = append(d.Options, DropdownOption{Label: st.Label(), Value: string(st)})
	}
	d.focusValue(current)
	return d
}

func severityDropdown(current string) *Dropdown {
	d := &Dropdown{Title: "Severity", kind: dropdownSeverity}
	d.Options = append(d.Options, DropdownOption{Label: "All", Value: tableview.All})
	for _, sev := range model.AllSeverities() {
		d.Options = append(d.Options, DropdownOption{Label: sev.Label(), Value: string(sev)})
	}
	d.focusValue(current)
	return d
}

func sortDropdown(current tableview.SortKey) *Dropdown {
	d := &Dropdown{Title: "Sort", kind: dropdownSort}
	for _, p := range tableview.SortPresets() {
		d.Options = append(d.Options, DropdownOption{Label: p.Label, Value: p.Key.String()})
	}
	d.focusValue(current.String())
	return d
}

func roleDropdown(current model.Role) *Dropdown {
	d := &Dropdown{Title: "View as", kind: dropdownRole}
	for _, r := range model.AllRoles() {
		d.Options = append(d.Options, DropdownOption{Label: r.Label() + " · " + r.Title(), Value: string(r)})
	}
	d.focusValue(string(current))
	return d
}

// overlay splices lines over base starting at column x of row y.
func overlay(base string, lines []string, x, y int) string {
	rows := strings.Split(base, "\n")
	for i, line := range lines {
		row := y + i
		for row >= len(rows) {
			rows = append(rows, "")
		}
		under := rows[row]
		if w := ansi.StringWidth(under); w < x {
			under += strings.Repeat(" ", x-w)
		}
		left := ansi.Truncate(under, x, "")
		right := ansi.TruncateLeft(under, x+ansi.StringWidth(line), "")
		rows[row] = left + line + right
	}
	return strings.Join(rows, "\n")
}

// sortLabel names k the way the sort menu does, falling back to the column
// and direction for header toggles.
func sortLabel(k tableview.SortKey) string {
	for _, p := range tableview.SortPresets() {
		if p.Key == k {
			return p.Label
		}
	}
	return k.Column.String() + " " + k.Direction.Indicator()
}
