package tableview

import "github.com/vanderheijden86/bugdash/pkg/model"

// Unassigned is shown in place of a missing assignee.
const Unassigned = "Unassigned"

// NoResults is the placeholder row for an empty result.
const NoResults = "No results found."

// ColumnSpec describes one rendered column.
type ColumnSpec struct {
	Column Column
	Header string
	// Width is the preferred cell width; 0 means flexible.
	Width int
}

// DefaultColumns is the fixed table layout.
func DefaultColumns() []ColumnSpec {
	return []ColumnSpec{
		{Column: ColumnID, Header: "ID", Width: 8},
		{Column: ColumnTitle, Header: "Title"},
		{Column: ColumnSeverity, Header: "Severity", Width: 10},
		{Column: ColumnStatus, Header: "Status", Width: 14},
		{Column: ColumnAssignee, Header: "Assigned To", Width: 16},
		{Column: ColumnDateReported, Header: "Reported", Width: 12},
	}
}

// CellText returns the unstyled text for column c of b.
func CellText(c Column, b *model.Bug) string {
	switch c {
	case ColumnID:
		return "#" + b.ID
	case ColumnTitle:
		return b.Title
	case ColumnSeverity:
		return b.Severity.Label()
	case ColumnStatus:
		return b.Status.Label()
	case ColumnAssignee:
		if name, ok := b.Assignee(); ok {
			return name
		}
		return Unassigned
	case ColumnDateReported:
		return b.DateReported
	default:
		return ""
	}
}
