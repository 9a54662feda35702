package tableview

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/vanderheijden86/bugdash/pkg/model"
)

// Column identifies a table column.
type Column int

const (
	ColumnNone Column = iota // No sort; input order is kept
	ColumnID
	ColumnTitle
	ColumnSeverity
	ColumnStatus
	ColumnAssignee
	ColumnDateReported
)

// String returns the column header text.
func (c Column) String() string {
	switch c {
	case ColumnID:
		return "ID"
	case ColumnTitle:
		return "Title"
	case ColumnSeverity:
		return "Severity"
	case ColumnStatus:
		return "Status"
	case ColumnAssignee:
		return "Assigned To"
	case ColumnDateReported:
		return "Reported"
	default:
		return "None"
	}
}

// ParseColumn accepts the lowercase column keys used in config and flags.
func ParseColumn(s string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ColumnNone, nil
	case "id":
		return ColumnID, nil
	case "title":
		return ColumnTitle, nil
	case "severity":
		return ColumnSeverity, nil
	case "status":
		return ColumnStatus, nil
	case "assignee", "assignedto":
		return ColumnAssignee, nil
	case "date", "datereported", "reported":
		return ColumnDateReported, nil
	}
	return ColumnNone, fmt.Errorf("unknown column %q", s)
}

// Key is the lowercase identifier accepted by ParseColumn.
func (c Column) Key() string {
	switch c {
	case ColumnID:
		return "id"
	case ColumnTitle:
		return "title"
	case ColumnSeverity:
		return "severity"
	case ColumnStatus:
		return "status"
	case ColumnAssignee:
		return "assignee"
	case ColumnDateReported:
		return "date"
	default:
		return "none"
	}
}

// Direction is ascending or descending sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String returns a human-readable label for the direction.
func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// Indicator returns the arrow shown next to a sorted header.
func (d Direction) Indicator() string {
	if d == Ascending {
		return "▲"
	}
	return "▼"
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// SortKey selects the sort column and direction.
type SortKey struct {
	Column    Column
	Direction Direction
}

// String renders the key as "column:direction".
func (k SortKey) String() string {
	if k.Column == ColumnNone {
		return "none"
	}
	return k.Column.Key() + ":" + k.Direction.String()
}

// ParseSortKey parses "column" or "column:asc|desc".
func ParseSortKey(s string) (SortKey, error) {
	col, dir, _ := strings.Cut(s, ":")
	c, err := ParseColumn(col)
	if err != nil {
		return SortKey{}, err
	}
	k := SortKey{Column: c}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		k.Direction = Descending
	default:
		return SortKey{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return k, nil
}

// SortPreset is a named entry in the sort menu.
type SortPreset struct {
	Label string
	Key   SortKey
}

// SortPresets returns the sort menu entries.
func SortPresets() []SortPreset {
	return []SortPreset{
		{Label: "Newest first", Key: SortKey{ColumnDateReported, Descending}},
		{Label: "Oldest first", Key: SortKey{ColumnDateReported, Ascending}},
		{Label: "Highest severity", Key: SortKey{ColumnSeverity, Descending}},
		{Label: "Lowest severity", Key: SortKey{ColumnSeverity, Ascending}},
		{Label: "Unsorted", Key: SortKey{}},
	}
}

// Compare orders a and b by column c in ascending order.
func Compare(c Column, a, b *model.Bug) int {
	switch c {
	case ColumnID:
		return compareIDs(a.ID, b.ID)
	case ColumnTitle:
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case ColumnSeverity:
		return cmp.Compare(a.Severity.Rank(), b.Severity.Rank())
	case ColumnStatus:
		return cmp.Compare(a.Status.Order(), b.Status.Order())
	case ColumnAssignee:
		return compareAssignees(a, b)
	case ColumnDateReported:
		return strings.Compare(a.DateReported, b.DateReported)
	default:
		return 0
	}
}

// compareIDs orders integer IDs numerically ahead of all other IDs, which
// compare as strings.
func compareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// compareAssignees places unassigned bugs after assigned ones.
func compareAssignees(a, b *model.Bug) int {
	na, okA := a.Assignee()
	nb, okB := b.Assignee()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	return cmp.Compare(strings.ToLower(na), strings.ToLower(nb))
}

// SortIndices stably reorders idx (indices into records) by key.
func SortIndices(records []model.Bug, idx []int, key SortKey) {
	if key.Column == ColumnNone {
		return
	}
	slices.SortStableFunc(idx, func(i, j int) int {
		c := Compare(key.Column, &records[i], &records[j])
		if key.Direction == Descending {
			return -c
		}
		return c
	})
}
