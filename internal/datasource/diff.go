package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/bugdash/pkg/model"
)

// StoreDiff describes how a reloaded store differs from the previous one.
type StoreDiff struct {
	// Added contains IDs present only after the reload
	Added []string
	// Removed contains IDs present only before the reload
	Removed []string
	// StatusChanged contains bugs whose status differs
	StatusChanged []StatusDifference
	// Edited contains IDs whose other fields changed
	Edited []string
	CountBefore int
	CountAfter  int
}

// StatusDifference represents a status change for a single bug
type StatusDifference struct {
	ID     string       `json:"id"`
	Before model.Status `json:"before"`
	After  model.Status `json:"after"`
}

// HasChanges returns true if anything differs between the two stores
func (d StoreDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.StatusChanged) > 0 || len(d.Edited) > 0
}

// Summary returns a one-line description suitable for the status bar.
func (d StoreDiff) Summary() string {
	if !d.HasChanges() {
		return fmt.Sprintf("reloaded %d bugs, no changes", d.CountAfter)
	}

	var parts []string
	if n := len(d.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("%d added", n))
	}
	if n := len(d.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", n))
	}
	if n := len(d.StatusChanged); n > 0 {
		if n == 1 {
			m := d.StatusChanged[0]
			parts = append(parts, fmt.Sprintf("#%s %s → %s", m.ID, m.Before.Label(), m.After.Label()))
		} else {
			parts = append(parts, fmt.Sprintf("%d status changes", n))
		}
	}
	if n := len(d.Edited); n > 0 {
		parts = append(parts, fmt.Sprintf("%d edited", n))
	}
	return fmt.Sprintf("reloaded %d bugs: %s", d.CountAfter, strings.Join(parts, ", "))
}

// Diff compares two stores by ID. Result slices are sorted by ID.
func Diff(before, after []model.Bug) StoreDiff {
	d := StoreDiff{CountBefore: len(before), CountAfter: len(after)}

	prev := make(map[string]*model.Bug, len(before))
	for i := range before {
		prev[before[i].ID] = &before[i]
	}
	next := make(map[string]*model.Bug, len(after))
	for i := range after {
		next[after[i].ID] = &after[i]
	}

	for id := range prev {
		if _, ok := next[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	for id, b := range next {
		a, ok := prev[id]
		if !ok {
			d.Added = append(d.Added, id)
			continue
		}
		if a.Status != b.Status {
			d.StatusChanged = append(d.StatusChanged, StatusDifference{ID: id, Before: a.Status, After: b.Status})
			continue
		}
		if edited(a, b) {
			d.Edited = append(d.Edited, id)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Edited)
	sort.Slice(d.StatusChanged, func(i, j int) bool {
		return d.StatusChanged[i].ID < d.StatusChanged[j].ID
	})
	return d
}

func edited(a, b *model.Bug) bool {
	if a.Title != b.Title || a.Description != b.Description ||
		a.Severity != b.Severity || a.ReportedBy != b.ReportedBy ||
		a.DateReported != b.DateReported || len(a.Comments) != len(b.Comments) {
		return true
	}
	an, aok := a.Assignee()
	bn, bok := b.Assignee()
	return aok != bok || an != bn
}
