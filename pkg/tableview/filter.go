// Package tableview derives the visible rows of the bug table from an
// immutable record set: text search, categorical filters, a stable column
// sort, and fixed-size pages.
//
// Everything here is synchronous and owned by a single caller (the UI
// model), so there is no locking.
package tableview

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/bugdash/pkg/model"
)

// All is the wildcard value for categorical filters.
const All = "all"

// Query holds the user-controlled filter inputs.
type Query struct {
	Search   string
	Status   string
	Severity string
}

// DefaultQuery matches every record.
func DefaultQuery() Query {
	return Query{Status: All, Severity: All}
}

// IsZero reports whether q admits every record.
func (q Query) IsZero() bool {
	return q.Search == "" && isWildcard(q.Status) && isWildcard(q.Severity)
}

func isWildcard(v string) bool {
	return v == "" || v == All
}

// Matches applies search, status and severity in that order.
func (q Query) Matches(b *model.Bug) bool {
	return MatchesSearch(b, q.Search) &&
		(isWildcard(q.Status) || string(b.Status) == q.Status) &&
		(isWildcard(q.Severity) || string(b.Severity) == q.Severity)
}

// MatchesSearch reports whether search appears case-insensitively in the
// bug's title, ID or assignee. An empty search matches everything and an
// unassigned bug contributes nothing from the assignee field.
func MatchesSearch(b *model.Bug, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(b.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(b.ID), needle) {
		return true
	}
	if name, ok := b.Assignee(); ok && strings.Contains(strings.ToLower(name), needle) {
		return true
	}
	return false
}

// Predicate is an extra caller-supplied filter, ANDed after the query.
type Predicate func(*model.Bug) bool

// FilterError reports a failure raised while evaluating predicates.
type FilterError struct {
	Recovered any
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filtering records: %v", e.Recovered)
}

// Filter returns the indices of records matching q and every predicate, in
// input order. A panic inside any predicate is converted into a
// *FilterError and the result is empty.
func Filter(records []model.Bug, q Query, preds ...Predicate) (idx []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			idx = nil
			err = &FilterError{Recovered: r}
		}
	}()

	idx = make([]int, 0, len(records))
	for i := range records {
		b := &records[i]
		if !q.Matches(b) {
			continue
		}
		if !matchesAll(b, preds) {
			continue
		}
		idx = append(idx, i)
	}
	return idx, nil
}

func matchesAll(b *model.Bug, preds []Predicate) bool {
	for _, p := range preds {
		if p != nil && !p(b) {
			return false
		}
	}
	return true
}

// countInScope counts the records passing every predicate. A panicking
// predicate counts as zero, like Filter.
func countInScope(records []model.Bug, preds []Predicate) (n int) {
	if len(preds) == 0 {
		return len(records)
	}
	defer func() {
		if r := recover(); r != nil {
			n = 0
		}
	}()
	for i := range records {
		if matchesAll(&records[i], preds) {
			n++
		}
	}
	return n
}
