package model

import "math"

// Summary holds per-status and per-severity counts for a set of bugs.
type Summary struct {
	Total      int
	Open       int
	InProgress int
	Resolved   int
	Closed     int
	Unassigned int
	Unknown    int
	BySeverity map[Severity]int
}

// Summarize counts bugs by status, severity and assignment.
func Summarize(bugs []Bug) Summary {
	s := Summary{Total: len(bugs), BySeverity: make(map[Severity]int)}
	for i := range bugs {
		b := &bugs[i]
		switch b.Status {
		case StatusOpen:
			s.Open++
		case StatusInProgress:
			s.InProgress++
		case StatusResolved:
			s.Resolved++
		case StatusClosed:
			s.Closed++
		default:
			s.Unknown++
		}
		s.BySeverity[b.Severity]++
		if _, ok := b.Assignee(); !ok {
			s.Unassigned++
		}
	}
	return s
}

// Count returns the number of bugs with status st.
func (s Summary) Count(st Status) int {
	switch st {
	case StatusOpen:
		return s.Open
	case StatusInProgress:
		return s.InProgress
	case StatusResolved:
		return s.Resolved
	case StatusClosed:
		return s.Closed
	}
	return 0
}

// Fraction returns the share of bugs with status st in [0,1].
func (s Summary) Fraction(st Status) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Count(st)) / float64(s.Total)
}

// CompletionPercent is round((resolved+closed)/total*100), or 0 when empty.
func (s Summary) CompletionPercent() int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Resolved+s.Closed) / float64(s.Total) * 100))
}
