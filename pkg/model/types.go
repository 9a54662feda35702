package model

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Bug represents a tracked defect. Bugs are read-only once loaded.
type Bug struct {
	ID           string     `json:"id" yaml:"id"`
	Title        string     `json:"title" yaml:"title"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status       Status     `json:"status" yaml:"status"`
	Severity     Severity   `json:"severity" yaml:"severity"`
	AssignedTo   *string    `json:"assignedTo,omitempty" yaml:"assignedTo,omitempty"`
	ReportedBy   string     `json:"reportedBy,omitempty" yaml:"reportedBy,omitempty"`
	DateReported string     `json:"dateReported,omitempty" yaml:"dateReported,omitempty"`
	Comments     []*Comment `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// Comment is a note left on a bug.
type Comment struct {
	Author string `json:"author" yaml:"author"`
	Text   string `json:"text" yaml:"text"`
	Date   string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Status represents where a bug is in its lifecycle. No transitions are
// enforced.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Severity represents how bad a bug is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}
}

// AllSeverities returns every known severity, most severe first.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Order returns the lifecycle position of s (open=1 .. closed=4), 0 if unknown.
func (s Status) Order() int {
	switch s {
	case StatusOpen:
		return 1
	case StatusInProgress:
		return 2
	case StatusResolved:
		return 3
	case StatusClosed:
		return 4
	}
	return 0
}

// Label returns the display form: dashes become spaces and each word is
// capitalized ("in-progress" -> "In Progress").
func (s Status) Label() string {
	return titleWords(strings.ReplaceAll(string(s), "-", " "))
}

// IsValid reports whether s is one of the known severities.
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// Rank maps severity onto an ordinal scale: critical=4, high=3, medium=2,
// low=1. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Label returns the capitalized severity name.
func (s Severity) Label() string {
	return titleWords(string(s))
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Assignee returns the assigned user and whether one is set. An empty
// name counts as unassigned.
func (b *Bug) Assignee() (string, bool) {
	if b.AssignedTo == nil || *b.AssignedTo == "" {
		return "", false
	}
	return *b.AssignedTo, true
}

// Validation errors.
var (
	ErrMissingID       = errors.New("bug ID cannot be empty")
	ErrMissingTitle    = errors.New("bug title cannot be empty")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidSeverity = errors.New("invalid severity")
)

// Validate checks required fields and enumerations. Callers decide whether
// an out-of-enum status or severity is fatal.
func (b *Bug) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("bug %s: %w", b.ID, ErrMissingTitle)
	}
	if !b.Status.IsValid() {
		return fmt.Errorf("bug %s: %w %q", b.ID, ErrInvalidStatus, b.Status)
	}
	if !b.Severity.IsValid() {
		return fmt.Errorf("bug %s: %w %q", b.ID, ErrInvalidSeverity, b.Severity)
	}
	return nil
}

// bugWire mirrors Bug for decoding, with the ID left raw.
type bugWire struct {
	ID           json.RawMessage `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Status       Status          `json:"status"`
	Severity     Severity        `json:"severity"`
	AssignedTo   *string         `json:"assignedTo"`
	ReportedBy   string          `json:"reportedBy"`
	DateReported string          `json:"dateReported"`
	Comments     []*Comment      `json:"comments"`
}

// UnmarshalJSON accepts the ID either as a JSON string or a JSON number.
func (b *Bug) UnmarshalJSON(data []byte) error {
	var w bugWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id, err := decodeID(w.ID)
	if err != nil {
		return err
	}
	*b = Bug{
		ID:           id,
		Title:        w.Title,
		Description:  w.Description,
		Status:       w.Status,
		Severity:     w.Severity,
		AssignedTo:   w.AssignedTo,
		ReportedBy:   w.ReportedBy,
		DateReported: w.DateReported,
		Comments:     w.Comments,
	}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decoding id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or number: %w", err)
	}
	return n.String(), nil
}

// StringPtr returns a pointer to s. Handy for building optional fields.
func StringPtr(s string) *string {
	return &s
}
