package model

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

func TestSeverityRank(t *testing.T) {
	tests := []struct {
		sev  Severity
		want int
	}{
		{SeverityCritical, 4},
		{SeverityHigh, 3},
		{SeverityMedium, 2},
		{SeverityLow, 1},
		{Severity("blocker"), 0},
		{Severity(""), 0},
	}
	for _, tt := range tests {
		if got := tt.sev.Rank(); got != tt.want {
			t.Errorf("Rank(%q) = %d, want %d", tt.sev, got, tt.want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	tests := map[Status]string{
		StatusOpen:       "Open",
		StatusInProgress: "In Progress",
		StatusResolved:   "Resolved",
		StatusClosed:     "Closed",
	}
	for st, want := range tests {
		if got := st.Label(); got != want {
			t.Errorf("Label(%q) = %q, want %q", st, got, want)
		}
	}
}

func TestLabel_MultiByteFirstLetter(t *testing.T) {
	got := Status("élan-über").Label()
	if got != "Élan Über" {
		t.Errorf("Label = %q, want %q", got, "Élan Über")
	}
	if !utf8.ValidString(got) {
		t.Errorf("Label produced invalid UTF-8: %q", got)
	}
}

func TestBugValidate(t *testing.T) {
	good := Bug{ID: "1", Title: "Login fails", Status: StatusOpen, Severity: SeverityHigh}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid bug, got %v", err)
	}

	tests := []struct {
		name string
		mod  func(*Bug)
		want error
	}{
		{"empty id", func(b *Bug) { b.ID = " " }, ErrMissingID},
		{"empty title", func(b *Bug) { b.Title = "" }, ErrMissingTitle},
		{"bad status", func(b *Bug) { b.Status = "blocked" }, ErrInvalidStatus},
		{"bad severity", func(b *Bug) { b.Severity = "urgent" }, ErrInvalidSeverity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := good
			tt.mod(&b)
			if err := b.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBugUnmarshalJSON_NumericAndStringIDs(t *testing.T) {
	input := `[
		{"id": 1, "title": "Login fails", "status": "open", "severity": "high", "assignedTo": "John Doe"},
		{"id": "BUG-2", "title": "Logout slow", "status": "resolved", "severity": "low"}
	]`
	var bugs []Bug
	if err := json.Unmarshal([]byte(input), &bugs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(bugs) != 2 {
		t.Fatalf("expected 2 bugs, got %d", len(bugs))
	}
	if bugs[0].ID != "1" {
		t.Errorf("expected id %q, got %q", "1", bugs[0].ID)
	}
	if bugs[1].ID != "BUG-2" {
		t.Errorf("expected id %q, got %q", "BUG-2", bugs[1].ID)
	}
	if name, ok := bugs[0].Assignee(); !ok || name != "John Doe" {
		t.Errorf("expected assignee John Doe, got %q (ok=%v)", name, ok)
	}
	if _, ok := bugs[1].Assignee(); ok {
		t.Error("expected second bug to be unassigned")
	}
}

func TestBugUnmarshalJSON_RejectsObjectID(t *testing.T) {
	var b Bug
	if err := json.Unmarshal([]byte(`{"id": {"x": 1}, "title": "t"}`), &b); err == nil {
		t.Error("expected error for object id")
	}
}

func TestBugUnmarshalYAML_NumericID(t *testing.T) {
	input := `
- id: 7
  title: Crash on save
  status: in-progress
  severity: critical
  reportedBy: Jane Smith
`
	var bugs []Bug
	if err := yaml.Unmarshal([]byte(input), &bugs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(bugs) != 1 || bugs[0].ID != "7" {
		t.Fatalf("expected one bug with id 7, got %+v", bugs)
	}
	if bugs[0].Status != StatusInProgress {
		t.Errorf("expected status in-progress, got %q", bugs[0].Status)
	}
}

func TestParseRole(t *testing.T) {
	for _, in := range []string{"developer", " Tester ", "MANAGER"} {
		if _, err := ParseRole(in); err != nil {
			t.Errorf("ParseRole(%q) unexpected error: %v", in, err)
		}
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestScope(t *testing.T) {
	users := Users{Developer: "John Doe", Tester: "Jane Smith"}
	bugs := []Bug{
		{ID: "1", AssignedTo: StringPtr("John Doe"), ReportedBy: "Jane Smith"},
		{ID: "2", AssignedTo: StringPtr("Sarah Lee"), ReportedBy: "Jane Smith"},
		{ID: "3", ReportedBy: "Mike Chen"},
		{ID: "4", AssignedTo: StringPtr("John Doe"), ReportedBy: "Mike Chen"},
	}

	ids := func(bs []Bug) []string {
		var out []string
		for _, b := range bs {
			out = append(out, b.ID)
		}
		return out
	}

	tests := []struct {
		role Role
		want []string
	}{
		{RoleDeveloper, []string{"1", "4"}},
		{RoleTester, []string{"1", "2"}},
		{RoleManager, []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		got := ids(Scope(bugs, tt.role, users))
		if len(got) != len(tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.role, tt.want, got)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: expected %v, got %v", tt.role, tt.want, got)
				break
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	bugs := []Bug{
		{ID: "1", Status: StatusOpen, Severity: SeverityHigh},
		{ID: "2", Status: StatusResolved, Severity: SeverityLow, AssignedTo: StringPtr("a")},
		{ID: "3", Status: StatusClosed, Severity: SeverityLow},
		{ID: "4", Status: StatusInProgress, Severity: SeverityCritical, AssignedTo: StringPtr("b")},
		{ID: "5", Status: "blocked", Severity: SeverityMedium},
		{ID: "6", Status: StatusOpen, Severity: SeverityMedium, AssignedTo: StringPtr("")},
	}
	s := Summarize(bugs)
	if s.Total != 6 || s.Open != 2 || s.InProgress != 1 || s.Resolved != 1 || s.Closed != 1 || s.Unknown != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.Unassigned != 4 {
		t.Errorf("expected 4 unassigned, got %d", s.Unassigned)
	}
	if s.BySeverity[SeverityLow] != 2 {
		t.Errorf("expected 2 low, got %d", s.BySeverity[SeverityLow])
	}
	// (1+1)/6 = 33.3%
	if got := s.CompletionPercent(); got != 33 {
		t.Errorf("expected 33%%, got %d%%", got)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.CompletionPercent() != 0 {
		t.Errorf("expected 0%% for empty set, got %d", s.CompletionPercent())
	}
	if s.Fraction(StatusOpen) != 0 {
		t.Errorf("expected 0 fraction for empty set, got %f", s.Fraction(StatusOpen))
	}
}
