package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/bugdash/pkg/model"
)

func fixedNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func sampleBugs() []model.Bug {
	return []model.Bug{
		{
			ID: "1", Title: "Login fails", Status: model.StatusOpen, Severity: model.SeverityHigh,
			AssignedTo: model.StringPtr("John Doe"), ReportedBy: "Jane Smith", DateReported: "2023-05-15",
			Description: "Password accepted but session missing.",
			Comments: []*model.Comment{
				{Author: "Alex", Text: "Repro on staging.\nSee logs.", Date: "2023-05-16"},
				nil,
			},
		},
		{ID: "2", Title: "Logout slow", Status: model.StatusResolved, Severity: model.SeverityLow},
		{ID: "3", Title: "Login fails", Status: "blocked", Severity: "urgent", AssignedTo: model.StringPtr("A|B")},
	}
}

func TestGenerateMarkdown_Summary(t *testing.T) {
	fixedNow(t)
	md, err := GenerateMarkdown(sampleBugs(), "Team Bugs")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"# Team Bugs\n",
		"*Generated: Thu, 01 Jun 2023 09:00:00 UTC*",
		"| **Total** | 3 |",
		"| 🟢 Open | 1 |",
		"| ✅ Resolved | 1 |",
		"| Unassigned | 1 |",
		"| **Completion** | 33% |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected report to contain %q", want)
		}
	}
}

func TestGenerateMarkdown_SectionsInOrderWithUniqueAnchors(t *testing.T) {
	fixedNow(t)
	md, err := GenerateMarkdown(sampleBugs(), "Bugs")
	if err != nil {
		t.Fatal(err)
	}

	first := strings.Index(md, "## #1 Login fails")
	second := strings.Index(md, "## #2 Logout slow")
	third := strings.Index(md, "## #3 Login fails")
	if first < 0 || second < 0 || third < 0 || !(first < second && second < third) {
		t.Fatalf("expected sections in input order, got %d %d %d", first, second, third)
	}
	if !strings.Contains(md, `<a id="1-login-fails"></a>`) || !strings.Contains(md, `<a id="3-login-fails"></a>`) {
		t.Error("expected anchors derived from the heading")
	}
	if !strings.Contains(md, "(#2-logout-slow)") {
		t.Error("expected table of contents link")
	}
}

func TestGenerateMarkdown_Empty(t *testing.T) {
	fixedNow(t)
	md, err := GenerateMarkdown(nil, "Nothing")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "_No bugs match._") || !strings.Contains(md, "| **Completion** | 0% |") {
		t.Errorf("unexpected empty report:\n%s", md)
	}
}

func TestBugMarkdown(t *testing.T) {
	bugs := sampleBugs()

	md := BugMarkdown(&bugs[0])
	for _, want := range []string{
		"# #1 Login fails\n",
		"| **Status** | 🟢 Open |",
		"| **Severity** | ⚡ High |",
		"| **Assigned To** | John Doe |",
		"| **Reported By** | Jane Smith |",
		"## Description\n\nPassword accepted but session missing.",
		"> **Alex** (2023-05-16)\n>\n> Repro on staging.\n> See logs.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in:\n%s", want, md)
		}
	}

	md = BugMarkdown(&bugs[1])
	if !strings.Contains(md, "| **Assigned To** | _Unassigned_ |") {
		t.Errorf("expected unassigned marker in:\n%s", md)
	}
	if strings.Contains(md, "Description") || strings.Contains(md, "Comments") {
		t.Error("expected empty sections to be omitted")
	}

	md = BugMarkdown(&bugs[2])
	for _, want := range []string{"???? (blocked)", "???? (urgent)", `A\|B`} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in:\n%s", want, md)
		}
	}
}

func TestCreateSlug(t *testing.T) {
	tests := map[string]string{
		"#12 Login fails!": "12-login-fails",
		"  spaced   out  ": "spaced-out",
		"":                 "",
	}
	for in, want := range tests {
		if got := createSlug(in); got != want {
			t.Errorf("createSlug(%q) = %q; want %q", in, got, want)
		}
	}

	counts := map[string]int{}
	got := []string{uniqueSlug("a", counts), uniqueSlug("a", counts), uniqueSlug("", counts)}
	want := []string{"a", "a-1", "section"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("uniqueSlug #%d = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestSaveMarkdownToFile(t *testing.T) {
	fixedNow(t)
	path := filepath.Join(t.TempDir(), "report.md")
	if err := SaveMarkdownToFile(sampleBugs(), "Export", path); err != nil {
		t.Fatalf("SaveMarkdownToFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Export\n") {
		t.Errorf("unexpected file head %q", string(data[:20]))
	}

	if err := SaveMarkdownToFile(nil, "x", filepath.Join(t.TempDir(), "missing", "r.md")); err == nil {
		t.Error("expected error for missing directory")
	}
}
