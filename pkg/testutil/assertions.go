package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vanderheijden86/bugdash/pkg/model"
)

// AssertBugCount fails the test if len(bugs) != expected.
func AssertBugCount(t *testing.T, bugs []model.Bug, expected int) {
	t.Helper()
	if len(bugs) != expected {
		t.Errorf("expected %d bugs, got %d", expected, len(bugs))
	}
}

// AssertNoDuplicateIDs fails the test if any bug ID appears twice.
func AssertNoDuplicateIDs(t *testing.T, bugs []model.Bug) {
	t.Helper()
	seen := make(map[string]bool, len(bugs))
	for _, b := range bugs {
		if seen[b.ID] {
			t.Errorf("duplicate bug ID: %s", b.ID)
		}
		seen[b.ID] = true
	}
}

// AssertAllValid fails the test if any bug fails validation.
func AssertAllValid(t *testing.T, bugs []model.Bug) {
	t.Helper()
	for i := range bugs {
		if err := bugs[i].Validate(); err != nil {
			t.Errorf("bug %d invalid: %v", i, err)
		}
	}
}

// AssertIDs fails the test unless the bugs carry exactly the given IDs in
// order.
func AssertIDs(t *testing.T, bugs []*model.Bug, expected ...string) {
	t.Helper()
	got := make([]string, len(bugs))
	for i, b := range bugs {
		got[i] = b.ID
	}
	if expected == nil {
		expected = []string{}
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("bug IDs mismatch (-want +got):\n%s", diff)
	}
}

// Ptrs returns pointers into bugs, the shape the table hands out.
func Ptrs(bugs []model.Bug) []*model.Bug {
	out := make([]*model.Bug, len(bugs))
	for i := range bugs {
		out[i] = &bugs[i]
	}
	return out
}

// FindBug returns the bug with the given ID, or nil if not found.
func FindBug(bugs []model.Bug, id string) *model.Bug {
	for i := range bugs {
		if bugs[i].ID == id {
			return &bugs[i]
		}
	}
	return nil
}

// CountByStatus returns a map of status -> count.
func CountByStatus(bugs []model.Bug) map[model.Status]int {
	counts := make(map[model.Status]int)
	for _, b := range bugs {
		counts[b.Status]++
	}
	return counts
}

// WriteFixture writes bugs to dir/name, encoded by the file extension
// (.json, .jsonl or .yaml), and returns the full path.
func WriteFixture(t *testing.T, dir, name string, bugs []model.Bug) string {
	t.Helper()

	var (
		content string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl":
		content, err = ToJSONL(bugs)
	case ".yaml", ".yml":
		content, err = ToYAML(bugs)
	default:
		content, err = ToJSON(bugs)
	}
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// GoldenFile compares rendered output against a file under testdata.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file, or rewrites the
// file when GENERATE_GOLDEN is set.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()
	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}
	if diff := cmp.Diff(strings.Split(string(expected), "\n"), strings.Split(actual, "\n")); diff != "" {
		g.t.Errorf("golden file %s mismatch (-want +got):\n%s", g.name, diff)
	}
}
