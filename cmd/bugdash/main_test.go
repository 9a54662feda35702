package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/bugdash/pkg/config"
	"github.com/vanderheijden86/bugdash/pkg/tableview"
	"github.com/vanderheijden86/bugdash/pkg/testutil"
)

// clearEnv keeps the developer's own BUGDASH_* settings out of the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BUGDASH_ROLE", "BUGDASH_THEME", "BUGDASH_SORT", "BUGDASH_PAGE_SIZE",
		"BUGDASH_DATA", "BUGDASH_WATCH", "BUGDASH_CONFIG", "BUGDASH_DEBUG",
	} {
		t.Setenv(k, "")
	}
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "--version")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.HasPrefix(out, "bugdash ") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestRun_HelpAndBadFlags(t *testing.T) {
	code, _, errOut := runCLI(t, "--help")
	if code != exitOK {
		t.Errorf("--help: expected exit 0, got %d", code)
	}
	if !strings.Contains(errOut, "Usage: bugdash") {
		t.Errorf("expected usage text, got %q", errOut)
	}

	if code, _, _ := runCLI(t, "--no-such-flag"); code != exitUsage {
		t.Errorf("unknown flag: expected exit %d, got %d", exitUsage, code)
	}
}

func TestRun_InvalidValues(t *testing.T) {
	clearEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	tests := []struct {
		name string
		args []string
	}{
		{"status", []string{"--status", "wontfix"}},
		{"severity", []string{"--severity", "urgent"}},
		{"role", []string{"--role", "admin"}},
		{"theme", []string{"--theme", "solarized"}},
		{"sort", []string{"--sort", "color"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", cfgPath}, tt.args...)
			code, _, errOut := runCLI(t, args...)
			if code != exitUsage {
				t.Errorf("expected exit %d, got %d (%s)", exitUsage, code, errOut)
			}
		})
	}
}

func TestRun_MissingDataFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	code, _, errOut := runCLI(t,
		"--config", filepath.Join(dir, "config.yaml"),
		"--export-md", filepath.Join(dir, "out.md"),
		filepath.Join(dir, "missing.json"))
	if code != exitError {
		t.Errorf("expected exit %d, got %d", exitError, code)
	}
	if !strings.Contains(errOut, "Error loading bugs") {
		t.Errorf("expected load error, got %q", errOut)
	}
}

func TestRun_ExportMarkdown(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	data := testutil.WriteFixture(t, dir, "bugs.json", testutil.Scenario())
	out := filepath.Join(dir, "report.md")

	code, stdout, errOut := runCLI(t,
		"--config", filepath.Join(dir, "config.yaml"),
		"--role", "manager",
		"--status", "open",
		"--export-md", out,
		data)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	if !strings.Contains(stdout, "Exported to") {
		t.Errorf("expected confirmation, got %q", stdout)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	md := string(content)
	if !strings.Contains(md, "Login fails") {
		t.Error("expected the open bug in the export")
	}
	if strings.Contains(md, "Logout slow") {
		t.Error("resolved bug should be filtered out")
	}
}

func TestRun_ExportUsesConfigDataPaths(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	data := testutil.WriteFixture(t, dir, "bugs.yaml", testutil.Scenario())

	cfg := config.DefaultConfig()
	cfg.UI.DefaultRole = "manager"
	cfg.Data.Paths = []string{data}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := config.SaveTo(cfg, cfgPath); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	out := filepath.Join(dir, "report.md")
	code, _, errOut := runCLI(t, "--config", cfgPath, "--severity", "low", "--export-md", out)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(content), "Logout slow") {
		t.Error("expected the low-severity bug from the configured path")
	}
}

func TestResolveConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.UI.Theme = config.ThemeLight
	cfg.UI.PageSize = 25
	cfg.UI.DefaultRole = "tester"
	path := filepath.Join(dir, "config.yaml")
	if err := config.SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	env := map[string]string{"BUGDASH_ROLE": "manager", "BUGDASH_PAGE_SIZE": "15"}
	getenv := func(k string) string { return env[k] }

	var opts options
	fs := newFlagSet(&opts, &bytes.Buffer{})
	if err := fs.Parse([]string{"--page-size", "5", "--no-watch"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got, err := resolveConfig(path, &opts, fs, getenv)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if got.UI.Theme != config.ThemeLight {
		t.Errorf("file value should survive, got theme %q", got.UI.Theme)
	}
	if got.UI.DefaultRole != "manager" {
		t.Errorf("env should override file, got role %q", got.UI.DefaultRole)
	}
	if got.UI.PageSize != 5 {
		t.Errorf("flag should override env, got page size %d", got.UI.PageSize)
	}
	if got.WatchEnabled() {
		t.Error("--no-watch should disable live reload")
	}
}

func TestBuildQuery(t *testing.T) {
	q, err := buildQuery(options{search: "log", status: "", severity: "high"})
	if err != nil {
		t.Fatalf("buildQuery: %v", err)
	}
	want := tableview.Query{Search: "log", Status: tableview.All, Severity: "high"}
	if q != want {
		t.Errorf("got %+v, want %+v", q, want)
	}
}
