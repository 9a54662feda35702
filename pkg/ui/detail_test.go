package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/vanderheijden86/bugdash/pkg/config"
	"github.com/vanderheijden86/bugdash/pkg/model"
)

func TestDetailPane_Lifecycle(t *testing.T) {
	d := newDetailPane()
	if d.Open() || d.Bug() != nil {
		t.Fatal("new pane should be closed")
	}

	b := &model.Bug{
		ID:          "7",
		Title:       "Crash on save",
		Description: "Saving a draft crashes the editor.",
		Status:      model.StatusOpen,
		Severity:    model.SeverityCritical,
	}
	d.Show(b, config.ThemeDark, 60, 20)
	if !d.Open() || d.Bug() != b {
		t.Fatal("expected pane to show the bug")
	}

	out := ansi.Strip(d.View(TestTheme()))
	for _, want := range []string{"Crash on save", "esc close"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail view missing %q:\n%s", want, out)
		}
	}

	d.SetTheme(config.ThemeLight)
	if !strings.Contains(ansi.Strip(d.View(TestTheme())), "Crash on save") {
		t.Error("expected content to survive a theme switch")
	}

	d.Close()
	if d.Open() {
		t.Error("expected pane to be closed")
	}
}
