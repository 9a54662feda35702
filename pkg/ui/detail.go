package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/bugdash/pkg/config"
	"github.com/vanderheijden86/bugdash/pkg/export"
	"github.com/vanderheijden86/bugdash/pkg/model"
)

// MinDetailPaneWidth is the narrowest split-view detail pane; below it the
// pane takes the whole body.
const MinDetailPaneWidth = 40

// detailPane shows one bug rendered as markdown inside a scrollable
// viewport.
type detailPane struct {
	bug      *model.Bug
	viewport viewport.Model
	theme    string
	width    int
}

func newDetailPane() detailPane {
	return detailPane{viewport: viewport.New(0, 0)}
}

// Open reports whether a bug is shown.
func (d *detailPane) Open() bool {
	return d.bug != nil
}

// Bug returns the shown bug, or nil.
func (d *detailPane) Bug() *model.Bug {
	return d.bug
}

// Show renders b at the given size. The bug pointer is kept so a reload can
// look the record up again by ID.
func (d *detailPane) Show(b *model.Bug, theme string, width, height int) {
	d.bug = b
	d.theme = theme
	d.SetSize(width, height)
}

// Close hides the pane.
func (d *detailPane) Close() {
	d.bug = nil
	d.viewport.SetContent("")
}

// SetSize resizes the viewport and re-renders when the wrap width changed.
func (d *detailPane) SetSize(width, height int) {
	d.viewport.Width = width
	d.viewport.Height = height
	if d.bug != nil {
		d.width = width
		d.render()
	}
}

// SetTheme re-renders with the given glamour style.
func (d *detailPane) SetTheme(theme string) {
	d.theme = theme
	if d.bug != nil {
		d.render()
	}
}

func (d *detailPane) render() {
	style := "dark"
	if d.theme == config.ThemeLight {
		style = "light"
	}
	wrap := d.width - 4
	if wrap < 20 {
		wrap = 20
	}
	md := export.BugMarkdown(d.bug)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		d.viewport.SetContent(md)
		return
	}
	rendered, err := r.Render(md)
	if err != nil {
		d.viewport.SetContent(fmt.Sprintf("Error rendering markdown: %v\n\n%s", err, md))
		return
	}
	d.viewport.SetContent(rendered)
	d.viewport.GotoTop()
}

// View draws the pane with a border and a close hint.
func (d *detailPane) View(t Theme) string {
	hint := t.MutedText.Render("esc close · ↑/↓ scroll")
	body := lipgloss.JoinVertical(lipgloss.Left, d.viewport.View(), hint)
	return t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Render(body)
}
