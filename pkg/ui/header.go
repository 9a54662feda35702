package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/bugdash/pkg/model"
)

// ViewConfig is the per-render view configuration. It is passed to the
// render functions explicitly.
type ViewConfig struct {
	Theme string
	Role  model.Role
}

// barWidth is the width of the per-status progress bar in a summary card.
const barWidth = 12

// renderHeader draws the role title, its description and the active theme.
func renderHeader(t Theme, vc ViewConfig, width int) string {
	title := t.Title.Render(vc.Role.Title())
	right := t.MutedText.Render(fmt.Sprintf("%s view · %s theme", vc.Role.Label(), vc.Theme))

	gap := width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	top := title + strings.Repeat(" ", gap) + right
	return lipgloss.JoinVertical(lipgloss.Left, top, t.MutedText.Render(vc.Role.Description()))
}

// progressBar renders a bar filled to fraction f of width cells.
func progressBar(t Theme, f float64, width int, color lipgloss.TerminalColor) string {
	filled := int(f*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return t.Renderer.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		t.Disabled.Render(strings.Repeat("░", width-filled))
}

// renderSummary draws one card per status plus a completion card. Cards
// wrap onto a second row when the terminal is narrow.
func renderSummary(t Theme, s model.Summary, width int) string {
	var cards []string
	for _, st := range model.AllStatuses() {
		body := lipgloss.JoinVertical(lipgloss.Left,
			t.Renderer.NewStyle().Foreground(t.StatusColor(st)).Bold(true).Render(fmt.Sprintf("%d", s.Count(st))),
			t.MutedText.Render(st.Label()),
			progressBar(t, s.Fraction(st), barWidth, t.StatusColor(st)),
		)
		cards = append(cards, t.Card.Render(body))
	}

	done := float64(s.CompletionPercent()) / 100
	completion := lipgloss.JoinVertical(lipgloss.Left,
		t.Title.Render(fmt.Sprintf("%d%%", s.CompletionPercent())),
		t.MutedText.Render(fmt.Sprintf("Completion (%d total)", s.Total)),
		progressBar(t, done, barWidth, ThemeFg("#50FA7B")),
	)
	cards = append(cards, t.Card.Render(completion))

	var rows []string
	var row []string
	used := 0
	for _, c := range cards {
		w := lipgloss.Width(c)
		if len(row) > 0 && width > 0 && used+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, used = nil, 0
		}
		row = append(row, c)
		used += w
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
