package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/bugdash/pkg/model"
)

// Unknown is shown for a status or severity outside the known set.
const Unknown = "????"

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
)

// statusLabel returns the display label for st, or Unknown.
func statusLabel(st model.Status) string {
	if !st.IsValid() {
		return Unknown
	}
	return st.Label()
}

// severityLabel returns the display label for sev, or Unknown.
func severityLabel(sev model.Severity) string {
	if !sev.IsValid() {
		return Unknown
	}
	return sev.Label()
}

// RenderStatusBadge renders "● Label" in the status color, padded to width.
// A width of 0 leaves the text unpadded.
func RenderStatusBadge(t Theme, st model.Status, width int) string {
	text := "● " + statusLabel(st)
	return t.Renderer.NewStyle().Foreground(t.StatusColor(st)).Render(fit(text, width))
}

// RenderSeverityBadge renders the severity label in its color, padded to
// width.
func RenderSeverityBadge(t Theme, sev model.Severity, width int) string {
	style := t.Renderer.NewStyle().Foreground(t.SeverityColor(sev))
	if sev == model.SeverityCritical {
		style = style.Bold(true)
	}
	return style.Render(fit(severityLabel(sev), width))
}

// truncate shortens s to at most width display cells, ending in an
// ellipsis when cut. Wide runes count double.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return runewidth.Truncate(s, width, "…")
}

// fit truncates s to width and pads it with spaces to exactly width cells.
func fit(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.FillRight(truncate(s, width), width)
}
