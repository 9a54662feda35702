package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/bugdash/pkg/config"
	"github.com/vanderheijden86/bugdash/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme bundles the colors and pre-built styles for one render pass. The
// renderer decides whether the Light or Dark side of each adaptive color is
// used, so switching themes only swaps the renderer's background setting.
type Theme struct {
	Renderer *lipgloss.Renderer
	Name     string

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor

	// Status
	Open       lipgloss.AdaptiveColor
	InProgress lipgloss.AdaptiveColor
	Resolved   lipgloss.AdaptiveColor
	Closed     lipgloss.AdaptiveColor

	// Severity
	Critical lipgloss.AdaptiveColor
	High     lipgloss.AdaptiveColor
	Medium   lipgloss.AdaptiveColor
	Low      lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor

	// Styles
	Base      lipgloss.Style
	Selected  lipgloss.Style
	Header    lipgloss.Style
	Title     lipgloss.Style
	MutedText lipgloss.Style
	KeyText   lipgloss.Style
	Card      lipgloss.Style
	Disabled  lipgloss.Style
	Enabled   lipgloss.Style
	Menu      lipgloss.Style
	MenuItem  lipgloss.Style
	ErrorText lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	name := config.ThemeDark
	if !r.HasDarkBackground() {
		name = config.ThemeLight
	}
	t := Theme{
		Renderer: r,
		Name:     name,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Text:      lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"},

		Open:       lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		InProgress: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}, // Cyan
		Resolved:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Closed:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray

		Critical: lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		High:     lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
		Medium:   lipgloss.AdaptiveColor{Light: "#8A7300", Dark: "#F1FA8C"},
		Low:      lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Success:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
	}

	t.Base = r.NewStyle().Foreground(t.Text)
	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Bold(true)
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true)
	t.Title = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.KeyText = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Card = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)
	t.Disabled = r.NewStyle().Foreground(t.Border)
	t.Enabled = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Menu = r.NewStyle().Background(t.Highlight).Foreground(t.Text)
	t.MenuItem = r.NewStyle().Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"})
	t.ErrorText = r.NewStyle().Foreground(t.Danger).Bold(true)

	return t
}

// ThemeFor builds the named theme on its own renderer.
func ThemeFor(name string) Theme {
	r := lipgloss.NewRenderer(os.Stdout)
	r.SetHasDarkBackground(name != config.ThemeLight)
	return DefaultTheme(r)
}

// StatusColor returns the badge color for st.
func (t Theme) StatusColor(st model.Status) lipgloss.AdaptiveColor {
	switch st {
	case model.StatusOpen:
		return t.Open
	case model.StatusInProgress:
		return t.InProgress
	case model.StatusResolved:
		return t.Resolved
	case model.StatusClosed:
		return t.Closed
	default:
		return t.Subtext
	}
}

// SeverityColor returns the badge color for sev.
func (t Theme) SeverityColor(sev model.Severity) lipgloss.AdaptiveColor {
	switch sev {
	case model.SeverityCritical:
		return t.Critical
	case model.SeverityHigh:
		return t.High
	case model.SeverityMedium:
		return t.Medium
	case model.SeverityLow:
		return t.Low
	default:
		return t.Subtext
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return ThemeFor(config.ThemeDark)
}
