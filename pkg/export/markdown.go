// Package export renders bug sets as Markdown reports. The same per-bug
// rendering feeds the dashboard's detail pane.
package export

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/vanderheijden86/bugdash/pkg/model"
)

// Package-level compiled regex for slug creation (avoids recompilation per call)
var slugNonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// now is replaced in tests.
var now = time.Now

// GenerateMarkdown builds a report: a summary table, a table of contents and
// one section per bug, in the order given.
func GenerateMarkdown(bugs []model.Bug, title string) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", now().Format(time.RFC1123)))

	s := model.Summarize(bugs)
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Count |\n|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| **Total** | %d |\n", s.Total))
	for _, st := range model.AllStatuses() {
		sb.WriteString(fmt.Sprintf("| %s %s | %d |\n", statusEmoji(st), st.Label(), s.Count(st)))
	}
	sb.WriteString(fmt.Sprintf("| Unassigned | %d |\n", s.Unassigned))
	sb.WriteString(fmt.Sprintf("| **Completion** | %d%% |\n\n", s.CompletionPercent()))

	if len(bugs) == 0 {
		sb.WriteString("_No bugs match._\n")
		return sb.String(), nil
	}

	slugCounts := make(map[string]int, len(bugs))
	slugs := make([]string, len(bugs))
	for i := range bugs {
		slugs[i] = uniqueSlug(createSlug(headingText(&bugs[i])), slugCounts)
	}

	sb.WriteString("## Bugs\n\n")
	for i := range bugs {
		b := &bugs[i]
		sb.WriteString(fmt.Sprintf("- [%s #%s %s](#%s)\n", statusEmoji(b.Status), b.ID, escapeInline(b.Title), slugs[i]))
	}
	sb.WriteString("\n---\n\n")

	for i := range bugs {
		sb.WriteString(fmt.Sprintf("<a id=\"%s\"></a>\n\n", slugs[i]))
		writeBug(&sb, &bugs[i], "##")
		sb.WriteString("---\n\n")
	}

	return sb.String(), nil
}

// BugMarkdown renders a single bug as a standalone document.
func BugMarkdown(b *model.Bug) string {
	var sb strings.Builder
	writeBug(&sb, b, "#")
	return sb.String()
}

func writeBug(sb *strings.Builder, b *model.Bug, heading string) {
	sub := heading + "#"
	sb.WriteString(fmt.Sprintf("%s %s\n\n", heading, headingText(b)))

	sb.WriteString("| Property | Value |\n|----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| **Status** | %s %s |\n", statusEmoji(b.Status), labelOrRaw(b.Status.IsValid(), b.Status.Label(), string(b.Status))))
	sb.WriteString(fmt.Sprintf("| **Severity** | %s %s |\n", severityEmoji(b.Severity), labelOrRaw(b.Severity.IsValid(), b.Severity.Label(), string(b.Severity))))
	if name, ok := b.Assignee(); ok {
		sb.WriteString(fmt.Sprintf("| **Assigned To** | %s |\n", escapeCell(name)))
	} else {
		sb.WriteString("| **Assigned To** | _Unassigned_ |\n")
	}
	if b.ReportedBy != "" {
		sb.WriteString(fmt.Sprintf("| **Reported By** | %s |\n", escapeCell(b.ReportedBy)))
	}
	if b.DateReported != "" {
		sb.WriteString(fmt.Sprintf("| **Reported** | %s |\n", escapeCell(b.DateReported)))
	}
	sb.WriteString("\n")

	if b.Description != "" {
		sb.WriteString(sub + " Description\n\n")
		sb.WriteString(b.Description + "\n\n")
	}

	if len(b.Comments) > 0 {
		sb.WriteString(sub + " Comments\n\n")
		for _, c := range b.Comments {
			if c == nil {
				continue
			}
			quoted := strings.ReplaceAll(c.Text, "\n", "\n> ")
			if c.Date != "" {
				sb.WriteString(fmt.Sprintf("> **%s** (%s)\n>\n> %s\n\n", c.Author, c.Date, quoted))
			} else {
				sb.WriteString(fmt.Sprintf("> **%s**\n>\n> %s\n\n", c.Author, quoted))
			}
		}
	}
}

func headingText(b *model.Bug) string {
	return fmt.Sprintf("#%s %s", b.ID, b.Title)
}

func labelOrRaw(valid bool, label, raw string) string {
	if valid {
		return label
	}
	if raw == "" {
		return "????"
	}
	return fmt.Sprintf("???? (%s)", escapeCell(raw))
}

// escapeCell makes s safe inside a table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

// escapeInline keeps link text from closing the link early.
func escapeInline(s string) string {
	return strings.NewReplacer("[", "\\[", "]", "\\]", "\n", " ").Replace(s)
}

func uniqueSlug(base string, counts map[string]int) string {
	if base == "" {
		base = "section"
	}
	if count, ok := counts[base]; ok {
		count++
		counts[base] = count
		return fmt.Sprintf("%s-%d", base, count)
	}
	counts[base] = 0
	return base
}

// createSlug creates a URL-friendly slug from heading text.
func createSlug(text string) string {
	slug := strings.ToLower(text)
	slug = slugNonAlphanumericRegex.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func statusEmoji(st model.Status) string {
	switch st {
	case model.StatusOpen:
		return "🟢"
	case model.StatusInProgress:
		return "🔵"
	case model.StatusResolved:
		return "✅"
	case model.StatusClosed:
		return "⚫"
	default:
		return "⚪"
	}
}

func severityEmoji(sev model.Severity) string {
	switch sev {
	case model.SeverityCritical:
		return "🔥"
	case model.SeverityHigh:
		return "⚡"
	case model.SeverityMedium:
		return "🔹"
	case model.SeverityLow:
		return "☕"
	default:
		return "•"
	}
}

// SaveMarkdownToFile writes the generated report to a file. Bugs are written
// in the order given, so callers export exactly what the view shows.
func SaveMarkdownToFile(bugs []model.Bug, title, filename string) error {
	content, err := GenerateMarkdown(bugs, title)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}
