package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Shared CLI styles.
var (
	stPrimary = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5B4FD8", Dark: "#7C6FF0"})
	stBorder  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"})
	stSuccess = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"})
	stWarn    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"})
	stMuted   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"})
)

func cardStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(stBorder.GetForeground()).
		Padding(0, 2)
}

func successCard(title string, details ...string) string {
	titleLine := stSuccess.Render("✓") + " " + title
	var body strings.Builder
	body.WriteString(titleLine)
	if len(details) > 0 {
		body.WriteString("\n\n")
		for i, d := range details {
			if i > 0 {
				body.WriteString("\n")
			}
			body.WriteString(d)
		}
	}
	return cardStyle().Render(body.String())
}

func infoCard(title, content string) string {
	titleLine := stPrimary.Bold(true).Render(title)
	return cardStyle().Render(titleLine + "\n\n" + content)
}

// renderMarkdown renders markdown for the terminal, falling back to the
// raw text when styling is unavailable (headless, dumb terminal).
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
