package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Chart     lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Card      lipgloss.Style
}

// DefaultTheme matches the dark palette used for rendered charts.
func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4fc3f7")),
		Subtitle: lipgloss.NewStyle().Faint(true),
		User:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffb74d")),
		Assistant: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0e0e0")),
		Chart: lipgloss.NewStyle().Foreground(lipgloss.Color("#81c784")),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("#e57373")),
		Help:  lipgloss.NewStyle().Faint(true),
		Card: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")),
	}
}
