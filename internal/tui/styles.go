package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#2F6FEB")).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2F6FEB"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1A7F37"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CF222E"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E7781"))
)
