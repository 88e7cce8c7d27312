package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f59e0b"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444"))
	holderStyle  = lipgloss.NewStyle().Bold(true)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#374151")).Padding(0, 1)
	helpKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
)
