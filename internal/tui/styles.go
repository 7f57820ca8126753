package tui

import (
	"github.com/charmbracelet/lipgloss"

	"example.com/timestats/internal/view"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#5847eb")).Padding(0, 1)
	tabStyle    = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("#7078c9"))
	activeTab   = tabStyle.Foreground(lipgloss.Color("#ffffff")).Bold(true)
	focusedTab  = lipgloss.NewStyle().Underline(true)
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(24)
	hoursStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#bbc0ff"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5e7d"))
)

var accents = map[string]lipgloss.Color{
	"work":            lipgloss.Color("#ff8b64"),
	"play":            lipgloss.Color("#55c2e6"),
	"study":           lipgloss.Color("#ff5e7d"),
	"exercise":        lipgloss.Color("#4bcf82"),
	"social":          lipgloss.Color("#7335d2"),
	"self-care":       lipgloss.Color("#f1c75b"),
	view.FallbackIcon: lipgloss.Color("#bbc0ff"),
}

func accentFor(icon string) lipgloss.Color {
	if c, ok := accents[icon]; ok {
		return c
	}
	return accents[view.FallbackIcon]
}
