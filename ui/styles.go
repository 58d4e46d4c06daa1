package ui

import "github.com/charmbracelet/lipgloss"

var (
	normalFg = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#dddddd"}
	dimFg    = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	brightFg = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	green    = lipgloss.Color("#04B575")
	red      = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	blue     = lipgloss.Color("#00AAFF")

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	statusStyle   = lipgloss.NewStyle().Foreground(dimFg)
	playedStyle   = lipgloss.NewStyle().Foreground(green)
	activeStyle   = lipgloss.NewStyle().Foreground(blue)
	errorStyle    = lipgloss.NewStyle().Foreground(red)
	noticeStyle   = lipgloss.NewStyle().Foreground(brightFg)
	selectedStyle = lipgloss.NewStyle().Foreground(brightFg).Bold(true)
	entryStyle    = lipgloss.NewStyle().Foreground(normalFg)
	dimStyle      = lipgloss.NewStyle().Foreground(dimFg)
	helpStyle     = lipgloss.NewStyle().Foreground(dimFg).MarginTop(1)
)
