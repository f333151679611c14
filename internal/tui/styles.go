package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorAccent = lipgloss.Color("39")  // blue
	colorMuted  = lipgloss.Color("242") // gray
	colorWarn   = lipgloss.Color("214") // orange
	colorError  = lipgloss.Color("196") // red
	colorWhite  = lipgloss.Color("15")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	laneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			Width(24)

	activeLaneStyle = laneStyle.
			BorderForeground(colorAccent)

	laneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(colorWhite).
			Bold(true)

	borrowedStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	heldStyle = lipgloss.NewStyle().
			Foreground(colorWarn).
			Bold(true)

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	noteStyle = lipgloss.NewStyle().
			Foreground(colorWarn)
)

// laneAccent returns the lane border color, preferring the stage's own color.
func laneAccent(color string, active bool) lipgloss.Style {
	style := laneStyle
	if active {
		style = activeLaneStyle
	}
	if color != "" && !active {
		style = style.BorderForeground(lipgloss.Color(color))
	}
	return style
}
