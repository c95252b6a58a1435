package tui

import "github.com/charmbracelet/lipgloss"

// Palette follows X's dark theme
var (
	xBlue     = lipgloss.Color("#1D9BF0")
	xPurple   = lipgloss.Color("#7856FF")
	okGreen   = lipgloss.Color("#00BA7C")
	gold      = lipgloss.Color("#FFD400")
	amber     = lipgloss.Color("#FFAD1F")
	alertRed  = lipgloss.Color("#F4212E")
	canvas    = lipgloss.Color("#000000")
	surface   = lipgloss.Color("#16181C")
	softWhite = lipgloss.Color("#E7E9EA")
	mutedGray = lipgloss.Color("#71767B")
	faintGray = lipgloss.Color("#536471")
)

var (
	baseStyle = lipgloss.NewStyle().Background(canvas).Foreground(softWhite)
	logoStyle = lipgloss.NewStyle().Foreground(xBlue).Bold(true).Padding(1, 0).Align(lipgloss.Center)
	helpStyle = lipgloss.NewStyle().Foreground(faintGray).Padding(1, 0, 0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(xPurple).
			Background(surface).
			Padding(1, 2)
	titleStyle = lipgloss.NewStyle().Background(xPurple).Foreground(canvas).Bold(true).Padding(0, 1)

	statsLabelStyle   = lipgloss.NewStyle().Foreground(xBlue).Bold(true)
	statsValueStyle   = lipgloss.NewStyle().Foreground(gold)
	logTimestampStyle = lipgloss.NewStyle().Foreground(mutedGray)

	successStyle = lipgloss.NewStyle().Foreground(okGreen).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(amber).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(alertRed).Bold(true)
)

// capStyle colours the hourly cap readout by how full it is (0..1)
func capStyle(ratio float64) lipgloss.Style {
	c := okGreen
	switch {
	case ratio >= 0.9:
		c = alertRed
	case ratio >= 0.7:
		c = amber
	}
	return lipgloss.NewStyle().Foreground(c)
}
