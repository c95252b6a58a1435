package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"tmu/pkg/ui"
)

// View renders the entire TUI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderLogo())

	leftColumn := m.renderLeftColumn()
	rightColumn := m.renderLogsPanel((m.width - 4) / 2)

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftColumn,
		"  ",
		rightColumn,
	)
	sections = append(sections, mainContent)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("a all • n not following • d demo • s stop • q quit • ? help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m Model) renderLogo() string {
	return logoStyle.Width(m.width).Render(strings.TrimPrefix(ui.Banner, "\n"))
}

func (m Model) renderLeftColumn() string {
	width := (m.width - 4) / 2

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatusPanel(width),
		m.renderHourlyCapPanel(width),
	)
}

// renderStatusPanel renders the status line and running total
func (m Model) renderStatusPanel(width int) string {
	title := titleStyle.Render(" STATUS ")

	status := lipgloss.NewStyle().Foreground(toneColor(m.tone)).Bold(true).Render(m.status)
	if m.Running() {
		status = m.spinner.View() + " " + status
	}

	lines := []string{
		status,
		"",
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Total Unfollowed:"), statsValueStyle.Render(fmt.Sprintf("%d", m.total))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Session Time:"), statsValueStyle.Render(formatDuration(time.Since(m.sessionStartTime)))),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

// renderHourlyCapPanel renders usage of the optional hourly cap
func (m Model) renderHourlyCapPanel(width int) string {
	title := titleStyle.Render(" HOURLY CAP ")

	if m.capMax <= 0 {
		content := lipgloss.NewStyle().Foreground(softWhite).Render("Unlimited")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	ratio := float64(m.capUsed) / float64(m.capMax)
	if ratio > 1 {
		ratio = 1
	}

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = width - 8
	if bar.Width < 10 {
		bar.Width = 10
	}

	usage := capStyle(ratio).Render(fmt.Sprintf("%d/%d (%.0f%%)", m.capUsed, m.capMax, ratio*100))
	content := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Usage:"), usage),
		bar.ViewAs(ratio),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" ACTIVITY ")

	logsHeight := m.height - 16
	if logsHeight < 5 {
		logsHeight = 5
	}

	start := len(m.logMessages) - (logsHeight - 2)
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, entry := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(entry.Time.Format("15:04:05"))

		message := entry.Message
		maxMsgLen := width - 16
		if maxMsgLen > 3 && len(message) > maxMsgLen {
			message = message[:maxMsgLen-3] + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s", timestamp, lipgloss.NewStyle().Foreground(kindColor(entry.Kind)).Render(message)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(softWhite).Render("No activity yet...")
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m Model) renderHelp() string {
	help := `
  Commands:
    a        - Unfollow everyone
    n        - Unfollow accounts that don't follow back
    d        - Demo run, nothing is clicked
    s        - Stop the current run
    ctrl+l   - Clear activity
    q        - Stop and quit
    ?        - Toggle this help

  Status Colors:
    ` + successStyle.Render("Green") + `    - Running/Completed
    ` + warningStyle.Render("Orange") + `   - Paused/Reloading
    ` + errorStyle.Render("Red") + `      - Stopped
`

	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
