package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"tmu/pkg/control"
	"tmu/pkg/ui"
)

// Message types for the TUI

// StatusMsg replaces the status line
type StatusMsg struct {
	Text string
	Tone ui.Tone
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Kind    ui.EntryKind
	Message string
}

// TotalMsg updates the unfollow total
type TotalMsg struct {
	Total int
}

// HourlyCapMsg updates the hourly cap gauge
type HourlyCapMsg struct {
	Used int
	Max  int
}

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StatusMsg:
		m.SetStatus(msg.Text, msg.Tone)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Kind, msg.Message)
		return m, nil

	case TotalMsg:
		m.SetTotal(msg.Total)
		return m, nil

	case HourlyCapMsg:
		m.SetHourlyCap(msg.Used, msg.Max)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.command(control.Stop)
		return m, tea.Quit

	case "a", "A":
		m.command(control.UnfollowAll)
		return m, nil

	case "n", "N":
		m.command(control.UnfollowNotFollowing)
		return m, nil

	case "d", "D":
		m.command(control.Demo)
		return m, nil

	case "s", "S":
		m.command(control.Stop)
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = []ui.LogEntry{}
		return m, nil
	}

	return m, nil
}

// Helper functions for external use

// SendStatus creates a status message
func SendStatus(text string, tone ui.Tone) tea.Msg {
	return StatusMsg{Text: text, Tone: tone}
}

// SendLog creates a log message
func SendLog(kind ui.EntryKind, message string) tea.Msg {
	return LogMsg{Kind: kind, Message: message}
}

// SendTotal creates a total message
func SendTotal(total int) tea.Msg {
	return TotalMsg{Total: total}
}

// SendHourlyCap creates an hourly cap message
func SendHourlyCap(used, max int) tea.Msg {
	return HourlyCapMsg{Used: used, Max: max}
}
