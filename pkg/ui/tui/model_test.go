package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmu/pkg/control"
	"tmu/pkg/ui"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelMessages(t *testing.T) {
	model := NewModel(nil)

	status, tone := model.Status()
	assert.Equal(t, "Idle", status)
	assert.Equal(t, ui.ToneNeutral, tone)

	model.Update(SendStatus("Running", ui.ToneActive))
	model.Update(SendTotal(7))
	model.Update(SendLog(ui.EntrySuccess, "Unfollowed @alice"))

	status, tone = model.Status()
	assert.Equal(t, "Running", status)
	assert.Equal(t, ui.ToneActive, tone)
	assert.True(t, model.Running())
	assert.Equal(t, 7, model.Total())
	require.Len(t, model.Logs(), 1)
	assert.Equal(t, ui.EntrySuccess, model.Logs()[0].Kind)
	assert.Equal(t, "Unfollowed @alice", model.Logs()[0].Message)
}

func TestModelLogCap(t *testing.T) {
	model := NewModel(nil)

	for i := 0; i < ui.MaxLogEntries+10; i++ {
		model.AddLogMessage(ui.EntryInfo, fmt.Sprintf("line %d", i))
	}

	logs := model.Logs()
	require.Len(t, logs, ui.MaxLogEntries)
	assert.Equal(t, "line 10", logs[0].Message)
	assert.Equal(t, fmt.Sprintf("line %d", ui.MaxLogEntries+9), logs[len(logs)-1].Message)
}

func TestModelKeyCommands(t *testing.T) {
	var got []control.MessageType
	model := NewModel(func(c control.MessageType) { got = append(got, c) })

	model.Update(key("a"))
	model.Update(key("n"))
	model.Update(key("d"))
	model.Update(key("s"))

	assert.Equal(t, []control.MessageType{
		control.UnfollowAll,
		control.UnfollowNotFollowing,
		control.Demo,
		control.Stop,
	}, got)
}

func TestModelQuitStops(t *testing.T) {
	var got []control.MessageType
	model := NewModel(func(c control.MessageType) { got = append(got, c) })

	_, cmd := model.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, []control.MessageType{control.Stop}, got)
}

func TestModelHelpAndClear(t *testing.T) {
	model := NewModel(nil)
	model.AddLogMessage(ui.EntryInfo, "Task started")

	model.Update(key("?"))
	assert.True(t, model.showHelp)

	model.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, model.Logs())
}

func TestView(t *testing.T) {
	model := NewModel(nil)
	assert.Equal(t, "Initializing...", model.View())

	model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model.Update(SendStatus("Reloading in 3s...", ui.ToneWarning))
	model.Update(SendTotal(12))
	model.Update(SendHourlyCap(30, 100))
	model.Update(SendLog(ui.EntryWarning, "Confirm button not found"))

	view := model.View()
	assert.True(t, strings.Contains(view, "Reloading in 3s..."))
	assert.True(t, strings.Contains(view, "Total Unfollowed:"))
	assert.True(t, strings.Contains(view, "Confirm button not found"))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{-time.Second, "00:00"},
		{65 * time.Second, "01:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, formatDuration(test.d))
	}
}

func TestCapStyleThresholds(t *testing.T) {
	assert.Equal(t, okGreen, capStyle(0.1).GetForeground())
	assert.Equal(t, amber, capStyle(0.75).GetForeground())
	assert.Equal(t, alertRed, capStyle(0.95).GetForeground())
}
