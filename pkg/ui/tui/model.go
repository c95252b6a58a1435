package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tmu/pkg/control"
	"tmu/pkg/ui"
)

// CommandFunc receives the control command bound to a key press
type CommandFunc func(control.MessageType)

// Model represents the status panel
type Model struct {
	spinner spinner.Model

	// Run state
	status string
	tone   ui.Tone
	total  int

	// Hourly cap, zero when unlimited
	capUsed int
	capMax  int

	sessionStartTime time.Time

	// UI state
	width       int
	height      int
	showHelp    bool
	logMessages []ui.LogEntry

	onCommand CommandFunc
}

// NewModel creates a new status panel model. onCommand may be nil
func NewModel(onCommand CommandFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(xBlue)

	return Model{
		spinner:          s,
		status:           "Idle",
		tone:             ui.ToneNeutral,
		sessionStartTime: time.Now(),
		logMessages:      []ui.LogEntry{},
		onCommand:        onCommand,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetStatus replaces the status line
func (m *Model) SetStatus(text string, tone ui.Tone) {
	m.status = text
	m.tone = tone
}

// SetTotal replaces the displayed total
func (m *Model) SetTotal(total int) {
	m.total = total
}

// SetHourlyCap updates the hourly cap gauge
func (m *Model) SetHourlyCap(used, max int) {
	m.capUsed = used
	m.capMax = max
}

// AddLogMessage adds a log entry, keeping the newest ui.MaxLogEntries
func (m *Model) AddLogMessage(kind ui.EntryKind, message string) {
	m.logMessages = ui.AppendCapped(m.logMessages, ui.LogEntry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
}

// Status returns the current status text and tone
func (m *Model) Status() (string, ui.Tone) {
	return m.status, m.tone
}

// Total returns the displayed total
func (m *Model) Total() int {
	return m.total
}

// Logs returns the retained log entries
func (m *Model) Logs() []ui.LogEntry {
	return m.logMessages
}

// Running reports whether the status line shows an active run
func (m *Model) Running() bool {
	return m.tone == ui.ToneActive || m.tone == ui.ToneWarning
}

func (m *Model) command(t control.MessageType) {
	if m.onCommand != nil {
		m.onCommand(t)
	}
}

func kindColor(kind ui.EntryKind) lipgloss.Color {
	switch kind {
	case ui.EntryError:
		return alertRed
	case ui.EntryWarning:
		return amber
	case ui.EntrySuccess:
		return okGreen
	case ui.EntrySkipped:
		return mutedGray
	default:
		return xBlue
	}
}

func toneColor(tone ui.Tone) lipgloss.Color {
	switch tone {
	case ui.ToneActive, ui.ToneSuccess:
		return okGreen
	case ui.ToneWarning:
		return amber
	case ui.ToneStopped:
		return alertRed
	default:
		return softWhite
	}
}
