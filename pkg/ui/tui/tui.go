package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"tmu/pkg/ui"
)

// TUI is the full-screen status panel. It satisfies ui.StatusSurface
type TUI struct {
	program *tea.Program
	model   *Model
}

var _ ui.StatusSurface = (*TUI)(nil)

// NewTUI creates a new TUI instance. Key presses that map to commands
// are passed to onCommand
func NewTUI(onCommand CommandFunc, opts ...tea.ProgramOption) *TUI {
	model := NewModel(onCommand)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	program := tea.NewProgram(&model, opts...)

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start runs the TUI until the user quits or Stop is called
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Show is a no-op; the panel is visible once Start runs
func (t *TUI) Show() {}

func (t *TUI) SetStatus(text string, tone ui.Tone) {
	t.Send(SendStatus(text, tone))
}

func (t *TUI) Log(kind ui.EntryKind, message string) {
	t.Send(SendLog(kind, message))
}

func (t *TUI) SetTotal(total int) {
	t.Send(SendTotal(total))
}

// UpdateHourlyCap updates the hourly cap gauge
func (t *TUI) UpdateHourlyCap(used, max int) {
	t.Send(SendHourlyCap(used, max))
}
