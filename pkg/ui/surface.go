package ui

import (
	"sync"
	"time"

	"tmu/pkg/logger"
)

// MaxLogEntries is how many log lines a status surface keeps
const MaxLogEntries = 50

// Tone colors the status line
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneActive  Tone = "active"
	ToneWarning Tone = "warning"
	ToneStopped Tone = "stopped"
	ToneSuccess Tone = "success"
)

// EntryKind classifies a log line
type EntryKind string

const (
	EntryInfo    EntryKind = "info"
	EntrySuccess EntryKind = "success"
	EntryWarning EntryKind = "warning"
	EntrySkipped EntryKind = "skipped"
	EntryError   EntryKind = "error"
)

// LogEntry is one line in a status surface's log
type LogEntry struct {
	Time    time.Time
	Kind    EntryKind
	Message string
}

// StatusSurface is the on-screen panel showing run status, a short log and
// the running total
type StatusSurface interface {
	// Show makes the surface visible
	Show()
	SetStatus(text string, tone Tone)
	Log(kind EntryKind, message string)
	SetTotal(total int)
}

// CapGauge is implemented by surfaces that can show hourly cap usage
type CapGauge interface {
	UpdateHourlyCap(used, max int)
}

// AppendCapped appends e and drops the oldest entries beyond MaxLogEntries
func AppendCapped(entries []LogEntry, e LogEntry) []LogEntry {
	entries = append(entries, e)
	if len(entries) > MaxLogEntries {
		entries = entries[len(entries)-MaxLogEntries:]
	}
	return entries
}

// MemorySurface records everything shown on it
type MemorySurface struct {
	mu       sync.Mutex
	visible  bool
	status   string
	tone     Tone
	statuses []string
	entries  []LogEntry
	total    int
}

// NewMemorySurface creates an empty surface with status "Idle"
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{status: "Idle", tone: ToneNeutral}
}

func (s *MemorySurface) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = true
}

func (s *MemorySurface) SetStatus(text string, tone Tone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = text
	s.tone = tone
	s.statuses = append(s.statuses, text)
}

func (s *MemorySurface) Log(kind EntryKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = AppendCapped(s.entries, LogEntry{Time: time.Now(), Kind: kind, Message: message})
}

func (s *MemorySurface) SetTotal(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = total
}

// Visible reports whether Show was called
func (s *MemorySurface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Status returns the current status text and tone
func (s *MemorySurface) Status() (string, Tone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.tone
}

// Statuses returns every status text shown, in order
func (s *MemorySurface) Statuses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statuses...)
}

// Entries returns the retained log entries
func (s *MemorySurface) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogEntry(nil), s.entries...)
}

// Messages returns the retained log messages of the given kind
func (s *MemorySurface) Messages(kind EntryKind) []string {
	var out []string
	for _, e := range s.Entries() {
		if e.Kind == kind {
			out = append(out, e.Message)
		}
	}
	return out
}

// HasMessage reports whether a log entry with exactly msg is retained
func (s *MemorySurface) HasMessage(msg string) bool {
	for _, e := range s.Entries() {
		if e.Message == msg {
			return true
		}
	}
	return false
}

// Total returns the displayed total
func (s *MemorySurface) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Mirror forwards every call to a surface and copies it into the
// structured log
type Mirror struct {
	surface StatusSurface
	logger  logger.Logger
}

// NewMirror wraps surface so its content is also logged
func NewMirror(surface StatusSurface, log logger.Logger) *Mirror {
	return &Mirror{surface: surface, logger: log.WithField("component", "status")}
}

func (m *Mirror) Show() { m.surface.Show() }

func (m *Mirror) SetStatus(text string, tone Tone) {
	m.surface.SetStatus(text, tone)
	m.logger.WithField("tone", string(tone)).Debug("Status: " + text)
}

func (m *Mirror) Log(kind EntryKind, message string) {
	m.surface.Log(kind, message)
	switch kind {
	case EntryWarning, EntrySkipped:
		m.logger.WithField("kind", string(kind)).Warn(message)
	case EntryError:
		m.logger.Error(message)
	default:
		m.logger.WithField("kind", string(kind)).Info(message)
	}
}

func (m *Mirror) SetTotal(total int) {
	m.surface.SetTotal(total)
}

// UpdateHourlyCap forwards to the wrapped surface when it shows a gauge
func (m *Mirror) UpdateHourlyCap(used, max int) {
	if g, ok := m.surface.(CapGauge); ok {
		g.UpdateHourlyCap(used, max)
	}
}
