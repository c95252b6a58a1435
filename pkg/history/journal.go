package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileName is the journal file inside the data directory
const FileName = "history.jsonl"

// Outcome is what happened to one account
type Outcome string

const (
	OutcomeUnfollowed     Outcome = "unfollowed"
	OutcomeDemoSkipped    Outcome = "demo_skipped"
	OutcomeConfirmMissing Outcome = "confirm_missing"
	OutcomeFailed         Outcome = "failed"
)

// Entry is one processed account
type Entry struct {
	RunID    string    `json:"run_id"`
	Username string    `json:"username"`
	Outcome  Outcome   `json:"outcome"`
	Demo     bool      `json:"demo"`
	Time     time.Time `json:"time"`
}

// Recorder stores entries
type Recorder interface {
	Record(e Entry) error
}

// NewRunID returns an identifier for one run
func NewRunID() string {
	return uuid.NewString()
}

// Journal appends entries to a JSON lines file
type Journal struct {
	path  string
	count int
	mu    sync.Mutex
}

// NewJournal opens the journal in dir, creating the directory if needed
func NewJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	j := &Journal{path: filepath.Join(dir, FileName)}

	entries, err := j.readAll()
	if err != nil {
		return nil, fmt.Errorf("failed to scan history: %w", err)
	}
	j.count = len(entries)

	return j, nil
}

// Record appends e. A zero Time is replaced with the current time
func (j *Journal) Record(e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	_, err = f.Write(append(line, '\n'))
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close history: %w", closeErr)
	}

	j.count++
	return nil
}

// List returns the newest limit entries, oldest first. limit <= 0 returns all
func (j *Journal) List(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// readAll skips lines that do not decode, such as a torn final write
func (j *Journal) readAll() ([]Entry, error) {
	f, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

// Path returns the journal file path
func (j *Journal) Path() string {
	return j.path
}

// Count returns the number of entries recorded
func (j *Journal) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// MemoryRecorder keeps entries in memory
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *MemoryRecorder) Record(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of the recorded entries
func (m *MemoryRecorder) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}
