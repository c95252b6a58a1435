package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	journal, err := NewJournal(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, journal.Count())
	assert.Equal(t, filepath.Join(dir, FileName), journal.Path())

	entries, err := journal.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	runID := NewRunID()
	require.NoError(t, journal.Record(Entry{RunID: runID, Username: "alice", Outcome: OutcomeUnfollowed}))
	require.NoError(t, journal.Record(Entry{RunID: runID, Username: "bob", Outcome: OutcomeDemoSkipped, Demo: true}))

	entries, err = journal.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, OutcomeDemoSkipped, entries[1].Outcome)
	assert.True(t, entries[1].Demo)
	assert.False(t, entries[0].Time.IsZero())
	assert.Equal(t, runID, entries[1].RunID)

	// A reopened journal sees the existing entries
	reopened, err := NewJournal(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Count())
}

func TestJournalListLimit(t *testing.T) {
	journal, err := NewJournal(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, journal.Record(Entry{Username: fmt.Sprintf("user%d", i), Time: time.Unix(int64(i), 0)}))
	}

	entries, err := journal.List(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "user3", entries[0].Username)
	assert.Equal(t, "user4", entries[1].Username)
}

func TestJournalSkipsTornLines(t *testing.T) {
	dir := t.TempDir()
	content := `{"run_id":"r","username":"alice","outcome":"unfollowed","demo":false,"time":"2024-01-01T00:00:00Z"}
{"run_id":"r","username":"bo`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600))

	journal, err := NewJournal(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, journal.Count())

	entries, err := journal.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestMemoryRecorder(t *testing.T) {
	var rec MemoryRecorder
	require.NoError(t, rec.Record(Entry{Username: "carol"}))
	assert.Equal(t, []Entry{{Username: "carol"}}, rec.Entries())
}
