package unfollow

import (
	"sync"

	"tmu/pkg/state"
)

// ProcessedSet remembers which usernames a run has already acted on
type ProcessedSet struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// NewProcessedSet creates an empty set
func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{names: make(map[string]struct{})}
}

// Add records username and reports whether it was new
func (p *ProcessedSet) Add(username string) bool {
	key := state.CanonicalUsername(username)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, seen := p.names[key]; seen {
		return false
	}
	p.names[key] = struct{}{}
	return true
}

// Has reports whether username was recorded
func (p *ProcessedSet) Has(username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, seen := p.names[state.CanonicalUsername(username)]
	return seen
}

// Len returns the number of recorded usernames
func (p *ProcessedSet) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.names)
}

// Run is one started unfollow run. It ends when Active reports false
type Run struct {
	ID        string
	Options   state.RunOptions
	Processed *ProcessedSet
	Active    func() bool
}
