package state

import (
	"sort"
	"strings"
	"sync"

	"tmu/pkg/logger"
)

// Keys under which session state is persisted
const (
	KeyStatus       = "task_status"
	KeyOptions      = "task_options"
	KeyStats        = "task_stats"
	KeyAllowList    = "white_listed_users"
	KeyTimer        = "auto_stop_timer"
	KeyReloadOnStop = "reload_on_stopped"
)

// Status is the persisted lifecycle status of a run
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusRunning Status = "RUNNING"
	StatusPaused  Status = "PAUSED"
	StatusStopped Status = "STOPPED"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusPaused, StatusStopped:
		return true
	}
	return false
}

// RunOptions are fixed for the duration of a run
type RunOptions struct {
	UnfollowNotFollowingOnly bool `json:"unfollow_not_following_only"`
	IsDemo                   bool `json:"is_demo"`
}

// Stats holds the persisted counters
type Stats struct {
	TotalUnfollowed int `json:"total_unfollowed"`
}

// Snapshot is a point-in-time view of everything persisted
type Snapshot struct {
	Status       Status     `json:"status"`
	Options      RunOptions `json:"options"`
	Stats        Stats      `json:"stats"`
	AllowList    []string   `json:"allow_list"`
	TimerEnabled bool       `json:"auto_stop_timer"`
	ReloadOnStop bool       `json:"reload_on_stopped"`
}

// Session gives typed access to the values kept in a Store. Read failures
// are logged and degrade to defaults
type Session struct {
	store  Store
	logger logger.Logger
	// serialises read-modify-write sequences
	mu sync.Mutex
}

// NewSession wraps store with typed accessors
func NewSession(store Store, log logger.Logger) *Session {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Session{store: store, logger: log.WithField("component", "state")}
}

// Status returns the persisted status. Missing, unreadable or unknown
// values are reported as IDLE
func (s *Session) Status() Status {
	var status Status
	ok, err := s.store.Get(KeyStatus, &status)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read task status, assuming idle")
		return StatusIdle
	}
	if !ok || !status.Valid() {
		return StatusIdle
	}
	return status
}

// SetStatus persists status
func (s *Session) SetStatus(status Status) error {
	return s.store.Set(KeyStatus, status)
}

// Options returns the persisted run options
func (s *Session) Options() (RunOptions, error) {
	var opts RunOptions
	_, err := s.store.Get(KeyOptions, &opts)
	return opts, err
}

// SetOptions persists the run options
func (s *Session) SetOptions(opts RunOptions) error {
	return s.store.Set(KeyOptions, opts)
}

// Stats returns the persisted counters, zero on failure
func (s *Session) Stats() Stats {
	var stats Stats
	if _, err := s.store.Get(KeyStats, &stats); err != nil {
		s.logger.WithError(err).Warn("Failed to read task stats")
		return Stats{}
	}
	return stats
}

// IncrementTotal adds one to the persisted total and returns the new value
// When the write fails the returned total is still right for display. When
// the read fails nothing is written and the total is 0, so an unreadable
// counter is never reset
func (s *Session) IncrementTotal() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats Stats
	if _, err := s.store.Get(KeyStats, &stats); err != nil {
		return 0, err
	}
	stats.TotalUnfollowed++
	return stats.TotalUnfollowed, s.store.Set(KeyStats, stats)
}

// AllowList returns the persisted allow-list in stored order
func (s *Session) AllowList() []string {
	var list []string
	if _, err := s.store.Get(KeyAllowList, &list); err != nil {
		s.logger.WithError(err).Warn("Failed to read allow-list")
		return nil
	}
	return list
}

// AllowSet returns the allow-list as a set of canonical usernames
func (s *Session) AllowSet() map[string]struct{} {
	list := s.AllowList()
	set := make(map[string]struct{}, len(list))
	for _, name := range list {
		if c := CanonicalUsername(name); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

// AddAllowed adds usernames to the allow-list, ignoring duplicates
func (s *Session) AddAllowed(names ...string) ([]string, error) {
	return s.updateAllowList(func(set map[string]struct{}) {
		for _, name := range names {
			if c := CanonicalUsername(name); c != "" {
				set[c] = struct{}{}
			}
		}
	})
}

// RemoveAllowed removes usernames from the allow-list
func (s *Session) RemoveAllowed(names ...string) ([]string, error) {
	return s.updateAllowList(func(set map[string]struct{}) {
		for _, name := range names {
			delete(set, CanonicalUsername(name))
		}
	})
}

// ClearAllowList empties the allow-list
func (s *Session) ClearAllowList() error {
	return s.store.Delete(KeyAllowList)
}

func (s *Session) updateAllowList(mutate func(map[string]struct{})) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.AllowSet()
	mutate(set)

	list := make([]string, 0, len(set))
	for name := range set {
		list = append(list, name)
	}
	sort.Strings(list)
	return list, s.store.Set(KeyAllowList, list)
}

// TimerEnabled reports whether the self-reload timer is armed on start
func (s *Session) TimerEnabled() bool {
	return s.flag(KeyTimer)
}

// SetTimerEnabled persists the self-reload timer flag
func (s *Session) SetTimerEnabled(enabled bool) error {
	return s.store.Set(KeyTimer, enabled)
}

// ReloadOnStop reports whether timer expiry reloads the page instead of pausing
func (s *Session) ReloadOnStop() bool {
	return s.flag(KeyReloadOnStop)
}

// SetReloadOnStop persists the reload-on-stop flag
func (s *Session) SetReloadOnStop(enabled bool) error {
	return s.store.Set(KeyReloadOnStop, enabled)
}

func (s *Session) flag(key string) bool {
	var v bool
	if _, err := s.store.Get(key, &v); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to read setting")
		return false
	}
	return v
}

// Snapshot reads every persisted value
func (s *Session) Snapshot() Snapshot {
	opts, err := s.Options()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read task options")
	}
	return Snapshot{
		Status:       s.Status(),
		Options:      opts,
		Stats:        s.Stats(),
		AllowList:    s.AllowList(),
		TimerEnabled: s.TimerEnabled(),
		ReloadOnStop: s.ReloadOnStop(),
	}
}

// Reset clears run status, options and counters. Settings and the
// allow-list are kept
func (s *Session) Reset() error {
	for _, key := range []string{KeyStatus, KeyOptions, KeyStats} {
		if err := s.store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// CanonicalUsername lower-cases a handle and strips surrounding space and
// a leading "@"
func CanonicalUsername(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
}
