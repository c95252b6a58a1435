package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Limiter gates unfollow clicks
type Limiter interface {
	// Allow records an action and reports true when one is free right now
	Allow() bool
	// Wait blocks until an action is allowed or ctx ends
	Wait(ctx context.Context) error
	Reset()
}

// New returns a sliding window allowing max actions per window, or an
// unlimited limiter when max is zero or negative
func New(max int, window time.Duration) Limiter {
	if max <= 0 {
		return Unlimited{}
	}
	return NewSlidingWindow(max, window)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}

// SlidingWindow allows at most limit actions in any trailing span of
// length window. Used for the per-hour unfollow cap
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time // ascending
	now    func() time.Time
}

func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:  limit,
		window: window,
		stamps: make([]time.Time, 0, limit),
		now:    time.Now,
	}
}

func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	sw.expire(now)
	if len(sw.stamps) >= sw.limit {
		return false
	}
	sw.stamps = append(sw.stamps, now)
	return true
}

// Wait sleeps until the oldest recorded action leaves the window
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		t := time.NewTimer(sw.nextFree())
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// Remaining is how many more actions fit in the current window
func (sw *SlidingWindow) Remaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.expire(sw.now())
	return sw.limit - len(sw.stamps)
}

func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	sw.stamps = sw.stamps[:0]
	sw.mu.Unlock()
}

func (sw *SlidingWindow) nextFree() time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if len(sw.stamps) == 0 {
		return time.Millisecond
	}
	return max(sw.window-sw.now().Sub(sw.stamps[0]), time.Millisecond)
}

// expire drops stamps older than now-window
func (sw *SlidingWindow) expire(now time.Time) {
	cutoff := now.Add(-sw.window)
	n := sort.Search(len(sw.stamps), func(i int) bool { return !sw.stamps[i].Before(cutoff) })
	if n > 0 {
		sw.stamps = append(sw.stamps[:0], sw.stamps[n:]...)
	}
}
