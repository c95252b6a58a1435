package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindow(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sw := NewSlidingWindow(3, time.Hour)
	sw.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		assert.True(t, sw.Allow(), "action %d should be allowed", i+1)
		current = current.Add(time.Minute)
	}
	assert.False(t, sw.Allow())
	assert.Equal(t, 0, sw.Remaining())

	// The first action leaves the window
	current = current.Add(58 * time.Minute)
	assert.Equal(t, 1, sw.Remaining())
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())

	sw.Reset()
	assert.Equal(t, 3, sw.Remaining())
}

func TestSlidingWindowWaitHonoursContext(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	require.True(t, sw.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := sw.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSlidingWindowWaitReleases(t *testing.T) {
	sw := NewSlidingWindow(1, 30*time.Millisecond)
	require.True(t, sw.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, sw.Wait(ctx))
}

func TestNew(t *testing.T) {
	_, unlimited := New(0, time.Hour).(Unlimited)
	assert.True(t, unlimited)

	_, sliding := New(10, time.Hour).(*SlidingWindow)
	assert.True(t, sliding)

	u := Unlimited{}
	for i := 0; i < 100; i++ {
		assert.True(t, u.Allow())
	}
	assert.NoError(t, u.Wait(context.Background()))
}
