package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "tmu/pkg/errors"
	"tmu/pkg/logger"
)

func quickConfig(ctx context.Context, attempts int) *Config {
	return &Config{
		MaxAttempts: attempts,
		Backoff:     fixedBackoff(5 * time.Millisecond),
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
		Logger:      logger.NewNopLogger(),
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{9, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterStaysInBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 50; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestDoRetriesPageErrors(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return errs.Wrap(errs.ErrorTypePage, errors.New("net::ERR_ABORTED"), "reload")
		}
		return nil
	}, quickConfig(context.Background(), 5))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	cause := errs.New(errs.ErrorTypeTimeout, "navigation timed out")
	err := Do(func() error {
		attempts++
		return cause
	}, quickConfig(context.Background(), 3))

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	mismatch := errs.New(errs.ErrorTypeUIMismatch, "list container missing")
	err := Do(func() error {
		attempts++
		return mismatch
	}, quickConfig(context.Background(), 5))

	assert.Same(t, mismatch, err)
	assert.Equal(t, 1, attempts)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	cfg := quickConfig(ctx, 10)
	cfg.Backoff = fixedBackoff(time.Second)
	err := Do(func() error {
		attempts++
		cancel()
		return errors.New("flaky")
	}, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeAuth, "cookies rejected")))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypePage, "crashed")))
	assert.True(t, DefaultRetryIf(errors.New("unknown")))
}

func TestOnRetrySkipsFinalAttempt(t *testing.T) {
	var seen []int
	var delays []time.Duration
	cfg := quickConfig(context.Background(), 3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		seen = append(seen, attempt)
		delays = append(delays, delay)
	}

	err := Do(func() error { return errors.New("always") }, cfg)

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, delays)
}

func TestWaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Wait(ctx, 0), context.Canceled)
	assert.NoError(t, Wait(context.Background(), time.Millisecond))
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(context.Background(), 4, time.Second, 10*time.Second, logger.NewNopLogger())
	assert.Equal(t, 4, cfg.MaxAttempts)
	eb, ok := cfg.Backoff.(*ExponentialBackoff)
	require.True(t, ok)
	assert.Equal(t, time.Second, eb.BaseDelay)
	assert.Equal(t, 10*time.Second, eb.MaxDelay)
}

func TestNewConfigFlatWhenInitialReachesMax(t *testing.T) {
	cfg := NewConfig(context.Background(), 2, 5*time.Second, 5*time.Second, nil)
	assert.Equal(t, fixedBackoff(5*time.Second), cfg.Backoff)
	assert.Equal(t, 5*time.Second, cfg.Backoff.NextDelay(4))
}
