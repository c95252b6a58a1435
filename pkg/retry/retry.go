package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "tmu/pkg/errors"
	"tmu/pkg/logger"
)

// Config describes how a page operation is retried
type Config struct {
	// MaxAttempts caps the total number of calls; 0 retries forever
	MaxAttempts int
	Backoff     Backoff
	// RetryIf reports whether a failure is worth another attempt
	RetryIf func(error) bool
	// OnRetry runs before each pause
	OnRetry func(attempt int, err error, delay time.Duration)
	Context context.Context
	Logger  logger.Logger
}

// NewConfig builds the retry policy used for navigation and reloads
func NewConfig(ctx context.Context, maxAttempts int, initial, max time.Duration, log logger.Logger) *Config {
	var b Backoff = &ExponentialBackoff{
		BaseDelay:    initial,
		MaxDelay:     max,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
	if initial >= max {
		b = fixedBackoff(initial)
	}
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     b,
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
		Logger:      log,
	}
}

// DefaultRetryIf retries page and timeout failures plus untyped errors
// Cancellation and typed non-transient failures end the loop
func DefaultRetryIf(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	var typed *errs.Error
	if errors.As(err, &typed) {
		return errs.IsRetryable(typed.Type)
	}
	return true
}

// Do calls op until it succeeds, the policy gives up, or the context ends
func Do(op func() error, cfg *Config) error {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("page operation recovered", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		if !retryIf(err) {
			return err
		}
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			log.ErrorWithFields("page operation gave up", map[string]interface{}{
				"attempts": attempt,
				"error":    err.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
		}

		delay := cfg.Backoff.NextDelay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		log.WarnWithFields("retrying page operation", map[string]interface{}{
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
		if werr := Wait(ctx, delay); werr != nil {
			return fmt.Errorf("retry cancelled: %w", werr)
		}
	}
}
