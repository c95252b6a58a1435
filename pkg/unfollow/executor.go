package unfollow

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	apperrors "tmu/pkg/errors"
	"tmu/pkg/history"
	"tmu/pkg/logger"
	"tmu/pkg/page"
	"tmu/pkg/ratelimit"
	"tmu/pkg/state"
	"tmu/pkg/ui"
)

// ActionConfig paces the executor
type ActionConfig struct {
	MinDelay       time.Duration
	MaxDelay       time.Duration
	ConfirmTimeout time.Duration
	MaxPerHour     int
}

// Executor performs the unfollow for each candidate
type Executor struct {
	cfg     ActionConfig
	adapter page.Adapter
	session *state.Session
	surface ui.StatusSurface
	journal history.Recorder
	limiter ratelimit.Limiter
	clock   Clock
	logger  logger.Logger
}

// Execute acts on candidates in order until the run becomes inactive
// Each username is acted on at most once per run
func (e *Executor) Execute(ctx context.Context, run *Run, candidates []Candidate) error {
	for _, c := range candidates {
		if !run.Active() {
			return nil
		}
		if !run.Processed.Add(c.Username) {
			continue
		}

		total, err := e.session.IncrementTotal()
		if err != nil {
			e.logger.WithError(apperrors.Wrap(apperrors.ErrorTypeStore, err, "persist total")).Warn("Failed to persist total")
		}
		// 0 means the stored total could not be read; keep what is shown
		if total > 0 {
			e.surface.SetTotal(total)
		}
		e.surface.Log(ui.EntryInfo, fmt.Sprintf("Unfollowing @%s...", c.Username))

		outcome, err := e.act(ctx, run, c)
		if err != nil {
			return err
		}

		entry := history.Entry{
			RunID:    run.ID,
			Username: c.Username,
			Outcome:  outcome,
			Demo:     run.Options.IsDemo,
			Time:     e.clock.Now(),
		}
		if err := e.journal.Record(entry); err != nil {
			e.logger.WithError(err).Warn("Failed to record history")
		}
		logger.LogAction(e.logger, c.Username, string(outcome), run.Options.IsDemo)

		if err := e.clock.Sleep(ctx, e.delay()); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) act(ctx context.Context, run *Run, c Candidate) (history.Outcome, error) {
	if run.Options.IsDemo {
		e.surface.Log(ui.EntrySkipped, fmt.Sprintf("(Demo) Skipped clicking unfollow for @%s", c.Username))
		return history.OutcomeDemoSkipped, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return history.OutcomeFailed, err
	}
	e.reportCap()

	if err := c.Control.Click(); err != nil {
		e.logger.WithError(apperrors.Wrap(apperrors.ErrorTypeUIMismatch, err, "click unfollow")).
			WithField("username", c.Username).Warn("Unfollow control could not be clicked")
		e.surface.Log(ui.EntryWarning, fmt.Sprintf("Could not click unfollow for @%s", c.Username))
		return history.OutcomeFailed, nil
	}

	confirm, err := e.adapter.WaitForConfirm(ctx, e.cfg.ConfirmTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return history.OutcomeFailed, ctx.Err()
		}
		e.logger.WithError(err).Warn("Waiting for confirmation failed")
	}
	if confirm == nil {
		e.surface.Log(ui.EntryWarning, "Confirm button not found")
		return history.OutcomeConfirmMissing, nil
	}

	if err := confirm.Click(); err != nil {
		e.logger.WithError(apperrors.Wrap(apperrors.ErrorTypeUIMismatch, err, "click confirm")).Warn("Confirm button could not be clicked")
		e.surface.Log(ui.EntryWarning, "Confirm button not found")
		return history.OutcomeConfirmMissing, nil
	}

	e.surface.Log(ui.EntrySuccess, fmt.Sprintf("Unfollowed @%s", c.Username))
	return history.OutcomeUnfollowed, nil
}

func (e *Executor) reportCap() {
	gauge, ok := e.surface.(ui.CapGauge)
	if !ok || e.cfg.MaxPerHour <= 0 {
		return
	}
	if r, ok := e.limiter.(interface{ Remaining() int }); ok {
		gauge.UpdateHourlyCap(e.cfg.MaxPerHour-r.Remaining(), e.cfg.MaxPerHour)
	}
}

// delay is uniform in [MinDelay, MaxDelay)
func (e *Executor) delay() time.Duration {
	span := e.cfg.MaxDelay - e.cfg.MinDelay
	if span <= 0 {
		return e.cfg.MinDelay
	}
	return e.cfg.MinDelay + time.Duration(rand.Int63n(int64(span)))
}
