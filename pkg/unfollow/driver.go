package unfollow

import (
	"context"
	"fmt"
	"time"

	apperrors "tmu/pkg/errors"
	"tmu/pkg/logger"
	"tmu/pkg/page"
	"tmu/pkg/state"
	"tmu/pkg/ui"
)

// DriverState is a state of the scroll driver
type DriverState int

const (
	StateScanning DriverState = iota
	StateScrolling
	StateWaiting
	StateStalled
	StateDone
)

func (s DriverState) String() string {
	switch s {
	case StateScanning:
		return "SCANNING"
	case StateScrolling:
		return "SCROLLING"
	case StateWaiting:
		return "WAITING"
	case StateStalled:
		return "STALLED"
	case StateDone:
		return "DONE"
	}
	return fmt.Sprintf("DriverState(%d)", int(s))
}

// Outcome is why a driver reached DONE
type Outcome int

const (
	// OutcomeInactive means the run was paused or stopped
	OutcomeInactive Outcome = iota
	// OutcomeEndOfList means the list stopped growing
	OutcomeEndOfList
	// OutcomeCancelled means the process is shutting down
	OutcomeCancelled
	// OutcomeLeftPage means the stall budget ran out while the browser was
	// away from the following list (a login redirect, say)
	OutcomeLeftPage
)

// ScrollConfig paces the scroll driver
type ScrollConfig struct {
	Wait              time.Duration
	NudgeDistance     int
	MaxStalledRetries int
}

// Driver walks the following list: it processes whatever is rendered,
// scrolls for more and waits, until the run ends or the list is exhausted
type Driver struct {
	cfg      ScrollConfig
	adapter  page.Adapter
	session  *state.Session
	filter   *Filter
	executor *Executor
	surface  ui.StatusSurface
	clock    Clock
	logger   logger.Logger
	run      *Run

	state      DriverState
	lastHeight int
	stalls     int
	container  *page.Container
	offTarget  bool
	outcome    Outcome
}

// State returns the current state
func (d *Driver) State() DriverState {
	return d.state
}

// Outcome is valid once the driver is DONE
func (d *Driver) Outcome() Outcome {
	return d.outcome
}

// Stalls returns the current count of consecutive stalls
func (d *Driver) Stalls() int {
	return d.stalls
}

// Run steps the driver until DONE
func (d *Driver) Run(ctx context.Context) Outcome {
	for d.state != StateDone {
		d.Step(ctx)
	}
	return d.outcome
}

// Step performs one transition
func (d *Driver) Step(ctx context.Context) DriverState {
	if ctx.Err() != nil {
		return d.finish(OutcomeCancelled)
	}
	if !d.run.Active() {
		return d.finish(OutcomeInactive)
	}

	switch d.state {
	case StateScanning:
		d.state = d.scan(ctx)
	case StateScrolling:
		d.scroll()
		d.state = StateWaiting
	case StateStalled:
		d.state = d.stalled()
	case StateWaiting:
		if err := d.clock.Sleep(ctx, d.cfg.Wait); err != nil {
			return d.finish(OutcomeCancelled)
		}
		d.state = StateScanning
	}
	return d.state
}

func (d *Driver) finish(o Outcome) DriverState {
	d.outcome = o
	d.state = StateDone
	return d.state
}

func (d *Driver) scan(ctx context.Context) DriverState {
	height, err := d.adapter.ContentHeight()
	if err != nil {
		d.logger.WithError(apperrors.Wrap(apperrors.ErrorTypePage, err, "read content height")).Warn("Scan failed, treating as stall")
		return StateStalled
	}
	if !d.adapter.IsTargetPage() {
		if !d.offTarget {
			d.logger.Warn("Browser is not on the following list")
			d.surface.Log(ui.EntryWarning, "Not on the Following page. Waiting for it to come back...")
		}
		d.offTarget = true
		return StateStalled
	}
	d.offTarget = false
	if height == d.lastHeight {
		return StateStalled
	}
	d.lastHeight = height
	d.stalls = 0

	// The container only steers the scroll. Rows already rendered are
	// processed whether or not it is found
	container, err := d.adapter.ListContainer()
	if err != nil {
		d.logger.WithError(apperrors.Wrap(apperrors.ErrorTypePage, err, "find list container")).Warn("List container lookup failed")
		container = nil
	}
	d.container = container

	controls, err := d.adapter.ActionableControls()
	if err != nil {
		d.logger.WithError(apperrors.Wrap(apperrors.ErrorTypePage, err, "query unfollow controls")).Warn("Scan failed, treating as stall")
		return StateStalled
	}
	d.surface.Log(ui.EntryInfo, fmt.Sprintf("Found %d buttons on screen", len(controls)))

	candidates := d.filter.Apply(controls, d.run.Options.UnfollowNotFollowingOnly, d.session.AllowSet())
	d.surface.Log(ui.EntryInfo, fmt.Sprintf("Processing %d accounts...", len(candidates)))

	if err := d.executor.Execute(ctx, d.run, candidates); err != nil {
		if ctx.Err() != nil {
			d.finish(OutcomeCancelled)
			return StateDone
		}
		d.logger.WithError(err).Warn("Processing stopped early")
	}

	if !d.run.Active() {
		d.finish(OutcomeInactive)
		return StateDone
	}
	return StateScrolling
}

func (d *Driver) scroll() {
	if d.container == nil {
		d.logger.Warn("List container not found, skipping scroll")
		return
	}
	d.surface.Log(ui.EntryInfo, "Scrolling down...")
	if err := d.adapter.ScrollTo(d.container.ScrollTarget()); err != nil {
		d.logger.WithError(err).Warn("Scroll failed")
	}
}

func (d *Driver) stalled() DriverState {
	if d.cfg.MaxStalledRetries > 0 && d.stalls >= d.cfg.MaxStalledRetries {
		if d.offTarget {
			d.logger.WithField("stalls", d.stalls).Warn("Gave up waiting for the following list")
			d.finish(OutcomeLeftPage)
			return StateDone
		}
		d.logger.WithField("stalls", d.stalls).Info("List stopped growing")
		d.finish(OutcomeEndOfList)
		return StateDone
	}
	d.stalls++

	d.surface.Log(ui.EntryWarning, "No new items loaded. Retrying scroll...")
	if err := d.adapter.ScrollBy(d.cfg.NudgeDistance); err != nil {
		d.logger.WithError(err).Warn("Nudge scroll failed")
	}
	return StateWaiting
}
