package unfollow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tmu/pkg/config"
	"tmu/pkg/control"
	apperrors "tmu/pkg/errors"
	"tmu/pkg/history"
	"tmu/pkg/logger"
	"tmu/pkg/page"
	"tmu/pkg/ratelimit"
	"tmu/pkg/state"
	"tmu/pkg/ui"
)

// Config collects the controller's tunables
type Config struct {
	TimerDuration   time.Duration
	ReloadCountdown int
	Scroll          ScrollConfig
	Action          ActionConfig
}

// ConfigFrom extracts controller settings from the application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		TimerDuration:   cfg.Session.TimerDuration,
		ReloadCountdown: cfg.Session.ReloadCountdown,
		Scroll: ScrollConfig{
			Wait:              cfg.Scroll.Wait,
			NudgeDistance:     cfg.Scroll.NudgeDistance,
			MaxStalledRetries: cfg.Scroll.MaxStalledRetries,
		},
		Action: ActionConfig{
			MinDelay:       cfg.Action.MinDelay,
			MaxDelay:       cfg.Action.MaxDelay,
			ConfirmTimeout: cfg.Action.ConfirmTimeout,
			MaxPerHour:     cfg.Action.MaxPerHour,
		},
	}
}

// Deps are the controller's collaborators. Page, Session and Surface are
// required; the rest have defaults
type Deps struct {
	Page     page.Adapter
	Session  *state.Session
	Surface  ui.StatusSurface
	Journal  history.Recorder
	Limiter  ratelimit.Limiter
	Notifier *ui.Notifier
	Clock    Clock
	Logger   logger.Logger
}

type request struct {
	msg   control.Message
	reply chan *control.Reply
}

// Controller owns the lifecycle of unfollow runs on one page
type Controller struct {
	cfg      Config
	adapter  page.Adapter
	session  *state.Session
	surface  ui.StatusSurface
	journal  history.Recorder
	limiter  ratelimit.Limiter
	notifier *ui.Notifier
	clock    Clock
	logger   logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// serialises Start, Pause, ReloadNow, ResumeFromStorage and timer expiry;
	// never taken by a driver goroutine while another operation waits on it
	opMu sync.Mutex

	mu      sync.Mutex
	active  bool
	gen     uint64
	timer   Timer
	done    chan struct{}
	busy    int
	resumed bool

	commands chan request
}

// NewController creates an idle controller
func NewController(cfg Config, deps Deps) *Controller {
	if deps.Journal == nil {
		deps.Journal = &history.MemoryRecorder{}
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.Unlimited{}
	}
	if deps.Clock == nil {
		deps.Clock = RealClock()
	}
	if deps.Logger == nil {
		deps.Logger = logger.GetLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:      cfg,
		adapter:  deps.Page,
		session:  deps.Session,
		surface:  deps.Surface,
		journal:  deps.Journal,
		limiter:  deps.Limiter,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		logger:   deps.Logger.WithField("component", "controller"),
		ctx:      ctx,
		cancel:   cancel,
		commands: make(chan request),
	}
}

// Active reports whether a run is live
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && c.gen == gen
}

// lockOp marks an operation in progress so WaitIdle cannot observe the
// gap between clearing the active flag and persisting the outcome
func (c *Controller) lockOp() {
	c.opMu.Lock()
	c.mu.Lock()
	c.busy++
	c.mu.Unlock()
}

func (c *Controller) unlockOp() {
	c.mu.Lock()
	c.busy--
	c.mu.Unlock()
	c.opMu.Unlock()
}

// Start begins a run unless one is already active
func (c *Controller) Start(opts state.RunOptions) {
	c.lockOp()
	defer c.unlockOp()
	c.start(opts)
}

func (c *Controller) start(opts state.RunOptions) {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return
	}
	c.active = true
	c.gen++
	gen := c.gen
	prev := c.done
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	if err := c.session.SetStatus(state.StatusRunning); err != nil {
		c.logger.WithError(apperrors.Wrap(apperrors.ErrorTypeStore, err, "persist status")).Warn("Failed to persist status")
	}
	if err := c.session.SetOptions(opts); err != nil {
		c.logger.WithError(apperrors.Wrap(apperrors.ErrorTypeStore, err, "persist options")).Warn("Failed to persist options")
	}

	c.surface.Show()
	c.surface.SetStatus("Running", ui.ToneActive)
	c.surface.Log(ui.EntryInfo, "Task started")
	logger.LogStatusChange(c.logger, "idle", "running", fmt.Sprintf("not_following_only=%t demo=%t", opts.UnfollowNotFollowingOnly, opts.IsDemo))

	c.armTimer(gen)

	run := &Run{
		ID:        history.NewRunID(),
		Options:   opts,
		Processed: NewProcessedSet(),
		Active:    func() bool { return c.isCurrent(gen) },
	}
	driver := c.newDriver(run)

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		switch driver.Run(c.ctx) {
		case OutcomeEndOfList:
			c.complete(gen)
		case OutcomeLeftPage:
			c.leftPage(gen)
		}
	}()
}

func (c *Controller) newDriver(run *Run) *Driver {
	executor := &Executor{
		cfg:     c.cfg.Action,
		adapter: c.adapter,
		session: c.session,
		surface: c.surface,
		journal: c.journal,
		limiter: c.limiter,
		clock:   c.clock,
		logger:  c.logger.WithField("run", run.ID),
	}
	return &Driver{
		cfg:      c.cfg.Scroll,
		adapter:  c.adapter,
		session:  c.session,
		filter:   NewFilter(c.adapter, c.logger),
		executor: executor,
		surface:  c.surface,
		clock:    c.clock,
		logger:   c.logger.WithField("run", run.ID),
		run:      run,
		state:    StateScanning,
	}
}

// Pause ends the active run. A manual pause is a user stop and is
// persisted as STOPPED; an automatic pause leaves the persisted status
// alone
func (c *Controller) Pause(manual bool) {
	c.lockOp()
	defer c.unlockOp()
	c.pause(manual)
}

func (c *Controller) pause(manual bool) {
	c.deactivate()

	if manual {
		c.surface.SetStatus("Stopped", ui.ToneStopped)
		c.surface.Log(ui.EntryWarning, "Task stopped by user")
		if err := c.session.SetStatus(state.StatusStopped); err != nil {
			c.logger.WithError(apperrors.Wrap(apperrors.ErrorTypeStore, err, "persist status")).Warn("Failed to persist status")
		}
		logger.LogStatusChange(c.logger, "running", "stopped", "manual")
		c.notifier.Notify("tmu", fmt.Sprintf("Stopped. Total Unfollowed: %d", c.session.Stats().TotalUnfollowed))
		return
	}

	c.surface.SetStatus("Paused", ui.ToneWarning)
	c.surface.Log(ui.EntryInfo, "Task paused")
	logger.LogStatusChange(c.logger, "running", "paused", "automatic")
}

// deactivate clears the active flag and cancels the timer
func (c *Controller) deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// finishRun clears the active flag for run gen. It reports false when a
// newer run or a stop got there first
func (c *Controller) finishRun(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.gen != gen {
		return false
	}
	c.active = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return true
}

// leftPage ends a run that lost the following list. The persisted status
// stays RUNNING so the next page lifetime resumes it
func (c *Controller) leftPage(gen uint64) {
	if !c.finishRun(gen) {
		return
	}
	c.surface.SetStatus("Paused", ui.ToneWarning)
	c.surface.Log(ui.EntryWarning, "Left the Following page. Task paused until it is reopened")
	logger.LogStatusChange(c.logger, "running", "paused", "left following page")
}

// complete finishes a run whose list is exhausted
func (c *Controller) complete(gen uint64) {
	if !c.finishRun(gen) {
		return
	}

	total := c.session.Stats().TotalUnfollowed
	c.surface.SetStatus("Completed", ui.ToneSuccess)
	c.surface.Log(ui.EntrySuccess, fmt.Sprintf("Reached the end of the list. Total Unfollowed: %d", total))
	if err := c.session.SetStatus(state.StatusStopped); err != nil {
		c.logger.WithError(apperrors.Wrap(apperrors.ErrorTypeStore, err, "persist status")).Warn("Failed to persist status")
	}
	logger.LogStatusChange(c.logger, "running", "completed", "end of list")
	c.notifier.Notify("tmu", fmt.Sprintf("Completed. Total Unfollowed: %d", total))
}

func (c *Controller) armTimer(gen uint64) {
	if !c.session.TimerEnabled() || c.cfg.TimerDuration <= 0 {
		return
	}

	c.surface.Log(ui.EntryInfo, fmt.Sprintf("Timer set for %d seconds", int(c.cfg.TimerDuration/time.Second)))
	t := c.clock.AfterFunc(c.cfg.TimerDuration, func() { c.onTimer(gen) })

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = t
	c.mu.Unlock()
}

func (c *Controller) onTimer(gen uint64) {
	c.lockOp()
	defer c.unlockOp()

	c.mu.Lock()
	if !c.active || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.timer = nil
	c.mu.Unlock()

	if c.session.ReloadOnStop() {
		if err := c.reloadNow(); err != nil {
			c.logger.WithError(err).Error("Self-reload failed")
		}
		return
	}
	c.pause(true)
}

// ReloadNow counts down on the status surface, reloads the page and
// resumes from the persisted state
func (c *Controller) ReloadNow() error {
	c.lockOp()
	defer c.unlockOp()
	return c.reloadNow()
}

func (c *Controller) reloadNow() error {
	c.deactivate()

	c.surface.Log(ui.EntryInfo, "Refreshing page to avoid rate limits...")
	for i := c.cfg.ReloadCountdown; i > 0; i-- {
		c.surface.SetStatus(fmt.Sprintf("Reloading in %ds...", i), ui.ToneWarning)
		if err := c.clock.Sleep(c.ctx, time.Second); err != nil {
			return err
		}
	}

	// the adapter retries transient reload failures itself
	if err := c.adapter.Reload(c.ctx); err != nil {
		c.surface.SetStatus("Paused", ui.ToneWarning)
		c.surface.Log(ui.EntryError, "Page reload failed")
		return apperrors.Wrap(apperrors.ErrorTypePage, err, "reload page")
	}

	c.mu.Lock()
	c.resumed = false
	c.mu.Unlock()

	c.resumeFromStorage()
	return nil
}

// ResumeFromStorage restores the displayed total and restarts a run that
// was RUNNING when the previous page lifetime ended. It acts once per
// page lifetime
func (c *Controller) ResumeFromStorage() {
	c.lockOp()
	defer c.unlockOp()
	c.resumeFromStorage()
}

func (c *Controller) resumeFromStorage() {
	c.mu.Lock()
	if c.resumed {
		c.mu.Unlock()
		return
	}
	c.resumed = true
	c.mu.Unlock()

	c.surface.SetTotal(c.session.Stats().TotalUnfollowed)

	if c.session.Status() != state.StatusRunning {
		c.surface.SetStatus("Idle", ui.ToneNeutral)
		return
	}

	// Without the stored options a resumed demo could turn into real
	// unfollows, so the run stays down and the persisted status is kept
	opts, err := c.session.Options()
	if err != nil {
		c.logger.WithError(apperrors.Wrap(apperrors.ErrorTypeStore, err, "read options")).Warn("Failed to read run options, not resuming")
		c.surface.SetStatus("Paused", ui.ToneWarning)
		c.surface.Log(ui.EntryWarning, "Could not restore the previous task options. Start again to continue.")
		return
	}
	c.surface.Log(ui.EntryInfo, "Resuming task from previous session...")
	c.start(opts)
}

// HandleCommand executes one control command. Only CHECK_IN_PROGRESS
// produces a reply. Panics are recovered and logged
func (c *Controller) HandleCommand(msg control.Message) (reply *control.Reply) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(map[string]interface{}{
				"type":  string(msg.Type),
				"panic": fmt.Sprint(r),
			}).Error("Command handler panicked")
			reply = nil
		}
	}()

	switch msg.Type {
	case control.UnfollowAll:
		c.Start(state.RunOptions{})
	case control.UnfollowNotFollowing:
		c.Start(state.RunOptions{UnfollowNotFollowingOnly: true})
	case control.Demo:
		c.Start(state.RunOptions{IsDemo: true})
	case control.Stop:
		c.Pause(true)
	case control.CheckInProgress:
		return &control.Reply{Payload: c.Active()}
	default:
		c.logger.WithField("type", string(msg.Type)).Debug("Ignoring unknown command")
	}
	return nil
}

// Serve processes queued commands one at a time until ctx is done
func (c *Controller) Serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ctx.Done():
			return
		case req := <-c.commands:
			req.reply <- c.HandleCommand(req.msg)
		}
	}
}

// Dispatch queues msg for Serve and waits for its reply
func (c *Controller) Dispatch(ctx context.Context, msg control.Message) (*control.Reply, error) {
	req := request{msg: msg, reply: make(chan *control.Reply, 1)}

	select {
	case c.commands <- req:
	case <-ctx.Done():
		return nil, apperrors.Wrap(apperrors.ErrorTypeTransport, ctx.Err(), "queue "+string(msg.Type))
	case <-c.ctx.Done():
		return nil, apperrors.New(apperrors.ErrorTypeTransport, "controller closed")
	}

	select {
	case reply := <-req.reply:
		return reply, nil
	case <-ctx.Done():
		return nil, apperrors.Wrap(apperrors.ErrorTypeTransport, ctx.Err(), "wait for "+string(msg.Type))
	}
}

// Submit queues msg without waiting for it to run. It is safe to call from
// the status panel's key handler
func (c *Controller) Submit(t control.MessageType) {
	go func() {
		if _, err := c.Dispatch(c.ctx, control.Message{Type: t}); err != nil {
			c.logger.WithError(err).Debug("Command not delivered")
		}
	}()
}

func (c *Controller) idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active || c.busy > 0 {
		return false
	}
	if c.done == nil {
		return true
	}
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// WaitIdle blocks until no run is active, no reload is in progress and
// the last driver has exited
func (c *Controller) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if c.idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops the active run, cancels pending sleeps and waits for the
// driver to exit
func (c *Controller) Close() {
	c.deactivate()
	c.cancel()

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}
