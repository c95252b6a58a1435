package unfollow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tmu/pkg/history"
	"tmu/pkg/logger"
	"tmu/pkg/page"
	"tmu/pkg/ratelimit"
	"tmu/pkg/state"
	"tmu/pkg/ui"
)

func testConfig() Config {
	return Config{
		TimerDuration:   10 * time.Second,
		ReloadCountdown: 5,
		Scroll: ScrollConfig{
			Wait:              3 * time.Second,
			NudgeDistance:     1000,
			MaxStalledRetries: 3,
		},
		Action: ActionConfig{
			MinDelay:       time.Second,
			MaxDelay:       2 * time.Second,
			ConfirmTimeout: 5 * time.Second,
		},
	}
}

func accounts(names ...string) []page.FakeAccount {
	out := make([]page.FakeAccount, len(names))
	for i, name := range names {
		out[i] = page.FakeAccount{Username: name}
	}
	return out
}

type harness struct {
	page    *page.FakePage
	store   *state.MemoryStore
	session *state.Session
	surface *ui.MemorySurface
	clock   *FakeClock
	journal *history.MemoryRecorder
	log     *logger.TestLogger
}

func newHarness(accts []page.FakeAccount, pageSize int) *harness {
	log := logger.NewTestLogger()
	store := state.NewMemoryStore()
	return &harness{
		page:    page.NewFakePage(accts, pageSize),
		store:   store,
		session: state.NewSession(store, log),
		surface: ui.NewMemorySurface(),
		clock:   NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		journal: &history.MemoryRecorder{},
		log:     log,
	}
}

func (h *harness) controller(t *testing.T, adapter page.Adapter) *Controller {
	t.Helper()
	if adapter == nil {
		adapter = h.page
	}
	c := NewController(testConfig(), Deps{
		Page:    adapter,
		Session: h.session,
		Surface: h.surface,
		Journal: h.journal,
		Clock:   h.clock,
		Logger:  h.log,
	})
	t.Cleanup(c.Close)
	return c
}

func (h *harness) executor(adapter page.Adapter) *Executor {
	if adapter == nil {
		adapter = h.page
	}
	return &Executor{
		cfg:     testConfig().Action,
		adapter: adapter,
		session: h.session,
		surface: h.surface,
		journal: h.journal,
		limiter: ratelimit.Unlimited{},
		clock:   h.clock,
		logger:  h.log,
	}
}

func (h *harness) driver(run *Run) *Driver {
	return &Driver{
		cfg:      testConfig().Scroll,
		adapter:  h.page,
		session:  h.session,
		filter:   NewFilter(h.page, h.log),
		executor: h.executor(nil),
		surface:  h.surface,
		clock:    h.clock,
		logger:   h.log,
		run:      run,
		state:    StateScanning,
	}
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.WaitIdle(ctx), "controller did not become idle")
}

func activeRun(opts state.RunOptions) *Run {
	return &Run{
		ID:        "run-1",
		Options:   opts,
		Processed: NewProcessedSet(),
		Active:    func() bool { return true },
	}
}

// gatedPage blocks ContentHeight until Open is called
type gatedPage struct {
	*page.FakePage
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedPage(fp *page.FakePage) *gatedPage {
	return &gatedPage{
		FakePage: fp,
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
}

func (g *gatedPage) ContentHeight() (int, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.FakePage.ContentHeight()
}

func (g *gatedPage) Open() {
	g.once.Do(func() { close(g.release) })
}

func (g *gatedPage) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("driver never scanned")
	}
}
