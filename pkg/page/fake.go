package page

import (
	"context"
	"sync"
	"time"
)

// FakeAccount is one row of a FakePage's following list
type FakeAccount struct {
	Username    string
	FollowsBack bool
	// NoConfirm suppresses the confirmation sheet for this account
	NoConfirm bool
}

// FakePage is an in-memory Adapter that simulates an infinitely scrolling
// following list. Every scroll loads PageSize more rows; each row adds
// RowHeight to the content height. It records every interaction
type FakePage struct {
	mu sync.Mutex

	accounts   []FakeAccount
	visible    int
	unfollowed map[string]bool
	pending    *fakeControl

	PageSize  int
	RowHeight int
	OnTarget  bool
	// FrozenHeight, when non-zero, pins ContentHeight regardless of rows
	FrozenHeight int
	// ControlsErr is returned from ActionableControls when set
	ControlsErr error
	// NoContainer makes ListContainer report that no list is rendered
	NoContainer bool
	// OnClick runs after an unfollow control is clicked, outside the lock
	OnClick func(username string)
	// OnReload runs after every Reload, outside the lock
	OnReload func()

	Clicks    []string
	Confirms  []string
	ScrollTos []int
	ScrollBys []int
	Reloads   int
}

// NewFakePage creates a page showing the first pageSize accounts
func NewFakePage(accounts []FakeAccount, pageSize int) *FakePage {
	fp := &FakePage{
		accounts:   append([]FakeAccount(nil), accounts...),
		unfollowed: make(map[string]bool),
		PageSize:   pageSize,
		RowHeight:  100,
		OnTarget:   true,
	}
	fp.visible = fp.clamp(pageSize)
	return fp
}

func (fp *FakePage) clamp(n int) int {
	if n > len(fp.accounts) {
		return len(fp.accounts)
	}
	return n
}

func (fp *FakePage) loadMore() {
	fp.visible = fp.clamp(fp.visible + fp.PageSize)
}

// Unfollowed reports whether username was confirmed on this page
func (fp *FakePage) Unfollowed(username string) bool {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.unfollowed[username]
}

// ClickCount returns how many unfollow controls were clicked
func (fp *FakePage) ClickCount() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.Clicks)
}

// ReloadCount returns how many times the page was reloaded
func (fp *FakePage) ReloadCount() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.Reloads
}

// ScrollByCount returns how many nudge scrolls were issued
func (fp *FakePage) ScrollByCount() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.ScrollBys)
}

// IsTargetPage implements Adapter
func (fp *FakePage) IsTargetPage() bool {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.OnTarget
}

// ContentHeight implements Adapter
func (fp *FakePage) ContentHeight() (int, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if fp.FrozenHeight != 0 {
		return fp.FrozenHeight, nil
	}
	return fp.visible * fp.RowHeight, nil
}

// ListContainer implements Adapter
func (fp *FakePage) ListContainer() (*Container, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if fp.NoContainer {
		return nil, nil
	}
	return &Container{OffsetHeight: fp.visible * fp.RowHeight, ClientHeight: 600}, nil
}

// ActionableControls implements Adapter
func (fp *FakePage) ActionableControls() ([]Control, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if fp.ControlsErr != nil {
		return nil, fp.ControlsErr
	}
	controls := make([]Control, 0, fp.visible)
	for _, acct := range fp.accounts[:fp.visible] {
		controls = append(controls, &fakeControl{page: fp, account: acct})
	}
	return controls, nil
}

// UsernameOf implements Adapter
func (fp *FakePage) UsernameOf(c Control) (string, error) {
	label, err := c.Label()
	if err != nil {
		return "", err
	}
	return NormalizeUsername(label), nil
}

// FollowsBack implements Adapter
func (fp *FakePage) FollowsBack(c Control) (bool, error) {
	fc, ok := c.(*fakeControl)
	if !ok {
		return false, nil
	}
	return fc.account.FollowsBack, nil
}

// ScrollTo implements Adapter
func (fp *FakePage) ScrollTo(top int) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.ScrollTos = append(fp.ScrollTos, top)
	fp.loadMore()
	return nil
}

// ScrollBy implements Adapter
func (fp *FakePage) ScrollBy(dy int) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.ScrollBys = append(fp.ScrollBys, dy)
	fp.loadMore()
	return nil
}

// WaitForConfirm implements Adapter
func (fp *FakePage) WaitForConfirm(ctx context.Context, timeout time.Duration) (Control, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if fp.pending == nil {
		return nil, nil
	}
	c := fp.pending
	fp.pending = nil
	return c, nil
}

// Reload implements Adapter. Confirmed accounts leave the list
func (fp *FakePage) Reload(ctx context.Context) error {
	fp.mu.Lock()

	remaining := fp.accounts[:0:0]
	for _, acct := range fp.accounts {
		if !fp.unfollowed[acct.Username] {
			remaining = append(remaining, acct)
		}
	}
	fp.accounts = remaining
	fp.visible = fp.clamp(fp.PageSize)
	fp.pending = nil
	fp.Reloads++
	hook := fp.OnReload
	fp.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

type fakeControl struct {
	page    *FakePage
	account FakeAccount
	confirm bool
}

func (c *fakeControl) Label() (string, error) {
	if c.confirm {
		return "Unfollow", nil
	}
	return "Unfollow @" + c.account.Username, nil
}

func (c *fakeControl) Click() error {
	fp := c.page
	fp.mu.Lock()
	if c.confirm {
		fp.Confirms = append(fp.Confirms, c.account.Username)
		fp.unfollowed[c.account.Username] = true
		fp.mu.Unlock()
		return nil
	}

	fp.Clicks = append(fp.Clicks, c.account.Username)
	if !c.account.NoConfirm {
		fp.pending = &fakeControl{page: fp, account: c.account, confirm: true}
	}
	hook := fp.OnClick
	fp.mu.Unlock()

	if hook != nil {
		hook(c.account.Username)
	}
	return nil
}
