package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"
	errs "tmu/pkg/errors"
	"tmu/pkg/logger"
	"tmu/pkg/retry"
)

// Cookie is a session cookie injected into the browser context
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// BrowserOptions configures the automated browser
type BrowserOptions struct {
	Headless          bool
	ViewportWidth     int
	ViewportHeight    int
	UserAgent         string
	NavigationTimeout time.Duration
	Install           bool
	TargetPages       []string
	Cookies           []Cookie

	RetryAttempts  int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Browser owns the playwright driver, browser, context and the single page
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    *PlaywrightPage
	logger  logger.Logger
}

// Launch starts Chromium with the session cookies installed
func Launch(opts BrowserOptions, log logger.Logger) (*Browser, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("component", "browser")

	matcher, err := NewTargetMatcher(opts.TargetPages)
	if err != nil {
		return nil, err
	}

	// Keep driver output off the terminal so it cannot garble the status panel
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, errs.Wrap(errs.ErrorTypePage, err, "install playwright")
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypePage, err, "start playwright")
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, errs.Wrap(errs.ErrorTypePage, err, "launch browser")
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, errs.Wrap(errs.ErrorTypePage, err, "create browser context")
	}

	if len(opts.Cookies) > 0 {
		cookies := make([]playwright.OptionalCookie, 0, len(opts.Cookies))
		for _, c := range opts.Cookies {
			cookies = append(cookies, playwright.OptionalCookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   playwright.String(c.Domain),
				Path:     playwright.String("/"),
				Secure:   playwright.Bool(true),
				HttpOnly: playwright.Bool(c.Name == "auth_token"),
			})
		}
		if err := bctx.AddCookies(cookies); err != nil {
			_ = bctx.Close()
			_ = browser.Close()
			_ = pw.Stop()
			return nil, errs.Wrap(errs.ErrorTypeAuth, err, "install session cookies")
		}
	}

	pg, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, errs.Wrap(errs.ErrorTypePage, err, "create page")
	}
	pg.SetDefaultTimeout(float64(opts.NavigationTimeout.Milliseconds()))

	log.InfoWithFields("Browser launched", map[string]interface{}{
		"headless": opts.Headless,
		"cookies":  len(opts.Cookies),
	})

	return &Browser{
		pw:      pw,
		browser: browser,
		context: bctx,
		page: &PlaywrightPage{
			page:    pg,
			matcher: matcher,
			opts:    opts,
			logger:  log,
		},
		logger: log,
	}, nil
}

// Page returns the adapter for the browser's page
func (b *Browser) Page() *PlaywrightPage {
	return b.page
}

// Close releases every playwright resource
func (b *Browser) Close() error {
	_ = b.page.page.Close()
	_ = b.context.Close()
	_ = b.browser.Close()
	if err := b.pw.Stop(); err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}
	b.logger.Debug("Browser closed")
	return nil
}

// PlaywrightPage implements Adapter on a live playwright page
type PlaywrightPage struct {
	page    playwright.Page
	matcher *TargetMatcher
	opts    BrowserOptions
	logger  logger.Logger
}

func (p *PlaywrightPage) retryConfig(ctx context.Context) *retry.Config {
	return retry.NewConfig(ctx, p.opts.RetryAttempts, p.opts.InitialBackoff, p.opts.MaxBackoff, p.logger)
}

// Open navigates to address, retrying transient failures
func (p *PlaywrightPage) Open(ctx context.Context, address string) error {
	waitUntil := playwright.WaitUntilState("domcontentloaded")
	return retry.Do(func() error {
		_, err := p.page.Goto(address, playwright.PageGotoOptions{WaitUntil: &waitUntil})
		if err != nil {
			return classify(err, "navigate to "+address)
		}
		return nil
	}, p.retryConfig(ctx))
}

// URL returns the page's current address
func (p *PlaywrightPage) URL() string {
	return p.page.URL()
}

// IsTargetPage implements Adapter
func (p *PlaywrightPage) IsTargetPage() bool {
	return p.matcher.Match(p.page.URL())
}

// ContentHeight implements Adapter
func (p *PlaywrightPage) ContentHeight() (int, error) {
	v, err := p.page.Evaluate(scriptContentHeight)
	if err != nil {
		return 0, classify(err, "read content height")
	}
	return toInt(v), nil
}

// ListContainer implements Adapter
func (p *PlaywrightPage) ListContainer() (*Container, error) {
	v, err := p.page.Evaluate(scriptListContainer, SelectorListContainer)
	if err != nil {
		return nil, classify(err, "query list container")
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return &Container{
		OffsetHeight: toInt(m["offsetHeight"]),
		ClientHeight: toInt(m["clientHeight"]),
	}, nil
}

// ActionableControls implements Adapter
func (p *PlaywrightPage) ActionableControls() ([]Control, error) {
	handles, err := p.page.QuerySelectorAll(SelectorUnfollowControl)
	if err != nil {
		return nil, classify(err, "query unfollow controls")
	}
	controls := make([]Control, 0, len(handles))
	for _, h := range handles {
		controls = append(controls, &elementControl{el: h})
	}
	return controls, nil
}

// UsernameOf implements Adapter
func (p *PlaywrightPage) UsernameOf(c Control) (string, error) {
	label, err := c.Label()
	if err != nil {
		return "", err
	}
	return NormalizeUsername(label), nil
}

// FollowsBack implements Adapter
func (p *PlaywrightPage) FollowsBack(c Control) (bool, error) {
	ec, ok := c.(*elementControl)
	if !ok {
		return false, errs.New(errs.ErrorTypeUIMismatch, "control does not belong to this page")
	}
	v, err := ec.el.Evaluate(scriptFollowsBack, SelectorFollowIndicator)
	if err != nil {
		return false, classify(err, "inspect follow indicator")
	}
	b, _ := v.(bool)
	return b, nil
}

// ScrollTo implements Adapter
func (p *PlaywrightPage) ScrollTo(top int) error {
	if _, err := p.page.Evaluate(scriptScrollTo, top); err != nil {
		return classify(err, "scroll")
	}
	return nil
}

// ScrollBy implements Adapter
func (p *PlaywrightPage) ScrollBy(dy int) error {
	if _, err := p.page.Evaluate(scriptScrollBy, dy); err != nil {
		return classify(err, "scroll by")
	}
	return nil
}

// WaitForConfirm implements Adapter
func (p *PlaywrightPage) WaitForConfirm(ctx context.Context, timeout time.Duration) (Control, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state := playwright.WaitForSelectorState("visible")
	ms := float64(timeout.Milliseconds())
	el, err := p.page.WaitForSelector(SelectorConfirm, playwright.PageWaitForSelectorOptions{
		State:   &state,
		Timeout: &ms,
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, nil
		}
		return nil, classify(err, "wait for confirmation")
	}
	if el == nil {
		return nil, nil
	}
	return &elementControl{el: el}, nil
}

// Reload implements Adapter
func (p *PlaywrightPage) Reload(ctx context.Context) error {
	waitUntil := playwright.WaitUntilState("domcontentloaded")
	return retry.Do(func() error {
		if _, err := p.page.Reload(playwright.PageReloadOptions{WaitUntil: &waitUntil}); err != nil {
			return classify(err, "reload")
		}
		return nil
	}, p.retryConfig(ctx))
}

type elementControl struct {
	el playwright.ElementHandle
}

func (c *elementControl) Label() (string, error) {
	label, err := c.el.GetAttribute(AttrLabel)
	if err != nil {
		return "", classify(err, "read control label")
	}
	return label, nil
}

func (c *elementControl) Click() error {
	if err := c.el.Click(); err != nil {
		return classify(err, "click")
	}
	return nil
}

// classify tags playwright failures so retry can tell timeouts from other errors
func classify(err error, message string) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return errs.Wrap(errs.ErrorTypeTimeout, err, message)
	}
	return errs.Wrap(errs.ErrorTypePage, err, message)
}

// toInt converts numbers decoded from page scripts
func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
