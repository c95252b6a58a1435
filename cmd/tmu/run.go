package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tmu/pkg/auth"
	"tmu/pkg/config"
	"tmu/pkg/control"
	"tmu/pkg/history"
	"tmu/pkg/logger"
	"tmu/pkg/page"
	"tmu/pkg/ratelimit"
	"tmu/pkg/state"
	"tmu/pkg/ui"
	"tmu/pkg/ui/tui"
	"tmu/pkg/unfollow"
)

var (
	// Run command flags
	notFollowing bool
	demoMode     bool
	serveMode    bool
	noTUI        bool
	handleFlag   string
	headless     bool
	timerFlag    time.Duration
	maxStalls    int
	maxPerHour   int
	controlAddr  string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the Following page and start unfollowing",
	Long: `Open your X Following page in an automated browser and unfollow accounts.

Credentials are taken from, in order:
  - TMU_AUTH_TOKEN / TMU_CT0 environment variables or the config file
  - Stored credentials (use 'tmu auth login' to store)

If the previous session was still running when it ended, it is resumed
with its original options instead of starting a new run.`,
	Example: `  # Unfollow everyone not on the allow-list
  tmu run

  # Only unfollow accounts that do not follow you back
  tmu run --not-following

  # Walk the list without clicking anything
  tmu run --demo

  # Keep the browser open and accept commands from 'tmu ctl'
  tmu run --serve`,
	Args: cobra.NoArgs,
	Run:  runUnfollow,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&notFollowing, "not-following", false, "only unfollow accounts that do not follow you back")
	runCmd.Flags().BoolVar(&demoMode, "demo", false, "walk the list without clicking unfollow")
	runCmd.Flags().BoolVar(&serveMode, "serve", false, "keep running and accept control commands after the run ends")
	runCmd.Flags().BoolVar(&noTUI, "no-tui", false, "print plain log lines instead of the status panel")
	runCmd.Flags().StringVarP(&handleFlag, "account", "a", "", "X handle whose Following list to open")
	runCmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
	runCmd.Flags().DurationVar(&timerFlag, "timer", 0, "self-reload timer duration (default from config)")
	runCmd.Flags().IntVar(&maxStalls, "max-stalls", 20, "consecutive empty scrolls before the list is considered done")
	runCmd.Flags().IntVar(&maxPerHour, "max-per-hour", 0, "cap on real unfollows per hour (0 = unlimited)")
	runCmd.Flags().StringVar(&controlAddr, "control-addr", "", "listen address of the control endpoint")
}

func runFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if handleFlag != "" {
		flags["handle"] = handleFlag
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if timerFlag > 0 {
		flags["timer"] = timerFlag
	}
	if cmd.Flags().Changed("max-stalls") {
		flags["max-stalls"] = maxStalls
	}
	if cmd.Flags().Changed("max-per-hour") {
		flags["max-per-hour"] = maxPerHour
	}
	if controlAddr != "" {
		flags["control-addr"] = controlAddr
	}
	return flags
}

func runUnfollow(cmd *cobra.Command, args []string) {
	useTUI := !noTUI && term.IsTerminal(int(os.Stdout.Fd()))

	var logOpts []logger.Option
	if useTUI {
		logOpts = append(logOpts, logger.WithConsole(io.Discard))
	}
	cfg := loadConfig(cmd, runFlags(cmd), logOpts...)
	log := logger.GetLogger()

	account, err := resolveAccount(cfg)
	if err != nil {
		ui.PrintError("No X credentials available", err.Error())
		fmt.Println("\nRun 'tmu auth login' or set TMU_AUTH_TOKEN and TMU_CT0.")
		os.Exit(1)
	}
	if cfg.X.Handle == "" {
		cfg.X.Handle = account.Handle
	}
	if cfg.X.Handle == "" {
		ui.PrintError("No X handle configured", "use --account or set TMU_HANDLE")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statePath, err := state.DefaultPath()
	if err != nil {
		ui.PrintError("Failed to locate state file", err.Error())
		os.Exit(1)
	}
	store, err := state.OpenFileStore(statePath, log)
	if err != nil {
		ui.PrintError("Failed to open state file", err.Error())
		os.Exit(1)
	}
	session := state.NewSession(store, log)

	dataDir, err := state.DataDir()
	if err != nil {
		ui.PrintError("Failed to locate data directory", err.Error())
		os.Exit(1)
	}
	journal, err := history.NewJournal(dataDir)
	if err != nil {
		ui.PrintError("Failed to open history", err.Error())
		os.Exit(1)
	}

	browser, err := page.Launch(browserOptions(cfg, account), log)
	if err != nil {
		ui.PrintError("Failed to launch browser", err.Error())
		os.Exit(1)
	}
	defer browser.Close()

	following := browser.Page()
	if err := following.Open(ctx, cfg.FollowingURL()); err != nil {
		ui.PrintError("Failed to open "+cfg.FollowingURL(), err.Error())
		os.Exit(1)
	}

	var (
		ctrl  *unfollow.Controller
		panel *tui.TUI
		base  ui.StatusSurface
	)
	if useTUI {
		panel = tui.NewTUI(func(t control.MessageType) { ctrl.Submit(t) })
		base = panel
	} else {
		base = ui.NewConsoleSurface()
	}

	ctrl = unfollow.NewController(unfollow.ConfigFrom(cfg), unfollow.Deps{
		Page:     following,
		Session:  session,
		Surface:  ui.NewMirror(base, log),
		Journal:  journal,
		Limiter:  ratelimit.New(cfg.Action.MaxPerHour, time.Hour),
		Notifier: ui.NewNotifier(cfg.Notifications.Enabled),
		Logger:   log,
	})
	defer ctrl.Close()

	go ctrl.Serve(ctx)

	if cfg.Control.Enabled {
		srv := control.NewServer(cfg.Control.ListenAddr, ctrl, log)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.WithError(err).Error("Control endpoint stopped")
			}
		}()
	}

	logger.LogComponentStart("run", map[string]interface{}{
		"handle":        cfg.X.Handle,
		"not_following": notFollowing,
		"demo":          demoMode,
		"serve":         serveMode,
	})

	ctrl.ResumeFromStorage()
	if !ctrl.Active() {
		ctrl.Start(state.RunOptions{UnfollowNotFollowingOnly: notFollowing, IsDemo: demoMode})
	}

	if useTUI {
		if !serveMode {
			go func() {
				_ = ctrl.WaitIdle(ctx)
				panel.Stop()
			}()
		}
		go func() {
			<-ctx.Done()
			panel.Stop()
		}()
		if err := panel.Start(); err != nil {
			log.WithError(err).Error("Status panel failed")
		}
	} else if serveMode {
		<-ctx.Done()
	} else {
		_ = ctrl.WaitIdle(ctx)
	}

	stop()
	ctrl.Close()
	logger.LogComponentStop("run", "session ended")
	ui.PrintSuccess(fmt.Sprintf("Total Unfollowed: %d", session.Stats().TotalUnfollowed))
}

// resolveAccount prefers cookies from config or environment, then the
// credential stores
func resolveAccount(cfg *config.Config) (*auth.Account, error) {
	if cfg.X.AuthToken != "" && cfg.X.CSRFToken != "" {
		return &auth.Account{
			Handle:    auth.NormalizeHandle(cfg.X.Handle),
			AuthToken: cfg.X.AuthToken,
			CSRFToken: cfg.X.CSRFToken,
			UserAgent: cfg.X.UserAgent,
		}, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return nil, err
	}
	return manager.Resolve(cfg.X.Handle)
}

func browserOptions(cfg *config.Config, account *auth.Account) page.BrowserOptions {
	userAgent := cfg.X.UserAgent
	if account.UserAgent != "" {
		userAgent = account.UserAgent
	}

	domain := cookieDomain(cfg.X.BaseURL)
	var cookies []page.Cookie
	for name, value := range account.Cookies() {
		cookies = append(cookies, page.Cookie{Name: name, Value: value, Domain: domain})
	}

	return page.BrowserOptions{
		Headless:          cfg.Browser.Headless,
		ViewportWidth:     cfg.Browser.ViewportWidth,
		ViewportHeight:    cfg.Browser.ViewportHeight,
		UserAgent:         userAgent,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		Install:           cfg.Browser.Install,
		TargetPages:       cfg.Browser.TargetPages,
		Cookies:           cookies,
		RetryAttempts:     cfg.Retry.MaxAttempts,
		InitialBackoff:    cfg.Retry.InitialBackoff,
		MaxBackoff:        cfg.Retry.MaxBackoff,
	}
}

// cookieDomain turns https://www.x.com into .x.com
func cookieDomain(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return ".x.com"
	}
	return "." + strings.TrimPrefix(u.Hostname(), "www.")
}
