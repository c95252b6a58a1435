package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"tmu/pkg/config"
	"tmu/pkg/logger"
	"tmu/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	logFile       string
	notifications bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tmu",
	Short: "Bulk unfollow automation for the X following page",
	Long: `tmu drives a browser logged in to your X account and unfollows the
accounts on your Following list, one by one, with randomized pauses.

Features:
  - Unfollow everyone, or only accounts that do not follow you back
  - Demo mode that walks the list without clicking anything
  - Allow-list of accounts that are never unfollowed
  - Optional self-reload timer that resumes after the page reloads
  - Local websocket control endpoint and an interactive status panel
  - Secure cookie storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.tmu.yaml or ~/.config/tmu/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", true, "enable desktop notifications")

	rootCmd.SetVersionTemplate(`tmu {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags the user set explicitly
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("log-file") {
		flags["log-file"] = logFile
	}
	return flags
}

// loadConfig loads configuration and initializes the global logger. It
// exits the process on failure
func loadConfig(cmd *cobra.Command, flags map[string]interface{}, opts ...logger.Option) *config.Config {
	for k, v := range globalFlags(cmd) {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if cmd.Flags().Changed("notifications") {
		cfg.Notifications.Enabled = notifications
	}

	if err := logger.Initialize(&cfg.Logging, opts...); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	return cfg
}
