package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tmu/pkg/config"
	"tmu/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tmu configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TMU_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.tmu.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Session cookies are masked.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# tmu configuration file
#
# Every option can also be set with an environment variable prefixed
# with TMU_, for example TMU_HANDLE, TMU_AUTH_TOKEN and TMU_CT0.

# X account
x:
  # Handle whose Following list is opened
  handle: ""
  base_url: "https://x.com"
  # Session cookies. Prefer 'tmu auth login', which keeps them in the
  # system keychain instead of this file.
  auth_token: ""
  ct0: ""
  user_agent: ""

# Automated browser
browser:
  headless: false
  viewport_width: 1280
  viewport_height: 900
  navigation_timeout: 30s
  # Glob patterns of the pages the tool may act on
  target_pages:
    - "https://x.com/*/following"
    - "https://twitter.com/*/following"
  # Download the browser driver on first use
  install: true

# Self-reload timer, enabled with 'tmu settings --auto-stop'
session:
  timer_duration: 60s
  # Seconds counted down on the status panel before a reload
  reload_countdown: 5

# Scrolling
scroll:
  wait: 3s
  nudge_distance: 1000
  # Consecutive scrolls that load nothing before the list is done
  max_stalled_retries: 20

# Unfollow pacing
action:
  min_delay: 1s
  max_delay: 2s
  confirm_timeout: 5s
  # 0 means no cap
  max_per_hour: 0

# Retries for page navigation
retry:
  max_attempts: 3
  initial_backoff: 1s
  max_backoff: 30s

# Local websocket endpoint used by 'tmu ctl'
control:
  enabled: true
  listen_addr: "127.0.0.1:7391"

notifications:
  enabled: true

logging:
  # debug, info, warn, error
  level: "info"
  # Optional log file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".tmu.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your X cookies with 'tmu auth login'")
	fmt.Println("2. Run 'tmu config validate' to check the configuration")
	fmt.Println("3. Start with a dry run: 'tmu run --demo'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg
	displayCfg.X.AuthToken = maskSecret(displayCfg.X.AuthToken)
	displayCfg.X.CSRFToken = maskSecret(displayCfg.X.CSRFToken)

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (TMU_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in default locations)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		home := os.Getenv("HOME")
		for _, path := range []string{
			".tmu.yaml",
			".tmu.yml",
			filepath.Join(home, ".config", "tmu", "config.yaml"),
			filepath.Join(home, ".tmu.yaml"),
		} {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}
		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings []string
	if cfg.X.Handle == "" {
		warnings = append(warnings, "x.handle not set; the handle of the stored account will be used")
	}
	if cfg.X.AuthToken != "" {
		warnings = append(warnings, "session cookies are stored in plain text; consider 'tmu auth login'")
	}
	if cfg.Browser.Headless {
		warnings = append(warnings, "headless browsers are more likely to be challenged by X")
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			ui.PrintError("Cannot create log directory", err.Error())
			os.Exit(1)
		}
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Following page: %s\n", cfg.FollowingURL())
	fmt.Printf("  Delay between unfollows: %s-%s\n", cfg.Action.MinDelay, cfg.Action.MaxDelay)
	fmt.Printf("  Self-reload timer: %s\n", cfg.Session.TimerDuration)
	fmt.Printf("  Control endpoint: %s (enabled: %t)\n", cfg.Control.ListenAddr, cfg.Control.Enabled)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > 8 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "***"
}
