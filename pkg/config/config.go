package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable read by LoadFromEnv
const EnvPrefix = "TMU_"

// Config holds all configuration options for the unfollow tool
type Config struct {
	// X account and session cookies
	X XConfig `yaml:"x" json:"x"`

	// Automated browser settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Session timer settings
	Session SessionConfig `yaml:"session" json:"session"`

	// Scroll driver pacing
	Scroll ScrollConfig `yaml:"scroll" json:"scroll"`

	// Action executor pacing
	Action ActionConfig `yaml:"action" json:"action"`

	// Retry policy for page navigation
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Local control endpoint
	Control ControlConfig `yaml:"control" json:"control"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// XConfig holds X-specific configuration
type XConfig struct {
	Handle    string `yaml:"handle" json:"handle"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	AuthToken string `yaml:"auth_token" json:"auth_token"`
	CSRFToken string `yaml:"ct0" json:"ct0"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// BrowserConfig holds playwright browser configuration
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	ViewportWidth     int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height" json:"viewport_height"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	TargetPages       []string      `yaml:"target_pages" json:"target_pages"`
	Install           bool          `yaml:"install" json:"install"`
}

// SessionConfig holds the self-reload timer configuration
type SessionConfig struct {
	TimerDuration   time.Duration `yaml:"timer_duration" json:"timer_duration"`
	ReloadCountdown int           `yaml:"reload_countdown" json:"reload_countdown"`
}

// ScrollConfig holds scroll driver configuration
type ScrollConfig struct {
	Wait              time.Duration `yaml:"wait" json:"wait"`
	NudgeDistance     int           `yaml:"nudge_distance" json:"nudge_distance"`
	MaxStalledRetries int           `yaml:"max_stalled_retries" json:"max_stalled_retries"`
}

// ActionConfig holds action executor configuration
type ActionConfig struct {
	MinDelay       time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay       time.Duration `yaml:"max_delay" json:"max_delay"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout" json:"confirm_timeout"`
	MaxPerHour     int           `yaml:"max_per_hour" json:"max_per_hour"`
}

// RetryConfig holds retry configuration for page operations
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
}

// ControlConfig holds the websocket control endpoint configuration
type ControlConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		X: XConfig{
			BaseURL:   "https://x.com",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		},
		Browser: BrowserConfig{
			Headless:          false,
			ViewportWidth:     1280,
			ViewportHeight:    900,
			NavigationTimeout: 30 * time.Second,
			TargetPages: []string{
				"https://x.com/*/following",
				"https://twitter.com/*/following",
			},
			Install: true,
		},
		Session: SessionConfig{
			TimerDuration:   60 * time.Second,
			ReloadCountdown: 5,
		},
		Scroll: ScrollConfig{
			Wait:              3 * time.Second,
			NudgeDistance:     1000,
			MaxStalledRetries: 20,
		},
		Action: ActionConfig{
			MinDelay:       1 * time.Second,
			MaxDelay:       2 * time.Second,
			ConfirmTimeout: 5 * time.Second,
			MaxPerHour:     0, // 0 means no cap
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     30 * time.Second,
		},
		Control: ControlConfig{
			Enabled:    true,
			ListenAddr: "127.0.0.1:7391",
		},
		Notifications: NotificationConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// FollowingURL returns the address of the configured account's following list
func (c *Config) FollowingURL() string {
	return strings.TrimRight(c.X.BaseURL, "/") + "/" + strings.TrimPrefix(c.X.Handle, "@") + "/following"
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	// X account
	if handle := os.Getenv(EnvPrefix + "HANDLE"); handle != "" {
		c.X.Handle = handle
	}
	if baseURL := os.Getenv(EnvPrefix + "BASE_URL"); baseURL != "" {
		c.X.BaseURL = baseURL
	}
	if authToken := os.Getenv(EnvPrefix + "AUTH_TOKEN"); authToken != "" {
		c.X.AuthToken = authToken
	}
	if ct0 := os.Getenv(EnvPrefix + "CT0"); ct0 != "" {
		c.X.CSRFToken = ct0
	}
	if userAgent := os.Getenv(EnvPrefix + "USER_AGENT"); userAgent != "" {
		c.X.UserAgent = userAgent
	}

	// Browser
	if headless := os.Getenv(EnvPrefix + "HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}

	// Pacing
	if v := os.Getenv(EnvPrefix + "TIMER_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMER_DURATION: %w", EnvPrefix, err))
		} else {
			c.Session.TimerDuration = d
		}
	}
	if v := os.Getenv(EnvPrefix + "MAX_STALLED_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_STALLED_RETRIES: %w", EnvPrefix, err))
		} else {
			c.Scroll.MaxStalledRetries = n
		}
	}
	if v := os.Getenv(EnvPrefix + "MAX_PER_HOUR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_PER_HOUR: %w", EnvPrefix, err))
		} else {
			c.Action.MaxPerHour = n
		}
	}

	// Control endpoint
	if addr := os.Getenv(EnvPrefix + "CONTROL_ADDR"); addr != "" {
		c.Control.ListenAddr = addr
	}

	// Notifications
	if notifEnabled := os.Getenv(EnvPrefix + "NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	// Logging level
	if logLevel := os.Getenv(EnvPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv(EnvPrefix + "LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".tmu.yaml",
		".tmu.yml",
		filepath.Join(home, ".config", "tmu", "config.yaml"),
		filepath.Join(home, ".config", "tmu", "config.yml"),
		filepath.Join(home, ".tmu.yaml"),
		filepath.Join(home, ".tmu.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.X.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}

	// Browser
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		errs = append(errs, errors.New("viewport dimensions must be positive"))
	}
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if len(c.Browser.TargetPages) == 0 {
		errs = append(errs, errors.New("at least one target page pattern is required"))
	}

	// Session
	if c.Session.TimerDuration <= 0 {
		errs = append(errs, errors.New("timer duration must be positive"))
	}
	if c.Session.ReloadCountdown < 0 {
		errs = append(errs, errors.New("reload countdown cannot be negative"))
	}

	// Scroll
	if c.Scroll.Wait <= 0 {
		errs = append(errs, errors.New("scroll wait must be positive"))
	}
	if c.Scroll.NudgeDistance <= 0 {
		errs = append(errs, errors.New("nudge distance must be positive"))
	}
	if c.Scroll.MaxStalledRetries < 0 {
		errs = append(errs, errors.New("max stalled retries cannot be negative"))
	}

	// Action
	if c.Action.MinDelay < 0 {
		errs = append(errs, errors.New("min delay cannot be negative"))
	}
	if c.Action.MaxDelay < c.Action.MinDelay {
		errs = append(errs, errors.New("max delay must not be less than min delay"))
	}
	if c.Action.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("confirm timeout must be positive"))
	}
	if c.Action.MaxPerHour < 0 {
		errs = append(errs, errors.New("max per hour cannot be negative"))
	}

	// Retry
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}

	// Control
	if c.Control.Enabled && c.Control.ListenAddr == "" {
		errs = append(errs, errors.New("control listen address is required when control is enabled"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
// Only flags the user actually set should be present in the map
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if handle, ok := flags["handle"].(string); ok && handle != "" {
		c.X.Handle = handle
	}
	if authToken, ok := flags["auth-token"].(string); ok && authToken != "" {
		c.X.AuthToken = authToken
	}
	if ct0, ok := flags["ct0"].(string); ok && ct0 != "" {
		c.X.CSRFToken = ct0
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if timer, ok := flags["timer"].(time.Duration); ok && timer > 0 {
		c.Session.TimerDuration = timer
	}
	if maxStalls, ok := flags["max-stalls"].(int); ok && maxStalls >= 0 {
		c.Scroll.MaxStalledRetries = maxStalls
	}
	if maxPerHour, ok := flags["max-per-hour"].(int); ok && maxPerHour >= 0 {
		c.Action.MaxPerHour = maxPerHour
	}
	if addr, ok := flags["control-addr"].(string); ok && addr != "" {
		c.Control.ListenAddr = addr
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tmu.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
