package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "https://x.com", cfg.X.BaseURL)
	assert.NotEmpty(t, cfg.X.UserAgent)

	assert.Equal(t, 60*time.Second, cfg.Session.TimerDuration)
	assert.Equal(t, 5, cfg.Session.ReloadCountdown)

	assert.Equal(t, 3*time.Second, cfg.Scroll.Wait)
	assert.Equal(t, 1000, cfg.Scroll.NudgeDistance)
	assert.Equal(t, 20, cfg.Scroll.MaxStalledRetries)

	assert.Equal(t, 1*time.Second, cfg.Action.MinDelay)
	assert.Equal(t, 2*time.Second, cfg.Action.MaxDelay)
	assert.Equal(t, 0, cfg.Action.MaxPerHour)

	assert.Equal(t, "127.0.0.1:7391", cfg.Control.ListenAddr)
	assert.Len(t, cfg.Browser.TargetPages, 2)

	assert.NoError(t, cfg.Validate())
}

func TestFollowingURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		handle  string
		want    string
	}{
		{"plain handle", "https://x.com", "jack", "https://x.com/jack/following"},
		{"handle with at sign", "https://x.com", "@jack", "https://x.com/jack/following"},
		{"trailing slash", "https://twitter.com/", "jack", "https://twitter.com/jack/following"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.X.BaseURL = tt.baseURL
			cfg.X.Handle = tt.handle
			assert.Equal(t, tt.want, cfg.FollowingURL())
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TMU_HANDLE", "env-handle")
	t.Setenv("TMU_AUTH_TOKEN", "env-token")
	t.Setenv("TMU_CT0", "env-ct0")
	t.Setenv("TMU_HEADLESS", "true")
	t.Setenv("TMU_TIMER_DURATION", "90s")
	t.Setenv("TMU_MAX_STALLED_RETRIES", "7")
	t.Setenv("TMU_MAX_PER_HOUR", "120")
	t.Setenv("TMU_CONTROL_ADDR", "127.0.0.1:9000")
	t.Setenv("TMU_NOTIFICATIONS_ENABLED", "false")
	t.Setenv("TMU_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-handle", cfg.X.Handle)
	assert.Equal(t, "env-token", cfg.X.AuthToken)
	assert.Equal(t, "env-ct0", cfg.X.CSRFToken)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 90*time.Second, cfg.Session.TimerDuration)
	assert.Equal(t, 7, cfg.Scroll.MaxStalledRetries)
	assert.Equal(t, 120, cfg.Action.MaxPerHour)
	assert.Equal(t, "127.0.0.1:9000", cfg.Control.ListenAddr)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("TMU_TIMER_DURATION", "soon")
	t.Setenv("TMU_MAX_STALLED_RETRIES", "many")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TMU_TIMER_DURATION")
	assert.Contains(t, err.Error(), "TMU_MAX_STALLED_RETRIES")

	// Defaults survive bad input
	assert.Equal(t, 60*time.Second, cfg.Session.TimerDuration)
	assert.Equal(t, 20, cfg.Scroll.MaxStalledRetries)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
x:
  handle: filehandle
  auth_token: file-token
  ct0: file-ct0
browser:
  headless: true
  target_pages:
    - "https://x.com/*/following"
session:
  timer_duration: 2m
scroll:
  wait: 4s
  max_stalled_retries: 0
action:
  min_delay: 500ms
  max_delay: 1500ms
  max_per_hour: 200
logging:
  level: warn
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, "filehandle", cfg.X.Handle)
		assert.Equal(t, "file-token", cfg.X.AuthToken)
		assert.Equal(t, "file-ct0", cfg.X.CSRFToken)
		assert.True(t, cfg.Browser.Headless)
		assert.Equal(t, []string{"https://x.com/*/following"}, cfg.Browser.TargetPages)
		assert.Equal(t, 2*time.Minute, cfg.Session.TimerDuration)
		assert.Equal(t, 4*time.Second, cfg.Scroll.Wait)
		assert.Equal(t, 0, cfg.Scroll.MaxStalledRetries)
		assert.Equal(t, 500*time.Millisecond, cfg.Action.MinDelay)
		assert.Equal(t, 1500*time.Millisecond, cfg.Action.MaxDelay)
		assert.Equal(t, 200, cfg.Action.MaxPerHour)
		assert.Equal(t, "warn", cfg.Logging.Level)

		// Untouched sections keep their defaults
		assert.Equal(t, 1000, cfg.Scroll.NudgeDistance)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("x:\n  handle: [this is invalid\n"), 0644))

		cfg := DefaultConfig()
		err := cfg.LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("non-existent file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile("/non/existent/path/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds config in current directory", func(t *testing.T) {
		tempDir := t.TempDir()
		t.Setenv("HOME", tempDir)
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))

		require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".tmu.yaml"), []byte("x: {}"), 0644))

		cfg := DefaultConfig()
		assert.Equal(t, ".tmu.yaml", cfg.findConfigFile())
	})

	t.Run("no config file found", func(t *testing.T) {
		tempDir := t.TempDir()
		t.Setenv("HOME", tempDir)
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))

		cfg := DefaultConfig()
		assert.Empty(t, cfg.findConfigFile())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		setupConfig   func(*Config)
		expectError   bool
		errorContains []string
	}{
		{
			name:        "defaults are valid",
			setupConfig: func(cfg *Config) {},
			expectError: false,
		},
		{
			name: "zero stall bound means unbounded",
			setupConfig: func(cfg *Config) {
				cfg.Scroll.MaxStalledRetries = 0
			},
			expectError: false,
		},
		{
			name: "invalid pacing",
			setupConfig: func(cfg *Config) {
				cfg.Scroll.Wait = 0
				cfg.Scroll.NudgeDistance = -1
				cfg.Scroll.MaxStalledRetries = -1
			},
			expectError: true,
			errorContains: []string{
				"scroll wait must be positive",
				"nudge distance must be positive",
				"max stalled retries cannot be negative",
			},
		},
		{
			name: "delay window inverted",
			setupConfig: func(cfg *Config) {
				cfg.Action.MinDelay = 3 * time.Second
				cfg.Action.MaxDelay = 1 * time.Second
			},
			expectError:   true,
			errorContains: []string{"max delay must not be less than min delay"},
		},
		{
			name: "no target pages",
			setupConfig: func(cfg *Config) {
				cfg.Browser.TargetPages = nil
			},
			expectError:   true,
			errorContains: []string{"at least one target page pattern is required"},
		},
		{
			name: "control enabled without address",
			setupConfig: func(cfg *Config) {
				cfg.Control.ListenAddr = ""
			},
			expectError:   true,
			errorContains: []string{"control listen address is required"},
		},
		{
			name: "invalid timer",
			setupConfig: func(cfg *Config) {
				cfg.Session.TimerDuration = 0
				cfg.Session.ReloadCountdown = -1
			},
			expectError: true,
			errorContains: []string{
				"timer duration must be positive",
				"reload countdown cannot be negative",
			},
		},
		{
			name: "invalid log level",
			setupConfig: func(cfg *Config) {
				cfg.Logging.Level = "invalid"
			},
			expectError:   true,
			errorContains: []string{"invalid log level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.setupConfig(cfg)

			err := cfg.Validate()
			if tt.expectError {
				require.Error(t, err)
				for _, want := range tt.errorContains {
					assert.Contains(t, err.Error(), want)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"handle":       "flag-handle",
		"auth-token":   "flag-token",
		"ct0":          "flag-ct0",
		"headless":     true,
		"timer":        45 * time.Second,
		"max-stalls":   3,
		"max-per-hour": 50,
		"control-addr": "127.0.0.1:8000",
		"log-level":    "error",
	})

	assert.Equal(t, "flag-handle", cfg.X.Handle)
	assert.Equal(t, "flag-token", cfg.X.AuthToken)
	assert.Equal(t, "flag-ct0", cfg.X.CSRFToken)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Session.TimerDuration)
	assert.Equal(t, 3, cfg.Scroll.MaxStalledRetries)
	assert.Equal(t, 50, cfg.Action.MaxPerHour)
	assert.Equal(t, "127.0.0.1:8000", cfg.Control.ListenAddr)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.X.Handle = "saved"
	cfg.Scroll.Wait = 5 * time.Second
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "scroll")

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "saved", loaded.X.Handle)
	assert.Equal(t, 5*time.Second, loaded.Scroll.Wait)
}

func TestLoadPrecedence(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	oldDir, _ := os.Getwd()
	defer os.Chdir(oldDir)
	require.NoError(t, os.Chdir(tempDir))

	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("x:\n  handle: from-file\nlogging:\n  level: warn\n"), 0644))
	t.Setenv("TMU_LOG_LEVEL", "error")

	cfg, err := Load(configPath, map[string]interface{}{"handle": "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.X.Handle)
	assert.Equal(t, "error", cfg.Logging.Level)
}
