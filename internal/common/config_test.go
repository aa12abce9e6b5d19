package common

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "setup.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// clearEnv blanks every override so the host environment cannot leak into a test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REALWORLD_APP_URL", "REALWORLD_API_URL",
		"REALWORLD_USER_EMAIL", "REALWORLD_USER_USERNAME", "REALWORLD_USER_PASSWORD",
		"REALWORLD_TIMEOUT_IMPLICIT", "REALWORLD_TIMEOUT_EXPLICIT", "REALWORLD_TIMEOUT_PAGE_LOAD",
		"REALWORLD_BROWSER_HEADLESS", "REALWORLD_BROWSER_NO_SANDBOX", "REALWORLD_BROWSER_PATH",
		"REALWORLD_LOG_LEVEL", "REALWORLD_LOG_OUTPUT", "REALWORLD_RESULTS_DIR",
	} {
		t.Setenv(key, "")
	}
}

const validUser = `
[user]
email = "e2e@example.com"
username = "e2e"
password = "secret"
`

func TestLoadFromFiles_DefaultsAndFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, validUser+`
[app]
base_url = "http://ui.local:4100"

[poller]
tag_attempts = 3
tag_interval = "500ms"
`)

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "http://ui.local:4100", cfg.App.BaseURL)
	assert.Equal(t, "http://localhost:3000/api", cfg.App.APIBaseURL, "unset values keep defaults")
	assert.Equal(t, 3, cfg.Poller.TagAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Poller.TagIntervalDuration())
	assert.Equal(t, 3*time.Second, cfg.Poller.ArticleIntervalDuration())
	assert.Equal(t, 10*time.Second, cfg.Timeouts.ImplicitDuration())
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	clearEnv(t)
	base := writeConfig(t, validUser)
	override := writeConfig(t, `
[user]
password = "override"
`)

	cfg, err := LoadFromFiles(base, override)
	require.NoError(t, err)
	assert.Equal(t, "override", cfg.User.Password)
	assert.Equal(t, "e2e@example.com", cfg.User.Email)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, validUser)
	t.Setenv("REALWORLD_API_URL", "http://api.local/api")
	t.Setenv("REALWORLD_BROWSER_HEADLESS", "false")
	t.Setenv("REALWORLD_LOG_OUTPUT", "stdout, file")

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, "http://api.local/api", cfg.App.APIBaseURL)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"stdout", "file"}, cfg.Logging.Output)
}

func TestLoadFromFiles_MissingCredentialsIsConfigError(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromFiles()
	assert.Nil(t, cfg)
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrConfiguration))
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.True(t, strings.HasPrefix(cerr.Setting, "user."), "setting %q", cerr.Setting)
	assert.Equal(t, "required setting is missing", cerr.Reason)
}

func TestValidate_RejectsBadDuration(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.User = UserConfig{Email: "e2e@example.com", Username: "e2e", Password: "x"}
	cfg.Poller.ArticleInterval = "soon"

	err := cfg.Validate()
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "poller.article_interval", cerr.Setting)
}

func TestValidate_RejectsNonPositiveDurations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		setting string
	}{
		{"zero page load", func(c *Config) { c.Timeouts.PageLoad = "0s" }, "timeouts.page_load"},
		{"negative implicit", func(c *Config) { c.Timeouts.Implicit = "-1s" }, "timeouts.implicit"},
		{"zero tag interval", func(c *Config) { c.Poller.TagInterval = "0s" }, "poller.tag_interval"},
		{"negative settle", func(c *Config) { c.Poller.RefreshSettle = "-5ms" }, "poller.refresh_settle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.User = UserConfig{Email: "e2e@example.com", Username: "e2e", Password: "x"}
			tt.mutate(cfg)

			err := cfg.Validate()
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.setting, cerr.Setting)
		})
	}
}

func TestValidate_ReportsFirstBadDurationInOrder(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.User = UserConfig{Email: "e2e@example.com", Username: "e2e", Password: "x"}
	cfg.Timeouts.Implicit = "0s"
	cfg.API.RequestTimeout = "never"
	cfg.Poller.APISyncDelay = "0s"

	for i := 0; i < 10; i++ {
		err := cfg.Validate()
		var cerr *ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "timeouts.implicit", cerr.Setting)
	}

	cfg.Timeouts.Implicit = "1s"
	cfg.API.RequestTimeout = "30s"
	assert.NoError(t, cfg.Validate(), "Zero settle delays are allowed")
}

func TestValidate_RejectsBadURL(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.User = UserConfig{Email: "e2e@example.com", Username: "e2e", Password: "x"}
	cfg.App.APIBaseURL = "not a url"

	err := cfg.Validate()
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "app.api_base_url", cerr.Setting)
}

func TestLoadFromFiles_UnreadableFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConfiguration))
}
