package common

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the suite configuration
type Config struct {
	App      AppConfig      `toml:"app"`
	User     UserConfig     `toml:"user"`
	Timeouts TimeoutsConfig `toml:"timeouts"`
	Browser  BrowserConfig  `toml:"browser"`
	Poller   PollerConfig   `toml:"poller"`
	API      APIConfig      `toml:"api"`
	Logging  LoggingConfig  `toml:"logging"`
	Output   OutputConfig   `toml:"output"`
}

// AppConfig holds the addresses of the application under test
type AppConfig struct {
	BaseURL    string `toml:"base_url" validate:"required,url"`     // UI root, hash routes are appended (e.g. http://localhost:4100)
	APIBaseURL string `toml:"api_base_url" validate:"required,url"` // API root (e.g. http://localhost:3000/api)
}

// UserConfig holds the credentials of the suite's primary test user
type UserConfig struct {
	Email    string `toml:"email" validate:"required,email"`
	Username string `toml:"username" validate:"required"`
	Password string `toml:"password" validate:"required"`
}

// TimeoutsConfig mirrors the implicit/explicit/page-load waits of the UI layer
type TimeoutsConfig struct {
	Implicit string `toml:"implicit" validate:"required"`  // per element lookup, e.g. "10s"
	Explicit string `toml:"explicit" validate:"required"`  // explicit waits inside page objects
	PageLoad string `toml:"page_load" validate:"required"` // navigation + load hook
}

type BrowserConfig struct {
	Type         string `toml:"type" validate:"oneof=chrome chromium"`
	Headless     bool   `toml:"headless"`
	WindowWidth  int    `toml:"window_width" validate:"gt=0"`
	WindowHeight int    `toml:"window_height" validate:"gt=0"`
	NoSandbox    bool   `toml:"no_sandbox"` // required when running as root in containers
	ExecPath     string `toml:"exec_path"`  // optional explicit browser binary
}

// PollerConfig controls the eventual-consistency waits used by page objects
type PollerConfig struct {
	TagAttempts     int    `toml:"tag_attempts" validate:"gte=1"`
	TagInterval     string `toml:"tag_interval" validate:"required"`
	ArticleAttempts int    `toml:"article_attempts" validate:"gte=1"`
	ArticleInterval string `toml:"article_interval" validate:"required"`
	FallbackTags    int    `toml:"fallback_tags" validate:"gte=0"`     // visible tags tried once direct polling is exhausted
	RefreshSettle   string `toml:"refresh_settle" validate:"required"` // pause after a reload before probing
	APISyncDelay    string `toml:"api_sync_delay" validate:"required"` // fixed settle after API writes where the UI exposes no condition
}

type APIConfig struct {
	RateLimit      int    `toml:"rate_limit" validate:"gte=1"` // requests per second
	RequestTimeout string `toml:"request_timeout" validate:"required"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
}

type OutputConfig struct {
	ResultsBaseDir string `toml:"results_base_dir" validate:"required"`
}

// NewDefaultConfig returns the configuration used when no file or environment
// override supplies a value. Test user credentials have no defaults.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			BaseURL:    "http://localhost:4100",
			APIBaseURL: "http://localhost:3000/api",
		},
		Timeouts: TimeoutsConfig{
			Implicit: "10s",
			Explicit: "15s",
			PageLoad: "30s",
		},
		Browser: BrowserConfig{
			Type:         "chrome",
			Headless:     true,
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Poller: PollerConfig{
			TagAttempts:     7,
			TagInterval:     "2s",
			ArticleAttempts: 5,
			ArticleInterval: "3s",
			FallbackTags:    3,
			RefreshSettle:   "2s",
			APISyncDelay:    "3s",
		},
		API: APIConfig{
			RateLimit:      20,
			RequestTimeout: "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Output: OutputConfig{
			ResultsBaseDir: "results",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// The result is validated; any problem is reported as a *ConfigError.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies REALWORLD_* environment variables on top of file values
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("REALWORLD_APP_URL"); v != "" {
		config.App.BaseURL = v
	}
	if v := os.Getenv("REALWORLD_API_URL"); v != "" {
		config.App.APIBaseURL = v
	}

	if v := os.Getenv("REALWORLD_USER_EMAIL"); v != "" {
		config.User.Email = v
	}
	if v := os.Getenv("REALWORLD_USER_USERNAME"); v != "" {
		config.User.Username = v
	}
	if v := os.Getenv("REALWORLD_USER_PASSWORD"); v != "" {
		config.User.Password = v
	}

	if v := os.Getenv("REALWORLD_TIMEOUT_IMPLICIT"); v != "" {
		config.Timeouts.Implicit = v
	}
	if v := os.Getenv("REALWORLD_TIMEOUT_EXPLICIT"); v != "" {
		config.Timeouts.Explicit = v
	}
	if v := os.Getenv("REALWORLD_TIMEOUT_PAGE_LOAD"); v != "" {
		config.Timeouts.PageLoad = v
	}

	if v := os.Getenv("REALWORLD_BROWSER_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Browser.Headless = b
		}
	}
	if v := os.Getenv("REALWORLD_BROWSER_NO_SANDBOX"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Browser.NoSandbox = b
		}
	}
	if v := os.Getenv("REALWORLD_BROWSER_PATH"); v != "" {
		config.Browser.ExecPath = v
	}

	if v := os.Getenv("REALWORLD_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("REALWORLD_LOG_OUTPUT"); v != "" {
		outputs := []string{}
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				outputs = append(outputs, o)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if v := os.Getenv("REALWORLD_RESULTS_DIR"); v != "" {
		config.Output.ResultsBaseDir = v
	}
}

// Validate checks struct constraints and that every duration setting parses to a usable value
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			_, setting, _ := strings.Cut(first.Namespace(), ".")
			reason := fmt.Sprintf("failed '%s' check", first.Tag())
			if first.Tag() == "required" {
				reason = "required setting is missing"
			}
			return &ConfigError{Setting: setting, Reason: reason}
		}
		return fmt.Errorf("failed to validate config: %w", err)
	}

	// Settle pauses may be zero; timeouts and poll intervals must be positive
	durations := []struct {
		setting   string
		value     string
		allowZero bool
	}{
		{"timeouts.implicit", c.Timeouts.Implicit, false},
		{"timeouts.explicit", c.Timeouts.Explicit, false},
		{"timeouts.page_load", c.Timeouts.PageLoad, false},
		{"poller.tag_interval", c.Poller.TagInterval, false},
		{"poller.article_interval", c.Poller.ArticleInterval, false},
		{"poller.refresh_settle", c.Poller.RefreshSettle, true},
		{"poller.api_sync_delay", c.Poller.APISyncDelay, true},
		{"api.request_timeout", c.API.RequestTimeout, false},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return &ConfigError{Setting: d.setting, Reason: fmt.Sprintf("invalid duration %q", d.value)}
		}
		if parsed < 0 || (parsed == 0 && !d.allowZero) {
			return &ConfigError{Setting: d.setting, Reason: fmt.Sprintf("duration %q must be positive", d.value)}
		}
	}

	return nil
}

// mustDuration parses a value that Validate has already checked
func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func (t TimeoutsConfig) ImplicitDuration() time.Duration { return mustDuration(t.Implicit) }
func (t TimeoutsConfig) ExplicitDuration() time.Duration { return mustDuration(t.Explicit) }
func (t TimeoutsConfig) PageLoadDuration() time.Duration { return mustDuration(t.PageLoad) }

func (p PollerConfig) TagIntervalDuration() time.Duration     { return mustDuration(p.TagInterval) }
func (p PollerConfig) ArticleIntervalDuration() time.Duration { return mustDuration(p.ArticleInterval) }
func (p PollerConfig) RefreshSettleDuration() time.Duration   { return mustDuration(p.RefreshSettle) }
func (p PollerConfig) APISyncDelayDuration() time.Duration    { return mustDuration(p.APISyncDelay) }

func (a APIConfig) RequestTimeoutDuration() time.Duration { return mustDuration(a.RequestTimeout) }
