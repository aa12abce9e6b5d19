package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// Version information (set via -ldflags during build)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// GetFullVersion returns version with commit info
func GetFullVersion() string {
	return fmt.Sprintf("%s (commit: %s)", Version, GitCommit)
}

// PrintBanner displays the tool banner and logs the targets it will exercise
func PrintBanner(name string, config *Config, logger arbor.ILogger) {
	banner.Print(name, Version)

	logger.Info().
		Str("app_url", config.App.BaseURL).
		Str("api_url", config.App.APIBaseURL).
		Str("user", config.User.Email).
		Bool("headless", config.Browser.Headless).
		Msg("Target application")
}
