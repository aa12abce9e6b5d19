package common

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks failures caused by missing or invalid settings, or by
// an action that needs state the caller never established (for example an
// authenticated API call without a session). These are never retried.
var ErrConfiguration = errors.New("configuration error")

// ConfigError describes a single bad or missing setting.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// Is reports ErrConfiguration so callers can match any ConfigError with errors.Is.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// MissingSetting returns a ConfigError for a required setting that has no value.
func MissingSetting(setting string) error {
	return &ConfigError{Setting: setting, Reason: "required setting is missing"}
}
