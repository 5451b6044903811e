package pacer

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultPhaseSeconds = 4
	DefaultTotalMinutes = 3
	DefaultTheme        = "ocean"
	SoundBell           = "bell"
	SoundNone           = "none"
	DefaultSound        = SoundBell

	// Upper bounds keep tick counts and durations far from overflow.
	MaxPhaseSeconds = 60 * 60
	MaxTotalMinutes = 24 * 60
)

// ErrConfiguration matches every *ConfigError.
var ErrConfiguration = errors.New("invalid session configuration")

// ConfigError reports one invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid session configuration: %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// Config is the immutable input of a session. Theme and SoundType are opaque
// tags for the presentation layer.
type Config struct {
	PhaseDurationSeconds int    `json:"phase_duration_seconds"`
	TotalDurationMinutes int    `json:"total_duration_minutes"`
	Theme                string `json:"theme"`
	SoundType            string `json:"sound_type"`
}

func DefaultConfig() Config {
	return Config{
		PhaseDurationSeconds: DefaultPhaseSeconds,
		TotalDurationMinutes: DefaultTotalMinutes,
		Theme:                DefaultTheme,
		SoundType:            DefaultSound,
	}
}

func (c Config) Validate() error {
	if c.PhaseDurationSeconds <= 0 {
		return &ConfigError{Field: "phase_duration_seconds", Message: "must be positive"}
	}
	if c.PhaseDurationSeconds > MaxPhaseSeconds {
		return &ConfigError{Field: "phase_duration_seconds", Message: fmt.Sprintf("must be at most %d", MaxPhaseSeconds)}
	}
	if c.TotalDurationMinutes <= 0 {
		return &ConfigError{Field: "total_duration_minutes", Message: "must be positive"}
	}
	if c.TotalDurationMinutes > MaxTotalMinutes {
		return &ConfigError{Field: "total_duration_minutes", Message: fmt.Sprintf("must be at most %d", MaxTotalMinutes)}
	}
	return nil
}

func (c Config) TotalDuration() time.Duration {
	return time.Duration(c.TotalDurationMinutes) * time.Minute
}
