// Package config loads breathr's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sadopc/breathr/internal/pacer"
	"gopkg.in/yaml.v3"
)

// Config holds all breathr configuration.
type Config struct {
	// Defaults for new sessions. Preferences saved from the settings
	// screen take precedence.
	Pacer PacerConfig `yaml:"pacer"`

	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
}

type PacerConfig struct {
	PhaseSeconds int    `yaml:"phase_seconds"`
	TotalMinutes int    `yaml:"total_minutes"`
	Theme        string `yaml:"theme"`
	Sound        string `yaml:"sound"` // bell, none
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures logging. The TUI owns the terminal, so logs go
// to a file.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"` // debug, info, warn, error
	File    string `yaml:"file"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Dir returns ~/.config/breathr, falling back to ./.breathr.
func Dir() string {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return ".breathr"
	}
	return filepath.Join(cfg, "breathr")
}

// DefaultPath returns ~/.config/breathr/config.yaml
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Pacer: PacerConfig{
			PhaseSeconds: pacer.DefaultPhaseSeconds,
			TotalMinutes: pacer.DefaultTotalMinutes,
			Theme:        pacer.DefaultTheme,
			Sound:        pacer.DefaultSound,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "breathr.db"),
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			File:    filepath.Join(dir, "breathr.log"),
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8377",
		},
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file
// yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Pacer.PhaseSeconds <= 0 {
		return ValidationError{Field: "pacer.phase_seconds", Message: "must be positive"}
	}
	if c.Pacer.PhaseSeconds > pacer.MaxPhaseSeconds {
		return ValidationError{Field: "pacer.phase_seconds", Message: fmt.Sprintf("must be at most %d", pacer.MaxPhaseSeconds)}
	}
	if c.Pacer.TotalMinutes <= 0 {
		return ValidationError{Field: "pacer.total_minutes", Message: "must be positive"}
	}
	if c.Pacer.TotalMinutes > pacer.MaxTotalMinutes {
		return ValidationError{Field: "pacer.total_minutes", Message: fmt.Sprintf("must be at most %d", pacer.MaxTotalMinutes)}
	}
	switch c.Pacer.Sound {
	case pacer.SoundBell, pacer.SoundNone:
	default:
		return ValidationError{Field: "pacer.sound", Message: fmt.Sprintf("unknown sound %q", c.Pacer.Sound)}
	}
	if c.Database.Path == "" {
		return ValidationError{Field: "database.path", Message: "must not be empty"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ValidationError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("BREATHR_DB"); path != "" {
		c.Database.Path = path
	}
	if level := os.Getenv("BREATHR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("BREATHR_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// SessionConfig converts the pacer defaults into a session config.
func (p PacerConfig) SessionConfig() pacer.Config {
	return pacer.Config{
		PhaseDurationSeconds: p.PhaseSeconds,
		TotalDurationMinutes: p.TotalMinutes,
		Theme:                p.Theme,
		SoundType:            p.Sound,
	}
}
