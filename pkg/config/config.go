// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config contains the definition of the authcore configuration
// structure and the logic required to load it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultAppName is the application name used for XDG paths.
const DefaultAppName = "authcore"

// configFileName is the name of the configuration file.
const configFileName = "config.yaml"

// Config represents the configuration of the authentication core.
type Config struct {
	// ProviderURL is the base URL of the console's identity endpoints.
	ProviderURL string `yaml:"provider_url" validate:"required,url"`

	// AppName selects the XDG state/config directory.
	AppName string `yaml:"app_name,omitempty"`

	// RequestTimeout bounds each outbound HTTP attempt.
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`

	// ExpirySkew treats a token as expired this long before its stored
	// expiry.
	ExpirySkew time.Duration `yaml:"expiry_skew,omitempty"`

	Retry   RetryConfig   `yaml:"retry,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
}

// RetryConfig is the transient-failure retry policy.
type RetryConfig struct {
	// MaxAttempts bounds transport attempts, the initial try included.
	MaxAttempts uint `yaml:"max_attempts,omitempty" validate:"omitempty,gte=1,lte=10"`

	// InitialInterval is the first retry delay; later delays grow
	// geometrically.
	InitialInterval time.Duration `yaml:"initial_interval,omitempty"`
}

// SessionConfig is the timeout policy for the session monitor.
type SessionConfig struct {
	// IdleTimeout expires the session after this long without activity.
	IdleTimeout time.Duration `yaml:"idle_timeout,omitempty"`

	// AbsoluteTimeout expires the session this long after login.
	AbsoluteTimeout time.Duration `yaml:"absolute_timeout,omitempty"`

	// RememberMeTimeout replaces AbsoluteTimeout when the session was
	// started with the remember-me flag.
	RememberMeTimeout time.Duration `yaml:"remember_me_timeout,omitempty"`

	// WarningWindow is how long before idle expiry the monitor reports
	// the idle-warning state.
	WarningWindow time.Duration `yaml:"warning_window,omitempty"`

	// SampleInterval is how often the monitor samples the activity
	// timestamp.
	SampleInterval time.Duration `yaml:"sample_interval,omitempty"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		AppName:        DefaultAppName,
		RequestTimeout: 30 * time.Second,
		ExpirySkew:     30 * time.Second,
		Retry: RetryConfig{
			MaxAttempts:     4,
			InitialInterval: 1 * time.Second,
		},
		Session: SessionConfig{
			IdleTimeout:       30 * time.Minute,
			AbsoluteTimeout:   24 * time.Hour,
			RememberMeTimeout: 30 * 24 * time.Hour,
			WarningWindow:     2 * time.Minute,
			SampleInterval:    30 * time.Second,
		},
	}
}

// Load reads the configuration file from the XDG config directory, applying
// defaults for anything unset. A missing file yields the defaults.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(xdg.ConfigHome, DefaultAppName, configFileName))
}

// LoadFrom reads the configuration from the given path. Durations accept
// Go syntax ("30m", "24h").
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the given path, creating the directory
// if needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyDefaults fills zero values after a partial config file load.
func (c *Config) applyDefaults() {
	def := Default()

	if c.AppName == "" {
		c.AppName = def.AppName
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.ExpirySkew == 0 {
		c.ExpirySkew = def.ExpirySkew
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = def.Retry.InitialInterval
	}
	if c.Session.IdleTimeout == 0 {
		c.Session.IdleTimeout = def.Session.IdleTimeout
	}
	if c.Session.AbsoluteTimeout == 0 {
		c.Session.AbsoluteTimeout = def.Session.AbsoluteTimeout
	}
	if c.Session.RememberMeTimeout == 0 {
		c.Session.RememberMeTimeout = def.Session.RememberMeTimeout
	}
	if c.Session.WarningWindow == 0 {
		c.Session.WarningWindow = def.Session.WarningWindow
	}
	if c.Session.SampleInterval == 0 {
		c.Session.SampleInterval = def.Session.SampleInterval
	}
}
