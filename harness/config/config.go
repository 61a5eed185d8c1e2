// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// WaitConfig holds the defaults applied to event waits that do not pass
// explicit options.
type WaitConfig struct {
	DefaultTimeout string `yaml:"default_timeout"` // duration string (default: 30s)
	PollInterval   string `yaml:"poll_interval"`   // duration string (default: 250ms)
}

// Config is the top-level harness configuration.
type Config struct {
	Listen          string     `yaml:"listen"`
	LogLevel        string     `yaml:"log_level"`
	Wait            WaitConfig `yaml:"wait"`
	CarryOverEvents []string   `yaml:"carry_over_events"`

	defaultTimeout time.Duration
	pollInterval   time.Duration
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:   "0.0.0.0:9000",
		LogLevel: "info",
		Wait: WaitConfig{
			DefaultTimeout: "30s",
			PollInterval:   "250ms",
		},
		CarryOverEvents: []string{"iut-ready"},
	}
}

// Load reads a YAML config file, applies env var overrides and validates
// the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
			logrus.Warnf("config file %s not found, using defaults", path)
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides maps BTHARNESS_* env vars to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BTHARNESS_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("BTHARNESS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks the configuration and resolves duration strings.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address not set")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}

	timeout, err := time.ParseDuration(c.Wait.DefaultTimeout)
	if err != nil {
		return errors.Wrapf(err, "invalid wait default_timeout %q", c.Wait.DefaultTimeout)
	}
	if timeout <= 0 {
		return errors.Errorf("wait default_timeout must be positive, got %q", c.Wait.DefaultTimeout)
	}

	interval, err := time.ParseDuration(c.Wait.PollInterval)
	if err != nil {
		return errors.Wrapf(err, "invalid wait poll_interval %q", c.Wait.PollInterval)
	}
	if interval <= 0 {
		return errors.Errorf("wait poll_interval must be positive, got %q", c.Wait.PollInterval)
	}

	for _, category := range c.CarryOverEvents {
		if category == "" {
			return errors.New("carry_over_events entries must be non-empty")
		}
	}

	c.defaultTimeout = timeout
	c.pollInterval = interval
	return nil
}

// DefaultTimeout returns the resolved wait timeout. Valid after Validate.
func (c *Config) DefaultTimeout() time.Duration {
	return c.defaultTimeout
}

// PollInterval returns the resolved wait poll interval. Valid after Validate.
func (c *Config) PollInterval() time.Duration {
	return c.pollInterval
}
