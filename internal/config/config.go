// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package config holds the settings of the s2lloyd command.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatSVG  = "svg"
)

// Environment variables that override file values.
const (
	EnvWorkers  = "S2LLOYD_WORKERS"
	EnvLogLevel = "S2LLOYD_LOG_LEVEL"
)

// Config is the command configuration. Zero Workers means one per CPU.
type Config struct {
	Points     int     `yaml:"points"`
	Seed       int64   `yaml:"seed"`
	Iterations int     `yaml:"iterations"`
	Weight     float64 `yaml:"weight"`
	Workers    int     `yaml:"workers"`
	// Tolerance is the residual in radians at which relaxation stops early.
	Tolerance float64 `yaml:"tolerance"`

	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig selects where results go. An empty Path means stdout.
type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
	// Width is the SVG width in pixels; the height is half of it.
	Width int `yaml:"width"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Points:     1000,
		Seed:       0,
		Iterations: 10,
		Weight:     1,
		Workers:    0,
		Tolerance:  0,
		Output: OutputConfig{
			Format: FormatYAML,
			Width:  1500,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML configuration on top of the defaults and applies
// environment overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Points < 4 {
		return fmt.Errorf("points must be at least 4, got %d", c.Points)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d", c.Iterations)
	}
	if !(c.Weight > 0 && c.Weight <= 1) {
		return fmt.Errorf("weight must be in (0, 1], got %v", c.Weight)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return fmt.Errorf("tolerance must be non-negative, got %v", c.Tolerance)
	}

	switch c.Output.Format {
	case FormatYAML, FormatJSON, FormatSVG:
	default:
		return fmt.Errorf("unknown output format %q (want %s, %s or %s)",
			c.Output.Format, FormatYAML, FormatJSON, FormatSVG)
	}
	if c.Output.Width < 2 {
		return fmt.Errorf("output width must be at least 2, got %d", c.Output.Width)
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return lvl, fmt.Errorf("invalid log level: %w", err)
	}
	return lvl, nil
}
