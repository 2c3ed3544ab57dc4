// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/dynenc/lib/digest"
	"github.com/bureau-foundation/dynenc/lib/dynenc"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "DYNENC_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for dynenc.
type Config struct {
	// Environment identifies the deployment type (development, production).
	Environment Environment `yaml:"environment"`

	// Encoder configures how modules are created and verified.
	Encoder EncoderConfig `yaml:"encoder"`

	// Log configures command logging.
	Log LogConfig `yaml:"log"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Encoder *EncoderConfig `yaml:"encoder,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
}

// EncoderConfig configures module creation and verification.
type EncoderConfig struct {
	// Hasher names the digest function (see digest.Names).
	// Default: sha256
	Hasher string `yaml:"hasher"`

	// Format is the artifact format written by create.
	// Values: "base64", "zstd", "lz4". Default: base64
	Format string `yaml:"format"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum level logged.
	// Values: "debug", "info", "warn", "error"
	// Default: info (development), warn (production)
	Level string `yaml:"level"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// Artifacts is the directory relative artifact record paths are
	// resolved against. Empty means the working directory.
	Artifacts string `yaml:"artifacts"`
}

// Default returns the default configuration. It is the base the config
// file is merged into, and what the command runs on without a file.
func Default() *Config {
	return &Config{
		Environment: Development,
		Encoder: EncoderConfig{
			Hasher: digest.DefaultName,
			Format: string(dynenc.FormatBase64),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the DYNENC_CONFIG environment variable.
// It fails if the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your dynenc.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{Log: &LogConfig{Level: "warn"}}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Encoder != nil {
		if overrides.Encoder.Hasher != "" {
			c.Encoder.Hasher = overrides.Encoder.Hasher
		}
		if overrides.Encoder.Format != "" {
			c.Encoder.Format = overrides.Encoder.Format
		}
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}

	if overrides.Paths != nil && overrides.Paths.Artifacts != "" {
		c.Paths.Artifacts = overrides.Paths.Artifacts
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Paths.Artifacts = expandVars(c.Paths.Artifacts, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Provided vars first, then the environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if _, err := digest.Lookup(c.Encoder.Hasher); err != nil {
		errs = append(errs, fmt.Errorf("encoder.hasher must be one of: %v", digest.Names()))
	}

	if _, err := dynenc.ParseFormat(c.Encoder.Format); err != nil {
		errs = append(errs, fmt.Errorf("encoder.format must be one of: %v", dynenc.Formats))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Hasher returns the configured digest function.
func (c *Config) Hasher() (digest.Hasher, error) {
	return digest.Lookup(c.Encoder.Hasher)
}

// Format returns the configured artifact format.
func (c *Config) Format() (dynenc.Format, error) {
	return dynenc.ParseFormat(c.Encoder.Format)
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be one of: [debug info warn error], got %q", c.Log.Level)
	}
}

// ArtifactPath resolves an artifact record path against
// Paths.Artifacts. Absolute paths are returned unchanged.
func (c *Config) ArtifactPath(path string) string {
	if c.Paths.Artifacts == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Paths.Artifacts, path)
}
