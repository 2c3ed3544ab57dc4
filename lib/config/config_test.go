// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/dynenc/lib/dynenc"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "dynenc.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Encoder.Hasher != "sha256" {
		t.Errorf("expected hasher=sha256, got %s", cfg.Encoder.Hasher)
	}
	if cfg.Encoder.Format != "base64" {
		t.Errorf("expected format=base64, got %s", cfg.Encoder.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoad_RequiresDynencConfig(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DYNENC_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "DYNENC_CONFIG environment variable not set") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestLoad_WithDynencConfig(t *testing.T) {
	configPath := writeConfig(t, `
encoder:
  hasher: blake3
`)
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Encoder.Hasher != "blake3" {
		t.Errorf("expected hasher=blake3, got %s", cfg.Encoder.Hasher)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Encoder.Format != "base64" {
		t.Errorf("expected format=base64, got %s", cfg.Encoder.Format)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
encoder:
  hasher: blake2b
  format: zstd
log:
  level: debug
paths:
  artifacts: /srv/artifacts
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if _, err := cfg.Hasher(); err != nil {
		t.Errorf("Hasher: %v", err)
	}
	if format, err := cfg.Format(); err != nil || format != dynenc.FormatZstd {
		t.Errorf("Format = %q, %v", format, err)
	}
	if level, err := cfg.LogLevel(); err != nil || level != slog.LevelDebug {
		t.Errorf("LogLevel = %v, %v", level, err)
	}
	if got := cfg.ArtifactPath("codec.json"); got != "/srv/artifacts/codec.json" {
		t.Errorf("ArtifactPath = %s", got)
	}
	if got := cfg.ArtifactPath("/abs/codec.json"); got != "/abs/codec.json" {
		t.Errorf("ArtifactPath(absolute) = %s", got)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile(writeConfig(t, "encoder: [\n")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: production

encoder:
  hasher: sha256

production:
  encoder:
    hasher: blake3
    format: lz4
  log:
    level: error
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Encoder.Hasher != "blake3" {
		t.Errorf("expected hasher=blake3 from production override, got %s", cfg.Encoder.Hasher)
	}
	if cfg.Encoder.Format != "lz4" {
		t.Errorf("expected format=lz4 from production override, got %s", cfg.Encoder.Format)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected level=error from production override, got %s", cfg.Log.Level)
	}
}

func TestProductionDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "environment: production\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected production level=warn, got %s", cfg.Log.Level)
	}
}

func TestDevelopmentIgnoresProductionSection(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
environment: development
production:
  encoder:
    hasher: blake3
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Encoder.Hasher != "sha256" {
		t.Errorf("production override applied in development: hasher=%s", cfg.Encoder.Hasher)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("DYNENC_TEST_DIR", "/from/env")

	tests := []struct {
		input string
		want  string
	}{
		{"${HOME}/artifacts", "/home/test/artifacts"},
		{"${DYNENC_TEST_DIR}/x", "/from/env/x"},
		{"${DYNENC_TEST_UNSET:-/fallback}", "/fallback"},
		{"plain/path", "plain/path"},
	}
	vars := map[string]string{"HOME": "/home/test"}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"environment", func(c *Config) { c.Environment = "staging" }, "invalid environment"},
		{"hasher", func(c *Config) { c.Encoder.Hasher = "md5" }, "encoder.hasher"},
		{"format", func(c *Config) { c.Encoder.Format = "gzip" }, "encoder.format"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(cfg)
			err := cfg.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error = %v, want one containing %q", err, test.wantErr)
			}
		})
	}
}
