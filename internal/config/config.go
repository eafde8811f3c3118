// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

// Package config loads server configuration from defaults, an optional YAML
// file, environment variables, and command-line flags, in ascending
// precedence.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Environment variable overrides. DATABASE_URL keeps its conventional name;
// the session secret never belongs in a flag or config file in production.
const (
	EnvDatabaseURL   = "DATABASE_URL"
	EnvSessionSecret = "PLATEWISE_SESSION_SECRET"
)

// Config holds the server configuration.
type Config struct {
	// ListenAddr is the application HTTP listen address.
	ListenAddr string `koanf:"listen-addr"`

	// MetricsAddr is the observability (metrics/health) listen address.
	MetricsAddr string `koanf:"metrics-addr"`

	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string `koanf:"database-url"`

	// SessionSecret signs session tokens. Rotating it invalidates every
	// outstanding session.
	SessionSecret string `koanf:"session-secret"`

	// SecureCookies marks the session cookie Secure. Enable everywhere TLS
	// terminates in front of the server.
	SecureCookies bool `koanf:"secure-cookies"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log-format"`

	// AutoMigrate runs pending migrations at serve startup.
	AutoMigrate bool `koanf:"auto-migrate"`
}

// RegisterFlags declares the configuration flags with their defaults.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("listen-addr", ":8080", "application HTTP listen address")
	flags.String("metrics-addr", "127.0.0.1:9100", "metrics and health listen address")
	flags.String("database-url", "", "PostgreSQL connection string")
	flags.String("session-secret", "", "secret for signing session tokens")
	flags.Bool("secure-cookies", false, "mark the session cookie Secure")
	flags.String("log-format", "json", "log output format (json or text)")
	flags.Bool("auto-migrate", false, "run pending database migrations on startup")
}

// Load assembles the configuration. path may be empty (no config file).
// Precedence: flag defaults < file < environment < changed flags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	// posflag retains existing koanf values for flags left at their default.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "load flags").
			Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	// Environment beats file and flag defaults, loses to an explicit flag.
	if v := os.Getenv(EnvDatabaseURL); v != "" && !flags.Changed("database-url") {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv(EnvSessionSecret); v != "" && !flags.Changed("session-secret") {
		cfg.SessionSecret = v
	}

	return &cfg, nil
}

// ValidateServe checks the fields serving requires.
func (c *Config) ValidateServe() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database URL is required (set %s or --database-url)", EnvDatabaseURL)
	}
	if c.SessionSecret == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("session secret is required (set %s or --session-secret)", EnvSessionSecret)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log format must be json or text")
	}
	return nil
}
