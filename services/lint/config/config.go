// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads jsxlint settings from YAML.
//
// The built-in defaults are embedded from jsxlint.yaml. A project file is
// layered on top: fields it sets replace the defaults, rule severities are
// merged by name.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

//go:embed jsxlint.yaml
var defaultConfigYAML []byte

var tracer = otel.Tracer("jsxlint.config")

const (
	// MaxYAMLFileSize bounds configuration files read from disk.
	MaxYAMLFileSize = 1 << 20

	// DefaultFileName is looked up in the working directory when no path is given.
	DefaultFileName = ".jsxlint.yaml"
)

// Config is the complete jsxlint configuration.
type Config struct {
	// Rules maps rule names to severities (off, warn, error).
	Rules map[string]string `yaml:"rules" validate:"dive,keys,required,endkeys,oneof=off warn warning error 0 1 2"`

	// Extensions selects files during directory discovery.
	Extensions []string `yaml:"extensions" validate:"dive,startswith=."`

	// ExcludeDirs are directory names or relative prefixes to skip.
	ExcludeDirs []string `yaml:"exclude_dirs" validate:"dive,required"`

	// Workers bounds concurrent file linting. 0 means runtime.NumCPU().
	Workers int `yaml:"workers" validate:"gte=0,lte=256"`

	// MaxFileSize is the largest file, in bytes, that will be parsed.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gt=0"`

	Cache  CacheConfig  `yaml:"cache"`
	Server ServerConfig `yaml:"server"`
}

// CacheConfig configures the on-disk result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir" validate:"required_if=Enabled true"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`

	// RateLimit is requests per second per server; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `yaml:"burst" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	configMu      sync.RWMutex
	configOnce    sync.Once
	cachedConfig  *Config
	configLoadErr error
)

// Default returns the embedded defaults, parsed once.
//
// Thread Safety: Safe for concurrent use. The returned Config is shared and
// must not be modified; use Clone first.
func Default(ctx context.Context) (*Config, error) {
	if ctx == nil {
		return nil, errors.New("Default: ctx must not be nil")
	}

	configMu.RLock()
	if cachedConfig != nil || configLoadErr != nil {
		cfg, err := cachedConfig, configLoadErr
		configMu.RUnlock()
		return cfg, err
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	configOnce.Do(func() {
		cachedConfig, configLoadErr = Parse(ctx, defaultConfigYAML, nil)
	})
	return cachedConfig, configLoadErr
}

// Reset clears the cached defaults. Intended for tests.
func Reset() {
	configMu.Lock()
	defer configMu.Unlock()
	cachedConfig = nil
	configLoadErr = nil
	configOnce = sync.Once{}
}

// Load reads configuration from path layered on the defaults.
//
// Description:
//
//	An empty path looks for DefaultFileName in the working directory and
//	falls back to the defaults when it does not exist. An explicit path
//	that does not exist is an error.
//
// Inputs:
//   - ctx: Context for tracing.
//   - path: Configuration file, or "".
//
// Outputs:
//   - *Config: A private copy the caller may modify.
//   - error: Read, parse or validation failures.
func Load(ctx context.Context, path string) (*Config, error) {
	ctx, span := tracer.Start(ctx, "config.Load")
	defer span.End()

	base, err := Default(ctx)
	if err != nil {
		return nil, fmt.Errorf("Load: defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return base.Clone(), nil
		}
		return nil, fmt.Errorf("Load: reading %s: %w", path, err)
	}

	cfg, err := Parse(ctx, data, base)
	if err != nil {
		return nil, fmt.Errorf("Load: %s: %w", path, err)
	}

	span.SetAttributes(attribute.String("path", path))
	slog.Debug("config loaded", slog.String("path", path), slog.Int("rules", len(cfg.Rules)))
	return cfg, nil
}

// Parse decodes YAML onto a copy of base (or an empty Config) and validates it.
func Parse(ctx context.Context, data []byte, base *Config) (*Config, error) {
	_, span := tracer.Start(ctx, "config.Parse")
	defer span.End()

	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	cfg := &Config{}
	if base != nil {
		cfg = base.Clone()
	}
	baseRules := cfg.Rules
	cfg.Rules = nil

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	merged := make(map[string]string, len(baseRules)+len(cfg.Rules))
	for k, v := range baseRules {
		merged[k] = v
	}
	for k, v := range cfg.Rules {
		merged[k] = v
	}
	cfg.Rules = merged

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("rules", len(cfg.Rules)),
		attribute.Int("workers", cfg.Workers),
		attribute.Bool("cache_enabled", cfg.Cache.Enabled),
	)
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("validation: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("validation: %w", err)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Rules = make(map[string]string, len(c.Rules))
	for k, v := range c.Rules {
		out.Rules[k] = v
	}
	out.Extensions = append([]string(nil), c.Extensions...)
	out.ExcludeDirs = append([]string(nil), c.ExcludeDirs...)
	return &out
}
