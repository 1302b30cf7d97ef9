// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// jsxlint finds React keys derived from an iteration callback's index.
//
// Usage:
//
//	jsxlint check [paths...]          Lint files and directories (default ".")
//	jsxlint watch [dirs...]           Re-lint files as they change
//	jsxlint serve [--addr :8089]      Serve the HTTP API
//	jsxlint rules                     List rules and severities
//	jsxlint cache stats|clear         Inspect or empty the result cache
//
// Exit codes:
//
//	0 - no error-severity diagnostics
//	1 - at least one error-severity diagnostic
//	2 - usage, configuration or I/O error
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
	"github.com/AleutianAI/jsxlint/services/lint/cache"
	"github.com/AleutianAI/jsxlint/services/lint/config"
	"github.com/AleutianAI/jsxlint/services/lint/engine"
	"github.com/AleutianAI/jsxlint/services/lint/report"
	"github.com/AleutianAI/jsxlint/services/lint/rules"
	"github.com/AleutianAI/jsxlint/services/lint/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errLintFailed signals error-severity diagnostics; it maps to exit code 1.
var errLintFailed = errors.New("lint failed")

// globalFlags hold values of the persistent flags.
type globalFlags struct {
	configPath string
	format     string
	workers    int
	cacheDir   string
	noCache    bool
	noColor    bool
	debug      bool

	traceExporter string
	otlpEndpoint  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errLintFailed):
		return 1
	default:
		fmt.Fprintf(stderr, "jsxlint: %v\n", err)
		return 2
	}
}

func newRootCmd() *cobra.Command {
	gf := &globalFlags{}

	root := &cobra.Command{
		Use:           "jsxlint",
		Short:         "Detect React keys derived from array indexes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd.ErrOrStderr(), gf.debug)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&gf.configPath, "config", "c", "", "config file (default ./"+config.DefaultFileName+" if present)")
	pf.StringVarP(&gf.format, "format", "f", string(report.FormatText), "output format: text, compact or json")
	pf.IntVarP(&gf.workers, "workers", "j", 0, "files linted concurrently (0 uses the config value)")
	pf.StringVar(&gf.cacheDir, "cache-dir", "", "enable the result cache in this directory")
	pf.BoolVar(&gf.noCache, "no-cache", false, "disable the result cache")
	pf.BoolVar(&gf.noColor, "no-color", false, "disable colored output")
	pf.BoolVar(&gf.debug, "debug", false, "enable debug logging")
	pf.StringVar(&gf.traceExporter, "trace-exporter", "none", "span exporter: none, stdout or otlp")
	pf.StringVar(&gf.otlpEndpoint, "otlp-endpoint", "", "OTLP/gRPC collector host:port (default $"+telemetry.EnvEndpoint+")")

	root.AddCommand(
		newCheckCmd(gf),
		newWatchCmd(gf),
		newServeCmd(gf),
		newRulesCmd(gf),
		newCacheCmd(gf),
	)
	return root
}

// setupLogging installs the default slog logger on w.
func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// startTelemetry installs the tracer provider selected by flags. The
// returned function flushes pending spans.
func startTelemetry(ctx context.Context, gf *globalFlags, w io.Writer) (func(), error) {
	exporter, err := telemetry.ParseExporter(gf.traceExporter)
	if err != nil {
		return nil, err
	}
	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Exporter: exporter,
		Endpoint: gf.otlpEndpoint,
		Writer:   w,
		Version:  version,
	})
	if err != nil {
		return nil, err
	}
	return func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			slog.Warn("flushing spans", slog.String("error", err.Error()))
		}
	}, nil
}

// loadConfig loads configuration and applies flag overrides.
func loadConfig(ctx context.Context, gf *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(ctx, gf.configPath)
	if err != nil {
		return nil, err
	}
	if gf.workers > 0 {
		cfg.Workers = gf.workers
	}
	if gf.cacheDir != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.Dir = gf.cacheDir
	}
	if gf.noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildLinter wires configuration into a Linter. The returned close function
// releases the result cache, if one was opened.
func buildLinter(cfg *config.Config) (*engine.Linter, func(), error) {
	severities, err := rules.Severities(cfg.Rules)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	opts := []engine.Option{
		engine.WithParser(ast.NewParser(ast.WithMaxFileSize(cfg.MaxFileSize))),
		engine.WithSeverities(severities),
		engine.WithWorkers(cfg.Workers),
	}

	closeFn := func() {}
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Dir, cache.WithTTL(cfg.Cache.TTL))
		if err != nil {
			// Linting still works without the cache.
			slog.Warn("result cache unavailable, continuing without it",
				slog.String("dir", cfg.Cache.Dir),
				slog.String("error", err.Error()))
		} else {
			opts = append(opts, engine.WithCache(store))
			closeFn = func() {
				if err := store.Close(); err != nil {
					slog.Warn("closing result cache", slog.String("error", err.Error()))
				}
			}
		}
	}

	return engine.NewLinter(rules.All(), opts...), closeFn, nil
}

// newFormatter picks the output formatter for w.
func newFormatter(gf *globalFlags, w io.Writer) (report.Formatter, error) {
	return report.New(report.Format(gf.format), report.Options{
		Color:  !gf.noColor && report.ColorEnabled(w),
		Source: report.ReadFile,
	})
}

// discoverOptions converts configuration into discovery options.
func discoverOptions(cfg *config.Config) engine.DiscoverOptions {
	return engine.DiscoverOptions{
		Extensions:  cfg.Extensions,
		ExcludeDirs: cfg.ExcludeDirs,
	}
}
