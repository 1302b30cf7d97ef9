// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Lint Runs
// =============================================================================

var (
	// filesLintedTotal counts linted files by dialect and source.
	// Labels: dialect (javascript, typescript, tsx), source (parsed, cache)
	filesLintedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jsxlint",
		Subsystem: "engine",
		Name:      "files_linted_total",
		Help:      "Total files linted by dialect and result source",
	}, []string{"dialect", "source"})

	// diagnosticsTotal counts reported diagnostics by rule and severity.
	diagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jsxlint",
		Subsystem: "engine",
		Name:      "diagnostics_total",
		Help:      "Total diagnostics reported by rule and severity",
	}, []string{"rule", "severity"})

	// parseFailuresTotal counts files that could not be parsed.
	parseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jsxlint",
		Subsystem: "engine",
		Name:      "parse_failures_total",
		Help:      "Total files rejected by the parser",
	})

	// cacheLookupsTotal counts result cache lookups by outcome.
	// Labels: outcome (hit, miss)
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jsxlint",
		Subsystem: "engine",
		Name:      "cache_lookups_total",
		Help:      "Result cache lookups by outcome",
	}, []string{"outcome"})

	// lintDurationSeconds measures per-file lint latency.
	lintDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jsxlint",
		Subsystem: "engine",
		Name:      "lint_duration_seconds",
		Help:      "Per-file lint latency including parsing",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"dialect"})
)

// recordFileLinted records one completed file.
func recordFileLinted(r *FileResult, d time.Duration) {
	source := "parsed"
	if r.Cached {
		source = "cache"
	}
	filesLintedTotal.WithLabelValues(r.Dialect, source).Inc()
	lintDurationSeconds.WithLabelValues(r.Dialect).Observe(d.Seconds())
	for _, diag := range r.Diagnostics {
		diagnosticsTotal.WithLabelValues(diag.Rule, diag.Severity.String()).Inc()
	}
}

// recordParseFailure records a file the parser rejected.
func recordParseFailure() {
	parseFailuresTotal.Inc()
}

// recordCacheLookup records a cache hit or miss.
func recordCacheLookup(hit bool) {
	if hit {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	cacheLookupsTotal.WithLabelValues("miss").Inc()
}
