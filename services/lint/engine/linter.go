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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
)

var tracer = otel.Tracer("jsxlint.engine")

// resultSchemaVersion is folded into cache keys; bump it when rule
// semantics change so stale cached results are not served.
const resultSchemaVersion = "2"

// ErrCacheMiss is returned by a ResultCache when no entry exists.
var ErrCacheMiss = errors.New("cache miss")

// CachedResult is the content-derived part of a FileResult that a
// ResultCache stores. Path and dialect are re-applied on a hit.
type CachedResult struct {
	Diagnostics  []Diagnostic `json:"diagnostics"`
	SyntaxErrors bool         `json:"syntax_errors,omitempty"`
	Truncated    bool         `json:"truncated,omitempty"`
}

// ResultCache stores per-file lint outcomes keyed by content.
//
// Implementations must be safe for concurrent use.
type ResultCache interface {
	// Get returns the cached outcome or ErrCacheMiss.
	Get(ctx context.Context, key string) (*CachedResult, error)

	// Put stores the outcome under key.
	Put(ctx context.Context, key string, res *CachedResult) error
}

// FileResult is the outcome of linting one file.
type FileResult struct {
	Path         string       `json:"path"`
	Dialect      string       `json:"dialect"`
	Diagnostics  []Diagnostic `json:"diagnostics"`
	SyntaxErrors bool         `json:"syntax_errors,omitempty"`
	Truncated    bool         `json:"truncated,omitempty"`
	Cached       bool         `json:"cached,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// ErrorCount returns the number of error-severity diagnostics.
func (r *FileResult) ErrorCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

type enabledRule struct {
	rule     Rule
	severity Severity
}

// Option configures a Linter.
type Option func(*Linter)

// WithParser sets the parser used for all files.
func WithParser(p *ast.Parser) Option {
	return func(l *Linter) {
		if p != nil {
			l.parser = p
		}
	}
}

// WithSeverities overrides rule severities by rule name.
// Rules set to SeverityOff are not run.
func WithSeverities(severities map[string]Severity) Option {
	return func(l *Linter) {
		for name, sev := range severities {
			l.severities[name] = sev
		}
	}
}

// WithCache enables result caching.
func WithCache(c ResultCache) Option {
	return func(l *Linter) {
		l.cache = c
	}
}

// WithWorkers sets the maximum number of files linted concurrently.
func WithWorkers(n int) Option {
	return func(l *Linter) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Linter runs a fixed set of rules over source files.
//
// Thread Safety: Safe for concurrent use after construction.
type Linter struct {
	parser     *ast.Parser
	rules      []Rule
	severities map[string]Severity
	enabled    []enabledRule
	cache      ResultCache
	workers    int
	logger     *slog.Logger
	ruleSetKey string
}

// NewLinter creates a Linter for the given rules.
//
// Rules default to SeverityError unless overridden with WithSeverities.
func NewLinter(rules []Rule, opts ...Option) *Linter {
	l := &Linter{
		parser:     ast.NewParser(),
		rules:      rules,
		severities: make(map[string]Severity),
		workers:    runtime.NumCPU(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		sev, ok := l.severities[r.Name()]
		if !ok {
			sev = SeverityError
		}
		if sev == SeverityOff {
			continue
		}
		l.enabled = append(l.enabled, enabledRule{rule: r, severity: sev})
		parts = append(parts, r.Name()+"="+sev.String())
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(resultSchemaVersion + "|" + strings.Join(parts, ",")))
	l.ruleSetKey = hex.EncodeToString(sum[:])[:16]

	return l
}

// Rules returns the rules the linter was built with, enabled or not.
func (l *Linter) Rules() []Rule {
	return l.rules
}

// Severity returns the effective severity of a rule.
func (l *Linter) Severity(name string) Severity {
	for _, er := range l.enabled {
		if er.rule.Name() == name {
			return er.severity
		}
	}
	return SeverityOff
}

// LintSource lints in-memory content.
//
// Description:
//
//	Parses content, walks the tree once dispatching nodes to enabled rules,
//	drops diagnostics silenced by inline directives, and sorts the rest.
//	When a cache is configured, results are looked up by content hash and
//	rule set before parsing.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - filePath: Path used for dialect detection and diagnostic locations.
//   - content: Raw source bytes.
//
// Outputs:
//   - *FileResult: Diagnostics for the file. Never nil on success.
//   - error: Parse failures (size, encoding, dialect) or cancellation.
func (l *Linter) LintSource(ctx context.Context, filePath string, content []byte) (*FileResult, error) {
	return l.LintSourceAs(ctx, filePath, content, ast.DialectUnknown)
}

// LintSourceAs lints in-memory content with an explicit dialect.
// DialectUnknown derives the dialect from filePath.
func (l *Linter) LintSourceAs(ctx context.Context, filePath string, content []byte, dialect ast.Dialect) (*FileResult, error) {
	ctx, span := tracer.Start(ctx, "Linter.LintSource")
	defer span.End()

	start := time.Now()

	if dialect == ast.DialectUnknown {
		dialect = l.parser.DialectFor(filePath)
	}
	key := l.cacheKey(dialect, content)
	if l.cache != nil {
		cached, err := l.cache.Get(ctx, key)
		switch {
		case err == nil:
			recordCacheLookup(true)
			diags := cached.Diagnostics
			if diags == nil {
				diags = []Diagnostic{}
			}
			for i := range diags {
				diags[i].Location.FilePath = filePath
			}
			result := &FileResult{
				Path:         filePath,
				Dialect:      dialect.String(),
				Diagnostics:  diags,
				SyntaxErrors: cached.SyntaxErrors,
				Truncated:    cached.Truncated,
				Cached:       true,
			}
			recordFileLinted(result, time.Since(start))
			return result, nil
		case errors.Is(err, ErrCacheMiss):
			recordCacheLookup(false)
		default:
			l.logger.Warn("result cache lookup failed",
				slog.String("file", filePath),
				slog.String("error", err.Error()))
		}
	}

	file, err := l.parser.ParseAs(ctx, content, filePath, dialect)
	if err != nil {
		recordParseFailure()
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer file.Close()

	diags := make([]Diagnostic, 0)
	supp := newSuppressions()
	table := newDispatchTable(file, l.enabled, &diags)

	stats, err := walk(ctx, file.Root(), table, func(n *sitter.Node) {
		supp.addComment(n, file.Source)
	})
	if err != nil {
		return nil, fmt.Errorf("linting %s: %w", filePath, err)
	}

	diags = supp.filter(diags)
	SortDiagnostics(diags)

	result := &FileResult{
		Path:         filePath,
		Dialect:      file.Dialect.String(),
		Diagnostics:  diags,
		SyntaxErrors: file.HasSyntaxErrors,
		Truncated:    stats.truncated,
	}
	if stats.truncated {
		l.logger.Warn("file nested deeper than walk limit; deepest subtrees not checked",
			slog.String("file", filePath),
			slog.Int("max_depth", MaxWalkDepth))
	}

	if l.cache != nil {
		entry := &CachedResult{
			Diagnostics:  diags,
			SyntaxErrors: result.SyntaxErrors,
			Truncated:    result.Truncated,
		}
		if err := l.cache.Put(ctx, key, entry); err != nil {
			l.logger.Warn("result cache store failed",
				slog.String("file", filePath),
				slog.String("error", err.Error()))
		}
	}

	span.SetAttributes(
		attribute.String("file", filePath),
		attribute.Int("nodes_traversed", stats.nodes),
		attribute.Bool("truncated", stats.truncated),
		attribute.Int("diagnostics", len(diags)),
	)
	recordFileLinted(result, time.Since(start))

	l.logger.Debug("file linted",
		slog.String("file", filePath),
		slog.String("dialect", result.Dialect),
		slog.Int("nodes", stats.nodes),
		slog.Int("diagnostics", len(diags)))

	return result, nil
}

// LintFile reads and lints one file from disk.
func (l *Linter) LintFile(ctx context.Context, filePath string) (*FileResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return l.LintSource(ctx, filePath, content)
}

// LintFiles lints many files concurrently.
//
// Description:
//
//	Files are processed by at most the configured number of workers.
//	A per-file failure (unreadable, too large, invalid UTF-8) is recorded in
//	that file's FileResult.Error and does not abort the run; only context
//	cancellation does.
//
// Outputs:
//   - []*FileResult: One result per input path, in input order.
//   - error: Non-nil only if ctx was cancelled.
func (l *Linter) LintFiles(ctx context.Context, paths []string) ([]*FileResult, error) {
	ctx, span := tracer.Start(ctx, "Linter.LintFiles")
	defer span.End()

	results := make([]*FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := l.LintFile(gctx, path)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				l.logger.Warn("file skipped",
					slog.String("file", path),
					slog.String("error", err.Error()))
				res = &FileResult{
					Path:        path,
					Dialect:     ast.DialectForPath(path).String(),
					Diagnostics: []Diagnostic{},
					Error:       err.Error(),
				}
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("lint run: %w", err)
	}

	span.SetAttributes(
		attribute.Int("files", len(paths)),
		attribute.Int("workers", l.workers),
	)

	return results, nil
}

// cacheKey derives the cache key for content under the current rule set.
// The dialect is part of the key since the same bytes parse differently
// as JavaScript and TypeScript.
func (l *Linter) cacheKey(dialect ast.Dialect, content []byte) string {
	sum := sha256.Sum256(content)
	return l.ruleSetKey + ":" + dialect.String() + ":" + hex.EncodeToString(sum[:])
}
