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
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
)

// callNamedRule reports every call whose callee is the identifier target.
type callNamedRule struct {
	name   string
	target string
}

func (r callNamedRule) Name() string        { return r.name }
func (r callNamedRule) Description() string { return "flags calls to " + r.target }
func (r callNamedRule) NodeKinds() []string { return []string{ast.NodeCallExpression} }

func (r callNamedRule) Check(pass *Pass, node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn != nil && ast.Text(fn, pass.Source()) == r.target {
		pass.Report(node, "call to "+r.target)
	}
}

// memCache is an in-memory ResultCache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]CachedResult
	gets    int
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]CachedResult)}
}

func (c *memCache) Get(_ context.Context, key string) (*CachedResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	e.Diagnostics = append([]Diagnostic(nil), e.Diagnostics...)
	return &e, nil
}

func (c *memCache) Put(_ context.Context, key string, res *CachedResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	e := *res
	e.Diagnostics = append([]Diagnostic(nil), res.Diagnostics...)
	c.entries[key] = e
	return nil
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (*CachedResult, error) {
	return nil, errors.New("disk on fire")
}
func (failingCache) Put(context.Context, string, *CachedResult) error {
	return errors.New("disk on fire")
}

func TestLintSource_ReportsAndSorts(t *testing.T) {
	linter := NewLinter([]Rule{
		callNamedRule{name: "no-beta", target: "beta"},
		callNamedRule{name: "no-alpha", target: "alpha"},
	})

	src := "beta();\nalpha(); beta();\n"
	res, err := linter.LintSource(context.Background(), "a.js", []byte(src))
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 3)

	assert.Equal(t, "javascript", res.Dialect)
	assert.False(t, res.SyntaxErrors)
	assert.False(t, res.Cached)

	assert.Equal(t, 1, res.Diagnostics[0].Location.StartLine)
	assert.Equal(t, "no-beta", res.Diagnostics[0].Rule)
	assert.Equal(t, 2, res.Diagnostics[1].Location.StartLine)
	assert.Equal(t, "no-alpha", res.Diagnostics[1].Rule)
	assert.Equal(t, 0, res.Diagnostics[1].Location.StartCol)
	assert.Equal(t, 9, res.Diagnostics[2].Location.StartCol)
	assert.Equal(t, "a.js", res.Diagnostics[2].Location.FilePath)
	assert.Equal(t, 3, res.ErrorCount())
}

func TestLintSource_Severities(t *testing.T) {
	rules := []Rule{
		callNamedRule{name: "no-alpha", target: "alpha"},
		callNamedRule{name: "no-beta", target: "beta"},
	}
	linter := NewLinter(rules, WithSeverities(map[string]Severity{
		"no-alpha": SeverityOff,
		"no-beta":  SeverityWarn,
	}))

	assert.Equal(t, SeverityOff, linter.Severity("no-alpha"))
	assert.Equal(t, SeverityWarn, linter.Severity("no-beta"))
	assert.Len(t, linter.Rules(), 2)

	res, err := linter.LintSource(context.Background(), "a.js", []byte("alpha(); beta();"))
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "no-beta", res.Diagnostics[0].Rule)
	assert.Equal(t, SeverityWarn, res.Diagnostics[0].Severity)
	assert.Equal(t, 0, res.ErrorCount())
}

func TestLintSource_Suppression(t *testing.T) {
	linter := NewLinter([]Rule{
		callNamedRule{name: "no-alpha", target: "alpha"},
		callNamedRule{name: "no-beta", target: "beta"},
	})

	src := `// jsxlint-disable-next-line
alpha();
alpha(); // jsxlint-disable-line no-alpha -- legacy
/* jsxlint-disable-next-line no-beta */
alpha(); beta();
beta(); // jsxlint-disable-line no-alpha, no-gamma
`
	res, err := linter.LintSource(context.Background(), "a.js", []byte(src))
	require.NoError(t, err)

	var got []string
	for _, d := range res.Diagnostics {
		got = append(got, d.Rule+"@"+strconv.Itoa(d.Location.StartLine))
	}
	assert.Equal(t, []string{"no-alpha@5", "no-beta@6"}, got)
}

func TestLintSource_SyntaxErrorsTolerated(t *testing.T) {
	linter := NewLinter([]Rule{callNamedRule{name: "no-alpha", target: "alpha"}})
	res, err := linter.LintSource(context.Background(), "a.js", []byte("alpha();\nconst = ;\n"))
	require.NoError(t, err)
	assert.True(t, res.SyntaxErrors)
	assert.Len(t, res.Diagnostics, 1)
}

func TestLintSource_ParseErrors(t *testing.T) {
	linter := NewLinter([]Rule{callNamedRule{name: "no-alpha", target: "alpha"}},
		WithParser(ast.NewParser(ast.WithMaxFileSize(8))))

	_, err := linter.LintSource(context.Background(), "a.js", []byte("alpha(); alpha();"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ast.ErrFileTooLarge)

	_, err = linter.LintSource(context.Background(), "a.py", []byte("x"))
	assert.ErrorIs(t, err, ast.ErrUnsupportedDialect)
}

func TestLintSource_Cache(t *testing.T) {
	cache := newMemCache()
	linter := NewLinter([]Rule{callNamedRule{name: "no-alpha", target: "alpha"}}, WithCache(cache))
	src := []byte("alpha();")

	first, err := linter.LintSource(context.Background(), "one.js", src)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, cache.puts)

	second, err := linter.LintSource(context.Background(), "two.js", src)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	require.Len(t, second.Diagnostics, 1)
	assert.Equal(t, "two.js", second.Diagnostics[0].Location.FilePath)

	// Same bytes under another dialect are a different entry.
	third, err := linter.LintSource(context.Background(), "three.ts", src)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, cache.puts)
}

func TestLintSource_CacheKeepsFileFlags(t *testing.T) {
	cache := newMemCache()
	linter := NewLinter([]Rule{callNamedRule{name: "no-alpha", target: "alpha"}}, WithCache(cache))
	src := []byte("alpha(); )))(")

	first, err := linter.LintSource(context.Background(), "a.js", src)
	require.NoError(t, err)
	require.True(t, first.SyntaxErrors)

	second, err := linter.LintSource(context.Background(), "a.js", src)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.True(t, second.SyntaxErrors)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestLintSource_CacheKeyDependsOnRuleSet(t *testing.T) {
	rules := []Rule{callNamedRule{name: "no-alpha", target: "alpha"}}
	a := NewLinter(rules)
	b := NewLinter(rules, WithSeverities(map[string]Severity{"no-alpha": SeverityWarn}))
	js := ast.DialectJavaScript
	assert.NotEqual(t, a.cacheKey(js, []byte("x")), b.cacheKey(js, []byte("x")))
	assert.Equal(t, a.cacheKey(js, []byte("x")), NewLinter(rules).cacheKey(js, []byte("x")))
	assert.NotEqual(t, a.cacheKey(js, []byte("x")), a.cacheKey(ast.DialectTSX, []byte("x")))
}

func TestLintSource_CacheFailuresIgnored(t *testing.T) {
	linter := NewLinter([]Rule{callNamedRule{name: "no-alpha", target: "alpha"}}, WithCache(failingCache{}))
	res, err := linter.LintSource(context.Background(), "a.js", []byte("alpha();"))
	require.NoError(t, err)
	assert.Len(t, res.Diagnostics, 1)
}

func TestLintFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	good := write("good.js", "beta();")
	bad := write("bad.jsx", "alpha(); alpha();")
	invalid := write("invalid.js", "alpha(\xff);")
	missing := filepath.Join(dir, "missing.js")

	linter := NewLinter([]Rule{callNamedRule{name: "no-alpha", target: "alpha"}}, WithWorkers(2))
	results, err := linter.LintFiles(context.Background(), []string{good, bad, invalid, missing})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, good, results[0].Path)
	assert.Empty(t, results[0].Diagnostics)
	assert.Len(t, results[1].Diagnostics, 2)
	assert.Equal(t, "javascript", results[1].Dialect)
	assert.NotEmpty(t, results[2].Error)
	assert.NotEmpty(t, results[3].Error)
}

func TestLintFiles_Cancelled(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(p, []byte("alpha();"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	linter := NewLinter([]Rule{callNamedRule{name: "no-alpha", target: "alpha"}})
	_, err := linter.LintFiles(ctx, []string{p})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeverity_Text(t *testing.T) {
	for _, in := range []string{"off", "warn", "warning", "error", "0", "1", "2"} {
		_, err := ParseSeverity(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseSeverity("fatal")
	assert.Error(t, err)

	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("warn")))
	assert.Equal(t, SeverityWarn, s)
	b, err := s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "warn", string(b))
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Rule:     "no-alpha",
		Message:  "call to alpha",
		Severity: SeverityError,
		Location: ast.Location{FilePath: "a.js", StartLine: 3, StartCol: 4},
	}
	assert.Equal(t, "a.js:3:5: call to alpha (no-alpha)", d.String())
}

func TestLintSourceAs(t *testing.T) {
	linter := NewLinter([]Rule{callNamedRule{name: "no-alpha", target: "alpha"}})

	res, err := linter.LintSourceAs(context.Background(), "snippet", []byte("alpha(<a />);"), ast.DialectTSX)
	require.NoError(t, err)
	assert.Equal(t, "tsx", res.Dialect)
	assert.False(t, res.SyntaxErrors)
	assert.Len(t, res.Diagnostics, 1)

	_, err = linter.LintSourceAs(context.Background(), "snippet", []byte("alpha();"), ast.DialectUnknown)
	assert.ErrorIs(t, err, ast.ErrUnsupportedDialect)
}

func TestLintSource_DeepNestingTruncates(t *testing.T) {
	linter := NewLinter([]Rule{callNamedRule{name: "no-alpha", target: "alpha"}})

	shallow, err := linter.LintSource(context.Background(), "a.js", []byte("x = ((alpha()));"))
	require.NoError(t, err)
	assert.False(t, shallow.Truncated)
	assert.Len(t, shallow.Diagnostics, 1)

	depth := MaxWalkDepth + 100
	src := "x = " + strings.Repeat("(", depth) + "alpha()" + strings.Repeat(")", depth) + ";"
	deep, err := linter.LintSource(context.Background(), "b.js", []byte(src))
	require.NoError(t, err)
	assert.True(t, deep.Truncated)
	assert.Empty(t, deep.Diagnostics)
}
