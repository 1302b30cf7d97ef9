// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
	"github.com/AleutianAI/jsxlint/services/lint/engine"
	"github.com/AleutianAI/jsxlint/services/lint/rules/arraykey"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := OpenInMemory(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_GetPut(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, engine.ErrCacheMiss)

	diags := []engine.Diagnostic{{
		Rule:     arraykey.RuleName,
		Message:  arraykey.Message,
		Severity: engine.SeverityWarn,
		Location: ast.Location{FilePath: "a.jsx", StartLine: 2, StartCol: 7, EndLine: 2, EndCol: 14},
	}}
	require.NoError(t, s.Put(ctx, "k", &engine.CachedResult{Diagnostics: diags, SyntaxErrors: true}))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, diags, got.Diagnostics)
	assert.True(t, got.SyntaxErrors)
	assert.False(t, got.Truncated)

	require.NoError(t, s.Put(ctx, "empty", nil))
	got, err = s.Get(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, got.Diagnostics)
	assert.Empty(t, got.Diagnostics)
	assert.False(t, got.SyntaxErrors)

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Clear())
	_, err = s.Get(ctx, "k")
	assert.True(t, errors.Is(err, engine.ErrCacheMiss))
}

func TestStore_TTL(t *testing.T) {
	s := newTestStore(t, WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", &engine.CachedResult{}))
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(2100 * time.Millisecond)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, engine.ErrCacheMiss)
}

func TestStore_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Put(ctx, "k", nil), context.Canceled)
}

func TestStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", &engine.CachedResult{
		Diagnostics: []engine.Diagnostic{{Rule: "r", Severity: engine.SeverityError}},
	}))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, engine.SeverityError, got.Diagnostics[0].Severity)

	_, err = Open("")
	assert.Error(t, err)
}

func TestStore_WithLinter(t *testing.T) {
	s := newTestStore(t)
	linter := engine.NewLinter([]engine.Rule{arraykey.New()}, engine.WithCache(s))
	src := []byte("items.map((item, i) => <li key={i} />)")

	first, err := linter.LintSource(context.Background(), "a.jsx", src)
	require.NoError(t, err)
	require.Len(t, first.Diagnostics, 1)
	assert.False(t, first.Cached)

	second, err := linter.LintSource(context.Background(), "b.jsx", src)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	require.Len(t, second.Diagnostics, 1)
	assert.Equal(t, "b.jsx", second.Diagnostics[0].Location.FilePath)
	assert.Equal(t, first.Diagnostics[0].Location.StartCol, second.Diagnostics[0].Location.StartCol)
}

func TestStore_WithLinter_KeepsSyntaxErrorFlag(t *testing.T) {
	s := newTestStore(t)
	linter := engine.NewLinter([]engine.Rule{arraykey.New()}, engine.WithCache(s))
	src := []byte("foo.map((a, i) => <Foo key={i} />) )))(")

	first, err := linter.LintSource(context.Background(), "broken.jsx", src)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.True(t, first.SyntaxErrors)

	second, err := linter.LintSource(context.Background(), "broken.jsx", src)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.True(t, second.SyntaxErrors)
	assert.Equal(t, len(first.Diagnostics), len(second.Diagnostics))
}
