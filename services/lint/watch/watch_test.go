// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/jsxlint/services/lint/engine"
	"github.com/AleutianAI/jsxlint/services/lint/rules/arraykey"
)

func TestWatcher_RelintsChangedFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))

	linter := engine.NewLinter([]engine.Rule{arraykey.New()}, engine.WithWorkers(1))
	w := New(linter, []string{root}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []*engine.FileResult, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(results []*engine.FileResult) { batches <- results })
	}()

	// Give the watcher time to register directories.
	time.Sleep(200 * time.Millisecond)

	sub := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	time.Sleep(200 * time.Millisecond)

	bad := filepath.Join(sub, "List.jsx")
	require.NoError(t, os.WriteFile(bad, []byte("items.map((x, i) => <li key={i} />)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("# notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep.js"), []byte("x"), 0o644))

	select {
	case results := <-batches:
		require.Len(t, results, 1)
		assert.Equal(t, bad, results[0].Path)
		assert.Len(t, results[0].Diagnostics, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for re-lint")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingRoot(t *testing.T) {
	w := New(nil, []string{filepath.Join(t.TempDir(), "missing")})
	err := w.Run(context.Background(), func([]*engine.FileResult) {})
	assert.Error(t, err)
}

func TestRootOf(t *testing.T) {
	w := New(nil, []string{filepath.Join("a", "b")})
	root, ok := w.rootOf(filepath.Join("a", "b", "c.js"))
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("a", "b"), root)

	_, ok = w.rootOf(filepath.Join("a", "c.js"))
	assert.False(t, ok)
}

func TestHandleEvent_NewDirectoryQueuesExistingFiles(t *testing.T) {
	root := t.TempDir()
	w := New(nil, []string{root})

	fw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer fw.Close()

	dir := filepath.Join(root, "pkg")
	nested := filepath.Join(dir, "ui")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	a := filepath.Join(dir, "App.jsx")
	b := filepath.Join(nested, "Row.tsx")
	for _, p := range []string{a, b} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "dep.js"), []byte("x"), 0o644))

	pending := make(map[string]bool)
	restart := w.handleEvent(fw, fsnotify.Event{Name: dir, Op: fsnotify.Create}, pending)

	assert.True(t, restart)
	assert.Equal(t, map[string]bool{a: true, b: true}, pending)
	assert.Contains(t, fw.WatchList(), nested)

	empty := filepath.Join(root, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	clear(pending)
	assert.False(t, w.handleEvent(fw, fsnotify.Event{Name: empty, Op: fsnotify.Create}, pending))
	assert.Empty(t, pending)
}

func TestWatcher_LintsMovedInDirectory(t *testing.T) {
	root := t.TempDir()
	staging := t.TempDir()

	linter := engine.NewLinter([]engine.Rule{arraykey.New()}, engine.WithWorkers(1))
	w := New(linter, []string{root}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []*engine.FileResult, 4)
	go func() {
		_ = w.Run(ctx, func(results []*engine.FileResult) { batches <- results })
	}()
	time.Sleep(200 * time.Millisecond)

	src := filepath.Join(staging, "feature")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "List.jsx"), []byte("items.map((x, i) => <li key={i} />)"), 0o644))

	dst := filepath.Join(root, "feature")
	if err := os.Rename(src, dst); err != nil {
		t.Skipf("rename across temp dirs unsupported: %v", err)
	}

	select {
	case results := <-batches:
		require.Len(t, results, 1)
		assert.Equal(t, filepath.Join(dst, "List.jsx"), results[0].Path)
		assert.Len(t, results[0].Diagnostics, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for moved directory to be linted")
	}
}
