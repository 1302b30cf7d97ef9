// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-lints files as they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/jsxlint/services/lint/engine"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 150 * time.Millisecond

// Linter is the subset of engine.Linter the watcher needs.
type Linter interface {
	LintFiles(ctx context.Context, paths []string) ([]*engine.FileResult, error)
}

// Handler receives the results of each re-lint batch.
type Handler func(results []*engine.FileResult)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithDiscoverOptions sets the file filter shared with directory discovery.
func WithDiscoverOptions(opts engine.DiscoverOptions) Option {
	return func(w *Watcher) {
		w.discover = opts
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher lints changed files under a set of root directories.
//
// Thread Safety: Run must be called at most once.
type Watcher struct {
	linter   Linter
	roots    []string
	debounce time.Duration
	discover engine.DiscoverOptions
	logger   *slog.Logger
}

// New creates a Watcher over roots.
func New(linter Linter, roots []string, opts ...Option) *Watcher {
	w := &Watcher{
		linter:   linter,
		roots:    roots,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done.
//
// Description:
//
//	Every non-excluded directory under each root is registered with
//	fsnotify; directories created later are registered as they appear and
//	lintable files already inside them are queued.
//	Write and create events on lintable files are collected until no new
//	event arrives for the debounce interval, then the batch is linted and
//	handed to onResults. Removed files are dropped from a pending batch.
//
// Outputs:
//   - error: nil when ctx is cancelled, otherwise a setup or watcher error.
func (w *Watcher) Run(ctx context.Context, onResults Handler) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	for _, root := range w.roots {
		if err := w.addTree(fw, root, root, nil); err != nil {
			return err
		}
	}
	w.logger.Info("watching for changes",
		slog.Any("roots", w.roots),
		slog.Int("directories", len(fw.WatchList())))

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fw, ev, pending) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			clear(pending)
			sort.Strings(batch)

			results, err := w.linter.LintFiles(ctx, batch)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Debug("re-linted", slog.Int("files", len(batch)))
			onResults(results)
		}
	}
}

// handleEvent updates pending and reports whether the debounce timer
// should restart.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]bool) bool {
	root, ok := w.rootOf(ev.Name)
	if !ok {
		return false
	}

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		delete(pending, ev.Name)
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			queued := false
			err := w.addTree(fw, root, ev.Name, func(path string) {
				pending[path] = true
				queued = true
			})
			if err != nil {
				w.logger.Warn("watch: cannot add directory",
					slog.String("dir", ev.Name),
					slog.String("error", err.Error()))
			}
			return queued
		}
	}

	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	if !w.discover.Includes(root, ev.Name) {
		return false
	}
	pending[ev.Name] = true
	return true
}

// addTree registers dir and its non-excluded subdirectories. When found
// is non-nil it receives every lintable file met on the way.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root, dir string, found func(string)) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if found != nil && w.discover.Includes(root, path) {
				found(path)
			}
			return nil
		}
		if w.discover.ExcludesDir(root, path) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// rootOf returns the watched root containing path.
func (w *Watcher) rootOf(path string) (string, bool) {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel) {
			return root, true
		}
	}
	return "", false
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
