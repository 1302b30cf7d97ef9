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
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
)

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{"node_modules", ".git", "dist", "build", "coverage", "vendor", ".next"}

// DiscoverOptions configures file discovery.
type DiscoverOptions struct {
	// Extensions selects files to lint. Empty means ast.SupportedExtensions().
	Extensions []string

	// ExcludeDirs lists directory base names or slash-separated path
	// prefixes (relative to the root) to skip.
	ExcludeDirs []string
}

// Discover expands roots (files or directories) into the files to lint.
//
// Description:
//
//	Explicit file arguments are always kept if their dialect is known.
//	Directories are walked recursively; excluded directories, minified
//	bundles (*.min.js) and declaration files are skipped.
//
// Outputs:
//   - []string: Sorted, de-duplicated file paths.
//   - error: Non-nil if a root does not exist or ctx was cancelled.
func Discover(ctx context.Context, roots []string, opts DiscoverOptions) ([]string, error) {
	extSet, excludes := opts.resolve()

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
		if !info.IsDir() {
			if ast.DialectForPath(root) != ast.DialectUnknown {
				add(root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && isExcludedDir(root, path, d.Name(), excludes) {
					return filepath.SkipDir
				}
				return nil
			}
			if isLintable(path, extSet) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// resolve applies defaults and returns the extension set and exclusions.
func (o DiscoverOptions) resolve() (map[string]bool, []string) {
	exts := o.Extensions
	if len(exts) == 0 {
		exts = ast.SupportedExtensions()
	}
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = true
	}
	excludes := o.ExcludeDirs
	if excludes == nil {
		excludes = DefaultExcludeDirs
	}
	return extSet, excludes
}

// Includes reports whether Discover would select path when walking root.
func (o DiscoverOptions) Includes(root, path string) bool {
	extSet, excludes := o.resolve()
	if !isLintable(path, extSet) {
		return false
	}
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	if rel == "." {
		return true
	}
	dir := root
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		dir = filepath.Join(dir, part)
		if isExcludedDir(root, dir, part, excludes) {
			return false
		}
	}
	return true
}

// ExcludesDir reports whether Discover would skip the directory dir under root.
func (o DiscoverOptions) ExcludesDir(root, dir string) bool {
	if filepath.Clean(root) == filepath.Clean(dir) {
		return false
	}
	_, excludes := o.resolve()
	return isExcludedDir(root, dir, filepath.Base(dir), excludes)
}

// isExcludedDir matches a directory against base names and relative prefixes.
func isExcludedDir(root, path, name string, excludes []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, ex := range excludes {
		ex = strings.TrimSuffix(filepath.ToSlash(ex), "/")
		if ex == "" {
			continue
		}
		if name == ex || rel == ex || strings.HasPrefix(rel, ex+"/") {
			return true
		}
	}
	return false
}

// isLintable reports whether a file should be linted.
func isLintable(path string, extSet map[string]bool) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(base, ".min.js") || strings.HasSuffix(base, ".d.ts") {
		return false
	}
	return extSet[strings.ToLower(filepath.Ext(path))] && ast.DialectForPath(path) != ast.DialectUnknown
}
