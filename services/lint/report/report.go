// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders lint results for humans and machines.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AleutianAI/jsxlint/services/lint/engine"
)

// Format names an output format.
type Format string

const (
	// FormatText is grouped, human-readable output with source snippets.
	FormatText Format = "text"

	// FormatCompact is one path:line:col line per diagnostic.
	FormatCompact Format = "compact"

	// FormatJSON is a single JSON document.
	FormatJSON Format = "json"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatCompact, FormatJSON}
}

// Formatter writes results to w.
type Formatter interface {
	Format(w io.Writer, results []*engine.FileResult) error
}

// SourceFunc returns a file's content for snippets.
type SourceFunc func(path string) ([]byte, error)

// Options configures formatters.
type Options struct {
	// Color enables ANSI styling in text output.
	Color bool

	// Source loads file content for snippets. Nil disables snippets.
	Source SourceFunc
}

// New returns the formatter for name.
func New(name Format, opts Options) (Formatter, error) {
	switch Format(strings.ToLower(string(name))) {
	case FormatText, "":
		return newTextFormatter(opts), nil
	case FormatCompact:
		return compactFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %v)", name, Formats())
	}
}

// Summary counts problems across results.
type Summary struct {
	Files             int `json:"files"`
	FilesWithProblems int `json:"files_with_problems"`
	FilesFailed       int `json:"files_failed"`
	Errors            int `json:"errors"`
	Warnings          int `json:"warnings"`
}

// Problems is the total number of diagnostics.
func (s Summary) Problems() int {
	return s.Errors + s.Warnings
}

// Summarize tallies results.
func Summarize(results []*engine.FileResult) Summary {
	var s Summary
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Files++
		if r.Error != "" {
			s.FilesFailed++
		}
		if len(r.Diagnostics) > 0 {
			s.FilesWithProblems++
		}
		for _, d := range r.Diagnostics {
			switch d.Severity {
			case engine.SeverityError:
				s.Errors++
			case engine.SeverityWarn:
				s.Warnings++
			}
		}
	}
	return s
}

// ReadFile is the default SourceFunc.
func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

type compactFormatter struct{}

func (compactFormatter) Format(w io.Writer, results []*engine.FileResult) error {
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Error != "" {
			if _, err := fmt.Fprintf(w, "%s: %s\n", r.Path, r.Error); err != nil {
				return err
			}
		}
		for _, d := range r.Diagnostics {
			if _, err := fmt.Fprintf(w, "%s [%s]\n", d.String(), d.Severity); err != nil {
				return err
			}
		}
	}
	return nil
}
