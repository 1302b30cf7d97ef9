// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/jsxlint/services/lint/engine"
)

// ColorEnabled reports whether w is a terminal that should get ANSI styling.
// NO_COLOR disables color regardless of the terminal.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type styles struct {
	path    lipgloss.Style
	pos     lipgloss.Style
	errSev  lipgloss.Style
	warnSev lipgloss.Style
	rule    lipgloss.Style
	gutter  lipgloss.Style
	caret   lipgloss.Style
	summary lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		path:    lipgloss.NewStyle().Bold(true).Underline(true),
		pos:     lipgloss.NewStyle().Faint(true),
		errSev:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		warnSev: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		rule:    lipgloss.NewStyle().Faint(true),
		gutter:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		caret:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		summary: lipgloss.NewStyle().Bold(true),
	}
}

type textFormatter struct {
	color  bool
	st     styles
	source SourceFunc
}

func newTextFormatter(opts Options) *textFormatter {
	return &textFormatter{color: opts.Color, st: newStyles(opts.Color), source: opts.Source}
}

func (f *textFormatter) render(s lipgloss.Style, text string) string {
	if !f.color {
		return text
	}
	return s.Render(text)
}

// Format writes diagnostics grouped by file, each followed by a snippet of
// the offending line, and a final summary.
func (f *textFormatter) Format(w io.Writer, results []*engine.FileResult) error {
	var b strings.Builder

	for _, r := range results {
		if r == nil || (len(r.Diagnostics) == 0 && r.Error == "") {
			continue
		}
		b.WriteString(f.render(f.st.path, r.Path))
		b.WriteString("\n")

		if r.Error != "" {
			fmt.Fprintf(&b, "  %s  %s\n", f.render(f.st.errSev, "failed"), r.Error)
		}

		var lines []string
		if f.source != nil && len(r.Diagnostics) > 0 {
			if content, err := f.source(r.Path); err == nil {
				lines = strings.Split(string(content), "\n")
			}
		}

		for _, d := range r.Diagnostics {
			sev := f.st.warnSev
			if d.Severity == engine.SeverityError {
				sev = f.st.errSev
			}
			fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
				f.render(f.st.pos, fmt.Sprintf("%d:%d", d.Location.StartLine, d.Location.StartCol+1)),
				f.render(sev, fmt.Sprintf("%-5s", d.Severity)),
				d.Message,
				f.render(f.st.rule, d.Rule))
			if lines != nil {
				f.snippet(&b, lines, d)
			}
		}
		b.WriteString("\n")
	}

	sum := Summarize(results)
	if sum.Problems() > 0 || sum.FilesFailed > 0 {
		line := fmt.Sprintf("%d %s (%d %s, %d %s) in %d %s",
			sum.Problems(), plural(sum.Problems(), "problem"),
			sum.Errors, plural(sum.Errors, "error"),
			sum.Warnings, plural(sum.Warnings, "warning"),
			sum.FilesWithProblems, plural(sum.FilesWithProblems, "file"))
		if sum.FilesFailed > 0 {
			line += fmt.Sprintf(", %d %s could not be linted", sum.FilesFailed, plural(sum.FilesFailed, "file"))
		}
		b.WriteString(f.render(f.st.summary, line))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// snippet prints the diagnostic's line with a caret underline, clamped to
// the source bounds.
func (f *textFormatter) snippet(b *strings.Builder, lines []string, d engine.Diagnostic) {
	line := d.Location.StartLine
	if line < 1 || line > len(lines) {
		return
	}
	text := strings.TrimRight(lines[line-1], "\r")

	col := d.Location.StartCol
	if col < 0 {
		col = 0
	}
	if col > len(text) {
		col = len(text)
	}
	width := 1
	if d.Location.EndLine == line && d.Location.EndCol > col {
		width = d.Location.EndCol - col
	} else if d.Location.EndLine > line {
		width = len(text) - col
	}
	if width < 1 {
		width = 1
	}

	// Tabs keep their width in the pad so the caret lines up.
	var pad strings.Builder
	for _, r := range text[:col] {
		if r == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}

	fmt.Fprintf(b, "    %s %s\n", f.render(f.st.gutter, fmt.Sprintf("%4d |", line)), text)
	fmt.Fprintf(b, "    %s %s%s\n", f.render(f.st.gutter, "     |"), pad.String(), f.render(f.st.caret, strings.Repeat("^", width)))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
