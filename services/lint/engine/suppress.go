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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
)

const (
	directiveDisableNextLine = "jsxlint-disable-next-line"
	directiveDisableLine     = "jsxlint-disable-line"
)

// suppressions records lines silenced by inline directives.
//
// A nil rule set for a line means every rule is silenced on it.
type suppressions struct {
	lines map[int]map[string]bool
	all   map[int]bool
}

func newSuppressions() *suppressions {
	return &suppressions{
		lines: make(map[int]map[string]bool),
		all:   make(map[int]bool),
	}
}

// addComment parses one comment node for directives.
func (s *suppressions) addComment(node *sitter.Node, content []byte) {
	text := strings.TrimSpace(ast.Text(node, content))
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	text = strings.TrimSpace(text)

	line := int(node.StartPoint().Row) + 1
	var rest string
	switch {
	case strings.HasPrefix(text, directiveDisableNextLine):
		rest = strings.TrimPrefix(text, directiveDisableNextLine)
		line = int(node.EndPoint().Row) + 2
	case strings.HasPrefix(text, directiveDisableLine):
		rest = strings.TrimPrefix(text, directiveDisableLine)
	default:
		return
	}

	// "-- reason" trailers are allowed after the rule list.
	if idx := strings.Index(rest, "--"); idx >= 0 {
		rest = rest[:idx]
	}

	rules := strings.FieldsFunc(rest, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(rules) == 0 {
		s.all[line] = true
		return
	}
	set, ok := s.lines[line]
	if !ok {
		set = make(map[string]bool)
		s.lines[line] = set
	}
	for _, r := range rules {
		set[r] = true
	}
}

// suppressed reports whether d is silenced.
func (s *suppressions) suppressed(d Diagnostic) bool {
	line := d.Location.StartLine
	if s.all[line] {
		return true
	}
	return s.lines[line][d.Rule]
}

// filter drops suppressed diagnostics in place.
func (s *suppressions) filter(diags []Diagnostic) []Diagnostic {
	if len(s.all) == 0 && len(s.lines) == 0 {
		return diags
	}
	kept := diags[:0]
	for _, d := range diags {
		if !s.suppressed(d) {
			kept = append(kept, d)
		}
	}
	return kept
}
