// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine hosts lint rules over tree-sitter syntax trees.
//
// Rules register interest in node kinds; the engine walks each file once and
// dispatches every matching node to the interested rules, collecting the
// diagnostics they report through a per-file Pass.
package engine

import (
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
)

// Rule is a single lint check driven by the engine's traversal.
//
// Thread Safety: Check may be called concurrently for different files.
// Implementations must not keep per-file state on the Rule itself.
type Rule interface {
	// Name is the stable rule identifier (e.g. "no-array-index-key").
	Name() string

	// Description is a one-line summary for rule listings.
	Description() string

	// NodeKinds lists the tree-sitter node types the rule wants to visit.
	NodeKinds() []string

	// Check inspects one node of a registered kind.
	Check(pass *Pass, node *sitter.Node)
}

// Severity is the level attached to a rule's diagnostics.
type Severity int

const (
	// SeverityOff disables a rule.
	SeverityOff Severity = iota

	// SeverityWarn reports without failing the run.
	SeverityWarn

	// SeverityError reports and fails the run.
	SeverityError
)

// String returns the configuration name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "off"
	}
}

// ParseSeverity converts a configuration value into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "off", "0":
		return SeverityOff, nil
	case "warn", "warning", "1":
		return SeverityWarn, nil
	case "error", "2":
		return SeverityError, nil
	default:
		return SeverityOff, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Diagnostic is one finding reported by a rule.
type Diagnostic struct {
	Rule     string       `json:"rule"`
	Message  string       `json:"message"`
	Severity Severity     `json:"severity"`
	Location ast.Location `json:"location"`
}

// String renders the diagnostic in file:line:col form.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s (%s)", d.Location.FilePath, d.Location.StartLine, d.Location.StartCol+1, d.Message, d.Rule)
}

// SortDiagnostics orders diagnostics by position, then rule name.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Location, diags[j].Location
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		if a.StartCol != b.StartCol {
			return a.StartCol < b.StartCol
		}
		return diags[i].Rule < diags[j].Rule
	})
}

// Pass is the per-file handle given to rules.
//
// Thread Safety: A Pass belongs to a single file walk and is not shared
// between goroutines.
type Pass struct {
	// File is the file under analysis.
	File *ast.File

	rule     Rule
	severity Severity
	sink     *[]Diagnostic
}

// Source returns the raw file content.
func (p *Pass) Source() []byte {
	return p.File.Source
}

// Report records a diagnostic anchored at node.
func (p *Pass) Report(node *sitter.Node, message string) {
	*p.sink = append(*p.sink, Diagnostic{
		Rule:     p.rule.Name(),
		Message:  message,
		Severity: p.severity,
		Location: ast.LocationOf(node, p.File.Path),
	})
}
