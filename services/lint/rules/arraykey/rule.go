// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package arraykey

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
	"github.com/AleutianAI/jsxlint/services/lint/engine"
)

const (
	// RuleName is the rule identifier used in config and suppressions.
	RuleName = "no-array-index-key"

	// Message is the fixed diagnostic text.
	Message = "Do not use Array index in keys"
)

// Rule is the engine adapter for no-array-index-key.
//
// Rule is stateless; every Check call builds and discards its own scope,
// so one instance serves concurrent file walks.
type Rule struct{}

// New returns the rule.
func New() *Rule {
	return &Rule{}
}

// Name implements engine.Rule.
func (r *Rule) Name() string {
	return RuleName
}

// Description implements engine.Rule.
func (r *Rule) Description() string {
	return "disallow the array index of an iteration callback as a list key"
}

// NodeKinds implements engine.Rule.
func (r *Rule) NodeKinds() []string {
	return []string{ast.NodeCallExpression}
}

// Check implements engine.Rule.
func (r *Rule) Check(pass *engine.Pass, node *sitter.Node) {
	report(pass, Analyze(node, pass.Source()))
}

// Analyze returns the key sites of call whose value derives from the
// callback's index parameter.
//
// It returns nil for calls that are not iteration constructs or whose
// callback declares no index parameter.
func Analyze(call *sitter.Node, content []byte) []KeySite {
	desc, ok := Classify(call, content)
	if !ok {
		return nil
	}
	scope := NewCallbackScope(desc, CallbackArg(call, desc), content)
	if scope == nil {
		return nil
	}

	var offending []KeySite
	for _, site := range LocateKeySites(scope.Body, content) {
		if Trace(ExprFromNode(site.Value, content), scope.IndexName) {
			offending = append(offending, site)
		}
	}
	return offending
}
