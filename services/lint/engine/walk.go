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

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
)

const (
	// MaxWalkDepth bounds traversal depth for pathological inputs.
	MaxWalkDepth = 2000

	// cancelCheckInterval is how many nodes are visited between context checks.
	cancelCheckInterval = 100
)

// dispatchTable maps node types to the passes interested in them.
type dispatchTable map[string][]*Pass

// newDispatchTable builds the per-file dispatch table for the enabled rules.
func newDispatchTable(file *ast.File, rules []enabledRule, sink *[]Diagnostic) dispatchTable {
	table := make(dispatchTable)
	for _, er := range rules {
		pass := &Pass{File: file, rule: er.rule, severity: er.severity, sink: sink}
		for _, kind := range er.rule.NodeKinds() {
			table[kind] = append(table[kind], pass)
		}
	}
	return table
}

// walkStats summarises one traversal.
type walkStats struct {
	nodes     int
	truncated bool
}

// walk visits every node under root in document order and dispatches it.
//
// Description:
//
//	Iterative depth-first traversal with an explicit stack. Comments are
//	handed to onComment so suppression directives can be gathered in the
//	same pass. Subtrees deeper than MaxWalkDepth are not visited and the
//	walk is marked truncated.
//
// Outputs:
//   - walkStats: Nodes visited and whether any subtree was skipped.
//   - error: The context error if the walk was cancelled.
func walk(ctx context.Context, root *sitter.Node, table dispatchTable, onComment func(*sitter.Node)) (walkStats, error) {
	var stats walkStats
	if root == nil {
		return stats, nil
	}

	type stackEntry struct {
		node  *sitter.Node
		depth int
	}

	stack := make([]stackEntry, 0, 64)
	stack = append(stack, stackEntry{node: root})

	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := entry.node
		if node == nil {
			continue
		}

		if entry.depth > MaxWalkDepth {
			stats.truncated = true
			continue
		}

		stats.nodes++
		if stats.nodes%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		nodeType := node.Type()
		if nodeType == ast.NodeComment && onComment != nil {
			onComment(node)
		}
		for _, pass := range table[nodeType] {
			pass.rule.Check(pass, node)
		}

		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child != nil {
				stack = append(stack, stackEntry{node: child, depth: entry.depth + 1})
			}
		}
	}

	return stats, nil
}
