// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Tree-sitter node types shared by the javascript, typescript and tsx grammars.
const (
	NodeProgram                 = "program"
	NodeCallExpression          = "call_expression"
	NodeMemberExpression        = "member_expression"
	NodeIdentifier              = "identifier"
	NodePropertyIdentifier      = "property_identifier"
	NodeArguments               = "arguments"
	NodeArrowFunction           = "arrow_function"
	NodeFunctionExpression      = "function_expression"
	NodeFunction                = "function" // pre-0.21 grammars
	NodeFormalParameters        = "formal_parameters"
	NodeRequiredParameter       = "required_parameter"
	NodeOptionalParameter       = "optional_parameter"
	NodeObject                  = "object"
	NodePair                    = "pair"
	NodeShorthandProperty       = "shorthand_property_identifier"
	NodeSpreadElement           = "spread_element"
	NodeTemplateString          = "template_string"
	NodeTemplateSubstitution    = "template_substitution"
	NodeBinaryExpression        = "binary_expression"
	NodeParenthesizedExpression = "parenthesized_expression"
	NodeJSXAttribute            = "jsx_attribute"
	NodeJSXExpression           = "jsx_expression"
	NodeComment                 = "comment"
)

// Text returns the source text spanned by node.
func Text(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// NamedChildren returns the named children of node, skipping comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	count := int(node.NamedChildCount())
	children := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == NodeComment {
			continue
		}
		children = append(children, child)
	}
	return children
}

// FirstNamedChild returns the first non-comment named child, or nil.
func FirstNamedChild(node *sitter.Node) *sitter.Node {
	children := NamedChildren(node)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// IsFunctionLike reports whether node is an inline function value.
func IsFunctionLike(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case NodeArrowFunction, NodeFunctionExpression, NodeFunction:
		return true
	default:
		return false
	}
}

// Location is a position range within a source file.
//
// Lines are 1-based; columns are 0-based byte offsets within the line.
type Location struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	StartCol  int    `json:"start_col"`
	EndCol    int    `json:"end_col"`
}

// LocationOf returns the location of node within filePath.
func LocationOf(node *sitter.Node, filePath string) Location {
	if node == nil {
		return Location{FilePath: filePath}
	}
	return Location{
		FilePath:  filePath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		StartCol:  int(node.StartPoint().Column),
		EndCol:    int(node.EndPoint().Column),
	}
}
