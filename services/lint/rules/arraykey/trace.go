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
)

// Expr is the part of an expression tree the tracer understands.
//
// It is a closed union: Ident, Template, Concat and Other.
type Expr interface {
	isExpr()
}

// Ident is a bare identifier reference.
type Ident struct {
	Name string
}

// Template is a template literal; Parts are its interpolated expressions.
type Template struct {
	Parts []Expr
}

// Concat is a binary + expression.
type Concat struct {
	Left, Right Expr
}

// Other is any expression the tracer treats as opaque: literals, member
// access, calls, other operators.
type Other struct{}

func (Ident) isExpr()    {}
func (Template) isExpr() {}
func (Concat) isExpr()   {}
func (Other) isExpr()    {}

// Trace reports whether expr is structurally derived from boundName.
//
// Derivation is followed through template interpolation and + chains only.
// Intermediate variables are not followed: const k = i; key={k} is negative.
func Trace(expr Expr, boundName string) bool {
	switch e := expr.(type) {
	case Ident:
		return e.Name == boundName
	case Template:
		for _, part := range e.Parts {
			if Trace(part, boundName) {
				return true
			}
		}
		return false
	case Concat:
		return Trace(e.Left, boundName) || Trace(e.Right, boundName)
	default:
		return false
	}
}

// ExprFromNode lowers a tree-sitter expression into an Expr.
// Parentheses are transparent.
func ExprFromNode(node *sitter.Node, content []byte) Expr {
	if node == nil {
		return Other{}
	}

	switch node.Type() {
	case ast.NodeParenthesizedExpression:
		return ExprFromNode(ast.FirstNamedChild(node), content)

	case ast.NodeIdentifier, ast.NodeShorthandProperty:
		return Ident{Name: ast.Text(node, content)}

	case ast.NodeTemplateString:
		var parts []Expr
		for _, child := range ast.NamedChildren(node) {
			if child.Type() == ast.NodeTemplateSubstitution {
				parts = append(parts, ExprFromNode(ast.FirstNamedChild(child), content))
			}
		}
		return Template{Parts: parts}

	case ast.NodeBinaryExpression:
		if binaryOperator(node) != "+" {
			return Other{}
		}
		return Concat{
			Left:  ExprFromNode(node.ChildByFieldName("left"), content),
			Right: ExprFromNode(node.ChildByFieldName("right"), content),
		}

	default:
		return Other{}
	}
}

// binaryOperator returns the operator token type of a binary expression.
func binaryOperator(node *sitter.Node) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	if node.ChildCount() == 3 {
		return node.Child(1).Type()
	}
	return ""
}
