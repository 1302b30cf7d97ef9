// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package arraykey implements the no-array-index-key rule.
//
// The rule flags list keys derived from the index parameter of an iteration
// callback (items.map((item, i) => <Row key={i} />)). Everything is decided
// syntactically in one pass: a call is classified by callee shape, the
// callback's index parameter is bound by name, key-bearing sites in the
// callback body are located, and each site's value is traced back to the
// bound name through interpolation and concatenation only.
package arraykey

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
)

// CalleeShape is the syntactic form of a recognized iteration call.
type CalleeShape int

const (
	// ShapeNone marks an unrecognized callee.
	ShapeNone CalleeShape = iota

	// ShapeElementMethod is x.method(cb) on a sequence: map, forEach, reduce...
	ShapeElementMethod

	// ShapeChildrenHelper is Children.map(children, cb) or a qualified
	// React.Children.forEach(children, cb).
	ShapeChildrenHelper
)

// String returns a readable shape name.
func (s CalleeShape) String() string {
	switch s {
	case ShapeElementMethod:
		return "element-method"
	case ShapeChildrenHelper:
		return "children-helper"
	default:
		return "none"
	}
}

// IterationDescriptor describes a recognized iteration call.
type IterationDescriptor struct {
	// Shape is the callee form that matched.
	Shape CalleeShape

	// Method is the called method name (map, reduce, forEach...).
	Method string

	// CallbackArg is the 0-based argument position of the callback.
	CallbackArg int

	// IndexParam is the 0-based callback parameter position of the index.
	IndexParam int
}

// elementMethodIndexParam maps sequence methods to their index parameter.
// reduce and reduceRight pass (accumulator, element, index).
var elementMethodIndexParam = map[string]int{
	"map":         1,
	"forEach":     1,
	"filter":      1,
	"some":        1,
	"every":       1,
	"find":        1,
	"findIndex":   1,
	"reduce":      2,
	"reduceRight": 2,
}

// childrenHelperMethods are the iteration helpers on a Children namespace.
// Their callbacks receive (child, index).
var childrenHelperMethods = map[string]bool{
	"map":     true,
	"forEach": true,
}

const childrenNamespace = "Children"

// Classify reports whether call is a recognized iteration construct.
//
// Description:
//
//	Matching is by name on the callee's syntactic shape only; receivers are
//	not resolved, so a local helper named map is treated like Array#map.
//	Optional chaining (x?.map(...)) is transparent.
//
// Inputs:
//   - call: A call_expression node.
//   - content: The file source.
//
// Outputs:
//   - IterationDescriptor: The matched descriptor.
//   - bool: False for any other callee.
func Classify(call *sitter.Node, content []byte) (IterationDescriptor, bool) {
	if call == nil || call.Type() != ast.NodeCallExpression {
		return IterationDescriptor{}, false
	}

	callee := call.ChildByFieldName("function")
	if callee == nil || callee.Type() != ast.NodeMemberExpression {
		return IterationDescriptor{}, false
	}

	method, ok := memberName(callee, content)
	if !ok {
		return IterationDescriptor{}, false
	}

	if childrenHelperMethods[method] && isChildrenNamespace(callee.ChildByFieldName("object"), content) {
		return IterationDescriptor{
			Shape:       ShapeChildrenHelper,
			Method:      method,
			CallbackArg: 1,
			IndexParam:  1,
		}, true
	}

	if pos, ok := elementMethodIndexParam[method]; ok {
		return IterationDescriptor{
			Shape:       ShapeElementMethod,
			Method:      method,
			CallbackArg: 0,
			IndexParam:  pos,
		}, true
	}

	return IterationDescriptor{}, false
}

// CallbackArg returns the callback argument of a classified call, or nil.
// Enclosing parentheses are stripped: ((a, i) => ...) is the arrow itself.
func CallbackArg(call *sitter.Node, desc IterationDescriptor) *sitter.Node {
	arg := argumentAt(call, desc.CallbackArg)
	for arg != nil && arg.Type() == ast.NodeParenthesizedExpression {
		arg = ast.FirstNamedChild(arg)
	}
	return arg
}

// argumentAt returns the idx-th argument of call, or nil.
func argumentAt(call *sitter.Node, idx int) *sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.Type() != ast.NodeArguments {
		return nil
	}
	children := ast.NamedChildren(args)
	if idx < 0 || idx >= len(children) {
		return nil
	}
	return children[idx]
}

// memberName returns the plain property name of a member expression.
// Computed (x[m]) and private (x.#m) members have no plain name.
func memberName(member *sitter.Node, content []byte) (string, bool) {
	prop := member.ChildByFieldName("property")
	if prop == nil || prop.Type() != ast.NodePropertyIdentifier {
		return "", false
	}
	return ast.Text(prop, content), true
}

// isChildrenNamespace matches Children and <anything>.Children.
func isChildrenNamespace(obj *sitter.Node, content []byte) bool {
	if obj == nil {
		return false
	}
	switch obj.Type() {
	case ast.NodeIdentifier:
		return ast.Text(obj, content) == childrenNamespace
	case ast.NodeMemberExpression:
		name, ok := memberName(obj, content)
		return ok && name == childrenNamespace
	default:
		return false
	}
}
