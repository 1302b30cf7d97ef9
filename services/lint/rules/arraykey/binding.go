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

// CallbackScope is the analysis scope of one matched iteration callback.
//
// It lives only while that callback's body is analyzed.
type CallbackScope struct {
	// IndexName is the identifier bound to the index parameter.
	IndexName string

	// Callback is the function node passed to the iteration call.
	Callback *sitter.Node

	// Body is the callback body: a statement block or an expression.
	Body *sitter.Node
}

// NewCallbackScope binds the index parameter of callback.
//
// Outputs:
//   - *CallbackScope: The scope, or nil when the callback is not a function
//     or does not declare a plain identifier at the index position. Such
//     calls are inapplicable, not erroneous.
func NewCallbackScope(desc IterationDescriptor, callback *sitter.Node, content []byte) *CallbackScope {
	name, ok := BindIndex(desc, callback, content)
	if !ok {
		return nil
	}
	body := callback.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	return &CallbackScope{IndexName: name, Callback: callback, Body: body}
}

// BindIndex returns the name of the callback parameter at desc.IndexParam.
//
// Only plain identifiers bind, including TypeScript parameters with a type
// annotation (i: number). Destructured, defaulted and rest parameters do not.
func BindIndex(desc IterationDescriptor, callback *sitter.Node, content []byte) (string, bool) {
	if !ast.IsFunctionLike(callback) {
		return "", false
	}
	params := parameters(callback)
	if desc.IndexParam < 0 || desc.IndexParam >= len(params) {
		return "", false
	}
	return parameterName(params[desc.IndexParam], content)
}

// parameters lists the declared parameters of a function node.
func parameters(fn *sitter.Node) []*sitter.Node {
	// Unparenthesized arrow parameter: x => ...
	if p := fn.ChildByFieldName("parameter"); p != nil {
		return []*sitter.Node{p}
	}
	list := fn.ChildByFieldName("parameters")
	if list == nil || list.Type() != ast.NodeFormalParameters {
		return nil
	}
	return ast.NamedChildren(list)
}

func parameterName(param *sitter.Node, content []byte) (string, bool) {
	switch param.Type() {
	case ast.NodeIdentifier:
		return ast.Text(param, content), true
	case ast.NodeRequiredParameter, ast.NodeOptionalParameter:
		if param.ChildByFieldName("value") != nil {
			return "", false
		}
		pattern := param.ChildByFieldName("pattern")
		if pattern == nil || pattern.Type() != ast.NodeIdentifier {
			return "", false
		}
		return ast.Text(pattern, content), true
	default:
		return "", false
	}
}
