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

// SiteKind distinguishes the two places a key can be supplied.
type SiteKind int

const (
	// KindElementKeyAttribute is <X key={...} />.
	KindElementKeyAttribute SiteKind = iota + 1

	// KindPropsKey is { key: ... } passed to cloneElement / createElement.
	KindPropsKey
)

// String returns a readable kind name.
func (k SiteKind) String() string {
	switch k {
	case KindElementKeyAttribute:
		return "element-key-attribute"
	case KindPropsKey:
		return "props-key"
	default:
		return "unknown"
	}
}

// KeySite is a location that supplies a key value.
type KeySite struct {
	Kind SiteKind

	// Node is where a diagnostic is anchored: the JSX attribute or the
	// key property.
	Node *sitter.Node

	// Value is the key's value expression.
	Value *sitter.Node
}

const keyName = "key"

// elementFactories are the calls whose second argument is a props object.
var elementFactories = map[string]bool{
	"cloneElement":  true,
	"createElement": true,
}

// nodeKey identifies a node independent of wrapper identity.
type nodeKey struct {
	start, end uint32
	typ        string
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{start: n.StartByte(), end: n.EndByte(), typ: n.Type()}
}

// LocateKeySites collects the key-bearing sites inside body.
//
// Description:
//
//	Walks body depth-first. A nested iteration call that binds its own index
//	forms a separate scope: its callback is not entered (the engine visits
//	that call on its own), while its receiver and other arguments still are.
//	Every other nested function, including iteration callbacks without an
//	index parameter, is walked transparently.
//
//	String-literal keys (key="a") and valueless keys (<X key />) are never
//	sites.
func LocateKeySites(body *sitter.Node, content []byte) []KeySite {
	if body == nil {
		return nil
	}

	var sites []KeySite
	skip := make(map[nodeKey]bool)
	stack := []*sitter.Node{body}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil || skip[keyOf(node)] {
			continue
		}

		switch node.Type() {
		case ast.NodeJSXAttribute:
			if site, ok := attributeSite(node, content); ok {
				sites = append(sites, site)
			}

		case ast.NodeCallExpression:
			if desc, ok := Classify(node, content); ok {
				cb := CallbackArg(node, desc)
				if _, bound := BindIndex(desc, cb, content); bound {
					skip[keyOf(cb)] = true
				}
			}
			sites = append(sites, propsKeySites(node, content)...)
		}

		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child != nil {
				stack = append(stack, child)
			}
		}
	}

	return sites
}

// attributeSite returns the site for a JSX key={expr} attribute.
func attributeSite(attr *sitter.Node, content []byte) (KeySite, bool) {
	children := ast.NamedChildren(attr)
	if len(children) < 2 {
		return KeySite{}, false
	}
	name, value := children[0], children[1]
	if name.Type() != ast.NodePropertyIdentifier || ast.Text(name, content) != keyName {
		return KeySite{}, false
	}
	if value.Type() != ast.NodeJSXExpression {
		return KeySite{}, false
	}
	expr := ast.FirstNamedChild(value)
	if expr == nil || expr.Type() == ast.NodeSpreadElement {
		return KeySite{}, false
	}
	return KeySite{Kind: KindElementKeyAttribute, Node: attr, Value: expr}, true
}

// propsKeySites returns the key properties of an element factory call's
// props object. Spreads and other properties are ignored.
func propsKeySites(call *sitter.Node, content []byte) []KeySite {
	if !isElementFactory(call, content) {
		return nil
	}
	props := argumentAt(call, 1)
	if props == nil || props.Type() != ast.NodeObject {
		return nil
	}

	var sites []KeySite
	for _, prop := range ast.NamedChildren(props) {
		switch prop.Type() {
		case ast.NodePair:
			key := prop.ChildByFieldName("key")
			if key == nil || key.Type() != ast.NodePropertyIdentifier || ast.Text(key, content) != keyName {
				continue
			}
			sites = append(sites, KeySite{Kind: KindPropsKey, Node: prop, Value: prop.ChildByFieldName("value")})
		case ast.NodeShorthandProperty:
			if ast.Text(prop, content) == keyName {
				sites = append(sites, KeySite{Kind: KindPropsKey, Node: prop, Value: prop})
			}
		}
	}
	return sites
}

// isElementFactory matches cloneElement(...) / createElement(...) with or
// without a namespace, with at least a props argument.
func isElementFactory(call *sitter.Node, content []byte) bool {
	callee := call.ChildByFieldName("function")
	if callee == nil {
		return false
	}
	var name string
	switch callee.Type() {
	case ast.NodeIdentifier:
		name = ast.Text(callee, content)
	case ast.NodeMemberExpression:
		n, ok := memberName(callee, content)
		if !ok {
			return false
		}
		name = n
	default:
		return false
	}
	return elementFactories[name] && argumentAt(call, 1) != nil
}
