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
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Dialect identifies the front-end grammar used to parse a source file.
type Dialect int

const (
	// DialectUnknown is returned for unsupported file extensions.
	DialectUnknown Dialect = iota

	// DialectJavaScript is ECMAScript with JSX.
	DialectJavaScript

	// DialectTypeScript is TypeScript without JSX.
	DialectTypeScript

	// DialectTSX is TypeScript with JSX.
	DialectTSX
)

// String returns the canonical dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectJavaScript:
		return "javascript"
	case DialectTypeScript:
		return "typescript"
	case DialectTSX:
		return "tsx"
	default:
		return "unknown"
	}
}

// ParseDialect converts a dialect name back into a Dialect.
//
// Outputs:
//   - Dialect: The matching dialect.
//   - error: ErrUnsupportedDialect if the name is not recognized.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "javascript", "js", "jsx":
		return DialectJavaScript, nil
	case "typescript", "ts":
		return DialectTypeScript, nil
	case "tsx":
		return DialectTSX, nil
	default:
		return DialectUnknown, fmt.Errorf("%w: %q", ErrUnsupportedDialect, name)
	}
}

// dialectExtensions maps file extensions to dialects.
var dialectExtensions = map[string]Dialect{
	".js":  DialectJavaScript,
	".mjs": DialectJavaScript,
	".cjs": DialectJavaScript,
	".jsx": DialectJavaScript,
	".ts":  DialectTypeScript,
	".mts": DialectTypeScript,
	".cts": DialectTypeScript,
	".tsx": DialectTSX,
}

// DialectForPath picks the dialect from the file extension.
//
// Declaration files (.d.ts) are reported as DialectUnknown; they never
// contain render code.
func DialectForPath(filePath string) Dialect {
	if strings.HasSuffix(filePath, ".d.ts") {
		return DialectUnknown
	}
	if d, ok := dialectExtensions[strings.ToLower(filepath.Ext(filePath))]; ok {
		return d
	}
	return DialectUnknown
}

// SupportedExtensions returns all extensions with a known dialect.
func SupportedExtensions() []string {
	return []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx"}
}

// language returns the tree-sitter grammar for the dialect.
func (d Dialect) language() *sitter.Language {
	switch d {
	case DialectJavaScript:
		return javascript.GetLanguage()
	case DialectTypeScript:
		return typescript.GetLanguage()
	case DialectTSX:
		return tsx.GetLanguage()
	default:
		return nil
	}
}
