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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("jsxlint.ast")

// ParserOption configures a Parser instance.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Non-positive values are ignored.
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithDialect forces a dialect instead of deriving it from the file extension.
func WithDialect(d Dialect) ParserOption {
	return func(p *Parser) {
		p.dialect = d
	}
}

// Parser turns JavaScript / TypeScript / TSX source into tree-sitter syntax trees.
//
// Description:
//
//	Parser selects a grammar per file (by extension, unless a dialect is forced)
//	and produces a File holding the tree and the source it was built from.
//
// Thread Safety:
//
//	Parser is safe for concurrent use. Each Parse call creates its own
//	tree-sitter parser instance internally.
type Parser struct {
	maxFileSize int64
	dialect     Dialect
}

// NewParser creates a Parser with the given options.
//
// Example:
//
//	parser := NewParser(WithMaxFileSize(5 * 1024 * 1024))
//	file, err := parser.Parse(ctx, content, "src/List.tsx")
//	if err != nil {
//	    return fmt.Errorf("parse: %w", err)
//	}
//	defer file.Close()
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// File is a parsed source file.
//
// Thread Safety:
//
//	A File is read-only after Parse returns and may be inspected from
//	multiple goroutines. Close must be called exactly once.
type File struct {
	// Path is the file path as given to Parse.
	Path string

	// Dialect is the grammar the file was parsed with.
	Dialect Dialect

	// Source is the raw content the tree was built from.
	Source []byte

	// Hash is the hex sha256 of Source.
	Hash string

	// HasSyntaxErrors is true if tree-sitter had to recover from errors.
	HasSyntaxErrors bool

	// ParsedAtMilli is the parse completion time (Unix milliseconds UTC).
	ParsedAtMilli int64

	tree *sitter.Tree
}

// Root returns the program node.
func (f *File) Root() *sitter.Node {
	if f == nil || f.tree == nil {
		return nil
	}
	return f.tree.RootNode()
}

// Close releases the underlying tree.
func (f *File) Close() {
	if f != nil && f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// DialectFor returns the dialect Parse would use for filePath.
func (p *Parser) DialectFor(filePath string) Dialect {
	if p.dialect != DialectUnknown {
		return p.dialect
	}
	return DialectForPath(filePath)
}

// Parse parses content into a File.
//
// Description:
//
//	Validates size and encoding, picks the grammar, and runs tree-sitter.
//	Syntax errors are tolerated: tree-sitter recovers and the file is
//	marked with HasSyntaxErrors.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - content: Raw source bytes. Must be valid UTF-8.
//   - filePath: Path used for dialect detection and reporting.
//
// Outputs:
//   - *File: The parsed file. Never nil on success. Caller must Close it.
//   - error: ErrFileTooLarge, ErrInvalidContent, ErrUnsupportedDialect or a
//     context error.
func (p *Parser) Parse(ctx context.Context, content []byte, filePath string) (*File, error) {
	return p.ParseAs(ctx, content, filePath, p.dialect)
}

// ParseAs parses content with an explicit dialect. DialectUnknown falls back
// to the parser's configured dialect, then to the one derived from filePath.
func (p *Parser) ParseAs(ctx context.Context, content []byte, filePath string, dialect Dialect) (*File, error) {
	ctx, span := tracer.Start(ctx, "Parser.Parse")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		span.SetStatus(codes.Error, "file too large")
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		span.SetStatus(codes.Error, "invalid utf-8")
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	if dialect == DialectUnknown {
		dialect = p.dialect
	}
	if dialect == DialectUnknown {
		dialect = DialectForPath(filePath)
	}
	lang := dialect.language()
	if lang == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, filePath)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		tree.Close()
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	file := &File{
		Path:          filePath,
		Dialect:       dialect,
		Source:        content,
		Hash:          hex.EncodeToString(hash[:]),
		ParsedAtMilli: time.Now().UnixMilli(),
		tree:          tree,
	}
	if root := tree.RootNode(); root != nil && root.HasError() {
		file.HasSyntaxErrors = true
		slog.Debug("source contains syntax errors",
			slog.String("file", filePath),
			slog.String("dialect", dialect.String()))
	}

	span.SetAttributes(
		attribute.String("file", filePath),
		attribute.String("dialect", dialect.String()),
		attribute.Int("size_bytes", len(content)),
		attribute.Bool("syntax_errors", file.HasSyntaxErrors),
	)

	return file, nil
}
