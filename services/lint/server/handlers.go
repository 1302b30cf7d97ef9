// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
	"github.com/AleutianAI/jsxlint/services/lint/engine"
	"github.com/AleutianAI/jsxlint/services/lint/report"
)

// HandleCheck lints one in-memory source file.
//
// Request Body:
//
//	CheckRequest (file_path and source required, dialect optional)
//
// Response:
//
//	200 OK: CheckResponse
//	400 Bad Request: Invalid body, unsupported dialect or invalid UTF-8
//	413 Request Entity Too Large: Source exceeds the size limit
//	500 Internal Server Error: Lint failed
//
// Thread Safety: This method is safe for concurrent use.
func (s *Server) HandleCheck(c *gin.Context) {
	requestID := requestIDFrom(c)
	logger := s.logger.With("request_id", requestID, "handler", "HandleCheck")
	if sc := oteltrace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		logger = logger.With("trace_id", sc.TraceID().String())
	}

	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:     "request body too large",
				Code:      "BODY_TOO_LARGE",
				RequestID: requestID,
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid request: " + err.Error(),
			Code:      "INVALID_REQUEST",
			RequestID: requestID,
		})
		return
	}

	dialect := ast.DialectUnknown
	if req.Dialect != "" {
		d, err := ast.ParseDialect(req.Dialect)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:     err.Error(),
				Code:      "UNSUPPORTED_DIALECT",
				RequestID: requestID,
			})
			return
		}
		dialect = d
	}

	result, err := s.linter.LintSourceAs(c.Request.Context(), req.FilePath, []byte(*req.Source), dialect)
	if err != nil {
		status, code := statusForLintError(err)
		if status == http.StatusInternalServerError {
			logger.Error("lint failed", slog.String("file", req.FilePath), slog.String("error", err.Error()))
		}
		c.JSON(status, ErrorResponse{
			Error:     err.Error(),
			Code:      code,
			RequestID: requestID,
		})
		return
	}

	logger.Debug("lint complete",
		slog.String("file", req.FilePath),
		slog.String("dialect", result.Dialect),
		slog.Int("diagnostics", len(result.Diagnostics)),
		slog.Bool("cached", result.Cached))

	c.JSON(http.StatusOK, CheckResponse{
		RequestID: requestID,
		Result:    result,
		Summary:   report.Summarize([]*engine.FileResult{result}),
	})
}

// statusForLintError maps lint errors onto HTTP statuses and error codes.
func statusForLintError(err error) (int, string) {
	switch {
	case errors.Is(err, ast.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	case errors.Is(err, ast.ErrInvalidContent):
		return http.StatusBadRequest, "INVALID_CONTENT"
	case errors.Is(err, ast.ErrUnsupportedDialect):
		return http.StatusBadRequest, "UNSUPPORTED_DIALECT"
	default:
		return http.StatusInternalServerError, "LINT_FAILED"
	}
}

// HandleRules lists the registered rules and their effective severities.
func (s *Server) HandleRules(c *gin.Context) {
	rules := s.linter.Rules()
	resp := RulesResponse{Rules: make([]RuleInfo, 0, len(rules))}
	for _, r := range rules {
		resp.Rules = append(resp.Rules, RuleInfo{
			Name:        r.Name(),
			Description: r.Description(),
			Severity:    s.linter.Severity(r.Name()).String(),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Rules:   len(s.linter.Rules()),
	})
}
