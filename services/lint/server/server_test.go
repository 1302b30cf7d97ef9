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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
	"github.com/AleutianAI/jsxlint/services/lint/engine"
	"github.com/AleutianAI/jsxlint/services/lint/rules"
	"github.com/AleutianAI/jsxlint/services/lint/rules/arraykey"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	linter := engine.NewLinter(rules.All(),
		engine.WithParser(ast.NewParser(ast.WithMaxFileSize(1024))),
		engine.WithSeverities(map[string]engine.Severity{arraykey.RuleName: engine.SeverityWarn}))
	return New(linter, opts...)
}

func postCheck(t *testing.T, s *Server, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/lint/check", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func strPtr(s string) *string { return &s }

func TestHandleCheck(t *testing.T) {
	s := newTestServer(t)

	w := postCheck(t, s, CheckRequest{
		FilePath: "src/List.jsx",
		Source:   strPtr("items.map((item, i) => <li key={i}>{item}</li>)"),
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, w.Header().Get(RequestIDHeader))
	require.NotNil(t, resp.Result)
	assert.Equal(t, "javascript", resp.Result.Dialect)
	require.Len(t, resp.Result.Diagnostics, 1)

	d := resp.Result.Diagnostics[0]
	assert.Equal(t, arraykey.RuleName, d.Rule)
	assert.Equal(t, arraykey.Message, d.Message)
	assert.Equal(t, engine.SeverityWarn, d.Severity)
	assert.Equal(t, 1, d.Location.StartLine)
	assert.Equal(t, 27, d.Location.StartCol)
	assert.Equal(t, 1, resp.Summary.Warnings)
}

func TestHandleCheck_DialectOverride(t *testing.T) {
	s := newTestServer(t)
	src := "items.map((item: Item, i: number) => <li key={`row-${i}`} />)"

	w := postCheck(t, s, CheckRequest{FilePath: "snippet", Source: strPtr(src), Dialect: "tsx"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp CheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tsx", resp.Result.Dialect)
	assert.False(t, resp.Result.SyntaxErrors)
	assert.Len(t, resp.Result.Diagnostics, 1)
}

func TestHandleCheck_EmptySource(t *testing.T) {
	s := newTestServer(t)
	w := postCheck(t, s, CheckRequest{FilePath: "empty.js", Source: strPtr("")}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Result.Diagnostics)
	assert.Empty(t, resp.Result.Diagnostics)
}

func TestHandleCheck_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"malformed json", `{"file_path":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing source", map[string]string{"file_path": "a.js"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing path", map[string]string{"source": "x"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad dialect tag", CheckRequest{FilePath: "a.js", Source: strPtr("x"), Dialect: "coffee"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown extension", CheckRequest{FilePath: "a.py", Source: strPtr("x")}, http.StatusBadRequest, "UNSUPPORTED_DIALECT"},
		{"too large", CheckRequest{FilePath: "a.js", Source: strPtr(strings.Repeat("x;", 1024))}, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postCheck(t, s, tt.body, nil)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestHandleCheck_BodyLimit(t *testing.T) {
	s := newTestServer(t, WithMaxBodyBytes(64))
	w := postCheck(t, s, CheckRequest{FilePath: "a.js", Source: strPtr(strings.Repeat("x", 200))}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID_Propagated(t *testing.T) {
	s := newTestServer(t)
	const id = "6f1c2a8e-7a8b-4f52-9d53-0d3f1c1b2a11"

	w := postCheck(t, s, CheckRequest{FilePath: "a.js", Source: strPtr("")},
		http.Header{RequestIDHeader: []string{id}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))

	w = postCheck(t, s, CheckRequest{FilePath: "a.js", Source: strPtr("")},
		http.Header{RequestIDHeader: []string{"not a uuid"}})
	assert.NotEqual(t, "not a uuid", w.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, WithRateLimit(0.001, 1))

	first := postCheck(t, s, CheckRequest{FilePath: "a.js", Source: strPtr("")}, nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := postCheck(t, s, CheckRequest{FilePath: "a.js", Source: strPtr("")}, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	// Read-only endpoints are not limited.
	req := httptest.NewRequest(http.MethodGet, "/v1/lint/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleRules(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/lint/rules", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp RulesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rules, 1)
	assert.Equal(t, arraykey.RuleName, resp.Rules[0].Name)
	assert.Equal(t, "warn", resp.Rules[0].Severity)
	assert.NotEmpty(t, resp.Rules[0].Description)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, WithVersion("1.2.3"))
	req := httptest.NewRequest(http.MethodGet, "/v1/lint/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, HealthResponse{Status: "healthy", Version: "1.2.3", Rules: 1}, resp)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	postCheck(t, s, CheckRequest{FilePath: "a.js", Source: strPtr("")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jsxlint_server_requests_total")
	assert.Contains(t, w.Body.String(), "jsxlint_engine_files_linted_total")
}

func TestRegisterValidators(t *testing.T) {
	require.NoError(t, registerValidators())
	// Repeat calls report the first outcome.
	require.NoError(t, registerValidators())
}

func TestRegisterDialectValidation(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerDialectValidation(v))

	type req struct {
		Dialect string `validate:"jsxdialect"`
	}
	assert.NoError(t, v.Struct(req{Dialect: "tsx"}))
	assert.NoError(t, v.Struct(req{Dialect: "javascript"}))
	assert.Error(t, v.Struct(req{Dialect: "python"}))
}
