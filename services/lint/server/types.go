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
	"github.com/AleutianAI/jsxlint/services/lint/engine"
	"github.com/AleutianAI/jsxlint/services/lint/report"
)

// CheckRequest is the body of POST /v1/lint/check.
type CheckRequest struct {
	// FilePath is used for dialect detection and diagnostic locations.
	FilePath string `json:"file_path" binding:"required,max=4096"`

	// Source is the file content. An empty string is valid.
	Source *string `json:"source" binding:"required"`

	// Dialect overrides detection: javascript, typescript or tsx.
	Dialect string `json:"dialect,omitempty" binding:"omitempty,jsxdialect"`
}

// CheckResponse is returned by POST /v1/lint/check.
type CheckResponse struct {
	RequestID string             `json:"request_id"`
	Result    *engine.FileResult `json:"result"`
	Summary   report.Summary     `json:"summary"`
}

// RuleInfo describes one registered rule.
type RuleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// RulesResponse is returned by GET /v1/lint/rules.
type RulesResponse struct {
	Rules []RuleInfo `json:"rules"`
}

// HealthResponse is returned by GET /v1/lint/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Rules   int    `json:"rules"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
