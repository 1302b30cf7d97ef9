// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"encoding/json"
	"io"

	"github.com/AleutianAI/jsxlint/services/lint/engine"
)

type jsonDocument struct {
	Results []*engine.FileResult `json:"results"`
	Summary Summary              `json:"summary"`
}

type jsonFormatter struct{}

func (jsonFormatter) Format(w io.Writer, results []*engine.FileResult) error {
	doc := jsonDocument{Results: make([]*engine.FileResult, 0, len(results)), Summary: Summarize(results)}
	for _, r := range results {
		if r != nil {
			doc.Results = append(doc.Results, r)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
