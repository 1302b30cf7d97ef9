// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsxlint/services/lint/report"
)

type ruleRow struct {
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

func newRulesCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List rules and their configured severities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), gf)
			if err != nil {
				return err
			}
			// The cache is irrelevant for listing.
			cfg.Cache.Enabled = false
			linter, closeLinter, err := buildLinter(cfg)
			if err != nil {
				return err
			}
			defer closeLinter()

			rows := make([]ruleRow, 0, len(linter.Rules()))
			for _, r := range linter.Rules() {
				rows = append(rows, ruleRow{
					Name:        r.Name(),
					Severity:    linter.Severity(r.Name()).String(),
					Description: r.Description(),
				})
			}

			out := cmd.OutOrStdout()
			if report.Format(gf.format) == report.FormatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("RULE", "SEVERITY", "DESCRIPTION")
			for _, r := range rows {
				t.Row(r.Name, r.Severity, r.Description)
			}
			_, err = fmt.Fprintln(out, t.String())
			return err
		},
	}
}
