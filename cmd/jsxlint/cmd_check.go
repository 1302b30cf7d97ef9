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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsxlint/services/lint/engine"
	"github.com/AleutianAI/jsxlint/services/lint/report"
)

func newCheckCmd(gf *globalFlags) *cobra.Command {
	var (
		stdinFilename string
		maxWarnings   int
	)

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Lint files and directories",
		Long: `Lint JavaScript, JSX, TypeScript and TSX files.

Directories are walked recursively, skipping excluded directories,
minified bundles and declaration files. With --stdin-filename the source
is read from standard input and the name is used for dialect detection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			stopTelemetry, err := startTelemetry(ctx, gf, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer stopTelemetry()

			cfg, err := loadConfig(ctx, gf)
			if err != nil {
				return err
			}
			linter, closeLinter, err := buildLinter(cfg)
			if err != nil {
				return err
			}
			defer closeLinter()

			var results []*engine.FileResult
			source := report.ReadFile

			if stdinFilename != "" {
				content, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				res, err := linter.LintSource(ctx, stdinFilename, content)
				if err != nil {
					return err
				}
				results = []*engine.FileResult{res}
				source = func(string) ([]byte, error) { return content, nil }
			} else {
				roots := args
				if len(roots) == 0 {
					roots = []string{"."}
				}
				paths, err := engine.Discover(ctx, roots, discoverOptions(cfg))
				if err != nil {
					return err
				}
				results, err = linter.LintFiles(ctx, paths)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			formatter, err := report.New(report.Format(gf.format), report.Options{
				Color:  !gf.noColor && report.ColorEnabled(out),
				Source: source,
			})
			if err != nil {
				return err
			}
			if err := formatter.Format(out, results); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}

			sum := report.Summarize(results)
			if sum.Errors > 0 {
				return errLintFailed
			}
			if maxWarnings >= 0 && sum.Warnings > maxWarnings {
				return errLintFailed
			}
			if sum.FilesFailed > 0 {
				return fmt.Errorf("%d file(s) could not be linted", sum.FilesFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stdinFilename, "stdin-filename", "", "lint standard input as this file")
	cmd.Flags().IntVar(&maxWarnings, "max-warnings", -1, "fail when warnings exceed this count (-1 disables)")
	return cmd
}
