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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsxlint/services/lint/engine"
	"github.com/AleutianAI/jsxlint/services/lint/watch"
)

func newWatchCmd(gf *globalFlags) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [dirs...]",
		Short: "Lint, then re-lint files as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

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

			roots := args
			if len(roots) == 0 {
				roots = []string{"."}
			}
			for _, r := range roots {
				info, err := os.Stat(r)
				if err != nil {
					return err
				}
				if !info.IsDir() {
					return fmt.Errorf("watch: %s is not a directory", r)
				}
			}

			out := cmd.OutOrStdout()
			formatter, err := newFormatter(gf, out)
			if err != nil {
				return err
			}
			emit := func(results []*engine.FileResult) {
				if err := formatter.Format(out, results); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "jsxlint: writing report: %v\n", err)
				}
			}

			opts := discoverOptions(cfg)
			paths, err := engine.Discover(ctx, roots, opts)
			if err != nil {
				return err
			}
			initial, err := linter.LintFiles(ctx, paths)
			if err != nil {
				return err
			}
			emit(initial)

			w := watch.New(linter, roots,
				watch.WithDebounce(debounce),
				watch.WithDiscoverOptions(opts))
			return w.Run(ctx, emit)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "wait for writes to settle before re-linting")
	return cmd
}
