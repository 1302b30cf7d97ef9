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
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsxlint/services/lint/server"
)

func newServeCmd(gf *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lint HTTP API",
		Long: `Serve the lint HTTP API.

  curl http://localhost:8089/v1/lint/health
  curl -X POST http://localhost:8089/v1/lint/check \
    -H "Content-Type: application/json" \
    -d '{"file_path": "List.jsx", "source": "items.map((x, i) => <li key={i} />)"}'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Also installs W3C trace context propagation for incoming requests.
			stopTelemetry, err := startTelemetry(ctx, gf, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer stopTelemetry()

			cfg, err := loadConfig(ctx, gf)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			linter, closeLinter, err := buildLinter(cfg)
			if err != nil {
				return err
			}
			defer closeLinter()

			if gf.debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := server.New(linter,
				server.WithRateLimit(cfg.Server.RateLimit, cfg.Server.Burst),
				server.WithVersion(version),
				server.WithRequestLogging(gf.debug))
			return srv.Run(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
