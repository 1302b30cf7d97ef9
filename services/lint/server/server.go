// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the linter over HTTP.
//
// Endpoints:
//
//	POST /v1/lint/check   - Lint one in-memory file
//	GET  /v1/lint/rules   - List rules and severities
//	GET  /v1/lint/health  - Liveness
//	GET  /metrics         - Prometheus metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/jsxlint/services/lint/ast"
	"github.com/AleutianAI/jsxlint/services/lint/engine"
)

const (
	// DefaultMaxBodyBytes leaves room for JSON escaping of a maximum-size file.
	DefaultMaxBodyBytes = 2*ast.DefaultMaxFileSize + 4096

	shutdownTimeout = 10 * time.Second
)

// Linter is the subset of engine.Linter the server needs.
type Linter interface {
	LintSourceAs(ctx context.Context, filePath string, content []byte, dialect ast.Dialect) (*engine.FileResult, error)
	Rules() []engine.Rule
	Severity(name string) engine.Severity
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit limits requests per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRequestLogging enables gin's access log.
func WithRequestLogging(enabled bool) Option {
	return func(s *Server) {
		s.accessLog = enabled
	}
}

// Server serves lint requests.
//
// Thread Safety: Safe for concurrent use after construction.
type Server struct {
	linter    Linter
	limiter   *rate.Limiter
	maxBody   int64
	version   string
	logger    *slog.Logger
	accessLog bool
	router    *gin.Engine
}

var (
	registerValidatorsOnce sync.Once
	registerValidatorsErr  error
)

// registerValidators adds the jsxdialect tag to gin's validator.
func registerValidators() error {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerValidatorsErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		registerValidatorsErr = registerDialectValidation(v)
	})
	return registerValidatorsErr
}

// registerDialectValidation registers the jsxdialect tag on v.
func registerDialectValidation(v *validator.Validate) error {
	err := v.RegisterValidation("jsxdialect", func(fl validator.FieldLevel) bool {
		_, err := ast.ParseDialect(fl.Field().String())
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("register jsxdialect validation: %w", err)
	}
	return nil
}

// New builds a Server and its router.
func New(linter Linter, opts ...Option) *Server {
	s := &Server{
		linter:  linter,
		maxBody: DefaultMaxBodyBytes,
		version: "dev",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := registerValidators(); err != nil {
		s.logger.Error("failed to register request validators",
			slog.String("error", err.Error()))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("jsxlint"))
	if s.accessLog {
		router.Use(gin.Logger())
	}
	router.Use(requestIDMiddleware(), metricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	RegisterRoutes(v1, s)

	s.router = router
	return s
}

// RegisterRoutes registers the /v1/lint endpoints on rg.
func RegisterRoutes(rg *gin.RouterGroup, s *Server) {
	lint := rg.Group("/lint")
	{
		lint.GET("/health", s.HandleHealth)
		lint.GET("/rules", s.HandleRules)

		check := lint.Group("")
		if s.limiter != nil {
			check.Use(rateLimitMiddleware(s.limiter))
		}
		check.Use(bodyLimitMiddleware(s.maxBody))
		check.POST("/check", s.HandleCheck)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting jsxlint server", slog.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down jsxlint server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
