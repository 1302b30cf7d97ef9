// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry installs the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names a span exporter.
type Exporter string

const (
	// ExporterNone keeps the global no-op provider.
	ExporterNone Exporter = "none"

	// ExporterStdout writes spans as JSON.
	ExporterStdout Exporter = "stdout"

	// ExporterOTLP sends spans to an OTLP/gRPC collector.
	ExporterOTLP Exporter = "otlp"
)

// EnvEndpoint is read when Config.Endpoint is empty.
const EnvEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"

// Config selects and configures the exporter.
type Config struct {
	Exporter Exporter

	// Endpoint is the collector host:port for ExporterOTLP.
	Endpoint string

	// Writer receives ExporterStdout output. Defaults to os.Stderr.
	Writer io.Writer

	// Version is recorded as service.version.
	Version string
}

// ShutdownFunc flushes and stops the provider.
type ShutdownFunc func(ctx context.Context) error

// ParseExporter validates an exporter name.
func ParseExporter(s string) (Exporter, error) {
	switch e := Exporter(strings.ToLower(strings.TrimSpace(s))); e {
	case "", ExporterNone:
		return ExporterNone, nil
	case ExporterStdout, ExporterOTLP:
		return e, nil
	default:
		return "", fmt.Errorf("unknown trace exporter %q (want none, stdout or otlp)", s)
	}
}

// Setup installs a global tracer provider and W3C propagators.
//
// Description:
//
//	With ExporterNone only the propagators are installed; spans stay
//	no-ops. Otherwise a batching provider is registered globally and the
//	returned ShutdownFunc must be called to flush it.
//
// Outputs:
//   - ShutdownFunc: Never nil.
//   - error: Exporter construction failures.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	noop := func(context.Context) error { return nil }

	var (
		exp sdktrace.SpanExporter
		err error
	)
	switch cfg.Exporter {
	case "", ExporterNone:
		return noop, nil
	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		exp, err = stdouttrace.New(stdouttrace.WithWriter(w))
	case ExporterOTLP:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = os.Getenv(EnvEndpoint)
		}
		if endpoint == "" {
			return noop, errors.New("otlp exporter requires an endpoint")
		}
		exp, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure())
	default:
		return noop, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
	if err != nil {
		return noop, fmt.Errorf("trace exporter %s: %w", cfg.Exporter, err)
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "jsxlint"),
			attribute.String("service.version", version),
		)),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
