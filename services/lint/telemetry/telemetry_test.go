// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestParseExporter(t *testing.T) {
	for in, want := range map[string]Exporter{"": ExporterNone, "none": ExporterNone, "STDOUT": ExporterStdout, "otlp": ExporterOTLP} {
		got, err := ParseExporter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseExporter("zipkin")
	assert.Error(t, err)
}

func TestSetup_Stdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Config{Exporter: ExporterStdout, Writer: &buf, Version: "test"})
	require.NoError(t, err)

	_, span := otel.Tracer("jsxlint.test").Start(context.Background(), "unit")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"unit"`)
	assert.Contains(t, buf.String(), "jsxlint")
}

func TestSetup_None(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_OTLPRequiresEndpoint(t *testing.T) {
	t.Setenv(EnvEndpoint, "")
	shutdown, err := Setup(context.Background(), Config{Exporter: ExporterOTLP})
	assert.Error(t, err)
	assert.NotNil(t, shutdown)
}
