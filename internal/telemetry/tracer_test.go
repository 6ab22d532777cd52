// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))

	_, span := Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording(), "disabled tracing must yield non-recording spans")
	span.End()
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "timeapi",
		ExporterType: "carrier-pigeon",
	})
	require.ErrorIs(t, err, ErrUnsupportedExporter)
	assert.Contains(t, err.Error(), `"carrier-pigeon"`)
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0.0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, samplerFor(tt.rate).Description(), "rate=%v", tt.rate)
	}
}

func TestNilProviderIsSafe(t *testing.T) {
	var p *Provider
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestAttributes(t *testing.T) {
	attrs := QualityAttributes(2, -1.5e-6)
	assert.Equal(t, []attribute.KeyValue{
		attribute.Int(QualityStratumKey, 2),
		attribute.Float64(QualityOffsetKey, -1.5e-6),
	}, attrs)

	assert.Len(t, CommandAttributes("chronyc", 0), 2)
	assert.Len(t, PublishAttributes("time-api/pps", true), 2)
	assert.Equal(t, attribute.Bool(ErrorKey, true), ErrorAttributes("timeout")[0])
}
