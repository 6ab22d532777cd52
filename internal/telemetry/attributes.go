// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across packages.
const (
	QualityCommandKey  = "quality.command"
	QualityExitCodeKey = "quality.exit_code"
	QualityStratumKey  = "quality.stratum"
	QualityOffsetKey   = "quality.offset_seconds"

	BusTopicKey  = "bus.topic"
	BusRetainKey = "bus.retain"

	ZoneCountKey = "tz.count"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// CommandAttributes describes an external status command invocation.
func CommandAttributes(command string, exitCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(QualityCommandKey, command),
		attribute.Int(QualityExitCodeKey, exitCode),
	}
}

// QualityAttributes describes a parsed tracking reading.
func QualityAttributes(stratum uint8, offsetSeconds float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(QualityStratumKey, int(stratum)),
		attribute.Float64(QualityOffsetKey, offsetSeconds),
	}
}

// PublishAttributes describes a single bus publish.
func PublishAttributes(topic string, retain bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(BusTopicKey, topic),
		attribute.Bool(BusRetainKey, retain),
	}
}

// ErrorAttributes marks a span as failed with a coarse error class.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
