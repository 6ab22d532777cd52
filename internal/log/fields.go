// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldEvent     = "event"
	FieldComponent = "component"

	// Quality fields
	FieldStratum     = "stratum"
	FieldOffset      = "offset_seconds"
	FieldReferenceID = "reference_id"
	FieldLeapStatus  = "leap_status"
	FieldCommand     = "command"

	// Health / bus fields
	FieldStatus    = "status"
	FieldOldStatus = "old_status"
	FieldNewStatus = "new_status"
	FieldTopic     = "topic"
	FieldReason    = "reason"

	// HTTP fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldDuration = "duration"
)
