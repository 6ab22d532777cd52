// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package publisher

import (
	"time"

	"github.com/ManuGH/timeapi/internal/health"
	"github.com/ManuGH/timeapi/internal/quality"
)

// Subtopics below the configured base topic.
const (
	TopicHeartbeat = "pps"
	TopicHealth    = "health"
)

// HeartbeatMessage is published once per heartbeat interval.
type HeartbeatMessage struct {
	Unix int64 `json:"unix"`
}

// HealthMessage is a health Report stamped with its evaluation time.
type HealthMessage struct {
	Status    health.Status                 `json:"status"`
	Timestamp int64                         `json:"timestamp"`
	Checks    map[string]health.CheckResult `json:"checks"`
	Quality   *quality.TimeQuality          `json:"time_quality"`
}

// NewHealthMessage stamps r with at.
func NewHealthMessage(r health.Report, at time.Time) HealthMessage {
	return HealthMessage{
		Status:    r.Status,
		Timestamp: at.Unix(),
		Checks:    r.Checks,
		Quality:   r.Quality,
	}
}
