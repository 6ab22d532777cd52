// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package health classifies time quality into a tri-state verdict and
// exposes it to the HTTP API and the bus publisher.
package health

import (
	"github.com/ManuGH/timeapi/internal/quality"
)

// Status is the overall verdict.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckStatus is the outcome of a single check.
type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckFail CheckStatus = "fail"
)

// Check names used as keys in Report.Checks.
const (
	CheckSystemClock = "system_clock"
	CheckChrony      = "chrony"
)

// Details attached to the chrony check.
const (
	DetailUnavailable    = "unavailable"
	DetailUnsynchronized = "unsynchronized"
	DetailStale          = "stale"
)

// CheckResult is the result of one named check.
type CheckResult struct {
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

func ok() CheckResult { return CheckResult{Status: CheckOK} }

func fail(detail string) CheckResult { return CheckResult{Status: CheckFail, Detail: detail} }

// Report is one health evaluation. It is built fresh per evaluation and
// never modified afterwards.
type Report struct {
	Status  Status                 `json:"status"`
	Checks  map[string]CheckResult `json:"checks"`
	Quality *quality.TimeQuality   `json:"time_quality"`
}

// Unhealthy reports whether the verdict should fail liveness probes.
func (r Report) Unhealthy() bool { return r.Status == StatusUnhealthy }
