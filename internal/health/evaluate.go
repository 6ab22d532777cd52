// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"fmt"
	"time"

	"github.com/ManuGH/timeapi/internal/quality"
)

// MaxHealthyStratum is the highest stratum still considered healthy.
// Strata above it up to 15 are degraded.
const MaxHealthyStratum uint8 = 3

const detailClockInsane = "system clock out of range"

// Evaluate maps a quality reading (nil when unavailable) and the system
// clock sanity result to a Report. It is pure and total over every stratum.
func Evaluate(q *quality.TimeQuality, clockOK bool) Report {
	clock := ok()
	if !clockOK {
		clock = fail(detailClockInsane)
	}
	return evaluate(q, clock, 0)
}

// evaluate classifies q. A positive staleFor marks q as a reading retained
// past the refresh interval; the verdict still follows the reading and only
// the chrony detail records its age.
func evaluate(q *quality.TimeQuality, clock CheckResult, staleFor time.Duration) Report {
	chrony, status := classify(q)
	if q != nil && staleFor > 0 {
		chrony.Detail = joinDetail(chrony.Detail, staleDetail(staleFor))
	}
	if clock.Status != CheckOK {
		status = StatusUnhealthy
	}

	var qc *quality.TimeQuality
	if q != nil {
		v := *q
		qc = &v
	}

	return Report{
		Status: status,
		Checks: map[string]CheckResult{
			CheckSystemClock: clock,
			CheckChrony:      chrony,
		},
		Quality: qc,
	}
}

func classify(q *quality.TimeQuality) (CheckResult, Status) {
	switch {
	case q == nil:
		return fail(DetailUnavailable), StatusDegraded
	case !q.Synchronized():
		return fail(DetailUnsynchronized), StatusUnhealthy
	case q.Stratum <= MaxHealthyStratum:
		return ok(), StatusHealthy
	default:
		return CheckResult{
			Status: CheckOK,
			Detail: fmt.Sprintf("stratum %d above %d", q.Stratum, MaxHealthyStratum),
		}, StatusDegraded
	}
}

func staleDetail(age time.Duration) string {
	return fmt.Sprintf("%s: last reading %s old", DetailStale, age.Round(time.Millisecond))
}

func joinDetail(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
