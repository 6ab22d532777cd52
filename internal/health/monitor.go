// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/timeapi/internal/log"
	"github.com/ManuGH/timeapi/internal/metrics"
	"github.com/ManuGH/timeapi/internal/quality"
)

// QualityProvider yields the current time quality, if any, and how old it
// is. *quality.Cache implements it.
type QualityProvider interface {
	Get(ctx context.Context) (quality.TimeQuality, bool)
	Age() (time.Duration, bool)
	Interval() time.Duration
}

// ClockCheck reports system clock sanity. *ClockChecker implements it.
type ClockCheck interface {
	Check() (bool, string)
}

// Monitor wires the quality cache, the clock check and the evaluator
// together. It is shared by the HTTP handlers and the bus publisher.
type Monitor struct {
	quality QualityProvider
	clock   ClockCheck
	logger  zerolog.Logger

	mu   sync.Mutex
	last Status
}

// NewMonitor returns a Monitor. A nil clock selects NewClockChecker().
func NewMonitor(q QualityProvider, clock ClockCheck) *Monitor {
	if clock == nil {
		clock = NewClockChecker()
	}
	return &Monitor{
		quality: q,
		clock:   clock,
		logger:  log.WithComponent("health"),
	}
}

// Health evaluates the current state.
func (m *Monitor) Health(ctx context.Context) Report {
	clock := ok()
	if sane, detail := m.clock.Check(); !sane {
		clock = fail(detail)
	}

	var qp *quality.TimeQuality
	var staleFor time.Duration
	if q, found := m.quality.Get(ctx); found {
		qp = &q
		staleFor, _ = m.staleFor()
	}

	r := evaluate(qp, clock, staleFor)
	metrics.SetHealthStatus(string(r.Status))
	m.observe(r)
	return r
}

// QualityIfFresh returns the cached quality reading, refreshing it first if
// it is older than the cache interval. A retained reading left over from
// failed refreshes is not fresh and yields false.
func (m *Monitor) QualityIfFresh(ctx context.Context) (quality.TimeQuality, bool) {
	q, found := m.quality.Get(ctx)
	if !found {
		return quality.TimeQuality{}, false
	}
	if _, stale := m.staleFor(); stale {
		return quality.TimeQuality{}, false
	}
	return q, true
}

// staleFor returns the age of the current reading when it has outlived the
// refresh interval.
func (m *Monitor) staleFor() (time.Duration, bool) {
	age, found := m.quality.Age()
	if !found || age < m.quality.Interval() {
		return 0, false
	}
	return age, true
}

func (m *Monitor) observe(r Report) {
	m.mu.Lock()
	prev := m.last
	m.last = r.Status
	m.mu.Unlock()

	if prev == r.Status {
		return
	}
	ev := m.logger.Info()
	if r.Status != StatusHealthy {
		ev = m.logger.Warn()
	}
	ev.Str(log.FieldEvent, "health.status_changed").
		Str(log.FieldOldStatus, string(prev)).
		Str(log.FieldNewStatus, string(r.Status)).
		Str(CheckChrony, r.Checks[CheckChrony].Detail).
		Msg("health status changed")
}
