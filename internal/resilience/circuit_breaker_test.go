// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/timeapi/internal/metrics"
)

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time { return m.now }

var errBroker = errors.New("broker unreachable")

func failing() error { return errBroker }
func succeeding() error { return nil }

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	clk := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test-trip", 3, 10*time.Second, WithClock(clk.Now))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(failing), errBroker)
		assert.Equal(t, StateClosed, cb.State())
	}
	assert.ErrorIs(t, cb.Execute(failing), errBroker)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open breaker must not call fn")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CircuitBreakerTrips.WithLabelValues("test-trip", "threshold_exceeded")))
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test-reset", 2, time.Second)

	_ = cb.Execute(failing)
	require.NoError(t, cb.Execute(succeeding))
	_ = cb.Execute(failing)
	assert.Equal(t, StateClosed, cb.State(), "failures must be consecutive")
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clk := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test-probe", 1, 10*time.Second, WithClock(clk.Now))

	_ = cb.Execute(failing)
	require.Equal(t, StateOpen, cb.State())

	clk.now = clk.now.Add(10 * time.Second)

	// The probe is in flight: concurrent callers are rejected.
	err := cb.Execute(func() error {
		assert.Equal(t, StateHalfOpen, cb.State())
		assert.ErrorIs(t, cb.Execute(succeeding), ErrCircuitOpen)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	clk := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test-reopen", 1, 10*time.Second, WithClock(clk.Now))

	_ = cb.Execute(failing)
	clk.now = clk.now.Add(11 * time.Second)
	assert.ErrorIs(t, cb.Execute(failing), errBroker)
	assert.Equal(t, StateOpen, cb.State())

	// The reset timeout restarts from the failed probe.
	clk.now = clk.now.Add(5 * time.Second)
	assert.ErrorIs(t, cb.Execute(succeeding), ErrCircuitOpen)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CircuitBreakerTrips.WithLabelValues("test-reopen", "half_open_failure")))
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("test-defaults", 0, 0)
	assert.Equal(t, 3, cb.threshold)
	assert.Equal(t, 30*time.Second, cb.resetTimeout)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-defaults", "closed")))
}
