// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"fmt"
	"sync"
	"time"
)

var (
	// MinSaneTime and MaxSaneTime bound a plausible wall clock, [2020, 2100).
	MinSaneTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxSaneTime = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// ClockChecker checks the system clock for plausibility: the wall clock is
// inside [MinSaneTime, MaxSaneTime) and successive readings never go
// backwards. Readings from time.Now compare by their monotonic component.
type ClockChecker struct {
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewClockChecker returns a checker over time.Now.
func NewClockChecker() *ClockChecker {
	return &ClockChecker{now: time.Now}
}

// Check returns true when the clock looks sane, otherwise false with a
// human-readable detail. The reading is taken under the lock so concurrent
// callers observe it in the order they store it.
func (c *ClockChecker) Check() (bool, string) {
	c.mu.Lock()
	now := c.now()
	prev := c.last
	if prev.IsZero() || !now.Before(prev) {
		c.last = now
	}
	c.mu.Unlock()

	if !prev.IsZero() && now.Before(prev) {
		return false, fmt.Sprintf("clock went backwards by %s", prev.Sub(now))
	}
	if now.Before(MinSaneTime) || !now.Before(MaxSaneTime) {
		return false, fmt.Sprintf("system clock out of range: %d", now.Unix())
	}
	return true, ""
}
