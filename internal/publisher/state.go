// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package publisher

import (
	"time"

	"github.com/ManuGH/timeapi/internal/health"
)

// Reasons a health message is due.
const (
	ReasonInitial  = "initial"
	ReasonChanged  = "changed"
	ReasonInterval = "interval"
)

// State is the last successfully published health status. The zero value
// means nothing has been published yet.
type State struct {
	last      health.Status
	lastAt    time.Time
	published bool
}

// Due reports whether status must be published at now, and why. A change
// is published immediately; an unchanged status is republished once
// minInterval has passed since the last publish.
func (s State) Due(status health.Status, now time.Time, minInterval time.Duration) (bool, string) {
	switch {
	case !s.published:
		return true, ReasonInitial
	case status != s.last:
		return true, ReasonChanged
	case now.Sub(s.lastAt) >= minInterval:
		return true, ReasonInterval
	default:
		return false, ""
	}
}

// Record advances the state after a successful publish.
func (s *State) Record(status health.Status, at time.Time) {
	s.last = status
	s.lastAt = at
	s.published = true
}

// Last returns the last published status, if any.
func (s State) Last() (health.Status, bool) {
	return s.last, s.published
}
