// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup spawns status tools in their own process group so a
// hung tool (and anything it forked) can be reaped as a unit.
package procgroup

import (
	"errors"
	"syscall"
)

// ErrKillFailed is returned when a process group could not be signalled.
var ErrKillFailed = errors.New("kill operation failed")

// isGone reports whether err means the target process no longer exists.
func isGone(err error) bool {
	return errors.Is(err, syscall.ESRCH)
}
