// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !unix

package procgroup

import (
	"fmt"
	"os/exec"
	"syscall"
)

// Set is a no-op on platforms without process groups.
func Set(_ *exec.Cmd) {}

// Kill falls back to killing the root process only.
func Kill(cmd *exec.Cmd, _ syscall.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		if isGone(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrKillFailed, err)
	}
	return nil
}
