// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package procgroup

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/timeapi/internal/metrics"
)

// Terminate stops a process group: SIGTERM, wait up to grace, then SIGKILL.
// It consumes and returns the error from waitCh, which must receive the
// result of cmd.Wait exactly once. Safe to call on nil commands.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	recordSignal("SIGTERM", Kill(cmd, syscall.SIGTERM))

	select {
	case err := <-waitCh:
		if err == nil {
			metrics.IncProcWait("exit0")
		} else {
			metrics.IncProcWait("exit_nonzero")
		}
		return err
	case <-time.After(grace):
		recordSignal("SIGKILL", Kill(cmd, syscall.SIGKILL))

		// SIGKILL cannot be ignored, so Wait returns shortly.
		err := <-waitCh
		if err == nil {
			metrics.IncProcWait("forced_exit0")
		} else {
			metrics.IncProcWait("forced_error")
		}
		return err
	}
}

func recordSignal(sig string, err error) {
	if err == nil {
		metrics.IncProcTerminate(sig, "sent")
		return
	}
	metrics.IncProcTerminate(sig, "error")
}
