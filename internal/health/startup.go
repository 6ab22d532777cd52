// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/ManuGH/timeapi/internal/config"
	"github.com/ManuGH/timeapi/internal/log"
)

// ErrStartupCheck wraps every fatal pre-flight failure.
var ErrStartupCheck = errors.New("startup check failed")

// PerformStartupChecks runs pre-flight checks before the listeners start.
// A missing chrony binary or an insane clock only warn: the service still
// answers, reporting itself degraded or unhealthy. Unreadable TLS files and
// an occupied listen address are fatal.
func PerformStartupChecks(ctx context.Context, cfg config.Config) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Str(log.FieldEvent, "startup.checks_begin").Msg("running pre-flight checks")

	checkChronyBinary(logger, cfg.Quality.Command)
	checkClock(logger, NewClockChecker())

	if cfg.Server.TLSEnabled() {
		for _, p := range []string{cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath} {
			if err := checkFileReadable(p); err != nil {
				return fmt.Errorf("%w: tls: %w", ErrStartupCheck, err)
			}
		}
		logger.Info().Msg("tls files are readable")
	}

	if err := checkListenAddr(ctx, cfg.Server.Addr()); err != nil {
		return fmt.Errorf("%w: %w", ErrStartupCheck, err)
	}
	if cfg.Metrics.Listen != "" {
		if err := checkListenAddr(ctx, cfg.Metrics.Listen); err != nil {
			return fmt.Errorf("%w: metrics: %w", ErrStartupCheck, err)
		}
	}

	logger.Info().Str(log.FieldEvent, "startup.checks_passed").Msg("all startup checks passed")
	return nil
}

func checkChronyBinary(logger zerolog.Logger, command string) {
	path, err := exec.LookPath(command)
	if err != nil {
		logger.Warn().Err(err).
			Str(log.FieldEvent, "startup.chrony_missing").
			Str(log.FieldCommand, command).
			Msg("chrony client not found, time quality will be unavailable")
		return
	}
	logger.Info().Str(log.FieldCommand, path).Msg("chrony client found")
}

func checkClock(logger zerolog.Logger, clock ClockCheck) {
	if ok, detail := clock.Check(); !ok {
		logger.Warn().
			Str(log.FieldEvent, "startup.clock_insane").
			Str(log.FieldReason, detail).
			Msg("system clock failed sanity check")
	}
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return fmt.Errorf("file not readable: %w", err)
	}
	return f.Close()
}

// checkListenAddr binds addr briefly to catch an occupied port before any
// other component starts.
func checkListenAddr(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot listen on %s: %w", addr, err)
	}
	return ln.Close()
}
