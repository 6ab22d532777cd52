// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/timeapi/internal/config"
	"github.com/ManuGH/timeapi/internal/log"
)

// Runner is a background loop that stops when its context is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// App owns the long-lived runtime: the server manager, the bus publisher
// and config reloading.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.Holder
	runners      []Runner
	reloadSignal os.Signal
}

// NewApp creates an App. cfgHolder may be nil; nil runners are skipped.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.Holder, runners ...Runner) *App {
	a := &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		reloadSignal: syscall.SIGHUP,
	}
	for _, r := range runners {
		if r != nil {
			a.runners = append(a.runners, r)
		}
	}
	return a
}

// Run blocks until ctx is cancelled or a server fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		g.Go(func() error {
			// best effort: a broken watcher must not stop the service
			if err := a.cfgHolder.Watch(ctx); err != nil {
				a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("config watcher unavailable")
			}
			return nil
		})
		if a.reloadSignal != nil {
			g.Go(func() error {
				a.reloadOnSignal(ctx)
				return nil
			})
		}
	}

	for _, r := range a.runners {
		g.Go(func() error { return r.Run(ctx) })
	}

	g.Go(func() error { return a.manager.Start(ctx) })

	return g.Wait()
}

func (a *App) reloadOnSignal(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, a.reloadSignal)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			a.logger.Info().
				Str(log.FieldEvent, "config.reload_signal").
				Str("signal", a.reloadSignal.String()).
				Msg("received reload signal")
			_ = a.cfgHolder.Reload()
		}
	}
}
