// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"

	"github.com/ManuGH/timeapi/internal/log"
)

const reloadDebounce = 500 * time.Millisecond

// Holder keeps the active configuration and swaps it on reload.
type Holder struct {
	mu      sync.RWMutex
	current Config
	loader  *Loader
	logger  zerolog.Logger

	debounce  time.Duration
	listeners []func(Config)
}

// NewHolder wraps an already loaded configuration.
func NewHolder(initial Config, loader *Loader) *Holder {
	return &Holder{
		current:  initial,
		loader:   loader,
		logger:   log.WithComponent("config"),
		debounce: reloadDebounce,
	}
}

// Get returns the current configuration.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// OnReload registers fn to run after every successful reload. Register
// before Watch starts.
func (h *Holder) OnReload(fn func(Config)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// Reload loads and validates the configuration again. On failure the old
// configuration stays active. Only the log level takes effect at runtime;
// other changes apply on the next restart.
func (h *Holder) Reload() error {
	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")

	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("keeping previous configuration")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	listeners := append([]func(Config){}, h.listeners...)
	h.mu.Unlock()

	if prev.Log.Level != next.Log.Level {
		lvl := log.SetLevel(next.Log.Level)
		h.logger.Info().
			Str(log.FieldEvent, "config.log_level_changed").
			Str("old", prev.Log.Level).
			Str("new", lvl.String()).
			Msg("log level changed")
	}
	if restartRequired(prev, next) {
		h.logger.Warn().
			Str(log.FieldEvent, "config.restart_required").
			Msg("configuration changed beyond log level, restart to apply")
	}
	for _, fn := range listeners {
		fn(next)
	}

	h.logger.Info().Str(log.FieldEvent, "config.reload_success").Msg("configuration reloaded")
	return nil
}

// Watch reloads on changes to the config file until ctx is cancelled.
// Without a file it returns immediately. The parent directory is watched so
// editors that replace the file by rename are still seen.
func (h *Holder) Watch(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().Str(log.FieldEvent, "config.watcher_disabled").Msg("no config file, watcher disabled")
		return nil
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.logger.Info().Str(log.FieldEvent, "config.watcher_started").Str("path", path).Msg("watching config file")

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			h.logger.Debug().Str(log.FieldEvent, "config.file_changed").Str("op", ev.Op.String()).Msg("config file changed")
			if timer == nil {
				timer = time.NewTimer(h.debounce)
			} else {
				timer.Reset(h.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			_ = h.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().Err(err).Str(log.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}

// restartRequired reports changes other than the log level.
func restartRequired(prev, next Config) bool {
	prev.Log.Level, next.Log.Level = "", ""
	return !cmp.Equal(prev, next, cmpopts.EquateEmpty())
}
