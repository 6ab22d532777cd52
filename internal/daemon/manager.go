// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/timeapi/internal/config"
	"github.com/ManuGH/timeapi/internal/log"
)

// ShutdownHook performs cleanup during graceful shutdown. Hooks run in
// reverse registration order.
type ShutdownHook func(ctx context.Context) error

// Manager runs the HTTP listeners and coordinates shutdown.
type Manager interface {
	// Start binds all listeners and blocks until ctx is cancelled or a
	// server fails.
	Start(ctx context.Context) error

	// Shutdown gracefully shuts down all servers and runs the hooks.
	Shutdown(ctx context.Context) error

	RegisterShutdownHook(name string, hook ShutdownHook)
}

type manager struct {
	serverCfg config.ServerConfig
	deps      Deps

	apiServer     *http.Server
	metricsServer *http.Server

	shutdownHooks []namedHook

	mu       sync.Mutex
	started  bool
	stopping bool

	// ready is closed once every listener is bound.
	ready chan struct{}

	logger zerolog.Logger
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a manager for the given server settings.
func NewManager(serverCfg config.ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if deps.MetricsAddr != "" && deps.MetricsHandler == nil {
		deps.MetricsHandler = promhttp.Handler()
	}
	return &manager{
		serverCfg: serverCfg,
		deps:      deps,
		ready:     make(chan struct{}),
		logger:    deps.Logger.With().Str(log.FieldComponent, "manager").Logger(),
	}, nil
}

func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrManagerStarted
	}
	m.started = true
	m.mu.Unlock()

	m.logger.Info().
		Str("listen", m.serverCfg.Addr()).
		Bool("tls", m.serverCfg.TLSEnabled()).
		Str("metrics_listen", m.deps.MetricsAddr).
		Dur("shutdown_timeout", m.serverCfg.ShutdownTimeout).
		Msg("starting daemon manager")

	errChan := make(chan error, 2)

	if m.deps.MetricsAddr != "" {
		if err := m.startMetricsServer(ctx, errChan); err != nil {
			return m.abort(ctx, fmt.Errorf("start metrics server: %w", err))
		}
	}
	if err := m.startAPIServer(ctx, errChan); err != nil {
		return m.abort(ctx, fmt.Errorf("start API server: %w", err))
	}
	close(m.ready)

	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Str(log.FieldEvent, "daemon.server_failed").Msg("server error, initiating shutdown")
		return m.abort(ctx, err)
	case <-ctx.Done():
		m.logger.Info().Str(log.FieldEvent, "daemon.shutdown_signal").Msg("shutdown signal received")
		return m.Shutdown(context.WithoutCancel(ctx))
	}
}

// abort shuts down whatever already started and returns cause joined with
// any shutdown failure.
func (m *manager) abort(ctx context.Context, cause error) error {
	if err := m.Shutdown(context.WithoutCancel(ctx)); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (m *manager) listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", addr)
}

func (m *manager) startAPIServer(ctx context.Context, errChan chan<- error) error {
	addr := m.serverCfg.Addr()
	ln, err := m.listen(ctx, addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           m.deps.APIHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       m.serverCfg.RequestTimeout + 5*time.Second,
		WriteTimeout:      m.serverCfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16,
		ErrorLog:          log.StdLogger("http"),
	}
	m.mu.Lock()
	m.apiServer = srv
	m.mu.Unlock()

	tlsOn := m.serverCfg.TLSEnabled()
	go func() {
		m.logger.Info().
			Str(log.FieldEvent, "api.listening").
			Str("addr", ln.Addr().String()).
			Bool("tls", tlsOn).
			Msg("API server listening")

		var err error
		if tlsOn {
			err = srv.ServeTLS(ln, m.serverCfg.TLSCertPath, m.serverCfg.TLSKeyPath)
		} else {
			err = srv.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server: %w", err)
		}
	}()
	return nil
}

func (m *manager) startMetricsServer(ctx context.Context, errChan chan<- error) error {
	ln, err := m.listen(ctx, m.deps.MetricsAddr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.deps.MetricsHandler)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.mu.Lock()
	m.metricsServer = srv
	m.mu.Unlock()

	go func() {
		m.logger.Info().
			Str(log.FieldEvent, "metrics.listening").
			Str("addr", ln.Addr().String()).
			Msg("metrics server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	return nil
}

func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	apiSrv, metricsSrv := m.apiServer, m.metricsServer
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	m.logger.Info().Str(log.FieldEvent, "daemon.shutdown_begin").Msg("shutting down daemon manager")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if apiSrv != nil {
		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		if err := h.hook(shutdownCtx); err != nil {
			m.logger.Error().Err(err).
				Str("hook", h.name).
				Dur(log.FieldDuration, time.Since(start)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
			continue
		}
		m.logger.Debug().Str("hook", h.name).Dur(log.FieldDuration, time.Since(start)).Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		m.logger.Error().Int("error_count", len(errs)).Msg("shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("daemon manager stopped cleanly")
	return nil
}

func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
}
