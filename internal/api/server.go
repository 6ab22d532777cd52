// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the HTTP interface: time conversion, health and
// readiness.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ManuGH/timeapi/internal/api/middleware"
	"github.com/ManuGH/timeapi/internal/log"
)

// Config controls the ingress stack.
type Config struct {
	AllowedOrigins []string
	RateLimitRPM   int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// TracingService enables request spans under this name when set.
	TracingService string
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	cfg    Config
	health HealthService
	zones  ZoneResolver
	now    func() time.Time
	logger zerolog.Logger

	handler http.Handler
}

// New validates deps and builds the router.
func New(cfg Config, deps Deps) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:    cfg,
		health: deps.Health,
		zones:  deps.Zones,
		now:    deps.Now,
		logger: log.WithComponent("api"),
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins: s.cfg.AllowedOrigins,
		TracingService: s.cfg.TracingService,
		RateLimitRPM:   s.cfg.RateLimitRPM,
		RequestTimeout: s.cfg.RequestTimeout,
		MaxBodyBytes:   s.cfg.MaxBodyBytes,
	})
	r.NotFound(writeNotFound)
	r.MethodNotAllowed(writeMethodNotAllowed)

	s.registerRoutes(r)
	return r
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/", s.handleDocs)
	r.Get("/times", s.handleTimes)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
}
