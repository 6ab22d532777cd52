// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package middleware provides the HTTP ingress stack for the API server.
package middleware

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ManuGH/timeapi/internal/log"
)

// StackConfig configures the ingress middleware stack.
type StackConfig struct {
	AllowedOrigins []string
	CSP            string

	// TracingService names the server span; empty disables tracing.
	TracingService string

	// RateLimitRPM is requests per minute per client IP; 0 disables limiting.
	RateLimitRPM int

	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter constructs a chi router with the stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the middleware stack to r, outermost first.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(SecurityHeaders(cfg.CSP))
	r.Use(Metrics())
	if cfg.TracingService != "" {
		r.Use(OTelHTTP(cfg.TracingService))
	}
	r.Use(log.Middleware())
	if cfg.RateLimitRPM > 0 {
		r.Use(APIRateLimit(cfg.RateLimitRPM))
	}
	if cfg.MaxBodyBytes > 0 {
		r.Use(chimw.RequestSize(cfg.MaxBodyBytes))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
}
