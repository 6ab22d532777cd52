// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Deps contains dependencies required by the Manager.
type Deps struct {
	Logger zerolog.Logger

	// APIHandler serves the public API.
	APIHandler http.Handler

	// MetricsAddr enables a separate Prometheus listener when non-empty.
	MetricsAddr string
	// MetricsHandler defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}
