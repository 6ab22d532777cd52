// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/timeapi/internal/health"
	"github.com/ManuGH/timeapi/internal/quality"
	"github.com/ManuGH/timeapi/internal/timezone"
)

// HealthService evaluates health and serves cached quality readings.
// *health.Monitor implements it.
type HealthService interface {
	Health(ctx context.Context) health.Report
	QualityIfFresh(ctx context.Context) (quality.TimeQuality, bool)
}

// ZoneResolver renders an instant in named zones. *timezone.Resolver
// implements it.
type ZoneResolver interface {
	ResolveAll(names []string, unix int64) (map[string]timezone.ZoneTime, error)
}

// Deps holds all dependencies for the API server.
type Deps struct {
	Health HealthService
	Zones  ZoneResolver
	// Now defaults to time.Now.
	Now func() time.Time
}

var (
	ErrMissingHealth = errors.New("api: health service is required")
	ErrMissingZones  = errors.New("api: zone resolver is required")
)

func (d Deps) validate() error {
	var errs []error
	if d.Health == nil {
		errs = append(errs, ErrMissingHealth)
	}
	if d.Zones == nil {
		errs = append(errs, ErrMissingZones)
	}
	return errors.Join(errs...)
}
