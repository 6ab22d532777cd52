// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package timezone renders an instant in IANA time zones.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone data for hosts without /usr/share/zoneinfo

	"github.com/ManuGH/timeapi/internal/cache"
)

const (
	// MaxZones bounds the number of zones in one request.
	MaxZones = 50

	// LocalLayout formats local wall time without a zone suffix.
	LocalLayout = "2006-01-02T15:04:05"

	// DefaultZone is used when a request names no zone.
	DefaultZone = "UTC"

	locationTTL     = time.Hour
	cleanupInterval = 10 * time.Minute
)

// ErrTooManyZones is returned by SplitZones when more than MaxZones names
// are given.
var ErrTooManyZones = fmt.Errorf("too many time zones requested (max: %d)", MaxZones)

// UnknownZoneError reports a name that is not a known IANA zone.
type UnknownZoneError struct {
	Name string
	Err  error
}

func (e *UnknownZoneError) Error() string {
	return fmt.Sprintf("Unrecognized time zone '%s'", e.Name)
}

func (e *UnknownZoneError) Unwrap() error { return e.Err }

// ZoneTime is an instant rendered in one zone.
type ZoneTime struct {
	Local  string `json:"local"`
	Offset int    `json:"offset"` // seconds east of UTC
}

// Resolver loads and caches zone definitions.
type Resolver struct {
	locations *cache.Memory[*time.Location]
}

// NewResolver returns a Resolver. Close releases its cleanup goroutine.
func NewResolver() *Resolver {
	return &Resolver{locations: cache.NewMemory[*time.Location](cleanupInterval)}
}

// Close stops background cleanup.
func (r *Resolver) Close() { r.locations.Stop() }

// Stats exposes the location cache counters.
func (r *Resolver) Stats() cache.Stats { return r.locations.Stats() }

// Location returns the zone for an IANA name. The host-dependent "Local"
// zone and the empty name are rejected.
func (r *Resolver) Location(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, &UnknownZoneError{Name: name}
	}
	if loc, ok := r.locations.Get(name); ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &UnknownZoneError{Name: name, Err: err}
	}
	r.locations.Set(name, loc, locationTTL)
	return loc, nil
}

// Resolve renders unix (seconds) in the named zone.
func (r *Resolver) Resolve(name string, unix int64) (ZoneTime, error) {
	loc, err := r.Location(name)
	if err != nil {
		return ZoneTime{}, err
	}
	t := time.Unix(unix, 0).In(loc)
	_, offset := t.Zone()
	return ZoneTime{Local: t.Format(LocalLayout), Offset: offset}, nil
}

// ResolveAll renders unix in every named zone, keyed by name. Blank names
// are skipped. The first unknown name fails the whole call.
func (r *Resolver) ResolveAll(names []string, unix int64) (map[string]ZoneTime, error) {
	out := make(map[string]ZoneTime, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, seen := out[name]; seen {
			continue
		}
		zt, err := r.Resolve(name, unix)
		if err != nil {
			return nil, err
		}
		out[name] = zt
	}
	return out, nil
}

// SplitZones parses a comma-separated zone list, trimming blanks. An empty
// list yields DefaultZone.
func SplitZones(csv string) ([]string, error) {
	var names []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	if len(names) > MaxZones {
		return nil, ErrTooManyZones
	}
	if len(names) == 0 {
		names = []string{DefaultZone}
	}
	return names, nil
}

// IsUnknownZone reports whether err is an *UnknownZoneError.
func IsUnknownZone(err error) bool {
	var uz *UnknownZoneError
	return errors.As(err, &uz)
}
