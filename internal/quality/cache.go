// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package quality

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/timeapi/internal/log"
	"github.com/ManuGH/timeapi/internal/metrics"
	"github.com/ManuGH/timeapi/internal/telemetry"
)

// DefaultRefreshInterval is the minimum age before a cached reading is
// refetched.
const DefaultRefreshInterval = 250 * time.Millisecond

const flightKey = "tracking"

// Cache holds the most recent successfully parsed TimeQuality. Reads inside
// the refresh interval never touch the source; stale reads share a single
// in-flight fetch. A failed fetch keeps the previous value and does not
// advance the fetch time, so the next caller retries.
type Cache struct {
	source   Source
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	group singleflight.Group

	mu        sync.RWMutex
	value     TimeQuality
	have      bool
	fetchedAt time.Time
}

// CacheOption customises a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithFetchTimeout bounds a single shared fetch. Defaults to DefaultTimeout.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *Cache) { c.timeout = d }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// NewCache returns a Cache over src. A non-positive interval selects
// DefaultRefreshInterval.
func NewCache(src Source, interval time.Duration, opts ...CacheOption) *Cache {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	c := &Cache{
		source:   src,
		interval: interval,
		timeout:  DefaultTimeout,
		now:      time.Now,
		logger:   log.WithComponent("quality"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Interval returns the configured refresh interval.
func (c *Cache) Interval() time.Duration { return c.interval }

// Get returns a reading no older than the refresh interval, fetching one if
// needed. When the fetch fails the last good reading is returned; ok is false
// only if no fetch has ever succeeded. Cancelling ctx abandons the wait but
// not the shared fetch.
func (c *Cache) Get(ctx context.Context) (TimeQuality, bool) {
	if q, ok := c.fresh(); ok {
		metrics.IncQualityCache(true)
		return q, true
	}
	metrics.IncQualityCache(false)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		return nil, c.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ch:
	case <-ctx.Done():
	}
	return c.Snapshot()
}

// Snapshot returns the current value without fetching, regardless of age.
func (c *Cache) Snapshot() (TimeQuality, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.have
}

// Age returns how long ago the current value was fetched, and false when
// there is none.
func (c *Cache) Age() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.have {
		return 0, false
	}
	return c.now().Sub(c.fetchedAt), true
}

func (c *Cache) fresh() (TimeQuality, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.have && c.now().Sub(c.fetchedAt) < c.interval {
		return c.value, true
	}
	return TimeQuality{}, false
}

func (c *Cache) refresh(ctx context.Context) error {
	// A flight that finished just before this one started may already have
	// refreshed the value.
	if _, ok := c.fresh(); ok {
		return nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := telemetry.Tracer("timeapi/quality").Start(ctx, "quality.refresh")
	defer span.End()

	start := time.Now()
	raw, err := c.source.Fetch(ctx)
	if err != nil {
		metrics.ObserveQualityFetch(metrics.FetchInvocationError, time.Since(start))
		span.SetAttributes(telemetry.ErrorAttributes(metrics.FetchInvocationError)...)
		span.SetStatus(codes.Error, "fetch failed")
		c.logFailure(err, "quality.fetch_failed")
		return err
	}

	q, err := Parse(raw)
	if err != nil {
		metrics.ObserveQualityFetch(metrics.FetchParseError, time.Since(start))
		span.SetAttributes(telemetry.ErrorAttributes(metrics.FetchParseError)...)
		span.SetStatus(codes.Error, "parse failed")
		c.logFailure(err, "quality.parse_failed")
		return err
	}
	metrics.ObserveQualityFetch(metrics.FetchSuccess, time.Since(start))
	span.SetAttributes(telemetry.QualityAttributes(q.Stratum, q.OffsetSeconds)...)
	metrics.SetChronyTracking(q.Stratum, q.OffsetSeconds)

	c.mu.Lock()
	c.value = q
	c.have = true
	c.fetchedAt = c.now()
	c.mu.Unlock()

	c.logger.Debug().
		Str(log.FieldEvent, "quality.refreshed").
		Uint8(log.FieldStratum, q.Stratum).
		Float64(log.FieldOffset, q.OffsetSeconds).
		Str(log.FieldReferenceID, q.ReferenceID).
		Str(log.FieldLeapStatus, q.LeapStatus.String()).
		Msg("time quality refreshed")
	return nil
}

func (c *Cache) logFailure(err error, event string) {
	ev := c.logger.Warn().Err(err).Str(log.FieldEvent, event)
	var inv *InvocationError
	if errors.As(err, &inv) {
		ev = ev.Str(log.FieldCommand, inv.Command).Int("exit_code", inv.ExitCode)
	}
	_, stale := c.Snapshot()
	ev.Bool("serving_stale", stale).Msg("time quality unavailable")
}
