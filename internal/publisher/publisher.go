// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package publisher emits a per-second heartbeat and health events to the
// message bus. Both loops are independent of the HTTP path.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/timeapi/internal/bus"
	"github.com/ManuGH/timeapi/internal/health"
	"github.com/ManuGH/timeapi/internal/log"
)

// Config controls publish cadence.
type Config struct {
	HeartbeatInterval  time.Duration
	HealthPollInterval time.Duration
	MinPublishInterval time.Duration
	PublishTimeout     time.Duration
}

// DefaultConfig returns the standard cadence.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval:  time.Second,
		HealthPollInterval: 500 * time.Millisecond,
		MinPublishInterval: 5 * time.Second,
		PublishTimeout:     2 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.HealthPollInterval <= 0 {
		c.HealthPollInterval = d.HealthPollInterval
	}
	if c.MinPublishInterval <= 0 {
		c.MinPublishInterval = d.MinPublishInterval
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = d.PublishTimeout
	}
	return c
}

// HealthSource evaluates current health. *health.Monitor implements it.
type HealthSource interface {
	Health(ctx context.Context) health.Report
}

// Publisher runs the heartbeat and health loops.
type Publisher struct {
	bus    bus.Publisher
	health HealthSource
	cfg    Config
	now    func() time.Time

	logger zerolog.Logger
	// heartbeat failures repeat every second while the broker is down
	heartbeatErrLog zerolog.Logger
}

// New returns a Publisher. Zero Config fields take DefaultConfig values.
func New(b bus.Publisher, h HealthSource, cfg Config) *Publisher {
	logger := log.WithComponent("publisher")
	return &Publisher{
		bus:             b,
		health:          h,
		cfg:             cfg.withDefaults(),
		now:             time.Now,
		logger:          logger,
		heartbeatErrLog: logger.Sample(&zerolog.BurstSampler{Burst: 1, Period: time.Minute}),
	}
}

// Run blocks until ctx is cancelled. Publish failures are logged and never
// end the loops.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info().
		Str(log.FieldEvent, "publisher.start").
		Dur("heartbeat_interval", p.cfg.HeartbeatInterval).
		Dur("health_poll_interval", p.cfg.HealthPollInterval).
		Dur("min_publish_interval", p.cfg.MinPublishInterval).
		Msg("bus publisher started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.runHeartbeat(gctx)
		return nil
	})
	g.Go(func() error {
		p.runHealth(gctx)
		return nil
	})
	err := g.Wait()

	p.logger.Info().Str(log.FieldEvent, "publisher.stop").Msg("bus publisher stopped")
	return err
}

// runHeartbeat publishes on interval boundaries of the wall clock, so with
// the default interval each message lands at the top of a second.
func (p *Publisher) runHeartbeat(ctx context.Context) {
	for {
		boundary := nextBoundary(p.now(), p.cfg.HeartbeatInterval)
		timer := time.NewTimer(time.Until(boundary))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		p.publishHeartbeat(ctx, boundary)
	}
}

func nextBoundary(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}

func (p *Publisher) publishHeartbeat(ctx context.Context, at time.Time) {
	payload, err := json.Marshal(HeartbeatMessage{Unix: at.Unix()})
	if err != nil {
		p.logger.Error().Err(err).Str(log.FieldEvent, "publisher.encode_failed").Msg("encode heartbeat")
		return
	}

	pctx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()
	if err := p.bus.Publish(pctx, TopicHeartbeat, payload, true); err != nil {
		p.heartbeatErrLog.Warn().Err(err).
			Str(log.FieldEvent, "publisher.publish_failed").
			Str(log.FieldTopic, TopicHeartbeat).
			Msg("heartbeat publish failed")
	}
}

func (p *Publisher) runHealth(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.HealthPollInterval)
	defer ticker.Stop()

	var state State
	for {
		p.pollHealth(ctx, &state)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pollHealth evaluates once and publishes if due. State advances only on a
// successful publish, so a failed one is retried on the next poll.
func (p *Publisher) pollHealth(ctx context.Context, state *State) {
	if ctx.Err() != nil {
		return
	}
	report := p.health.Health(ctx)
	now := p.now()

	due, reason := state.Due(report.Status, now, p.cfg.MinPublishInterval)
	if !due {
		return
	}

	payload, err := json.Marshal(NewHealthMessage(report, now))
	if err != nil {
		p.logger.Error().Err(err).Str(log.FieldEvent, "publisher.encode_failed").Msg("encode health message")
		return
	}

	pctx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()
	if err := p.bus.Publish(pctx, TopicHealth, payload, true); err != nil {
		p.logger.Warn().Err(err).
			Str(log.FieldEvent, "publisher.publish_failed").
			Str(log.FieldTopic, TopicHealth).
			Str(log.FieldStatus, string(report.Status)).
			Msg("health publish failed")
		return
	}

	prev, _ := state.Last()
	state.Record(report.Status, now)

	ev := p.logger.Debug()
	if reason != ReasonInterval {
		ev = p.logger.Info()
	}
	ev.Str(log.FieldEvent, "publisher.health_published").
		Str(log.FieldReason, reason).
		Str(log.FieldOldStatus, string(prev)).
		Str(log.FieldNewStatus, string(report.Status)).
		Msg("health published")
}
