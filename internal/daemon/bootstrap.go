// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the components together and runs them until
// shutdown.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/timeapi/internal/api"
	"github.com/ManuGH/timeapi/internal/bus"
	"github.com/ManuGH/timeapi/internal/config"
	"github.com/ManuGH/timeapi/internal/health"
	"github.com/ManuGH/timeapi/internal/log"
	"github.com/ManuGH/timeapi/internal/publisher"
	"github.com/ManuGH/timeapi/internal/quality"
	"github.com/ManuGH/timeapi/internal/telemetry"
	"github.com/ManuGH/timeapi/internal/timezone"
	"github.com/ManuGH/timeapi/internal/version"
)

// connectTimeout bounds the initial broker connect; the client keeps
// retrying in the background afterwards.
const connectTimeout = 10 * time.Second

// Bootstrap builds the App from a loaded configuration. The single quality
// cache is shared by the HTTP handlers and the bus publisher through one
// health monitor.
func Bootstrap(ctx context.Context, cfg config.Config, loader *config.Loader) (*App, error) {
	logger := log.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: version.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	source := quality.NewCommandSource(cfg.Quality.Command, cfg.Quality.Args, cfg.Quality.Timeout)
	qcache := quality.NewCache(source, cfg.Quality.RefreshInterval, quality.WithFetchTimeout(cfg.Quality.Timeout))
	monitor := health.NewMonitor(qcache, nil)
	zones := timezone.NewResolver()

	apiCfg := api.Config{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimitRPM:   cfg.Server.RateLimitRPM,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}
	if tp.Enabled() {
		apiCfg.TracingService = cfg.Log.Service
	}
	apiSrv, err := api.New(apiCfg, api.Deps{Health: monitor, Zones: zones})
	if err != nil {
		zones.Close()
		return nil, err
	}

	mgr, err := NewManager(cfg.Server, Deps{
		Logger:      logger,
		APIHandler:  apiSrv.Handler(),
		MetricsAddr: cfg.Metrics.Listen,
	})
	if err != nil {
		zones.Close()
		return nil, err
	}
	// LIFO: zones close first, traces flush last.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("timezone-cache", func(context.Context) error {
		zones.Close()
		return nil
	})

	var busRunner Runner
	if cfg.MQTT.Enabled() {
		client, err := bus.NewMQTTClient(bus.Config{
			Broker:    cfg.MQTT.Broker,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
			ClientID:  cfg.MQTT.ClientID,
			BaseTopic: cfg.MQTT.BaseTopic,
		})
		if err != nil {
			zones.Close()
			return nil, fmt.Errorf("init mqtt: %w", err)
		}
		pub := publisher.New(client, monitor, publisher.Config{
			HeartbeatInterval:  cfg.MQTT.HeartbeatInterval,
			HealthPollInterval: cfg.MQTT.HealthPollInterval,
			MinPublishInterval: cfg.MQTT.HealthMinInterval,
			PublishTimeout:     cfg.MQTT.PublishTimeout,
		})
		busRunner = &busLoop{client: client, publisher: pub}
	} else {
		logger.Info().Str(log.FieldEvent, "bus.disabled").Msg("no MQTT broker configured, publisher disabled")
	}

	var holder *config.Holder
	if loader != nil {
		holder = config.NewHolder(cfg, loader)
	}
	return NewApp(logger, mgr, holder, busRunner), nil
}

// busConnector is the part of *bus.MQTTClient the loop drives.
type busConnector interface {
	Connect(ctx context.Context) error
	Close()
}

// busLoop connects the client, runs the publisher and disconnects once the
// publisher has stopped, so no publish races the disconnect.
type busLoop struct {
	client    busConnector
	publisher Runner
}

func (b *busLoop) Run(ctx context.Context) error {
	defer b.client.Close()

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	err := b.client.Connect(cctx)
	cancel()
	if err != nil {
		logger := log.WithComponent("bus")
		logger.Warn().Err(err).
			Str(log.FieldEvent, "bus.connect_failed").
			Msg("initial broker connect failed, retrying in background")
	}
	return b.publisher.Run(ctx)
}
