// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/timeapi/internal/bus"
)

// Addr returns host:port for the API listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Validate checks cfg and reports every problem at once.
func Validate(cfg Config) error {
	v := &validator{}

	s := cfg.Server
	if s.Port < 1 || s.Port > 65535 {
		v.add("server.port", s.Port, "must be between 1 and 65535")
	}
	if (s.TLSCertPath == "") != (s.TLSKeyPath == "") {
		v.add("server.tlsCertPath", nil, "certificate and key must be configured together")
	}
	v.fileExists("server.tlsCertPath", s.TLSCertPath)
	v.fileExists("server.tlsKeyPath", s.TLSKeyPath)
	v.positive("server.requestTimeout", s.RequestTimeout)
	v.positive("server.shutdownTimeout", s.ShutdownTimeout)
	if s.MaxBodyBytes <= 0 {
		v.add("server.maxBodyBytes", s.MaxBodyBytes, "must be positive")
	}
	if s.RateLimitRPM < 0 {
		v.add("server.rateLimitRPM", s.RateLimitRPM, "must not be negative")
	}

	q := cfg.Quality
	if q.Command == "" {
		v.add("quality.command", nil, "must not be empty")
	}
	v.positive("quality.refreshInterval", q.RefreshInterval)
	v.positive("quality.timeout", q.Timeout)

	m := cfg.MQTT
	if m.Enabled() {
		if _, _, err := bus.BrokerURL(m.Broker); err != nil {
			v.add("mqtt.broker", m.Broker, err.Error())
		}
		if err := bus.ValidateBaseTopic(m.BaseTopic); err != nil {
			v.add("mqtt.baseTopic", m.BaseTopic, err.Error())
		}
		if m.ClientID == "" {
			v.add("mqtt.clientID", nil, "must not be empty")
		}
		v.positive("mqtt.heartbeatInterval", m.HeartbeatInterval)
		v.positive("mqtt.healthPollInterval", m.HealthPollInterval)
		v.positive("mqtt.healthMinInterval", m.HealthMinInterval)
		v.positive("mqtt.publishTimeout", m.PublishTimeout)
	}

	if cfg.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			v.add("metrics.listen", cfg.Metrics.Listen, "must be host:port")
		}
	}

	t := cfg.Telemetry
	if t.Enabled {
		if t.Exporter != "grpc" && t.Exporter != "http" {
			v.add("telemetry.exporter", t.Exporter, "must be grpc or http")
		}
		if t.SamplingRate < 0 || t.SamplingRate > 1 {
			v.add("telemetry.samplingRate", t.SamplingRate, "must be within [0, 1]")
		}
	}

	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err != nil || lvl == zerolog.NoLevel {
		v.add("log.level", cfg.Log.Level, "unknown level")
	}

	return v.err()
}

type validator struct {
	errs []error
}

func (v *validator) add(field string, value any, reason string) {
	v.errs = append(v.errs, &ValidationError{Field: field, Value: value, Reason: reason})
}

func (v *validator) positive(field string, d time.Duration) {
	if d <= 0 {
		v.add(field, d, "must be positive")
	}
}

func (v *validator) fileExists(field, path string) {
	if path == "" {
		return
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		v.add(field, path, "file not readable: "+err.Error())
	case info.IsDir():
		v.add(field, path, "is a directory")
	}
}

func (v *validator) err() error {
	return errors.Join(v.errs...)
}
