// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"

	"github.com/ManuGH/timeapi/internal/log"
)

// Loader resolves configuration with precedence ENV > file > defaults.
type Loader struct {
	path string
}

// NewLoader returns a Loader. An empty path means environment only.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the config file path, possibly empty.
func (l *Loader) Path() string { return l.path }

// Load builds and validates a Config.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults()
	if l.path != "" {
		if err := mergeFile(&cfg, l.path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	logger := envLogger()
	logger.Info().
		Str(log.FieldEvent, "config.loaded").
		Str("path", l.path).
		Str("listen", cfg.Server.Addr()).
		Bool("tls", cfg.Server.TLSEnabled()).
		Bool("mqtt", cfg.MQTT.Enabled()).
		Bool("metrics", cfg.Metrics.Listen != "").
		Msg("configuration loaded")
	return cfg, nil
}

// Load is shorthand for NewLoader(path).Load().
func Load(path string) (Config, error) {
	return NewLoader(path).Load()
}

// applyEnv overlays environment variables. Each current value is the
// fallback, so a file setting survives when its variable is unset.
func applyEnv(cfg *Config) {
	s := &cfg.Server
	s.Host = ParseString("HOST", s.Host)
	s.Port = ParseInt("PORT", s.Port)
	s.TLSCertPath = ParseString("TLS_CERT_PATH", s.TLSCertPath)
	s.TLSKeyPath = ParseString("TLS_KEY_PATH", s.TLSKeyPath)
	s.RequestTimeout = ParseDuration("REQUEST_TIMEOUT", s.RequestTimeout)
	s.MaxBodyBytes = ParseInt64("MAX_BODY_BYTES", s.MaxBodyBytes)
	s.ShutdownTimeout = ParseDuration("SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.RateLimitRPM = ParseInt("RATE_LIMIT_RPM", s.RateLimitRPM)
	s.CORSAllowedOrigins = ParseList("CORS_ALLOWED_ORIGINS", s.CORSAllowedOrigins)

	q := &cfg.Quality
	q.Command = ParseString("CHRONY_COMMAND", q.Command)
	q.Args = ParseList("CHRONY_ARGS", q.Args)
	q.RefreshInterval = ParseDuration("QUALITY_REFRESH_INTERVAL", q.RefreshInterval)
	q.Timeout = ParseDuration("QUALITY_TIMEOUT", q.Timeout)

	m := &cfg.MQTT
	m.Broker = ParseString("MQTT_BROKER", m.Broker)
	m.Username = ParseString("MQTT_USERNAME", m.Username)
	m.Password = ParseString("MQTT_PASSWORD", m.Password)
	m.ClientID = ParseString("MQTT_CLIENT_ID", m.ClientID)
	m.BaseTopic = ParseString("MQTT_BASE_TOPIC", m.BaseTopic)
	m.HeartbeatInterval = ParseDuration("MQTT_HEARTBEAT_INTERVAL", m.HeartbeatInterval)
	m.HealthPollInterval = ParseDuration("MQTT_HEALTH_POLL_INTERVAL", m.HealthPollInterval)
	m.HealthMinInterval = ParseDuration("MQTT_HEALTH_MIN_INTERVAL", m.HealthMinInterval)
	m.PublishTimeout = ParseDuration("MQTT_PUBLISH_TIMEOUT", m.PublishTimeout)

	cfg.Metrics.Listen = ParseString("METRICS_LISTEN", cfg.Metrics.Listen)

	t := &cfg.Telemetry
	t.Enabled = ParseBool("OTEL_ENABLED", t.Enabled)
	t.Exporter = ParseString("OTEL_EXPORTER", t.Exporter)
	t.Endpoint = ParseString("OTEL_ENDPOINT", t.Endpoint)
	t.SamplingRate = ParseFloat("OTEL_SAMPLING_RATE", t.SamplingRate)

	cfg.Log.Level = ParseString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Service = ParseString("LOG_SERVICE", cfg.Log.Service)
}
