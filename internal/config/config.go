// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the service configuration. Values come from the
// environment, then an optional YAML file, then built-in defaults.
package config

import (
	"time"

	"github.com/ManuGH/timeapi/internal/quality"
)

// Config is the complete runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Quality   QualityConfig   `yaml:"quality" json:"quality"`
	MQTT      MQTTConfig      `yaml:"mqtt" json:"mqtt"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Log       LogConfig       `yaml:"log" json:"log"`
}

// ServerConfig covers the HTTP listener.
type ServerConfig struct {
	Host               string        `yaml:"host" json:"host"`
	Port               int           `yaml:"port" json:"port"`
	TLSCertPath        string        `yaml:"tlsCertPath,omitempty" json:"tlsCertPath,omitempty"`
	TLSKeyPath         string        `yaml:"tlsKeyPath,omitempty" json:"tlsKeyPath,omitempty"`
	RequestTimeout     time.Duration `yaml:"requestTimeout" json:"requestTimeout"`
	MaxBodyBytes       int64         `yaml:"maxBodyBytes" json:"maxBodyBytes"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
	RateLimitRPM       int           `yaml:"rateLimitRPM" json:"rateLimitRPM"`
	CORSAllowedOrigins []string      `yaml:"corsAllowedOrigins" json:"corsAllowedOrigins"`
}

// TLSEnabled reports whether both certificate and key are configured.
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCertPath != "" && s.TLSKeyPath != ""
}

// QualityConfig controls how chrony is queried.
type QualityConfig struct {
	Command         string        `yaml:"command" json:"command"`
	Args            []string      `yaml:"args" json:"args"`
	RefreshInterval time.Duration `yaml:"refreshInterval" json:"refreshInterval"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
}

// MQTTConfig configures the bus publisher. An empty Broker disables it.
type MQTTConfig struct {
	Broker             string        `yaml:"broker,omitempty" json:"broker,omitempty"`
	Username           string        `yaml:"username,omitempty" json:"username,omitempty"`
	Password           string        `yaml:"password,omitempty" json:"password,omitempty"`
	ClientID           string        `yaml:"clientID" json:"clientID"`
	BaseTopic          string        `yaml:"baseTopic" json:"baseTopic"`
	HeartbeatInterval  time.Duration `yaml:"heartbeatInterval" json:"heartbeatInterval"`
	HealthPollInterval time.Duration `yaml:"healthPollInterval" json:"healthPollInterval"`
	HealthMinInterval  time.Duration `yaml:"healthMinInterval" json:"healthMinInterval"`
	PublishTimeout     time.Duration `yaml:"publishTimeout" json:"publishTimeout"`
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool { return m.Broker != "" }

// MetricsConfig configures the separate Prometheus listener.
type MetricsConfig struct {
	// Listen is host:port; empty disables the listener.
	Listen string `yaml:"listen,omitempty" json:"listen,omitempty"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	Endpoint     string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
}

// LogConfig configures the base logger.
type LogConfig struct {
	Level   string `yaml:"level" json:"level"`
	Service string `yaml:"service" json:"service"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8463,
			RequestTimeout:     5 * time.Second,
			MaxBodyBytes:       10 * 1024,
			ShutdownTimeout:    10 * time.Second,
			CORSAllowedOrigins: []string{"*"},
		},
		Quality: QualityConfig{
			Command:         quality.DefaultCommand,
			Args:            append([]string(nil), quality.DefaultArgs...),
			RefreshInterval: quality.DefaultRefreshInterval,
			Timeout:         quality.DefaultTimeout,
		},
		MQTT: MQTTConfig{
			ClientID:           "time-api",
			BaseTopic:          "time-api",
			HeartbeatInterval:  time.Second,
			HealthPollInterval: 500 * time.Millisecond,
			HealthMinInterval:  5 * time.Second,
			PublishTimeout:     2 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			SamplingRate: 1.0,
		},
		Log: LogConfig{
			Level:   "info",
			Service: "timeapi",
		},
	}
}

// Redacted returns a copy safe for dumping or logging.
func (c Config) Redacted() Config {
	out := c
	if out.MQTT.Password != "" {
		out.MQTT.Password = redactedValue
	}
	out.Server.CORSAllowedOrigins = append([]string(nil), c.Server.CORSAllowedOrigins...)
	out.Quality.Args = append([]string(nil), c.Quality.Args...)
	return out
}

const redactedValue = "***"
