// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/timeapi/internal/log"
	"github.com/ManuGH/timeapi/internal/metrics"
	"github.com/ManuGH/timeapi/internal/resilience"
	"github.com/ManuGH/timeapi/internal/telemetry"
)

const (
	// QoSAtLeastOnce is used for every publish.
	QoSAtLeastOnce byte = 1

	disconnectQuiesceMS = 250

	defaultClientID  = "time-api"
	defaultKeepAlive = 30 * time.Second
)

// Config configures the MQTT client.
type Config struct {
	Broker    string // mqtt://host[:port] or mqtts://host[:port]
	Username  string
	Password  string
	ClientID  string
	BaseTopic string
	KeepAlive time.Duration

	// TLS overrides the default TLS settings for mqtts:// brokers.
	TLS *tls.Config

	// BreakerThreshold consecutive publish failures open the circuit for
	// BreakerReset. Zero selects the breaker defaults.
	BreakerThreshold int
	BreakerReset     time.Duration
}

// MQTTClient publishes to an MQTT broker. The connection is established in
// the background and re-established automatically after loss.
type MQTTClient struct {
	client  mqtt.Client
	base    string
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger

	closeOnce sync.Once
}

var _ Publisher = (*MQTTClient)(nil)

// NewMQTTClient validates cfg and prepares a client. Call Connect to start
// connecting.
func NewMQTTClient(cfg Config) (*MQTTClient, error) {
	brokerURL, secure, err := BrokerURL(cfg.Broker)
	if err != nil {
		return nil, err
	}
	if err := ValidateBaseTopic(cfg.BaseTopic); err != nil {
		return nil, err
	}
	installLibraryLogger()

	c := &MQTTClient{
		base:   cfg.BaseTopic,
		logger: log.WithComponent("bus").With().Str("broker", brokerURL).Logger(),
	}
	c.breaker = resilience.NewCircuitBreaker("mqtt", cfg.BreakerThreshold, cfg.BreakerReset)

	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(orDefault(cfg.ClientID, defaultClientID)).
		SetKeepAlive(durationOr(cfg.KeepAlive, defaultKeepAlive)).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(30 * time.Second).
		SetOrderMatters(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetReconnectingHandler(c.onReconnecting)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if secure {
		tlsCfg := cfg.TLS
		if tlsCfg == nil {
			tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		opts.SetTLSConfig(tlsCfg)
	}

	c.client = mqtt.NewClient(opts)
	return c, nil
}

// newWithClient wires an existing library client, for tests.
func newWithClient(client mqtt.Client, base string, breaker *resilience.CircuitBreaker) *MQTTClient {
	return &MQTTClient{
		client:  client,
		base:    base,
		breaker: breaker,
		logger:  log.WithComponent("bus"),
	}
}

// Connect starts connecting. With ConnectRetry enabled the library keeps
// trying in the background, so Connect waits at most until ctx is done and
// a timeout there is not fatal.
func (c *MQTTClient) Connect(ctx context.Context) error {
	tok := c.client.Connect()
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("bus: connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		c.logger.Warn().
			Str(log.FieldEvent, "bus.connect_pending").
			Msg("broker not reachable yet, retrying in background")
		return nil
	}
}

// Topic returns the full topic for a subtopic.
func (c *MQTTClient) Topic(sub string) string { return JoinTopic(c.base, sub) }

// Publish implements Publisher with QoS 1.
func (c *MQTTClient) Publish(ctx context.Context, sub string, payload []byte, retain bool) error {
	topic := c.Topic(sub)

	ctx, span := telemetry.Tracer("timeapi/bus").Start(ctx, "bus.publish")
	span.SetAttributes(telemetry.PublishAttributes(topic, retain)...)
	defer span.End()

	var err error
	if !c.client.IsConnectionOpen() {
		err = ErrNotConnected
	} else {
		err = c.breaker.Execute(func() error {
			tok := c.client.Publish(topic, QoSAtLeastOnce, retain, payload)
			select {
			case <-tok.Done():
				return tok.Error()
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	metrics.IncBusPublish(sub, publishResult(err))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return &PublishError{Topic: topic, Err: err}
	}
	return nil
}

// Close disconnects, giving in-flight messages 250ms to complete.
func (c *MQTTClient) Close() {
	c.closeOnce.Do(func() {
		c.client.Disconnect(disconnectQuiesceMS)
		metrics.SetBusConnected(false)
		c.logger.Info().Str(log.FieldEvent, "bus.closed").Msg("disconnected from broker")
	})
}

func (c *MQTTClient) onConnect(mqtt.Client) {
	metrics.SetBusConnected(true)
	c.logger.Info().Str(log.FieldEvent, "bus.connected").Msg("connected to broker")
}

func (c *MQTTClient) onConnectionLost(_ mqtt.Client, err error) {
	metrics.SetBusConnected(false)
	c.logger.Warn().Err(err).Str(log.FieldEvent, "bus.connection_lost").Msg("connection to broker lost")
}

func (c *MQTTClient) onReconnecting(mqtt.Client, *mqtt.ClientOptions) {
	c.logger.Debug().Str(log.FieldEvent, "bus.reconnecting").Msg("reconnecting to broker")
}

func publishResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
