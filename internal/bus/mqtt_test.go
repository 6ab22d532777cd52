// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/timeapi/internal/metrics"
	"github.com/ManuGH/timeapi/internal/resilience"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *fakeToken { return &fakeToken{done: make(chan struct{})} }

func (t *fakeToken) Wait() bool { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

// fakeClient implements the subset of mqtt.Client the publisher uses.
type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	open         bool
	next         func() mqtt.Token
	sent         []published
	disconnected uint
	connectTok   mqtt.Token
}

func (f *fakeClient) IsConnectionOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeClient) Connect() mqtt.Token { return f.connectTok }

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{topic: topic, qos: qos, retain: retained, payload: payload.([]byte)})
	if f.next != nil {
		return f.next()
	}
	return completedToken(nil)
}

func (f *fakeClient) Disconnect(quiesce uint) {
	f.mu.Lock()
	f.disconnected = quiesce
	f.mu.Unlock()
}

func TestMQTTClient_Publish(t *testing.T) {
	fc := &fakeClient{open: true}
	c := newWithClient(fc, "time-api", resilience.NewCircuitBreaker("test-bus-ok", 3, time.Minute))

	require.NoError(t, c.Publish(context.Background(), "pps", []byte(`{"unix":1}`), true))

	require.Len(t, fc.sent, 1)
	assert.Equal(t, published{topic: "time-api/pps", qos: 1, retain: true, payload: []byte(`{"unix":1}`)}, fc.sent[0])
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.BusPublishTotal.WithLabelValues("pps", "success")), 1.0)
}

func TestMQTTClient_NotConnected(t *testing.T) {
	fc := &fakeClient{open: false}
	c := newWithClient(fc, "time-api", resilience.NewCircuitBreaker("test-bus-down", 1, time.Minute))

	err := c.Publish(context.Background(), "health", []byte(`{}`), true)

	var pe *PublishError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "time-api/health", pe.Topic)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, fc.sent)
	assert.Equal(t, resilience.StateClosed, c.breaker.State(), "not connected must not trip the breaker")
}

func TestMQTTClient_PublishTimeout(t *testing.T) {
	fc := &fakeClient{open: true, next: func() mqtt.Token { return pendingToken() }}
	c := newWithClient(fc, "time-api", resilience.NewCircuitBreaker("test-bus-timeout", 5, time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.Publish(ctx, "pps", []byte(`{}`), true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestMQTTClient_BreakerOpensOnBrokerErrors(t *testing.T) {
	errRejected := errors.New("not authorized")
	fc := &fakeClient{open: true, next: func() mqtt.Token { return completedToken(errRejected) }}
	c := newWithClient(fc, "time-api", resilience.NewCircuitBreaker("test-bus-breaker", 2, time.Minute))

	assert.ErrorIs(t, c.Publish(context.Background(), "pps", nil, true), errRejected)
	assert.ErrorIs(t, c.Publish(context.Background(), "pps", nil, true), errRejected)
	assert.ErrorIs(t, c.Publish(context.Background(), "pps", nil, true), resilience.ErrCircuitOpen)
	assert.Len(t, fc.sent, 2)
}

func TestMQTTClient_CloseOnce(t *testing.T) {
	fc := &fakeClient{open: true}
	c := newWithClient(fc, "time-api", resilience.NewCircuitBreaker("test-bus-close", 1, time.Minute))

	c.Close()
	c.Close()
	assert.Equal(t, uint(250), fc.disconnected)
}

func TestMQTTClient_ConnectPendingIsNotFatal(t *testing.T) {
	fc := &fakeClient{connectTok: pendingToken()}
	c := newWithClient(fc, "time-api", resilience.NewCircuitBreaker("test-bus-connect", 1, time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.NoError(t, c.Connect(ctx))

	fc.connectTok = completedToken(errors.New("bad credentials"))
	assert.ErrorContains(t, c.Connect(context.Background()), "bad credentials")
}

func TestNewMQTTClient_Validation(t *testing.T) {
	_, err := NewMQTTClient(Config{Broker: "http://broker", BaseTopic: "time-api"})
	assert.ErrorIs(t, err, ErrInvalidBroker)

	_, err = NewMQTTClient(Config{Broker: "mqtt://broker", BaseTopic: "time/#"})
	assert.Error(t, err)

	c, err := NewMQTTClient(Config{Broker: "mqtts://broker.example", BaseTopic: "site/time-api/"})
	require.NoError(t, err)
	assert.Equal(t, "site/time-api/pps", c.Topic("pps"))
}
