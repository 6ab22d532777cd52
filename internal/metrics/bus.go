// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BusPublishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeapi_bus_publish_total",
		Help: "Total number of message bus publishes by topic and result",
	}, []string{"topic", "result"})

	BusConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "timeapi_bus_connected",
		Help: "Whether the message bus client currently holds a broker connection (1) or not (0)",
	})
)

// IncBusPublish records a publish attempt for the given topic.
func IncBusPublish(topic, result string) {
	if topic == "" {
		topic = "unknown"
	}
	if result == "" {
		result = "unknown"
	}
	BusPublishTotal.WithLabelValues(topic, result).Inc()
}

// SetBusConnected records the broker connection state.
func SetBusConnected(connected bool) {
	if connected {
		BusConnected.Set(1)
		return
	}
	BusConnected.Set(0)
}
