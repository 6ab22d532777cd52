// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch results.
const (
	FetchSuccess         = "success"
	FetchInvocationError = "invocation_error"
	FetchParseError      = "parse_error"
)

var (
	QualityFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeapi_quality_fetch_total",
		Help: "Total number of time quality fetches from the sync daemon by result",
	}, []string{"result"})

	QualityFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeapi_quality_fetch_duration_seconds",
		Help:    "Duration of status tool invocations in seconds",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	QualityCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeapi_quality_cache_total",
		Help: "Quality cache lookups by result (hit, miss)",
	}, []string{"result"})

	ChronyStratum = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "timeapi_chrony_stratum",
		Help: "Stratum reported by the last successful quality fetch",
	})

	ChronyOffsetSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "timeapi_chrony_offset_seconds",
		Help: "System clock offset reported by the last successful quality fetch",
	})
)

// ObserveQualityFetch records the outcome and latency of one status tool call.
func ObserveQualityFetch(result string, took time.Duration) {
	QualityFetchTotal.WithLabelValues(result).Inc()
	QualityFetchDuration.Observe(took.Seconds())
}

// IncQualityCache records a cache hit or miss.
func IncQualityCache(hit bool) {
	if hit {
		QualityCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	QualityCacheTotal.WithLabelValues("miss").Inc()
}

// SetChronyTracking publishes the latest parsed tracking values.
func SetChronyTracking(stratum uint8, offsetSeconds float64) {
	ChronyStratum.Set(float64(stratum))
	ChronyOffsetSeconds.Set(offsetSeconds)
}
