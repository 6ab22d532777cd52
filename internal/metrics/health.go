// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthStatus is one-hot over the three verdicts.
var HealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "timeapi_health_status",
	Help: "Current health verdict (active status=1, others 0)",
}, []string{"status"})

var healthStates = []string{"healthy", "degraded", "unhealthy"}

// SetHealthStatus records the latest evaluated health verdict.
func SetHealthStatus(status string) {
	for _, s := range healthStates {
		value := 0.0
		if s == status {
			value = 1.0
		}
		HealthStatus.WithLabelValues(s).Set(value)
	}
}
