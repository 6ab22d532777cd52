// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	_ "embed"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/timeapi/internal/health"
	"github.com/ManuGH/timeapi/internal/log"
	"github.com/ManuGH/timeapi/internal/quality"
	"github.com/ManuGH/timeapi/internal/telemetry"
	"github.com/ManuGH/timeapi/internal/timezone"
)

//go:embed docs.html
var docsHTML []byte

// TimesResponse is the body of GET /times.
type TimesResponse struct {
	Unix        int64                        `json:"unix"`
	Zones       map[string]timezone.ZoneTime `json:"zones"`
	TimeQuality *quality.TimeQuality         `json:"time_quality,omitempty"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docsHTML)
}

// handleTimes renders the current second in each requested zone. The tz
// parameter is comma separated and may repeat.
func (s *Server) handleTimes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	names, err := timezone.SplitZones(strings.Join(q["tz"], ","))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	includeQuality := false
	if raw := q.Get("include_quality"); raw != "" {
		includeQuality, err = strconv.ParseBool(raw)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "include_quality must be a boolean")
			return
		}
	}

	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int(telemetry.ZoneCountKey, len(names)))

	unix := s.now().Unix()
	zones, err := s.zones.ResolveAll(names, unix)
	if err != nil {
		var uz *timezone.UnknownZoneError
		if errors.As(err, &uz) {
			writeDetail(w, http.StatusBadRequest, uz.Error())
			return
		}
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).
			Str(log.FieldEvent, "times.resolve_failed").
			Msg("zone resolution failed")
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	resp := TimesResponse{Unix: unix, Zones: zones}
	if includeQuality {
		if tq, ok := s.health.QualityIfFresh(r.Context()); ok {
			resp.TimeQuality = &tq
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHealth answers 503 only when unhealthy; degraded still serves.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Health(r.Context())
	code := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
}
