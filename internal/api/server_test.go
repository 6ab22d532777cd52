// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/timeapi/internal/health"
	"github.com/ManuGH/timeapi/internal/quality"
	"github.com/ManuGH/timeapi/internal/timezone"
)

// 2009-02-13T23:31:30Z
const fixedUnix = 1234567890

type fakeHealth struct {
	status  health.Status
	quality *quality.TimeQuality
}

func (f *fakeHealth) Health(context.Context) health.Report {
	return health.Report{
		Status: f.status,
		Checks: map[string]health.CheckResult{
			health.CheckSystemClock: {Status: health.CheckOK},
			health.CheckChrony:      {Status: health.CheckOK},
		},
		Quality: f.quality,
	}
}

func (f *fakeHealth) QualityIfFresh(context.Context) (quality.TimeQuality, bool) {
	if f.quality == nil {
		return quality.TimeQuality{}, false
	}
	return *f.quality, true
}

func pps() *quality.TimeQuality {
	return &quality.TimeQuality{Stratum: 1, OffsetSeconds: 1.2e-8, ReferenceID: "PPS", LeapStatus: quality.LeapNormal}
}

func newTestServer(t *testing.T, h *fakeHealth) http.Handler {
	t.Helper()
	zones := timezone.NewResolver()
	t.Cleanup(zones.Close)

	s, err := New(Config{AllowedOrigins: []string{"*"}, MaxBodyBytes: 10240, RequestTimeout: 5 * time.Second}, Deps{
		Health: h,
		Zones:  zones,
		Now:    func() time.Time { return time.Unix(fixedUnix, 0) },
	})
	require.NoError(t, err)
	return s.Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestNew_MissingDeps(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.ErrorIs(t, err, ErrMissingHealth)
	assert.ErrorIs(t, err, ErrMissingZones)
}

func TestDocs(t *testing.T) {
	w := get(t, newTestServer(t, &fakeHealth{status: health.StatusHealthy}), "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "/times")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestTimes_DefaultsToUTC(t *testing.T) {
	w := get(t, newTestServer(t, &fakeHealth{status: health.StatusHealthy}), "/times")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	resp := decode[TimesResponse](t, w)
	assert.Equal(t, int64(fixedUnix), resp.Unix)
	assert.Equal(t, map[string]timezone.ZoneTime{
		"UTC": {Local: "2009-02-13T23:31:30", Offset: 0},
	}, resp.Zones)
	assert.Nil(t, resp.TimeQuality)
	assert.NotContains(t, w.Body.String(), "time_quality")
}

func TestTimes_MultipleZones(t *testing.T) {
	w := get(t, newTestServer(t, &fakeHealth{status: health.StatusHealthy}), "/times?tz=UTC,%20America/Denver%20,,Asia/Kolkata")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[TimesResponse](t, w)
	require.Len(t, resp.Zones, 3)
	assert.Equal(t, timezone.ZoneTime{Local: "2009-02-13T16:31:30", Offset: -25200}, resp.Zones["America/Denver"])
	assert.Equal(t, timezone.ZoneTime{Local: "2009-02-14T05:01:30", Offset: 19800}, resp.Zones["Asia/Kolkata"])
}

func TestTimes_RepeatedParameter(t *testing.T) {
	w := get(t, newTestServer(t, &fakeHealth{status: health.StatusHealthy}), "/times?tz=UTC&tz=Europe/London")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[TimesResponse](t, w).Zones, 2)
}

func TestTimes_UnknownZone(t *testing.T) {
	w := get(t, newTestServer(t, &fakeHealth{status: health.StatusHealthy}), "/times?tz=UTC,Mars/Olympus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"Unrecognized time zone 'Mars/Olympus'"}`, w.Body.String())
}

type failingZones struct{}

func (failingZones) ResolveAll([]string, int64) (map[string]timezone.ZoneTime, error) {
	return nil, errors.New("tzdata unavailable")
}

func TestTimes_ResolverFailure(t *testing.T) {
	s, err := New(Config{}, Deps{Health: &fakeHealth{status: health.StatusHealthy}, Zones: failingZones{}})
	require.NoError(t, err)

	w := get(t, s.Handler(), "/times?tz=UTC")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, w.Body.String())
}

func TestTimes_TooManyZones(t *testing.T) {
	names := make([]string, timezone.MaxZones+1)
	for i := range names {
		names[i] = "UTC"
	}
	w := get(t, newTestServer(t, &fakeHealth{status: health.StatusHealthy}), "/times?tz="+strings.Join(names, ","))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Detail, "too many")
}

func TestTimes_IncludeQuality(t *testing.T) {
	srv := newTestServer(t, &fakeHealth{status: health.StatusHealthy, quality: pps()})

	resp := decode[TimesResponse](t, get(t, srv, "/times?include_quality=true"))
	require.NotNil(t, resp.TimeQuality)
	assert.Equal(t, "PPS", resp.TimeQuality.ReferenceID)

	resp = decode[TimesResponse](t, get(t, srv, "/times?include_quality=false"))
	assert.Nil(t, resp.TimeQuality)

	w := get(t, srv, "/times?include_quality=perhaps")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimes_IncludeQualityUnavailable(t *testing.T) {
	w := get(t, newTestServer(t, &fakeHealth{status: health.StatusDegraded}), "/times?include_quality=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[TimesResponse](t, w).TimeQuality)
}

func TestHealth_StatusCodes(t *testing.T) {
	tests := []struct {
		status health.Status
		code   int
	}{
		{health.StatusHealthy, http.StatusOK},
		{health.StatusDegraded, http.StatusOK},
		{health.StatusUnhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			w := get(t, newTestServer(t, &fakeHealth{status: tt.status, quality: pps()}), "/health")
			assert.Equal(t, tt.code, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(tt.status), body["status"])
			assert.Contains(t, body, "checks")
			assert.Contains(t, body, "time_quality")
		})
	}
}

func TestReady(t *testing.T) {
	w := get(t, newTestServer(t, &fakeHealth{status: health.StatusUnhealthy}), "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv := newTestServer(t, &fakeHealth{status: health.StatusHealthy})

	w := get(t, srv, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, w.Body.String())

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/times", strings.NewReader("{}")))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t, &fakeHealth{status: health.StatusHealthy})
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	req.Header.Set("X-Request-ID", "probe-1")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, "probe-1", w.Header().Get("X-Request-ID"))
}
