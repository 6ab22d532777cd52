// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package quality

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Unit scaling is a float multiply, so compare offsets with a margin.
var approxOffset = cmpopts.EquateApprox(0, 1e-15)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func TestParse_Fixtures(t *testing.T) {
	tests := []struct {
		file string
		want TimeQuality
	}{
		{
			file: "tracking_pps.txt",
			want: TimeQuality{Stratum: 1, OffsetSeconds: -0.000000012, ReferenceID: "PPS", LeapStatus: LeapNormal},
		},
		{
			file: "tracking_unsynced.txt",
			want: TimeQuality{Stratum: 0, OffsetSeconds: 0, ReferenceID: "00000000", LeapStatus: LeapUnsynchronized},
		},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := Parse(readFixture(t, tt.file))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Records(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want TimeQuality
	}{
		{
			name: "comma separated",
			in:   "Stratum: 1, Offset: 0.000000012, Leap status: Normal",
			want: TimeQuality{Stratum: 1, OffsetSeconds: 1.2e-8, LeapStatus: LeapNormal},
		},
		{
			name: "fast is positive",
			in:   "Stratum: 2\nReference ID: C0A80001 (192.168.0.1)\nSystem time: 0.000123456 seconds fast of NTP time\nLeap status: Normal",
			want: TimeQuality{Stratum: 2, OffsetSeconds: 0.000123456, ReferenceID: "192.168.0.1", LeapStatus: LeapNormal},
		},
		{
			name: "slow flips an explicit positive sign",
			in:   "System time: +1.5 seconds slow of NTP time",
			want: TimeQuality{Stratum: StratumUnsynchronized, OffsetSeconds: -1.5, LeapStatus: LeapUnsynchronized},
		},
		{
			name: "scientific notation",
			in:   "Stratum: 3\nOffset: 1.2e-8",
			want: TimeQuality{Stratum: 3, OffsetSeconds: 1.2e-8, LeapStatus: LeapUnsynchronized},
		},
		{
			name: "millisecond unit",
			in:   "Offset: 12 ms slow",
			want: TimeQuality{Stratum: StratumUnsynchronized, OffsetSeconds: -0.012, LeapStatus: LeapUnsynchronized},
		},
		{
			name: "microsecond unit",
			in:   "Offset: 250 µs",
			want: TimeQuality{Stratum: StratumUnsynchronized, OffsetSeconds: 250e-6, LeapStatus: LeapUnsynchronized},
		},
		{
			name: "system time wins over offset",
			in:   "System time: 0.5 seconds fast\nOffset: 9",
			want: TimeQuality{Stratum: StratumUnsynchronized, OffsetSeconds: 0.5, LeapStatus: LeapUnsynchronized},
		},
		{
			name: "reference id without name",
			in:   "Reference ID    : 7F7F0101",
			want: TimeQuality{Stratum: StratumUnsynchronized, ReferenceID: "7F7F0101", LeapStatus: LeapUnsynchronized},
		},
		{
			name: "empty reference id",
			in:   "Reference ID:\nStratum: 4",
			want: TimeQuality{Stratum: 4, LeapStatus: LeapUnsynchronized},
		},
		{
			name: "surrounding whitespace and odd key spacing",
			in:   "\n\n   leap   STATUS   :   Insert second   \n\t Stratum :  2  \n",
			want: TimeQuality{Stratum: 2, LeapStatus: LeapInsertSecond},
		},
		{
			name: "delete second",
			in:   "Leap status: Delete second",
			want: TimeQuality{Stratum: StratumUnsynchronized, LeapStatus: LeapDeleteSecond},
		},
		{
			name: "unknown leap text",
			in:   "Leap status: Sideways",
			want: TimeQuality{Stratum: StratumUnsynchronized, LeapStatus: LeapUnsynchronized},
		},
		{
			name: "unknown fields ignored",
			in:   "Frequency: 1.234 ppm fast\nStratum: 255\nSkew: banana",
			want: TimeQuality{Stratum: 255, LeapStatus: LeapUnsynchronized},
		},
		{
			name: "stratum in fixed notation",
			in:   "Stratum: 2.0",
			want: TimeQuality{Stratum: 2, LeapStatus: LeapUnsynchronized},
		},
		{
			name: "stratum in scientific notation",
			in:   "Stratum: 1e0, Leap status: Normal",
			want: TimeQuality{Stratum: 1, LeapStatus: LeapNormal},
		},
		{
			name: "negative zero normalised",
			in:   "Offset: 0.0 seconds slow",
			want: TimeQuality{Stratum: StratumUnsynchronized, LeapStatus: LeapUnsynchronized},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, approxOffset); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantField string
		wantErr   error
	}{
		{name: "empty", in: "", wantErr: ErrNoFields},
		{name: "garbage", in: "506 Cannot talk to daemon", wantErr: ErrNoFields},
		{name: "only unknown fields", in: "Skew: 0.1 ppm\nRoot delay: 1 seconds", wantErr: ErrNoFields},
		{name: "stratum not integer", in: "Stratum: one", wantField: "Stratum", wantErr: ErrInvalidValue},
		{name: "stratum out of range", in: "Stratum: 300", wantField: "Stratum", wantErr: ErrInvalidValue},
		{name: "stratum negative", in: "Stratum: -1", wantField: "Stratum", wantErr: ErrInvalidValue},
		{name: "stratum fractional", in: "Stratum: 1.5", wantField: "Stratum", wantErr: ErrInvalidValue},
		{name: "stratum scientific out of range", in: "Stratum: 3e2", wantField: "Stratum", wantErr: ErrInvalidValue},
		{name: "stratum NaN", in: "Stratum: NaN", wantField: "Stratum", wantErr: ErrInvalidValue},
		{name: "offset not numeric", in: "System time: fast", wantField: "System time", wantErr: ErrInvalidValue},
		{name: "offset empty", in: "Offset:", wantField: "Offset", wantErr: ErrInvalidValue},
		{name: "offset NaN", in: "Offset: NaN", wantField: "Offset", wantErr: ErrInvalidValue},
		{name: "offset Inf", in: "Offset: +Inf seconds", wantField: "Offset", wantErr: ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantField, pe.Field)
			if tt.wantField != "" {
				assert.NotEmpty(t, pe.Line)
			}
		})
	}
}

func TestTimeQuality_JSON(t *testing.T) {
	q, err := Parse("Stratum: 1, Offset: 0.000000012, Leap status: Normal, Reference ID: 50505300 (PPS)")
	require.NoError(t, err)

	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"stratum":1,"offset_seconds":1.2e-8,"reference_id":"PPS","leap_status":"Normal"}`, string(b))

	var back TimeQuality
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, q, back)
}

func TestTimeQuality_Synchronized(t *testing.T) {
	for s := 0; s <= 255; s++ {
		q := TimeQuality{Stratum: uint8(s)}
		assert.Equal(t, s >= 1 && s <= 15, q.Synchronized(), "stratum %d", s)
	}
}
