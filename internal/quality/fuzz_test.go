// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package quality

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func FuzzParse(f *testing.F) {
	for _, name := range []string{"tracking_pps.txt", "tracking_unsynced.txt"} {
		if b, err := os.ReadFile(filepath.Join("testdata", name)); err == nil {
			f.Add(string(b))
		}
	}
	f.Add("Stratum: 1, Offset: 0.000000012, Leap status: Normal")
	f.Add("System time: 1e308 seconds slow")
	f.Add("Reference ID: ((()")
	f.Add(":::,,,\n\n:")
	f.Add("Offset: 0x1p-10 ns")

	f.Fuzz(func(t *testing.T, raw string) {
		q, err := Parse(raw)
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse returned %T, want *ParseError", err)
			}
			return
		}
		if math.IsNaN(q.OffsetSeconds) || math.IsInf(q.OffsetSeconds, 0) {
			t.Fatalf("non-finite offset %v from %q", q.OffsetSeconds, raw)
		}
		if q.LeapStatus > LeapDeleteSecond {
			t.Fatalf("leap status out of range: %d", q.LeapStatus)
		}
	})
}
