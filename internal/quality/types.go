// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package quality turns the human-oriented status output of the local time
// sync daemon (chronyc tracking) into a small, stable TimeQuality record and
// caches it so repeated queries do not spawn a process each time.
//
// The status text is not a versioned contract. Everything that knows about
// its layout lives in parser.go; callers only ever see TimeQuality.
package quality

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StratumUnsynchronized is the sentinel stratum meaning "not synchronized".
const StratumUnsynchronized uint8 = 16

// LeapStatus is the leap second indicator reported by the sync daemon.
type LeapStatus uint8

const (
	LeapUnsynchronized LeapStatus = iota
	LeapNormal
	LeapInsertSecond
	LeapDeleteSecond
)

var leapNames = map[LeapStatus]string{
	LeapUnsynchronized: "Unsynchronized",
	LeapNormal:         "Normal",
	LeapInsertSecond:   "InsertSecond",
	LeapDeleteSecond:   "DeleteSecond",
}

func (l LeapStatus) String() string {
	if name, ok := leapNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LeapStatus(%d)", uint8(l))
}

// MarshalJSON encodes the leap status as its name.
func (l LeapStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON; anything else
// decodes to LeapUnsynchronized.
func (l *LeapStatus) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*l = LeapUnsynchronized
	for status, name := range leapNames {
		if strings.EqualFold(name, s) {
			*l = status
			break
		}
	}
	return nil
}

// TimeQuality is one parsed reading of the sync daemon's tracking state.
// It is a plain value; copies are independent.
type TimeQuality struct {
	Stratum       uint8      `json:"stratum"`
	OffsetSeconds float64    `json:"offset_seconds"`
	ReferenceID   string     `json:"reference_id"`
	LeapStatus    LeapStatus `json:"leap_status"`
}

// Synchronized reports whether the stratum denotes a usable upstream.
// Stratum 0 is not a valid value for a client and counts as unsynchronized.
func (q TimeQuality) Synchronized() bool {
	return q.Stratum >= 1 && q.Stratum < StratumUnsynchronized
}
