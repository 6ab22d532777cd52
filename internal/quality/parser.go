// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package quality

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Recognised field keys, normalised to lower case with single spaces.
const (
	keyStratum     = "stratum"
	keyReferenceID = "reference id"
	keySystemTime  = "system time"
	keyOffset      = "offset"
	keyLeapStatus  = "leap status"
)

// unitScale maps unit words to their factor in seconds.
var unitScale = map[string]float64{
	"s":            1,
	"sec":          1,
	"second":       1,
	"seconds":      1,
	"ms":           1e-3,
	"millisecond":  1e-3,
	"milliseconds": 1e-3,
	"us":           1e-6,
	"µs":           1e-6,
	"microsecond":  1e-6,
	"microseconds": 1e-6,
	"ns":           1e-9,
	"nanosecond":   1e-9,
	"nanoseconds":  1e-9,
}

// Parse converts tracking status text into a TimeQuality.
//
// Records are "key: value" pairs separated by newlines or commas. Unknown
// keys are ignored; missing fields take the unsynchronized defaults. An
// input with no recognised field at all is an error, as is a recognised
// field whose value cannot be interpreted.
func Parse(raw string) (TimeQuality, error) {
	q := TimeQuality{
		Stratum:    StratumUnsynchronized,
		LeapStatus: LeapUnsynchronized,
	}

	var recognised, haveSystemTime bool
	for _, line := range strings.Split(raw, "\n") {
		for _, record := range strings.Split(line, ",") {
			record = strings.TrimSpace(record)
			rawKey, value, ok := strings.Cut(record, ":")
			if !ok {
				continue
			}
			key := normaliseKey(rawKey)
			value = strings.TrimSpace(value)

			switch key {
			case keyStratum:
				n, err := parseStratum(value)
				if err != nil {
					return TimeQuality{}, fieldError(record, rawKey, "stratum %q is not an integer in 0-255", value)
				}
				q.Stratum = n
			case keyReferenceID:
				q.ReferenceID = parseReferenceID(value)
			case keySystemTime, keyOffset:
				// System time is the authoritative reading when both appear.
				if key == keyOffset && haveSystemTime {
					recognised = true
					continue
				}
				off, err := parseOffset(value)
				if err != nil {
					return TimeQuality{}, fieldError(record, rawKey, "%v", err)
				}
				q.OffsetSeconds = off
				haveSystemTime = key == keySystemTime
			case keyLeapStatus:
				q.LeapStatus = parseLeapStatus(value)
			default:
				continue
			}
			recognised = true
		}
	}

	if !recognised {
		return TimeQuality{}, &ParseError{Reason: ErrNoFields}
	}
	return q, nil
}

func normaliseKey(k string) string {
	return strings.ToLower(strings.Join(strings.Fields(k), " "))
}

func fieldError(record, field, format string, args ...any) *ParseError {
	return &ParseError{
		Line:   record,
		Field:  strings.TrimSpace(field),
		Reason: fmt.Errorf("%w: "+format, append([]any{ErrInvalidValue}, args...)...),
	}
}

// parseStratum accepts plain integers and integral values written in fixed
// or scientific notation ("2.0", "1e0").
func parseStratum(v string) (uint8, error) {
	if n, err := strconv.ParseUint(v, 10, 8); err == nil {
		return uint8(n), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 || f > math.MaxUint8 {
		return 0, strconv.ErrRange
	}
	return uint8(f), nil
}

// parseReferenceID prefers the parenthesised name ("50505300 (PPS)" -> "PPS")
// and falls back to the first token.
func parseReferenceID(v string) string {
	if open := strings.IndexByte(v, '('); open >= 0 {
		if end := strings.IndexByte(v[open+1:], ')'); end >= 0 {
			if name := strings.TrimSpace(v[open+1 : open+1+end]); name != "" {
				return name
			}
		}
	}
	if fields := strings.Fields(v); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// parseOffset reads "<number> [unit] [slow|fast] ..." into seconds.
func parseOffset(v string) (float64, error) {
	tokens := strings.Fields(v)
	if len(tokens) == 0 {
		return 0, fmt.Errorf("empty offset")
	}

	n, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, fmt.Errorf("offset %q is not a number", tokens[0])
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("offset %q is not finite", tokens[0])
	}

	scale, scaled := 1.0, false
	for _, tok := range tokens[1:] {
		word := strings.ToLower(tok)
		if f, ok := unitScale[word]; ok && !scaled {
			scale, scaled = f, true
			continue
		}
		switch word {
		case "slow":
			n = -math.Abs(n)
		case "fast":
			n = math.Abs(n)
		}
	}

	n *= scale
	if n == 0 {
		n = 0 // drop negative zero
	}
	return n, nil
}

func parseLeapStatus(v string) LeapStatus {
	switch normaliseKey(v) {
	case "normal":
		return LeapNormal
	case "insert second", "insertsecond":
		return LeapInsertSecond
	case "delete second", "deletesecond":
		return LeapDeleteSecond
	default:
		return LeapUnsynchronized
	}
}
