// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/timeapi/internal/log"
)

// isSensitive reports whether a key's value must never reach the logs.
func isSensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "token") || strings.Contains(k, "secret")
}

// lookup reads key and converts it with parse. Unset or empty variables
// keep def. Values that fail to parse are logged and also keep def.
func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().
			Str("key", key).
			Str("source", "default").
			Msg("using default value")
		return def
	}
	out, err := parse(v)
	if err != nil {
		ev := logger.Warn().Err(err).Str("key", key)
		if !isSensitive(key) {
			ev = ev.Str("value", v)
		}
		ev.Msg("invalid value in environment variable, using default")
		return def
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitive(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", v)
	}
	ev.Msg("using environment variable")
	return out
}

// ParseString reads a string from the environment or returns def.
func ParseString(key, def string) string {
	return lookup(key, def, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer from the environment or returns def.
func ParseInt(key string, def int) int {
	return lookup(key, def, strconv.Atoi)
}

// ParseInt64 reads a 64-bit integer from the environment or returns def.
func ParseInt64(key string, def int64) int64 {
	return lookup(key, def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

// ParseFloat reads a float from the environment or returns def.
func ParseFloat(key string, def float64) float64 {
	return lookup(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// ParseDuration reads a Go duration ("5s", "250ms") or returns def.
func ParseDuration(key string, def time.Duration) time.Duration {
	return lookup(key, def, time.ParseDuration)
}

// ParseBool accepts true/false, 1/0 and yes/no, case-insensitive.
func ParseBool(key string, def bool) bool {
	return lookup(key, def, parseBool)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

// ParseList reads a comma or whitespace separated list. Blank entries are
// dropped; a list that ends up empty keeps def.
func ParseList(key string, def []string) []string {
	return lookup(key, def, func(s string) ([]string, error) {
		fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
		if len(fields) == 0 {
			return nil, strconv.ErrSyntax
		}
		return fields, nil
	})
}

// envLogger is used for the summary line after all overrides are applied.
func envLogger() zerolog.Logger {
	return log.WithComponent("config")
}
