// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// BrokerURL converts an mqtt:// or mqtts:// URL to the tcp:// or ssl:// form
// the client library dials, filling in the default port. It also reports
// whether TLS is required.
func BrokerURL(raw string) (string, bool, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidBroker, err)
	}

	var scheme, port string
	var secure bool
	switch strings.ToLower(u.Scheme) {
	case "mqtt":
		scheme, port = "tcp", "1883"
	case "mqtts":
		scheme, port, secure = "ssl", "8883", true
	default:
		return "", false, fmt.Errorf("%w: scheme %q (want mqtt:// or mqtts://)", ErrInvalidBroker, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return "", false, fmt.Errorf("%w: missing host in %q", ErrInvalidBroker, raw)
	}
	if p := u.Port(); p != "" {
		port = p
	}
	return scheme + "://" + net.JoinHostPort(host, port), secure, nil
}

// JoinTopic joins the base topic and a subtopic with exactly one slash.
func JoinTopic(base, sub string) string {
	base = strings.TrimRight(base, "/")
	sub = strings.TrimLeft(sub, "/")
	switch {
	case base == "":
		return sub
	case sub == "":
		return base
	}
	return base + "/" + sub
}

// ValidateBaseTopic rejects topics a publisher must not use.
func ValidateBaseTopic(topic string) error {
	if strings.Trim(topic, "/") == "" {
		return fmt.Errorf("bus: empty base topic")
	}
	if strings.ContainsAny(topic, "+#\x00") {
		return fmt.Errorf("bus: base topic %q contains wildcard or NUL", topic)
	}
	return nil
}
