// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus is the publish-only message bus client used for heartbeat and
// health events.
package bus

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when no broker connection is open. The
	// client keeps reconnecting in the background.
	ErrNotConnected = errors.New("bus: not connected")

	// ErrInvalidBroker reports an unusable broker URL.
	ErrInvalidBroker = errors.New("bus: invalid broker url")
)

// Publisher publishes payloads below a base topic.
type Publisher interface {
	// Publish sends payload to <base>/<subtopic>. It returns once the broker
	// acknowledged the message or ctx is done.
	Publish(ctx context.Context, subtopic string, payload []byte, retain bool) error
	Close()
}

// PublishError wraps a failed publish with its topic.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
