// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package quality

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoFields is the reason attached to a ParseError when the input
	// contained no recognisable tracking field at all.
	ErrNoFields = errors.New("no tracking fields found")

	// ErrInvalidValue is the reason attached to a ParseError when a known
	// field carried a value that could not be interpreted.
	ErrInvalidValue = errors.New("invalid field value")
)

// ParseError reports status text that could not be turned into a TimeQuality.
type ParseError struct {
	Line   string // offending record, trimmed; empty for whole-input errors
	Field  string // field name as it appeared in the input
	Reason error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse tracking output")
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	if e.Reason != nil {
		fmt.Fprintf(&b, ": %v", e.Reason)
	}
	if e.Line != "" {
		fmt.Fprintf(&b, " (line %q)", e.Line)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Reason }

// InvocationError reports a status tool that could not be run or exited
// unsuccessfully.
type InvocationError struct {
	Command  string
	ExitCode int    // -1 when the process never ran or was killed
	Stderr   string // trimmed, bounded
	Err      error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("invoke %s", e.Command)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(": exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf(": %s", e.Stderr)
	}
	return msg
}

func (e *InvocationError) Unwrap() error { return e.Err }
