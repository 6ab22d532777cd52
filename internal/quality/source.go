// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package quality

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/timeapi/internal/procgroup"
	"github.com/ManuGH/timeapi/internal/telemetry"
)

const (
	DefaultCommand = "chronyc"
	DefaultTimeout = 2 * time.Second

	defaultGrace     = 200 * time.Millisecond
	defaultMaxOutput = 64 << 10
	maxStderr        = 1 << 10
)

// DefaultArgs are the arguments passed to DefaultCommand.
var DefaultArgs = []string{"tracking"}

// Source yields raw tracking status text.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Fetch(ctx context.Context) (string, error) { return f(ctx) }

// CommandSource runs an external status command in its own process group.
// On timeout or cancellation the whole group is terminated, so helpers the
// command spawned cannot outlive it.
type CommandSource struct {
	Path      string
	Args      []string
	Timeout   time.Duration // per invocation; <= 0 disables
	Grace     time.Duration // SIGTERM to SIGKILL delay
	MaxOutput int           // stdout bytes kept; the rest is discarded
}

// NewCommandSource returns a CommandSource with defaults applied for empty
// values.
func NewCommandSource(path string, args []string, timeout time.Duration) *CommandSource {
	if path == "" {
		path = DefaultCommand
	}
	if args == nil {
		args = DefaultArgs
	}
	return &CommandSource{
		Path:      path,
		Args:      append([]string(nil), args...),
		Timeout:   timeout,
		Grace:     defaultGrace,
		MaxOutput: defaultMaxOutput,
	}
}

// Fetch runs the command and returns its stdout.
func (s *CommandSource) Fetch(ctx context.Context) (string, error) {
	ctx, span := telemetry.Tracer("timeapi/quality").Start(ctx, "quality.command",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	out, code, err := s.run(ctx)
	span.SetAttributes(telemetry.CommandAttributes(s.Path, code)...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "command failed")
		return "", err
	}
	return out, nil
}

func (s *CommandSource) run(ctx context.Context) (string, int, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	stdout := &cappedBuffer{max: s.MaxOutput}
	stderr := &cappedBuffer{max: maxStderr}

	cmd := exec.Command(s.Path, s.Args...) // #nosec G204 -- operator-configured command
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Bounds Wait when a stray grandchild keeps the pipes open.
	cmd.WaitDelay = s.grace()
	procgroup.Set(cmd)

	if err := cmd.Start(); err != nil {
		return "", -1, &InvocationError{Command: s.Path, ExitCode: -1, Err: err}
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case err := <-waitCh:
		if err != nil {
			code := -1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			}
			return "", code, &InvocationError{
				Command:  s.Path,
				ExitCode: code,
				Stderr:   strings.TrimSpace(stderr.String()),
				Err:      err,
			}
		}
		return stdout.String(), 0, nil
	case <-ctx.Done():
		_ = procgroup.Terminate(cmd, waitCh, s.grace())
		return "", -1, &InvocationError{Command: s.Path, ExitCode: -1, Err: ctx.Err()}
	}
}

func (s *CommandSource) grace() time.Duration {
	if s.Grace > 0 {
		return s.Grace
	}
	return defaultGrace
}

// cappedBuffer keeps at most max bytes (defaultMaxOutput when unset) and
// drops the rest. Writes never fail.
type cappedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	limit := b.max
	if limit <= 0 {
		limit = defaultMaxOutput
	}
	if room := limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string { return b.buf.String() }
