// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/timeapi/internal/config"
	"github.com/ManuGH/timeapi/internal/log"
)

type fakeManager struct {
	startErr error
	started  atomic.Bool
}

func (f *fakeManager) Start(ctx context.Context) error {
	f.started.Store(true)
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeManager) Shutdown(context.Context) error { return nil }
func (f *fakeManager) RegisterShutdownHook(string, ShutdownHook) {}

type blockingRunner struct {
	ran     atomic.Bool
	stopped atomic.Bool
}

func (r *blockingRunner) Run(ctx context.Context) error {
	r.ran.Store(true)
	<-ctx.Done()
	r.stopped.Store(true)
	return nil
}

func TestApp_MissingManager(t *testing.T) {
	assert.ErrorIs(t, NewApp(log.WithComponent("test"), nil, nil).Run(context.Background()), ErrMissingManager)
}

func TestApp_RunsUntilCancelled(t *testing.T) {
	mgr := &fakeManager{}
	runner := &blockingRunner{}
	app := NewApp(log.WithComponent("test"), mgr, nil, runner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return mgr.started.Load() && runner.ran.Load() }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.True(t, runner.stopped.Load())
}

func TestApp_ManagerFailureStopsRunners(t *testing.T) {
	boom := errors.New("listen failed")
	runner := &blockingRunner{}
	app := NewApp(log.WithComponent("test"), &fakeManager{startErr: boom}, nil, runner)

	err := app.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, runner.stopped.Load())
}

func TestApp_WatchesConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "timeapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))
	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	require.NoError(t, err)

	holder := config.NewHolder(cfg, loader)
	app := NewApp(log.WithComponent("test"), &fakeManager{}, holder)
	app.reloadSignal = nil

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.NoError(t, holder.Reload())
	cancel()
	require.NoError(t, <-done)
}

type fakeConnector struct {
	connectErr error
	closedAt   atomic.Int64
}

func (f *fakeConnector) Connect(context.Context) error { return f.connectErr }
func (f *fakeConnector) Close() { f.closedAt.Store(time.Now().UnixNano()) }

type recordingRunner struct {
	returnedAt atomic.Int64
}

func (r *recordingRunner) Run(ctx context.Context) error {
	<-ctx.Done()
	r.returnedAt.Store(time.Now().UnixNano())
	return nil
}

func TestBusLoop_ClosesAfterPublisherStops(t *testing.T) {
	client := &fakeConnector{connectErr: errors.New("broker down")}
	pub := &recordingRunner{}
	loop := &busLoop{client: client, publisher: pub}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)

	require.NotZero(t, client.closedAt.Load())
	assert.GreaterOrEqual(t, client.closedAt.Load(), pub.returnedAt.Load())
}
