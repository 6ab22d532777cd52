// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_Reload(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path)
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	var seen atomic.Int32
	h.OnReload(func(Config) { seen.Add(1) })

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))
	require.NoError(t, h.Reload())
	assert.Equal(t, "warn", h.Get().Log.Level)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	assert.Equal(t, int32(1), seen.Load())

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -1\n"), 0o600))
	require.Error(t, h.Reload())
	assert.Equal(t, "warn", h.Get().Log.Level, "invalid file keeps previous config")
	assert.Equal(t, int32(1), seen.Load())
}

func TestHolder_WatchReloadsOnWrite(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path)
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	h.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()

	require.Eventually(t, func() bool {
		// rewrite until the watcher has registered and picked it up
		_ = os.WriteFile(path, []byte("log:\n  level: error\n"), 0o600)
		return h.Get().Log.Level == "error"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestHolder_WatchWithoutFile(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader(""))
	assert.NoError(t, h.Watch(context.Background()))
}

func TestRestartRequired(t *testing.T) {
	a := Defaults()
	b := Defaults()
	b.Log.Level = "debug"
	assert.False(t, restartRequired(a, b))

	b.Server.Port = 9000
	assert.True(t, restartRequired(a, b))
}
