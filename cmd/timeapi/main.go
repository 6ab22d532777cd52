// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command timeapi serves the current time in any IANA zone, reports clock
// health from chrony and publishes a heartbeat over MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/timeapi/internal/config"
	"github.com/ManuGH/timeapi/internal/daemon"
	"github.com/ManuGH/timeapi/internal/health"
	"github.com/ManuGH/timeapi/internal/log"
	"github.com/ManuGH/timeapi/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	os.Exit(run(strings.TrimSpace(*configPath)))
}

func run(configPath string) int {
	// safe defaults until the configuration is loaded
	log.Configure(log.Config{Level: "info", Service: "timeapi", Version: version.Version})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().Err(err).
			Str(log.FieldEvent, "config.load_failed").
			Str("config_path", configPath).
			Msg("failed to load configuration")
		return 1
	}

	log.Configure(log.Config{Level: cfg.Log.Level, Service: cfg.Log.Service, Version: version.Version})
	logger = log.WithComponent("main")
	logger.Info().
		Str(log.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Msg("starting timeapi")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "startup.checks_failed").Msg("pre-flight checks failed")
		return 1
	}

	app, err := daemon.Bootstrap(ctx, cfg, loader)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "startup.bootstrap_failed").Msg("failed to build application")
		return 1
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Str(log.FieldEvent, "daemon.exit_error").Msg("daemon stopped with error")
		return 1
	}
	logger.Info().Str(log.FieldEvent, "daemon.exit").Msg("shutdown complete")
	return 0
}
