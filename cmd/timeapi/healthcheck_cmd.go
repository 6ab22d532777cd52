// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/ManuGH/timeapi/internal/config"
)

func runHealthcheckCLI(args []string) int {
	return runHealthcheck(args, os.Stdout, os.Stderr)
}

// runHealthcheck probes the local server for container HEALTHCHECK use.
// Mode "ready" checks liveness; mode "health" also fails when unhealthy.
func runHealthcheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("timeapi healthcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	mode := fs.String("mode", "ready", "ready or health")
	host := fs.String("host", "127.0.0.1", "API host to check")
	port := fs.Int("port", config.ParseInt("PORT", config.Defaults().Server.Port), "API port to check")
	useTLS := fs.Bool("tls", config.ParseString("TLS_CERT_PATH", "") != "", "use HTTPS without certificate verification")
	timeout := fs.Duration("timeout", 3*time.Second, "check timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var path string
	switch *mode {
	case "ready":
		path = "/ready"
	case "health":
		path = "/health"
	default:
		fmt.Fprintf(stderr, "Unknown mode %q (use ready or health)\n", *mode)
		return 2
	}

	scheme := "http"
	transport := &http.Transport{DisableKeepAlives: true}
	if *useTLS {
		scheme = "https"
		// #nosec G402 -- probing our own listener on loopback
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}
	}
	client := http.Client{Timeout: *timeout, Transport: transport}

	url := scheme + "://" + net.JoinHostPort(*host, strconv.Itoa(*port)) + path
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(stderr, "Healthcheck failed (network): %v\n", err)
		return 1
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "Healthcheck failed (status): %s\n", resp.Status)
		return 1
	}
	fmt.Fprintf(stdout, "Healthcheck successful (%s)\n", *mode)
	return 0
}
