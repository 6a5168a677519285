// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the orban-agent worker process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/orbanplatform/orban-agent/internal/config"
	"github.com/orbanplatform/orban-agent/internal/info"
	"github.com/orbanplatform/orban-agent/internal/logging"
	"github.com/orbanplatform/orban-agent/pkg/auth"
	"github.com/orbanplatform/orban-agent/pkg/earnings"
	"github.com/orbanplatform/orban-agent/pkg/executor"
	"github.com/orbanplatform/orban-agent/pkg/hal"
	"github.com/orbanplatform/orban-agent/pkg/hal/nvidia"
	"github.com/orbanplatform/orban-agent/pkg/orchestrator"
	"github.com/orbanplatform/orban-agent/pkg/transport"
)

func main() {
	var (
		dataDir     = flag.String("data-dir", defaultDataDir(), "Agent state directory (config.toml, agent.key, earnings.json, logs/)")
		platformURL = flag.String("platform-url", "", "Platform WebSocket URL, e.g. wss://platform.orban.io (overrides config.toml default)")
		logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		showVer     = flag.Bool("version", false, "Show version information and exit")

		gpuMode = flag.String("gpu-mode", "mock", "NVIDIA backend: mock or real (requires GPU hardware and go-nvml)")

		capabilities = flag.String("capabilities", "inference,training", "Comma-separated task capabilities advertised at register")
		location     = flag.String("location", "", "Free-form location string advertised at register")

		containerImage = flag.String("container-image", "orban-agent/task-runner:latest", "Container image used by the container sandbox")
		metricsAddr    = flag.String("metrics-addr", ":9090", "Prometheus /metrics listen address (empty disables)")
	)
	flag.Parse()

	if *showVer {
		buildInfo := info.GetInfo()
		fmt.Fprintf(os.Stderr, "orban-agent version %s (commit %s)\n", buildInfo.Version, buildInfo.GitCommit)
		os.Exit(0)
	}

	effectiveLogLevel := logging.ResolveLevel(*logLevel, config.ValidLogLevels)
	if !config.IsValidLogLevel(effectiveLogLevel) {
		fmt.Fprintf(os.Stderr, "invalid log level %q, valid=%v\n", effectiveLogLevel, config.ValidLogLevels)
		os.Exit(1)
	}
	log := logging.New(effectiveLogLevel)

	cfg := config.DefaultConfig(*dataDir)
	if *platformURL != "" {
		cfg.PlatformURL = *platformURL
	}
	cfg.LogLevel = effectiveLogLevel

	log.WithFields(logrus.Fields{
		"version":      info.Version(),
		"commit":       info.GitCommit(),
		"data_dir":     cfg.DataDir,
		"platform_url": cfg.PlatformURL,
	}).Info("starting orban-agent")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create data directory")
	}
	logsDir := filepath.Join(cfg.DataDir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create logs directory")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kp, err := auth.LoadOrGenerate(cfg.PrivateKeyPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load or generate agent identity")
	}
	log.WithField("agent_id", kp.AgentID()).Info("agent identity loaded")

	var nvmlClient nvidia.Interface
	if *gpuMode == "real" {
		nvmlClient = nvidia.NewReal()
	} else {
		nvmlClient = nvidia.NewMock(2)
	}
	if err := nvmlClient.Init(ctx); err != nil {
		log.WithError(err).Fatal("failed to initialize NVIDIA backend")
	}
	defer func() {
		if err := nvmlClient.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("failed to shut down NVIDIA backend")
		}
	}()

	detector := hal.NewDetector(log,
		hal.NewNVIDIABackend(nvmlClient),
		hal.NewAMDBackend(),
		hal.NewAppleBackend(),
		hal.NewIntelBackend(),
	)
	if err := detector.Detect(ctx); err != nil {
		log.WithError(err).Fatal("GPU detection failed, no usable device")
	}
	monitor := hal.NewMonitor(detector, log, 0, 30*time.Second)

	downloader := executor.NewDownloader(filepath.Join(cfg.DataDir, "cache"), log)
	sandbox := executor.NewSandbox(ctx, *containerImage, log)
	exec := executor.New(detector, downloader, sandbox, log)

	tracker, err := earnings.NewTracker(filepath.Join(cfg.DataDir, "earnings.json"))
	if err != nil {
		log.WithError(err).Fatal("failed to open earnings store")
	}

	client := transport.NewClient(cfg.PlatformURL, kp, log)

	orch := orchestrator.New(client, detector, monitor, exec, tracker, kp, log, orchestrator.Config{
		Capabilities:      splitCSV(*capabilities),
		Location:          *location,
		AvailabilityHours: cfg.Availability.HoursPerDay,
		HeartbeatInterval: cfg.Network.HeartbeatInterval,
	})

	if *metricsAddr != "" {
		startMetricsServer(ctx, log, *metricsAddr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runErr := make(chan error, 1)
	go func() { runErr <- orch.Run(ctx) }()

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("received shutdown signal")
		cancel()
		<-runErr
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("orchestrator exited with error")
			os.Exit(1)
		}
	}

	log.Info("shutdown complete")
}

// startMetricsServer serves Prometheus metrics on addr in the
// background until ctx is cancelled.
func startMetricsServer(ctx context.Context, log *logrus.Entry, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("metrics server stopped unexpectedly")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("metrics server listening")
}

// splitCSV splits a comma-separated flag value, dropping empty fields.
func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".orban-agent")
	}
	return "./orban-agent-data"
}
