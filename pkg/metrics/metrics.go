// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package metrics provides Prometheus metrics for the agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeviceUtilization tracks per-device GPU utilization as a fraction
	// in [0, 1], sampled by pkg/hal.Monitor.
	DeviceUtilization = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orban_agent_device_utilization",
			Help: "GPU utilization fraction per device",
		},
		[]string{"device_uuid", "model"},
	)

	// DeviceTemperature tracks per-device temperature in Celsius.
	DeviceTemperature = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orban_agent_device_temperature_celsius",
			Help: "GPU temperature in Celsius per device",
		},
		[]string{"device_uuid", "model"},
	)

	// DeviceFreeVRAM tracks per-device free VRAM in GB.
	DeviceFreeVRAM = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orban_agent_device_free_vram_gb",
			Help: "Free VRAM in GB per device",
		},
		[]string{"device_uuid", "model"},
	)

	// TasksTotal counts completed tasks by outcome ("complete", "failed",
	// "rejected").
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orban_agent_tasks_total",
			Help: "Total tasks processed by outcome",
		},
		[]string{"outcome"},
	)

	// TaskDuration tracks task wall-clock execution time in seconds.
	TaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orban_agent_task_duration_seconds",
			Help:    "Task execution wall-clock duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HeartbeatsSent counts HEARTBEAT messages sent to the platform.
	HeartbeatsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orban_agent_heartbeats_sent_total",
			Help: "Total HEARTBEAT messages sent",
		},
	)

	// ConnectionState tracks the transport connection state machine
	// (0=disconnected, 1=connecting, 2=connected), set from
	// pkg/transport.Reconnect's OnStateChange callback.
	ConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orban_agent_connection_state",
			Help: "Transport connection state (0=disconnected, 1=connecting, 2=connected)",
		},
	)

	// ReconnectAttempts counts reconnect attempts made by pkg/transport.Reconnect.
	ReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orban_agent_reconnect_attempts_total",
			Help: "Total reconnect attempts made",
		},
	)

	// PowChallengesSolved counts completed proof-of-GPU-work challenges.
	PowChallengesSolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orban_agent_pow_challenges_solved_total",
			Help: "Total proof-of-GPU-work challenges solved",
		},
	)
)

// RecordDeviceSample updates the device gauges for one sampled snapshot.
func RecordDeviceSample(deviceUUID, model string, utilizationFraction, temperatureCelsius, freeVRAMGB float64) {
	DeviceUtilization.WithLabelValues(deviceUUID, model).Set(utilizationFraction)
	DeviceTemperature.WithLabelValues(deviceUUID, model).Set(temperatureCelsius)
	DeviceFreeVRAM.WithLabelValues(deviceUUID, model).Set(freeVRAMGB)
}

// RecordTaskOutcome records a task's outcome and, for completions, its
// wall-clock duration.
func RecordTaskOutcome(outcome string, wallSeconds float64) {
	TasksTotal.WithLabelValues(outcome).Inc()
	if outcome == "complete" {
		TaskDuration.Observe(wallSeconds)
	}
}

// ConnectionStateValue maps Reconnect's state names to the gauge value
// ConnectionState expects.
func ConnectionStateValue(state string) float64 {
	switch state {
	case "connected":
		return 2
	case "connecting":
		return 1
	default:
		return 0
	}
}
