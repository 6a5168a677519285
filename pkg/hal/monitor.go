// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package hal

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orbanplatform/orban-agent/pkg/metrics"
)

// overheatingThresholdC is the any-overheating predicate threshold.
const overheatingThresholdC = 80.0

// idleUtilizationThreshold is the all-idle predicate threshold.
const idleUtilizationThreshold = 0.10

// Sample is one timestamped telemetry snapshot across every device.
type Sample struct {
	Timestamp time.Time
	Devices   []DeviceSnapshot
}

// Monitor maintains a bounded ring buffer of timestamped device
// snapshots, pushed by a background sampler at a configurable interval.
// It references devices already owned by the Detector; it never holds
// a back-pointer from a device to the detector.
type Monitor struct {
	detector *Detector
	diag     *Diagnostics
	log      *logrus.Entry

	interval time.Duration
	capacity int

	mu      sync.RWMutex
	samples []Sample // ring buffer, oldest first
}

// NewMonitor creates a Monitor over detector with the given ring-buffer
// capacity and sampling interval. A zero capacity defaults to 1000; a
// zero interval defaults to 30s. Xid classification is enabled
// automatically; it is a no-op on platforms without /dev/kmsg or dmesg.
func NewMonitor(detector *Detector, log *logrus.Entry, capacity int, interval time.Duration) *Monitor {
	if capacity <= 0 {
		capacity = 1000
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		detector: detector,
		diag:     NewDiagnostics(log),
		log:      log,
		interval: interval,
		capacity: capacity,
	}
}

// Run samples the detector's device set every interval until ctx is
// cancelled. Intended to run as a background goroutine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.diag.Poll(ctx, m.detector.Devices())
			m.sample(ctx)
		}
	}
}

func (m *Monitor) sample(ctx context.Context) {
	snap := Sample{
		Timestamp: time.Now(),
		Devices:   m.detector.GetAllStatus(ctx),
	}

	m.mu.Lock()
	m.samples = append(m.samples, snap)
	if len(m.samples) > m.capacity {
		m.samples = m.samples[len(m.samples)-m.capacity:]
	}
	m.mu.Unlock()

	for _, d := range snap.Devices {
		var util, temp, freeGB float64
		if d.UtilizationFrac != nil {
			util = *d.UtilizationFrac
		}
		if d.TemperatureC != nil {
			temp = *d.TemperatureC
		}
		if d.Memory != nil {
			freeGB = float64(d.Memory.FreeBytes) / (1 << 30)
		}
		metrics.RecordDeviceSample(d.UUID, d.Model, util, temp, freeGB)
	}
}

// Samples returns a copy of the current ring buffer, oldest first.
func (m *Monitor) Samples() []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Sample, len(m.samples))
	copy(out, m.samples)
	return out
}

// AverageUtilization returns the mean GPU utilization fraction over the
// last n samples (all samples if n <= 0 or n exceeds the buffer length).
// Devices with no utilization reading in a given sample are excluded
// from that sample's contribution.
func (m *Monitor) AverageUtilization(n int) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	samples := m.samples
	if n > 0 && n < len(samples) {
		samples = samples[len(samples)-n:]
	}

	var sum float64
	var count int
	for _, s := range samples {
		for _, d := range s.Devices {
			if d.UtilizationFrac != nil {
				sum += *d.UtilizationFrac
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// AnyOverheating reports whether the most recent sample has any device
// above overheatingThresholdC, OR whether a critical/fatal Xid fault has
// been classified at any point so far. Classified faults are never
// cleared, so once one is seen this stays true. The Xid signal is a hard-fault
// enrichment on top of the temperature threshold from spec.md §4.1: a
// GPU can be electrically healthy yet still have fallen off the bus.
func (m *Monitor) AnyOverheating() bool {
	if _, ok := m.diag.LastHardFault(); ok {
		return true
	}
	latest, ok := m.latest()
	if !ok {
		return false
	}
	for _, d := range latest.Devices {
		if d.TemperatureC != nil && *d.TemperatureC > overheatingThresholdC {
			return true
		}
	}
	return false
}

// Diagnostics exposes the Xid fault classifier backing this Monitor.
func (m *Monitor) Diagnostics() *Diagnostics {
	return m.diag
}

// AllIdle reports whether, in the most recent sample, every device with
// a utilization reading is below idleUtilizationThreshold. A sample with
// no devices is not considered idle.
func (m *Monitor) AllIdle() bool {
	latest, ok := m.latest()
	if !ok || len(latest.Devices) == 0 {
		return false
	}
	for _, d := range latest.Devices {
		if d.UtilizationFrac != nil && *d.UtilizationFrac >= idleUtilizationThreshold {
			return false
		}
	}
	return true
}

func (m *Monitor) latest() (Sample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.samples) == 0 {
		return Sample{}, false
	}
	return m.samples[len(m.samples)-1], true
}
