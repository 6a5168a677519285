// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package hal

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Backend enumerates GPU devices for a single vendor.
type Backend interface {
	Vendor() Vendor
	Enumerate(ctx context.Context) ([]GPUDevice, error)
}

// Detector queries every compiled-in vendor backend, in the stable
// NVIDIA/AMD/Apple/Intel order, and exposes device-selection operations
// over the combined device set.
type Detector struct {
	backends []Backend
	log      *logrus.Entry

	mu      sync.RWMutex
	devices []GPUDevice
	host    *HostInfo
}

// NewDetector creates a Detector over the given backends. Backends are
// queried in the order passed; callers should pass NVIDIA, AMD, Apple,
// Intel in that order to match spec's stable vendor ordering.
func NewDetector(log *logrus.Entry, backends ...Backend) *Detector {
	return &Detector{backends: backends, log: log}
}

// Detect enumerates every backend, snapshots the host, and stores the
// combined device vector. Returns ErrNoGpuFound if zero devices were
// discovered across every backend.
func (d *Detector) Detect(ctx context.Context) error {
	var devices []GPUDevice
	for _, b := range d.backends {
		found, err := b.Enumerate(ctx)
		if err != nil {
			d.log.WithFields(logrus.Fields{
				"vendor": b.Vendor(),
				"error":  err,
			}).Warn("backend enumeration failed, skipping")
			continue
		}
		devices = append(devices, found...)
	}

	if len(devices) == 0 {
		return ErrNoGpuFound
	}

	host, err := SnapshotHost()
	if err != nil {
		d.log.WithError(err).Warn("host snapshot failed")
	}

	d.mu.Lock()
	d.devices = devices
	d.host = host
	d.mu.Unlock()

	return nil
}

// Devices returns the most recently detected device set.
func (d *Detector) Devices() []GPUDevice {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]GPUDevice, len(d.devices))
	copy(out, d.devices)
	return out
}

// Host returns the most recent host (CPU/RAM) snapshot, if any.
func (d *Detector) Host() *HostInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.host
}

// MeetsRequirements reports whether dev satisfies req: vram_gb ≥
// req.MinVRAMGB AND free_vram ≥ 0.8 × req.MinVRAMGB (the 80% headroom
// rule) AND parsed compute capability ≥ req.MinComputeCapability,
// compared lexicographically as (major, minor) integers.
func (d *Detector) MeetsRequirements(ctx context.Context, dev GPUDevice, req Requirements) bool {
	mem, err := dev.Memory(ctx)
	if err != nil {
		return false
	}

	const bytesPerGB = 1 << 30
	vramGB := float64(mem.TotalBytes) / bytesPerGB
	freeGB := float64(mem.FreeBytes) / bytesPerGB

	if vramGB < req.MinVRAMGB {
		return false
	}
	if freeGB < 0.8*req.MinVRAMGB {
		return false
	}

	cc, err := dev.ComputeCapability(ctx)
	if err != nil {
		cc = ""
	}
	haveMajor, haveMinor := parseComputeCapability(cc)
	wantMajor, wantMinor := parseComputeCapability(req.MinComputeCapability)
	if haveMajor != wantMajor {
		return haveMajor > wantMajor
	}
	return haveMinor >= wantMinor
}

// SelectBest picks, among devices satisfying req, the one with the
// largest free VRAM, breaking ties by lowest index. Returns
// ErrInsufficientVRAM if no device satisfies req, or ErrNoGpuFound if
// there are no devices at all.
func (d *Detector) SelectBest(ctx context.Context, req Requirements) (GPUDevice, error) {
	devices := d.Devices()
	if len(devices) == 0 {
		return nil, ErrNoGpuFound
	}

	var best GPUDevice
	var bestFree uint64
	var bestIndex int

	for _, dev := range devices {
		if !d.MeetsRequirements(ctx, dev, req) {
			continue
		}
		mem, err := dev.Memory(ctx)
		if err != nil {
			continue
		}
		idx := dev.Index(ctx)
		if best == nil || mem.FreeBytes > bestFree ||
			(mem.FreeBytes == bestFree && idx < bestIndex) {
			best = dev
			bestFree = mem.FreeBytes
			bestIndex = idx
		}
	}

	if best == nil {
		return nil, ErrInsufficientVRAM
	}
	return best, nil
}

// GetAllStatus takes a parallel telemetry snapshot of every device.
// A failed field is simply omitted from that device's snapshot; a
// single device's telemetry failure never aborts the overall snapshot.
// Only a failed UUID query is logged (at debug level); the other failed
// fields are skipped without a log entry.
func (d *Detector) GetAllStatus(ctx context.Context) []DeviceSnapshot {
	devices := d.Devices()
	snapshots := make([]DeviceSnapshot, len(devices))

	g, gctx := errgroup.WithContext(ctx)
	for i, dev := range devices {
		i, dev := i, dev
		g.Go(func() error {
			snapshots[i] = d.snapshotOne(gctx, dev)
			return nil
		})
	}
	_ = g.Wait() // snapshotOne never returns an error; soft-fails internally

	return snapshots
}

func (d *Detector) snapshotOne(ctx context.Context, dev GPUDevice) DeviceSnapshot {
	snap := DeviceSnapshot{
		Index:  dev.Index(ctx),
		Vendor: dev.Vendor(ctx),
	}

	if uuid, err := dev.UUID(ctx); err == nil {
		snap.UUID = uuid
	} else {
		d.log.WithError(err).WithField("index", snap.Index).Debug("UUID query failed")
	}
	if model, err := dev.Model(ctx); err == nil {
		snap.Model = model
	}
	if mem, err := dev.Memory(ctx); err == nil {
		snap.Memory = mem
	}
	if util, err := dev.UtilizationFraction(ctx); err == nil {
		snap.UtilizationFrac = &util
	}
	if temp, err := dev.TemperatureCelsius(ctx); err == nil {
		snap.TemperatureC = &temp
	}
	if power, err := dev.PowerWatts(ctx); err == nil {
		snap.PowerW = &power
	}
	if fan, err := dev.FanSpeedFraction(ctx); err == nil {
		snap.FanSpeedFrac = &fan
	}
	if cc, err := dev.ComputeCapability(ctx); err == nil {
		snap.ComputeCapability = cc
	}
	if cores, err := dev.CoreCount(ctx); err == nil {
		snap.CoreCount = cores
	}
	if pcie, err := dev.PCIeBandwidthGBs(ctx); err == nil {
		snap.PCIeBandwidthGBs = &pcie
	}

	return snap
}

// parseComputeCapability parses a "major.minor" string into integers.
// Unparsable input is treated as (0, 0), per spec.
func parseComputeCapability(s string) (major, minor int) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	major, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
	minor, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errA != nil || errB != nil {
		return 0, 0
	}
	return major, minor
}
