// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package hal is the vendor-polymorphic Hardware Abstraction Layer over
// GPU devices. It groups per-vendor backends (pkg/hal/nvidia and the
// AMD/Apple/Intel variants in this package) behind a single GPUDevice
// capability interface, the way pkg/hal/nvidia groups NVML behind
// Interface/Device.
package hal

import (
	"context"
	"errors"
)

// Vendor identifies which backend produced a device.
type Vendor string

// Vendor tags, in Detector enumeration order.
const (
	VendorNVIDIA Vendor = "NVIDIA"
	VendorAMD    Vendor = "AMD"
	VendorApple  Vendor = "Apple"
	VendorIntel  Vendor = "Intel"
)

// ErrNoGpuFound is returned by the Detector when zero devices are
// discovered across every compiled-in backend.
var ErrNoGpuFound = errors.New("no GPU devices found")

// ErrInsufficientVRAM is returned when no device satisfies a task's
// resource requirements.
var ErrInsufficientVRAM = errors.New("insufficient VRAM for task requirements")

// ErrBackendUnavailable is returned by a vendor backend whose native
// bindings are not present on this host/build (e.g. no ROCm SMI
// library, no Metal framework).
var ErrBackendUnavailable = errors.New("vendor backend unavailable")

// GPUDevice is the uniform capability set every vendor backend exposes.
// Only Index, Vendor, and UUID are guaranteed non-failing; every other
// telemetry query is fallible and must be treated as optional (soft
// failure) at the call site.
type GPUDevice interface {
	// Index is the 0-based index within this device's own backend.
	Index(ctx context.Context) int
	// Vendor identifies which backend owns this device.
	Vendor(ctx context.Context) Vendor
	// UUID is a stable, globally unique device identifier.
	UUID(ctx context.Context) (string, error)

	// Model is the product name, e.g. "NVIDIA A100-SXM4-40GB".
	Model(ctx context.Context) (string, error)
	// Memory returns total/used/free VRAM in bytes.
	Memory(ctx context.Context) (*MemoryInfo, error)
	// UtilizationFraction returns GPU utilization in [0,1].
	UtilizationFraction(ctx context.Context) (float64, error)
	// TemperatureCelsius returns the current die temperature.
	TemperatureCelsius(ctx context.Context) (float64, error)
	// PowerWatts returns current power draw in watts.
	PowerWatts(ctx context.Context) (float64, error)
	// FanSpeedFraction returns fan speed in [0,1]. Devices with no fan
	// (Apple unified-memory GPUs, passively-cooled datacenter parts)
	// return 0 rather than failing.
	FanSpeedFraction(ctx context.Context) (float64, error)
	// ComputeCapability returns a "major.minor" string, or an error if
	// the backend has no such concept.
	ComputeCapability(ctx context.Context) (string, error)
	// CoreCount returns the device's core/SM/CU count, if known.
	CoreCount(ctx context.Context) (*int, error)
	// PCIeBandwidthGBs returns PCIe bandwidth in GB/s; 0 signals "not
	// applicable" (e.g. Apple unified memory, which has no PCIe link).
	PCIeBandwidthGBs(ctx context.Context) (float64, error)
	// PCIBusID returns the device's PCI bus address in canonical
	// "0000:BB:DD.F" form, or an error if the backend has no PCI bus
	// (e.g. Apple unified memory). Used to correlate kernel XID faults,
	// which identify a GPU by bus address, back to a device index.
	PCIBusID(ctx context.Context) (string, error)
	// CUDAVersion returns the CUDA driver version string, or an error if
	// the backend has no CUDA concept (e.g. AMD, Apple).
	CUDAVersion(ctx context.Context) (string, error)

	// ComputePoW optionally runs a vendor-native proof-of-work search
	// (e.g. a CUDA or Metal compute kernel). No backend in this module
	// has a native kernel: the NVIDIA backend returns
	// nvidia.ErrNotSupported and the AMD and Apple backends return an
	// error wrapping ErrBackendUnavailable. The orchestrator does not
	// call ComputePoW; it answers every POW_CHALLENGE with the
	// CPU-parallel pkg/pow search.
	ComputePoW(ctx context.Context, nonce []byte, difficulty uint32) (solutionNonce uint64, hash []byte, err error)
}

// MemoryInfo mirrors pkg/hal/nvidia.MemoryInfo at the vendor-polymorphic
// layer.
type MemoryInfo struct {
	TotalBytes uint64
	UsedBytes  uint64
	FreeBytes  uint64
}

// Requirements is a task's resource requirement descriptor, per spec
// section 3 ("Task").
type Requirements struct {
	MinVRAMGB           float64
	MinComputeCapability string
	Framework            string
	RequiresFP16         bool
}

// DeviceSnapshot is a point-in-time, best-effort telemetry view of one
// device. Every field beyond Index/Vendor/UUID is a pointer so a failed
// (soft) query can be omitted rather than fabricated.
type DeviceSnapshot struct {
	Index  int    `json:"index"`
	Vendor Vendor `json:"vendor"`
	UUID   string `json:"uuid"`

	Model             string   `json:"model,omitempty"`
	Memory            *MemoryInfo `json:"memory,omitempty"`
	UtilizationFrac   *float64 `json:"utilization_fraction,omitempty"`
	TemperatureC      *float64 `json:"temperature_celsius,omitempty"`
	PowerW            *float64 `json:"power_watts,omitempty"`
	FanSpeedFrac      *float64 `json:"fan_speed_fraction,omitempty"`
	ComputeCapability string   `json:"compute_capability,omitempty"`
	CoreCount         *int     `json:"core_count,omitempty"`
	PCIeBandwidthGBs  *float64 `json:"pcie_bandwidth_gb_s,omitempty"`
}
