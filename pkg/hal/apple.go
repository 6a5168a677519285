// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package hal

import (
	"context"
	"fmt"
)

// AppleBackend enumerates Apple Silicon GPUs through Metal/IOKit. Per
// spec, unified-memory Apple GPUs have no discrete fan and no PCIe link:
// FanSpeedFraction and PCIeBandwidthGBs return 0 rather than failing,
// the one explicit exception to "unimplemented telemetry MUST fail
// explicitly." No CGO/Metal bindings were available in this build, so
// Enumerate reports zero devices on any non-Apple host, which is the
// correct outcome rather than a failure.
type AppleBackend struct{}

// NewAppleBackend creates the Apple Metal/IOKit backend.
func NewAppleBackend() *AppleBackend {
	return &AppleBackend{}
}

// Vendor identifies this backend.
func (b *AppleBackend) Vendor() Vendor { return VendorApple }

// Enumerate returns zero devices outside of a Metal-capable CGO build.
func (b *AppleBackend) Enumerate(context.Context) ([]GPUDevice, error) {
	return nil, nil
}

// appleDevice documents the Metal/IOKit mapping onto GPUDevice for when
// CGO bindings are wired in.
type appleDevice struct {
	index int
}

var _ GPUDevice = (*appleDevice)(nil)

func (d *appleDevice) Index(context.Context) int    { return d.index }
func (d *appleDevice) Vendor(context.Context) Vendor { return VendorApple }

func (d *appleDevice) UUID(context.Context) (string, error) {
	return "", fmt.Errorf("metal: %w", ErrBackendUnavailable)
}
func (d *appleDevice) Model(context.Context) (string, error) {
	return "", fmt.Errorf("metal: %w", ErrBackendUnavailable)
}
func (d *appleDevice) Memory(context.Context) (*MemoryInfo, error) {
	return nil, fmt.Errorf("metal: %w", ErrBackendUnavailable)
}
func (d *appleDevice) UtilizationFraction(context.Context) (float64, error) {
	return 0, fmt.Errorf("metal: %w", ErrBackendUnavailable)
}
func (d *appleDevice) TemperatureCelsius(context.Context) (float64, error) {
	return 0, fmt.Errorf("metal: %w", ErrBackendUnavailable)
}
func (d *appleDevice) PowerWatts(context.Context) (float64, error) {
	return 0, fmt.Errorf("metal: %w", ErrBackendUnavailable)
}

// FanSpeedFraction always returns 0: Apple Silicon GPUs share the
// system's unified cooling, with no per-GPU fan to query.
func (d *appleDevice) FanSpeedFraction(context.Context) (float64, error) {
	return 0, nil
}

func (d *appleDevice) ComputeCapability(context.Context) (string, error) {
	return "", fmt.Errorf("metal: %w", ErrBackendUnavailable)
}
func (d *appleDevice) CoreCount(context.Context) (*int, error) {
	return nil, fmt.Errorf("metal: %w", ErrBackendUnavailable)
}

// PCIeBandwidthGBs always returns 0 to signal unified memory: Apple
// Silicon GPUs share system RAM over a fabric, not a discrete PCIe link.
func (d *appleDevice) PCIeBandwidthGBs(context.Context) (float64, error) {
	return 0, nil
}

func (d *appleDevice) ComputePoW(context.Context, []byte, uint32) (uint64, []byte, error) {
	return 0, nil, fmt.Errorf("metal: %w", ErrBackendUnavailable)
}

// PCIBusID always fails: Apple Silicon GPUs have no discrete PCI bus to
// report, and so cannot be correlated against kernel XID faults (an
// NVIDIA-specific diagnostic in the first place).
func (d *appleDevice) PCIBusID(context.Context) (string, error) {
	return "", fmt.Errorf("metal: %w", ErrBackendUnavailable)
}

func (d *appleDevice) CUDAVersion(context.Context) (string, error) {
	return "", fmt.Errorf("metal: %w", ErrBackendUnavailable)
}
