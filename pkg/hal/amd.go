// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package hal

import (
	"context"
	"fmt"
)

// AMDBackend enumerates devices through ROCm SMI. The real binding is a
// CGO wrapper analogous to pkg/hal/nvidia's real.go/real_stub.go split;
// no ROCm development headers were available in this build, so this
// backend currently always enumerates zero devices. It is kept as a
// first-class backend (rather than omitted) so the Detector's vendor
// ordering and get_all_status fan-out are exercised uniformly across
// all four vendors, and so a future CGO build tag can drop in a real
// implementation without changing Detector wiring.
type AMDBackend struct{}

// NewAMDBackend creates the (currently stubbed) AMD backend.
func NewAMDBackend() *AMDBackend {
	return &AMDBackend{}
}

// Vendor identifies this backend.
func (b *AMDBackend) Vendor() Vendor { return VendorAMD }

// Enumerate always returns zero devices until ROCm SMI bindings are wired
// in; it never errors, since "no AMD GPUs present" is a normal outcome
// on non-AMD hosts, not a backend failure.
func (b *AMDBackend) Enumerate(context.Context) ([]GPUDevice, error) {
	return nil, nil
}

// amdDevice is unused until ROCm SMI bindings land, but its shape
// documents the mapping from ROCm SMI's rsmi_dev_* calls onto GPUDevice.
type amdDevice struct {
	index int
}

var _ GPUDevice = (*amdDevice)(nil)

func (d *amdDevice) Index(context.Context) int    { return d.index }
func (d *amdDevice) Vendor(context.Context) Vendor { return VendorAMD }

func (d *amdDevice) UUID(context.Context) (string, error) {
	return "", fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) Model(context.Context) (string, error) {
	return "", fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) Memory(context.Context) (*MemoryInfo, error) {
	return nil, fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) UtilizationFraction(context.Context) (float64, error) {
	return 0, fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) TemperatureCelsius(context.Context) (float64, error) {
	return 0, fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) PowerWatts(context.Context) (float64, error) {
	return 0, fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) FanSpeedFraction(context.Context) (float64, error) {
	return 0, fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) ComputeCapability(context.Context) (string, error) {
	return "", fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) CoreCount(context.Context) (*int, error) {
	return nil, fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) PCIeBandwidthGBs(context.Context) (float64, error) {
	return 0, fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) PCIBusID(context.Context) (string, error) {
	return "", fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) CUDAVersion(context.Context) (string, error) {
	return "", fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
func (d *amdDevice) ComputePoW(context.Context, []byte, uint32) (uint64, []byte, error) {
	return 0, nil, fmt.Errorf("rocm-smi: %w", ErrBackendUnavailable)
}
