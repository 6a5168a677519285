// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package hal

import (
	"context"
	"errors"
	"fmt"

	"github.com/orbanplatform/orban-agent/pkg/hal/nvidia"
)

// nvidiaDevice adapts a pkg/hal/nvidia.Device into the vendor-polymorphic
// GPUDevice interface.
type nvidiaDevice struct {
	index  int
	dev    nvidia.Device
	iface  nvidia.Interface
}

var _ GPUDevice = (*nvidiaDevice)(nil)

func (d *nvidiaDevice) Index(context.Context) int      { return d.index }
func (d *nvidiaDevice) Vendor(context.Context) Vendor   { return VendorNVIDIA }

func (d *nvidiaDevice) UUID(ctx context.Context) (string, error) {
	return d.dev.GetUUID(ctx)
}

func (d *nvidiaDevice) Model(ctx context.Context) (string, error) {
	return d.dev.GetName(ctx)
}

func (d *nvidiaDevice) Memory(ctx context.Context) (*MemoryInfo, error) {
	info, err := d.dev.GetMemoryInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &MemoryInfo{TotalBytes: info.Total, UsedBytes: info.Used, FreeBytes: info.Free}, nil
}

func (d *nvidiaDevice) UtilizationFraction(ctx context.Context) (float64, error) {
	util, err := d.dev.GetUtilizationRates(ctx)
	if err != nil {
		return 0, err
	}
	return float64(util.GPU) / 100.0, nil
}

func (d *nvidiaDevice) TemperatureCelsius(ctx context.Context) (float64, error) {
	temp, err := d.dev.GetTemperature(ctx)
	if err != nil {
		return 0, err
	}
	return float64(temp), nil
}

func (d *nvidiaDevice) PowerWatts(ctx context.Context) (float64, error) {
	mw, err := d.dev.GetPowerUsage(ctx)
	if err != nil {
		return 0, err
	}
	return float64(mw) / 1000.0, nil
}

func (d *nvidiaDevice) FanSpeedFraction(ctx context.Context) (float64, error) {
	pct, err := d.dev.GetFanSpeed(ctx)
	if err != nil {
		if errors.Is(err, nvidia.ErrNotSupported) {
			return 0, nil
		}
		return 0, err
	}
	return float64(pct) / 100.0, nil
}

func (d *nvidiaDevice) ComputeCapability(ctx context.Context) (string, error) {
	return d.dev.GetCudaComputeCapability(ctx)
}

func (d *nvidiaDevice) CoreCount(context.Context) (*int, error) {
	// NVML does not expose SM/core count through this Device contract.
	return nil, nvidia.ErrNotSupported
}

func (d *nvidiaDevice) PCIeBandwidthGBs(context.Context) (float64, error) {
	// Not exposed by the current NVML binding surface.
	return 0, nvidia.ErrNotSupported
}

func (d *nvidiaDevice) PCIBusID(ctx context.Context) (string, error) {
	info, err := d.dev.GetPCIInfo(ctx)
	if err != nil {
		return "", err
	}
	return info.BusID, nil
}

// CUDAVersion reports the host's CUDA driver version, surfaced in
// wire.GPUSignature so the platform can attribute a proof of work to the
// toolchain that produced it.
func (d *nvidiaDevice) CUDAVersion(ctx context.Context) (string, error) {
	return d.iface.GetCudaDriverVersion(ctx)
}

// ComputePoW has no native NVML/CUDA kernel in this backend; callers fall
// back to the CPU-parallel pkg/pow search.
func (d *nvidiaDevice) ComputePoW(
	context.Context, []byte, uint32,
) (uint64, []byte, error) {
	return 0, nil, nvidia.ErrNotSupported
}

// NVIDIABackend enumerates devices through a pkg/hal/nvidia.Interface
// (real NVML, mock, or unimplemented).
type NVIDIABackend struct {
	iface nvidia.Interface
}

// NewNVIDIABackend wraps an already-initialized nvidia.Interface.
func NewNVIDIABackend(iface nvidia.Interface) *NVIDIABackend {
	return &NVIDIABackend{iface: iface}
}

// Vendor identifies this backend.
func (b *NVIDIABackend) Vendor() Vendor { return VendorNVIDIA }

// Enumerate returns all devices visible to this backend, preserving the
// backend's own indexing.
func (b *NVIDIABackend) Enumerate(ctx context.Context) ([]GPUDevice, error) {
	count, err := b.iface.GetDeviceCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("nvidia: %w", err)
	}

	devices := make([]GPUDevice, 0, count)
	for i := 0; i < count; i++ {
		dev, err := b.iface.GetDeviceByIndex(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("nvidia: device %d: %w", i, err)
		}
		devices = append(devices, &nvidiaDevice{index: i, dev: dev, iface: b.iface})
	}
	return devices, nil
}
