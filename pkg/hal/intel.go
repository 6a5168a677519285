// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package hal

import (
	"context"
)

// IntelBackend is the placeholder Intel GPU backend named in spec
// section 4.1. No Intel device-management binding (e.g. intel_gpu_top,
// Level Zero sysman) is wired in this build; Enumerate always reports
// zero devices, which the Detector treats as "no Intel GPUs present"
// rather than a backend error.
type IntelBackend struct{}

// NewIntelBackend creates the Intel placeholder backend.
func NewIntelBackend() *IntelBackend {
	return &IntelBackend{}
}

// Vendor identifies this backend.
func (b *IntelBackend) Vendor() Vendor { return VendorIntel }

// Enumerate always returns zero devices.
func (b *IntelBackend) Enumerate(context.Context) ([]GPUDevice, error) {
	return nil, nil
}
