// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package hal

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orbanplatform/orban-agent/pkg/xid"
)

// XIDFault is a classified NVIDIA Xid hardware-fault event, folded into
// Monitor telemetry as a hard-fault signal. This enriches spec.md §4.1's
// telemetry without changing any of its invariants: it is additive, and
// only NVIDIA devices ever populate it (xid.ErrorCodes is an NVIDIA
// driver concept with no AMD/Apple/Intel equivalent).
type XIDFault struct {
	DeviceIndex int       `json:"device_index"`
	Code        int       `json:"code"`
	Name        string    `json:"name"`
	Severity    string    `json:"severity"`
	Category    string    `json:"category"`
	Action      string    `json:"sre_action"`
	Observed    time.Time `json:"observed"`
	RawMessage  string    `json:"raw_message"`
}

// IsHardFault reports whether the fault's severity warrants treating the
// owning device as unhealthy regardless of its temperature/utilization
// readings ("critical" or "fatal" per pkg/xid's severity vocabulary).
func (f XIDFault) IsHardFault() bool {
	return f.Severity == "critical" || f.Severity == "fatal"
}

// Diagnostics polls the kernel ring buffer for NVIDIA Xid events and
// classifies them against pkg/xid's known-fault table. It has no
// equivalent for AMD/Apple/Intel: those vendors don't log Xid events.
type Diagnostics struct {
	parser *xid.Parser
	log    *logrus.Entry

	mu     sync.Mutex
	faults []XIDFault
}

// NewDiagnostics creates a Diagnostics poller.
func NewDiagnostics(log *logrus.Entry) *Diagnostics {
	return &Diagnostics{
		parser: xid.NewParser(),
		log:    log,
	}
}

// Poll reads and classifies any new Xid events from the kernel log,
// resolving each event's device by matching its PCI bus address against
// the live device inventory in devices. A fault whose bus address
// matches no known device (unrelated PCI card, device since unplugged)
// keeps DeviceIndex at -1 rather than being dropped: the fault itself is
// still real and worth surfacing.
// Failures (no /dev/kmsg, no dmesg, permission denied) are logged and
// swallowed: Xid classification is a best-effort enrichment, never a
// precondition for Monitor's core telemetry loop.
func (d *Diagnostics) Poll(ctx context.Context, devices []GPUDevice) {
	events, err := d.parser.ParseKernelLogs(ctx)
	if err != nil {
		d.log.WithError(err).Debug("xid: kernel log read failed, skipping this cycle")
		return
	}
	if len(events) == 0 {
		return
	}

	busIndex := indexByPCIBusID(ctx, devices)

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ev := range events {
		info := xid.LookupOrUnknown(ev.XIDCode)
		deviceIndex := -1
		if idx, ok := busIndex[ev.PCIBusID]; ok {
			deviceIndex = idx
		}
		fault := XIDFault{
			DeviceIndex: deviceIndex,
			Code:        info.Code,
			Name:        info.Name,
			Severity:    info.Severity,
			Category:    info.Category,
			Action:      info.Action,
			Observed:    ev.Timestamp,
			RawMessage:  ev.RawMessage,
		}
		d.faults = append(d.faults, fault)
		d.log.WithFields(logrus.Fields{
			"xid_code":     fault.Code,
			"severity":     fault.Severity,
			"category":     fault.Category,
			"device_index": fault.DeviceIndex,
		}).Warn("xid: classified GPU fault event")
	}
}

// indexByPCIBusID builds a PCI-bus-address-to-device-index lookup over
// devices, skipping any device whose backend has no PCI bus (AMD/Apple
// stubs, or an NVIDIA device whose NVML query failed this cycle).
func indexByPCIBusID(ctx context.Context, devices []GPUDevice) map[string]int {
	out := make(map[string]int, len(devices))
	for _, dev := range devices {
		busID, err := dev.PCIBusID(ctx)
		if err != nil {
			continue
		}
		out[busID] = dev.Index(ctx)
	}
	return out
}

// Faults returns a copy of every classified fault observed so far.
func (d *Diagnostics) Faults() []XIDFault {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]XIDFault, len(d.faults))
	copy(out, d.faults)
	return out
}

// LastHardFault returns the most recent fault whose severity is
// "critical" or "fatal", if any.
func (d *Diagnostics) LastHardFault() (XIDFault, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.faults) - 1; i >= 0; i-- {
		if d.faults[i].IsHardFault() {
			return d.faults[i], true
		}
	}
	return XIDFault{}, false
}
