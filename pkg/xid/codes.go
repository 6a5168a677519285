// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package xid provides NVIDIA XID error code lookup and classification.
// XID errors are GPU hardware failures logged by the NVIDIA driver to the
// kernel ring buffer. They indicate issues like memory corruption, bus
// failures, or thermal problems.
//
// Reference: https://docs.nvidia.com/deploy/xid-errors/
package xid

import "fmt"

// ErrorInfo contains metadata about an XID error code.
type ErrorInfo struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // "info", "warning", "critical", "fatal"
	Action      string `json:"sre_action"`
	Category    string `json:"category"` // "hardware", "memory", "thermal", "power", "nvlink"
}

// ErrorCodes maps XID error codes to their metadata.
// This table includes the most common and critical XIDs observed in
// production GPU environments. Action text speaks in this agent's own
// vocabulary: it runs standalone with no cluster to drain a node from, so
// the available remedies are reject new tasks off the affected device,
// let the supervisor restart the process (see orchestrator's reconnect
// exhaustion), or flag the device for manual hardware service.
var ErrorCodes = map[int]ErrorInfo{
	8: {
		Code:        8,
		Name:        "Page Retirement Failure",
		Description: "GPU failed to retire a page of memory with uncorrectable errors",
		Severity:    "critical",
		Action:      "Monitor ECC error counts. If persistent, stop accepting tasks on this device and flag for replacement.",
		Category:    "memory",
	},
	13: {
		Code:        13,
		Name:        "Graphics Exception",
		Description: "Graphics engine exception occurred during rendering or compute",
		Severity:    "critical",
		Action:      "Check task logs. If frequent, stop accepting tasks on this device and investigate the workload.",
		Category:    "hardware",
	},
	31: {
		Code:        31,
		Name:        "GPU Exception",
		Description: "General GPU exception - internal error in GPU execution",
		Severity:    "critical",
		Action:      "Check for driver/firmware mismatch. If persistent, let the supervisor restart the agent process.",
		Category:    "hardware",
	},
	32: {
		Code:        32,
		Name:        "Invalid Memory Access",
		Description: "GPU attempted to access invalid memory address",
		Severity:    "warning",
		Action:      "Review the task's memory usage. May indicate a bug in the submitted workload rather than the GPU.",
		Category:    "memory",
	},
	43: {
		Code:        43,
		Name:        "GPU Stopped Responding",
		Description: "GPU failed to respond to driver commands within timeout period",
		Severity:    "critical",
		Action:      "Stop accepting tasks on this device and let the supervisor restart the agent process. Check for thermal throttling or power issues.",
		Category:    "hardware",
	},
	45: {
		Code:        45,
		Name:        "Preemption Error",
		Description: "GPU context preemption failed",
		Severity:    "warning",
		Action:      "Monitor frequency. If rare, ignore. If frequent, investigate concurrent task scheduling on this device.",
		Category:    "hardware",
	},
	48: {
		Code:        48,
		Name:        "Double Bit ECC Error",
		Description: "Uncorrectable ECC error detected in GPU memory - data corruption has occurred",
		Severity:    "fatal",
		Action:      "Stop accepting tasks on this device immediately. Memory corruption detected; hardware must be serviced before reuse.",
		Category:    "memory",
	},
	61: {
		Code:        61,
		Name:        "Internal Micro-controller Error",
		Description: "GPU internal micro-controller detected an error condition",
		Severity:    "critical",
		Action:      "Let the supervisor restart the agent process. If persistent, stop accepting tasks on this device and schedule replacement.",
		Category:    "hardware",
	},
	62: {
		Code:        62,
		Name:        "Internal Micro-controller Breakpoint",
		Description: "GPU micro-controller hit unexpected breakpoint",
		Severity:    "critical",
		Action:      "GPU firmware issue. Update the driver/firmware or replace the device.",
		Category:    "hardware",
	},
	63: {
		Code:        63,
		Name:        "Internal Micro-controller Halt",
		Description: "GPU micro-controller halted unexpectedly",
		Severity:    "critical",
		Action:      "GPU firmware failure. Let the supervisor restart the agent process. If persistent, replace the device.",
		Category:    "hardware",
	},
	64: {
		Code:        64,
		Name:        "ECC Page Retirement Pending",
		Description: "GPU has pages pending retirement due to excessive errors",
		Severity:    "warning",
		Action:      "Monitor ECC error rate. Schedule device replacement at the next maintenance window.",
		Category:    "memory",
	},
	68: {
		Code:        68,
		Name:        "FBPA Exception",
		Description: "Frame Buffer Partition A exception - memory controller error",
		Severity:    "critical",
		Action:      "Memory subsystem failure. Stop accepting tasks on this device and flag for replacement.",
		Category:    "memory",
	},
	69: {
		Code:        69,
		Name:        "FBP Exception",
		Description: "Frame Buffer Partition exception - memory controller error",
		Severity:    "critical",
		Action:      "Memory subsystem failure. Stop accepting tasks on this device and flag for replacement.",
		Category:    "memory",
	},
	74: {
		Code:        74,
		Name:        "NVLink Error",
		Description: "NVLink interconnect detected error or link degradation",
		Severity:    "critical",
		Action:      "Check NVLink topology and cable connections. On a multi-GPU task, stop accepting tasks that span this link.",
		Category:    "nvlink",
	},
	79: {
		Code:        79,
		Name:        "GPU Fallen Off Bus",
		Description: "GPU is no longer accessible on PCIe bus - complete hardware failure",
		Severity:    "fatal",
		Action:      "Stop accepting tasks on this device immediately. Check the PCIe connection and replace the device; it will not re-enumerate on its own.",
		Category:    "hardware",
	},
	92: {
		Code:        92,
		Name:        "High Single Bit ECC Error Rate",
		Description: "Elevated rate of correctable ECC errors detected",
		Severity:    "warning",
		Action:      "Monitor trend. May indicate early memory degradation; schedule replacement if the rate increases.",
		Category:    "memory",
	},
	94: {
		Code:        94,
		Name:        "Contained Error",
		Description: "GPU detected and contained an error - no data corruption",
		Severity:    "warning",
		Action:      "Monitor frequency. Isolated occurrences are acceptable; investigate if frequent.",
		Category:    "hardware",
	},
	95: {
		Code:        95,
		Name:        "Uncontained Error",
		Description: "GPU error could not be contained - potential data corruption",
		Severity:    "fatal",
		Action:      "Stop accepting tasks on this device immediately. Potential data corruption; hardware must be serviced before reuse.",
		Category:    "hardware",
	},
}

// Lookup returns the ErrorInfo for a given XID code.
// Returns the info and true if the code exists, or a zero value and false
// if the code is unknown.
func Lookup(code int) (ErrorInfo, bool) {
	info, exists := ErrorCodes[code]
	return info, exists
}

// LookupOrUnknown returns the ErrorInfo for a given XID code.
// If the code is not in the known error table, it returns a generic
// ErrorInfo with "unknown" classification.
func LookupOrUnknown(code int) ErrorInfo {
	if info, exists := ErrorCodes[code]; exists {
		return info
	}
	return ErrorInfo{
		Code:        code,
		Name:        fmt.Sprintf("Unknown XID %d", code),
		Description: "XID not in known error table - check NVIDIA documentation for details",
		Severity:    "warning",
		Action:      "Check NVIDIA XID documentation at https://docs.nvidia.com/deploy/xid-errors/",
		Category:    "unknown",
	}
}
