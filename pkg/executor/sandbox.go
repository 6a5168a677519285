// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// RunSpec describes one sandboxed task execution.
type RunSpec struct {
	TaskID     string
	ModelPath  string
	InputPath  string
	OutputPath string
	MemoryMB   int64
	CPUCores   float64
	Env        map[string]string
}

// RunResult is the sandbox's report of one execution.
type RunResult struct {
	ExitCode    int
	WallSeconds float64
}

// Sandbox isolates one task's execution. Container mounts the model and
// input read-only and requests the vendor GPU device; Native runs a
// direct subprocess with no isolation guarantee.
type Sandbox interface {
	// Name identifies the variant for logging ("container" or "native").
	Name() string
	// Run executes spec to completion or until ctx is cancelled, in
	// which case the sandbox must kill its child and return ctx.Err().
	Run(ctx context.Context, spec RunSpec) (RunResult, error)
}

// defaultContainerdSocket is containerd's standard Unix socket path.
const defaultContainerdSocket = "/run/containerd/containerd.sock"

// NewSandbox probes for a reachable container runtime and returns a
// ContainerSandbox if one answers within probeTimeout, otherwise a
// NativeSandbox with a prominent warning. This matches spec's
// "Container is selected when a container runtime is reachable at
// startup; otherwise Native with a prominent warning."
func NewSandbox(ctx context.Context, containerImage string, log *logrus.Entry) Sandbox {
	const probeTimeout = 2 * time.Second

	if probeContainerd(defaultContainerdSocket, probeTimeout) {
		sb, err := NewContainerSandbox(ctx, defaultContainerdSocket, containerImage, log)
		if err == nil {
			log.WithField("socket", defaultContainerdSocket).Info("container runtime reachable, using container sandbox")
			return sb
		}
		log.WithError(err).Warn("containerd reachable but client init failed, falling back to native sandbox")
	}

	log.Warn("no container runtime reachable at startup: running tasks WITHOUT isolation (native sandbox)")
	return NewNativeSandbox(log)
}

func probeContainerd(socket string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("unix", socket, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
