// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// NativeSandbox runs tasks as a direct child process with the same
// model/input/output path interface as ContainerSandbox but no
// isolation guarantee: no mount namespace, no memory/CPU quota, no GPU
// device scoping. Selected only when no container runtime answers at
// startup.
type NativeSandbox struct {
	log *logrus.Entry
}

// NewNativeSandbox creates a NativeSandbox.
func NewNativeSandbox(log *logrus.Entry) *NativeSandbox {
	return &NativeSandbox{log: log}
}

func (s *NativeSandbox) Name() string { return "native" }

// Run execs the model runner binary directly, passing spec's paths as
// environment variables so the same runner binary works unmodified
// under either sandbox variant.
func (s *NativeSandbox) Run(ctx context.Context, spec RunSpec) (RunResult, error) {
	cmd := exec.CommandContext(ctx, "orban-model-runner")
	cmd.Env = append(cmd.Env,
		"ORBAN_MODEL_PATH="+spec.ModelPath,
		"ORBAN_INPUT_PATH="+spec.InputPath,
		"ORBAN_OUTPUT_PATH="+spec.OutputPath,
	)
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Seconds()

	if ctx.Err() != nil {
		return RunResult{}, ctx.Err()
	}

	var exitCode int
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		return RunResult{}, fmt.Errorf("executor: native sandbox exec: %w", err)
	}

	return RunResult{ExitCode: exitCode, WallSeconds: elapsed}, nil
}
