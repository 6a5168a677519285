// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNativeSandbox_Name(t *testing.T) {
	s := NewNativeSandbox(logrus.NewEntry(logrus.New()))
	assert.Equal(t, "native", s.Name())
}

func TestNativeSandbox_Run_MissingBinaryReturnsError(t *testing.T) {
	s := NewNativeSandbox(logrus.NewEntry(logrus.New()))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := s.Run(ctx, RunSpec{TaskID: "t1"})
	assert.Error(t, err, "orban-model-runner is not expected to be on PATH in this environment")
}

func TestProbeContainerd_UnreachableSocketReturnsFalse(t *testing.T) {
	assert.False(t, probeContainerd("/nonexistent/containerd.sock", 100*time.Millisecond))
}

func TestNewSandbox_FallsBackToNativeWhenNoRuntimeReachable(t *testing.T) {
	sb := NewSandbox(context.Background(), "unused:latest", logrus.NewEntry(logrus.New()))
	assert.Equal(t, "native", sb.Name())
}
