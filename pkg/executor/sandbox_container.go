// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
	"github.com/google/uuid"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/sirupsen/logrus"
)

// containerdNamespace isolates the agent's containers from any other
// tenant of the same containerd daemon.
const containerdNamespace = "orban-agent"

// ContainerSandbox runs tasks as isolated containerd containers: model
// and input are bind-mounted read-only, the output directory is
// bind-mounted read-write, and all GPUs are requested via the NVIDIA
// container runtime's visible-devices environment convention. The
// containerd daemon is expected to have nvidia-container-runtime
// configured as (at least) an additional runtime; this sandbox does not
// configure the daemon itself.
type ContainerSandbox struct {
	client *containerd.Client
	image  containerd.Image
	log    *logrus.Entry
}

// NewContainerSandbox dials containerd over socket and pulls image,
// unpacking it for the default snapshotter.
func NewContainerSandbox(ctx context.Context, socket, image string, log *logrus.Entry) (*ContainerSandbox, error) {
	client, err := containerd.New(socket)
	if err != nil {
		return nil, fmt.Errorf("executor: dial containerd at %s: %w", socket, err)
	}

	nsCtx := namespaces.WithNamespace(ctx, containerdNamespace)
	img, err := client.Pull(nsCtx, image, containerd.WithPullUnpack)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("executor: pull image %s: %w", image, err)
	}

	return &ContainerSandbox{client: client, image: img, log: log}, nil
}

func (s *ContainerSandbox) Name() string { return "container" }

func bindMount(src, dst string, readOnly bool) specs.Mount {
	options := []string{"rbind"}
	if readOnly {
		options = append(options, "ro")
	} else {
		options = append(options, "rw")
	}
	return specs.Mount{Type: "bind", Source: src, Destination: dst, Options: options}
}

// Run creates, starts, and waits on a single-use container for spec,
// then tears it down unconditionally.
func (s *ContainerSandbox) Run(ctx context.Context, spec RunSpec) (RunResult, error) {
	ctx = namespaces.WithNamespace(ctx, containerdNamespace)
	id := "task-" + spec.TaskID + "-" + uuid.NewString()[:8]

	env := []string{"NVIDIA_VISIBLE_DEVICES=all", "NVIDIA_DRIVER_CAPABILITIES=compute,utility"}
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}

	specOpts := []oci.SpecOpts{
		oci.WithImageConfig(s.image),
		oci.WithEnv(env),
		oci.WithMounts([]specs.Mount{
			bindMount(spec.ModelPath, "/task/model", true),
			bindMount(spec.InputPath, "/task/input", true),
			bindMount(spec.OutputPath, "/task/output", false),
		}),
	}
	if spec.MemoryMB > 0 {
		specOpts = append(specOpts, oci.WithMemoryLimit(uint64(spec.MemoryMB)*1024*1024))
	}
	if spec.CPUCores > 0 {
		specOpts = append(specOpts, oci.WithCPUCFS(int64(spec.CPUCores*100000), 100000))
	}

	container, err := s.client.NewContainer(ctx, id,
		containerd.WithNewSnapshot(id+"-snapshot", s.image),
		containerd.WithNewSpec(specOpts...),
	)
	if err != nil {
		return RunResult{}, fmt.Errorf("executor: create container: %w", err)
	}
	defer func() {
		_ = container.Delete(ctx, containerd.WithSnapshotCleanup)
	}()

	task, err := container.NewTask(ctx, cio.NewCreator(cio.WithStdio))
	if err != nil {
		return RunResult{}, fmt.Errorf("executor: create task: %w", err)
	}
	defer func() {
		_, _ = task.Delete(ctx)
	}()

	exitCh, err := task.Wait(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("executor: wait on task: %w", err)
	}

	start := time.Now()
	if err := task.Start(ctx); err != nil {
		return RunResult{}, fmt.Errorf("executor: start task: %w", err)
	}

	select {
	case <-ctx.Done():
		_ = task.Kill(ctx, 9)
		<-exitCh
		return RunResult{}, ctx.Err()
	case status := <-exitCh:
		code, _, statusErr := status.Result()
		if statusErr != nil {
			return RunResult{}, fmt.Errorf("executor: task exit status: %w", statusErr)
		}
		return RunResult{ExitCode: int(code), WallSeconds: time.Since(start).Seconds()}, nil
	}
}

// Close releases the containerd client connection.
func (s *ContainerSandbox) Close() error {
	return s.client.Close()
}
