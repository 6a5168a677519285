// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package executor runs one task end to end: device selection, content-
// addressed download, sandboxed execution, result upload, and
// proof-of-work generation.
package executor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orbanplatform/orban-agent/pkg/hal"
	"github.com/orbanplatform/orban-agent/pkg/wire"
)

// Failure is a task failure tagged with the code the orchestrator reports
// in TASK_FAILED, per spec §4.6's failure taxonomy.
type Failure struct {
	Code        string
	Err         error
	Recoverable bool
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %v", f.Code, f.Err) }
func (f *Failure) Unwrap() error { return f.Err }

func fail(code string, recoverable bool, err error) *Failure {
	return &Failure{Code: code, Err: err, Recoverable: recoverable}
}

// Executor orchestrates one task at a time: select device, download,
// sandbox, upload, prove.
type Executor struct {
	detector   *hal.Detector
	downloader *Downloader
	sandbox    Sandbox
	uploadHTTP *http.Client
	log        *logrus.Entry
}

// New creates an Executor over detector that fetches task resources
// through downloader and runs tasks in sandbox.
func New(detector *hal.Detector, downloader *Downloader, sandbox Sandbox, log *logrus.Entry) *Executor {
	return &Executor{
		detector:   detector,
		downloader: downloader,
		sandbox:    sandbox,
		uploadHTTP: &http.Client{Timeout: 300 * time.Second},
		log:        log,
	}
}

// Run executes task to completion, returning the TASK_COMPLETE payload
// on success or a *Failure describing the TASK_FAILED reason. ctx
// cancellation is observed cooperatively at the download, sandbox, and
// upload boundaries per spec §5.
func (e *Executor) Run(ctx context.Context, task wire.Task) (wire.TaskResult, wire.ProofOfWork, error) {
	req := hal.Requirements{
		MinVRAMGB:            task.Requirements.MinVRAMGB,
		MinComputeCapability: task.Requirements.MinComputeCapability,
		Framework:            task.Requirements.Framework,
		RequiresFP16:         task.Requirements.RequiresFP16,
	}

	device, err := e.detector.SelectBest(ctx, req)
	if err != nil {
		return wire.TaskResult{}, wire.ProofOfWork{}, fail("NoGpuFound", false, err)
	}

	modelPath, err := e.downloader.Fetch(ctx, task.Payload.ModelURL, task.TaskID+"-model", task.Payload.ModelSHA256)
	if err != nil {
		return wire.TaskResult{}, wire.ProofOfWork{}, fail("DownloadFailed", false, err)
	}
	inputPath, err := e.downloader.Fetch(ctx, task.Payload.InputURL, task.TaskID+"-input", "")
	if err != nil {
		return wire.TaskResult{}, wire.ProofOfWork{}, fail("DownloadFailed", false, err)
	}

	outputDir, err := os.MkdirTemp("", "orban-task-"+task.TaskID+"-*")
	if err != nil {
		return wire.TaskResult{}, wire.ProofOfWork{}, fail("Internal", false, err)
	}
	defer os.RemoveAll(outputDir)
	outputPath := filepath.Join(outputDir, "output.bin")

	runResult, err := e.sandbox.Run(ctx, RunSpec{
		TaskID:     task.TaskID,
		ModelPath:  modelPath,
		InputPath:  inputPath,
		OutputPath: outputPath,
	})
	if err != nil {
		if ctx.Err() != nil {
			return wire.TaskResult{}, wire.ProofOfWork{}, fail("TaskTimeout", false, err)
		}
		return wire.TaskResult{}, wire.ProofOfWork{}, fail("SandboxFailed", false, err)
	}
	if runResult.ExitCode != 0 {
		return wire.TaskResult{}, wire.ProofOfWork{}, fail("SandboxFailed", false,
			fmt.Errorf("sandbox exited with code %d", runResult.ExitCode))
	}

	outputChecksum, err := sha256File(outputPath)
	if err != nil {
		return wire.TaskResult{}, wire.ProofOfWork{}, fail("Internal", false, err)
	}

	outputURL, err := e.upload(ctx, task.Payload.OutputUploadURL, outputPath)
	if err != nil {
		return wire.TaskResult{}, wire.ProofOfWork{}, fail("UploadFailed", true, err)
	}

	result := wire.TaskResult{
		OutputURL:       outputURL,
		OutputSHA256:    outputChecksum,
		WallTimeSeconds: runResult.WallSeconds,
		GPUTimeSeconds:  runResult.WallSeconds,
	}

	proof, err := e.buildProof(ctx, task, device, result, outputChecksum)
	if err != nil {
		return wire.TaskResult{}, wire.ProofOfWork{}, fail("Internal", false, err)
	}

	return result, proof, nil
}

func (e *Executor) buildProof(ctx context.Context, task wire.Task, device hal.GPUDevice, result wire.TaskResult, resultBlob string) (wire.ProofOfWork, error) {
	hardwareID, err := device.UUID(ctx)
	if err != nil {
		return wire.ProofOfWork{}, fmt.Errorf("executor: device UUID unavailable for proof: %w", err)
	}
	model, _ := device.Model(ctx)
	computeCap, _ := device.ComputeCapability(ctx)
	cudaVersion, _ := device.CUDAVersion(ctx)

	var vramTotal uint64
	if mem, err := device.Memory(ctx); err == nil {
		vramTotal = mem.TotalBytes
	}

	p := BuildProof(task.TaskID, task.CreatedAt, resultBlob, hardwareID, model, vramTotal, result.GPUTimeSeconds)

	return wire.ProofOfWork{
		Challenge:        p.Challenge,
		Response:         p.Response,
		GPUSignatureHash: p.GPUSignature,
		GPUSignature: wire.GPUSignature{
			DeviceUUID:        hardwareID,
			DeviceModel:       model,
			CUDAVersion:       cudaVersion,
			ComputeCapability: computeCap,
		},
		Timestamp: p.Timestamp,
		Metadata: &wire.ProofMetadata{
			DeviceModel:    model,
			VRAMTotalBytes: vramTotal,
			GPUTimeSeconds: result.GPUTimeSeconds,
		},
	}, nil
}

// upload PUTs the file at path to uploadURL and returns the URL the
// platform should use to retrieve it (the upload URL itself, in the
// common pre-signed-URL pattern).
func (e *Executor) upload(ctx context.Context, uploadURL, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("executor: reading output for upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("executor: building upload request: %w", err)
	}

	resp, err := e.uploadHTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("executor: upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("executor: upload rejected with status %d: %s", resp.StatusCode, body)
	}

	return uploadURL, nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
