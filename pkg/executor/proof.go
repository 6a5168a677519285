// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Proof is the per-task proof-of-work bundle attached to TASK_COMPLETE,
// mirroring wire.ProofOfWork without importing pkg/wire directly so the
// hash chain can be unit tested in isolation.
type Proof struct {
	Challenge    string
	Response     string
	GPUSignature string
	Timestamp    time.Time
	DeviceModel  string
	VRAMTotal    uint64
	GPUTimeSecs  float64
}

// sha256Hex hashes the concatenation of parts and returns the hex digest.
func sha256Hex(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// BuildChallenge computes the placeholder challenge the agent uses until
// the platform issues its own: hex(SHA-256(task_id || created_at_rfc3339)).
// See DESIGN.md Open Question (a).
func BuildChallenge(taskID string, createdAt time.Time) string {
	return sha256Hex(taskID, createdAt.UTC().Format(time.RFC3339))
}

// BuildProof computes the full {challenge, response, gpu_signature}
// chain per spec §4.6:
//
//	response      = hex(SHA-256(challenge || result_blob || hardware_id))
//	gpu_signature = hex(SHA-256(hardware_id || device_model || gpu_time_seconds))
func BuildProof(taskID string, createdAt time.Time, resultBlob, hardwareID, deviceModel string, vramTotal uint64, gpuTimeSecs float64) Proof {
	challenge := BuildChallenge(taskID, createdAt)
	response := sha256Hex(challenge, resultBlob, hardwareID)
	gpuSignature := sha256Hex(hardwareID, deviceModel, fmt.Sprintf("%g", gpuTimeSecs))

	return Proof{
		Challenge:    challenge,
		Response:     response,
		GPUSignature: gpuSignature,
		Timestamp:    time.Now().UTC(),
		DeviceModel:  deviceModel,
		VRAMTotal:    vramTotal,
		GPUTimeSecs:  gpuTimeSecs,
	}
}
