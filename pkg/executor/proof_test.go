// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildChallenge_MatchesFormula(t *testing.T) {
	createdAt := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	got := BuildChallenge("task-123", createdAt)

	h := sha256.Sum256([]byte("task-123" + createdAt.Format(time.RFC3339)))
	want := hex.EncodeToString(h[:])

	assert.Equal(t, want, got)
}

func TestBuildChallenge_Deterministic(t *testing.T) {
	createdAt := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, BuildChallenge("t1", createdAt), BuildChallenge("t1", createdAt))
}

func TestBuildProof_ResponseMatchesFormula(t *testing.T) {
	createdAt := time.Now().UTC()
	proof := BuildProof("task-1", createdAt, "result-blob", "hw-uuid-1", "A100", 40<<30, 12.5)

	h := sha256.Sum256([]byte(proof.Challenge + "result-blob" + "hw-uuid-1"))
	want := hex.EncodeToString(h[:])

	assert.Equal(t, want, proof.Response)
}

func TestBuildProof_GPUSignatureMatchesFormula(t *testing.T) {
	createdAt := time.Now().UTC()
	proof := BuildProof("task-1", createdAt, "blob", "hw-uuid-1", "A100", 40<<30, 12.5)

	h := sha256.Sum256([]byte("hw-uuid-1" + "A100" + fmt.Sprintf("%g", 12.5)))
	want := hex.EncodeToString(h[:])

	assert.Equal(t, want, proof.GPUSignature)
}

func TestBuildProof_DifferentResultBlobsProduceDifferentResponses(t *testing.T) {
	createdAt := time.Now().UTC()
	p1 := BuildProof("task-1", createdAt, "blob-a", "hw", "model", 0, 1)
	p2 := BuildProof("task-1", createdAt, "blob-b", "hw", "model", 0, 1)

	assert.NotEqual(t, p1.Response, p2.Response)
	assert.Equal(t, p1.Challenge, p2.Challenge, "challenge does not depend on the result blob")
}
