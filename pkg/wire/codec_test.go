// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbanplatform/orban-agent/pkg/hal"
)

func TestEncode_StampsMessageIDAndTimestamp(t *testing.T) {
	msg := NewTaskAccept("task-1")
	require.Empty(t, msg.MessageID)

	data, err := Encode(msg)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.MessageID)
	assert.False(t, msg.Timestamp.IsZero())
	assert.Contains(t, string(data), `"type":"TASK_ACCEPT"`)
}

func TestEncode_DoesNotOverwriteExistingHeader(t *testing.T) {
	msg := NewTaskAccept("task-1")
	msg.MessageID = "fixed-id"
	fixedTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	msg.Timestamp = fixedTime

	_, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", msg.MessageID)
	assert.Equal(t, fixedTime, msg.Timestamp)
}

func TestRoundTrip_AllMessageTypes(t *testing.T) {
	fixedTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	util := 0.5

	messages := []Message{
		NewAuthChallenge("bm9uY2U=", fixedTime),
		NewAuthResponse("agent-abc", "c2ln", "cHVi"),
		&AuthSuccess{EnvelopeHeader: newHeader(TypeAuthSuccess), Token: "tok", ExpiresInSecs: 3600},
		NewAgentRegister("agent-abc", []hal.DeviceSnapshot{{Index: 0, Vendor: hal.VendorNVIDIA, UtilizationFrac: &util}}, &hal.HostInfo{CPUCores: 8}, []string{"fp16"}, "us-east", Availability{HoursPerDay: 12}),
		&RegisterAck{EnvelopeHeader: newHeader(TypeRegisterAck), Accepted: true, Pricing: PricingDescriptor{BaseRateUSDPerHour: decimal.NewFromFloat(1.5)}},
		&TaskAssign{EnvelopeHeader: newHeader(TypeTaskAssign), Task: Task{TaskID: "t1", JobID: "j1", CreatedAt: fixedTime}},
		NewTaskAccept("t1"),
		NewTaskReject("t1", "insufficient_resources"),
		&TaskProgress{EnvelopeHeader: newHeader(TypeTaskProgress), TaskID: "t1", Fraction: 0.3, Stage: "download"},
		&TaskComplete{EnvelopeHeader: newHeader(TypeTaskComplete), TaskID: "t1", Proof: ProofOfWork{Challenge: "c", Response: "r", Timestamp: fixedTime}},
		&TaskFailed{EnvelopeHeader: newHeader(TypeTaskFailed), TaskID: "t1", Error: ErrorInfo{Code: "TIMEOUT", Recoverable: false}},
		&Heartbeat{EnvelopeHeader: newHeader(TypeHeartbeat), Status: "Idle", UptimeSeconds: 42},
		&MetricsBatch{EnvelopeHeader: newHeader(TypeMetricsBatch), WindowStart: fixedTime, WindowEnd: fixedTime, Metrics: map[string]float64{"avg_util": 0.5}},
		&EarningsRecord{EnvelopeHeader: newHeader(TypeEarningsRecord), Entry: EarningsEntry{TaskID: "t1", Amount: decimal.NewFromFloat(1.25), Status: EarningsConfirmed, Timestamp: fixedTime}},
		&PayoutNotification{EnvelopeHeader: newHeader(TypePayoutNotification), Amount: decimal.NewFromFloat(10), SettledAt: fixedTime, PayoutID: "p1"},
		&PowChallenge{EnvelopeHeader: newHeader(TypePowChallenge), ChallengeID: "c1", Nonce: "bm9uY2U=", Difficulty: 8, Deadline: fixedTime},
		&PowResponse{EnvelopeHeader: newHeader(TypePowResponse), ChallengeID: "c1", Hash: "deadbeef", SolutionNonce: 7, ElapsedMS: 120},
		NewErrorMessage("VALIDATION_FAILED", "bad input", false),
		&StateSync{EnvelopeHeader: newHeader(TypeStateSync), AgentState: map[string]any{"tasks_completed": float64(3)}},
	}

	for _, original := range messages {
		data, err := Encode(original)
		require.NoError(t, err)

		decoded, err := Decode(data)
		require.NoError(t, err)

		diff := cmp.Diff(original, decoded)
		assert.Empty(t, diff, "round-trip mismatch for %T", original)
	}
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"NOT_A_REAL_TYPE"}`))
	assert.Error(t, err)
}

func TestDecode_MissingType(t *testing.T) {
	_, err := Decode([]byte(`{}`))
	assert.Error(t, err)
}

func TestPeekType(t *testing.T) {
	data, err := Encode(NewTaskAccept("t1"))
	require.NoError(t, err)

	typ, err := PeekType(data)
	require.NoError(t, err)
	assert.Equal(t, TypeTaskAccept, typ)
}
