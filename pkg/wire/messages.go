// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orbanplatform/orban-agent/pkg/hal"
)

// AuthChallenge (S->A): random challenge nonce and platform timestamp.
type AuthChallenge struct {
	EnvelopeHeader
	Nonce           string    `json:"nonce"`
	PlatformTime    time.Time `json:"platform_time"`
}

func NewAuthChallenge(nonce string, platformTime time.Time) *AuthChallenge {
	return &AuthChallenge{EnvelopeHeader: newHeader(TypeAuthChallenge), Nonce: nonce, PlatformTime: platformTime}
}

// AuthResponse (A->S): agent_id, base64 signature, base64 public key.
type AuthResponse struct {
	EnvelopeHeader
	AgentID   string `json:"agent_id"`
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

func NewAuthResponse(agentID, signature, publicKey string) *AuthResponse {
	return &AuthResponse{EnvelopeHeader: newHeader(TypeAuthResponse), AgentID: agentID, Signature: signature, PublicKey: publicKey}
}

// AuthSuccess (S->A): bearer token and TTL seconds.
type AuthSuccess struct {
	EnvelopeHeader
	Token          string `json:"token"`
	ExpiresInSecs  int64  `json:"expires_in_seconds"`
}

func NewAuthSuccess(token string, expiresInSecs int64) *AuthSuccess {
	return &AuthSuccess{EnvelopeHeader: newHeader(TypeAuthSuccess), Token: token, ExpiresInSecs: expiresInSecs}
}

// Availability describes the agent's advertised uptime window and
// reliability. ReliabilityScore is carried per spec's availability
// struct but is never computed in the source this was distilled from
// (see DESIGN.md Open Question (c)); it is always 0 until a scoring
// algorithm is specified.
type Availability struct {
	HoursPerDay      float64 `json:"hours_per_day"`
	ReliabilityScore float64 `json:"reliability_score"`
}

// AgentRegister (A->S): hardware inventory, capabilities, location,
// availability.
type AgentRegister struct {
	EnvelopeHeader
	AgentID      string               `json:"agent_id"`
	Devices      []hal.DeviceSnapshot `json:"devices"`
	Host         *hal.HostInfo        `json:"host,omitempty"`
	Capabilities []string             `json:"capabilities"`
	Location     string               `json:"location,omitempty"`
	Availability Availability         `json:"availability"`
}

func NewAgentRegister(agentID string, devices []hal.DeviceSnapshot, host *hal.HostInfo, capabilities []string, location string, availability Availability) *AgentRegister {
	return &AgentRegister{
		EnvelopeHeader: newHeader(TypeAgentRegister),
		AgentID:        agentID,
		Devices:        devices,
		Host:           host,
		Capabilities:   capabilities,
		Location:       location,
		Availability:   availability,
	}
}

// RegisterAck (S->A): confirmation and pricing.
type RegisterAck struct {
	EnvelopeHeader
	Accepted bool             `json:"accepted"`
	Pricing  PricingDescriptor `json:"pricing,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}

func NewRegisterAck(accepted bool, pricing PricingDescriptor, reason string) *RegisterAck {
	return &RegisterAck{EnvelopeHeader: newHeader(TypeRegisterAck), Accepted: accepted, Pricing: pricing, Reason: reason}
}

// PricingDescriptor carries fixed-point decimal rate fields; never
// float, per spec §3/§6.
type PricingDescriptor struct {
	BaseRateUSDPerHour decimal.Decimal `json:"base_rate_usd_per_hour"`
	Multiplier         decimal.Decimal `json:"multiplier"`
	EffectiveRate      decimal.Decimal `json:"effective_rate"`
}

// Requirements mirrors hal.Requirements on the wire.
type Requirements struct {
	MinVRAMGB           float64 `json:"min_vram_gb"`
	MinComputeCapability string `json:"min_compute_capability"`
	Framework           string  `json:"framework"`
	RequiresFP16        bool    `json:"requires_fp16"`
}

// Payload describes the task's model/input/output and opaque config.
type Payload struct {
	ModelURL      string          `json:"model_url"`
	ModelSHA256   string          `json:"model_sha256"`
	InputURL      string          `json:"input_url"`
	OutputUploadURL string        `json:"output_upload_url"`
	Config        json.RawMessage `json:"config,omitempty"`
}

// Task is the full task descriptor carried by TASK_ASSIGN.
type Task struct {
	TaskID           string            `json:"task_id"`
	JobID            string            `json:"job_id"`
	Requirements     Requirements      `json:"requirements"`
	Payload          Payload           `json:"payload"`
	EstimatedSeconds uint64            `json:"estimated_duration_seconds"`
	Priority         uint32            `json:"priority"`
	Pricing          PricingDescriptor `json:"pricing"`
	CreatedAt        time.Time         `json:"created_at"`
}

// TaskAssign (S->A): full task descriptor.
type TaskAssign struct {
	EnvelopeHeader
	Task Task `json:"task"`
}

func NewTaskAssign(task Task) *TaskAssign {
	return &TaskAssign{EnvelopeHeader: newHeader(TypeTaskAssign), Task: task}
}

// TaskAccept (A->S).
type TaskAccept struct {
	EnvelopeHeader
	TaskID string `json:"task_id"`
}

func NewTaskAccept(taskID string) *TaskAccept {
	return &TaskAccept{EnvelopeHeader: newHeader(TypeTaskAccept), TaskID: taskID}
}

// TaskReject (A->S) with reason, e.g. "insufficient_resources" or "busy".
type TaskReject struct {
	EnvelopeHeader
	TaskID string `json:"task_id"`
	Reason string `json:"reason"`
}

func NewTaskReject(taskID, reason string) *TaskReject {
	return &TaskReject{EnvelopeHeader: newHeader(TypeTaskReject), TaskID: taskID, Reason: reason}
}

// TaskProgress (A->S): periodic progress.
type TaskProgress struct {
	EnvelopeHeader
	TaskID   string             `json:"task_id"`
	Fraction float64            `json:"fraction"`
	Stage    string             `json:"stage"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// ExecutionMetrics is the per-GPU execution metrics block of TaskResult.
type ExecutionMetrics struct {
	AvgUtilization float64 `json:"avg_utilization"`
	PeakMemoryBytes uint64 `json:"peak_memory_bytes"`
	EnergyKWh      float64 `json:"energy_kwh"`
}

// TaskResult is the output descriptor in TASK_COMPLETE.
type TaskResult struct {
	OutputURL       string           `json:"output_url"`
	OutputSHA256    string           `json:"output_sha256"`
	WallTimeSeconds float64          `json:"wall_time_seconds"`
	GPUTimeSeconds  float64          `json:"gpu_time_seconds"`
	Metrics         ExecutionMetrics `json:"metrics"`
}

// GPUSignature binds a proof to the device that produced it.
type GPUSignature struct {
	DeviceUUID        string `json:"device_uuid"`
	DeviceModel       string `json:"device_model"`
	CUDAVersion       string `json:"cuda_version,omitempty"`
	ComputeCapability string `json:"compute_capability,omitempty"`
}

// ProofMetadata captures device model, VRAM, and elapsed GPU time.
type ProofMetadata struct {
	DeviceModel    string  `json:"device_model"`
	VRAMTotalBytes uint64  `json:"vram_total_bytes"`
	GPUTimeSeconds float64 `json:"gpu_time_seconds"`
}

// ProofOfWork is the `{challenge, response, gpu_signature, timestamp,
// metadata?}` proof object per spec §4.6. GPUSignatureHash carries the
// spec's exact hex(SHA-256(hardware_id || device_name ||
// gpu_time_seconds)) formula; GPUSignature additionally enriches the
// proof with the device identity fields that went into that hash, so a
// platform-side verifier can recompute it without a separate device
// lookup.
type ProofOfWork struct {
	Challenge        string         `json:"challenge"`
	Response         string         `json:"response"`
	GPUSignatureHash string         `json:"gpu_signature"`
	GPUSignature     GPUSignature   `json:"gpu_signature_device"`
	Timestamp        time.Time      `json:"timestamp"`
	Metadata         *ProofMetadata `json:"metadata,omitempty"`
}

// TaskComplete (A->S): result + proof.
type TaskComplete struct {
	EnvelopeHeader
	TaskID string      `json:"task_id"`
	Result TaskResult  `json:"result"`
	Proof  ProofOfWork `json:"proof"`
}

func NewTaskComplete(taskID string, result TaskResult, proof ProofOfWork) *TaskComplete {
	return &TaskComplete{EnvelopeHeader: newHeader(TypeTaskComplete), TaskID: taskID, Result: result, Proof: proof}
}

// TaskFailed (A->S): structured error.
type TaskFailed struct {
	EnvelopeHeader
	TaskID string    `json:"task_id"`
	Error  ErrorInfo `json:"error"`
}

func NewTaskFailed(taskID string, errInfo ErrorInfo) *TaskFailed {
	return &TaskFailed{EnvelopeHeader: newHeader(TypeTaskFailed), TaskID: taskID, Error: errInfo}
}

// ErrorInfo is the structured error body shared by TASK_FAILED and
// standalone ERROR messages.
type ErrorInfo struct {
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	Context     map[string]any `json:"context,omitempty"`
	Recoverable bool           `json:"recoverable"`
}

// Heartbeat (A->S): liveness + device status vector.
type Heartbeat struct {
	EnvelopeHeader
	Status        string               `json:"status"` // Idle|Working|Error|Offline
	CurrentTaskID string               `json:"current_task_id,omitempty"`
	Devices       []hal.DeviceSnapshot `json:"devices"`
	UptimeSeconds uint64               `json:"uptime_seconds"`
}

func NewHeartbeat(status, currentTaskID string, devices []hal.DeviceSnapshot) *Heartbeat {
	return &Heartbeat{EnvelopeHeader: newHeader(TypeHeartbeat), Status: status, CurrentTaskID: currentTaskID, Devices: devices}
}

// MetricsBatch (A->S): aggregated window metrics.
type MetricsBatch struct {
	EnvelopeHeader
	WindowStart time.Time          `json:"window_start"`
	WindowEnd   time.Time          `json:"window_end"`
	Metrics     map[string]float64 `json:"metrics"`
}

// EarningsStatus is the closed status set for an earnings history entry.
type EarningsStatus string

const (
	EarningsPending   EarningsStatus = "Pending"
	EarningsConfirmed EarningsStatus = "Confirmed"
	EarningsPaid      EarningsStatus = "Paid"
)

// EarningsEntry is one row of the earnings history.
type EarningsEntry struct {
	Timestamp   time.Time       `json:"timestamp"`
	TaskID      string          `json:"task_id"`
	GPUHours    float64         `json:"gpu_hours"`
	RatePerHour decimal.Decimal `json:"rate_per_hour"`
	Amount      decimal.Decimal `json:"amount"`
	Status      EarningsStatus  `json:"status"`
}

// EarningsRecord (S->A): authoritative earnings entry.
type EarningsRecord struct {
	EnvelopeHeader
	Entry EarningsEntry `json:"entry"`
}

func NewEarningsRecord(entry EarningsEntry) *EarningsRecord {
	return &EarningsRecord{EnvelopeHeader: newHeader(TypeEarningsRecord), Entry: entry}
}

// PayoutNotification (S->A): settlement summary.
type PayoutNotification struct {
	EnvelopeHeader
	Amount      decimal.Decimal `json:"amount"`
	SettledAt   time.Time       `json:"settled_at"`
	PayoutID    string          `json:"payout_id"`
}

// PowChallenge (S->A).
type PowChallenge struct {
	EnvelopeHeader
	ChallengeID string    `json:"challenge_id"`
	Nonce       string    `json:"nonce"` // base64
	Difficulty  uint32    `json:"difficulty"`
	Deadline    time.Time `json:"deadline"`
}

func NewPowChallenge(challengeID, nonce string, difficulty uint32, deadline time.Time) *PowChallenge {
	return &PowChallenge{
		EnvelopeHeader: newHeader(TypePowChallenge),
		ChallengeID:    challengeID,
		Nonce:          nonce,
		Difficulty:     difficulty,
		Deadline:       deadline,
	}
}

// PowResponse (A->S).
type PowResponse struct {
	EnvelopeHeader
	ChallengeID   string       `json:"challenge_id"`
	Hash          string       `json:"hash"` // hex, 32 bytes
	SolutionNonce uint64       `json:"solution_nonce"`
	ElapsedMS     int64        `json:"elapsed_ms"`
	GPUSignature  GPUSignature `json:"gpu_signature"`
}

func NewPowResponse(challengeID, hash string, solutionNonce uint64, elapsedMS int64, sig GPUSignature) *PowResponse {
	return &PowResponse{
		EnvelopeHeader: newHeader(TypePowResponse),
		ChallengeID:    challengeID,
		Hash:           hash,
		SolutionNonce:  solutionNonce,
		ElapsedMS:      elapsedMS,
		GPUSignature:   sig,
	}
}

// ErrorMessage is the standalone ERROR envelope (either direction).
type ErrorMessage struct {
	EnvelopeHeader
	ErrorInfo
}

func NewErrorMessage(code, message string, recoverable bool) *ErrorMessage {
	return &ErrorMessage{
		EnvelopeHeader: newHeader(TypeError),
		ErrorInfo:      ErrorInfo{Code: code, Message: message, Recoverable: recoverable},
	}
}

// StateSync (S<->A): reconciliation after reconnect.
type StateSync struct {
	EnvelopeHeader
	AgentState    map[string]any `json:"agent_state,omitempty"`
	PlatformState map[string]any `json:"platform_state,omitempty"`
}
