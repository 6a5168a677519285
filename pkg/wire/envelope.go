// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package wire implements the agent-platform text-framed message
// protocol: a flat JSON envelope carrying a closed set of typed
// payloads over a single persistent connection.
package wire

import (
	"time"

	"github.com/google/uuid"
)

// MessageType is the closed-set discriminator carried by every envelope.
type MessageType string

const (
	TypeAuthChallenge      MessageType = "AUTH_CHALLENGE"
	TypeAuthResponse       MessageType = "AUTH_RESPONSE"
	TypeAuthSuccess        MessageType = "AUTH_SUCCESS"
	TypeAgentRegister      MessageType = "AGENT_REGISTER"
	TypeRegisterAck        MessageType = "REGISTER_ACK"
	TypeTaskAssign         MessageType = "TASK_ASSIGN"
	TypeTaskAccept         MessageType = "TASK_ACCEPT"
	TypeTaskReject         MessageType = "TASK_REJECT"
	TypeTaskProgress       MessageType = "TASK_PROGRESS"
	TypeTaskComplete       MessageType = "TASK_COMPLETE"
	TypeTaskFailed         MessageType = "TASK_FAILED"
	TypeHeartbeat          MessageType = "HEARTBEAT"
	TypeMetricsBatch       MessageType = "METRICS_BATCH"
	TypeEarningsRecord     MessageType = "EARNINGS_RECORD"
	TypePayoutNotification MessageType = "PAYOUT_NOTIFICATION"
	TypePowChallenge       MessageType = "POW_CHALLENGE"
	TypePowResponse        MessageType = "POW_RESPONSE"
	TypeError              MessageType = "ERROR"
	TypeStateSync          MessageType = "STATE_SYNC"
)

// EnvelopeHeader is embedded (anonymously) by every concrete message
// struct so encoding/json flattens it into the same JSON object as the
// payload fields, matching spec's "envelope and payload are flattened
// at the same JSON level".
type EnvelopeHeader struct {
	MessageID string      `json:"message_id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}

// Message is satisfied by every concrete envelope+payload struct in
// this package.
type Message interface {
	Header() *EnvelopeHeader
}

func (h *EnvelopeHeader) Header() *EnvelopeHeader { return h }

// newHeader builds a header for type t, ready for Encode to stamp with
// a fresh message_id/timestamp if left zero.
func newHeader(t MessageType) EnvelopeHeader {
	return EnvelopeHeader{Type: t}
}

// NewMessageID mints a fresh UUIDv4 message id.
func NewMessageID() string {
	return uuid.NewString()
}
