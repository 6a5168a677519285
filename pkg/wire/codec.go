// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Encode stamps m's header with a fresh message_id/timestamp if either
// is zero-valued, then serializes it as flat JSON.
func Encode(m Message) ([]byte, error) {
	h := m.Header()
	if h.MessageID == "" {
		h.MessageID = NewMessageID()
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	}
	return json.Marshal(m)
}

// typeProbe reads only the discriminator field, enough to pick which
// concrete struct Decode should unmarshal the rest of data into.
type typeProbe struct {
	Type MessageType `json:"type"`
}

// PeekType returns the envelope's type tag without fully decoding the
// payload.
func PeekType(data []byte) (MessageType, error) {
	var probe typeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("wire: peek type: %w", err)
	}
	if probe.Type == "" {
		return "", fmt.Errorf("wire: missing type tag")
	}
	return probe.Type, nil
}

// Decode dispatches on the envelope's type tag and unmarshals data into
// the matching concrete message struct, returned as a Message. Returns
// an error for any type outside the closed set in this package.
func Decode(data []byte) (Message, error) {
	t, err := PeekType(data)
	if err != nil {
		return nil, err
	}

	out, err := newMessageForType(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("wire: decode %s: %w", t, err)
	}
	return out, nil
}

func newMessageForType(t MessageType) (Message, error) {
	switch t {
	case TypeAuthChallenge:
		return &AuthChallenge{}, nil
	case TypeAuthResponse:
		return &AuthResponse{}, nil
	case TypeAuthSuccess:
		return &AuthSuccess{}, nil
	case TypeAgentRegister:
		return &AgentRegister{}, nil
	case TypeRegisterAck:
		return &RegisterAck{}, nil
	case TypeTaskAssign:
		return &TaskAssign{}, nil
	case TypeTaskAccept:
		return &TaskAccept{}, nil
	case TypeTaskReject:
		return &TaskReject{}, nil
	case TypeTaskProgress:
		return &TaskProgress{}, nil
	case TypeTaskComplete:
		return &TaskComplete{}, nil
	case TypeTaskFailed:
		return &TaskFailed{}, nil
	case TypeHeartbeat:
		return &Heartbeat{}, nil
	case TypeMetricsBatch:
		return &MetricsBatch{}, nil
	case TypeEarningsRecord:
		return &EarningsRecord{}, nil
	case TypePayoutNotification:
		return &PayoutNotification{}, nil
	case TypePowChallenge:
		return &PowChallenge{}, nil
	case TypePowResponse:
		return &PowResponse{}, nil
	case TypeError:
		return &ErrorMessage{}, nil
	case TypeStateSync:
		return &StateSync{}, nil
	default:
		return nil, fmt.Errorf("wire: unknown message type %q", t)
	}
}
