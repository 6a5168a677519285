// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnect_DelaySequence(t *testing.T) {
	r := NewReconnect(DefaultReconnectConfig())

	want := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 32 * time.Second, 64 * time.Second,
		128 * time.Second, 256 * time.Second, 300 * time.Second,
	}

	for i, w := range want {
		delay, ok := r.NextDelay()
		assert.True(t, ok, "attempt %d should still be permitted", i)
		assert.Equal(t, w, delay, "attempt %d delay", i)
	}

	// Eleventh attempt is permanently exhausted.
	_, ok := r.NextDelay()
	assert.False(t, ok)
	assert.Equal(t, StateExhausted, r.State())
}

func TestReconnect_ResetsOnSuccess(t *testing.T) {
	r := NewReconnect(DefaultReconnectConfig())

	delay, ok := r.NextDelay()
	assert.True(t, ok)
	assert.Equal(t, 1*time.Second, delay)

	r.RecordSuccess()
	assert.Equal(t, 0, r.Attempt())
	assert.Equal(t, StateConnected, r.State())

	delay, ok = r.NextDelay()
	assert.True(t, ok)
	assert.Equal(t, 1*time.Second, delay, "delay sequence restarts from n=0 after success")
}

func TestReconnect_StateChangeCallback(t *testing.T) {
	var states []ReconnectState
	cfg := DefaultReconnectConfig()
	cfg.OnStateChange = func(state ReconnectState, attempt int) {
		states = append(states, state)
	}
	r := NewReconnect(cfg)

	r.NextDelay()
	r.RecordSuccess()

	assert.Equal(t, []ReconnectState{StateBackingOff, StateConnected}, states)
}

func TestReconnectState_String(t *testing.T) {
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "backing-off", StateBackingOff.String())
	assert.Equal(t, "exhausted", StateExhausted.String())
}

func TestDefaultReconnectConfig(t *testing.T) {
	cfg := DefaultReconnectConfig()
	assert.Equal(t, 1*time.Second, cfg.Base)
	assert.Equal(t, 300*time.Second, cfg.Max)
	assert.Equal(t, 10, cfg.MaxAttempts)
}
