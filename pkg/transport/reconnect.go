// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"sync"
	"time"
)

// ReconnectState represents the lifecycle state of the reconnect strategy.
type ReconnectState int

const (
	// StateConnected means the last attempt succeeded and the backoff
	// counter has been reset.
	StateConnected ReconnectState = iota
	// StateBackingOff means a connect attempt failed and a delay is
	// pending before the next attempt.
	StateBackingOff
	// StateExhausted means the attempt cap has been reached; the caller
	// must treat this as a permanent failure.
	StateExhausted
)

// String implements fmt.Stringer.
func (s ReconnectState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateBackingOff:
		return "backing-off"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// StateChangeCallback is invoked whenever the reconnect strategy transitions
// state, e.g. to drive a metrics gauge.
type StateChangeCallback func(state ReconnectState, attempt int)

// ReconnectConfig configures the exponential-backoff reconnect strategy.
type ReconnectConfig struct {
	// Base is the base delay for attempt 0 (delay(n) = min(Base*2^n, Max)).
	Base time.Duration
	// Max caps the computed delay.
	Max time.Duration
	// MaxAttempts is the number of consecutive failures tolerated before
	// the strategy reports StateExhausted.
	MaxAttempts int
	// OnStateChange is called on every state transition (optional).
	OnStateChange StateChangeCallback
}

// DefaultReconnectConfig matches the delay sequence
// 1, 2, 4, 8, 16, 32, 64, 128, 256, 300, 300, ... with a cap of 10 attempts.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		Base:        1 * time.Second,
		Max:         300 * time.Second,
		MaxAttempts: 10,
	}
}

// Reconnect implements the Transport's single-connection exponential-backoff
// strategy. It is not a per-node circuit breaker: the Transport holds
// exactly one connection, so there is exactly one failure counter.
type Reconnect struct {
	mu      sync.Mutex
	cfg     ReconnectConfig
	attempt int
	state   ReconnectState
}

// NewReconnect creates a reconnect strategy with the given configuration.
func NewReconnect(cfg ReconnectConfig) *Reconnect {
	return &Reconnect{
		cfg:   cfg,
		state: StateConnected,
	}
}

// NextDelay returns the delay to wait before the next connect attempt and
// whether the strategy still permits an attempt. Calling NextDelay also
// advances the internal attempt counter; callers should call it once per
// failed connect, immediately before sleeping.
func (r *Reconnect) NextDelay() (delay time.Duration, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.attempt >= r.cfg.MaxAttempts {
		r.state = StateExhausted
		r.notify()
		return 0, false
	}

	delay = delayFor(r.cfg.Base, r.cfg.Max, r.attempt)
	r.attempt++
	r.state = StateBackingOff
	r.notify()
	return delay, true
}

// RecordSuccess resets the attempt counter on a successful authenticated
// connect, per spec: "reset to n=0 on any successful authenticated connect."
func (r *Reconnect) RecordSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempt = 0
	r.state = StateConnected
	r.notify()
}

// Attempt returns the current attempt count (number of consecutive
// failures observed since the last success).
func (r *Reconnect) Attempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempt
}

// State returns the current reconnect state.
func (r *Reconnect) State() ReconnectState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// notify calls the state-change callback, if configured. Caller must hold mu.
func (r *Reconnect) notify() {
	if r.cfg.OnStateChange != nil {
		r.cfg.OnStateChange(r.state, r.attempt)
	}
}

// delayFor computes delay(n) = min(base * 2^n, max).
func delayFor(base, max time.Duration, n int) time.Duration {
	if n > 62 {
		// 2^n would overflow int64 nanoseconds; saturate to max directly.
		return max
	}
	d := base * time.Duration(uint64(1)<<uint(n))
	if d <= 0 || d > max {
		return max
	}
	return d
}
