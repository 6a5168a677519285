// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"sync"
	"time"
)

// Phase is one of the orchestrator's lifecycle states, per spec §4.7.
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseRegistering
	PhaseIdle
	PhaseWorking
	PhaseStopping
	PhaseError
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "Starting"
	case PhaseRegistering:
		return "Registering"
	case PhaseIdle:
		return "Idle"
	case PhaseWorking:
		return "Working"
	case PhaseStopping:
		return "Stopping"
	case PhaseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// State is the orchestrator's lifecycle state plus lifetime counters.
// Transitions: Starting -> Registering on socket open; Registering ->
// Idle on REGISTER_ACK; Idle -> Working on accepted TASK_ASSIGN;
// Working -> Idle on TASK_COMPLETE/TASK_FAILED; any -> Stopping on
// shutdown; any -> Error on unrecoverable fault (latches until
// restart).
type State struct {
	mu             sync.RWMutex
	phase          Phase
	currentTaskID  string
	tasksCompleted uint64
	tasksFailed    uint64
	startedAt      time.Time
}

// NewState creates a State in PhaseStarting.
func NewState() *State {
	return &State{phase: PhaseStarting, startedAt: time.Now()}
}

// Transition moves to phase unconditionally. Error latches: once in
// PhaseError, only a process restart (a fresh State) leaves it — this
// method still allows it for testing and for an explicit recovery path,
// but callers must not route normal traffic through an errored state.
func (s *State) Transition(phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// StartWorking transitions to Working(taskID).
func (s *State) StartWorking(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseWorking
	s.currentTaskID = taskID
}

// FinishWorking transitions back to Idle and records the outcome.
func (s *State) FinishWorking(succeeded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseIdle
	s.currentTaskID = ""
	if succeeded {
		s.tasksCompleted++
	} else {
		s.tasksFailed++
	}
}

// IsWorking reports whether a task execution is in flight. Only one
// execution future is live at a time (I2); this is the check
// TASK_ASSIGN handling uses to decide accept vs "busy".
func (s *State) IsWorking() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase == PhaseWorking
}

// CurrentTaskID returns the task ID in flight, or "" if idle.
func (s *State) CurrentTaskID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTaskID
}

// Counters is a snapshot of the lifetime task counters.
type Counters struct {
	TasksCompleted uint64
	TasksFailed    uint64
	UptimeSeconds  uint64
}

// Snapshot returns the current counters.
func (s *State) Snapshot() Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counters{
		TasksCompleted: s.tasksCompleted,
		TasksFailed:    s.tasksFailed,
		UptimeSeconds:  uint64(time.Since(s.startedAt).Seconds()),
	}
}

// StatusString renders the phase as the HEARTBEAT status vocabulary
// (Idle|Working|Error|Offline).
func (s *State) StatusString() string {
	switch s.Phase() {
	case PhaseWorking:
		return "Working"
	case PhaseError:
		return "Error"
	case PhaseStarting, PhaseRegistering, PhaseStopping:
		return "Offline"
	default:
		return "Idle"
	}
}
