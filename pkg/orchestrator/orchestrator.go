// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator owns the agent's full lifecycle: connect and
// register, fan in inbound messages/execution completions/shutdown
// over a single event loop, and drive reconnection on connection loss.
// See spec §4.7.
package orchestrator

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orbanplatform/orban-agent/pkg/auth"
	"github.com/orbanplatform/orban-agent/pkg/earnings"
	"github.com/orbanplatform/orban-agent/pkg/executor"
	"github.com/orbanplatform/orban-agent/pkg/hal"
	"github.com/orbanplatform/orban-agent/pkg/metrics"
	"github.com/orbanplatform/orban-agent/pkg/pow"
	"github.com/orbanplatform/orban-agent/pkg/transport"
	"github.com/orbanplatform/orban-agent/pkg/wire"
)

const (
	sendTimeout    = 10 * time.Second
	connectTimeout = transport.ConnectTimeout
)

// Config bundles the identity and descriptive fields Orchestrator needs
// to build AGENT_REGISTER and HEARTBEAT payloads.
type Config struct {
	Capabilities       []string
	Location           string
	AvailabilityHours  float64
	HeartbeatInterval  time.Duration
	EarningsStorePath  string
}

// Orchestrator wires Transport, HAL, Executor, and Earnings together
// behind the lifecycle state machine.
type Orchestrator struct {
	client    *transport.Client
	reconnect *transport.Reconnect
	heartbeat *transport.HeartbeatScheduler
	detector  *hal.Detector
	monitor   *hal.Monitor
	exec      *executor.Executor
	tracker   *earnings.Tracker
	keypair   *auth.Keypair
	log       *logrus.Entry
	state     *State
	cfg       Config
}

// New creates an Orchestrator. Callers must have already called
// detector.Detect(ctx) before Run.
func New(
	client *transport.Client,
	detector *hal.Detector,
	monitor *hal.Monitor,
	exec *executor.Executor,
	tracker *earnings.Tracker,
	keypair *auth.Keypair,
	log *logrus.Entry,
	cfg Config,
) *Orchestrator {
	reconnectCfg := transport.DefaultReconnectConfig()
	reconnectCfg.OnStateChange = func(state transport.ReconnectState, attempt int) {
		metrics.ConnectionState.Set(metrics.ConnectionStateValue(reconnectMetricsState(state)))
		if state == transport.StateBackingOff {
			metrics.ReconnectAttempts.Inc()
		}
	}

	o := &Orchestrator{
		client:    client,
		reconnect: transport.NewReconnect(reconnectCfg),
		detector:  detector,
		monitor:   monitor,
		exec:      exec,
		tracker:   tracker,
		keypair:   keypair,
		log:       log,
		state:     NewState(),
		cfg:       cfg,
	}
	o.heartbeat = transport.NewHeartbeatScheduler(client, log, cfg.HeartbeatInterval)
	return o
}

// executionResult is what the execution future posts back to the event
// loop on completion.
type executionResult struct {
	taskID string
	result wire.TaskResult
	proof  wire.ProofOfWork
	err    error
}

// Run drives the orchestrator's full lifecycle until ctx is cancelled
// or a permanent (unrecoverable) fault occurs.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.state.Transition(PhaseRegistering)
	if err := o.connect(ctx); err != nil {
		o.state.Transition(PhaseError)
		return fmt.Errorf("orchestrator: initial connect failed: %w", err)
	}
	o.state.Transition(PhaseIdle)

	heartbeatCtx, cancelHeartbeat := context.WithCancel(ctx)
	defer cancelHeartbeat()
	go o.heartbeat.Run(heartbeatCtx, o.buildHeartbeat)

	if o.monitor != nil {
		monitorCtx, cancelMonitor := context.WithCancel(ctx)
		defer cancelMonitor()
		go o.monitor.Run(monitorCtx)
	}

	execDone := make(chan executionResult, 1)
	inbound := make(chan wire.Message)
	recvErr := make(chan error, 1)
	go o.receiveLoop(ctx, inbound, recvErr)

	for {
		select {
		case <-ctx.Done():
			o.state.Transition(PhaseStopping)
			o.shutdown()
			return ctx.Err()

		case msg := <-inbound:
			o.handleMessage(ctx, msg, execDone)

		case res := <-execDone:
			o.handleExecutionResult(ctx, res)

		case err := <-recvErr:
			o.log.WithError(err).Warn("connection lost, reconnecting")
			if recErr := o.reconnectLoop(ctx); recErr != nil {
				o.state.Transition(PhaseError)
				return recErr
			}
			go o.receiveLoop(ctx, inbound, recvErr)
		}
	}
}

// connect performs the initial dial plus handshake.
func (o *Orchestrator) connect(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	_, err := o.client.Connect(connectCtx, o.buildRegister)
	if err != nil {
		return err
	}
	o.reconnect.RecordSuccess()
	return nil
}

// reconnectLoop retries Connect with exponential backoff until it
// succeeds or the reconnect strategy is exhausted (ten consecutive
// failures), per spec §4.4.
func (o *Orchestrator) reconnectLoop(ctx context.Context) error {
	for {
		delay, ok := o.reconnect.NextDelay()
		if !ok {
			return fmt.Errorf("orchestrator: reconnect attempts exhausted, exiting for supervisor restart")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := o.connect(ctx); err != nil {
			o.log.WithError(err).WithField("attempt", o.reconnect.Attempt()).Warn("reconnect attempt failed")
			continue
		}
		o.log.Info("reconnected")
		return nil
	}
}

// receiveLoop forwards every decoded inbound message to out, or a
// single error to errc on a fatal read failure. It then exits: Run
// restarts it after a successful reconnect.
func (o *Orchestrator) receiveLoop(ctx context.Context, out chan<- wire.Message, errc chan<- error) {
	for {
		msg, err := o.client.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case errc <- err:
			case <-ctx.Done():
			}
			return
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (o *Orchestrator) handleMessage(ctx context.Context, msg wire.Message, execDone chan<- executionResult) {
	switch m := msg.(type) {
	case *wire.TaskAssign:
		o.handleTaskAssign(ctx, m.Task, execDone)
	case *wire.PowChallenge:
		go o.handlePowChallenge(ctx, m)
	case *wire.EarningsRecord:
		o.handleEarningsRecord(m)
	case *wire.StateSync:
		o.log.WithField("agent_state_keys", len(m.AgentState)).Debug("received STATE_SYNC")
	case *wire.ErrorMessage:
		o.log.WithFields(logrus.Fields{"code": m.Code, "message": m.Message}).Warn("platform reported ERROR")
	case *wire.PayoutNotification:
		o.log.WithFields(logrus.Fields{"amount": m.Amount, "payout_id": m.PayoutID}).Info("received PAYOUT_NOTIFICATION")
	default:
		o.log.WithField("type", fmt.Sprintf("%T", msg)).Warn("received unhandled message type")
	}
}

func (o *Orchestrator) handleTaskAssign(ctx context.Context, task wire.Task, execDone chan<- executionResult) {
	if o.state.IsWorking() {
		o.send(ctx, wire.NewTaskReject(task.TaskID, "busy"))
		metrics.RecordTaskOutcome("rejected", 0)
		return
	}
	if !o.canAccept(ctx, task.Requirements) {
		o.send(ctx, wire.NewTaskReject(task.TaskID, "insufficient_resources"))
		metrics.RecordTaskOutcome("rejected", 0)
		return
	}

	o.state.StartWorking(task.TaskID)
	o.send(ctx, wire.NewTaskAccept(task.TaskID))

	go func() {
		result, proof, err := o.exec.Run(ctx, task)
		select {
		case execDone <- executionResult{taskID: task.TaskID, result: result, proof: proof, err: err}:
		case <-ctx.Done():
		}
	}()
}

// canAccept reports whether any known device meets req, per spec's
// can_accept(t.requirements) gate.
func (o *Orchestrator) canAccept(ctx context.Context, req wire.Requirements) bool {
	halReq := hal.Requirements{
		MinVRAMGB:            req.MinVRAMGB,
		MinComputeCapability: req.MinComputeCapability,
		Framework:            req.Framework,
		RequiresFP16:         req.RequiresFP16,
	}
	for _, dev := range o.detector.Devices() {
		if o.detector.MeetsRequirements(ctx, dev, halReq) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) handleExecutionResult(ctx context.Context, res executionResult) {
	if res.err != nil {
		o.log.WithError(res.err).WithField("task_id", res.taskID).Warn("task execution failed")
		o.state.FinishWorking(false)
		o.send(ctx, wire.NewTaskFailed(res.taskID, errorInfoFrom(res.err)))
		metrics.RecordTaskOutcome("failed", 0)
		return
	}

	o.state.FinishWorking(true)
	o.send(ctx, wire.NewTaskComplete(res.taskID, res.result, res.proof))
	metrics.RecordTaskOutcome("complete", res.result.WallTimeSeconds)
}

// errorInfoFrom maps an executor.Failure into the ErrorInfo wire shape;
// a generic error (should not normally happen) maps to a non-recoverable
// Internal error.
func errorInfoFrom(err error) wire.ErrorInfo {
	var f *executor.Failure
	if errors.As(err, &f) {
		return wire.ErrorInfo{Code: f.Code, Message: f.Error(), Recoverable: f.Recoverable}
	}
	return wire.ErrorInfo{Code: "Internal", Message: err.Error(), Recoverable: false}
}

func (o *Orchestrator) handlePowChallenge(ctx context.Context, challenge *wire.PowChallenge) {
	nonce, err := base64.StdEncoding.DecodeString(challenge.Nonce)
	if err != nil {
		o.log.WithError(err).Warn("POW_CHALLENGE had malformed nonce")
		return
	}

	powCtx := ctx
	if !challenge.Deadline.IsZero() {
		var cancel context.CancelFunc
		powCtx, cancel = context.WithDeadline(ctx, challenge.Deadline)
		defer cancel()
	}

	result, err := pow.Compute(powCtx, pow.Challenge{
		ChallengeID: challenge.ChallengeID,
		Nonce:       nonce,
		Difficulty:  challenge.Difficulty,
		Deadline:    challenge.Deadline,
	})
	if err != nil {
		o.log.WithError(err).WithField("challenge_id", challenge.ChallengeID).Warn("PoW search failed")
		return
	}

	gpuSig := wire.GPUSignature{}
	if devices := o.detector.Devices(); len(devices) > 0 {
		dev := devices[0]
		if uuid, err := dev.UUID(ctx); err == nil {
			gpuSig.DeviceUUID = uuid
		}
		if model, err := dev.Model(ctx); err == nil {
			gpuSig.DeviceModel = model
		}
		if cc, err := dev.ComputeCapability(ctx); err == nil {
			gpuSig.ComputeCapability = cc
		}
		if cuda, err := dev.CUDAVersion(ctx); err == nil {
			gpuSig.CUDAVersion = cuda
		}
	}

	o.send(ctx, wire.NewPowResponse(result.ChallengeID, hex.EncodeToString(result.Hash[:]), result.SolutionNonce, result.ElapsedMS, gpuSig))
	metrics.PowChallengesSolved.Inc()
}

func (o *Orchestrator) handleEarningsRecord(m *wire.EarningsRecord) {
	o.tracker.Record(earnings.Entry{
		Timestamp:   m.Entry.Timestamp,
		TaskID:      m.Entry.TaskID,
		GPUHours:    m.Entry.GPUHours,
		RatePerHour: m.Entry.RatePerHour,
		Amount:      m.Entry.Amount,
		Status:      earnings.Status(m.Entry.Status),
	})
	if err := o.tracker.Persist(); err != nil {
		o.log.WithError(err).Warn("failed to persist earnings")
	}
}

// shutdown cancels the in-flight execution (via the already-cancelled
// ctx), persists earnings, and closes the connection. Per spec §4.7:
// "cancel execution future; send close frame; persist earnings; exit."
func (o *Orchestrator) shutdown() {
	if err := o.tracker.Persist(); err != nil {
		o.log.WithError(err).Warn("failed to persist earnings on shutdown")
	}
	if err := o.client.Close(); err != nil {
		o.log.WithError(err).Warn("error closing transport on shutdown")
	}
}

func (o *Orchestrator) buildRegister() *wire.AgentRegister {
	ctx := context.Background()
	devices := o.detector.GetAllStatus(ctx)
	return wire.NewAgentRegister(
		o.keypair.AgentID(),
		devices,
		o.detector.Host(),
		o.cfg.Capabilities,
		o.cfg.Location,
		wire.Availability{HoursPerDay: o.cfg.AvailabilityHours},
	)
}

func (o *Orchestrator) buildHeartbeat() *wire.Heartbeat {
	ctx := context.Background()
	metrics.HeartbeatsSent.Inc()
	return wire.NewHeartbeat(o.state.StatusString(), o.state.CurrentTaskID(), o.detector.GetAllStatus(ctx))
}

// reconnectMetricsState maps a transport.ReconnectState to the state
// name metrics.ConnectionStateValue expects.
func reconnectMetricsState(s transport.ReconnectState) string {
	switch s {
	case transport.StateConnected:
		return "connected"
	case transport.StateBackingOff:
		return "connecting"
	default:
		return "disconnected"
	}
}

func (o *Orchestrator) send(ctx context.Context, m wire.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := o.client.Send(sendCtx, m); err != nil {
		o.log.WithError(err).Warn("failed to send outbound message")
	}
}
