// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orbanplatform/orban-agent/pkg/wire"
)

// DefaultHeartbeatInterval is the configurable heartbeat period from
// spec §5.
const DefaultHeartbeatInterval = 30 * time.Second

// heartbeatSendTimeout bounds a single heartbeat send; it must never
// block the scheduler past the next tick.
const heartbeatSendTimeout = 10 * time.Second

// HeartbeatBuilder produces the next heartbeat's status and device
// snapshot; the scheduler fills in UptimeSeconds itself.
type HeartbeatBuilder func() *wire.Heartbeat

// HeartbeatScheduler emits a HEARTBEAT message on a fixed interval. A
// send failure is logged and swallowed: per spec, heartbeat failure
// does NOT tear down the connection, the next tick simply retries.
type HeartbeatScheduler struct {
	client    *Client
	log       *logrus.Entry
	interval  time.Duration
	startedAt time.Time
}

// NewHeartbeatScheduler creates a scheduler over client. A zero
// interval defaults to DefaultHeartbeatInterval.
func NewHeartbeatScheduler(client *Client, log *logrus.Entry, interval time.Duration) *HeartbeatScheduler {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &HeartbeatScheduler{
		client:    client,
		log:       log,
		interval:  interval,
		startedAt: time.Now(),
	}
}

// Run emits heartbeats built by build every interval until ctx is
// cancelled. Intended to run as a background goroutine alongside the
// orchestrator's event loop.
func (h *HeartbeatScheduler) Run(ctx context.Context, build HeartbeatBuilder) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.beat(ctx, build)
		}
	}
}

func (h *HeartbeatScheduler) beat(ctx context.Context, build HeartbeatBuilder) {
	hb := build()
	hb.UptimeSeconds = uint64(time.Since(h.startedAt).Seconds())

	sendCtx, cancel := context.WithTimeout(ctx, heartbeatSendTimeout)
	defer cancel()

	if err := h.client.Send(sendCtx, hb); err != nil {
		h.log.WithError(err).Warn("heartbeat send failed, retrying next tick")
	}
}
