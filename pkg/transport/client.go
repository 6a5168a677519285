// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package transport implements the agent's single long-lived
// bidirectional text-framed connection to the platform: the
// authentication handshake, mutex-guarded send/receive, and the
// exponential-backoff reconnect strategy.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/orbanplatform/orban-agent/pkg/auth"
	"github.com/orbanplatform/orban-agent/pkg/wire"
)

// ConnectTimeout bounds the initial dial + handshake.
const ConnectTimeout = 30 * time.Second

// ErrConnectionClosed is returned from Receive when the peer sent a
// close frame with a normal-closure or going-away code.
var ErrConnectionClosed = errors.New("transport: connection closed")

// ErrHandshakeFailed marks any deviation from the strict connect
// sequence (AUTH_CHALLENGE -> AUTH_RESPONSE -> AUTH_SUCCESS ->
// AGENT_REGISTER -> REGISTER_ACK) as a fatal authentication failure.
var ErrHandshakeFailed = errors.New("transport: authentication handshake failed")

// RegisterBuilder produces the AGENT_REGISTER payload at connect time;
// Transport owns the keypair and the socket, not the hardware
// inventory, so the caller supplies this.
type RegisterBuilder func() *wire.AgentRegister

// Client is the single-connection transport. The writer is guarded by
// writeMu so outbound frames from different goroutines never
// interleave; a dedicated read loop is the only reader.
type Client struct {
	url     string
	keypair *auth.Keypair
	log     *logrus.Entry

	writeMu sync.Mutex
	conn    *websocket.Conn

	token       string
	tokenExpiry time.Time
}

// NewClient creates a Client for platformURL (without the
// "/agent/v1/connect" suffix, which Connect appends).
func NewClient(platformURL string, keypair *auth.Keypair, log *logrus.Entry) *Client {
	return &Client{url: platformURL, keypair: keypair, log: log}
}

// Connect dials the platform and drives the strict authentication
// handshake to completion. Any deviation — wrong message type, a
// closed socket, a malformed payload — is reported as
// ErrHandshakeFailed and the socket is closed.
func (c *Client) Connect(ctx context.Context, buildRegister RegisterBuilder) (*wire.RegisterAck, error) {
	dialCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	endpoint := c.url + "/agent/v1/connect"
	dialer := websocket.Dialer{HandshakeTimeout: ConnectTimeout}
	conn, _, err := dialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", endpoint, err)
	}
	c.conn = conn

	ack, err := c.handshake(dialCtx, buildRegister)
	if err != nil {
		_ = conn.Close()
		c.conn = nil
		return nil, err
	}
	return ack, nil
}

func (c *Client) handshake(ctx context.Context, buildRegister RegisterBuilder) (*wire.RegisterAck, error) {
	challengeMsg, err := c.Receive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: awaiting AUTH_CHALLENGE: %v", ErrHandshakeFailed, err)
	}
	challenge, ok := challengeMsg.(*wire.AuthChallenge)
	if !ok {
		return nil, fmt.Errorf("%w: expected AUTH_CHALLENGE, got %T", ErrHandshakeFailed, challengeMsg)
	}

	sig, pub, err := c.keypair.RespondToChallenge(challenge.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: signing challenge: %v", ErrHandshakeFailed, err)
	}
	if err := c.Send(ctx, wire.NewAuthResponse(c.keypair.AgentID(), sig, pub)); err != nil {
		return nil, fmt.Errorf("%w: sending AUTH_RESPONSE: %v", ErrHandshakeFailed, err)
	}

	successMsg, err := c.Receive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: awaiting AUTH_SUCCESS: %v", ErrHandshakeFailed, err)
	}
	success, ok := successMsg.(*wire.AuthSuccess)
	if !ok {
		return nil, fmt.Errorf("%w: expected AUTH_SUCCESS, got %T", ErrHandshakeFailed, successMsg)
	}
	c.token = success.Token
	c.tokenExpiry = time.Now().Add(time.Duration(success.ExpiresInSecs) * time.Second)

	if err := c.Send(ctx, buildRegister()); err != nil {
		return nil, fmt.Errorf("%w: sending AGENT_REGISTER: %v", ErrHandshakeFailed, err)
	}

	ackMsg, err := c.Receive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: awaiting REGISTER_ACK: %v", ErrHandshakeFailed, err)
	}
	ack, ok := ackMsg.(*wire.RegisterAck)
	if !ok {
		return nil, fmt.Errorf("%w: expected REGISTER_ACK, got %T", ErrHandshakeFailed, ackMsg)
	}
	if !ack.Accepted {
		return nil, fmt.Errorf("%w: platform rejected registration: %s", ErrHandshakeFailed, ack.Reason)
	}
	return ack, nil
}

// Send encodes and writes m as a single text frame. Writes are
// serialized behind writeMu so concurrent senders never interleave
// JSON onto the wire.
func (c *Client) Send(ctx context.Context, m wire.Message) error {
	data, err := wire.Encode(m)
	if err != nil {
		return fmt.Errorf("transport: encode: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Receive reads and decodes the next text frame. Binary frames are
// reserved for a future protobuf schema and are rejected with a
// warning rather than processed. A close frame with a normal-closure
// or going-away code surfaces as ErrConnectionClosed; any other close
// code surfaces as a wrapped read error.
func (c *Client) Receive(ctx context.Context) (wire.Message, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	}

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrConnectionClosed
			}
			return nil, fmt.Errorf("transport: read: %w", err)
		}
		switch msgType {
		case websocket.CloseMessage:
			return nil, ErrConnectionClosed
		case websocket.BinaryMessage:
			c.log.Warn("transport: rejecting binary frame, only text JSON frames are supported")
			continue
		}

		return wire.Decode(data)
	}
}

// Close sends a close frame and tears down the socket.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	deadline := time.Now().Add(5 * time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.conn.Close()
}

// Token returns the bearer token obtained at the last successful
// handshake.
func (c *Client) Token() string {
	return c.token
}
