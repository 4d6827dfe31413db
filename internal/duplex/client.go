// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package duplex

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tux3/aegis/crypto/envelope"
	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/codec"
	"github.com/tux3/aegis/internal/wire"
)

// ErrWebsocketDisconnected is surfaced to a Request caller when a request
// is lost to a reconnect and the one-shot retry also fails mid-flight.
var ErrWebsocketDisconnected = errors.New("duplex: websocket disconnected")

var base64Envelope = base64.URLEncoding.WithPadding(base64.NoPadding)

// Registerer performs the one-shot REST `register` call the device side
// falls back to on a 403 during connect.
type Registerer interface {
	Register(ctx context.Context) error
}

// Client is the device-side mirror of the server Session: it maintains a
// single persistent connection, serializes RPCs one in flight at a time,
// and demuxes unsolicited ServerCommand pushes to Pushes.
type Client struct {
	url    string
	signer *keys.KeyPair
	reg    Registerer
	Pushes chan *wire.ServerCommand

	mu     sync.Mutex // serializes Request calls (§4.6 one-in-flight contract)
	connMu sync.Mutex
	conn   *websocket.Conn

	lastRequestID string
	replies       chan replyOrErr
}

type replyOrErr struct {
	id      string
	ok      bool
	payload []byte
}

// NewClient builds a Client for the given server base URL ("ws://host:port"
// or "wss://host:port") and device signing key. reg may be nil if the
// caller never needs the register-on-403 fallback.
func NewClient(baseURL string, signer *keys.KeyPair, reg Registerer) *Client {
	return &Client{
		url:     baseURL + "/ws/" + keys.EncodePublic(signer.Public),
		signer:  signer,
		reg:     reg,
		Pushes:  make(chan *wire.ServerCommand, 1),
		replies: make(chan replyOrErr, 1),
	}
}

// Run connects and services the session until ctx is canceled, transparently
// reconnecting on disconnect per §4.6. It is meant to run for the lifetime
// of the device process.
func (c *Client) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, status, err := c.dial(ctx)
		if err != nil {
			if status == http.StatusForbidden && c.reg != nil {
				if regErr := c.reg.Register(ctx); regErr != nil {
					// 409 is success-already-known; anything else just retries the cooldown.
					_ = regErr
				}
				sleep(ctx, 15*time.Second)
				continue
			}
			sleep(ctx, backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()

		go c.reconcile(ctx)

		c.runSession(ctx, conn)

		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
	}
}

// reconcile issues the post-reconnect `status` call §4.6 requires and
// folds the authoritative reply into the Pushes stream, as if it were an
// unsolicited StatusUpdate.
func (c *Client) reconcile(ctx context.Context) {
	reply, err := c.Request(ctx, "status", nil)
	if err != nil {
		return
	}
	st := &wire.StatusReply{}
	if err := codec.Unmarshal(reply, st); err != nil {
		return
	}
	cmd := &wire.ServerCommand{StatusUpdate: &wire.StatusUpdate{
		VTLocked:  st.VTLocked,
		SSHLocked: st.SSHLocked,
		DrawDecoy: st.DrawDecoy,
	}}
	select {
	case c.Pushes <- cmd:
	default:
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, int, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, 0, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, resp.StatusCode, err
		}
		return nil, 0, err
	}
	return conn, http.StatusOK, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// runSession services one connection until it drops, delivering inbound
// frames to either c.replies or c.Pushes.
func (c *Client) runSession(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	conn.SetPingHandler(func(string) error {
		return conn.WriteControl(websocket.PongMessage, []byte("pong"), time.Now().Add(5*time.Second))
	})

	for {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleInbound(data)
	}
}

func (c *Client) handleInbound(data []byte) {
	first := bytes.IndexByte(data, ' ')
	if first < 0 {
		return
	}
	tag := string(data[:first])

	if tag == "server_command" {
		cmd := &wire.ServerCommand{}
		if err := codec.Unmarshal(data[first+1:], cmd); err == nil {
			select {
			case c.Pushes <- cmd:
			default:
			}
		}
		return
	}

	second := bytes.IndexByte(data[first+1:], ' ')
	if second < 0 {
		return
	}
	second += first + 1
	id := tag
	status := string(data[first+1 : second])
	payload := data[second+1:]

	if id != c.lastRequestID {
		return // stale reply, dropped without logging
	}

	select {
	case c.replies <- replyOrErr{id: id, ok: status == "ok", payload: payload}:
	default:
	}
}

// Request sends handlerName/body over the duplex channel and waits for the
// correlated reply, retrying at most once across a mid-flight reconnect.
func (c *Client) Request(ctx context.Context, handlerName string, body []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reply, err := c.requestOnce(ctx, handlerName, body)
	if errors.Is(err, ErrWebsocketDisconnected) {
		reply, err = c.requestOnce(ctx, handlerName, body)
	}
	return reply, err
}

func (c *Client) requestOnce(ctx context.Context, handlerName string, body []byte) ([]byte, error) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return nil, ErrWebsocketDisconnected
	}

	env, err := envelope.Sign(c.signer.Private, []byte(handlerName), body)
	if err != nil {
		return nil, err
	}
	token := encodeEnvelopeToken(env)
	c.lastRequestID = token

	frame := make([]byte, 0, len(token)+1+len(handlerName)+1+len(body))
	frame = append(frame, token...)
	frame = append(frame, ' ')
	frame = append(frame, handlerName...)
	frame = append(frame, ' ')
	frame = append(frame, body...)

	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, ErrWebsocketDisconnected
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-c.replies:
		if r.id != token {
			return nil, ErrWebsocketDisconnected
		}
		if !r.ok {
			return nil, fmt.Errorf("duplex: %s", string(r.payload))
		}
		return r.payload, nil
	}
}

func encodeEnvelopeToken(env envelope.Envelope) string {
	return base64Envelope.EncodeToString(env)
}
