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

// Package duplex implements the server side of the persistent device
// channel of §4.5: one websocket session per connected device, a
// process-wide registry keyed by device id, and the framing/heartbeat/push
// rules the protocol requires.
package duplex

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tux3/aegis/crypto/envelope"
	"github.com/tux3/aegis/internal/codec"
	"github.com/tux3/aegis/internal/logger"
	"github.com/tux3/aegis/internal/metrics"
	"github.com/tux3/aegis/internal/wire"
)

const (
	pingInterval = 5 * time.Second
	pongTimeout  = 10 * time.Second
	pushCapacity = 4
	maxFrameSize = 2 << 20
)

// Dispatcher is the device handler registry's entry point, satisfied by
// (*handler.DeviceRegistry).Dispatch.
type Dispatcher func(ctx context.Context, name string, deviceID int64, body []byte) ([]byte, error)

// Session owns one live websocket connection bound to a registered device.
// The read loop writes no data frames itself: it hands finished reply
// frames to run() over replyCh, so run() is the sole writer of data frames.
// Pong control frames are written from the read goroutine by the ping
// handler through WriteControl, which gorilla/websocket allows concurrently
// with other writes.
type Session struct {
	deviceID int64
	connID   uuid.UUID
	pubKey   ed25519.PublicKey
	conn     *websocket.Conn
	dispatch Dispatcher
	log      logger.Logger

	pushCh   chan *wire.ServerCommand
	replyCh  chan []byte
	done     chan struct{}
	lastSeen chan struct{} // signaled by any inbound frame, drained by the watchdog
}

// newSession assigns the session a random connection id, used only to
// correlate this connection's log lines (a device may reconnect many
// times under the same device id, each with a distinct connID).
func newSession(deviceID int64, pubKey ed25519.PublicKey, conn *websocket.Conn, dispatch Dispatcher, log logger.Logger) *Session {
	return &Session{
		deviceID: deviceID,
		connID:   uuid.New(),
		pubKey:   pubKey,
		conn:     conn,
		dispatch: dispatch,
		log:      log,
		pushCh:   make(chan *wire.ServerCommand, pushCapacity),
		replyCh:  make(chan []byte),
		done:     make(chan struct{}),
		lastSeen: make(chan struct{}, 1),
	}
}

// run drives the session until the socket closes or the watchdog fires. It
// blocks the caller (the http handler goroutine), matching the teacher's
// one-goroutine-per-connection shape.
func (s *Session) run(ctx context.Context) {
	s.log.Info("duplex: session started", logger.Int("device_id", int(s.deviceID)), logger.String("conn_id", s.connID.String()))
	defer close(s.done)
	defer s.conn.Close()
	defer s.log.Info("duplex: session ended", logger.Int("device_id", int(s.deviceID)), logger.String("conn_id", s.connID.String()))

	s.conn.SetPingHandler(func(string) error {
		s.markSeen()
		return s.conn.WriteControl(websocket.PongMessage, []byte("pong"), time.Now().Add(5*time.Second))
	})
	s.conn.SetPongHandler(func(string) error {
		s.markSeen()
		return nil
	})

	readErr := make(chan error, 1)
	go s.readLoop(ctx, readErr)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	watchdog := time.NewTimer(pongTimeout)
	defer watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-readErr:
			if err != nil {
				s.log.Debug("duplex: read loop ended", logger.Int("device_id", int(s.deviceID)), logger.Error(err))
			}
			return
		case cmd := <-s.pushCh:
			if err := s.writeServerCommand(cmd); err != nil {
				return
			}
		case frame := <-s.replyCh:
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-watchdog.C:
			s.log.Warn("duplex: session timed out waiting for heartbeat", logger.Int("device_id", int(s.deviceID)))
			return
		case <-s.lastSeen:
			if !watchdog.Stop() {
				<-watchdog.C
			}
			watchdog.Reset(pongTimeout)
		}
	}
}

func (s *Session) markSeen() {
	select {
	case s.lastSeen <- struct{}{}:
	default:
	}
}

func (s *Session) readLoop(ctx context.Context, errc chan<- error) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			errc <- err
			return
		}
		s.markSeen()
		if err := s.handleFrame(ctx, data); err != nil {
			s.log.Warn("duplex: dropping connection after frame error",
				logger.Int("device_id", int(s.deviceID)), logger.Error(err))
			s.conn.Close()
			errc <- err
			return
		}
	}
}

// handleFrame verifies and dispatches one client→server request frame:
// `base64url_nopad(envelope) SP handler_name SP payload_bytes`.
func (s *Session) handleFrame(ctx context.Context, frame []byte) error {
	first := bytes.IndexByte(frame, ' ')
	if first < 0 {
		return fmt.Errorf("duplex: malformed frame")
	}
	second := bytes.IndexByte(frame[first+1:], ' ')
	if second < 0 {
		return fmt.Errorf("duplex: malformed frame")
	}
	second += first + 1

	envToken := string(frame[:first])
	handlerName := string(frame[first+1 : second])
	payload := frame[second+1:]

	env, err := decodeEnvelopeToken(envToken)
	if err != nil {
		return err
	}
	if err := envelope.Verify(s.pubKey, env, []byte(handlerName), payload); err != nil {
		metrics.EnvelopesVerified.WithLabelValues("invalid").Inc()
		s.log.Warn("duplex: envelope verification failed",
			logger.Int("device_id", int(s.deviceID)), logger.String("conn_id", s.connID.String()))
		return fmt.Errorf("duplex: envelope verification failed: %w", err)
	}
	metrics.EnvelopesVerified.WithLabelValues("valid").Inc()

	reply, dispatchErr := s.dispatch(ctx, handlerName, s.deviceID, payload)
	status := "ok"
	result := "ok"
	body := reply
	if dispatchErr != nil {
		status = "err"
		result = "error"
		body = []byte(dispatchErr.Error())
	}
	metrics.SessionRequests.WithLabelValues(handlerName, result).Inc()

	out := make([]byte, 0, len(envToken)+1+len(status)+1+len(body))
	out = append(out, envToken...)
	out = append(out, ' ')
	out = append(out, status...)
	out = append(out, ' ')
	out = append(out, body...)

	select {
	case s.replyCh <- out:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) writeServerCommand(cmd *wire.ServerCommand) error {
	payload := codec.Marshal(cmd)
	out := make([]byte, 0, len("server_command")+1+len(payload))
	out = append(out, "server_command"...)
	out = append(out, ' ')
	out = append(out, payload...)
	return s.conn.WriteMessage(websocket.BinaryMessage, out)
}

// Push enqueues a command for delivery, returning an error on a full
// channel rather than blocking the caller.
func (s *Session) Push(cmd *wire.ServerCommand) error {
	select {
	case s.pushCh <- cmd:
		return nil
	default:
		metrics.PushesDropped.Inc()
		return fmt.Errorf("duplex: push channel full for device %d", s.deviceID)
	}
}

func decodeEnvelopeToken(token string) (envelope.Envelope, error) {
	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("duplex: decode envelope: %w", err)
	}
	if len(data) != envelope.Len {
		return nil, fmt.Errorf("duplex: envelope has wrong length %d", len(data))
	}
	return envelope.Envelope(data), nil
}
