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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/codec"
	"github.com/tux3/aegis/internal/wire"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	kp, err := keys.Generate()
	require.NoError(t, err)
	return NewClient("ws://unused", kp, nil)
}

func TestHandleInboundDeliversServerCommandToPushes(t *testing.T) {
	c := newTestClient(t)
	cmd := &wire.ServerCommand{StatusUpdate: &wire.StatusUpdate{VTLocked: true}}
	frame := append([]byte("server_command "), codec.Marshal(cmd)...)

	c.handleInbound(frame)

	select {
	case got := <-c.Pushes:
		require.NotNil(t, got.StatusUpdate)
		assert.True(t, got.StatusUpdate.VTLocked)
	default:
		t.Fatal("expected a pushed command")
	}
}

func TestHandleInboundDeliversMatchingReply(t *testing.T) {
	c := newTestClient(t)
	c.lastRequestID = "abc"

	c.handleInbound([]byte("abc ok payload-bytes"))

	select {
	case r := <-c.replies:
		assert.True(t, r.ok)
		assert.Equal(t, "abc", r.id)
		assert.Equal(t, []byte("payload-bytes"), r.payload)
	default:
		t.Fatal("expected a delivered reply")
	}
}

func TestHandleInboundDropsStaleReply(t *testing.T) {
	c := newTestClient(t)
	c.lastRequestID = "current"

	c.handleInbound([]byte("stale ok payload"))

	select {
	case <-c.replies:
		t.Fatal("a stale reply must not be delivered")
	default:
	}
}

func TestHandleInboundIgnoresMalformedFrame(t *testing.T) {
	c := newTestClient(t)
	c.handleInbound([]byte("nospacehere"))

	select {
	case <-c.Pushes:
		t.Fatal("malformed frame must not push anything")
	case <-c.replies:
		t.Fatal("malformed frame must not deliver a reply")
	default:
	}
}
