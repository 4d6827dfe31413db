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

	"github.com/tux3/aegis/internal/wire"
)

func TestRegistryIsConnectedReflectsPresence(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.IsConnected(1))

	s := &Session{deviceID: 1, pushCh: make(chan *wire.ServerCommand, pushCapacity)}
	r.put(s)
	assert.True(t, r.IsConnected(1))

	r.remove(s)
	assert.False(t, r.IsConnected(1))
}

func TestRegistryPushFailsWithoutSession(t *testing.T) {
	r := NewRegistry()
	err := r.Push(1, &wire.ServerCommand{Power: powerPtr(wire.PowerReboot)})
	assert.Error(t, err)
}

func TestRegistryPushDeliversToSessionChannel(t *testing.T) {
	r := NewRegistry()
	s := &Session{deviceID: 7, pushCh: make(chan *wire.ServerCommand, pushCapacity)}
	r.put(s)

	cmd := &wire.ServerCommand{Power: powerPtr(wire.PowerPoweroff)}
	assert.NoError(t, r.Push(7, cmd))

	select {
	case got := <-s.pushCh:
		assert.Equal(t, cmd, got)
	default:
		t.Fatal("expected a queued command")
	}
}

func TestRegistryPutReplacesPriorSession(t *testing.T) {
	r := NewRegistry()
	first := &Session{deviceID: 3, pushCh: make(chan *wire.ServerCommand, pushCapacity)}
	r.put(first)

	second := &Session{deviceID: 3, pushCh: make(chan *wire.ServerCommand, pushCapacity)}
	r.put(second)

	got, ok := r.get(3)
	assert.True(t, ok)
	assert.Same(t, second, got)

	// The stale session is a no-op on remove since it's no longer current.
	r.remove(first)
	got, ok = r.get(3)
	assert.True(t, ok)
	assert.Same(t, second, got)
}

func powerPtr(p wire.PowerAction) *wire.PowerAction { return &p }
