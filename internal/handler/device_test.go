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

package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/codec"
	"github.com/tux3/aegis/internal/identity"
	"github.com/tux3/aegis/internal/identity/memory"
	"github.com/tux3/aegis/internal/logger"
	"github.com/tux3/aegis/internal/wire"
)

func newTestDeps(t *testing.T) (*Deps, int64) {
	t.Helper()
	store := memory.New()
	kp, err := keys.Generate()
	require.NoError(t, err)
	require.NoError(t, store.InsertPending(t.Context(), time.Now().UTC(), "cam1", kp.Public))
	d, err := store.ConfirmPending(t.Context(), "cam1")
	require.NoError(t, err)
	return &Deps{Store: store, Push: &fakePusher{}, Log: logger.NewDefaultLogger()}, d.ID
}

type fakePusher struct {
	connected map[int64]bool
	pushed    []*wire.ServerCommand
	failPush  bool
}

func (f *fakePusher) Push(deviceID int64, cmd *wire.ServerCommand) error {
	if f.failPush {
		return assert.AnError
	}
	f.pushed = append(f.pushed, cmd)
	return nil
}

func (f *fakePusher) IsConnected(deviceID int64) bool {
	return f.connected != nil && f.connected[deviceID]
}

func TestDeviceStatusReturnsCurrentStatus(t *testing.T) {
	deps, id := newTestDeps(t)
	deps.Push.(*fakePusher).connected = map[int64]bool{id: true}

	out, err := deviceStatus(t.Context(), deps, id, nil)
	require.NoError(t, err)

	reply := &wire.StatusReply{}
	require.NoError(t, codec.Unmarshal(out, reply))
	assert.True(t, reply.IsConnected)
	assert.False(t, reply.VTLocked)
}

func TestDeviceStatusRejectsNonEmptyBody(t *testing.T) {
	deps, id := newTestDeps(t)
	_, err := deviceStatus(t.Context(), deps, id, []byte("x"))
	assert.Error(t, err)
}

func TestDeviceStoreCameraPicturePersists(t *testing.T) {
	deps, id := newTestDeps(t)
	arg := &wire.StoreCameraPictureArg{JPEG: []byte("fake-jpeg")}

	_, err := deviceStoreCameraPicture(t.Context(), deps, id, codec.Marshal(arg))
	require.NoError(t, err)

	pics, err := deps.Store.PicturesForDevice(t.Context(), id)
	require.NoError(t, err)
	require.Len(t, pics, 1)
	assert.Equal(t, []byte("fake-jpeg"), pics[0].JPEG)
}

func TestDeviceLogEventPersistsAndRejectsInvalidLevel(t *testing.T) {
	deps, id := newTestDeps(t)

	ok := &wire.LogEventArg{Level: uint8(identity.LevelWarn), Message: "hello"}
	_, err := deviceLogEvent(t.Context(), deps, id, codec.Marshal(ok))
	require.NoError(t, err)

	events, err := deps.Store.EventsForDevice(t.Context(), id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "hello", events[0].Message)

	bad := &wire.LogEventArg{Level: 255, Message: "nope"}
	_, err = deviceLogEvent(t.Context(), deps, id, codec.Marshal(bad))
	assert.Error(t, err)
}
