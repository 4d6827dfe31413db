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
	"github.com/tux3/aegis/internal/identity/memory"
	"github.com/tux3/aegis/internal/logger"
	"github.com/tux3/aegis/internal/wire"
)

func newPendingDeps(t *testing.T, name string) *Deps {
	t.Helper()
	store := memory.New()
	kp, err := keys.Generate()
	require.NoError(t, err)
	require.NoError(t, store.InsertPending(t.Context(), time.Now().UTC(), name, kp.Public))
	return &Deps{Store: store, Push: &fakePusher{}, Log: logger.NewDefaultLogger()}
}

func TestAdminConfirmPendingDeviceMovesToRegistered(t *testing.T) {
	deps := newPendingDeps(t, "cam1")

	_, err := adminConfirmPendingDevice(t.Context(), deps, codec.Marshal(&wire.DeviceNameArg{Name: "cam1"}))
	require.NoError(t, err)

	pending, err := deps.Store.ListPending(t.Context())
	require.NoError(t, err)
	assert.Empty(t, pending)

	registered, err := deps.Store.ListRegistered(t.Context())
	require.NoError(t, err)
	require.Len(t, registered, 1)
	assert.Equal(t, "cam1", registered[0].Name)
}

func TestAdminDeletePendingDeviceRemovesIt(t *testing.T) {
	deps := newPendingDeps(t, "cam1")

	_, err := adminDeletePendingDevice(t.Context(), deps, codec.Marshal(&wire.DeviceNameArg{Name: "cam1"}))
	require.NoError(t, err)

	pending, err := deps.Store.ListPending(t.Context())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAdminSetStatusNoOpWhenNothingSet(t *testing.T) {
	deps := newPendingDeps(t, "cam1")
	_, err := adminConfirmPendingDevice(t.Context(), deps, codec.Marshal(&wire.DeviceNameArg{Name: "cam1"}))
	require.NoError(t, err)

	pusher := deps.Push.(*fakePusher)

	out, err := adminSetStatus(t.Context(), deps, codec.Marshal(&wire.SetStatusArg{DevName: "cam1"}))
	require.NoError(t, err)

	reply := &wire.StatusReply{}
	require.NoError(t, codec.Unmarshal(out, reply))
	assert.False(t, reply.VTLocked)
	assert.Empty(t, pusher.pushed, "a no-op call must not push a command")

	events, err := deps.Store.EventsForDevice(t.Context(), mustDeviceID(t, deps, "cam1"))
	require.NoError(t, err)
	require.Len(t, events, 1, "a no-op call must not log an event beyond the confirmation")
	assert.Equal(t, "Device confirmed", events[0].Message)
}

func TestAdminSetStatusAppliesPatchLogsAndPushes(t *testing.T) {
	deps := newPendingDeps(t, "cam1")
	_, err := adminConfirmPendingDevice(t.Context(), deps, codec.Marshal(&wire.DeviceNameArg{Name: "cam1"}))
	require.NoError(t, err)

	pusher := deps.Push.(*fakePusher)
	pusher.connected = map[int64]bool{mustDeviceID(t, deps, "cam1"): true}

	arg := &wire.SetStatusArg{DevName: "cam1", VTLocked: wire.Some(true)}
	out, err := adminSetStatus(t.Context(), deps, codec.Marshal(arg))
	require.NoError(t, err)

	reply := &wire.StatusReply{}
	require.NoError(t, codec.Unmarshal(out, reply))
	assert.True(t, reply.VTLocked)
	assert.True(t, reply.IsConnected)

	require.Len(t, pusher.pushed, 1)
	require.NotNil(t, pusher.pushed[0].StatusUpdate)
	assert.True(t, pusher.pushed[0].StatusUpdate.VTLocked)

	events, err := deps.Store.EventsForDevice(t.Context(), mustDeviceID(t, deps, "cam1"))
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestAdminSendPowerCommandRequiresLiveSession(t *testing.T) {
	deps := newPendingDeps(t, "cam1")
	_, err := adminConfirmPendingDevice(t.Context(), deps, codec.Marshal(&wire.DeviceNameArg{Name: "cam1"}))
	require.NoError(t, err)

	arg := &wire.SendPowerCommandArg{DevName: "cam1", Action: wire.PowerReboot}
	_, err = adminSendPowerCommand(t.Context(), deps, codec.Marshal(arg))
	require.Error(t, err)

	statusErr, ok := err.(*StatusError)
	require.True(t, ok)
	assert.Equal(t, 400, statusErr.Code)
}

func TestAdminSendPowerCommandSucceedsWhenConnected(t *testing.T) {
	deps := newPendingDeps(t, "cam1")
	_, err := adminConfirmPendingDevice(t.Context(), deps, codec.Marshal(&wire.DeviceNameArg{Name: "cam1"}))
	require.NoError(t, err)

	id := mustDeviceID(t, deps, "cam1")
	pusher := deps.Push.(*fakePusher)
	pusher.connected = map[int64]bool{id: true}

	arg := &wire.SendPowerCommandArg{DevName: "cam1", Action: wire.PowerPoweroff}
	_, err = adminSendPowerCommand(t.Context(), deps, codec.Marshal(arg))
	require.NoError(t, err)

	require.Len(t, pusher.pushed, 1)
	require.NotNil(t, pusher.pushed[0].Power)
	assert.Equal(t, wire.PowerPoweroff, *pusher.pushed[0].Power)
}

func mustDeviceID(t *testing.T, deps *Deps, name string) int64 {
	t.Helper()
	id, err := deps.Store.GetIDByName(t.Context(), name)
	require.NoError(t, err)
	return id
}
