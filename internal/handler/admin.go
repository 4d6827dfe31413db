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
	"context"

	"github.com/tux3/aegis/internal/codec"
	"github.com/tux3/aegis/internal/identity"
	"github.com/tux3/aegis/internal/logger"
	"github.com/tux3/aegis/internal/metrics"
	"github.com/tux3/aegis/internal/wire"
)

func adminListPendingDevices(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	if len(body) != 0 {
		return nil, badRequest("Unexpected body")
	}

	devices, err := deps.Store.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	reply := &wire.PendingDeviceList{Items: make([]wire.PendingDeviceWire, len(devices))}
	for i, d := range devices {
		reply.Items[i] = wire.PendingDeviceWire{
			Name:      d.Name,
			PubKey:    d.PubKey,
			CreatedAt: d.CreatedAt.Unix(),
		}
	}
	return codec.Marshal(reply), nil
}

func adminDeletePendingDevice(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	arg := &wire.DeviceNameArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}
	if err := deps.Store.DeletePending(ctx, arg.Name); err != nil {
		return nil, err
	}
	reportPendingCount(ctx, deps)
	return codec.Marshal(&wire.Empty{}), nil
}

func adminConfirmPendingDevice(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	arg := &wire.DeviceNameArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}

	d, err := deps.Store.ConfirmPending(ctx, arg.Name)
	if err != nil {
		return nil, err
	}
	reportPendingCount(ctx, deps)

	if err := deps.Store.InsertEvent(ctx, d.ID, identity.LevelInfo, "Device confirmed"); err != nil {
		deps.Log.Warn("Failed to log device confirmation", logger.String("device", d.Name), logger.Error(err))
	}

	return codec.Marshal(&wire.Empty{}), nil
}

func reportPendingCount(ctx context.Context, deps *Deps) {
	if n, err := deps.Store.CountPending(ctx); err == nil {
		metrics.PendingDevices.Set(float64(n))
	}
}

func adminListRegisteredDevices(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	if len(body) != 0 {
		return nil, badRequest("Unexpected body")
	}

	devices, err := deps.Store.ListRegistered(ctx)
	if err != nil {
		return nil, err
	}

	reply := &wire.RegisteredDeviceList{Items: make([]wire.RegisteredDeviceWire, len(devices))}
	for i, d := range devices {
		reply.Items[i] = wire.RegisteredDeviceWire{
			Name:        d.Name,
			PubKey:      d.PubKey,
			CreatedAt:   d.CreatedAt.Unix(),
			IsConnected: deps.Push.IsConnected(d.ID),
		}
	}
	return codec.Marshal(reply), nil
}

func adminDeleteRegisteredDevice(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	arg := &wire.DeviceNameArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}
	if err := deps.Store.DeleteRegistered(ctx, arg.Name); err != nil {
		return nil, err
	}
	return codec.Marshal(&wire.Empty{}), nil
}

// adminSetStatus implements the partial-update semantics of §4.7: a call
// with no fields set is a pure read with no write, no event and no push.
func adminSetStatus(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	arg := &wire.SetStatusArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}

	id, err := deps.Store.GetIDByName(ctx, arg.DevName)
	if err != nil {
		return nil, err
	}

	if !arg.AnySet() {
		st, err := deps.Store.GetStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		return codec.Marshal(statusReply(st, deps.Push.IsConnected(id))), nil
	}

	patch := identity.StatusPatch{}
	if arg.VTLocked.Set {
		v := arg.VTLocked.Value
		patch.VTLocked = &v
	}
	if arg.SSHLocked.Set {
		v := arg.SSHLocked.Value
		patch.SSHLocked = &v
	}
	if arg.DrawDecoy.Set {
		v := arg.DrawDecoy.Value
		patch.DrawDecoy = &v
	}

	st, err := deps.Store.UpdateStatus(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if err := deps.Store.InsertEvent(ctx, id, identity.LevelInfo, "Status updated by admin"); err != nil {
		deps.Log.Warn("Failed to log status update", logger.String("device", arg.DevName), logger.Error(err))
	}

	cmd := &wire.ServerCommand{StatusUpdate: &wire.StatusUpdate{
		VTLocked:  st.VTLocked,
		SSHLocked: st.SSHLocked,
		DrawDecoy: st.DrawDecoy,
	}}
	if err := deps.Push.Push(id, cmd); err != nil {
		deps.Log.Warn("Failed to push status update to device", logger.String("device", arg.DevName), logger.Error(err))
	}

	return codec.Marshal(statusReply(st, deps.Push.IsConnected(id))), nil
}

func statusReply(st identity.Status, connected bool) *wire.StatusReply {
	return &wire.StatusReply{
		VTLocked:    st.VTLocked,
		SSHLocked:   st.SSHLocked,
		DrawDecoy:   st.DrawDecoy,
		IsConnected: connected,
	}
}

func adminGetDeviceCameraPictures(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	arg := &wire.DeviceNameArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}

	id, err := deps.Store.GetIDByName(ctx, arg.Name)
	if err != nil {
		return nil, err
	}

	pics, err := deps.Store.PicturesForDevice(ctx, id)
	if err != nil {
		return nil, err
	}

	reply := &wire.CameraPictureList{Items: make([]wire.CameraPictureWire, len(pics))}
	for i, p := range pics {
		reply.Items[i] = wire.CameraPictureWire{ID: p.ID, CreatedAt: p.CreatedAt.Unix(), JPEG: p.JPEG}
	}
	return codec.Marshal(reply), nil
}

func adminDeleteDeviceCameraPictures(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	arg := &wire.DeviceNameArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}

	id, err := deps.Store.GetIDByName(ctx, arg.Name)
	if err != nil {
		return nil, err
	}
	if err := deps.Store.DeletePicturesForDevice(ctx, id); err != nil {
		return nil, err
	}
	return codec.Marshal(&wire.Empty{}), nil
}

// adminSendPowerCommand requires the device to have a live duplex session:
// power commands are never queued for later delivery (§6 scenario S6).
func adminSendPowerCommand(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	arg := &wire.SendPowerCommandArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}

	id, err := deps.Store.GetIDByName(ctx, arg.DevName)
	if err != nil {
		return nil, err
	}

	if !deps.Push.IsConnected(id) {
		return nil, &StatusError{Code: 400, Msg: "Device is not connected"}
	}

	action := arg.Action
	if err := deps.Push.Push(id, &wire.ServerCommand{Power: &action}); err != nil {
		return nil, &StatusError{Code: 400, Msg: "Device is not connected"}
	}

	if err := deps.Store.InsertEvent(ctx, id, identity.LevelInfo, "Power command sent by admin"); err != nil {
		deps.Log.Warn("Failed to log power command", logger.String("device", arg.DevName), logger.Error(err))
	}

	return codec.Marshal(&wire.Empty{}), nil
}

func adminGetDeviceEvents(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	arg := &wire.DeviceNameArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}

	id, err := deps.Store.GetIDByName(ctx, arg.Name)
	if err != nil {
		return nil, err
	}

	events, err := deps.Store.EventsForDevice(ctx, id)
	if err != nil {
		return nil, err
	}

	reply := &wire.DeviceEventList{Items: make([]wire.DeviceEventWire, len(events))}
	for i, e := range events {
		reply.Items[i] = wire.DeviceEventWire{
			ID:        e.ID,
			CreatedAt: e.CreatedAt.Unix(),
			Level:     uint8(e.Level),
			Message:   e.Message,
		}
	}
	return codec.Marshal(reply), nil
}

func adminDeleteDeviceEvents(ctx context.Context, deps *Deps, body []byte) ([]byte, error) {
	arg := &wire.DeviceNameArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}

	id, err := deps.Store.GetIDByName(ctx, arg.Name)
	if err != nil {
		return nil, err
	}
	if err := deps.Store.DeleteEventsForDevice(ctx, id); err != nil {
		return nil, err
	}
	return codec.Marshal(&wire.Empty{}), nil
}
