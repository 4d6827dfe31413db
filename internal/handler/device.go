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
	"time"

	"github.com/tux3/aegis/internal/codec"
	"github.com/tux3/aegis/internal/identity"
	"github.com/tux3/aegis/internal/wire"
)

// deviceStatus is the device's own reconciliation RPC: it returns the
// authoritative status row so a reconnecting device can resync without
// waiting for the next push.
func deviceStatus(ctx context.Context, deps *Deps, deviceID int64, body []byte) ([]byte, error) {
	if len(body) != 0 {
		return nil, badRequest("Unexpected body")
	}

	st, err := deps.Store.GetStatus(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	return codec.Marshal(statusReply(st, deps.Push.IsConnected(deviceID))), nil
}

func deviceStoreCameraPicture(ctx context.Context, deps *Deps, deviceID int64, body []byte) ([]byte, error) {
	arg := &wire.StoreCameraPictureArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}

	if err := deps.Store.InsertPicture(ctx, deviceID, arg.JPEG, time.Now().UTC()); err != nil {
		return nil, err
	}
	return codec.Marshal(&wire.Empty{}), nil
}

func deviceLogEvent(ctx context.Context, deps *Deps, deviceID int64, body []byte) ([]byte, error) {
	arg := &wire.LogEventArg{}
	if err := codec.Unmarshal(body, arg); err != nil {
		return nil, badRequest("Invalid argument")
	}

	level := identity.EventLevel(arg.Level)
	if level > identity.LevelError {
		return nil, badRequest("Invalid argument")
	}

	if err := deps.Store.InsertEvent(ctx, deviceID, level, arg.Message); err != nil {
		return nil, err
	}
	return codec.Marshal(&wire.Empty{}), nil
}
