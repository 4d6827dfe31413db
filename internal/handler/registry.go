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

// Package handler implements the closed set of device-role and admin-role
// RPC handlers of §4.4, dispatched identically over HTTP and over the
// duplex channel.
package handler

import (
	"context"
	"fmt"

	"github.com/tux3/aegis/internal/identity"
	"github.com/tux3/aegis/internal/logger"
	"github.com/tux3/aegis/internal/wire"
)

// Pusher is the subset of the duplex session registry the command plane
// needs: pushing a ServerCommand to a live device and checking liveness.
// Defined here rather than imported from the duplex package so that
// package can stay ignorant of the handler registry.
type Pusher interface {
	Push(deviceID int64, cmd *wire.ServerCommand) error
	IsConnected(deviceID int64) bool
}

// Deps are the dependencies every handler closes over.
type Deps struct {
	Store identity.Store
	Push  Pusher
	Log   logger.Logger
}

// DeviceFunc is the transport-agnostic entry point §4.4 requires for
// device-role handlers: used identically by the HTTP mux and by the
// duplex channel's per-frame dispatch.
type DeviceFunc func(ctx context.Context, deps *Deps, deviceID int64, body []byte) ([]byte, error)

// AdminFunc is the entry point for admin-role handlers, which exist only
// as HTTP routes.
type AdminFunc func(ctx context.Context, deps *Deps, body []byte) ([]byte, error)

// DeviceRegistry dispatches device-role requests by handler name.
type DeviceRegistry struct {
	deps     *Deps
	handlers map[string]DeviceFunc
}

// NewDeviceRegistry builds the closed set of device-role handlers.
func NewDeviceRegistry(deps *Deps) *DeviceRegistry {
	return &DeviceRegistry{
		deps: deps,
		handlers: map[string]DeviceFunc{
			"status":               deviceStatus,
			"store_camera_picture": deviceStoreCameraPicture,
			"log_event":            deviceLogEvent,
		},
	}
}

// Dispatch looks up name and invokes it, or reports the handler does not
// exist.
func (r *DeviceRegistry) Dispatch(ctx context.Context, name string, deviceID int64, body []byte) ([]byte, error) {
	fn, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("handler: unknown device handler %q", name)
	}
	return fn(ctx, r.deps, deviceID, body)
}

// AdminRegistry dispatches admin-role requests by handler name.
type AdminRegistry struct {
	deps     *Deps
	handlers map[string]AdminFunc
}

// NewAdminRegistry builds the closed set of admin-role handlers.
func NewAdminRegistry(deps *Deps) *AdminRegistry {
	return &AdminRegistry{
		deps: deps,
		handlers: map[string]AdminFunc{
			"list_pending_devices":          adminListPendingDevices,
			"delete_pending_device":         adminDeletePendingDevice,
			"confirm_pending_device":        adminConfirmPendingDevice,
			"list_registered_devices":       adminListRegisteredDevices,
			"delete_registered_device":      adminDeleteRegisteredDevice,
			"set_status":                    adminSetStatus,
			"get_device_camera_pictures":    adminGetDeviceCameraPictures,
			"delete_device_camera_pictures": adminDeleteDeviceCameraPictures,
			"send_power_command":            adminSendPowerCommand,
			"get_device_events":             adminGetDeviceEvents,
			"delete_device_events":          adminDeleteDeviceEvents,
		},
	}
}

// Dispatch looks up name and invokes it, or reports the handler does not
// exist.
func (r *AdminRegistry) Dispatch(ctx context.Context, name string, body []byte) ([]byte, error) {
	fn, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("handler: unknown admin handler %q", name)
	}
	return fn(ctx, r.deps, body)
}

// Names returns the handler names registered, for route wiring.
func (r *AdminRegistry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	return names
}
