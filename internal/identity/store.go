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

package identity

import (
	"context"
	"time"
)

// Store is the opaque repository of §4.2: device lifecycle, status,
// events and camera pictures. Implementations (postgres, memory) must
// honor: (name) and (pubkey) are each globally unique across pending and
// registered devices; confirm_pending is atomic with the DeviceStatus
// insert; every operation either commits or leaves the store unchanged.
type Store interface {
	ListPending(ctx context.Context) ([]Device, error)
	ListRegistered(ctx context.Context) ([]Device, error)
	CountPending(ctx context.Context) (int, error)
	InsertPending(ctx context.Context, createdAt time.Time, name string, pubKey []byte) error
	ConfirmPending(ctx context.Context, name string) (Device, error)
	DeletePending(ctx context.Context, name string) error
	DeleteRegistered(ctx context.Context, name string) error
	GetIDByPubKey(ctx context.Context, pubKey []byte) (int64, error)
	GetIDByName(ctx context.Context, name string) (int64, error)
	GetDevice(ctx context.Context, id int64) (Device, error)

	UpdateStatus(ctx context.Context, id int64, patch StatusPatch) (Status, error)
	GetStatus(ctx context.Context, id int64) (Status, error)

	InsertEvent(ctx context.Context, id int64, level EventLevel, message string) error
	EventsForDevice(ctx context.Context, id int64) ([]Event, error)
	DeleteEventsForDevice(ctx context.Context, id int64) error

	InsertPicture(ctx context.Context, id int64, jpeg []byte, createdAt time.Time) error
	PicturesForDevice(ctx context.Context, id int64) ([]Picture, error)
	DeletePicturesForDevice(ctx context.Context, id int64) error

	Close()
	Ping(ctx context.Context) error
}
