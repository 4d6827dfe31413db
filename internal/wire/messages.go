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

// Package wire defines the request/reply and push payloads carried over
// the binary codec, for both the HTTP handler registry and the duplex
// channel.
package wire

import (
	"fmt"

	"github.com/tux3/aegis/internal/codec"
)

// OptBool is a tri-state boolean: present-and-true, present-and-false, or
// absent ("leave unchanged"), matching set_status's partial-update args.
type OptBool struct {
	Set   bool
	Value bool
}

// Some constructs a present OptBool.
func Some(v bool) OptBool { return OptBool{Set: true, Value: v} }

// None is the absent OptBool.
var None = OptBool{}

func encodeOptBool(w *codec.Writer, o OptBool) {
	w.Bool(o.Set)
	if o.Set {
		w.Bool(o.Value)
	}
}

func decodeOptBool(r *codec.Reader) (OptBool, error) {
	set, err := r.Bool()
	if err != nil {
		return OptBool{}, err
	}
	if !set {
		return OptBool{}, nil
	}
	v, err := r.Bool()
	if err != nil {
		return OptBool{}, err
	}
	return OptBool{Set: true, Value: v}, nil
}

// StatusReply is the authoritative view of a device's three enforcement
// booleans, returned by the device's own `status` RPC and by the admin
// `set_status` / implied `get_status` operations.
type StatusReply struct {
	VTLocked    bool
	SSHLocked   bool
	DrawDecoy   bool
	IsConnected bool
}

func (s *StatusReply) Encode(w *codec.Writer) {
	w.Bool(s.VTLocked).Bool(s.SSHLocked).Bool(s.DrawDecoy).Bool(s.IsConnected)
}

func (s *StatusReply) Decode(r *codec.Reader) error {
	var err error
	if s.VTLocked, err = r.Bool(); err != nil {
		return err
	}
	if s.SSHLocked, err = r.Bool(); err != nil {
		return err
	}
	if s.DrawDecoy, err = r.Bool(); err != nil {
		return err
	}
	if s.IsConnected, err = r.Bool(); err != nil {
		return err
	}
	return nil
}

// PowerAction is the ordinal-tagged PowerCommand payload.
type PowerAction uint32

const (
	PowerReboot   PowerAction = 0
	PowerPoweroff PowerAction = 1
)

// ServerCommand is the tagged union pushed from server to device:
// StatusUpdate (ordinal 0) or PowerCommand (ordinal 1).
type ServerCommand struct {
	StatusUpdate *StatusUpdate
	Power        *PowerAction
}

// StatusUpdate is the delta form of StatusReply pushed unsolicited.
type StatusUpdate struct {
	VTLocked  bool
	SSHLocked bool
	DrawDecoy bool
}

func (c *ServerCommand) Encode(w *codec.Writer) {
	switch {
	case c.StatusUpdate != nil:
		w.Tag(0)
		w.Bool(c.StatusUpdate.VTLocked).Bool(c.StatusUpdate.SSHLocked).Bool(c.StatusUpdate.DrawDecoy)
	case c.Power != nil:
		w.Tag(1)
		w.U32(uint32(*c.Power))
	default:
		panic("wire: empty ServerCommand")
	}
}

func (c *ServerCommand) Decode(r *codec.Reader) error {
	tag, err := r.Tag()
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		u := &StatusUpdate{}
		if u.VTLocked, err = r.Bool(); err != nil {
			return err
		}
		if u.SSHLocked, err = r.Bool(); err != nil {
			return err
		}
		if u.DrawDecoy, err = r.Bool(); err != nil {
			return err
		}
		c.StatusUpdate = u
	case 1:
		v, err := r.U32()
		if err != nil {
			return err
		}
		p := PowerAction(v)
		c.Power = &p
	default:
		return fmt.Errorf("wire: unknown ServerCommand tag %d", tag)
	}
	return nil
}

// LogEventArg is the device-role `log_event` request body.
type LogEventArg struct {
	Level   uint8
	Message string
}

func (a *LogEventArg) Encode(w *codec.Writer) { w.U8(a.Level).String(a.Message) }

func (a *LogEventArg) Decode(r *codec.Reader) error {
	var err error
	if a.Level, err = r.U8(); err != nil {
		return err
	}
	if a.Message, err = r.String(); err != nil {
		return err
	}
	return nil
}

// StoreCameraPictureArg is the device-role `store_camera_picture` request body.
type StoreCameraPictureArg struct {
	JPEG []byte
}

func (a *StoreCameraPictureArg) Encode(w *codec.Writer) { w.BytesField(a.JPEG) }

func (a *StoreCameraPictureArg) Decode(r *codec.Reader) error {
	var err error
	a.JPEG, err = r.BytesField()
	return err
}

// DeviceNameArg is the request body shared by every admin handler that
// names a single device by its display name and nothing else.
type DeviceNameArg struct {
	Name string
}

func (a *DeviceNameArg) Encode(w *codec.Writer) { w.String(a.Name) }

func (a *DeviceNameArg) Decode(r *codec.Reader) error {
	var err error
	a.Name, err = r.String()
	return err
}

// SetStatusArg is the admin `set_status` request body.
type SetStatusArg struct {
	DevName   string
	VTLocked  OptBool
	SSHLocked OptBool
	DrawDecoy OptBool
}

// AnySet reports whether at least one field is present.
func (a *SetStatusArg) AnySet() bool {
	return a.VTLocked.Set || a.SSHLocked.Set || a.DrawDecoy.Set
}

func (a *SetStatusArg) Encode(w *codec.Writer) {
	w.String(a.DevName)
	encodeOptBool(w, a.VTLocked)
	encodeOptBool(w, a.SSHLocked)
	encodeOptBool(w, a.DrawDecoy)
}

func (a *SetStatusArg) Decode(r *codec.Reader) error {
	var err error
	if a.DevName, err = r.String(); err != nil {
		return err
	}
	if a.VTLocked, err = decodeOptBool(r); err != nil {
		return err
	}
	if a.SSHLocked, err = decodeOptBool(r); err != nil {
		return err
	}
	if a.DrawDecoy, err = decodeOptBool(r); err != nil {
		return err
	}
	return nil
}

// SendPowerCommandArg is the admin `send_power_command` request body.
type SendPowerCommandArg struct {
	DevName string
	Action  PowerAction
}

func (a *SendPowerCommandArg) Encode(w *codec.Writer) { w.String(a.DevName).U32(uint32(a.Action)) }

func (a *SendPowerCommandArg) Decode(r *codec.Reader) error {
	var err error
	if a.DevName, err = r.String(); err != nil {
		return err
	}
	v, err := r.U32()
	if err != nil {
		return err
	}
	a.Action = PowerAction(v)
	return nil
}

// PendingDeviceWire is one row of the `list_pending_devices` reply.
type PendingDeviceWire struct {
	Name      string
	PubKey    []byte
	CreatedAt int64 // unix seconds, UTC
}

// RegisteredDeviceWire is one row of the `list_registered_devices` reply.
type RegisteredDeviceWire struct {
	Name        string
	PubKey      []byte
	CreatedAt   int64
	IsConnected bool
}

// DeviceEventWire is one row of the `get_device_events` reply.
type DeviceEventWire struct {
	ID        int64
	CreatedAt int64
	Level     uint8
	Message   string
}

// CameraPictureWire is one row of the `get_device_camera_pictures` reply.
// Each row carries its JPEG payload inline, so the whole list arrives in a
// single round trip.
type CameraPictureWire struct {
	ID        int64
	CreatedAt int64
	JPEG      []byte
}

// PendingDeviceList, RegisteredDeviceList, DeviceEventList and
// CameraPictureList are length-prefixed vectors of the corresponding wire
// rows.
type PendingDeviceList struct{ Items []PendingDeviceWire }

func (l *PendingDeviceList) Encode(w *codec.Writer) {
	w.U64(uint64(len(l.Items)))
	for _, it := range l.Items {
		w.String(it.Name).BytesField(it.PubKey).I64(it.CreatedAt)
	}
}

func (l *PendingDeviceList) Decode(r *codec.Reader) error {
	n, err := r.U64()
	if err != nil {
		return err
	}
	l.Items = make([]PendingDeviceWire, n)
	for i := range l.Items {
		if l.Items[i].Name, err = r.String(); err != nil {
			return err
		}
		if l.Items[i].PubKey, err = r.BytesField(); err != nil {
			return err
		}
		if l.Items[i].CreatedAt, err = r.I64(); err != nil {
			return err
		}
	}
	return nil
}

type RegisteredDeviceList struct{ Items []RegisteredDeviceWire }

func (l *RegisteredDeviceList) Encode(w *codec.Writer) {
	w.U64(uint64(len(l.Items)))
	for _, it := range l.Items {
		w.String(it.Name).BytesField(it.PubKey).I64(it.CreatedAt).Bool(it.IsConnected)
	}
}

func (l *RegisteredDeviceList) Decode(r *codec.Reader) error {
	n, err := r.U64()
	if err != nil {
		return err
	}
	l.Items = make([]RegisteredDeviceWire, n)
	for i := range l.Items {
		if l.Items[i].Name, err = r.String(); err != nil {
			return err
		}
		if l.Items[i].PubKey, err = r.BytesField(); err != nil {
			return err
		}
		if l.Items[i].CreatedAt, err = r.I64(); err != nil {
			return err
		}
		if l.Items[i].IsConnected, err = r.Bool(); err != nil {
			return err
		}
	}
	return nil
}

type DeviceEventList struct{ Items []DeviceEventWire }

func (l *DeviceEventList) Encode(w *codec.Writer) {
	w.U64(uint64(len(l.Items)))
	for _, it := range l.Items {
		w.I64(it.ID).I64(it.CreatedAt).U8(it.Level).String(it.Message)
	}
}

func (l *DeviceEventList) Decode(r *codec.Reader) error {
	n, err := r.U64()
	if err != nil {
		return err
	}
	l.Items = make([]DeviceEventWire, n)
	for i := range l.Items {
		if l.Items[i].ID, err = r.I64(); err != nil {
			return err
		}
		if l.Items[i].CreatedAt, err = r.I64(); err != nil {
			return err
		}
		if l.Items[i].Level, err = r.U8(); err != nil {
			return err
		}
		if l.Items[i].Message, err = r.String(); err != nil {
			return err
		}
	}
	return nil
}

type CameraPictureList struct{ Items []CameraPictureWire }

func (l *CameraPictureList) Encode(w *codec.Writer) {
	w.U64(uint64(len(l.Items)))
	for _, it := range l.Items {
		w.I64(it.ID).I64(it.CreatedAt).BytesField(it.JPEG)
	}
}

func (l *CameraPictureList) Decode(r *codec.Reader) error {
	n, err := r.U64()
	if err != nil {
		return err
	}
	l.Items = make([]CameraPictureWire, n)
	for i := range l.Items {
		if l.Items[i].ID, err = r.I64(); err != nil {
			return err
		}
		if l.Items[i].CreatedAt, err = r.I64(); err != nil {
			return err
		}
		if l.Items[i].JPEG, err = r.BytesField(); err != nil {
			return err
		}
	}
	return nil
}

// Empty is the zero-field body used for requests/replies that carry no
// payload (e.g. `status`, `confirm_pending_device`).
type Empty struct{}

func (Empty) Encode(*codec.Writer)     {}
func (*Empty) Decode(*codec.Reader) error { return nil }
