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

// Package memory implements identity.Store in-process, for tests and
// single-node trial deployments.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tux3/aegis/internal/identity"
)

// Store is a mutex-guarded, map-backed identity.Store.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	devices  map[int64]*identity.Device
	statuses map[int64]*identity.Status
	events   map[int64][]identity.Event
	pictures map[int64][]identity.Picture
	nextEvID int64
	nextPicID int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nextID:   1,
		devices:  make(map[int64]*identity.Device),
		statuses: make(map[int64]*identity.Status),
		events:   make(map[int64][]identity.Event),
		pictures: make(map[int64][]identity.Picture),
	}
}

func (s *Store) Close()                        {}
func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) findByName(name string) *identity.Device {
	for _, d := range s.devices {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func (s *Store) findByPubKey(pk []byte) *identity.Device {
	for _, d := range s.devices {
		if bytes.Equal(d.PubKey, pk) {
			return d
		}
	}
	return nil
}

func (s *Store) ListPending(ctx context.Context) ([]identity.Device, error) {
	return s.listDevices(true), nil
}

func (s *Store) ListRegistered(ctx context.Context) ([]identity.Device, error) {
	return s.listDevices(false), nil
}

func (s *Store) listDevices(pending bool) []identity.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []identity.Device
	for _, d := range s.devices {
		if d.Pending == pending {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) CountPending(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, d := range s.devices {
		if d.Pending {
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertPending(ctx context.Context, createdAt time.Time, name string, pubKey []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByName(name) != nil || s.findByPubKey(pubKey) != nil {
		return identity.ErrConflict
	}

	id := s.nextID
	s.nextID++
	pk := make([]byte, len(pubKey))
	copy(pk, pubKey)
	s.devices[id] = &identity.Device{ID: id, CreatedAt: createdAt, Name: name, PubKey: pk, Pending: true}
	return nil
}

func (s *Store) ConfirmPending(ctx context.Context, name string) (identity.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.findByName(name)
	if d == nil || !d.Pending {
		return identity.Device{}, identity.ErrNotFound
	}
	d.Pending = false
	now := time.Now().UTC()
	s.statuses[d.ID] = &identity.Status{DeviceID: d.ID, UpdatedAt: now}
	return *d, nil
}

func (s *Store) DeletePending(ctx context.Context, name string) error {
	return s.deleteDevice(name, true)
}

func (s *Store) DeleteRegistered(ctx context.Context, name string) error {
	return s.deleteDevice(name, false)
}

func (s *Store) deleteDevice(name string, pending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.findByName(name)
	if d == nil || d.Pending != pending {
		return identity.ErrNotFound
	}
	delete(s.devices, d.ID)
	delete(s.statuses, d.ID)
	delete(s.events, d.ID)
	delete(s.pictures, d.ID)
	return nil
}

func (s *Store) GetIDByPubKey(ctx context.Context, pubKey []byte) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := s.findByPubKey(pubKey)
	if d == nil || d.Pending {
		return 0, identity.ErrNotFound
	}
	return d.ID, nil
}

func (s *Store) GetIDByName(ctx context.Context, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := s.findByName(name)
	if d == nil || d.Pending {
		return 0, identity.ErrNotFound
	}
	return d.ID, nil
}

func (s *Store) GetDevice(ctx context.Context, id int64) (identity.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return identity.Device{}, identity.ErrNotFound
	}
	return *d, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, patch identity.StatusPatch) (identity.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.statuses[id]
	if !ok {
		return identity.Status{}, identity.ErrNotFound
	}
	if !patch.AnySet() {
		return *st, nil
	}
	if patch.VTLocked != nil {
		st.VTLocked = *patch.VTLocked
	}
	if patch.SSHLocked != nil {
		st.SSHLocked = *patch.SSHLocked
	}
	if patch.DrawDecoy != nil {
		st.DrawDecoy = *patch.DrawDecoy
	}
	st.UpdatedAt = time.Now().UTC()
	return *st, nil
}

func (s *Store) GetStatus(ctx context.Context, id int64) (identity.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[id]
	if !ok {
		return identity.Status{}, identity.ErrNotFound
	}
	return *st, nil
}

func (s *Store) InsertEvent(ctx context.Context, id int64, level identity.EventLevel, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEvID++
	s.events[id] = append(s.events[id], identity.Event{
		ID: s.nextEvID, DeviceID: id, CreatedAt: time.Now().UTC(), Level: level, Message: message,
	})
	return nil
}

func (s *Store) EventsForDevice(ctx context.Context, id int64) ([]identity.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]identity.Event, len(s.events[id]))
	copy(out, s.events[id])
	return out, nil
}

func (s *Store) DeleteEventsForDevice(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events[id]) == 0 {
		return fmt.Errorf("device %d has no stored events: %w", id, identity.ErrNotFound)
	}
	delete(s.events, id)
	return nil
}

func (s *Store) InsertPicture(ctx context.Context, id int64, jpeg []byte, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPicID++
	buf := make([]byte, len(jpeg))
	copy(buf, jpeg)
	s.pictures[id] = append(s.pictures[id], identity.Picture{
		ID: s.nextPicID, DeviceID: id, CreatedAt: createdAt, JPEG: buf,
	})
	return nil
}

func (s *Store) PicturesForDevice(ctx context.Context, id int64) ([]identity.Picture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]identity.Picture, len(s.pictures[id]))
	copy(out, s.pictures[id])
	return out, nil
}

func (s *Store) DeletePicturesForDevice(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pictures[id]) == 0 {
		return fmt.Errorf("device %d has no stored camera pictures: %w", id, identity.ErrNotFound)
	}
	delete(s.pictures, id)
	return nil
}
