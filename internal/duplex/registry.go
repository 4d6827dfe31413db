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
	"sync"

	"github.com/tux3/aegis/internal/metrics"
	"github.com/tux3/aegis/internal/wire"
)

// Registry is the process-wide, concurrent map of live sessions keyed by
// device id. It satisfies handler.Pusher without importing that package.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// put installs s as the current session for its device id, replacing and
// terminating any prior session (last-writer wins, per §4.5).
func (r *Registry) put(s *Session) {
	r.mu.Lock()
	old := r.sessions[s.deviceID]
	r.sessions[s.deviceID] = s
	if old == nil {
		metrics.ActiveSessions.Inc()
	}
	r.mu.Unlock()

	if old != nil && old.conn != nil {
		old.conn.Close()
	}
}

// remove drops s from the registry, but only if it is still the current
// session for its device id (a newer session may have already replaced it).
func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.deviceID] == s {
		delete(r.sessions, s.deviceID)
		metrics.ActiveSessions.Dec()
	}
}

func (r *Registry) get(deviceID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[deviceID]
	return s, ok
}

// Push enqueues cmd on the device's live session, or reports an error if
// the device has no live session.
func (r *Registry) Push(deviceID int64, cmd *wire.ServerCommand) error {
	s, ok := r.get(deviceID)
	if !ok {
		return errNotConnected(deviceID)
	}
	return s.Push(cmd)
}

// IsConnected reports whether the device currently has a live session.
func (r *Registry) IsConnected(deviceID int64) bool {
	_, ok := r.get(deviceID)
	return ok
}

type errNotConnected int64

func (e errNotConnected) Error() string {
	return "duplex: no live session for device"
}
