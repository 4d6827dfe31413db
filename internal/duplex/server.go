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
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/identity"
	"github.com/tux3/aegis/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  maxFrameSize,
	WriteBufferSize: maxFrameSize,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server wires the `GET /ws/:pk` admission of §4.5 to a Registry.
type Server struct {
	Store    identity.Store
	Registry *Registry
	Dispatch Dispatcher
	Log      logger.Logger
}

// NewServer constructs a Server.
func NewServer(store identity.Store, registry *Registry, dispatch Dispatcher, log logger.Logger) *Server {
	return &Server{Store: store, Registry: registry, Dispatch: dispatch, Log: log}
}

// Handle upgrades an admitted request to a websocket and runs its session
// until the connection closes. Blocks the calling goroutine.
func (srv *Server) Handle(w http.ResponseWriter, r *http.Request) {
	pk, err := keys.DecodePublic(r.PathValue("pk"))
	if err != nil {
		http.Error(w, "invalid device public key", http.StatusBadRequest)
		return
	}

	deviceID, err := srv.Store.GetIDByPubKey(r.Context(), pk)
	if err != nil {
		http.Error(w, "Device not found", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.Log.Debug("duplex: upgrade failed", logger.Error(err))
		return
	}

	sess := newSession(deviceID, pk, conn, srv.Dispatch, srv.Log)
	srv.Registry.put(sess)
	defer srv.Registry.remove(sess)

	sess.run(r.Context())
}
