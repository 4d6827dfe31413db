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

// Package httpapi assembles the admission gate, handler registries and
// duplex channel into the routes of §6.1: health, registration, the
// admin/device RPC surfaces, and the websocket upgrade.
package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/duplex"
	"github.com/tux3/aegis/internal/gate"
	"github.com/tux3/aegis/internal/handler"
	"github.com/tux3/aegis/internal/identity"
	"github.com/tux3/aegis/internal/logger"
	"github.com/tux3/aegis/internal/metrics"
)

const maxPendingDevices = 3

// Server owns the full set of routes the Aegis daemon exposes.
type Server struct {
	Gate     *gate.Gate
	Store    identity.Store
	Devices  *handler.DeviceRegistry
	Admin    *handler.AdminRegistry
	Duplex   *duplex.Server
	Log      logger.Logger
}

// NewServer wires store+registry+gate+duplex into a ready-to-serve mux.
func NewServer(store identity.Store, rootKey []byte, log logger.Logger) (*Server, *duplex.Registry) {
	sessions := duplex.NewRegistry()
	deps := &handler.Deps{Store: store, Push: sessions, Log: log}

	g := gate.New(store, rootKey, log)
	devices := handler.NewDeviceRegistry(deps)
	admin := handler.NewAdminRegistry(deps)
	dup := duplex.NewServer(store, sessions, devices.Dispatch, log)

	return &Server{
		Gate:    g,
		Store:   store,
		Devices: devices,
		Admin:   admin,
		Duplex:  dup,
		Log:     log,
	}, sessions
}

// Mux builds the http.ServeMux with every §6.1 route registered.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /register/{pk}/name/{name}", s.handleRegister)

	mux.HandleFunc("POST /admin/{handler}", s.Gate.AdminAuth(s.handleAdmin))
	mux.HandleFunc("POST /device/{pk}/{handler}", s.Gate.DeviceAuth(s.handleDevice))

	mux.HandleFunc("GET /ws/{pk}", s.Duplex.Handle)

	return mux
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	pk, err := keys.DecodePublic(r.PathValue("pk"))
	if err != nil {
		http.Error(w, "invalid device public key", http.StatusBadRequest)
		return
	}
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "missing device name", http.StatusBadRequest)
		return
	}

	if peek, err := r.Body.Read(make([]byte, 1)); peek > 0 || (err != nil && err != io.EOF) {
		http.Error(w, "Unexpected body", http.StatusBadRequest)
		return
	}

	n, err := s.Store.CountPending(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if n >= maxPendingDevices {
		http.Error(w, "too many pending devices", http.StatusBadRequest)
		return
	}

	err = s.Store.InsertPending(r.Context(), time.Now().UTC(), name, pk)
	switch {
	case err == nil:
		metrics.PendingDevices.Set(float64(n + 1))
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, identity.ErrConflict):
		w.WriteHeader(http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request, body []byte) {
	name := r.PathValue("handler")

	reply, err := s.Admin.Dispatch(r.Context(), name, body)
	if err != nil {
		metrics.AdminCommands.WithLabelValues(name, "error").Inc()
		http.Error(w, err.Error(), handler.HTTPStatus(err))
		return
	}
	metrics.AdminCommands.WithLabelValues(name, "ok").Inc()
	w.Write(reply)
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request, deviceID int64, body []byte) {
	name := r.PathValue("handler")

	reply, err := s.Devices.Dispatch(r.Context(), name, deviceID, body)
	if err != nil {
		metrics.SessionRequests.WithLabelValues(name, "error").Inc()
		http.Error(w, err.Error(), handler.HTTPStatus(err))
		return
	}
	metrics.SessionRequests.WithLabelValues(name, "ok").Inc()
	w.Write(reply)
}
