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

// Package metrics exposes the Prometheus instrumentation for aegisd: the
// admission gate, the device duplex channel, and the admin command plane.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the collector registry bound to every metric in this package.
// It is separate from prometheus.DefaultRegisterer so tests can spin up a
// fresh *Server without colliding on duplicate registration.
var Registry = prometheus.NewRegistry()

var (
	// EnvelopesVerified counts admission-gate verification outcomes.
	EnvelopesVerified = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "aegis",
		Subsystem: "gate",
		Name:      "envelopes_verified_total",
		Help:      "Number of request envelopes verified by the admission gate.",
	}, []string{"result"})

	// ActiveSessions is the number of devices currently holding an open
	// duplex websocket session with the server.
	ActiveSessions = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "aegis",
		Subsystem: "duplex",
		Name:      "active_sessions",
		Help:      "Number of devices with a live duplex session.",
	})

	// SessionRequests counts device-role requests handled over the duplex
	// channel and the HTTP device route, partitioned by handler and outcome.
	SessionRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "aegis",
		Subsystem: "duplex",
		Name:      "session_requests_total",
		Help:      "Device-role requests handled over the duplex channel and the HTTP device route.",
	}, []string{"handler", "result"})

	// PushesDropped counts unsolicited server->device pushes dropped
	// because a session's push queue was full.
	PushesDropped = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: "aegis",
		Subsystem: "duplex",
		Name:      "pushes_dropped_total",
		Help:      "Unsolicited pushes dropped because a session's queue was full.",
	})

	// AdminCommands counts admin command-plane invocations by handler and
	// outcome.
	AdminCommands = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "aegis",
		Subsystem: "admin",
		Name:      "commands_total",
		Help:      "Admin command-plane invocations.",
	}, []string{"handler", "result"})

	// PendingDevices tracks the current count of unconfirmed pending
	// device registrations.
	PendingDevices = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "aegis",
		Subsystem: "admission",
		Name:      "pending_devices",
		Help:      "Number of devices currently awaiting admin confirmation.",
	})
)
