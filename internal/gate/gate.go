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

// Package gate implements the admission middleware of §4.3: it resolves
// the caller's identity from the request path, verifies the envelope in
// the Authorization header against (route, body), and passes the resolved
// device id and the read body to the wrapped handler as arguments.
package gate

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tux3/aegis/crypto/envelope"
	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/identity"
	"github.com/tux3/aegis/internal/logger"
	"github.com/tux3/aegis/internal/metrics"
)

// MaxBodyBytes is the deployment-configured cap on request bodies, kept
// above the 2 MiB floor the spec requires for camera-picture uploads.
const MaxBodyBytes = 4 << 20

// Gate holds the dependencies shared by every admission check.
type Gate struct {
	Store     identity.Store
	RootKey   ed25519.PublicKey
	Log       logger.Logger
}

// New constructs a Gate.
func New(store identity.Store, rootKey ed25519.PublicKey, log logger.Logger) *Gate {
	return &Gate{Store: store, RootKey: rootKey, Log: log}
}

// readEnvelope extracts and decodes the Bearer envelope from the request,
// and reads the full body (bounded by MaxBodyBytes) for verification.
func (g *Gate) readEnvelope(r *http.Request) (envelope.Envelope, []byte, error) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return nil, nil, errors.New("gate: missing or malformed Authorization header")
	}

	envBytes, err := decodeEnvelopeToken(strings.TrimPrefix(auth, prefix))
	if err != nil {
		return nil, nil, err
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("gate: read body: %w", err)
	}
	if len(body) > MaxBodyBytes {
		return nil, nil, errors.New("gate: body too large")
	}

	return envBytes, body, nil
}

// DeviceAuth wraps next with the `/device/:pk/...` admission check: the pk
// path segment must name a registered device, and the request must carry a
// valid envelope under that device's key over (path, body).
func (g *Gate) DeviceAuth(next func(w http.ResponseWriter, r *http.Request, deviceID int64, body []byte)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pk, err := keys.DecodePublic(r.PathValue("pk"))
		if err != nil {
			http.Error(w, "invalid device public key", http.StatusBadRequest)
			return
		}

		deviceID, err := g.Store.GetIDByPubKey(r.Context(), pk)
		if err != nil {
			http.Error(w, "Device not found", http.StatusForbidden)
			return
		}

		env, body, err := g.readEnvelope(r)
		if err != nil {
			http.Error(w, "missing or invalid auth header", http.StatusForbidden)
			return
		}

		if err := envelope.Verify(pk, env, []byte(r.URL.Path), body); err != nil {
			metrics.EnvelopesVerified.WithLabelValues("invalid").Inc()
			g.Log.Warn("Received forged signature from client!",
				logger.String("remote_addr", r.RemoteAddr), logger.String("path", r.URL.Path))
			http.Error(w, "Invalid signature", http.StatusForbidden)
			return
		}
		metrics.EnvelopesVerified.WithLabelValues("valid").Inc()

		next(w, r, deviceID, body)
	}
}

// AdminAuth wraps next with the `/admin/...` admission check: the request
// must carry a valid envelope under the server-configured root public key.
func (g *Gate) AdminAuth(next func(w http.ResponseWriter, r *http.Request, body []byte)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, body, err := g.readEnvelope(r)
		if err != nil {
			http.Error(w, "missing or invalid auth header", http.StatusForbidden)
			return
		}

		if err := envelope.Verify(g.RootKey, env, []byte(r.URL.Path), body); err != nil {
			metrics.EnvelopesVerified.WithLabelValues("invalid").Inc()
			g.Log.Warn("Received forged signature from admin client!",
				logger.String("remote_addr", r.RemoteAddr), logger.String("path", r.URL.Path))
			http.Error(w, "Invalid signature", http.StatusForbidden)
			return
		}
		metrics.EnvelopesVerified.WithLabelValues("valid").Inc()

		next(w, r, body)
	}
}

// VerifyFrame verifies a duplex-channel frame's envelope against
// (handler, payload) for the given device pubkey instead of the HTTP path.
// The duplex session performs the same check with envelope.Verify directly;
// nothing in this repository calls VerifyFrame.
func VerifyFrame(pub ed25519.PublicKey, env envelope.Envelope, handler string, payload []byte) error {
	return envelope.Verify(pub, env, []byte(handler), payload)
}

func decodeEnvelopeToken(token string) (envelope.Envelope, error) {
	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("gate: decode envelope: %w", err)
	}
	if len(data) != envelope.Len {
		return nil, fmt.Errorf("gate: envelope has wrong length %d", len(data))
	}
	return envelope.Envelope(data), nil
}
