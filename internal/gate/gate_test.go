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

package gate

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tux3/aegis/crypto/envelope"
	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/identity/memory"
	"github.com/tux3/aegis/internal/logger"
)

func newTestGate(t *testing.T) (*Gate, *keys.KeyPair, *keys.KeyPair) {
	t.Helper()
	store := memory.New()
	root, err := keys.Generate()
	require.NoError(t, err)
	device, err := keys.Generate()
	require.NoError(t, err)
	require.NoError(t, store.InsertPending(t.Context(), time.Now().UTC(), "cam1", device.Public))
	_, err = store.ConfirmPending(t.Context(), "cam1")
	require.NoError(t, err)

	return New(store, root.Public, logger.NewDefaultLogger()), root, device
}

func bearerFor(t *testing.T, signer *keys.KeyPair, route, body string) string {
	t.Helper()
	env, err := envelope.Sign(signer.Private, []byte(route), []byte(body))
	require.NoError(t, err)
	return "Bearer " + base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(env)
}

func TestAdminAuthAcceptsValidEnvelope(t *testing.T) {
	g, root, _ := newTestGate(t)

	var sawBody []byte
	handler := g.AdminAuth(func(w http.ResponseWriter, r *http.Request, body []byte) {
		sawBody = body
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/list_pending_devices", nil)
	req.SetPathValue("handler", "list_pending_devices")
	req.Header.Set("Authorization", bearerFor(t, root, "/admin/list_pending_devices", ""))
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sawBody)
}

func TestAdminAuthRejectsWrongSigner(t *testing.T) {
	g, _, device := newTestGate(t)

	called := false
	handler := g.AdminAuth(func(w http.ResponseWriter, r *http.Request, body []byte) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/list_pending_devices", nil)
	req.Header.Set("Authorization", bearerFor(t, device, "/admin/list_pending_devices", ""))
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestAdminAuthRejectsMissingHeader(t *testing.T) {
	g, _, _ := newTestGate(t)
	handler := g.AdminAuth(func(w http.ResponseWriter, r *http.Request, body []byte) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/list_pending_devices", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeviceAuthResolvesDeviceIDAndVerifies(t *testing.T) {
	g, _, device := newTestGate(t)

	var gotID int64
	handler := g.DeviceAuth(func(w http.ResponseWriter, r *http.Request, deviceID int64, body []byte) {
		gotID = deviceID
		w.WriteHeader(http.StatusOK)
	})

	pk := keys.EncodePublic(device.Public)
	path := "/device/" + pk + "/status"
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.SetPathValue("pk", pk)
	req.Header.Set("Authorization", bearerFor(t, device, path, ""))
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gotID)
}

func TestDeviceAuthRejectsUnknownKey(t *testing.T) {
	g, _, _ := newTestGate(t)
	stranger, err := keys.Generate()
	require.NoError(t, err)

	handler := g.DeviceAuth(func(w http.ResponseWriter, r *http.Request, deviceID int64, body []byte) {
		t.Fatal("handler should not run")
	})

	pk := keys.EncodePublic(stranger.Public)
	req := httptest.NewRequest(http.MethodPost, "/device/"+pk+"/status", nil)
	req.SetPathValue("pk", pk)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeviceAuthRejectsTamperedBody(t *testing.T) {
	g, _, device := newTestGate(t)
	handler := g.DeviceAuth(func(w http.ResponseWriter, r *http.Request, deviceID int64, body []byte) {
		t.Fatal("handler should not run")
	})

	pk := keys.EncodePublic(device.Public)
	path := "/device/" + pk + "/log_event"
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("tampered"))
	req.SetPathValue("pk", pk)
	req.Header.Set("Authorization", bearerFor(t, device, path, "original"))
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
