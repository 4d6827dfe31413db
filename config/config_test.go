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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerAppliesDefaults(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.EqualValues(t, 8443, cfg.Port)
	assert.EqualValues(t, 16, cfg.DBMaxConn)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadServerReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\ndb_name: aegis\n"), 0o600))

	cfg, err := LoadServer(path)
	require.NoError(t, err)
	assert.EqualValues(t, 9000, cfg.Port)
	assert.Equal(t, "aegis", cfg.DBName)
}

func TestLoadServerEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\n"), 0o600))

	t.Setenv("AEGIS_PORT", "9999")
	cfg, err := LoadServer(path)
	require.NoError(t, err)
	assert.EqualValues(t, 9999, cfg.Port)
}

func TestLoadDeviceAppliesDefaults(t *testing.T) {
	cfg, err := LoadDevice(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DeviceKeyPath)
}

func TestLoadAdminDefaultsUseREST(t *testing.T) {
	cfg, err := LoadAdmin(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.True(t, cfg.UseREST)
}
