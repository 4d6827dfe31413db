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

	"github.com/joho/godotenv"
)

func init() {
	// Best-effort local dev convenience; a missing .env is not an error.
	_ = godotenv.Load()
}

// LoadServer reads a ServerConfig from path (if it exists) and applies
// AEGIS_* environment overrides on top.
func LoadServer(path string) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if _, err := os.Stat(path); err == nil {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.setDefaults()
	applyServerEnvOverrides(cfg)
	return cfg, nil
}

// LoadDevice reads a DeviceConfig from path (if it exists) and applies
// AEGIS_* environment overrides on top.
func LoadDevice(path string) (*DeviceConfig, error) {
	cfg := &DeviceConfig{}
	if _, err := os.Stat(path); err == nil {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.setDefaults()
	applyDeviceEnvOverrides(cfg)
	return cfg, nil
}

// LoadAdmin reads an AdminConfig from path (if it exists) and applies
// AEGIS_* environment overrides on top.
func LoadAdmin(path string) (*AdminConfig, error) {
	cfg := &AdminConfig{}
	if _, err := os.Stat(path); err == nil {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.setDefaults()
	applyAdminEnvOverrides(cfg)
	return cfg, nil
}
