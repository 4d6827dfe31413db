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
	"strconv"
)

// applyServerEnvOverrides applies the highest-priority AEGIS_* overrides.
func applyServerEnvOverrides(cfg *ServerConfig) {
	if v := os.Getenv("AEGIS_PORT"); v != "" {
		if p, err := strconv.ParseUint(v, 10, 16); err == nil {
			cfg.Port = uint16(p)
		}
	}
	if v := os.Getenv("AEGIS_DB_HOST"); v != "" {
		cfg.DBHost = v
	}
	if v := os.Getenv("AEGIS_DB_PORT"); v != "" {
		if p, err := strconv.ParseUint(v, 10, 16); err == nil {
			cfg.DBPort = uint16(p)
		}
	}
	if v := os.Getenv("AEGIS_DB_NAME"); v != "" {
		cfg.DBName = v
	}
	if v := os.Getenv("AEGIS_DB_USER"); v != "" {
		cfg.DBUser = v
	}
	if v := os.Getenv("AEGIS_DB_PASSWORD"); v != "" {
		cfg.DBPassword = v
	}
	if v := os.Getenv("AEGIS_DB_MAX_CONN"); v != "" {
		if p, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.DBMaxConn = uint32(p)
		}
	}
	if v := os.Getenv("AEGIS_ROOT_PUBLIC_KEY"); v != "" {
		cfg.RootPublicSignatureKey = v
	}
	if v := os.Getenv("AEGIS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AEGIS_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}

func applyDeviceEnvOverrides(cfg *DeviceConfig) {
	if v := os.Getenv("AEGIS_DEVICE_NAME"); v != "" {
		cfg.DeviceName = v
	}
	if v := os.Getenv("AEGIS_SERVER_ADDR"); v != "" {
		cfg.ServerAddr = v
	}
	if v := os.Getenv("AEGIS_USE_TLS"); v != "" {
		cfg.UseTLS = v == "true" || v == "1"
	}
	if v := os.Getenv("AEGIS_DEVICE_KEY_PATH"); v != "" {
		cfg.DeviceKeyPath = v
	}
	if v := os.Getenv("AEGIS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyAdminEnvOverrides(cfg *AdminConfig) {
	if v := os.Getenv("AEGIS_SERVER_ADDR"); v != "" {
		cfg.ServerAddr = v
	}
	if v := os.Getenv("AEGIS_USE_TLS"); v != "" {
		cfg.UseTLS = v == "true" || v == "1"
	}
	if v := os.Getenv("AEGIS_ADMIN_KEY_PATH"); v != "" {
		cfg.KeyPath = v
	}
}
