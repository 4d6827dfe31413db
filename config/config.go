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

// Package config holds the three process configurations of §6.4: the
// server, the device client and the admin CLI each load their own shape
// from YAML plus environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig is aegisd's configuration.
type ServerConfig struct {
	Port                   uint16 `yaml:"port"`
	DBHost                 string `yaml:"db_host"`
	DBPort                 uint16 `yaml:"db_port"`
	DBName                 string `yaml:"db_name"`
	DBUser                 string `yaml:"db_user"`
	DBPassword             string `yaml:"db_password"`
	DBMaxConn              uint32 `yaml:"db_max_conn"`
	RootPublicSignatureKey string `yaml:"root_public_signature_key"`
	LogLevel               string `yaml:"log_level"`
	MetricsAddr            string `yaml:"metrics_addr"`
}

func (c *ServerConfig) setDefaults() {
	if c.Port == 0 {
		c.Port = 8443
	}
	if c.DBMaxConn == 0 {
		c.DBMaxConn = 16
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// DeviceConfig is aegisc's configuration.
type DeviceConfig struct {
	DeviceName    string `yaml:"device_name"`
	ServerAddr    string `yaml:"server_addr"`
	UseTLS        bool   `yaml:"use_tls"`
	DeviceKeyPath string `yaml:"device_key_path"`
	LogLevel      string `yaml:"log_level"`
}

func (c *DeviceConfig) setDefaults() {
	if c.DeviceKeyPath == "" {
		c.DeviceKeyPath = "/etc/aegis/device.key"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// AdminConfig is aegiscli's configuration.
type AdminConfig struct {
	ServerAddr string `yaml:"server_addr"`
	UseTLS     bool   `yaml:"use_tls"`
	UseREST    bool   `yaml:"use_rest"`
	KeyPath    string `yaml:"key_path"`
}

func (c *AdminConfig) setDefaults() {
	c.UseREST = true
	if c.KeyPath == "" {
		c.KeyPath = os.ExpandEnv("$HOME/.aegis/admin.key")
	}
}

func loadYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}
