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

// Package keys manages the Ed25519 signing keys used by devices and the
// admin CLI: generation, and loading/saving a raw private key to disk.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

// KeyPair wraps an Ed25519 key pair for device or admin identity.
type KeyPair struct {
	Private ed25519.PrivateKey
	Public  ed25519.PublicKey
}

// Generate creates a new random Ed25519 key pair.
func Generate() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return &KeyPair{Private: priv, Public: pub}, nil
}

// FromPrivate reconstructs a KeyPair from a raw 64-byte Ed25519 private key.
func FromPrivate(priv ed25519.PrivateKey) *KeyPair {
	return &KeyPair{Private: priv, Public: priv.Public().(ed25519.PublicKey)}
}

// LoadFile reads a key pair from path, where the file contains the raw
// 64-byte Ed25519 private key.
func LoadFile(path string) (*KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: read %s: %w", path, err)
	}
	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keys: %s: expected %d bytes, got %d", path, ed25519.PrivateKeySize, len(data))
	}
	return FromPrivate(ed25519.PrivateKey(data)), nil
}

// SaveFile writes kp's private key to path with owner-only permissions.
func SaveFile(path string, kp *KeyPair) error {
	if err := os.WriteFile(path, kp.Private, 0o600); err != nil {
		return fmt.Errorf("keys: write %s: %w", path, err)
	}
	return nil
}

// EncodePublic base64url-encodes a public key the same way Aegis stores and
// transmits device public keys: no padding, URL-safe alphabet.
func EncodePublic(pub ed25519.PublicKey) string {
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(pub)
}

// DecodePublic parses a base64url-encoded public key, as found in the
// `/device/{pk}/...` and `/ws/{pk}` path segments.
func DecodePublic(s string) (ed25519.PublicKey, error) {
	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("keys: decode public key: %w", err)
	}
	if len(data) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("keys: public key has wrong length %d", len(data))
	}
	return ed25519.PublicKey(data), nil
}
