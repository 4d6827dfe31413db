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

package keys

import (
	"crypto/ed25519"

	"golang.org/x/crypto/argon2"
)

// rootKeysSalt is fixed rather than random: RootKeys are meant to be
// reproducible from the admin's password alone, with no separate salt to
// keep track of.
var rootKeysSalt = []byte("expand password into 32-byte key")

const symmetricKeySize = 32

// RootKeys is the pair of keys an admin derives from a single password:
// an Ed25519 signing key for the CLI's envelopes, and a symmetric key
// reserved for encrypting locally cached admin state.
type RootKeys struct {
	Sig *KeyPair
	Enc [symmetricKeySize]byte
}

// Derive reproduces RootKeys from password using Argon2id with the
// reference implementation's default parameters (time=2, memory=19456
// KiB, threads=1), matching the admin CLI's "remember my password, not
// my keys" workflow.
func Derive(password string) (*RootKeys, error) {
	out := argon2.IDKey([]byte(password), rootKeysSalt, 2, 19456, 1, ed25519.SeedSize+symmetricKeySize)

	seed := out[:ed25519.SeedSize]
	priv := ed25519.NewKeyFromSeed(seed)

	rk := &RootKeys{Sig: FromPrivate(priv)}
	copy(rk.Enc[:], out[ed25519.SeedSize:])
	return rk, nil
}
