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

// Package envelope implements the signature envelope that authenticates
// every device<->server request: a random nonce prepended to an Ed25519ph
// (prehashed) signature over SHA-512(random || route || body).
package envelope

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"fmt"
)

// RandomLen is the length in bytes of the random prefix mixed into the
// signed digest. It exists to make two envelopes over the same route and
// body unlinkable, not to provide replay protection.
const RandomLen = 16

// Len is the total wire length of an envelope: the random prefix followed
// by a raw 64-byte Ed25519 signature.
const Len = RandomLen + ed25519.SignatureSize

// Envelope is the random-prefixed signature proof attached to a request.
// Its bytes also serve as the request's correlation id on the duplex
// channel, since a signature covering the exact (route, body) pair is
// already unique per request.
type Envelope []byte

// Sign produces an envelope authenticating body as having been sent to
// route by the holder of priv.
func Sign(priv ed25519.PrivateKey, route, body []byte) (Envelope, error) {
	random := make([]byte, RandomLen)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("envelope: read random prefix: %w", err)
	}

	digest := digestFor(random, route, body)
	sig, err := priv.Sign(rand.Reader, digest, &ed25519.Options{Hash: crypto.SHA512})
	if err != nil {
		return nil, fmt.Errorf("envelope: sign: %w", err)
	}

	env := make(Envelope, 0, Len)
	env = append(env, random...)
	env = append(env, sig...)
	return env, nil
}

// Verify reports whether env authenticates body as having been sent to
// route by the holder of pub.
func Verify(pub ed25519.PublicKey, env Envelope, route, body []byte) error {
	if len(env) != Len {
		return errors.New("envelope: wrong length")
	}
	random := env[:RandomLen]
	sig := env[RandomLen:]

	digest := digestFor(random, route, body)
	if err := ed25519.VerifyWithOptions(pub, digest, sig, &ed25519.Options{Hash: crypto.SHA512}); err != nil {
		return fmt.Errorf("envelope: %w", err)
	}
	return nil
}

func digestFor(random, route, body []byte) []byte {
	h := sha512.New()
	h.Write(random)
	h.Write(route)
	h.Write(body)
	return h.Sum(nil)
}
