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

package duplex

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tux3/aegis/crypto/envelope"
	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/wire"
)

func TestDecodeEnvelopeTokenRoundTrips(t *testing.T) {
	kp, err := keys.Generate()
	require.NoError(t, err)

	env, err := envelope.Sign(kp.Private, []byte("status"), nil)
	require.NoError(t, err)
	token := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(env)

	got, err := decodeEnvelopeToken(token)
	require.NoError(t, err)
	assert.Equal(t, []byte(env), []byte(got))
}

func TestDecodeEnvelopeTokenRejectsBadLength(t *testing.T) {
	_, err := decodeEnvelopeToken(base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte("too-short")))
	assert.Error(t, err)
}

func TestDecodeEnvelopeTokenRejectsBadEncoding(t *testing.T) {
	_, err := decodeEnvelopeToken("not base64url!!")
	assert.Error(t, err)
}

func TestSessionPushQueuesUpToCapacityThenReportsFull(t *testing.T) {
	s := &Session{deviceID: 1, pushCh: make(chan *wire.ServerCommand, 2)}

	power := wire.PowerReboot
	require.NoError(t, s.Push(&wire.ServerCommand{Power: &power}))
	require.NoError(t, s.Push(&wire.ServerCommand{Power: &power}))

	err := s.Push(&wire.ServerCommand{Power: &power})
	assert.Error(t, err)
}
