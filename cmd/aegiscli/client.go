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

package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/tux3/aegis/config"
	"github.com/tux3/aegis/crypto/envelope"
	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/codec"
)

// adminClient signs and sends one `/admin/<handler>` request per call,
// matching the REST transport of §4.7 (the CLI never holds a duplex
// session open the way a device does).
type adminClient struct {
	baseURL string
	signer  *keys.KeyPair
	http    *http.Client
}

func newAdminClient(cfg *config.AdminConfig, signer *keys.KeyPair) *adminClient {
	scheme := "http"
	if cfg.UseTLS {
		scheme = "https"
	}
	return &adminClient{
		baseURL: fmt.Sprintf("%s://%s", scheme, cfg.ServerAddr),
		signer:  signer,
		http:    http.DefaultClient,
	}
}

// call signs body under the handler's route and returns the raw reply
// bytes, or the server's plain-text error.
func (c *adminClient) call(ctx context.Context, handlerName string, body []byte) ([]byte, error) {
	route := "/admin/" + handlerName

	env, err := envelope.Sign(c.signer.Private, []byte(route), body)
	if err != nil {
		return nil, fmt.Errorf("aegiscli: sign request: %w", err)
	}
	token := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(env)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aegiscli: request %s: %w", handlerName, err)
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("aegiscli: read reply: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aegiscli: %s: server returned %d: %s", handlerName, resp.StatusCode, bytes.TrimSpace(reply))
	}
	return reply, nil
}

// registerDevice performs the unauthenticated admission request on behalf
// of a device whose key the operator already holds, mirroring the
// register flow aegisc itself runs on first boot.
func (c *adminClient) registerDevice(ctx context.Context, name string, pub []byte) error {
	route := fmt.Sprintf("/register/%s/name/%s", keys.EncodePublic(pub), name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("aegiscli: register: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("aegiscli: register: server returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// callCodec is call plus the codec marshal/unmarshal boilerplate every
// subcommand needs.
func (c *adminClient) callCodec(ctx context.Context, handlerName string, arg, reply codec.Codec) error {
	var body []byte
	if arg != nil {
		body = codec.Marshal(arg)
	}
	raw, err := c.call(ctx, handlerName, body)
	if err != nil {
		return err
	}
	if reply == nil {
		return nil
	}
	return codec.Unmarshal(raw, reply)
}
