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

// Command aegisc is the edge device agent: it holds open the duplex
// channel to aegisd, reconciles its status on every reconnect, and applies
// the StatusUpdate and PowerCommand pushes the server sends it.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/tux3/aegis/config"
	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/codec"
	"github.com/tux3/aegis/internal/duplex"
	"github.com/tux3/aegis/internal/identity"
	"github.com/tux3/aegis/internal/logger"
	"github.com/tux3/aegis/internal/wire"
)

func main() {
	configPath := flag.String("config", "/etc/aegis/device.yaml", "path to device configuration")
	flag.Parse()

	cfg, err := config.LoadDevice(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aegisc: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewDefaultLogger()
	log.SetLevel(parseLevel(cfg.LogLevel))

	signer, err := loadOrCreateKey(cfg.DeviceKeyPath)
	if err != nil {
		log.Fatal("aegisc: failed to load device key", logger.Error(err))
	}

	reg := &restRegisterer{cfg: cfg, signer: signer}
	client := duplex.NewClient(wsBaseURL(cfg), signer, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	log.Info("aegisc started", logger.String("device", cfg.DeviceName), logger.String("server", cfg.ServerAddr))

	for {
		select {
		case <-sigCh:
			log.Info("aegisc shutting down")
			return
		case cmd, ok := <-client.Pushes:
			if !ok {
				return
			}
			applyPush(ctx, log, client, cmd)
		}
	}
}

// applyPush logs a received push; power commands are also acknowledged back
// to the server as a device event, status updates are only logged. Actually enforcing VT/SSH locks and decoy drawing is
// local OS integration left to the platform-specific agent build.
func applyPush(ctx context.Context, log logger.Logger, client *duplex.Client, cmd *wire.ServerCommand) {
	switch {
	case cmd.StatusUpdate != nil:
		log.Info("Applying status update",
			logger.Bool("vt_locked", cmd.StatusUpdate.VTLocked),
			logger.Bool("ssh_locked", cmd.StatusUpdate.SSHLocked),
			logger.Bool("draw_decoy", cmd.StatusUpdate.DrawDecoy))
	case cmd.Power != nil:
		log.Warn("Received power command", logger.Int("action", int(*cmd.Power)))
		ackPowerCommand(ctx, log, client, *cmd.Power)
	}
}

func ackPowerCommand(ctx context.Context, log logger.Logger, client *duplex.Client, action wire.PowerAction) {
	arg := &wire.LogEventArg{Level: uint8(identity.LevelWarn), Message: fmt.Sprintf("power command %d received", action)}
	if _, err := client.Request(ctx, "log_event", codec.Marshal(arg)); err != nil {
		log.Warn("Failed to acknowledge power command", logger.Error(err))
	}
}

func wsBaseURL(cfg *config.DeviceConfig) string {
	scheme := "ws"
	if cfg.UseTLS {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s", scheme, cfg.ServerAddr)
}

func restBaseURL(cfg *config.DeviceConfig) string {
	scheme := "http"
	if cfg.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, cfg.ServerAddr)
}

func loadOrCreateKey(path string) (*keys.KeyPair, error) {
	if kp, err := keys.LoadFile(path); err == nil {
		return kp, nil
	}
	kp, err := keys.Generate()
	if err != nil {
		return nil, err
	}
	if err := keys.SaveFile(path, kp); err != nil {
		return nil, err
	}
	return kp, nil
}

// restRegisterer is the Registerer a device falls back to when the server
// answers the websocket upgrade with 403: it has never seen this device's
// key and needs a `register` call before it will admit a session.
type restRegisterer struct {
	cfg    *config.DeviceConfig
	signer *keys.KeyPair
}

func (r *restRegisterer) Register(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/register/%s/name/%s",
		restBaseURL(r.cfg), keys.EncodePublic(r.signer.Public), url.PathEscape(r.cfg.DeviceName))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("aegisc: register: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func parseLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}
