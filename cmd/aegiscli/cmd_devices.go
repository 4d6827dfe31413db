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
	"encoding/base64"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tux3/aegis/crypto/keys"
	"github.com/tux3/aegis/internal/wire"
)

func newRegisterCmd() *cobra.Command {
	var keyPath string
	cmd := &cobra.Command{
		Use:   "register <device-name>",
		Short: "Register a device on the operator's behalf using its key file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			kp, err := keys.LoadFile(keyPath)
			if err != nil {
				return fmt.Errorf("aegiscli: load device key from %s: %w", keyPath, err)
			}
			return c.registerDevice(cmd.Context(), args[0], kp.Public)
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", "device.key", "path to the device's private key file")
	return cmd
}

func newListPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-pending",
		Short: "List devices awaiting confirmation",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			reply := &wire.PendingDeviceList{}
			if err := c.callCodec(cmd.Context(), "list_pending_devices", nil, reply); err != nil {
				return err
			}
			for _, d := range reply.Items {
				fmt.Printf("%-24s %s  created %s\n", d.Name,
					base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(d.PubKey),
					time.Unix(d.CreatedAt, 0).UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newConfirmPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <device-name>",
		Short: "Confirm a pending device into the registered set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			return c.callCodec(cmd.Context(), "confirm_pending_device", &wire.DeviceNameArg{Name: args[0]}, nil)
		},
	}
}

func newDeletePendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-pending <device-name>",
		Short: "Reject and remove a pending device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			return c.callCodec(cmd.Context(), "delete_pending_device", &wire.DeviceNameArg{Name: args[0]}, nil)
		},
	}
}

func newListRegisteredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			reply := &wire.RegisteredDeviceList{}
			if err := c.callCodec(cmd.Context(), "list_registered_devices", nil, reply); err != nil {
				return err
			}
			for _, d := range reply.Items {
				state := "offline"
				if d.IsConnected {
					state = "online"
				}
				fmt.Printf("%-24s %-8s created %s\n", d.Name, state,
					time.Unix(d.CreatedAt, 0).UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newDeleteRegisteredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <device-name>",
		Short: "Remove a registered device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			return c.callCodec(cmd.Context(), "delete_registered_device", &wire.DeviceNameArg{Name: args[0]}, nil)
		},
	}
}
