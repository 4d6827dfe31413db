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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tux3/aegis/internal/wire"
)

// newSetStatusCmd implements the no-op-read / partial-write semantics of
// §4.7 directly: a call with none of the three flags passed sends an arg
// with every OptBool unset, which the server treats as a pure read.
func newSetStatusCmd() *cobra.Command {
	var vtLocked, sshLocked, drawDecoy string

	cmd := &cobra.Command{
		Use:   "status <device-name>",
		Short: "Show or update a device's enforcement status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := &wire.SetStatusArg{DevName: args[0]}

			var err error
			if arg.VTLocked, err = parseOptBool(vtLocked); err != nil {
				return fmt.Errorf("--vt-locked: %w", err)
			}
			if arg.SSHLocked, err = parseOptBool(sshLocked); err != nil {
				return fmt.Errorf("--ssh-locked: %w", err)
			}
			if arg.DrawDecoy, err = parseOptBool(drawDecoy); err != nil {
				return fmt.Errorf("--draw-decoy: %w", err)
			}

			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			reply := &wire.StatusReply{}
			if err := c.callCodec(cmd.Context(), "set_status", arg, reply); err != nil {
				return err
			}

			state := "offline"
			if reply.IsConnected {
				state = "online"
			}
			fmt.Printf("device:     %s (%s)\n", args[0], state)
			fmt.Printf("vt_locked:  %v\n", reply.VTLocked)
			fmt.Printf("ssh_locked: %v\n", reply.SSHLocked)
			fmt.Printf("draw_decoy: %v\n", reply.DrawDecoy)
			return nil
		},
	}

	cmd.Flags().StringVar(&vtLocked, "vt-locked", "", "true|false, leave unset to not change")
	cmd.Flags().StringVar(&sshLocked, "ssh-locked", "", "true|false, leave unset to not change")
	cmd.Flags().StringVar(&drawDecoy, "draw-decoy", "", "true|false, leave unset to not change")
	return cmd
}

func parseOptBool(s string) (wire.OptBool, error) {
	switch s {
	case "":
		return wire.None, nil
	case "true":
		return wire.Some(true), nil
	case "false":
		return wire.Some(false), nil
	default:
		return wire.OptBool{}, fmt.Errorf("expected true or false, got %q", s)
	}
}

func newSendPowerCmd() *cobra.Command {
	var action string

	cmd := &cobra.Command{
		Use:   "power <device-name>",
		Short: "Send a power command to a connected device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pa wire.PowerAction
			switch action {
			case "reboot":
				pa = wire.PowerReboot
			case "poweroff":
				pa = wire.PowerPoweroff
			default:
				return fmt.Errorf("--action must be reboot or poweroff, got %q", action)
			}

			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			return c.callCodec(cmd.Context(), "send_power_command",
				&wire.SendPowerCommandArg{DevName: args[0], Action: pa}, nil)
		},
	}

	cmd.Flags().StringVar(&action, "action", "reboot", "reboot or poweroff")
	return cmd
}
