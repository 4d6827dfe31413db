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
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tux3/aegis/internal/wire"
)

var eventLevelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

func levelName(l uint8) string {
	if int(l) < len(eventLevelNames) {
		return eventLevelNames[l]
	}
	return fmt.Sprintf("LEVEL%d", l)
}

func newGetEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <device-name>",
		Short: "Show a device's logged events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			reply := &wire.DeviceEventList{}
			if err := c.callCodec(cmd.Context(), "get_device_events", &wire.DeviceNameArg{Name: args[0]}, reply); err != nil {
				return err
			}
			for _, e := range reply.Items {
				fmt.Printf("%s  %-5s  %s\n", time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339), levelName(e.Level), e.Message)
			}
			return nil
		},
	}
}

func newDeleteEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-events <device-name>",
		Short: "Delete a device's logged events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			return c.callCodec(cmd.Context(), "delete_device_events", &wire.DeviceNameArg{Name: args[0]}, nil)
		},
	}
}

func newGetPicturesCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "pictures <device-name>",
		Short: "Fetch a device's stored camera pictures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			reply := &wire.CameraPictureList{}
			if err := c.callCodec(cmd.Context(), "get_device_camera_pictures", &wire.DeviceNameArg{Name: args[0]}, reply); err != nil {
				return err
			}
			if outDir == "" {
				for _, p := range reply.Items {
					fmt.Printf("%d  %s  %d bytes\n", p.ID, time.Unix(p.CreatedAt, 0).UTC().Format(time.RFC3339), len(p.JPEG))
				}
				return nil
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for _, p := range reply.Items {
				path := fmt.Sprintf("%s/%d.jpg", outDir, p.ID)
				if err := os.WriteFile(path, p.JPEG, 0o644); err != nil {
					return err
				}
				fmt.Println(path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "directory to save JPEGs into instead of listing them")
	return cmd
}

func newDeletePicturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-pictures <device-name>",
		Short: "Delete a device's stored camera pictures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClientFromConfig()
			if err != nil {
				return err
			}
			return c.callCodec(cmd.Context(), "delete_device_camera_pictures", &wire.DeviceNameArg{Name: args[0]}, nil)
		},
	}
}
