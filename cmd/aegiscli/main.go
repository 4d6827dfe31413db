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

// Command aegiscli is the admin CLI: one subcommand per admin-role
// handler of §4.7, each signing its request under the operator's root key
// and talking to aegisd over the `/admin/<handler>` REST surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tux3/aegis/config"
	"github.com/tux3/aegis/crypto/keys"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "aegiscli",
		Short:         "Administer Aegis-managed devices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.ExpandEnv("$HOME/.aegis/admin.yaml"), "path to admin configuration")

	rootCmd.AddCommand(
		newRegisterCmd(),
		newListPendingCmd(),
		newConfirmPendingCmd(),
		newDeletePendingCmd(),
		newListRegisteredCmd(),
		newDeleteRegisteredCmd(),
		newSetStatusCmd(),
		newSendPowerCmd(),
		newGetPicturesCmd(),
		newDeletePicturesCmd(),
		newGetEventsCmd(),
		newDeleteEventsCmd(),
		newDeriveRootKeyFileCmd(),
		newDeriveRootPubkeyCmd(),
		newGenDeviceKeyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClientFromConfig loads the admin configuration and signing key and
// builds the adminClient every subcommand shares.
func newClientFromConfig() (*adminClient, error) {
	cfg, err := config.LoadAdmin(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.ServerAddr == "" {
		return nil, fmt.Errorf("aegiscli: server_addr is not configured")
	}

	signer, err := keys.LoadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("aegiscli: load admin key from %s: %w", cfg.KeyPath, err)
	}

	return newAdminClient(cfg, signer), nil
}
