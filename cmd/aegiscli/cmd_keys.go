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

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tux3/aegis/crypto/keys"
)

func newDeriveRootKeyFileCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "derive-root-key-file",
		Short: "Derive the root signing key from the admin password and write it to a key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword()
			if err != nil {
				return err
			}
			rk, err := keys.Derive(password)
			if err != nil {
				return err
			}
			if err := keys.SaveFile(out, rk.Sig); err != nil {
				return err
			}
			fmt.Printf("root signing key written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", os.ExpandEnv("$HOME/.aegis/admin.key"), "path to write the derived private key")
	return cmd
}

func newDeriveRootPubkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "derive-root-pubkey",
		Short: "Derive the root public key from the admin password and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword()
			if err != nil {
				return err
			}
			rk, err := keys.Derive(password)
			if err != nil {
				return err
			}
			fmt.Println(keys.EncodePublic(rk.Sig.Public))
			return nil
		},
	}
}

func newGenDeviceKeyCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "gen-device-key",
		Short: "Generate a fresh device key pair and write it to a key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := keys.Generate()
			if err != nil {
				return err
			}
			if err := keys.SaveFile(out, kp); err != nil {
				return err
			}
			fmt.Printf("device key written to %s\npublic key: %s\n", out, keys.EncodePublic(kp.Public))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "device.key", "path to write the generated private key")
	return cmd
}

// readPassword prompts on the controlling terminal without echoing input,
// matching the admin CLI's "remember my password, not my keys" workflow.
func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "admin password: ")
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("aegiscli: read password: %w", err)
	}
	return string(data), nil
}
