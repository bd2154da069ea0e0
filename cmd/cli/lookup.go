// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keyfile"
	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keystore"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [KID]",
	Short: "Print a stored content key in hex",
	Example: `  # Print the key stored under the Clearkey naming scheme
  cenc-keys lookup 00112233445566778899aabbccddeeff

  # Print the key stored under the Marlin naming scheme
  cenc-keys lookup 00112233445566778899aabbccddeeff --scheme marlin
`,
	Args: cobra.ExactArgs(1),
	RunE: lookupCmdRun,
}

type lookupFlags struct {
	scheme string
}

var lookupArgs = lookupFlags{
	scheme: string(keyfile.SchemeClearkey),
}

func init() {
	lookupCmd.Flags().StringVar(&lookupArgs.scheme, "scheme", lookupArgs.scheme,
		"Naming scheme of the key file, one of [marlin, clearkey].")
	rootCmd.AddCommand(lookupCmd)
}

func lookupCmdRun(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(newLogger(cmd.ErrOrStderr(), rootArgs.verbose))
	if err != nil {
		return err
	}

	scheme, err := keyfile.ParseScheme(lookupArgs.scheme)
	if err != nil {
		return err
	}

	id, err := keystore.ParseKeyID(args[0])
	if err != nil {
		return err
	}

	key, err := keyfile.Load(conf.OutputDir, id, scheme)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), key.String())
	return err
}
