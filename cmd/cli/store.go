// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keyfile"
	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keystore"
)

var storeCmd = &cobra.Command{
	Use:   "store [KID] [KEY] [[KID] [KEY] ...]",
	Short: "Store known content keys under the Clearkey and Marlin naming schemes",
	Example: `  # Store a key given in hex
  cenc-keys store 00112233445566778899aabbccddeeff 000102030405060708090a0b0c0d0e0f

  # Store several keys, the key ID in UUID form and the key in base64
  cenc-keys store 00112233-4455-6677-8899-aabbccddeeff AAECAwQFBgcICQoLDA0ODw== \
    ffeeddccbbaa99887766554433221100 0f0e0d0c0b0a09080706050403020100

  # Store a key in a custom directory
  cenc-keys store 00112233445566778899aabbccddeeff 000102030405060708090a0b0c0d0e0f \
    --output-dir /var/lib/keys
`,
	Args: storeArgsValidator,
	RunE: storeCmdRun,
}

func init() {
	rootCmd.AddCommand(storeCmd)
}

func storeArgsValidator(cmd *cobra.Command, args []string) error {
	if len(args) < 2 || len(args)%2 != 0 {
		return fmt.Errorf("requires pairs of key ID and key, received %d arg(s)", len(args))
	}
	return nil
}

func storeCmdRun(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd.ErrOrStderr(), rootArgs.verbose)
	conf, err := loadConfig(log)
	if err != nil {
		return err
	}
	if err := isDir(conf.OutputDir); err != nil {
		return err
	}

	store := keystore.New()
	for i := 0; i < len(args); i += 2 {
		if _, err := store.AddWithKey(args[i], args[i+1]); err != nil {
			return err
		}
	}

	writer := keyfile.NewWriter(conf.OutputDir, log)
	entries, err := writer.Save(store)
	printEntries(cmd.OutOrStdout(), entries)
	if err != nil {
		return err
	}

	rootCmd.Printf("✔ %d key(s) stored in: %s\n", len(entries), writer.Dir())
	return nil
}
