// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/cenc-keys/internal/clearkey"
	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keyfile"
	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keystore"
)

var requestCmd = &cobra.Command{
	Use:   "request [LA_URL] [KID] [KID ...]",
	Short: "Request content keys from a Clearkey license server and store them",
	Example: `  # Request two keys from a license server
  cenc-keys request https://license.example.com/clearkey \
    00112233445566778899aabbccddeeff ffeeddccbbaa99887766554433221100

  # Use the license URL from the configuration file
  cenc-keys request --config cenc-keys.yaml 00112233445566778899aabbccddeeff

  # Store a key already known and request the missing one
  cenc-keys request https://license.example.com/clearkey ffeeddccbbaa99887766554433221100 \
    --key 00112233445566778899aabbccddeeff=000102030405060708090a0b0c0d0e0f
`,
	Args: cobra.MinimumNArgs(1),
	RunE: requestCmdRun,
}

type requestFlags struct {
	insecureSkipVerify bool
	retries            int
	keys               []string
}

var requestArgs requestFlags

func init() {
	requestCmd.Flags().BoolVar(&requestArgs.insecureSkipVerify, "insecure-skip-verify", false,
		"Skip TLS certificate verification of the license server.")
	requestCmd.Flags().IntVar(&requestArgs.retries, "retries", 0,
		"Number of times a failed license request is retried (overrides the configuration when positive).")
	requestCmd.Flags().StringArrayVar(&requestArgs.keys, "key", nil,
		"Known key in the KID=KEY format, this flag can be repeated.")
	rootCmd.AddCommand(requestCmd)
}

func requestCmdRun(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd.ErrOrStderr(), rootArgs.verbose)
	conf, err := loadConfig(log)
	if err != nil {
		return err
	}

	laURL := conf.LicenseURL
	if strings.Contains(args[0], "://") {
		laURL = args[0]
		args = args[1:]
	}
	if laURL == "" {
		return errors.New("license URL is required")
	}
	if len(args) == 0 && len(requestArgs.keys) == 0 {
		return errors.New("at least one key ID is required")
	}
	if err := isDir(conf.OutputDir); err != nil {
		return err
	}

	store := keystore.New()
	for _, kid := range args {
		if _, err := store.Add(kid); err != nil {
			return err
		}
	}
	for _, pair := range requestArgs.keys {
		kid, key, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid key %q: expected KID=KEY", pair)
		}
		if _, err := store.AddWithKey(kid, key); err != nil {
			return err
		}
	}

	retries := conf.Retries
	if requestArgs.retries > 0 {
		retries = requestArgs.retries
	}

	client, err := clearkey.NewClient(laURL,
		clearkey.ClientOpt.WithTimeout(conf.TimeoutDuration()),
		clearkey.ClientOpt.WithRetries(retries),
		clearkey.ClientOpt.WithInsecureSkipVerify(conf.InsecureSkipVerify || requestArgs.insecureSkipVerify),
		clearkey.ClientOpt.WithUserAgent("cenc-keys/"+VERSION),
		clearkey.ClientOpt.WithLogger(log),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.TimeoutDuration())
	defer cancel()

	if err := client.RequestKeys(ctx, store); err != nil {
		return err
	}

	rootCmd.Printf("✔ license server: %s\n", client.URL())
	printRecords(cmd.OutOrStdout(), store)

	writer := keyfile.NewWriter(conf.OutputDir, log)
	entries, err := writer.Save(store)
	printEntries(cmd.OutOrStdout(), entries)
	if err != nil {
		return err
	}
	rootCmd.Printf("✔ %d key(s) stored in: %s\n", len(entries), writer.Dir())

	if pending := store.Pending(); len(pending) > 0 {
		return fmt.Errorf("license server returned no key for %d key ID(s)", len(pending))
	}
	return nil
}
