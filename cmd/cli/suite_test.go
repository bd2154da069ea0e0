// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"bytes"
)

const (
	testKID    = "00112233445566778899aabbccddeeff"
	testKey    = "000102030405060708090a0b0c0d0e0f"
	testKIDB64 = "ABEiM0RVZneImaq7zN3u/w=="
	testKeyB64 = "AAECAwQFBgcICQoLDA0ODw=="

	// testMarlinFile is sha1("urn:marlin:kid:" + testKID) + ".key".
	testMarlinFile = "416dfc413177330d3fcfa5e8066456eb7262ef77.key"
)

// executeCommand executes a CLI command with the given args and returns the output and error.
// This helper function can be reused across all CLI command tests.
func executeCommand(args []string) (string, error) {
	defer resetCmdArgs()

	// Capture output
	buf := new(bytes.Buffer)

	// Set up the command
	cmd := rootCmd
	cmd.SetArgs(args)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	// Execute command
	err := cmd.Execute()

	return buf.String(), err
}

// resetCmdArgs resets all command-specific flags to their default values.
// This should be called between tests to ensure clean state.
func resetCmdArgs() {
	rootArgs = rootFlags{}
	requestArgs = requestFlags{}
	lookupArgs = lookupFlags{scheme: "clearkey"}
	serveArgs = serveFlags{listen: ":8080"}
}
