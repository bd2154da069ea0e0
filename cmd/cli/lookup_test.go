// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestLookupCmd(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		setupFunc    func(dir string) error
		expectError  bool
		errorMessage string
	}{
		{
			name: "clearkey scheme by default",
			args: []string{"lookup", testKID},
		},
		{
			name: "marlin scheme",
			args: []string{"lookup", testKID, "--scheme", "marlin"},
		},
		{
			name: "key ID in UUID form",
			args: []string{"lookup", "00112233-4455-6677-8899-aabbccddeeff"},
		},
		{
			name: "missing Marlin file",
			args: []string{"lookup", testKID, "--scheme", "marlin"},
			setupFunc: func(dir string) error {
				return os.Remove(filepath.Join(dir, testMarlinFile))
			},
			expectError:  true,
			errorMessage: "key not found",
		},
		{
			name:         "unknown key ID",
			args:         []string{"lookup", "ffeeddccbbaa99887766554433221100"},
			expectError:  true,
			errorMessage: "key not found",
		},
		{
			name: "truncated key file",
			args: []string{"lookup", testKID},
			setupFunc: func(dir string) error {
				return os.WriteFile(filepath.Join(dir, testKID+".key"), []byte{1, 2, 3}, 0600)
			},
			expectError:  true,
			errorMessage: "key must be 16 bytes",
		},
		{
			name:         "unknown scheme",
			args:         []string{"lookup", testKID, "--scheme", "playready"},
			expectError:  true,
			errorMessage: "unknown naming scheme",
		},
		{
			name:         "missing key ID",
			args:         []string{"lookup"},
			expectError:  true,
			errorMessage: "accepts 1 arg(s), received 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			tmpDir := t.TempDir()

			_, err := executeCommand([]string{"store", testKID, testKey, "--output-dir", tmpDir})
			g.Expect(err).ToNot(HaveOccurred())

			if tt.setupFunc != nil {
				g.Expect(tt.setupFunc(tmpDir)).To(Succeed())
			}

			output, err := executeCommand(append(tt.args, "--output-dir", tmpDir))

			if tt.expectError {
				g.Expect(err).To(HaveOccurred())
				g.Expect(err.Error()).To(ContainSubstring(tt.errorMessage))
				return
			}

			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(strings.TrimSpace(output)).To(Equal(testKey))
		})
	}
}
