// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

func TestStoreCmd(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		expectError  bool
		errorMessage string
	}{
		{
			name: "hex key ID and key",
			args: []string{"store", testKID, testKey},
		},
		{
			name: "UUID key ID and base64 key",
			args: []string{"store", "00112233-4455-6677-8899-AABBCCDDEEFF", testKeyB64},
		},
		{
			name: "base64 key ID",
			args: []string{"store", testKIDB64, testKey},
		},
		{
			name:         "missing key",
			args:         []string{"store", testKID},
			expectError:  true,
			errorMessage: "requires pairs of key ID and key, received 1 arg(s)",
		},
		{
			name:         "odd number of arguments",
			args:         []string{"store", testKID, testKey, "ffeeddccbbaa99887766554433221100"},
			expectError:  true,
			errorMessage: "requires pairs of key ID and key, received 3 arg(s)",
		},
		{
			name:         "short key ID",
			args:         []string{"store", "0011223344", testKey},
			expectError:  true,
			errorMessage: "identifier must be 16 bytes",
		},
		{
			name:         "short key",
			args:         []string{"store", testKID, "00010203"},
			expectError:  true,
			errorMessage: "key must be 16 bytes",
		},
		{
			name:         "undecodable key",
			args:         []string{"store", testKID, "not a key!"},
			expectError:  true,
			errorMessage: "invalid key encoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			tmpDir := t.TempDir()

			output, err := executeCommand(append(tt.args, "--output-dir", tmpDir))

			if tt.expectError {
				g.Expect(err).To(HaveOccurred())
				g.Expect(err.Error()).To(ContainSubstring(tt.errorMessage))

				files, err := os.ReadDir(tmpDir)
				g.Expect(err).ToNot(HaveOccurred())
				g.Expect(files).To(BeEmpty())
				return
			}

			g.Expect(err).ToNot(HaveOccurred())

			marlinPath := filepath.Join(tmpDir, testMarlinFile)
			clearkeyPath := filepath.Join(tmpDir, testKID+".key")
			g.Expect(output).To(ContainSubstring("✔ key stored: " + marlinPath))
			g.Expect(output).To(ContainSubstring("✔ key stored: " + clearkeyPath))
			g.Expect(output).To(ContainSubstring("✔ 1 key(s) stored in: " + tmpDir))

			for _, path := range []string{marlinPath, clearkeyPath} {
				data, err := os.ReadFile(path)
				g.Expect(err).ToNot(HaveOccurred())
				g.Expect(data).To(Equal([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}))
			}
		})
	}
}

func TestStoreCmd_MultipleKeys(t *testing.T) {
	g := NewWithT(t)
	tmpDir := t.TempDir()

	output, err := executeCommand([]string{
		"store",
		testKID, testKey,
		"ffeeddccbbaa99887766554433221100", "0f0e0d0c0b0a09080706050403020100",
		"--output-dir", tmpDir,
	})
	g.Expect(err).ToNot(HaveOccurred())

	files, err := os.ReadDir(tmpDir)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(files).To(HaveLen(4))
	g.Expect(output).To(ContainSubstring(filepath.Join(tmpDir, "ffeeddccbbaa99887766554433221100.key")))
}

func TestStoreCmd_OutputDir(t *testing.T) {
	t.Run("fails with missing directory", func(t *testing.T) {
		g := NewWithT(t)

		_, err := executeCommand([]string{"store", testKID, testKey, "--output-dir", "/nonexistent/path"})
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("directory /nonexistent/path does not exist"))
	})

	t.Run("fails when path is a file", func(t *testing.T) {
		g := NewWithT(t)
		filePath := filepath.Join(t.TempDir(), "file")
		g.Expect(os.WriteFile(filePath, []byte("test"), 0644)).To(Succeed())

		_, err := executeCommand([]string{"store", testKID, testKey, "--output-dir", filePath})
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("is not a directory"))
	})

	t.Run("reads directory from config file", func(t *testing.T) {
		g := NewWithT(t)
		tmpDir := t.TempDir()
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		g.Expect(os.WriteFile(configPath, []byte("outputDir: "+tmpDir+"\n"), 0644)).To(Succeed())

		_, err := executeCommand([]string{"store", testKID, testKey, "--config", configPath})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(filepath.Join(tmpDir, testKID+".key")).To(BeARegularFile())
	})

	t.Run("logs the configuration source", func(t *testing.T) {
		g := NewWithT(t)
		tmpDir := t.TempDir()
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		g.Expect(os.WriteFile(configPath, []byte("outputDir: "+tmpDir+"\n"), 0644)).To(Succeed())

		output, err := executeCommand([]string{"store", testKID, testKey, "--config", configPath, "--verbose"})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring("configuration loaded"))
		g.Expect(output).To(ContainSubstring("static-file"))

		output, err = executeCommand([]string{"store", testKID, testKey, "--output-dir", tmpDir, "--verbose"})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring("no-config"))
	})

	t.Run("flag overrides config file", func(t *testing.T) {
		g := NewWithT(t)
		configDir := t.TempDir()
		flagDir := t.TempDir()
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		g.Expect(os.WriteFile(configPath, []byte("outputDir: "+configDir+"\n"), 0644)).To(Succeed())

		_, err := executeCommand([]string{"store", testKID, testKey, "--config", configPath, "--output-dir", flagDir})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(filepath.Join(flagDir, testKID+".key")).To(BeARegularFile())
		g.Expect(filepath.Join(configDir, testKID+".key")).ToNot(BeAnExistingFile())
	})
}
