// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package config loads the cenc-keys configuration file.
//
// Example:
//
//	licenseURL: https://license.example.com/clearkey
//	insecureSkipVerify: false
//	outputDir: /var/lib/cenc-keys
//	timeout: 30s
//	retries: 0
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// DefaultTimeout is applied when the configuration sets no timeout.
	DefaultTimeout = 30 * time.Second

	// SourceDefaults marks a configuration built without a file.
	SourceDefaults = "no-config"

	// SourceFile marks a configuration read from a file.
	SourceFile = "static-file"
)

// Config holds the settings shared by the cenc-keys commands.
type Config struct {
	// LicenseURL is the Clearkey license acquisition URL.
	LicenseURL string `json:"licenseURL,omitempty"`

	// InsecureSkipVerify disables TLS certificate verification
	// of the license server.
	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty"`

	// OutputDir is the directory key files are written to,
	// defaults to the platform temporary directory.
	OutputDir string `json:"outputDir,omitempty"`

	// Timeout bounds a license request, in Go duration format.
	Timeout string `json:"timeout,omitempty"`

	// Retries is the number of times a failed license request is retried.
	Retries int `json:"retries,omitempty"`

	// Source records where the configuration came from.
	Source string `json:"-"`

	timeout time.Duration
}

// ApplyDefaults fills in the fields left empty.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = os.TempDir()
	}
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout.String()
	}
	if c.timeout <= 0 {
		if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
			c.timeout = d
		} else {
			c.timeout = DefaultTimeout
		}
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.LicenseURL != "" {
		u, err := url.Parse(c.LicenseURL)
		if err != nil {
			return fmt.Errorf("invalid licenseURL: %w", err)
		}
		if !strings.EqualFold(u.Scheme, "https") && !strings.EqualFold(u.Scheme, "http") {
			return fmt.Errorf("invalid licenseURL '%s': scheme must be http or https", c.LicenseURL)
		}
		if u.Host == "" {
			return fmt.Errorf("invalid licenseURL '%s': missing host", c.LicenseURL)
		}
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid timeout '%s': must be positive", c.Timeout)
		}
		c.timeout = d
	}

	if c.Retries < 0 {
		return fmt.Errorf("invalid retries %d: must not be negative", c.Retries)
	}

	return nil
}

// TimeoutDuration returns the parsed license request timeout.
func (c *Config) TimeoutDuration() time.Duration {
	if c.timeout <= 0 {
		return DefaultTimeout
	}
	return c.timeout
}

// SetTimeout overrides the license request timeout.
func (c *Config) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.timeout = d
	c.Timeout = d.String()
}
