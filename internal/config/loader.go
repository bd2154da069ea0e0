// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Load reads, validates, and applies default values to missing fields in
// the configuration. If the filename is empty it returns the configuration
// with default values applied.
func Load(filename string) (*Config, error) {
	if filename == "" {
		var conf Config
		conf.ApplyDefaults()
		conf.Source = SourceDefaults
		return &conf, nil
	}
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	conf, err := parse(b)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration in config file '%s': %w", filename, err)
	}
	conf.Source = SourceFile
	return conf, nil
}

// parse unmarshals, validates and applies default values to
// missing fields in the configuration. Unknown fields are rejected.
func parse(b []byte) (*Config, error) {
	var conf Config
	if err := yaml.UnmarshalStrict(b, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	conf.ApplyDefaults()
	return &conf, nil
}
