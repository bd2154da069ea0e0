// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/controlplaneio-fluxcd/cenc-keys/internal/config"
)

var (
	VERSION = "0.0.0-dev.0"
)

var rootCmd = &cobra.Command{
	Use:               "cenc-keys",
	Version:           VERSION,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
	Short:             "Command line utility for acquiring and storing CENC content keys",
	Long: `Command line utility for acquiring and storing CENC content keys.
Keys are written as raw 16 byte files named after the key ID, once with the
Clearkey naming scheme and once with the Marlin naming scheme.`,
}

type rootFlags struct {
	configFile string
	outputDir  string
	timeout    time.Duration
	verbose    bool
}

var rootArgs rootFlags

func init() {
	rootCmd.PersistentFlags().StringVar(&rootArgs.configFile, "config", "",
		"Path to the configuration file.")
	rootCmd.PersistentFlags().StringVarP(&rootArgs.outputDir, "output-dir", "o", "",
		"Directory the key files are written to (defaults to the system temporary directory).")
	rootCmd.PersistentFlags().DurationVar(&rootArgs.timeout, "timeout", 0,
		"The length of time to wait for the license server (defaults to 30s).")
	rootCmd.PersistentFlags().BoolVarP(&rootArgs.verbose, "verbose", "v", false,
		"Print debug logs.")
	rootCmd.SetOut(os.Stdout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("✗ %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and applies the flag overrides.
func loadConfig(log logr.Logger) (*config.Config, error) {
	conf, err := config.Load(rootArgs.configFile)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("configuration loaded", "source", conf.Source, "path", rootArgs.configFile)
	if rootArgs.outputDir != "" {
		conf.OutputDir = rootArgs.outputDir
	}
	if rootArgs.timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %s: must be positive", rootArgs.timeout)
	}
	conf.SetTimeout(rootArgs.timeout)
	return conf, nil
}

// newLogger returns a console logger writing to w,
// at debug level when verbose is set.
func newLogger(w io.Writer, verbose bool) logr.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
	return zapr.NewLogger(zap.New(core))
}

func isDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to check path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}
	return nil
}
