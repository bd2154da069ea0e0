// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/cenc-keys/internal/clearkey"
	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keyfile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored content keys as a Clearkey license server",
	Example: `  # Serve the keys written to the system temporary directory
  cenc-keys serve

  # Serve the keys of a directory on a custom address
  cenc-keys serve --keys-dir /var/lib/keys --listen 127.0.0.1:9090
`,
	Args: cobra.NoArgs,
	RunE: serveCmdRun,
}

type serveFlags struct {
	listen  string
	keysDir string
}

var serveArgs = serveFlags{
	listen: ":8080",
}

func init() {
	serveCmd.Flags().StringVar(&serveArgs.listen, "listen", serveArgs.listen,
		"The address the license server listens on.")
	serveCmd.Flags().StringVar(&serveArgs.keysDir, "keys-dir", "",
		"Directory holding the key files (defaults to the output directory).")
	rootCmd.AddCommand(serveCmd)
}

func serveCmdRun(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd.ErrOrStderr(), rootArgs.verbose)
	conf, err := loadConfig(log)
	if err != nil {
		return err
	}

	keysDir := conf.OutputDir
	if serveArgs.keysDir != "" {
		keysDir = serveArgs.keysDir
	}
	if err := isDir(keysDir); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	clearkey.MustRegisterMetrics(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := newServeMux(keyfile.Dir{Path: keysDir, Scheme: keyfile.SchemeClearkey}, reg, log)
	return startServer(ctx, serveArgs.listen, handler, log)
}

// newServeMux routes license requests to the Clearkey server
// and exposes the metrics of reg.
func newServeMux(provider clearkey.KeyProvider, reg *prometheus.Registry, log logr.Logger) http.Handler {
	mux := http.NewServeMux()
	license := clearkey.NewServer(provider, log)
	mux.Handle("/", license)
	mux.Handle("/license", license)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// startServer serves handler on addr until ctx is cancelled.
func startServer(ctx context.Context, addr string, handler http.Handler, log logr.Logger) error {
	timeout := 30 * time.Second
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting license server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutdown signal received, gracefully stopping license server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		return err
	}

	log.Info("License server stopped")
	return nil
}
