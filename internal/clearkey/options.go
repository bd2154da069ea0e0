// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package clearkey

import (
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

const (
	// DefaultTimeout bounds a license request when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent with license requests.
	DefaultUserAgent = "cenc-keys/1.0"
)

// clientOptions holds the internal configuration of a Client.
type clientOptions struct {
	timeout            time.Duration
	retries            int
	userAgent          string
	insecureSkipVerify bool
	allowLocalhost     bool
	transport          http.RoundTripper
	logger             logr.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

// ClientOpt contains options for NewClient.
var ClientOpt clientOptionBuilder

// clientOptionBuilder is the internal builder for ClientOption functions.
type clientOptionBuilder struct{}

// WithTimeout bounds the license request, a zero value keeps the default.
func (clientOptionBuilder) WithTimeout(timeout time.Duration) ClientOption {
	return func(opts *clientOptions) {
		if timeout > 0 {
			opts.timeout = timeout
		}
	}
}

// WithRetries sets how many times a failed request is retried.
// The default is zero, retrying is left to the caller.
func (clientOptionBuilder) WithRetries(retries int) ClientOption {
	return func(opts *clientOptions) {
		opts.retries = retries
	}
}

// WithUserAgent sets the User-Agent header.
func (clientOptionBuilder) WithUserAgent(userAgent string) ClientOption {
	return func(opts *clientOptions) {
		opts.userAgent = userAgent
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func (clientOptionBuilder) WithInsecureSkipVerify(skip bool) ClientOption {
	return func(opts *clientOptions) {
		opts.insecureSkipVerify = skip
	}
}

// WithLocalhost allows plain HTTP connections to localhost addresses.
func (clientOptionBuilder) WithLocalhost(allow bool) ClientOption {
	return func(opts *clientOptions) {
		opts.allowLocalhost = allow
	}
}

// WithTransport replaces the HTTP transport, WithInsecureSkipVerify is then ignored.
func (clientOptionBuilder) WithTransport(rt http.RoundTripper) ClientOption {
	return func(opts *clientOptions) {
		opts.transport = rt
	}
}

// WithLogger sets the logger.
func (clientOptionBuilder) WithLogger(log logr.Logger) ClientOption {
	return func(opts *clientOptions) {
		opts.logger = log
	}
}
